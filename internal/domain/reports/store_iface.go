package reports

import "context"

type StoreAPI interface {
	UserEvaluations(ctx context.Context, userID string) ([]EvaluationRow, error)
	Departments(ctx context.Context) ([]DepartmentRef, error)
	AreaSamples(ctx context.Context) ([]AreaSample, error)
}
