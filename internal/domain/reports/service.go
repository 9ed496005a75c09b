package reports

import "context"

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

// UserReport aggregates every evaluation of userID across all cycles.
func (s *Service) UserReport(ctx context.Context, userID string) (UserReport, error) {
	rows, err := s.store.UserEvaluations(ctx, userID)
	if err != nil {
		return UserReport{}, err
	}
	if len(rows) == 0 {
		return UserReport{}, ErrNoEvaluations
	}
	return UserReport{Averages: averageAnswers(rows), Comments: collectComments(rows)}, nil
}

func (s *Service) AreaReport(ctx context.Context) ([]AreaRow, error) {
	departments, err := s.store.Departments(ctx)
	if err != nil {
		return nil, err
	}
	samples, err := s.store.AreaSamples(ctx)
	if err != nil {
		return nil, err
	}
	return aggregateAreas(departments, samples), nil
}

// RenderUserReportPDF renders the raw evaluations of userID, one line each.
func (s *Service) RenderUserReportPDF(ctx context.Context, userID string) ([]byte, error) {
	rows, err := s.store.UserEvaluations(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoEvaluations
	}
	return renderUserPDF(userID, rows)
}
