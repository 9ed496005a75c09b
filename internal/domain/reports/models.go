package reports

import "time"

type UserReport struct {
	Averages map[string]float64 `json:"averages"`
	Comments []string           `json:"comments"`
}

// AreaRow holds the mean of answer keys "1".."10" for one department. A nil
// score means no evaluation in the group carried that key.
type AreaRow struct {
	DepartmentID   *string  `json:"department_id"`
	DepartmentName *string  `json:"department_name"`
	P1             *float64 `json:"p1"`
	P2             *float64 `json:"p2"`
	P3             *float64 `json:"p3"`
	P4             *float64 `json:"p4"`
	P5             *float64 `json:"p5"`
	P6             *float64 `json:"p6"`
	P7             *float64 `json:"p7"`
	P8             *float64 `json:"p8"`
	P9             *float64 `json:"p9"`
	P10            *float64 `json:"p10"`
}

// EvaluationRow is one stored evaluation of the reported user.
type EvaluationRow struct {
	ID        string
	CycleID   string
	Answers   map[string]float64
	Comment   string
	CreatedAt time.Time
}

type DepartmentRef struct {
	ID   string
	Name string
}

// AreaSample is the answer set of one evaluation tagged with the evaluated
// user's department.
type AreaSample struct {
	DepartmentID *string
	Answers      map[string]float64
}
