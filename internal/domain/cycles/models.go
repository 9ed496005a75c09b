package cycles

import "time"

type Cycle struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	StartDate Date       `json:"start_date"`
	EndDate   Date       `json:"end_date"`
	Active    bool       `json:"active"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	Questions []Question `json:"questions"`
}

type Question struct {
	ID       string `json:"id"`
	CycleID  string `json:"cycle_id"`
	Position int    `json:"position"`
	Text     string `json:"text"`
}

// Input is the raw create/update payload. Dates are unparsed so the service
// owns date validation.
type Input struct {
	Name      string
	StartDate string
	EndDate   string
	Questions []string
	Active    *bool
}

// Draft is a validated Input ready to persist.
type Draft struct {
	Name      string
	StartDate Date
	EndDate   Date
	Questions []string
	Active    *bool
}
