package cycles

import (
	"log/slog"
	"strings"

	"perfeval/internal/platform/apperr"
)

// StatusOn derives the lifecycle state of c on the given day. Nothing is
// persisted: an elapsed cycle keeps its active flag and reads as expired.
func StatusOn(today Date, c Cycle) Status {
	switch {
	case today.Before(c.StartDate):
		return StatusDraft
	case today.After(c.EndDate):
		return StatusExpired
	case c.Active:
		return StatusActive
	default:
		return StatusDraft
	}
}

// IsCurrent reports whether c is flagged active and today falls inside its
// inclusive window.
func IsCurrent(today Date, c Cycle) bool {
	return c.Active && !today.Before(c.StartDate) && !today.After(c.EndDate)
}

// SelectActive picks the current cycle. More than one match is a data error;
// the most recently created wins.
func SelectActive(today Date, cycles []Cycle) (Cycle, bool) {
	var (
		chosen  Cycle
		found   bool
		matches int
	)
	for _, c := range cycles {
		if !IsCurrent(today, c) {
			continue
		}
		matches++
		if !found || c.CreatedAt.After(chosen.CreatedAt) {
			chosen = c
			found = true
		}
	}
	if matches > 1 {
		slog.Warn("multiple active cycles", "date", today.String(), "count", matches, "chosen", chosen.ID)
	}
	return chosen, found
}

func validateInput(in Input) (Draft, error) {
	verr := &apperr.ValidationError{}
	draft := Draft{Name: strings.TrimSpace(in.Name), Active: in.Active}
	if draft.Name == "" {
		verr.Add("name", "name is required")
	}

	start, err := ParseDate(in.StartDate)
	if err != nil {
		verr.Add("start_date", err.Error())
	}
	end, err := ParseDate(in.EndDate)
	if err != nil {
		verr.Add("end_date", err.Error())
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		verr.Add("end_date", "end_date must not be before start_date")
	}
	draft.StartDate = start
	draft.EndDate = end

	if len(in.Questions) == 0 {
		verr.Add("questions", "at least one question is required")
	}
	for _, text := range in.Questions {
		text = strings.TrimSpace(text)
		if text == "" {
			verr.Add("questions", "question text must not be blank")
			break
		}
		draft.Questions = append(draft.Questions, text)
	}

	if err := verr.OrNil(); err != nil {
		return Draft{}, err
	}
	return draft, nil
}
