package cycles

import "perfeval/internal/platform/apperr"

var (
	ErrCycleNotFound = apperr.NotFound("cycle_not_found", "cycle not found")
	ErrNoActiveCycle = apperr.NotFound("no_active_cycle", "no active cycle")
	ErrCycleInUse    = apperr.Conflict("cycle_in_use", "cycle has evaluations and cannot be deleted")
)
