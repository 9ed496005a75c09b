package reports

import "perfeval/internal/platform/apperr"

var ErrNoEvaluations = apperr.NotFound("no_evaluations", "no evaluations for this user")
