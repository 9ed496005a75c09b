package evaluations

import "perfeval/internal/platform/apperr"

var (
	ErrNoActiveCycle      = apperr.Forbidden("no_active_cycle", "no active evaluation cycle")
	ErrDuplicate          = apperr.Conflict("duplicate_evaluation", "evaluation already submitted for this user in the active cycle")
	ErrEvaluatedNotFound  = apperr.NotFound("evaluated_not_found", "evaluated user not found")
	ErrSelfEvaluation     = apperr.New(apperr.ErrValidation, "self_evaluation", "users cannot evaluate themselves")
	ErrUnknownQuestionKey = apperr.New(apperr.ErrValidation, "unknown_question", "answer key does not match a question of the active cycle")
)
