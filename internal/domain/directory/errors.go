package directory

import "perfeval/internal/platform/apperr"

var (
	ErrUserNotFound       = apperr.NotFound("user_not_found", "user not found")
	ErrDepartmentNotFound = apperr.NotFound("department_not_found", "department not found")
	ErrSupervisorNotFound = apperr.NotFound("supervisor_not_found", "supervisor not found")
	ErrReferenceNotFound  = apperr.NotFound("reference_not_found", "referenced department or user not found")
	ErrEmailTaken         = apperr.Conflict("email_taken", "email already in use")
	ErrUserHasEvaluations = apperr.Conflict("user_has_evaluations", "user has evaluations and cannot be deleted")
	ErrReportingCycle     = apperr.New(apperr.ErrValidation, "reporting_cycle", "supervisor assignment would create a reporting cycle")
	ErrSelfSupervision    = apperr.New(apperr.ErrValidation, "self_supervision", "a user cannot supervise themselves")
)
