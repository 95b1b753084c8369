package errors

import "errors"

// Kinds. Every error returned by services unwraps to exactly one of these.
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("access denied")
	ErrNotFound         = errors.New("resource not found")
	ErrConflict         = errors.New("resource conflict")
	ErrInternalServer   = errors.New("internal server error")
)

var (
	ErrInvalidCredentials = New(ErrUnauthorized, "Invalid email or password.")
	ErrMissingToken       = New(ErrUnauthorized, "Access denied. No token provided.")
	ErrInvalidToken       = New(ErrUnauthorized, "Invalid or expired token.")
	ErrAdminOnly          = New(ErrForbidden, "Access denied. Admin only.")

	ErrUserNotFound      = New(ErrNotFound, "User not found.")
	ErrEmailInUse        = New(ErrConflict, "Email already in use.")
	ErrCannotDeleteAdmin = New(ErrForbidden, "Cannot delete admin user.")

	ErrTaskNotFound       = New(ErrNotFound, "Task not found.")
	ErrNotAssignedToTask  = New(ErrForbidden, "Not assigned to this task.")
	ErrStaffFieldsOnly    = New(ErrForbidden, "Staff can only update status and comment.")
	ErrStaffOnly          = New(ErrForbidden, "Only assigned staff can post status updates.")
	ErrCommentRequired    = New(ErrValidationFailed, "Comment is required for every status change.")
	ErrAssigneesRequired  = New(ErrValidationFailed, "At least one assignee is required.")
	ErrInvalidAssignee    = New(ErrValidationFailed, "Assignees must be existing staff members.")
	ErrInvalidTitle       = New(ErrValidationFailed, "Title is required.")
	ErrInvalidPriority    = New(ErrValidationFailed, "Priority must be one of Low, Medium, High.")
	ErrInvalidDeadline    = New(ErrValidationFailed, "Deadline is required and must be a valid date.")
	ErrInvalidStatus      = New(ErrValidationFailed, "Invalid status.")
	ErrInvalidDescription = New(ErrValidationFailed, "Description is too long.")

	ErrA3NotFound        = New(ErrNotFound, "A3 item not found.")
	ErrNotAssignedToA3   = New(ErrForbidden, "Not authorized to update this A3 item.")
	ErrA3CommentRequired = New(ErrValidationFailed, "Comment is required when marking A3 as completed.")
	ErrInvalidName       = New(ErrValidationFailed, "Name is required.")
	ErrInvalidAmount     = New(ErrValidationFailed, "Amount must be a non-negative number.")

	ErrSummaryRequired   = New(ErrValidationFailed, "Summary is required.")
	ErrInvalidReportDate = New(ErrValidationFailed, "Report date must be formatted as YYYY-MM-DD.")

	ErrInvalidEmail    = New(ErrValidationFailed, "A valid email is required.")
	ErrInvalidPassword = New(ErrValidationFailed, "Password must be at least 6 characters.")
	ErrInvalidUserName = New(ErrValidationFailed, "Name is required.")
	ErrBadRequest      = New(ErrValidationFailed, "Malformed request body.")
	ErrMissingRef      = New(ErrValidationFailed, "Referenced record does not exist.")
)

var (
	ErrConfigFileReadFailed = errors.New("failed to read config file")
	ErrConfigParseFailed    = errors.New("failed to parse config file")
	ErrConfigInvalidFormat  = errors.New("invalid config value")
)

type domainError struct {
	kind error
	msg  string
}

func (e *domainError) Error() string { return e.msg }

func (e *domainError) Unwrap() error { return e.kind }

// New returns an error with a user-facing message that matches kind under errors.Is.
func New(kind error, msg string) error {
	return &domainError{kind: kind, msg: msg}
}

func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

// Kind reports which kind err belongs to, ErrInternalServer when none.
func Kind(err error) error {
	for _, kind := range []error{
		ErrValidationFailed,
		ErrUnauthorized,
		ErrForbidden,
		ErrNotFound,
		ErrConflict,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrInternalServer
}

// IsDomain reports whether err carries a message meant for the client.
func IsDomain(err error) bool {
	var de *domainError
	return errors.As(err, &de)
}
