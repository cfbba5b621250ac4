package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a typed domain error carrying the machine code and HTTP status
// the handlers surface it with.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap keeps err as the cause behind a typed domain error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// General API errors.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Binding admission errors. All are synchronous, non-retryable validation
// failures surfaced to the caller as a rejected request.
var (
	ErrOrganizationNotFound = New("ORGANIZATION_NOT_FOUND", http.StatusNotFound, "organization not found")

	ErrDuplicateAssignment = New("DUPLICATE_ASSIGNMENT", http.StatusConflict,
		"teacher is already assigned to this subject and class")
	ErrClassSubjectDuplicate = New("CLASS_SUBJECT_DUPLICATE", http.StatusConflict,
		"subject is already bound to this class")
	ErrClassBandSubjectDuplicate = New("CLASS_BAND_SUBJECT_DUPLICATE", http.StatusConflict,
		"subject is already bound to this class band")

	ErrTeacherExceedsAvailableSchedules = New("TEACHER_EXCEEDS_AVAILABLE_SCHEDULES", http.StatusUnprocessableEntity,
		"teacher would exceed the available weekly schedule slots")
	ErrRoomExceedsAvailableSchedules = New("ROOM_EXCEEDS_AVAILABLE_SCHEDULES", http.StatusUnprocessableEntity,
		"room would exceed the available weekly schedule slots")

	// Reserved: the room seating survey and per-class workload totals are
	// computed during validation but not enforced. Kept so enabling
	// enforcement later does not change the taxonomy.
	ErrRoomCapacityExceeded = New("ROOM_CAPACITY_EXCEEDED", http.StatusUnprocessableEntity,
		"room seating capacity exceeded")
	ErrTeacherWorkloadExceeded = New("TEACHER_WORKLOAD_EXCEEDED", http.StatusUnprocessableEntity,
		"teacher weekly workload ceiling exceeded")
)

// FromError returns err as an *Error, wrapping unknown errors as internal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone copies a template error, optionally overriding its message.
func Clone(template *Error, message string) *Error {
	if template == nil {
		return nil
	}
	copied := *template
	if message != "" {
		copied.Message = message
	}
	return &copied
}
