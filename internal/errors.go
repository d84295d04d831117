package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeInvalidState ErrorType = "INVALID_STATE"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAmount    ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"
	ErrCodeInvalidTime      ErrorCode = "INVALID_TIME"
	ErrCodeMissingField     ErrorCode = "MISSING_FIELD"
	ErrCodeMissingReason    ErrorCode = "MISSING_REASON"
	ErrCodeInvalidType      ErrorCode = "INVALID_TYPE"
	ErrCodeInvalidFilter    ErrorCode = "INVALID_FILTER"
	ErrCodeStatusReadOnly   ErrorCode = "STATUS_READ_ONLY"
	ErrCodeInvalidPayload   ErrorCode = "INVALID_PAYLOAD"
	ErrCodeUnsupportedFile  ErrorCode = "UNSUPPORTED_FILE_TYPE"
	ErrCodeFileTooLarge     ErrorCode = "FILE_TOO_LARGE"

	ErrCodeTimeEntryNotFound  ErrorCode = "TIME_ENTRY_NOT_FOUND"
	ErrCodeExpenseNotFound    ErrorCode = "EXPENSE_NOT_FOUND"
	ErrCodeActivityNotFound   ErrorCode = "ACTIVITY_NOT_FOUND"
	ErrCodeProjectNotFound    ErrorCode = "PROJECT_NOT_FOUND"
	ErrCodeClientNotFound     ErrorCode = "CLIENT_NOT_FOUND"
	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodeAttachmentNotFound ErrorCode = "ATTACHMENT_NOT_FOUND"
	ErrCodeSessionNotFound    ErrorCode = "CLOCK_SESSION_NOT_FOUND"

	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	ErrCodeManagerRequired  ErrorCode = "MANAGER_REQUIRED"
	ErrCodeAdminRequired    ErrorCode = "ADMIN_REQUIRED"
	ErrCodeSelfApproval     ErrorCode = "SELF_APPROVAL"

	ErrCodeNotPending      ErrorCode = "NOT_PENDING"
	ErrCodeDecisionRace    ErrorCode = "ALREADY_DECIDED"
	ErrCodeNotEditable     ErrorCode = "NOT_EDITABLE"
	ErrCodeClockTransition ErrorCode = "INVALID_CLOCK_TRANSITION"

	ErrCodeInvalidToken  ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired  ErrorCode = "TOKEN_EXPIRED"
	ErrCodeMissingToken  ErrorCode = "MISSING_TOKEN"
	ErrCodeUserInactive  ErrorCode = "USER_INACTIVE"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
		messages := make([]string, len(validationErrors.Errors))
		for i, err := range validationErrors.Errors {
			messages[i] = err.Message
		}
		return strings.Join(messages, "; ")
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on Code so sentinel values below work with errors.Is even
// after a copy was decorated with details or a cause.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Type == e.Type
}

// WithCause returns a copy carrying cause; the receiver is left untouched.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return NewValidationFieldErrors([]ValidationError{{Field: field, Message: message, Code: string(code)}})
}

func NewValidationFieldErrors(errs []ValidationError) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    ValidationErrors{Errors: errs},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewPermissionError reports an actor whose role does not allow the operation.
func NewPermissionError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewInvalidStateError reports a record that is not in a state the
// operation accepts, including a transition lost to a concurrent writer.
func NewInvalidStateError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidState,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeInternalError,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrTimeEntryNotFound = NewNotFoundError("time entry not found", ErrCodeTimeEntryNotFound)
	ErrExpenseNotFound   = NewNotFoundError("expense not found", ErrCodeExpenseNotFound)
	ErrActivityNotFound  = NewNotFoundError("activity not found", ErrCodeActivityNotFound)
	ErrProjectNotFound   = NewNotFoundError("project not found", ErrCodeProjectNotFound)
	ErrClientNotFound    = NewNotFoundError("client not found", ErrCodeClientNotFound)
	ErrUserNotFound      = NewNotFoundError("user not found", ErrCodeUserNotFound)
	ErrSessionNotFound   = NewNotFoundError("no clock session for this user", ErrCodeSessionNotFound)

	ErrPermissionDenied = NewPermissionError("not allowed to access this record", ErrCodePermissionDenied)
	ErrManagerRequired  = NewPermissionError("manager role required", ErrCodeManagerRequired)
	ErrAdminRequired    = NewPermissionError("admin role required", ErrCodeAdminRequired)
	ErrSelfApproval     = NewPermissionError("managers cannot decide on their own records", ErrCodeSelfApproval)

	ErrNotPending     = NewInvalidStateError("record is not pending", ErrCodeNotPending)
	ErrAlreadyDecided = NewInvalidStateError("record was decided concurrently", ErrCodeDecisionRace)
	ErrNotEditable    = NewInvalidStateError("rejected records cannot be edited", ErrCodeNotEditable)

	ErrMissingReason = NewValidationError("reason is required", ErrCodeMissingReason)
	ErrStatusChange  = NewValidationError("status changes only through approval", ErrCodeStatusReadOnly)

	ErrUnsupportedFile = NewValidationError("file must be a PDF, JPG or PNG", ErrCodeUnsupportedFile)
	ErrFileTooLarge    = NewValidationError("file exceeds the size limit", ErrCodeFileTooLarge)

	ErrMissingToken = NewUnauthorizedError("missing authorization token", ErrCodeMissingToken)
	ErrInvalidToken = NewUnauthorizedError("invalid token", ErrCodeInvalidToken)
	ErrTokenExpired = NewUnauthorizedError("token has expired", ErrCodeTokenExpired)
	ErrUserInactive = NewUnauthorizedError("user account is inactive", ErrCodeUserInactive)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsValidation(err error) bool { return hasType(err, ErrorTypeValidation) }
func IsPermission(err error) bool { return hasType(err, ErrorTypeForbidden) }
func IsInvalidState(err error) bool { return hasType(err, ErrorTypeInvalidState) }
func IsNotFound(err error) bool { return hasType(err, ErrorTypeNotFound) }

func hasType(err error, t ErrorType) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Type == t
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
