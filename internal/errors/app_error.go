package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code       string
	Message    string
	Detail     string
	StatusCode int
	Err        error
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail

	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err

	return e
}

const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeTransport         = "TRANSPORT_ERROR"
	ErrCodeServer            = "SERVER_ERROR"
	ErrCodeOperationInFlight = "OPERATION_IN_FLIGHT"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

func ValidationError(message string) *AppError {
	return NewAppError(ErrCodeValidation, message, http.StatusBadRequest)
}

func NotFoundError(message string) *AppError {
	return NewAppError(ErrCodeNotFound, message, http.StatusNotFound)
}

// TransportError means the API host could not be reached; StatusCode stays zero.
func TransportError(message string) *AppError {
	return NewAppError(ErrCodeTransport, message, 0)
}

// ServerError covers non-2xx answers and bodies that do not match the product schema.
func ServerError(message string, statusCode int) *AppError {
	return NewAppError(ErrCodeServer, message, statusCode)
}

func OperationInFlightError(target string) *AppError {
	return NewAppError(ErrCodeOperationInFlight, "Another operation is already in progress", http.StatusConflict).WithDetail(target)
}

func InternalError(message string) *AppError {
	return NewAppError(ErrCodeInternal, message, http.StatusInternalServerError)
}

func IsAppError(err error) (*AppError, bool) {
	var appError *AppError

	if errors.As(err, &appError) {
		return appError, true
	}

	return nil, false
}

// IsSyncError reports whether err came from talking to the products API.
func IsSyncError(err error) bool {
	appErr, ok := IsAppError(err)
	if !ok {
		return false
	}

	return appErr.Code == ErrCodeTransport || appErr.Code == ErrCodeServer
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	appErr, ok := IsAppError(err)

	return ok && appErr.Code == code
}

// DraftValidationError blocks a submission; Fields maps field name to message.
type DraftValidationError struct {
	*AppError
	Fields map[string]string
}

func NewDraftValidationError(fields map[string]string) *DraftValidationError {
	return &DraftValidationError{
		AppError: ValidationError("Draft is invalid").WithDetail(fmt.Sprintf("%d field(s) failed validation", len(fields))),
		Fields:   fields,
	}
}

func (e *DraftValidationError) Unwrap() error {
	return e.AppError
}
