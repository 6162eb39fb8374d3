package apperror

import (
	"errors"
	"net/http"
)

// Коды ошибок — контракт с клиентом, менять нельзя
const (
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeTokenInvalid        = "TOKEN_INVALID"
	CodeAccessDenied        = "ACCESS_DENIED"
	CodeValidation          = "VALIDATION_ERROR"
	CodeResourceNotFound    = "RESOURCE_NOT_FOUND"
	CodeResourceExists      = "RESOURCE_ALREADY_EXISTS"
	CodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	CodeInternalServerError = "INTERNAL_SERVER_ERROR"
)

// Error : операционная ошибка с HTTP статусом и кодом из таксономии.
// Сервисы возвращают её явно, хендлер отображает в envelope
type Error struct {
	Code    string
	Status  int
	Message string
	Details interface{}
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithCause прикрепляет исходную ошибку для логов, не меняя ответ клиенту
func (e *Error) WithCause(err error) *Error {
	copied := *e
	copied.cause = err
	return &copied
}

// WithDetails прикрепляет детали (например, список требований к паролю)
func (e *Error) WithDetails(details interface{}) *Error {
	copied := *e
	copied.Details = details
	return &copied
}

func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Status: http.StatusBadRequest, Message: message}
}

func Authentication(message string) *Error {
	return &Error{Code: CodeInvalidCredentials, Status: http.StatusUnauthorized, Message: message}
}

func Authorization(message string) *Error {
	return &Error{Code: CodeAccessDenied, Status: http.StatusForbidden, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Code: CodeResourceNotFound, Status: http.StatusNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Code: CodeResourceExists, Status: http.StatusConflict, Message: message}
}

func RateLimited(message string) *Error {
	return &Error{Code: CodeRateLimitExceeded, Status: http.StatusTooManyRequests, Message: message}
}

func Internal(message string) *Error {
	return &Error{Code: CodeInternalServerError, Status: http.StatusInternalServerError, Message: message}
}

// As достаёт *Error из цепочки ошибок
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
