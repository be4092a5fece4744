package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error is a typed business error. Code is stable and machine-readable; the
// HTTP handler maps Status onto the response and localizes Message.
type Error struct {
	Code    string
	Status  int
	Message string
	Details map[string]interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

const (
	CodeNotFound                 = "NOT_FOUND"
	CodeConflict                 = "CONFLICT"
	CodeInvalidToken             = "INVALID_TOKEN"
	CodeTokenGenerationExhausted = "TOKEN_GENERATION_EXHAUSTED"
	CodeSessionNotActive         = "SESSION_NOT_ACTIVE"
	CodeSessionExpired           = "SESSION_EXPIRED"
	CodeForbidden                = "FORBIDDEN"
	CodeValidation               = "VALIDATION_ERROR"
	CodeUnauthorized             = "UNAUTHORIZED"
	CodeInternal                 = "INTERNAL"
)

func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Status: fiber.StatusNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Code: CodeConflict, Status: fiber.StatusConflict, Message: message}
}

func InvalidToken(message string) *Error {
	return &Error{Code: CodeInvalidToken, Status: fiber.StatusUnauthorized, Message: message}
}

func TokenGenerationExhausted() *Error {
	return &Error{
		Code:    CodeTokenGenerationExhausted,
		Status:  fiber.StatusInternalServerError,
		Message: "could not generate a unique onboarding token",
	}
}

func SessionNotActive(message string) *Error {
	return &Error{Code: CodeSessionNotActive, Status: fiber.StatusBadRequest, Message: message}
}

func SessionExpired(message string) *Error {
	return &Error{Code: CodeSessionExpired, Status: fiber.StatusGone, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Code: CodeForbidden, Status: fiber.StatusForbidden, Message: message}
}

func Validation(message string, details map[string]interface{}) *Error {
	return &Error{Code: CodeValidation, Status: fiber.StatusBadRequest, Message: message, Details: details}
}

func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Status: fiber.StatusUnauthorized, Message: message}
}

// As unwraps err into an *Error when it is one.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err is an *Error with the given code.
func Is(err error, code string) bool {
	e, ok := As(err)
	return ok && e.Code == code
}
