package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeNotFound       = "NOT_FOUND"
	CodeValidation     = "VALIDATION_ERROR"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeConflict       = "CONFLICT"
	CodeFKRestricted   = "FK_RESTRICTED"
	CodeCheckViolation = "CHECK_VIOLATION"
	CodeInternal       = "INTERNAL_ERROR"
)

// Sentinels matched by errors.Is against any AppError with the same code.
var (
	ErrNotFound              = errors.New("record not found")
	ErrValidation            = errors.New("validation failed")
	ErrUniqueViolation       = errors.New("unique constraint violation")
	ErrForeignKeyRestriction = errors.New("foreign key restriction")
	ErrCheckViolation        = errors.New("check constraint violation")
)

var sentinelByCode = map[string]error{
	CodeNotFound:       ErrNotFound,
	CodeValidation:     ErrValidation,
	CodeConflict:       ErrUniqueViolation,
	CodeFKRestricted:   ErrForeignKeyRestriction,
	CodeCheckViolation: ErrCheckViolation,
}

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's code.
func (e *AppError) Is(target error) bool {
	sentinel, ok := sentinelByCode[e.Code]
	return ok && sentinel == target
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// NewUniqueViolationError reports a duplicate row, e.g. a second reaction of
// the same type by the same user on the same post.
func NewUniqueViolationError(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: fmt.Sprintf("%s already exists", resource),
		Err:     err,
	}
}

// NewForeignKeyRestrictionError reports a delete blocked by dependent rows.
func NewForeignKeyRestrictionError(parent, child EntityKind, count int64) *AppError {
	return &AppError{
		Code: CodeFKRestricted,
		Message: fmt.Sprintf("cannot delete %s: %d dependent %s row(s) must be removed first",
			parent, count, child),
	}
}

// NewCheckViolationError reports a value rejected by a check constraint.
func NewCheckViolationError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeCheckViolation,
		Message: message,
		Err:     err,
	}
}

// StatusFor maps an error to the HTTP status used when responding with it.
func StatusFor(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeConflict, CodeFKRestricted:
		return fiber.StatusConflict
	case CodeCheckViolation:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil && appErr.Code != CodeInternal {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
