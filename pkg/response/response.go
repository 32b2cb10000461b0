package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo describes a failed request
type ErrorInfo struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Error codes
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"

	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeDuplicateEntry      = "DUPLICATE_ENTRY"
	ErrCodeInvalidTransition   = "INVALID_STATUS_TRANSITION"
	ErrCodeSystemRoleProtected = "SYSTEM_ROLE_PROTECTED"
	ErrCodeInvalidSignature    = "INVALID_SIGNATURE"
	ErrCodeRequestExpired      = "REQUEST_EXPIRED"
	ErrCodeEmailNotVerified    = "EMAIL_NOT_VERIFIED"
)

var statusByCode = map[string]int{
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeValidationFailed:    http.StatusBadRequest,
	ErrCodeUnauthorized:        http.StatusUnauthorized,
	ErrCodeInvalidSignature:    http.StatusUnauthorized,
	ErrCodeRequestExpired:      http.StatusUnauthorized,
	ErrCodeEmailNotVerified:    http.StatusUnauthorized,
	ErrCodeForbidden:           http.StatusForbidden,
	ErrCodeSystemRoleProtected: http.StatusForbidden,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeDuplicateEntry:      http.StatusConflict,
	ErrCodeInvalidTransition:   http.StatusUnprocessableEntity,
	ErrCodeTooManyRequests:     http.StatusTooManyRequests,
	ErrCodeInternalError:       http.StatusInternalServerError,
	ErrCodeServiceUnavailable:  http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Success wraps data in a success envelope
func Success(data interface{}) *Response {
	return &Response{Success: true, Data: data}
}

// Error builds a failure envelope
func Error(code string, message string) *Response {
	return &Response{Error: &ErrorInfo{Code: code, Message: message}}
}

// ErrorWithDetails builds a failure envelope carrying per-field details
func ErrorWithDetails(code string, message string, details map[string]string) *Response {
	return &Response{Error: &ErrorInfo{Code: code, Message: message, Details: details}}
}

// BadRequest creates a bad request error response
func BadRequest(message string) *Response {
	return Error(ErrCodeBadRequest, message)
}

// Unauthorized creates an unauthorized error response
func Unauthorized(message string) *Response {
	if message == "" {
		message = "Authentication required"
	}
	return Error(ErrCodeUnauthorized, message)
}

// Forbidden creates a forbidden error response
func Forbidden(message string) *Response {
	if message == "" {
		message = "Access denied"
	}
	return Error(ErrCodeForbidden, message)
}

// InternalError creates an internal server error response
func InternalError(message string) *Response {
	if message == "" {
		message = "An internal error occurred"
	}
	return Error(ErrCodeInternalError, message)
}

// ValidationFailed creates a validation error response with field details
func ValidationFailed(details map[string]string) *Response {
	return ErrorWithDetails(ErrCodeValidationFailed, "Validation failed", details)
}

// Binding turns a gin binding error into an envelope. Struct tag violations
// become VALIDATION_FAILED with one detail per field, anything else (malformed
// JSON, wrong types) is a plain BAD_REQUEST.
func Binding(err error) *Response {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return BadRequest(err.Error())
	}

	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fieldName(fe)] = describe(fe)
	}
	return ValidationFailed(details)
}

func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return fe.Namespace()
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

// Abort writes an error envelope with the status mapped from code and stops the chain
func Abort(c *gin.Context, code string, message string) {
	c.AbortWithStatusJSON(GetHTTPStatus(code), Error(code, message))
}
