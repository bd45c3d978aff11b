package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				Logger := GetLogger()
				Logger.Error("Unhandled panic", zap.Any("error", err))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	Logger := GetLogger()
	Logger.Warn(message, zap.String("details", details))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}

// --- Domain error taxonomy ---

// ValidationError reports malformed or out-of-range caller input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError reports a state-machine precondition violation.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// NotFoundError reports an unmatched entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found: " + e.ID }

// SignatureError reports a webhook authenticity failure. The message is
// intentionally generic; details never reach the caller.
type SignatureError struct{}

func (e *SignatureError) Error() string { return "signature verification failed" }

// InsufficientFundsError reports a debit exceeding the wallet balance.
type InsufficientFundsError struct {
	WalletID string
}

func (e *InsufficientFundsError) Error() string {
	return "insufficient funds in wallet " + e.WalletID
}

func NewValidationError(msg string) error { return &ValidationError{Message: msg} }
func NewConflictError(msg string) error   { return &ConflictError{Message: msg} }

// HTTPStatus maps a domain error onto the HTTP status the handlers surface.
func HTTPStatus(err error) int {
	var (
		validation   *ValidationError
		conflict     *ConflictError
		notFound     *NotFoundError
		signature    *SignatureError
		insufficient *InsufficientFundsError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &signature):
		return http.StatusUnauthorized
	case errors.As(err, &insufficient):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes a domain error with its mapped status. Signature
// failures get a generic body so forgery attempts learn nothing.
func RespondError(c *gin.Context, err error) {
	status := HTTPStatus(err)
	if status == http.StatusUnauthorized {
		c.JSON(status, ErrorResponse{Message: "unauthorized"})
		return
	}
	if status == http.StatusInternalServerError {
		GetLogger().Error("internal error", zap.Error(err))
		c.JSON(status, ErrorResponse{Message: "Internal Server Error"})
		return
	}
	c.JSON(status, ErrorResponse{Message: err.Error()})
}
