package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/coursehub-server-go/pkg/apperrors"
)

// Envelope represents the standard API response shape.
type Envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message,omitempty"`
	Code       apperrors.ErrorCode `json:"code,omitempty"`
	Data       interface{}         `json:"data,omitempty"`
	Errors     []string            `json:"errors,omitempty"`
	Pagination interface{}         `json:"pagination,omitempty"`
}

// Success writes a success response with optional message and data.
func Success(c *gin.Context, status int, data interface{}, message string, pagination interface{}) {
	c.JSON(status, Envelope{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: pagination,
	})
}

// Created is a convenience helper for POST 201 responses.
func Created(c *gin.Context, data interface{}, message string) {
	Success(c, http.StatusCreated, data, message, nil)
}

// Error writes an error response with a stable code and optional itemized errors.
func Error(c *gin.Context, status int, code apperrors.ErrorCode, message string, details []string) {
	c.JSON(status, Envelope{
		Success: false,
		Message: message,
		Code:    code,
		Errors:  details,
	})
}

// FromError writes the response for err. AppErrors keep their status, code and details;
// anything else is reported as an internal error with the fallback message.
func FromError(logger *slog.Logger, c *gin.Context, err error, fallback string) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal(fallback, err)
	}

	if logger != nil {
		attrs := []any{
			slog.Int("status", appErr.StatusCode()),
			slog.String("code", string(appErr.Code())),
			slog.String("error", err.Error()),
		}
		if appErr.StatusCode() >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request.Context(), appErr.Message(), attrs...)
		} else {
			logger.DebugContext(c.Request.Context(), appErr.Message(), attrs...)
		}
	}

	Error(c, appErr.StatusCode(), appErr.Code(), appErr.Message(), appErr.Details())
}
