package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/coursehub-server-go/pkg/apperrors"
	"github.com/mo-amir99/coursehub-server-go/pkg/response"
)

// Recovery converts panics into an internal_error envelope and logs the stack.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			requestID := GetRequestID(c)
			logger.Error("panic recovered",
				slog.String("request_id", requestID),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.String("client_ip", c.ClientIP()),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)

			if !c.Writer.Written() {
				response.Error(c, http.StatusInternalServerError, apperrors.ErrInternal,
					"An unexpected error occurred. Reference: "+requestID, nil)
			}
			c.Abort()
		}()

		c.Next()
	}
}
