package request

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mo-amir99/coursehub-server-go/pkg/apperrors"
	"github.com/mo-amir99/coursehub-server-go/pkg/validation"
)

// BindJSON decodes and validates the request body into dst.
// Binding failures become a validation AppError with itemized field messages.
func BindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Validation("Request body is required.", nil, err)
		}
		return apperrors.Validation("Invalid request payload.", validation.FieldErrors(err), err)
	}
	return nil
}

// ParseID reads a uuid path parameter.
func ParseID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		return uuid.Nil, apperrors.Validation(fmt.Sprintf("Invalid %s.", name), nil, err)
	}
	return id, nil
}
