package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/civiclens/civiclens/internal/shared/errors"
)

// ParseUUIDParam reads a UUID path parameter and normalizes it to lower case.
func ParseUUIDParam(c *gin.Context, paramName, entityName string) (string, error) {
	raw := c.Param(paramName)
	if raw == "" {
		return "", errors.NewValidationError(entityName + " ID is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", errors.NewValidationError("invalid " + entityName + " ID format")
	}
	return id.String(), nil
}
