package httputil

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// ParamUUID parses a path parameter. On failure it answers 400 and
// returns false.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondWithError(c, apperrors.Invalid(name, "must be a valid UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// QueryUUID parses an optional query parameter. An absent parameter yields
// nil and true.
func QueryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondWithError(c, apperrors.Invalid(name, "must be a valid UUID"))
		return nil, false
	}
	return &id, true
}
