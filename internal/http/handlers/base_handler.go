// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridebook/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID accepts the UUID form produced by types.NewID and short seeded ids.
func isValidID(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeServiceError maps the shared error kinds onto status codes.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrValidation):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, types.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, types.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, types.ErrConfigMissing):
		_ = c.Error(err)
		writeError(c, http.StatusServiceUnavailable, "service misconfigured")
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// pathID reads and validates a path parameter; it writes the 400 itself.
func pathID(c *gin.Context, name string) (types.ID, bool) {
	id := c.Param(name)
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid "+name)
		return "", false
	}
	return types.ID(id), true
}
