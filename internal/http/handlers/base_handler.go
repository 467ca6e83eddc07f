// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"voyage/internal/ai"
	"voyage/internal/http/middleware"
	"voyage/internal/modules/aiusage"
	"voyage/internal/modules/itinerary"
	"voyage/internal/types"
)

// Completion-backed routes wait on the model; CRUD routes only on the database.
const (
	completionTimeout = 60 * time.Second
	crudTimeout       = 10 * time.Second
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writePlanError maps domain errors to status codes. Upstream detail is never
// echoed to the caller.
func writePlanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, itinerary.ErrValidation):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, itinerary.ErrNotFound):
		writeError(c, http.StatusNotFound, itinerary.ErrNotFound.Error())
	case errors.Is(err, itinerary.ErrConflict):
		writeError(c, http.StatusConflict, itinerary.ErrConflict.Error())
	case errors.Is(err, aiusage.ErrQuotaExceeded):
		writeError(c, http.StatusTooManyRequests, aiusage.ErrQuotaExceeded.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(c, http.StatusGatewayTimeout, "assistant timed out")
	case errors.Is(err, ai.ErrUpstreamUnavailable):
		writeError(c, http.StatusBadGateway, "assistant unavailable")
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func callerID(c *gin.Context) types.ID {
	return types.ID(middleware.CallerUID(c))
}

func withTimeout(c *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), d)
}
