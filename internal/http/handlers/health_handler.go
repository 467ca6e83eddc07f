// README: Liveness endpoint.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	provider string
	places   bool
}

func NewHealthHandler(provider string, places bool) *HealthHandler {
	return &HealthHandler{provider: provider, places: places}
}

func (h *HealthHandler) Health(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{
		"status":           "ok",
		"provider":         h.provider,
		"placesConfigured": h.places,
	})
}
