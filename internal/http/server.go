// README: API gateway; wires middleware and delegates to module services.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"voyage/internal/http/middleware"
	"voyage/internal/infra"
	"voyage/internal/modules/itinerary"
	"voyage/internal/modules/planner"
)

type ServerDeps struct {
	Plans    *itinerary.Service
	Planner  *planner.Service
	Verifier infra.TokenVerifier
	Logger   *slog.Logger

	// Reported by /health.
	ProviderName  string
	PlacesEnabled bool
}

type Server struct {
	plans    *itinerary.Service
	planner  *planner.Service
	verifier infra.TokenVerifier
	logger   *slog.Logger
	provider string
	places   bool
}

func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		plans:    deps.Plans,
		planner:  deps.Planner,
		verifier: deps.Verifier,
		logger:   logger,
		provider: deps.ProviderName,
		places:   deps.PlacesEnabled,
	}
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(s.logger), middleware.Logging(s.logger))
	registerRoutes(r, s)
	return r
}
