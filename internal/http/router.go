// README: HTTP route registration.
package http

import (
	"github.com/gin-gonic/gin"

	"voyage/internal/http/handlers"
	"voyage/internal/http/middleware"
)

func registerRoutes(r *gin.Engine, s *Server) {
	health := handlers.NewHealthHandler(s.provider, s.places)
	r.GET("/health", health.Health)

	api := r.Group("/api", middleware.Auth(s.verifier))

	plans := handlers.NewPlanHandler(s.plans, s.planner, s.logger)
	trips := api.Group("/trip-plans")
	trips.POST("/generate", plans.Generate)
	trips.POST("", plans.Create)
	trips.GET("", plans.List)
	trips.GET("/:id", plans.Get)
	trips.PUT("/:id", plans.Update)
	trips.DELETE("/:id", plans.Delete)
	trips.POST("/:id/refine", plans.Refine)

	chat := handlers.NewChatHandler(s.planner, s.logger)
	bot := api.Group("/chatbot")
	bot.POST("/chat", chat.Chat)
	bot.GET("/history", chat.History)
	bot.DELETE("/history", chat.ClearHistory)
}
