package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/feral-file/anky-indexer/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, auth *middleware.Authenticator) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/writers", handler.ListWriters)
		v1.GET("/writers/:fid", handler.GetWriter)
		v1.GET("/writers/:fid/sessions", handler.ListWriterSessions)

		v1.GET("/sessions", handler.ListSessions)

		v1.GET("/tokens", handler.ListTokens)
		v1.GET("/tokens/:id", handler.GetToken)

		v1.GET("/stats", handler.GetStats)

		v1.GET("/leaderboard", handler.GetLeaderboard)
		v1.POST("/leaderboard/rebuild", middleware.Auth(auth), handler.RebuildLeaderboard)
	}
}
