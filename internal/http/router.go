package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.ngs.io/rainfall-api/internal/usecase"
)

// SetupRouter creates and configures the Gin router.
func SetupRouter(manager *usecase.Manager, allowedOrigins []string) *gin.Engine {
	router := gin.Default()

	// Setup CORS middleware. Default to allow all origins if not specified.
	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	handler := NewHandler(manager)

	// API v1 routes.
	v1 := router.Group("/v1")
	sessions := v1.Group("/sessions")
	sessions.POST("", handler.CreateSession)
	sessions.GET("/:id/status", handler.GetStatus)
	sessions.PUT("/:id/location", handler.PutLocation)
	sessions.PUT("/:id/range", handler.PutDateRange)
	sessions.PUT("/:id/parameters", handler.PutParameters)
	sessions.POST("/:id/fetch", handler.TriggerFetch)
	sessions.POST("/:id/profile", handler.TriggerGenerate)
	sessions.GET("/:id/observations", handler.GetObservations)
	sessions.GET("/:id/profile", handler.GetProfile)
	sessions.GET("/:id/export/observations.csv", handler.ExportObservations)
	sessions.GET("/:id/export/profile.csv", handler.ExportProfile)

	// Health check and metrics.
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
