package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civiclens/civiclens/internal/interfaces/http/handlers"
)

type SystemRouteConfig struct {
	HealthHandler    *handlers.HealthHandler
	DashboardHandler *handlers.DashboardHandler
	MetricsHandler   http.Handler
	MediaDir         string
	MediaPrefix      string
}

// SetupSystemRoutes registers health, metrics, dashboard and stored media.
func SetupSystemRoutes(engine *gin.Engine, api *gin.RouterGroup, config *SystemRouteConfig) {
	engine.GET("/health", config.HealthHandler.HealthCheck)
	api.GET("/health", config.HealthHandler.HealthCheck)

	if config.MetricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(config.MetricsHandler))
	}

	api.GET("/dashboard", config.DashboardHandler.GetDashboard)

	if config.MediaDir != "" && config.MediaPrefix != "" {
		engine.Static(config.MediaPrefix, config.MediaDir)
	}
}
