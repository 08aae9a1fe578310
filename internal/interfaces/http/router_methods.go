package http

import (
	"github.com/civiclens/civiclens/internal/interfaces/http/middleware"
	"github.com/civiclens/civiclens/internal/interfaces/http/routes"
)

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Logger(r.log))
	r.engine.Use(middleware.Recovery(r.log))
	r.engine.Use(middleware.CORS(r.cfg.Server.AllowedOrigins))
	r.engine.MaxMultipartMemory = r.blobs.MaxBytes() + (1 << 20)

	api := r.engine.Group("/api/v1")

	routes.SetupSystemRoutes(r.engine, api, &routes.SystemRouteConfig{
		HealthHandler:    r.hdlrs.healthHandler,
		DashboardHandler: r.hdlrs.dashboardHandler,
		MetricsHandler:   r.metrics.Handler(),
		MediaDir:         r.blobs.Dir(),
		MediaPrefix:      mediaPrefix(r.cfg.Storage.PublicBaseURL),
	})

	routes.SetupIssueRoutes(api, &routes.IssueRouteConfig{
		IssueHandler:         r.hdlrs.issueHandler,
		AuthMiddleware:       r.authMiddleware,
		PermissionMiddleware: r.permissionMiddleware,
		RateLimiter:          r.rateLimiter,
	})
}
