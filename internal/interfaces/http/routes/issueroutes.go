package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/civiclens/civiclens/internal/infrastructure/permission"
	issuehandlers "github.com/civiclens/civiclens/internal/interfaces/http/handlers/issue"
	"github.com/civiclens/civiclens/internal/interfaces/http/middleware"
)

type IssueRouteConfig struct {
	IssueHandler         *issuehandlers.Handler
	AuthMiddleware       *middleware.AuthMiddleware
	PermissionMiddleware *middleware.PermissionMiddleware
	RateLimiter          *middleware.RateLimiter
}

func SetupIssueRoutes(api *gin.RouterGroup, config *IssueRouteConfig) {
	issues := api.Group("/issues")
	if config.RateLimiter != nil {
		issues.Use(config.RateLimiter.Limit())
	}
	{
		// Specific paths are registered before /:id.
		issues.POST("",
			config.AuthMiddleware.RequireAuth(),
			config.PermissionMiddleware.RequirePermission(permission.ResourceIssue, permission.ActionCreate),
			config.IssueHandler.CreateIssue)
		issues.POST("/check-duplicate",
			config.AuthMiddleware.RequireAuth(),
			config.PermissionMiddleware.RequirePermission(permission.ResourceIssue, permission.ActionCheckDuplicate),
			config.IssueHandler.CheckDuplicate)
		issues.GET("",
			config.IssueHandler.ListIssues)

		issues.PATCH("/:id/status",
			config.AuthMiddleware.RequireAuth(),
			config.PermissionMiddleware.RequirePermission(permission.ResourceIssue, permission.ActionChangeStatus),
			config.IssueHandler.ChangeStatus)
		issues.POST("/:id/triage",
			config.AuthMiddleware.RequireAuth(),
			config.PermissionMiddleware.RequirePermission(permission.ResourceIssue, permission.ActionTriage),
			config.IssueHandler.TriggerTriage)
		issues.POST("/:id/resolution",
			config.AuthMiddleware.RequireAuth(),
			config.PermissionMiddleware.RequirePermission(permission.ResourceIssue, permission.ActionResolve),
			config.IssueHandler.SubmitResolution)

		issues.GET("/:id",
			config.IssueHandler.GetIssue)
	}
}
