package http

import (
	"github.com/civiclens/civiclens/internal/infrastructure/auth"
	"github.com/civiclens/civiclens/internal/infrastructure/permission"
	"github.com/civiclens/civiclens/internal/infrastructure/ratelimit"
	"github.com/civiclens/civiclens/internal/interfaces/http/handlers"
	issueHandlers "github.com/civiclens/civiclens/internal/interfaces/http/handlers/issue"
	"github.com/civiclens/civiclens/internal/interfaces/http/middleware"
)

// requestsPerIPMinute caps anonymous and authenticated traffic per client address.
const requestsPerIPMinute = 120

// allHandlers holds all HTTP handler instances used by the application.
type allHandlers struct {
	issueHandler     *issueHandlers.Handler
	dashboardHandler *handlers.DashboardHandler
	healthHandler    *handlers.HealthHandler
}

func (c *Container) initHandlers() error {
	log := c.log
	ucs := c.ucs

	enforcer, err := permission.NewEnforcer(log)
	if err != nil {
		return err
	}

	c.jwtSvc = auth.NewJWTService(c.cfg.Auth.JWT)
	c.authMiddleware = middleware.NewAuthMiddleware(c.jwtSvc, log)
	c.permissionMiddleware = middleware.NewPermissionMiddleware(enforcer, log)
	c.rateLimiter = middleware.NewRateLimiter(c.limiter, ratelimit.Limit{PerMinute: requestsPerIPMinute}, log)

	c.hdlrs = &allHandlers{
		issueHandler: issueHandlers.NewHandler(
			ucs.createIssueUC,
			ucs.checkDuplicateUC,
			ucs.getIssueUC,
			ucs.listIssuesUC,
			ucs.changeStatusUC,
			ucs.triggerTriageUC,
			ucs.submitResolutionUC,
			c.blobs.MaxBytes(),
			log,
		),
		dashboardHandler: handlers.NewDashboardHandler(ucs.getDashboardUC, log),
		healthHandler:    handlers.NewHealthHandler(c.healthChecks(), log),
	}
	return nil
}
