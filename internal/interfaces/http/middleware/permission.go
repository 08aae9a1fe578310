package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civiclens/civiclens/internal/infrastructure/permission"
	"github.com/civiclens/civiclens/internal/shared/authorization"
	"github.com/civiclens/civiclens/internal/shared/errors"
	"github.com/civiclens/civiclens/internal/shared/logger"
	"github.com/civiclens/civiclens/internal/shared/utils"
)

// PermissionMiddleware checks the actor's role against the casbin policy.
// It must run after AuthMiddleware.RequireAuth.
type PermissionMiddleware struct {
	enforcer *permission.Enforcer
	logger   logger.Interface
}

func NewPermissionMiddleware(enforcer *permission.Enforcer, logger logger.Interface) *PermissionMiddleware {
	return &PermissionMiddleware{
		enforcer: enforcer,
		logger:   logger,
	}
}

func (m *PermissionMiddleware) RequirePermission(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := authorization.ActorFromContext(c)
		if actor == nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, errors.ErrorTypeUnauthorized, "user not authenticated")
			c.Abort()
			return
		}

		allowed, err := m.enforcer.Enforce(actor.Role.String(), resource, action)
		if err != nil {
			m.logger.Errorw("permission check failed", "error", err, "user_id", actor.UserID, "resource", resource, "action", action)
			utils.ErrorResponse(c, http.StatusInternalServerError, errors.ErrorTypeInternal, "permission check failed")
			c.Abort()
			return
		}

		if !allowed {
			m.logger.Warnw("permission denied", "user_id", actor.UserID, "role", actor.Role, "resource", resource, "action", action)
			utils.ErrorResponse(c, http.StatusForbidden, errors.ErrorTypeForbidden, "insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}
