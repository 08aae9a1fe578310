package authorization

import "github.com/gin-gonic/gin"

const (
	ContextKeyUserID   = "user_id"
	ContextKeyUserRole = "user_role"
)

// ActorFromContext returns the authenticated caller set by the auth middleware,
// or nil when the request is anonymous.
func ActorFromContext(c *gin.Context) *Actor {
	userID := c.GetString(ContextKeyUserID)
	if userID == "" {
		return nil
	}
	return NewActor(userID, ParseUserRole(c.GetString(ContextKeyUserRole)))
}

// SetActor stores the caller identity on the gin context.
func SetActor(c *gin.Context, userID string, role UserRole) {
	c.Set(ContextKeyUserID, userID)
	c.Set(ContextKeyUserRole, string(role))
}
