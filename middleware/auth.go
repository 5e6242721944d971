package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Identity is the authenticated caller, as asserted by the gateway in front of
// this service. The authorization policy table itself lives upstream; here the
// role only gates access and stamps created_by/resolved_by fields.
type Identity struct {
	Role     string
	Email    string
	EntityID string
}

const identityKey = "caller_identity"

// CallerIdentity extracts the gateway-asserted identity headers into the
// request context.
func CallerIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(identityKey, Identity{
			Role:     c.GetHeader("X-Caller-Role"),
			Email:    c.GetHeader("X-Caller-Email"),
			EntityID: c.GetHeader("X-Caller-Entity"),
		})
		c.Next()
	}
}

// GetIdentity returns the caller identity stored by CallerIdentity.
func GetIdentity(c *gin.Context) Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return Identity{}
}

// RequireRoles rejects callers whose role is not in the allowed set, before
// any side effect runs.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		id := GetIdentity(c)
		if !allowed[id.Role] {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "access denied",
				"role":  id.Role,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
