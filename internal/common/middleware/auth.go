package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"giveaway-draw-backend/internal/common/config"
)

// Capability is an authorization level. Levels are ordered: an admin can do
// everything an operator can, an operator everything a user can.
type Capability int

const (
	CapabilityUser Capability = iota
	CapabilityOperator
	CapabilityAdmin
)

func (c Capability) String() string {
	switch c {
	case CapabilityAdmin:
		return "admin"
	case CapabilityOperator:
		return "operator"
	default:
		return "user"
	}
}

const (
	ctxKeyUserID     = "user_id"
	ctxKeyCapability = "capability"
)

// Identity resolves the calling user from the X-User-ID header and derives
// the capability level from the configured operator/admin ID lists. Upstream
// authentication (who verified that header) is out of scope here.
func Identity(cfg *config.Config) gin.HandlerFunc {
	operators := toSet(cfg.Auth.OperatorIDs)
	admins := toSet(cfg.Auth.AdminIDs)

	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID header required"})
			return
		}

		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid X-User-ID header"})
			return
		}

		capability := CapabilityUser
		if operators[userID] {
			capability = CapabilityOperator
		}
		if admins[userID] {
			capability = CapabilityAdmin
		}

		c.Set(ctxKeyUserID, userID)
		c.Set(ctxKeyCapability, capability)
		c.Next()
	}
}

// RequireCapability gates an endpoint on a minimum capability level. This is
// the single authorization seam; handlers never compare levels themselves.
func RequireCapability(min Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		capability, exists := c.Get(ctxKeyCapability)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		if capability.(Capability) < min {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": min.String() + " access required"})
			return
		}

		c.Next()
	}
}

// UserID returns the authenticated user ID set by Identity.
func UserID(c *gin.Context) int64 {
	if v, exists := c.Get(ctxKeyUserID); exists {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

func toSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
