package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"drivemate/internal/domain"
)

const (
	// UserIDHeader and UserRoleHeader are set by the upstream gateway after it
	// has authenticated the caller.
	UserIDHeader   = "X-User-ID"
	UserRoleHeader = "X-User-Role"

	principalKey = "principal"
)

// Identity turns the gateway identity headers into a domain.Principal.
// Requests without a valid principal are rejected with 401.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		role, ok := domain.ParseRole(strings.ToLower(strings.TrimSpace(c.GetHeader(UserRoleHeader))))
		if userID == "" || !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid identity"})
			return
		}
		c.Set(principalKey, domain.Principal{UserID: userID, Role: role})
		c.Next()
	}
}

// Principal returns the caller stored by Identity.
func Principal(c *gin.Context) (domain.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}
