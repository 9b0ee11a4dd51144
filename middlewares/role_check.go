package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-floor/utils"
)

// RequireRole lets the request through when the token role is one of roles.
// Admins pass every check.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}

		if actor.Role != "admin" && !allowed[actor.Role] {
			utils.RespondError(c, http.StatusForbidden, fmt.Errorf("role %q may not use the floor board", actor.Role))
			c.Abort()
			return
		}

		c.Next()
	}
}
