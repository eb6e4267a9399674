package middleware

import (
	"github.com/gin-gonic/gin"

	"participium/api/internal/apperr"
	"participium/api/internal/models"
)

// RequireRoles runs after Auth; the authentication check always precedes the
// role check, so a missing identity is a 401 rather than a 403.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortWithError(c, apperr.FromKind(apperr.KindUnauthorized))
			return
		}

		if _, allowed := roleSet[user.Role]; !allowed {
			abortWithError(c, apperr.New(apperr.KindForbidden, "Staff privileges required."))
			return
		}

		c.Next()
	}
}

// RequireAdmin is the administrator guard: 401 when unauthenticated, 403 for
// any authenticated non-administrator.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortWithError(c, apperr.FromKind(apperr.KindUnauthorized))
			return
		}

		if user.Role != models.UserRoleAdministrator {
			abortWithError(c, apperr.FromKind(apperr.KindForbidden))
			return
		}

		c.Next()
	}
}
