package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"participium/api/internal/apperr"
	"participium/api/internal/config"
	"participium/api/internal/models"
	"participium/api/internal/security"
)

const (
	ContextUserKey   = "current_user"
	ContextClaimsKey = "access_claims"
)

// UserSource and SessionSource are the narrow read surfaces the guards need;
// repositories satisfy them, tests use in-memory fakes.
type UserSource interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

type SessionSource interface {
	GetByID(ctx context.Context, id string) (models.Session, error)
	Touch(ctx context.Context, sessionID string, ip string, userAgent string) error
}

func abortWithError(c *gin.Context, err *apperr.Error) {
	c.AbortWithStatusJSON(err.Kind.Status(), gin.H{
		"error":   err.Kind.Code(),
		"message": err.Message,
	})
}

// Auth fails closed: a missing, malformed, expired, or orphaned credential
// all produce the same 401.
func Auth(cfg *config.AppConfig, users UserSource, sessions SessionSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, claims, ok := resolveIdentity(c, cfg, users, sessions)
		if !ok {
			abortWithError(c, apperr.FromKind(apperr.KindUnauthorized))
			return
		}

		if user.Status != models.UserStatusActive {
			abortWithError(c, apperr.New(apperr.KindForbidden, "Account is not active."))
			return
		}

		_ = sessions.Touch(c.Request.Context(), claims.SessionID, c.ClientIP(), c.GetHeader("User-Agent"))

		c.Set(ContextUserKey, user)
		c.Set(ContextClaimsKey, *claims)

		c.Next()
	}
}

// OptionalAuth resolves the caller's identity when a valid credential is
// present and proceeds anonymously otherwise. It never aborts.
func OptionalAuth(cfg *config.AppConfig, users UserSource, sessions SessionSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, claims, ok := resolveIdentity(c, cfg, users, sessions); ok && user.Status == models.UserStatusActive {
			c.Set(ContextUserKey, user)
			c.Set(ContextClaimsKey, *claims)
		}
		c.Next()
	}
}

func resolveIdentity(c *gin.Context, cfg *config.AppConfig, users UserSource, sessions SessionSource) (models.User, *security.AccessClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return models.User{}, nil, false
	}

	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

	claims, err := security.ParseAccessToken(tokenStr, cfg.Security.JWTAccessSecret)
	if err != nil {
		return models.User{}, nil, false
	}

	session, err := sessions.GetByID(c.Request.Context(), claims.SessionID)
	if err != nil {
		return models.User{}, nil, false
	}
	if session.UserID != claims.UserID || session.DeviceID != claims.DeviceID {
		return models.User{}, nil, false
	}

	user, err := users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		return models.User{}, nil, false
	}

	return user, claims, true
}

// CurrentUser returns the authenticated user placed by Auth or OptionalAuth.
func CurrentUser(c *gin.Context) (models.User, bool) {
	val, exists := c.Get(ContextUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}
