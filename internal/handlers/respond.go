package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"participium/api/internal/apperr"
)

// respondError maps an application error onto the wire shape
// {"error": code, "message": human}. Non-application errors are logged and
// answered as opaque 500s so internals never leak to clients.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("unhandled error")
		appErr = apperr.FromKind(apperr.KindInternal)
	}

	c.AbortWithStatusJSON(appErr.Kind.Status(), gin.H{
		"error":   appErr.Kind.Code(),
		"message": appErr.Message,
	})
}
