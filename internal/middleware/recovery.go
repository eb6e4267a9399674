package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"participium/api/internal/apperr"
)

func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("error", r).
					Str("request_id", c.Writer.Header().Get(requestIDHeader)).
					Msg("panic recovered")
				abortWithError(c, apperr.FromKind(apperr.KindInternal))
			}
		}()
		c.Next()
	}
}
