package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"PracticeManager/apperrors"
)

// HttpError writes err as {"error": {...}}. Errors the client cannot act
// on are logged and replaced with a generic 500.
func HttpError(c *gin.Context, err error) {
	appErr, internal := apperrors.From(err)
	log := zerolog.Ctx(c.Request.Context())
	if internal {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	} else {
		log.Debug().Err(err).Int("status", appErr.Status).Msg("Request rejected")
	}
	c.AbortWithStatusJSON(appErr.Status, gin.H{"error": appErr})
}
