package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Recovery turns a handler panic into a 500 carrying the request id. gin's
// recovery is used for the broken-pipe detection; output goes to zerolog.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.Ctx(c.Request.Context()).Error().
			Interface("panic", recovered).
			Bytes("stack", debug.Stack()).
			Str("route", c.FullPath()).
			Msg("Request panic recovered")

		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Internal server error",
			TraceID: c.GetString(ContextRequestID),
		})
	})
}
