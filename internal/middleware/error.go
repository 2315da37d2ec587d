package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jwalitptl/trials-api/pkg/errors"
	"github.com/jwalitptl/trials-api/pkg/validator"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	TraceID string                 `json:"trace_id,omitempty"`
	Errors  []validator.FieldError `json:"errors,omitempty"`
}

// ErrorHandler renders the last error pushed with c.Error. Only AppError
// messages reach the client; anything else becomes a generic 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only handle errors if they exist
		if len(c.Errors) == 0 {
			return
		}

		traceID := c.GetString(ContextRequestID)
		err := c.Errors.Last().Err

		resp := ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "internal server error",
			TraceID: traceID,
		}

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			resp.Code = appErr.StatusCode()
			if resp.Code != http.StatusInternalServerError {
				resp.Message = appErr.Message
			}
		}

		var fields validator.FieldErrors
		if errors.As(err, &fields) {
			resp.Errors = fields
		}

		event := log.Ctx(c.Request.Context()).Debug()
		if resp.Code >= http.StatusInternalServerError {
			event = log.Ctx(c.Request.Context()).Error()
		}
		event.
			Err(err).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Int("status", resp.Code).
			Msg("Request error")

		if c.Writer.Written() {
			return
		}
		c.JSON(resp.Code, resp)
	}
}
