// File: internal/middleware/error.go
package middleware

import (
	"net/http"

	"postboard_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler creates a Gin middleware for centralized error handling. It
// catches errors attached via c.Error and turns unhandled routes into
// enveloped JSON errors so clients never see a bare body.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			ginErr := c.Errors[0]
			if _, isAPIErr := common.IsAPIError(ginErr.Err); isAPIErr {
				common.RespondWithError(c, ginErr.Err)
				return
			}
			logger.Error("Unhandled application error",
				zap.Error(ginErr.Err),
				zap.String("path", c.Request.URL.Path),
				zap.Any("meta", ginErr.Meta),
				zap.String("request_id", c.GetString(RequestIDContextKey)),
			)
			genericError := common.ErrInternalServer.WithDetails("An unexpected error occurred.")
			if gin.Mode() == gin.DebugMode && ginErr.Err != nil {
				genericError = common.ErrInternalServer.WithDetails(ginErr.Err.Error())
			}
			common.RespondWithError(c, genericError)
			return
		}

		if c.Writer.Written() {
			return
		}
		switch c.Writer.Status() {
		case http.StatusNotFound:
			common.RespondWithError(c, common.ErrNotFound.WithDetails("The requested endpoint does not exist."))
		case http.StatusMethodNotAllowed:
			common.RespondWithError(c, common.NewAPIError(http.StatusMethodNotAllowed,
				"METHOD_NOT_ALLOWED", "The method is not allowed for the requested URL."))
		}
	}
}
