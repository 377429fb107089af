package middleware

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/logging"
	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/tracing"
)

// Recovery turns handler panics into 500 responses and logs them
func Recovery(log *logging.Logger) gin.HandlerFunc {
	if log == nil {
		log = logging.NewNop()
	}
	log = log.Named("recovery")
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, err any) {
		log.Error("Handler panicked",
			tracing.Field(c.Request.Context()),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", err),
			zap.Stack("stack"))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}
