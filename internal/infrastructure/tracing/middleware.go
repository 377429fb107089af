package tracing

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/logging"
)

// HTTPMiddleware tags each request with an id, echoes it in the response
// and writes an access log line when the request completes
func HTTPMiddleware(log *logging.Logger) gin.HandlerFunc {
	if log == nil {
		log = logging.NewNop()
	}
	log = log.Named("http")

	return func(c *gin.Context) {
		requestID := resolve(c.GetHeader(Header))
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), requestID))
		c.Header(Header, requestID)

		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			log.Warn("Request completed with errors", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		log.Debug("Request completed", fields...)
	}
}
