package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/slated-app/slated/internal/logger"
)

// RequestID assigns each request an id, honoring an inbound X-Request-ID
// header, and echoes it back to the client.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := logger.WithRequestID(c.Request.Context(), c.GetHeader("X-Request-ID"))
		requestID := logger.RequestIDFromContext(ctx)

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// Logger emits one structured entry per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Ctx(c.Request.Context()).Info("request completed",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("latency", time.Since(start)),
			logger.String("client_ip", c.ClientIP()),
		)
	}
}
