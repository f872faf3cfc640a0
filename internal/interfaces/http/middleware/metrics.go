package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/pathway/backend/internal/infrastructure/telemetry"
)

// Metrics records request count, latency and in-flight requests labelled by
// matched route. Unmatched paths share one label to bound cardinality.
func Metrics(m *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		done := m.HTTPStarted()
		c.Next()
		done(c.Request.Method, c.FullPath(), c.Writer.Status())
	}
}
