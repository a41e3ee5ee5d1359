package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/patreg-insight/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request counts and latency, labelled by route pattern
// rather than raw path to keep cardinality bounded.
func Metrics(m *prometheus.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
