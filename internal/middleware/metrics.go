package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-records-api/internal/service"
)

// UnmatchedRoute labels requests that did not hit a registered route, so
// arbitrary URLs cannot grow the label set.
const UnmatchedRoute = "unmatched"

// Metrics records latency and status per method and route template, e.g. /students/:id.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = UnmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
