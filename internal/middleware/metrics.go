package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nara-edu/timetable-api/internal/service"
)

// Metrics records one observation per request on the metrics service.
// The route template is preferred over the raw path so /bindings/:uuid
// stays a single series.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	if metricsSvc == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
