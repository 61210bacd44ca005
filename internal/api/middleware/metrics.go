package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/drawmatch/internal/metrics"
)

// Metrics records request counts and latency by route template.
// Unmatched routes are grouped under "unmatched" to bound label cardinality.
func Metrics(m *metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(route, c.Request.Method, strconv.Itoa(c.Writer.Status()),
			float64(time.Since(start).Microseconds())/1000)
	}
}
