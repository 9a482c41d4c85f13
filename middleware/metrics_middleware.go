package middleware

import (
	"strconv"
	"time"

	"github.com/clientdesk-api/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request latency labelled by route template
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
