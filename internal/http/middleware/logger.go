package middleware

import (
	"fmt"
	"time"

	"rentals/internal/utils"

	"github.com/gin-gonic/gin"
)

// Logger emits one access line per request through the shared event
// logger so HTTP traffic and service events read the same way.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		utils.LogEvent(GetRequestID(c), "http", "request",
			fmt.Sprintf("method=%s path=%s status=%d latency_ms=%.3f ip=%s",
				c.Request.Method,
				c.Request.URL.Path,
				c.Writer.Status(),
				float64(time.Since(start).Microseconds())/1000.0,
				c.ClientIP(),
			))
	}
}
