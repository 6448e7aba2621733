package middleware

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/polyui/catalog-mcp/internal/admission"
)

// Logger writes one line per request. Admitted calls carry the session id
// the handler echoed back, so log lines correlate with session records.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		line := fmt.Sprintf("[%s] %s %s - %d - %v - %s",
			c.GetString("request_id"),
			method,
			path,
			c.Writer.Status(),
			time.Since(start),
			c.ClientIP(),
		)

		if sid := c.Writer.Header().Get(admission.SessionHeader); sid != "" {
			line += " - session " + sid
		}

		log.Print(line)
	}
}
