package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger middleware logs HTTP requests
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		// Process request
		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		subject := c.GetString(ContextSubject)
		if subject == "" {
			subject = "-"
		}

		log.Printf("[HTTP] %s %s %s %s %d %v %s",
			c.Request.Method,
			path,
			c.ClientIP(),
			subject,
			c.Writer.Status(),
			time.Since(start),
			c.Errors.String(),
		)
	}
}
