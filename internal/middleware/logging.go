package middleware

import (
	"time"

	"makecommunity/internal/logger"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request.
func RequestLogger() gin.HandlerFunc {
	log := logger.New("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		if u := CurrentUser(c); u != nil {
			ev = ev.Str(logger.UserID, u.ID)
		}
		ev.Str("method", c.Request.Method).
			Str(logger.Path, c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("request")
	}
}
