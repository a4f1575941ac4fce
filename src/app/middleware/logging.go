package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"webscaffold/src/infra/logger"
)

// LoggerKey is the context key for the request-scoped logger.
const LoggerKey = "logger"

// Logging emits one line per request and stores a logger carrying the
// request ID in the Gin context. It must run after RequestID.
func Logging(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if query := c.Request.URL.RawQuery; query != "" {
			path += "?" + query
		}

		reqLog := logger.WithRequestID(log, GetRequestID(c))
		c.Set(LoggerKey, reqLog)

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start).String(),
			"bytes", c.Writer.Size(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			reqLog.Error("request completed", args...)
		case status >= 400:
			reqLog.Warn("request completed", args...)
		default:
			reqLog.Info("request completed", args...)
		}
	}
}

// GetLogger returns the request-scoped logger, or fallback when Logging
// did not run.
func GetLogger(c *gin.Context, fallback *slog.Logger) *slog.Logger {
	if v, ok := c.Get(LoggerKey); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return fallback
}
