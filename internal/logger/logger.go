// Package logger builds the application's logrus logger and the gin access
// log middleware.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"drivemate/internal/config"
)

const (
	entryKey        = "logger.entry"
	requestIDHeader = "X-Request-ID"
	userIDHeader    = "X-User-ID"
)

// New creates a logger from cfg. Unknown levels fall back to info; format
// "text" selects the text formatter, anything else JSON.
func New(cfg config.LogConfig) *logrus.Logger {
	return newWithOutput(cfg, os.Stdout)
}

func newWithOutput(cfg config.LogConfig, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "text" {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
		return log
	}

	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	return log
}

// GinMiddleware writes one structured access log line per request and
// stores a request-scoped entry that handlers retrieve with FromGin.
func GinMiddleware(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		userID := c.GetHeader(userIDHeader)
		if userID == "" {
			userID = "anonymous"
		}

		entry := log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
		})
		c.Set(entryKey, entry)

		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		fields := entry.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       path,
			"status":     status,
			"latency":    latency.String(),
			"latency_ms": latency.Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			fields = fields.WithError(c.Errors.Last().Err)
		}

		switch {
		case status >= 500:
			fields.Error("server error")
		case status >= 400:
			fields.Warn("client error")
		default:
			fields.Info("request processed")
		}
	}
}

// FromGin returns the request-scoped entry, or a bare entry on the standard
// logger when the middleware is not installed.
func FromGin(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(entryKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
