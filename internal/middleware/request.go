package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/wellcast-go/internal/logging"
	"github.com/irfndi/wellcast-go/internal/telemetry"
)

const (
	RequestIDHeader  = "X-Request-ID"
	ContextRequestID = "request_id"
)

// RequestID propagates the caller's X-Request-ID or assigns a new one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(ContextRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger writes one structured access log line per request
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logging.ForRequest(logger, c.GetString(ContextRequestID)).WithField("client_ip", c.ClientIP())
		if traceID := telemetry.TraceIDFromContext(c.Request.Context()); traceID != "" {
			entry = entry.WithField("trace_id", traceID)
		}
		if userID := c.GetString(ContextUserID); userID != "" {
			entry = entry.WithField("auth_user_id", userID)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}
		logging.LogAPIRequest(entry, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
