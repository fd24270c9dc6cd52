package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/voice-receptionist/internal/model"
	"gitlab.com/timkado/api/voice-receptionist/internal/tenant"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
)

const (
	requestIDHeader = "X-Request-ID"
	// SecretHeader carries the shared secret configured on the provider's server URL.
	SecretHeader = "X-Vapi-Secret"
)

// requestID tags the request context with an id and the base logger.
func requestID(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		ctx := logger.WithLogger(c.Request.Context(), base)
		ctx = tenant.WithRequestID(ctx, id)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// accessLog writes one line per request through the context logger.
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("bytes", c.Writer.Size()),
		}

		log := logger.FromContext(c.Request.Context())
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("HTTP request", fields...)
		case c.FullPath() == "/health" || c.FullPath() == "/ready" || c.FullPath() == "/metrics":
			log.Debug("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// recovery turns a handler panic into a JSON 500.
func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.FromContext(c.Request.Context()).Error("[panic] Recovered from panic in HTTP handler",
			zap.Any("panic", recovered),
			zap.Stack("stack"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, model.ErrorResponse{Error: "internal server error"})
	})
}

// webhookSecret rejects requests without the shared secret. An empty secret disables the check.
func webhookSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		got := c.GetHeader(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			logger.FromContext(c.Request.Context()).Warn("Rejected webhook with invalid secret")
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized"})
			return
		}
		c.Next()
	}
}

// limitBody caps how much of the request body handlers may read.
func limitBody(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		c.Next()
	}
}

func contextWithTimeout(c *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), d)
}
