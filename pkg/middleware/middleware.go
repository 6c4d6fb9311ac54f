package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"sorrymonster/pkg/logging"
)

// Context represents an HTTP request context
type Context = *gin.Context

// HandlerFunc represents an HTTP handler function
type HandlerFunc = gin.HandlerFunc

// H is a shortcut for map[string]interface{}
type H = gin.H

// DefaultAllowedOrigins are the browser origins allowed to call the APIs.
var DefaultAllowedOrigins = []string{
	"https://sorry.monster",
	"https://oops.ninja",
	"http://localhost:*",
}

// LoggingMiddleware provides structured request logging
func LoggingMiddleware(logger logging.Logger) HandlerFunc {
	return func(c Context) {
		start := time.Now()

		c.Next()

		logger.WithFields(logging.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"latency":    time.Since(start),
			"client_ip":  c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
			"request_id": GetRequestID(c),
		}).Info("HTTP request")
	}
}

// CORSMiddleware echoes the request origin when it matches the allow-list.
// A pattern ending in "*" matches any origin with that prefix (e.g. any localhost port).
func CORSMiddleware(allowed []string) HandlerFunc {
	return func(c Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && OriginAllowed(allowed, origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Client-ID, X-Request-ID")
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// OriginAllowed reports whether origin matches one of the patterns.
func OriginAllowed(patterns []string, origin string) bool {
	for _, p := range patterns {
		if strings.HasSuffix(p, "*") {
			if strings.HasPrefix(origin, strings.TrimSuffix(p, "*")) {
				return true
			}
			continue
		}
		if p == origin {
			return true
		}
	}
	return false
}

// RecoveryMiddleware provides panic recovery with logging
func RecoveryMiddleware(logger logging.Logger) HandlerFunc {
	return func(c Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.WithFields(logging.Fields{
					"error":      err,
					"client_ip":  c.ClientIP(),
					"method":     c.Request.Method,
					"path":       c.Request.URL.Path,
					"request_id": GetRequestID(c),
				}).Error("Request handler panic")

				c.AbortWithStatusJSON(http.StatusInternalServerError, H{"error": "Internal server error"})
			}
		}()

		c.Next()
	}
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware() HandlerFunc {
	return func(c Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = GenerateRequestID()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// ProcessTimeMiddleware reports handler latency in seconds via X-Process-Time.
// The header is written before the body is flushed, so it wraps the response writer.
func ProcessTimeMiddleware() HandlerFunc {
	return func(c Context) {
		c.Writer = &processTimeWriter{ResponseWriter: c.Writer, start: time.Now()}
		c.Next()
	}
}

type processTimeWriter struct {
	gin.ResponseWriter
	start   time.Time
	stamped bool
}

func (w *processTimeWriter) stamp() {
	if w.stamped {
		return
	}
	w.stamped = true
	elapsed := time.Since(w.start).Seconds()
	w.ResponseWriter.Header().Set("X-Process-Time", strconv.FormatFloat(elapsed, 'f', 6, 64))
}

func (w *processTimeWriter) WriteHeader(code int) {
	w.stamp()
	w.ResponseWriter.WriteHeader(code)
}

func (w *processTimeWriter) WriteHeaderNow() {
	w.stamp()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *processTimeWriter) Write(data []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(data)
}

func (w *processTimeWriter) WriteString(s string) (int, error) {
	w.stamp()
	return w.ResponseWriter.WriteString(s)
}

// GenerateRequestID generates a unique request ID
func GenerateRequestID() string {
	return uuid.New().String()
}
