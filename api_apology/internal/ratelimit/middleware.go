package ratelimit

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"sorrymonster/pkg/logging"
	"sorrymonster/pkg/middleware"
)

// Metrics are optional counters for limiter decisions.
type Metrics struct {
	Decisions     *prometheus.CounterVec // {decision}
	BackendErrors *prometheus.CounterVec // {backend}
}

func (m *Metrics) decision(d string) {
	if m == nil || m.Decisions == nil {
		return
	}
	m.Decisions.WithLabelValues(d).Inc()
}

func (m *Metrics) backendError() {
	if m == nil || m.BackendErrors == nil {
		return
	}
	m.BackendErrors.WithLabelValues("redis").Inc()
}

// ClientID identifies the caller: X-Client-ID when sent, else the client IP.
func ClientID(c *gin.Context) string {
	if id := c.GetHeader("X-Client-ID"); id != "" {
		return id
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// Middleware enforces l on every request. Backend failures let the request through.
func Middleware(l Limiter, logger logging.Logger, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := ClientID(c)
		authed := c.GetHeader("Authorization") != ""

		decision, err := l.Allow(c.Request.Context(), clientID, authed)
		if err != nil {
			metrics.backendError()
			metrics.decision("fail_open")
			middleware.GetContextLogger(c, logger).WithError(err).Warn("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			metrics.decision("denied")
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(decision.ResetIn.Seconds()))))
			middleware.GetContextLogger(c, logger).WithFields(logging.Fields{
				"client": redactClientID(clientID),
				"authed": authed,
				"limit":  decision.Limit,
			}).Info("Rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}

		metrics.decision("allowed")
		c.Next()
	}
}

// redactClientID keeps enough of an identifier to correlate log lines.
func redactClientID(id string) string {
	runes := []rune(id)
	if len(runes) <= 4 {
		return "***"
	}
	return string(runes[:4]) + "***"
}
