package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

type limiterFunc func(ctx context.Context, clientID string, authed bool) (Decision, error)

func (f limiterFunc) Allow(ctx context.Context, clientID string, authed bool) (Decision, error) {
	return f(ctx, clientID, authed)
}

func newMetrics() *Metrics {
	return &Metrics{
		Decisions:     prometheus.NewCounterVec(prometheus.CounterOpts{Name: "d"}, []string{"decision"}),
		BackendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "e"}, []string{"backend"}),
	}
}

func setupRouter(l Limiter, m *Metrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()
	r := gin.New()
	r.Use(Middleware(l, logger, m))
	r.POST("/v1/generate", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestMiddlewareKeysByClientHeaderAndAuth(t *testing.T) {
	var gotID string
	var gotAuthed bool
	r := setupRouter(limiterFunc(func(_ context.Context, id string, authed bool) (Decision, error) {
		gotID, gotAuthed = id, authed
		return Decision{Allowed: true, Limit: 100, Remaining: 99}, nil
	}), nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/generate", nil)
	req.Header.Set("X-Client-ID", "browser-42")
	req.Header.Set("Authorization", "Bearer x")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "browser-42", gotID)
	assert.True(t, gotAuthed)
	assert.Equal(t, "100", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "99", w.Header().Get("X-RateLimit-Remaining"))

	req = httptest.NewRequest(http.MethodPost, "/v1/generate", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "10.1.2.3", gotID)
	assert.False(t, gotAuthed)
}

func TestMiddlewareDenies(t *testing.T) {
	m := newMetrics()
	r := setupRouter(limiterFunc(func(context.Context, string, bool) (Decision, error) {
		return Decision{Allowed: false, Limit: 10, ResetIn: 90 * time.Second}, nil
	}), m)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/generate", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "90", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Rate limit exceeded. Please try again later."}`, w.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("denied")))
}

func TestMiddlewareFailsOpen(t *testing.T) {
	m := newMetrics()
	r := setupRouter(limiterFunc(func(context.Context, string, bool) (Decision, error) {
		return Decision{}, errors.New("connection refused")
	}), m)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/generate", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendErrors.WithLabelValues("redis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("fail_open")))
}

func TestRedactClientID(t *testing.T) {
	assert.Equal(t, "***", redactClientID("abc"))
	assert.Equal(t, "10.1***", redactClientID("10.1.2.3"))
}
