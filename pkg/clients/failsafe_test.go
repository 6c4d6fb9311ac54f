package clients

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "llm",
		MinRequests:  2,
		FailureRatio: 1,
		Timeout:      time.Minute,
		OnStateChange: func(_ string, from, to CircuitBreakerState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	boom := errors.New("provider down")
	for i := 0; i < 2; i++ {
		_, err := cb.Execute(context.Background(), func(context.Context) (any, error) { return nil, boom })
		require.ErrorIs(t, err, boom)
	}

	assert.Equal(t, StateOpen, cb.State())
	assert.True(t, cb.IsOpen())
	assert.Equal(t, []string{"closed->open"}, transitions)

	called := false
	_, err := cb.Execute(context.Background(), func(context.Context) (any, error) { called = true; return nil, nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreakerIgnoresCallerCancellation(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "llm", MinRequests: 2, FailureRatio: 1, Timeout: time.Minute})

	// Cancelled mid-flight: the callee reports the caller's cancellation.
	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		_, err := cb.Execute(ctx, func(ctx context.Context) (any, error) {
			cancel()
			<-ctx.Done()
			return nil, errors.New("request aborted")
		})
		require.Error(t, err)
		assert.True(t, err.Error() == "request aborted" || errors.Is(err, context.Canceled), err.Error())
	}

	// Already cancelled: the callee never runs.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	_, err := cb.Execute(ctx, func(context.Context) (any, error) { called = true; return nil, nil })
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)

	assert.Equal(t, StateClosed, cb.State())
	assert.False(t, cb.IsOpen())
}

func TestCircuitBreakerExecutePassesContext(t *testing.T) {
	type key struct{}
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())
	ctx := context.WithValue(context.Background(), key{}, "v")

	res, err := cb.Execute(ctx, func(ctx context.Context) (any, error) {
		return ctx.Value(key{}), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "v", res)
	assert.Equal(t, "default", cb.Name())
}

func TestCircuitBreakerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCircuitBreakerMetrics(reg)
	m.RecordTransition("llm", StateClosed, StateOpen)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("llm", "closed", "open")))
	assert.Equal(t, float64(StateOpen), testutil.ToFloat64(m.state.WithLabelValues("llm")))
}

func TestDefaultShouldRetry(t *testing.T) {
	assert.True(t, DefaultShouldRetry(nil, errors.New("dial tcp: refused")))
	assert.False(t, DefaultShouldRetry(nil, context.Canceled))
	assert.True(t, DefaultShouldRetry(&http.Response{StatusCode: http.StatusBadGateway}, nil))
	assert.False(t, DefaultShouldRetry(&http.Response{StatusCode: http.StatusInternalServerError}, nil))
	assert.False(t, DefaultShouldRetry(&http.Response{StatusCode: http.StatusTooManyRequests}, nil))
	assert.False(t, DefaultShouldRetry(&http.Response{StatusCode: http.StatusOK}, nil))
}

//nolint:bodyclose // test responses have no body
func TestHTTPExecutorNormalizesNegativeRetries(t *testing.T) {
	exec := NewHTTPExecutor(HTTPExecutorConfig{MaxRetries: -3})

	var attempts int32
	_, err := ExecuteHTTP(context.Background(), exec, func() (*http.Response, error) {
		atomic.AddInt32(&attempts, 1)
		return nil, errors.New("network partition")
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

//nolint:bodyclose // test responses have no body
func TestHTTPExecutorRetriesUpToLimit(t *testing.T) {
	exec := NewHTTPExecutor(HTTPExecutorConfig{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   time.Millisecond,
	})

	var attempts int32
	resp, err := ExecuteHTTP(context.Background(), exec, func() (*http.Response, error) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return &http.Response{StatusCode: http.StatusServiceUnavailable}, nil
		}
		return &http.Response{StatusCode: http.StatusOK}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient(5 * time.Second)
	assert.Equal(t, 5*time.Second, c.Timeout)
	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 100, tr.MaxConnsPerHost)
}
