package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorrymonster/pkg/models"
	"sorrymonster/pkg/monitoring"
)

func sampleRequest() models.GenerationRequest {
	return models.GenerationRequest{
		Mode:     models.ModeGenerate,
		Incident: models.Incident{Summary: "Outage", What: "DB went down", Harm: "2h downtime", Severity: models.SeverityHigh},
		Sliders:  models.Sliders{Contrition: 65, LegalHedging: 30},
		Strategy: models.DefaultStrategy(),
		Tone:     models.ToneEarnest,
		Channels: []models.Channel{models.ChannelTwitter},
		Locale:   "en-US",
	}
}

func TestGenerateSuccess(t *testing.T) {
	var got models.GenerationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"metrics":{"pr_risk":0.4},"detectors":{"non_apology":false},"adjustments":[],
			"drafts":{"twitter":{"useful":"We're sorry...","pointless":"Oopsie...","redlines":[]}}}`))
	}))
	defer srv.Close()

	mc := monitoring.NewMetricsCollector("console_test", "test", "abc")
	requests, duration := mc.CreateUpstreamMetrics()
	c := NewClient(srv.URL+"/", WithMetrics(requests, duration))

	res, err := c.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, 0.4, res.Metrics.PRRisk)
	assert.Equal(t, "Oopsie...", res.Drafts["twitter"].Pointless)
	assert.Equal(t, "Outage", got.Incident.Summary)
	assert.Equal(t, 1.0, testutil.ToFloat64(requests.WithLabelValues("apology", "200")))
}

func TestGenerateFailsUniformlyWithoutRetry(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable} {
		var hits int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(status)
		}))

		res, err := NewClient(srv.URL).Generate(context.Background(), sampleRequest())
		srv.Close()

		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrGenerationFailed, "status %d", status)
		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, status, se.StatusCode)
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "exactly one attempt for %d", status)
	}
}

func TestGenerateNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	mc := monitoring.NewMetricsCollector("console_test", "test", "abc")
	requests, duration := mc.CreateUpstreamMetrics()

	_, err := NewClient(url, WithMetrics(requests, duration)).Generate(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Equal(t, 1.0, testutil.ToFloat64(requests.WithLabelValues("apology", "error")))
}

func TestGenerateUndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Generate(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrGenerationFailed)
}
