package webui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorrymonster/pkg/models"
	"sorrymonster/web_console/internal/generation"
	"sorrymonster/web_console/internal/session"
)

type countingGenerator struct {
	calls int32
	res   *models.GenerationResult
	err   error
	block chan struct{}
}

func (g *countingGenerator) Generate(ctx context.Context, _ models.GenerationRequest) (*models.GenerationResult, error) {
	atomic.AddInt32(&g.calls, 1)
	if g.block != nil {
		<-g.block
	}
	return g.res, g.err
}

type consoleHarness struct {
	router  *gin.Engine
	tracker *session.Tracker
	cookie  *http.Cookie
}

func newHarness(t *testing.T, gen Generator) *consoleHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := logtest.NewNullLogger()

	tracker := session.NewTracker(time.Hour, 0)
	t.Cleanup(tracker.Stop)

	router := gin.New()
	NewServer(gen, tracker, logger).Register(router)
	return &consoleHarness{router: router, tracker: tracker}
}

func (h *consoleHarness) send(method, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp := httptest.NewRecorder()
	h.router.ServeHTTP(resp, req)
	return resp
}

// do sends a request as the harness browser and keeps the session cookie.
func (h *consoleHarness) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	resp := h.send(method, path, form, h.cookie)
	for _, c := range resp.Result().Cookies() {
		if c.Name == SessionCookie {
			h.cookie = c
		}
	}
	return resp
}

func exampleForm() url.Values {
	return url.Values{
		"summary":       {"Outage"},
		"what":          {"DB went down"},
		"harm":          {"2h downtime"},
		"who":           {"customers"},
		"severity":      {"high"},
		"evidence":      {""},
		"contrition":    {"65"},
		"legal_hedging": {"30"},
		"memes":         {"0"},
		"tone":          {"earnest"},
		"channels":      {"twitter"},
	}
}

const exampleResult = `{"metrics":{"pr_risk":0.4,"legal_risk":0.2,"ethics_score":0.8,"clarity_score":0.9,"sincerity_score":0.7},
"detectors":{"non_apology":false},"adjustments":[],
"drafts":{"twitter":{"useful":"We're sorry...","pointless":"Oopsie...","redlines":[]}}}`

func TestEndToEndExample(t *testing.T) {
	var got models.GenerationRequest
	var hits int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/v1/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(exampleResult))
	}))
	defer upstream.Close()

	h := newHarness(t, generation.NewClient(upstream.URL))
	resp := h.do(http.MethodPost, "/generate", exampleForm())

	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, models.Incident{
		Summary: "Outage", What: "DB went down", Harm: "2h downtime", Severity: models.SeverityHigh,
		Who: []string{"customers"}, Evidence: []string{}, Stakeholders: []string{"customers"}, Jurisdictions: []string{},
	}, got.Incident)
	assert.Equal(t, models.Sliders{Contrition: 65, LegalHedging: 30, Memes: 0}, got.Sliders)
	assert.Equal(t, "en-US", got.Locale)
	assert.Equal(t, models.ToneEarnest, got.Tone)
	assert.Equal(t, []models.Channel{models.ChannelTwitter}, got.Channels)

	assert.Equal(t, 1, strings.Count(body, `class="card draft-card"`))
	assert.Contains(t, body, "<h2>Twitter</h2>")
	assert.Contains(t, body, "We&#39;re sorry...")
	assert.Contains(t, body, "Oopsie...")
	for _, pct := range []string{"40%", "20%", "80%", "90%", "70%"} {
		assert.Contains(t, body, `<div class="value">`+pct+`</div>`)
	}
	assert.NotContains(t, body, `id="non-apology"`)
	assert.NotContains(t, body, `id="adjustments"`)
	assert.NotContains(t, body, `id="apology-form"`)
	assert.Equal(t, session.Success, h.tracker.State(h.cookie.Value).Phase())
}

func TestMissingRequiredFieldMakesNoCall(t *testing.T) {
	for _, field := range []string{"summary", "what", "harm", "channels"} {
		gen := &countingGenerator{res: &models.GenerationResult{}}
		h := newHarness(t, gen)

		form := exampleForm()
		form.Del(field)
		resp := h.do(http.MethodPost, "/generate", form)

		assert.Equal(t, http.StatusBadRequest, resp.Code, field)
		assert.Zero(t, atomic.LoadInt32(&gen.calls), field)
		assert.Contains(t, resp.Body.String(), "Please fill in: "+field)
		assert.Contains(t, resp.Body.String(), `id="apology-form"`)
	}
}

func TestFailureReturnsToForm(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"500": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"Generation failed","detail":"secret stack"}`))
		},
		"429": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			upstream := httptest.NewServer(handler)
			defer upstream.Close()

			h := newHarness(t, generation.NewClient(upstream.URL))
			form := exampleForm()
			form.Set("summary", "Checkout outage")
			resp := h.do(http.MethodPost, "/generate", form)

			body := resp.Body.String()
			assert.Equal(t, http.StatusBadGateway, resp.Code)
			assert.Contains(t, body, GenericNotice)
			assert.Contains(t, body, `id="apology-form"`)
			assert.Contains(t, body, `value="Checkout outage"`, "form values are kept")
			assert.NotContains(t, body, `id="metrics"`)
			assert.NotContains(t, body, "secret stack")
			assert.Equal(t, session.Idle, h.tracker.State(h.cookie.Value).Phase())
		})
	}
}

func TestNetworkFailureReturnsToForm(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := upstream.URL
	upstream.Close()

	h := newHarness(t, generation.NewClient(addr))
	resp := h.do(http.MethodPost, "/generate", exampleForm())

	assert.Equal(t, http.StatusBadGateway, resp.Code)
	assert.Contains(t, resp.Body.String(), GenericNotice)
	assert.NotContains(t, resp.Body.String(), `id="metrics"`)

	resp = h.do(http.MethodGet, "/", nil)
	assert.NotContains(t, resp.Body.String(), GenericNotice, "the notice is shown once")
}

func TestSecondSubmitWhileLoadingIsRejected(t *testing.T) {
	gen := &countingGenerator{res: &models.GenerationResult{Drafts: map[string]models.ChannelDraft{}}, block: make(chan struct{})}
	h := newHarness(t, gen)

	h.do(http.MethodGet, "/", nil)
	require.NotNil(t, h.cookie)

	cookie := h.cookie
	done := make(chan *httptest.ResponseRecorder)
	go func() { done <- h.send(http.MethodPost, "/generate", exampleForm(), cookie) }()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&gen.calls) == 1 }, time.Second, 5*time.Millisecond)

	second := h.do(http.MethodPost, "/generate", exampleForm())
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Contains(t, second.Body.String(), inFlightNotice)

	idx := h.do(http.MethodGet, "/", nil)
	assert.Contains(t, idx.Body.String(), `class="primary" disabled>Generating...`)

	close(gen.block)
	first := <-done
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&gen.calls))
}

func TestIndexAndReset(t *testing.T) {
	gen := &countingGenerator{res: &models.GenerationResult{
		Detectors:   models.Detectors{NonApology: true},
		Adjustments: []string{"first", "second"},
		Drafts:      map[string]models.ChannelDraft{"linkedin": {Useful: "u", Pointless: "p", Redlines: []string{"beyond our control"}}},
	}}
	h := newHarness(t, gen)

	resp := h.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `value="twitter" checked`)
	assert.Contains(t, resp.Body.String(), `<option value="medium" selected>Medium</option>`)

	h.do(http.MethodPost, "/generate", exampleForm())
	resp = h.do(http.MethodGet, "/", nil)
	body := resp.Body.String()
	assert.Contains(t, body, `id="non-apology"`)
	assert.Less(t, strings.Index(body, "<li class=\"adjustment\">first</li>"), strings.Index(body, "<li class=\"adjustment\">second</li>"))
	assert.Contains(t, body, `<li class="redline">beyond our control</li>`)

	resp = h.do(http.MethodPost, "/reset", url.Values{})
	assert.Equal(t, http.StatusSeeOther, resp.Code)
	assert.Equal(t, session.Idle, h.tracker.State(h.cookie.Value).Phase())
}

func TestGeneratorErrorIsGeneric(t *testing.T) {
	h := newHarness(t, &countingGenerator{err: errors.New("dial tcp: connection refused")})
	resp := h.do(http.MethodPost, "/generate", exampleForm())
	assert.NotContains(t, resp.Body.String(), "connection refused")
}
