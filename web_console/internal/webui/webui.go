// Package webui serves the console's HTML form and results pages.
package webui

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"sorrymonster/pkg/logging"
	"sorrymonster/pkg/middleware"
	"sorrymonster/pkg/models"
	"sorrymonster/pkg/monitoring"
	"sorrymonster/web_console/internal/builder"
	"sorrymonster/web_console/internal/render"
	"sorrymonster/web_console/internal/session"
)

//go:embed templates/*.html templates/copy.js
var templatesFS embed.FS

var (
	pages = template.Must(template.New("").Funcs(template.FuncMap{
		"title": render.Title,
	}).ParseFS(templatesFS, "templates/*.html"))

	copyScript = template.JS(mustRead("templates/copy.js"))
)

func mustRead(name string) string {
	b, err := templatesFS.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(b)
}

const (
	// SessionCookie carries the browser's session id.
	SessionCookie = "sorry_session"

	// GenericNotice is the only failure message a user ever sees.
	GenericNotice = "Failed to generate apologies. Please try again."
	inFlightNotice = "A generation is already in progress. Please wait for it to finish."

	opGenerate = "generate"
)

// Generator performs one generation round trip.
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error)
}

type page struct {
	Form       builder.Form
	Missing    []string
	Notice     string
	Loading    bool
	Result     bool
	View       render.View
	Audiences  []string
	Severities []models.Severity
	Tones      []models.Tone
	Channels   []models.Channel
	CopyScript template.JS
}

type Server struct {
	generator Generator
	tracker   *session.Tracker
	logger    logging.Logger
	metrics   *monitoring.GenerationMetrics
	secure    bool
}

type Option func(*Server)

func WithMetrics(m *monitoring.GenerationMetrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithSecureCookies marks the session cookie Secure.
func WithSecureCookies(secure bool) Option {
	return func(s *Server) { s.secure = secure }
}

func NewServer(generator Generator, tracker *session.Tracker, logger logging.Logger, opts ...Option) *Server {
	s := &Server{generator: generator, tracker: tracker, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Register(r gin.IRoutes) {
	r.GET("/", s.Index)
	r.POST("/generate", s.Generate)
	r.POST("/reset", s.Reset)
}

// Index shows the results for a successful session and the form otherwise.
// A pending failure notice is shown once, then the session returns to Idle.
func (s *Server) Index(c *gin.Context) {
	id := s.sessionID(c)
	st := s.tracker.State(id)

	p := s.newPage(builder.DefaultForm())
	switch st.Phase() {
	case session.Success:
		res, _ := st.Result()
		p.Result = true
		p.View = render.NewView(res)
	case session.Loading:
		p.Loading = true
	case session.Failed:
		p.Notice, _ = st.Notice()
		s.tracker.Acknowledge(id)
	}
	s.render(c, http.StatusOK, p)
}

func (s *Server) Generate(c *gin.Context) {
	start := time.Now()
	id := s.sessionID(c)
	log := middleware.GetContextLogger(c, s.logger)

	if err := c.Request.ParseForm(); err != nil {
		s.render(c, http.StatusBadRequest, s.newPage(builder.DefaultForm()))
		return
	}
	form := builder.ParseForm(c.Request.PostForm)

	if missing := form.Missing(); len(missing) > 0 {
		s.observe("validation_failed", start)
		p := s.newPage(form)
		p.Missing = missing
		s.render(c, http.StatusBadRequest, p)
		return
	}

	if err := s.tracker.Begin(id); err != nil {
		s.observe("in_flight", start)
		p := s.newPage(form)
		p.Notice = inFlightNotice
		p.Loading = true
		s.render(c, http.StatusConflict, p)
		return
	}

	res, err := s.generator.Generate(c.Request.Context(), builder.Build(form))
	if err != nil {
		s.observe("error", start)
		log.WithError(err).Warn("Generation failed")
		if _, ferr := s.tracker.Finish(id, nil, GenericNotice, true); ferr != nil {
			log.WithError(ferr).Error("Session transition failed")
		}
		// the notice is shown right here, so the session goes straight back to Idle
		s.tracker.Acknowledge(id)

		p := s.newPage(form)
		p.Notice = GenericNotice
		s.render(c, http.StatusBadGateway, p)
		return
	}

	if _, err := s.tracker.Finish(id, res, "", false); err != nil {
		log.WithError(err).Error("Session transition failed")
	}
	s.observe("success", start)
	if s.metrics != nil {
		for ch := range res.Drafts {
			s.metrics.Drafts.WithLabelValues(ch).Inc()
		}
	}

	p := s.newPage(form)
	p.Result = true
	p.View = render.NewView(res)
	s.render(c, http.StatusOK, p)
}

func (s *Server) Reset(c *gin.Context) {
	id := s.sessionID(c)
	if err := s.tracker.Reset(id); err != nil {
		p := s.newPage(builder.DefaultForm())
		p.Loading = true
		p.Notice = inFlightNotice
		s.render(c, http.StatusConflict, p)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) newPage(form builder.Form) page {
	return page{
		Form:       form,
		Audiences:  builder.Audiences,
		Severities: []models.Severity{models.SeverityLow, models.SeverityMedium, models.SeverityHigh},
		Tones:      models.AllTones(),
		Channels:   models.AllChannels(),
		CopyScript: copyScript,
	}
}

func (s *Server) render(c *gin.Context, status int, p page) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, "layout", p); err != nil {
		middleware.GetContextLogger(c, s.logger).WithError(err).Error("Failed to render page")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) sessionID(c *gin.Context) string {
	if id, err := c.Cookie(SessionCookie); err == nil {
		if _, perr := uuid.Parse(id); perr == nil {
			return id
		}
	}
	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, 0, "/", "", s.secure, true)
	return id
}

func (s *Server) observe(outcome string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.Requests.WithLabelValues(opGenerate, outcome).Inc()
	if outcome == "success" {
		s.metrics.Duration.WithLabelValues(opGenerate).Observe(time.Since(start).Seconds())
	}
}
