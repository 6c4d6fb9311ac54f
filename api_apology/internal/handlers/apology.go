package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sorrymonster/api_apology/internal/engine"
	"sorrymonster/api_apology/internal/moderation"
	"sorrymonster/api_apology/internal/validation"
	"sorrymonster/pkg/llm"
	"sorrymonster/pkg/logging"
	"sorrymonster/pkg/middleware"
	"sorrymonster/pkg/models"
	"sorrymonster/pkg/monitoring"
)

const (
	opGenerate  = "generate"
	opInterpret = "interpret"
	opModerate  = "moderate"
	opLucky     = "lucky"

	// DefaultRequestTimeout bounds one request including every channel call.
	DefaultRequestTimeout = 120 * time.Second
)

type ApologyHandler struct {
	generator Generator
	logger    logging.Logger
	metrics   *Metrics
	timeout   time.Duration
}

func NewApologyHandler(generator Generator, logger logging.Logger, metrics *Metrics, timeout time.Duration) *ApologyHandler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &ApologyHandler{
		generator: generator,
		logger:    logger,
		metrics:   metrics,
		timeout:   timeout,
	}
}

// Register mounts the /v1 endpoints on rg.
func (h *ApologyHandler) Register(rg gin.IRoutes) {
	rg.POST("/generate", h.Generate)
	rg.POST("/interpret", h.Interpret)
	rg.POST("/moderate", h.Moderate)
	rg.POST("/lucky", h.Lucky)
}

func (h *ApologyHandler) Generate(c *gin.Context) {
	start := time.Now()
	log := middleware.GetContextLogger(c, h.logger)

	var req models.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.observe(opGenerate, outcomeBadRequest, start)
		invalidJSON(c)
		return
	}

	validation.ApplyGenerateDefaults(&req)
	if errs := validation.ValidateGenerate(&req); len(errs) > 0 {
		h.metrics.observe(opGenerate, outcomeInvalid, start)
		log.WithField("errors", errs).Warn("Rejected generation request")
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	verdict := moderation.Check(moderation.IncidentText(req.Incident))
	h.metrics.moderation(verdict.Category)
	if !verdict.Allowed {
		h.metrics.observe(opGenerate, outcomeBlocked, start)
		log.WithField("category", verdict.Category).Warn("Blocked generation request")
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: verdict.Reason, Details: []string{verdict.Category}})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	res, err := h.generator.Generate(ctx, &req)
	if err != nil {
		h.metrics.observe(opGenerate, outcomeError, start)
		log.WithError(err).WithField("channels", req.Channels).Error("Generation failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Generation failed", Detail: failureDetail(err)})
		return
	}

	counts := make(map[string]int, len(res.Drafts))
	for ch := range res.Drafts {
		counts[ch]++
	}
	h.metrics.drafts(counts)
	h.metrics.observe(opGenerate, outcomeSuccess, start)

	log.WithFields(logging.Fields{
		"channels":    len(res.Drafts),
		"severity":    req.Incident.Severity,
		"adjustments": len(res.Adjustments),
		"duration":    time.Since(start).String(),
	}).Info("Generated apology drafts")

	c.JSON(http.StatusOK, res)
}

func (h *ApologyHandler) Interpret(c *gin.Context) {
	start := time.Now()
	log := middleware.GetContextLogger(c, h.logger)

	var req models.InterpretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.observe(opInterpret, outcomeBadRequest, start)
		invalidJSON(c)
		return
	}
	if errs := validation.ValidateInterpret(&req); len(errs) > 0 {
		h.metrics.observe(opInterpret, outcomeInvalid, start)
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	out, err := h.generator.Interpret(ctx, &req)
	if err != nil {
		h.metrics.observe(opInterpret, outcomeError, start)
		log.WithError(err).Error("Interpretation failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Interpretation failed", Detail: failureDetail(err)})
		return
	}

	h.metrics.observe(opInterpret, outcomeSuccess, start)
	c.JSON(http.StatusOK, out)
}

// Moderate always answers 200; a blocked verdict is data, not an error.
func (h *ApologyHandler) Moderate(c *gin.Context) {
	start := time.Now()

	var req models.ModerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.observe(opModerate, outcomeBadRequest, start)
		invalidJSON(c)
		return
	}

	verdict := moderation.Check(req.Text)
	h.metrics.moderation(verdict.Category)
	h.metrics.observe(opModerate, outcomeSuccess, start)
	c.JSON(http.StatusOK, verdict)
}

func (h *ApologyHandler) Lucky(c *gin.Context) {
	start := time.Now()
	log := middleware.GetContextLogger(c, h.logger)

	var req models.LuckyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.observe(opLucky, outcomeBadRequest, start)
		invalidJSON(c)
		return
	}

	validation.ApplyLuckyDefaults(&req)
	if errs := validation.ValidateLucky(&req); len(errs) > 0 {
		h.metrics.observe(opLucky, outcomeInvalid, start)
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	inc := models.Incident{Summary: req.Summary, What: req.What, Harm: req.Harm}
	verdict := moderation.Check(moderation.IncidentText(inc))
	h.metrics.moderation(verdict.Category)
	if !verdict.Allowed {
		h.metrics.observe(opLucky, outcomeBlocked, start)
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: verdict.Reason, Details: []string{verdict.Category}})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	out, err := h.generator.Lucky(ctx, &req)
	if err != nil {
		h.metrics.observe(opLucky, outcomeError, start)
		log.WithError(err).Error("Lucky generation failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Generation failed", Detail: failureDetail(err)})
		return
	}

	h.metrics.observe(opLucky, outcomeSuccess, start)
	c.JSON(http.StatusOK, out)
}

// Root answers GET / with the same health envelope as /health.
func Root(hc *monitoring.HealthChecker) gin.HandlerFunc {
	return hc.Handler()
}

func invalidJSON(c *gin.Context) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid JSON"})
}

// failureDetail keeps model output and upstream error text out of responses
// unless gin runs in debug mode.
func failureDetail(err error) string {
	switch {
	case errors.Is(err, llm.ErrCircuitOpen):
		return "Model provider temporarily unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "Generation timed out"
	case errors.Is(err, engine.ErrEmptyCompletion), errors.Is(err, engine.ErrMalformedCompletion):
		if gin.Mode() == gin.DebugMode {
			return err.Error()
		}
		return "Model returned an unusable answer"
	}
	if gin.Mode() == gin.DebugMode {
		return err.Error()
	}
	return ""
}
