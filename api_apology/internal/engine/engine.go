package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sorrymonster/api_apology/internal/guardrails"
	"sorrymonster/api_apology/internal/validation"
	"sorrymonster/pkg/llm"
	"sorrymonster/pkg/logging"
	"sorrymonster/pkg/models"
)

const (
	DefaultMaxParallel = 3

	generateTemperature  = 0.7
	interpretTemperature = 0.3
)

// Engine turns validated requests into model calls and guarded results.
type Engine struct {
	provider    llm.Provider
	guard       *guardrails.Guard
	maxParallel int
	logger      logging.Logger
}

type Option func(*Engine)

// WithMaxParallel bounds concurrent per-channel model calls.
func WithMaxParallel(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxParallel = n
		}
	}
}

func WithGuard(g *guardrails.Guard) Option {
	return func(e *Engine) { e.guard = g }
}

func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func New(provider llm.Provider, opts ...Option) *Engine {
	e := &Engine{
		provider:    provider,
		maxParallel: DefaultMaxParallel,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.guard == nil {
		e.guard = guardrails.New(nil)
	}
	if e.logger == nil {
		e.logger = logging.NewLogger()
	}
	return e
}

// Generate drafts every requested channel. The request is not modified; clamps
// and strategy corrections apply to a copy and are reported as adjustments.
// Any channel failure fails the whole call.
func (e *Engine) Generate(ctx context.Context, req *models.GenerationRequest) (*models.GenerationResult, error) {
	r := *req
	adjustments := ApplySeverityClamps(&r)
	adjustments = append(adjustments, ValidateStrategies(&r)...)

	system := GenerateSystemPrompt()
	outputs := make([]channelOutput, len(r.Channels))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxParallel)
	for i, ch := range r.Channels {
		i, ch := i, ch
		g.Go(func() error {
			start := time.Now()
			out, err := e.generateChannel(gctx, system, &r, ch)
			if err != nil {
				return fmt.Errorf("channel %s: %w", ch, err)
			}
			e.logger.WithFields(logging.Fields{
				"channel":  ch,
				"duration": time.Since(start).String(),
			}).Debug("Channel draft generated")
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := mergeOutputs(outputs, adjustments)
	e.guard.Apply(res, r.Sliders.Contrition)
	return res, nil
}

func (e *Engine) generateChannel(ctx context.Context, system string, req *models.GenerationRequest, ch models.Channel) (channelOutput, error) {
	raw, err := e.provider.Complete(ctx, llm.Request{
		Messages:    []llm.Message{llm.System(system), llm.User(ChannelUserPrompt(req, ch))},
		JSONMode:    true,
		Temperature: generateTemperature,
	})
	if err != nil {
		return channelOutput{}, fmt.Errorf("complete: %w", err)
	}
	c, draft, err := parseChannelCompletion(raw, ch)
	if err != nil {
		return channelOutput{}, err
	}
	return channelOutput{channel: ch, draft: draft, completion: c}, nil
}

// Interpret turns raw incident material into a structured incident.
func (e *Engine) Interpret(ctx context.Context, req *models.InterpretRequest) (*models.InterpretResponse, error) {
	raw, err := e.provider.Complete(ctx, llm.Request{
		Messages:    []llm.Message{llm.System(InterpretSystemPrompt()), llm.User(InterpretUserPrompt(req))},
		JSONMode:    true,
		Temperature: interpretTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}

	out, err := parseInterpretCompletion(raw)
	if err != nil {
		return nil, err
	}

	inc := &out.Incident
	if !inc.Severity.Valid() {
		if inc.Severity != "" {
			out.Notes = append(out.Notes, fmt.Sprintf("Unrecognised severity %q replaced with low", inc.Severity))
		}
		inc.Severity = models.SeverityLow
	}
	if strings.TrimSpace(inc.When) == "" {
		inc.When = validation.DefaultWhen
	}
	if len(inc.Stakeholders) == 0 {
		inc.Stakeholders = []string{"customers"}
	}
	if inc.Who == nil {
		inc.Who = []string{}
	}
	if inc.Evidence == nil {
		inc.Evidence = []string{}
	}
	if inc.Jurisdictions == nil {
		inc.Jurisdictions = []string{}
	}
	if out.Notes == nil {
		out.Notes = []string{}
	}
	if out.Extractions == nil {
		out.Extractions = map[string][]string{}
	}
	return out, nil
}

// LuckyRequestFor expands an instant-mode request into a full generation
// request for twitter and customer_email.
func LuckyRequestFor(req *models.LuckyRequest) *models.GenerationRequest {
	gen := &models.GenerationRequest{
		Mode: models.ModeGenerate,
		Incident: models.Incident{
			Summary:  req.Summary,
			What:     req.What,
			Harm:     req.Harm,
			Severity: req.Severity,
			Who:      []string{"customers"},
		},
		Sliders:  models.Sliders{Contrition: 65, LegalHedging: 30, Memes: 0},
		Strategy: models.DefaultStrategy(),
		Tone:     models.ToneEarnest,
		Channels: []models.Channel{models.ChannelTwitter, models.ChannelCustomerEmail},
		Locale:   validation.DefaultLocale,
	}
	validation.ApplyGenerateDefaults(gen)
	return gen
}

// Lucky is the one-click mode: two channels, simplified risk and a watermark.
func (e *Engine) Lucky(ctx context.Context, req *models.LuckyRequest) (*models.LuckyResponse, error) {
	res, err := e.Generate(ctx, LuckyRequestFor(req))
	if err != nil {
		return nil, err
	}
	tw := res.Drafts[string(models.ChannelTwitter)]
	em := res.Drafts[string(models.ChannelCustomerEmail)]
	return &models.LuckyResponse{
		Twitter:       models.LuckyDraft{Useful: tw.Useful, Pointless: tw.Pointless},
		CustomerEmail: models.LuckyDraft{Useful: em.Useful, Pointless: em.Pointless},
		Risk: models.LuckyRisk{
			PRRisk:    res.Metrics.PRRisk,
			Sincerity: res.Metrics.SincerityScore,
		},
		Watermark: models.LuckyWatermark,
	}, nil
}
