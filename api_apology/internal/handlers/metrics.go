package handlers

import (
	"time"

	"sorrymonster/pkg/monitoring"
)

// Request outcomes recorded in generations_total.
const (
	outcomeSuccess    = "success"
	outcomeBadRequest = "bad_request"
	outcomeInvalid    = "validation_failed"
	outcomeBlocked    = "blocked"
	outcomeError      = "error"
)

type Metrics struct {
	*monitoring.GenerationMetrics
}

func (m *Metrics) observe(operation, outcome string, start time.Time) {
	if m == nil || m.GenerationMetrics == nil {
		return
	}

	m.Requests.WithLabelValues(operation, outcome).Inc()
	if outcome == outcomeSuccess {
		m.Duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) drafts(channels map[string]int) {
	if m == nil || m.GenerationMetrics == nil {
		return
	}

	for ch, n := range channels {
		m.Drafts.WithLabelValues(ch).Add(float64(n))
	}
}

func (m *Metrics) moderation(category string) {
	if m == nil || m.GenerationMetrics == nil {
		return
	}

	m.Moderation.WithLabelValues(category).Inc()
}
