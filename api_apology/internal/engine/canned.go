package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"sorrymonster/pkg/llm"
	"sorrymonster/pkg/models"
)

// CannedResponder answers generate and interpret prompts with deterministic,
// template-built JSON. It backs LLM_PROVIDER=stub for local runs and demos.
func CannedResponder() llm.ResponderFunc {
	return func(_ context.Context, req llm.Request) (string, error) {
		if len(req.Messages) == 0 {
			return "", fmt.Errorf("canned responder: no messages")
		}
		prompt := req.Messages[len(req.Messages)-1].Content

		if ch, ok := promptLine(prompt, promptChannel); ok {
			var inc models.Incident
			var sliders models.Sliders
			if line, ok := promptLine(prompt, promptIncident); ok {
				_ = json.Unmarshal([]byte(line), &inc)
			}
			if line, ok := promptLine(prompt, promptSliders); ok {
				_ = json.Unmarshal([]byte(line), &sliders)
			}
			return cannedChannel(models.Channel(ch), inc, sliders), nil
		}

		if i := strings.Index(prompt, promptText); i >= 0 {
			text := prompt[i+len(promptText):]
			if j := strings.Index(text, promptLinks); j >= 0 {
				text = text[:j]
			}
			return cannedInterpret(strings.TrimSpace(text)), nil
		}
		return "", fmt.Errorf("canned responder: unrecognised prompt")
	}
}

func promptLine(prompt, prefix string) (string, bool) {
	for _, line := range strings.Split(prompt, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimPrefix(line, prefix), true
		}
	}
	return "", false
}

func cannedChannel(ch models.Channel, inc models.Incident, s models.Sliders) string {
	summary := strings.TrimSuffix(strings.TrimSpace(inc.Summary), ".")
	what := strings.TrimSuffix(strings.TrimSpace(inc.What), ".")
	harm := strings.TrimSuffix(strings.TrimSpace(inc.Harm), ".")

	ownership := "We are looking into what happened."
	switch models.ContritionBand(s.Contrition) {
	case models.ContritionExplicit:
		ownership = "We caused this and we are sorry."
	case models.ContritionPartial:
		ownership = "We own our part in this."
	}

	var useful string
	switch ch {
	case models.ChannelTwitter:
		useful = truncateRunes(fmt.Sprintf("%s: %s. %s Updates to follow.", summary, what, ownership), 280)
	case models.ChannelCustomerEmail:
		useful = fmt.Sprintf("Hello,\n\n%s. %s, which meant %s. %s\n\nOur support team is ready to help.\n\nThe team", summary, what, harm, ownership)
	case models.ChannelStatusPage:
		useful = fmt.Sprintf("Incident: %s\nScope: %s\nImpact: %s\nNext update within the hour.", summary, what, harm)
	default:
		useful = fmt.Sprintf("%s. %s, resulting in %s. %s", summary, what, harm, ownership)
	}

	sincerity := float64(s.Contrition) / 100
	body := map[string]any{
		"draft": models.ChannelDraft{
			Useful:    useful,
			Pointless: fmt.Sprintf("Oopsie! %s. Have you tried turning it off and on again?", summary),
			Redlines:  []string{},
		},
		"metrics": models.Metrics{
			PRRisk:         models.ClampUnit(1 - sincerity*0.6),
			LegalRisk:      models.ClampUnit(0.5 - float64(s.LegalHedging)/250),
			EthicsScore:    models.ClampUnit(0.5 + sincerity/2),
			ClarityScore:   0.8,
			SincerityScore: sincerity,
		},
		"detectors":   models.Detectors{ScapegoatFlag: "none"},
		"adjustments": []string{},
		"rationales":  []string{fmt.Sprintf("%s written with %s contrition", ch, models.ContritionBand(s.Contrition))},
	}
	return mustJSON(body)
}

func cannedInterpret(text string) string {
	summary := text
	if i := strings.IndexAny(summary, ".\n"); i > 0 {
		summary = summary[:i]
	}
	severity := models.SeverityLow
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "breach") || strings.Contains(lowered, "leak"):
		severity = models.SeverityHigh
	case strings.Contains(lowered, "down") || strings.Contains(lowered, "outage"):
		severity = models.SeverityMedium
	}
	return mustJSON(models.InterpretResponse{
		Incident: models.Incident{
			Summary:       truncateRunes(summary, 120),
			Who:           []string{"customers"},
			What:          text,
			When:          "unknown",
			Harm:          "unknown",
			Severity:      severity,
			Evidence:      []string{},
			Stakeholders:  []string{"customers"},
			Jurisdictions: []string{},
		},
		Notes:       []string{"Generated without a language model"},
		Extractions: map[string][]string{},
	})
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
