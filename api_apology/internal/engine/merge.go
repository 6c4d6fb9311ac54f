package engine

import (
	"sorrymonster/api_apology/internal/guardrails"
	"sorrymonster/pkg/models"
)

type channelOutput struct {
	channel    models.Channel
	draft      models.ChannelDraft
	completion *channelCompletion
}

// mergeOutputs folds per-channel answers into one result: risks take the
// maximum, scores the mean, detector flags are OR-ed and lists are unioned in
// request order. Engine adjustments always come first.
func mergeOutputs(outputs []channelOutput, engineAdjustments []string) *models.GenerationResult {
	res := &models.GenerationResult{
		Drafts:      make(map[string]models.ChannelDraft, len(outputs)),
		Adjustments: append([]string{}, engineAdjustments...),
		Detectors:   models.Detectors{ScapegoatFlag: "none"},
	}

	var ethics, clarity, sincerity float64
	for _, out := range outputs {
		c := out.completion
		m := guardrails.ClampMetrics(*c.Metrics)

		res.Drafts[string(out.channel)] = out.draft

		res.Metrics.PRRisk = max(res.Metrics.PRRisk, m.PRRisk)
		res.Metrics.LegalRisk = max(res.Metrics.LegalRisk, m.LegalRisk)
		ethics += m.EthicsScore
		clarity += m.ClarityScore
		sincerity += m.SincerityScore

		if c.Detectors.NonApology {
			res.Detectors.NonApology = true
		}
		if f := c.Detectors.ScapegoatFlag; f != "" && f != "none" && res.Detectors.ScapegoatFlag == "none" {
			res.Detectors.ScapegoatFlag = f
		}
		res.Detectors.UnverifiableClaims = guardrails.MergeUnique(res.Detectors.UnverifiableClaims, c.Detectors.UnverifiableClaims)
		res.Adjustments = guardrails.MergeUnique(res.Adjustments, c.Adjustments)
		res.Rationales = guardrails.MergeUnique(res.Rationales, c.Rationales)
	}

	if n := float64(len(outputs)); n > 0 {
		res.Metrics.EthicsScore = ethics / n
		res.Metrics.ClarityScore = clarity / n
		res.Metrics.SincerityScore = sincerity / n
	}
	return res
}
