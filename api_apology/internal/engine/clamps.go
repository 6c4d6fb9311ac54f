package engine

import (
	"fmt"

	"sorrymonster/pkg/models"
)

// ApplySeverityClamps tightens sliders and strategy for medium and high
// severity incidents. Each change is reported as an adjustment.
func ApplySeverityClamps(req *models.GenerationRequest) []string {
	var adj []string
	sev := req.Incident.Severity
	split := &req.Strategy.ResponsibilitySplit

	switch sev {
	case models.SeverityHigh:
		if req.Sliders.Memes > 0 {
			adj = append(adj, fmt.Sprintf("Set memes to 0 for high severity incident (was %d)", req.Sliders.Memes))
			req.Sliders.Memes = 0
		}
		if req.Strategy.Scapegoat.Intensity > 40 {
			adj = append(adj, fmt.Sprintf("Capped scapegoat intensity at 40 for high severity incident (was %d)", req.Strategy.Scapegoat.Intensity))
			req.Strategy.Scapegoat.Intensity = 40
		}
		adj = append(adj, clampSplit(split, 0.5, 0.5, sev)...)
	case models.SeverityMedium:
		if req.Sliders.Memes > 15 {
			adj = append(adj, fmt.Sprintf("Capped memes at 15 for medium severity incident (was %d)", req.Sliders.Memes))
			req.Sliders.Memes = 15
		}
		adj = append(adj, clampSplit(split, 0.3, 0.7, sev)...)
	}
	return adj
}

func clampSplit(split *models.ResponsibilitySplit, minBrand, maxExternal float64, sev models.Severity) []string {
	var adj []string
	if split.Brand < minBrand {
		adj = append(adj, fmt.Sprintf("Raised brand responsibility to %.2f for %s severity incident (was %.2f)", minBrand, sev, split.Brand))
		split.Brand = minBrand
	}
	if split.External > maxExternal {
		adj = append(adj, fmt.Sprintf("Lowered external responsibility to %.2f for %s severity incident (was %.2f)", maxExternal, sev, split.External))
		split.External = maxExternal
	}
	return adj
}

// ValidateStrategies reins in tactics the incident cannot support.
func ValidateStrategies(req *models.GenerationRequest) []string {
	var adj []string
	noEvidence := len(req.Incident.Evidence) == 0

	if req.Strategy.Scapegoat.Intensity > 70 && noEvidence {
		req.Strategy.Scapegoat.Intensity = 40
		adj = append(adj, "Reduced scapegoat intensity to 40 (from >70) due to lack of evidence")
	}

	if req.Sliders.ProfitAlchemist >= 50 && noEvidence {
		req.Sliders.ProfitAlchemist = 30
		adj = append(adj, "Reduced profit_alchemist to 30 (from >=50) due to lack of concrete evidence")
	}

	if req.Sliders.RiskTransfer > 0 && req.Sliders.LegalHedging < 40 {
		req.Sliders.RiskTransfer = 0
		adj = append(adj, "Disabled risk_transfer due to insufficient legal_hedging (<40)")
	}

	if req.Incident.Severity == models.SeverityHigh && req.Sliders.RiskTransfer > 0 {
		req.Sliders.RiskTransfer = 0
		adj = append(adj, "Disabled risk_transfer for HIGH severity incident")
	}

	return adj
}
