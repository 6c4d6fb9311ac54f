package validation

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/language"

	"sorrymonster/pkg/models"
)

const (
	DefaultLocale = "en-US"
	DefaultWhen   = "unknown"

	// splitTolerance is how far brand+external may drift from 1.0.
	splitTolerance = 0.01
)

var (
	readingLevels = []string{"middle", "high_school", "college"}
	cadences      = []string{"short", "balanced", "long"}
)

// ApplyGenerateDefaults fills fields a caller may legitimately omit.
// A strategy knob without a type is disabled, so its intensity is zeroed.
func ApplyGenerateDefaults(req *models.GenerationRequest) {
	if req.Mode == "" {
		req.Mode = models.ModeGenerate
	}

	inc := &req.Incident
	if strings.TrimSpace(inc.When) == "" {
		inc.When = DefaultWhen
	}
	if inc.Severity == "" {
		inc.Severity = models.SeverityLow
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

	if req.Tone == "" {
		req.Tone = models.ToneEarnest
	}
	if strings.TrimSpace(req.Locale) == "" {
		req.Locale = DefaultLocale
	}

	st := &req.Strategy
	if st.Scapegoat.Type == nil {
		st.Scapegoat.Intensity = 0
	}
	if st.Distraction.Type == nil {
		st.Distraction.Intensity = 0
	}
	if st.ResponsibilitySplit.Brand == 0 && st.ResponsibilitySplit.External == 0 {
		st.ResponsibilitySplit = models.DefaultStrategy().ResponsibilitySplit
	}
	if st.SelfCredentialing == nil {
		st.SelfCredentialing = []string{}
	}
}

// ValidateGenerate returns every problem found in req; nil means valid.
func ValidateGenerate(req *models.GenerationRequest) []string {
	var errs []string

	if req.Mode != models.ModeGenerate {
		errs = append(errs, fmt.Sprintf("mode must be %q", models.ModeGenerate))
	}

	errs = append(errs, validateIncident(&req.Incident)...)

	sliders := []struct {
		name  string
		value int
	}{
		{"contrition", req.Sliders.Contrition},
		{"legal_hedging", req.Sliders.LegalHedging},
		{"memes", req.Sliders.Memes},
		{"accountability_evasion", req.Sliders.AccountabilityEvasion},
		{"profit_alchemist", req.Sliders.ProfitAlchemist},
		{"risk_transfer", req.Sliders.RiskTransfer},
		{"data_fog", req.Sliders.DataFog},
		{"pseudo_transparency", req.Sliders.PseudoTransparency},
	}
	for _, s := range sliders {
		if !models.InSliderRange(s.value) {
			errs = append(errs, fmt.Sprintf("sliders.%s must be between 0 and 100", s.name))
		}
	}

	if !req.Tone.Valid() {
		errs = append(errs, fmt.Sprintf("tone %q is not supported", req.Tone))
	}

	if len(req.Channels) == 0 {
		errs = append(errs, "At least one channel is required")
	}
	seen := make(map[models.Channel]bool, len(req.Channels))
	for _, ch := range req.Channels {
		if !ch.Valid() {
			errs = append(errs, fmt.Sprintf("channel %q is not supported", ch))
			continue
		}
		if seen[ch] {
			errs = append(errs, fmt.Sprintf("channel %q is listed more than once", ch))
		}
		seen[ch] = true
	}

	errs = append(errs, validateStrategy(&req.Strategy)...)

	if _, err := language.Parse(req.Locale); err != nil {
		errs = append(errs, fmt.Sprintf("locale %q is not a valid language tag", req.Locale))
	}

	if bp := req.BrandProfile; bp != nil {
		if strings.TrimSpace(bp.Name) == "" {
			errs = append(errs, "brand_profile.name is required")
		}
		if rl := bp.VoiceTraits.ReadingLevel; rl != "" && !slices.Contains(readingLevels, rl) {
			errs = append(errs, fmt.Sprintf("brand_profile.voice_traits.reading_level %q is not supported", rl))
		}
		if c := bp.VoiceTraits.Cadence; c != "" && !slices.Contains(cadences, c) {
			errs = append(errs, fmt.Sprintf("brand_profile.voice_traits.cadence %q is not supported", c))
		}
	}

	return errs
}

func validateIncident(inc *models.Incident) []string {
	var errs []string
	if strings.TrimSpace(inc.Summary) == "" {
		errs = append(errs, "Incident summary is required")
	}
	if strings.TrimSpace(inc.What) == "" {
		errs = append(errs, "Incident what is required")
	}
	if strings.TrimSpace(inc.Harm) == "" {
		errs = append(errs, "Incident harm is required")
	}
	if !inc.Severity.Valid() {
		errs = append(errs, fmt.Sprintf("severity %q is not supported", inc.Severity))
	}
	if inc.RiskLevel != nil && !inc.RiskLevel.Valid() {
		errs = append(errs, fmt.Sprintf("risk_level %q is not supported", *inc.RiskLevel))
	}
	return errs
}

func validateStrategy(st *models.Strategy) []string {
	var errs []string

	if t := st.Scapegoat.Type; t != nil && !slices.Contains(models.ScapegoatTypes, *t) {
		errs = append(errs, fmt.Sprintf("strategy.scapegoat.type %q is not supported", *t))
	}
	if !models.InSliderRange(st.Scapegoat.Intensity) {
		errs = append(errs, "strategy.scapegoat.intensity must be between 0 and 100")
	}
	if t := st.Distraction.Type; t != nil && !slices.Contains(models.DistractionTypes, *t) {
		errs = append(errs, fmt.Sprintf("strategy.distraction.type %q is not supported", *t))
	}
	if !models.InSliderRange(st.Distraction.Intensity) {
		errs = append(errs, "strategy.distraction.intensity must be between 0 and 100")
	}

	split := st.ResponsibilitySplit
	if split.Brand < 0 || split.Brand > 1 || split.External < 0 || split.External > 1 {
		errs = append(errs, "strategy.responsibility_split values must be between 0 and 1")
	}
	if math.Abs(split.Brand+split.External-1) > splitTolerance {
		errs = append(errs, "strategy.responsibility_split brand + external must equal 1.0")
	}
	return errs
}

// ValidateInterpret checks an interpretation request.
func ValidateInterpret(req *models.InterpretRequest) []string {
	var errs []string
	if req.Mode != "" && req.Mode != models.ModeInterpret {
		errs = append(errs, fmt.Sprintf("mode must be %q", models.ModeInterpret))
	}
	if strings.TrimSpace(req.IncidentInput.Text) == "" {
		errs = append(errs, "incident_input.text is required")
	}
	return errs
}

// ApplyLuckyDefaults sets the instant-mode severity default (medium).
func ApplyLuckyDefaults(req *models.LuckyRequest) {
	if req.Severity == "" {
		req.Severity = models.SeverityMedium
	}
}

// ValidateLucky checks an instant-mode request.
func ValidateLucky(req *models.LuckyRequest) []string {
	var errs []string
	if strings.TrimSpace(req.Summary) == "" {
		errs = append(errs, "summary is required")
	}
	if strings.TrimSpace(req.What) == "" {
		errs = append(errs, "what is required")
	}
	if strings.TrimSpace(req.Harm) == "" {
		errs = append(errs, "harm is required")
	}
	if !req.Severity.Valid() {
		errs = append(errs, fmt.Sprintf("severity %q is not supported", req.Severity))
	}
	return errs
}
