// Package builder turns the console's incident form into a GenerationRequest.
package builder

import (
	"net/url"
	"strconv"
	"strings"

	"sorrymonster/pkg/models"
)

// Form mirrors the fields the console exposes.
type Form struct {
	Summary  string
	Who      string
	What     string
	When     string
	Harm     string
	Severity models.Severity
	Evidence string

	Contrition   int
	LegalHedging int
	Memes        int

	Tone     models.Tone
	Channels []models.Channel
}

// Audiences offered by the "Affected" select.
var Audiences = []string{"customers", "employees", "partners", "public"}

const defaultLocale = "en-US"

func DefaultForm() Form {
	return Form{
		Who:          "customers",
		Severity:     models.SeverityMedium,
		Contrition:   65,
		LegalHedging: 30,
		Memes:        0,
		Tone:         models.ToneEarnest,
		Channels:     []models.Channel{models.ChannelTwitter},
	}
}

// ParseForm reads a submitted form. Absent or unparsable selects and sliders
// keep their DefaultForm values; slider values outside [0,100] are clamped.
func ParseForm(v url.Values) Form {
	f := DefaultForm()

	f.Summary = strings.TrimSpace(v.Get("summary"))
	f.What = strings.TrimSpace(v.Get("what"))
	f.When = strings.TrimSpace(v.Get("when"))
	f.Harm = strings.TrimSpace(v.Get("harm"))
	f.Evidence = strings.TrimSpace(v.Get("evidence"))

	if who := strings.TrimSpace(v.Get("who")); who != "" {
		f.Who = who
	}
	if sev := models.Severity(v.Get("severity")); sev.Valid() {
		f.Severity = sev
	}
	if tone := models.Tone(v.Get("tone")); tone.Valid() {
		f.Tone = tone
	}

	f.Contrition = sliderValue(v, "contrition", f.Contrition)
	f.LegalHedging = sliderValue(v, "legal_hedging", f.LegalHedging)
	f.Memes = sliderValue(v, "memes", f.Memes)

	// checkboxes: an unchecked box is simply absent
	f.Channels = nil
	for _, raw := range v["channels"] {
		ch := models.Channel(raw)
		if ch.Valid() && !f.HasChannel(ch) {
			f.Channels = append(f.Channels, ch)
		}
	}
	return f
}

func sliderValue(v url.Values, key string, fallback int) int {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return models.ClampSlider(n)
}

// HasChannel reports whether ch is selected.
func (f Form) HasChannel(ch models.Channel) bool {
	for _, c := range f.Channels {
		if c == ch {
			return true
		}
	}
	return false
}

// Missing lists the required fields left empty. A non-empty result must stop
// the submission before any request is sent.
func (f Form) Missing() []string {
	var missing []string
	if f.Summary == "" {
		missing = append(missing, "summary")
	}
	if f.What == "" {
		missing = append(missing, "what")
	}
	if f.Harm == "" {
		missing = append(missing, "harm")
	}
	if len(f.Channels) == 0 {
		missing = append(missing, "channels")
	}
	return missing
}

// Build fills in everything the form does not expose: a neutral strategy, no
// jurisdictions, the affected group as both who and stakeholders.
func Build(f Form) models.GenerationRequest {
	return models.GenerationRequest{
		Mode: models.ModeGenerate,
		Incident: models.Incident{
			Summary:       f.Summary,
			Who:           []string{f.Who},
			What:          f.What,
			When:          f.When,
			Harm:          f.Harm,
			Severity:      f.Severity,
			Evidence:      splitEvidence(f.Evidence),
			Stakeholders:  []string{f.Who},
			Jurisdictions: []string{},
		},
		Sliders: models.Sliders{
			Contrition:   f.Contrition,
			LegalHedging: f.LegalHedging,
			Memes:        f.Memes,
		},
		Strategy: models.DefaultStrategy(),
		Tone:     f.Tone,
		Channels: append([]models.Channel(nil), f.Channels...),
		Locale:   defaultLocale,
	}
}

func splitEvidence(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
