// Package incidentfile reads and writes the YAML incident files the CLI
// turns into generation requests.
package incidentfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"sorrymonster/pkg/models"
)

const (
	DefaultContrition   = 65
	DefaultLegalHedging = 30
	DefaultMemes        = 0
	DefaultLocale       = "en-US"
)

// File is the on-disk shape. Slider fields are pointers so an explicit 0
// survives while an omitted slider picks up its default.
type File struct {
	Incident     Incident             `yaml:"incident"`
	Sliders      Sliders              `yaml:"sliders,omitempty"`
	Tone         string               `yaml:"tone,omitempty"`
	Channels     []string             `yaml:"channels,omitempty"`
	Locale       string               `yaml:"locale,omitempty"`
	BrandProfile *models.BrandProfile `yaml:"brand_profile,omitempty"`
}

type Incident struct {
	Summary       string   `yaml:"summary"`
	Who           []string `yaml:"who,omitempty"`
	What          string   `yaml:"what"`
	When          string   `yaml:"when,omitempty"`
	Harm          string   `yaml:"harm"`
	Severity      string   `yaml:"severity,omitempty"`
	Evidence      []string `yaml:"evidence,omitempty"`
	Stakeholders  []string `yaml:"stakeholders,omitempty"`
	Jurisdictions []string `yaml:"jurisdictions,omitempty"`
	RiskLevel     string   `yaml:"risk_level,omitempty"`
}

type Sliders struct {
	Contrition   *int `yaml:"contrition,omitempty"`
	LegalHedging *int `yaml:"legal_hedging,omitempty"`
	Memes        *int `yaml:"memes,omitempty"`

	AccountabilityEvasion int `yaml:"accountability_evasion,omitempty"`
	ProfitAlchemist       int `yaml:"profit_alchemist,omitempty"`
	RiskTransfer          int `yaml:"risk_transfer,omitempty"`
	DataFog               int `yaml:"data_fog,omitempty"`
	PseudoTransparency    int `yaml:"pseudo_transparency,omitempty"`
}

// Load reads an incident file from disk.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read incident file: %w", err)
	}
	return Parse(raw)
}

// Read parses an incident file from r, typically stdin.
func Read(r io.Reader) (*File, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read incident file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a single YAML document and rejects unknown keys.
func Parse(raw []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("incident file is empty")
		}
		return nil, fmt.Errorf("parse incident file: %w", err)
	}
	return &f, nil
}

// Request fills defaults and converts the file into the wire request. The
// service still validates it; this only catches values that cannot be
// represented.
func (f *File) Request() (*models.GenerationRequest, error) {
	severity := models.Severity(strings.ToLower(f.Incident.Severity))
	if severity == "" {
		severity = models.SeverityLow
	}
	if !severity.Valid() {
		return nil, fmt.Errorf("unknown severity %q", f.Incident.Severity)
	}

	tone := models.Tone(strings.ToLower(f.Tone))
	if tone == "" {
		tone = models.ToneEarnest
	}
	if !tone.Valid() {
		return nil, fmt.Errorf("unknown tone %q", f.Tone)
	}

	channels := make([]models.Channel, 0, len(f.Channels))
	for _, name := range f.Channels {
		ch := models.Channel(strings.ToLower(strings.TrimSpace(name)))
		if !ch.Valid() {
			return nil, fmt.Errorf("unknown channel %q", name)
		}
		channels = append(channels, ch)
	}
	if len(channels) == 0 {
		channels = []models.Channel{models.ChannelTwitter}
	}

	incident := models.Incident{
		Summary:       f.Incident.Summary,
		Who:           orEmpty(f.Incident.Who),
		What:          f.Incident.What,
		When:          f.Incident.When,
		Harm:          f.Incident.Harm,
		Severity:      severity,
		Evidence:      orEmpty(f.Incident.Evidence),
		Stakeholders:  orEmpty(f.Incident.Stakeholders),
		Jurisdictions: orEmpty(f.Incident.Jurisdictions),
	}
	if len(incident.Stakeholders) == 0 {
		incident.Stakeholders = incident.Who
	}
	if f.Incident.RiskLevel != "" {
		level := models.RiskLevel(strings.ToLower(f.Incident.RiskLevel))
		if !level.Valid() {
			return nil, fmt.Errorf("unknown risk_level %q", f.Incident.RiskLevel)
		}
		incident.RiskLevel = &level
	}

	locale := f.Locale
	if locale == "" {
		locale = DefaultLocale
	}

	return &models.GenerationRequest{
		Mode:     models.ModeGenerate,
		Incident: incident,
		Sliders: models.Sliders{
			Contrition:            valueOr(f.Sliders.Contrition, DefaultContrition),
			LegalHedging:          valueOr(f.Sliders.LegalHedging, DefaultLegalHedging),
			Memes:                 valueOr(f.Sliders.Memes, DefaultMemes),
			AccountabilityEvasion: f.Sliders.AccountabilityEvasion,
			ProfitAlchemist:       f.Sliders.ProfitAlchemist,
			RiskTransfer:          f.Sliders.RiskTransfer,
			DataFog:               f.Sliders.DataFog,
			PseudoTransparency:    f.Sliders.PseudoTransparency,
		},
		Strategy:     models.DefaultStrategy(),
		Tone:         tone,
		Channels:     channels,
		Locale:       locale,
		BrandProfile: f.BrandProfile,
	}, nil
}

// FromIncident builds a file around an interpreted incident so it can be
// edited and fed back into generate.
func FromIncident(in models.Incident) *File {
	f := &File{
		Incident: Incident{
			Summary:       in.Summary,
			Who:           in.Who,
			What:          in.What,
			When:          in.When,
			Harm:          in.Harm,
			Severity:      string(in.Severity),
			Evidence:      in.Evidence,
			Stakeholders:  in.Stakeholders,
			Jurisdictions: in.Jurisdictions,
		},
		Tone:     string(models.ToneEarnest),
		Channels: []string{string(models.ChannelTwitter)},
	}
	if in.RiskLevel != nil {
		f.Incident.RiskLevel = string(*in.RiskLevel)
	}
	return f
}

// Encode writes f as YAML with two-space indentation.
func (f *File) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return err
	}
	return enc.Close()
}

func valueOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
