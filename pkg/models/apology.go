package models

// Severity of an incident
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Tone of the generated drafts
type Tone string

const (
	ToneEarnest Tone = "earnest"
	ToneWarm    Tone = "warm"
	ToneDry     Tone = "dry"
	ToneStoic   Tone = "stoic"
	ToneCheeky  Tone = "cheeky"
)

// AllTones lists tones in the order the console offers them.
func AllTones() []Tone {
	return []Tone{ToneEarnest, ToneWarm, ToneDry, ToneStoic, ToneCheeky}
}

// Valid reports whether t is a known tone.
func (t Tone) Valid() bool {
	for _, known := range AllTones() {
		if t == known {
			return true
		}
	}
	return false
}

// Channel is a publication surface a draft is written for.
type Channel string

const (
	ChannelTwitter       Channel = "twitter"
	ChannelLinkedIn      Channel = "linkedin"
	ChannelPressRelease  Channel = "press_release"
	ChannelCEOLetter     Channel = "ceo_letter"
	ChannelCustomerEmail Channel = "customer_email"
	ChannelStatusPage    Channel = "status_page"
)

// AllChannels returns every channel in canonical order.
func AllChannels() []Channel {
	return []Channel{
		ChannelTwitter,
		ChannelLinkedIn,
		ChannelPressRelease,
		ChannelCEOLetter,
		ChannelCustomerEmail,
		ChannelStatusPage,
	}
}

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	return ChannelRank(string(c)) < len(AllChannels())
}

// ChannelRank is the position of name in canonical order, or len(AllChannels())
// for names that are not known channels.
func ChannelRank(name string) int {
	for i, c := range AllChannels() {
		if string(c) == name {
			return i
		}
	}
	return len(AllChannels())
}

// RiskLevel classifies the kind of exposure an incident carries.
type RiskLevel string

const (
	RiskInformational RiskLevel = "informational"
	RiskOperational   RiskLevel = "operational"
	RiskRegulatory    RiskLevel = "regulatory"
	RiskReputational  RiskLevel = "reputational"
	RiskFinancial     RiskLevel = "financial"
)

// Valid reports whether r is a known risk level.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskInformational, RiskOperational, RiskRegulatory, RiskReputational, RiskFinancial:
		return true
	}
	return false
}

// Scapegoat and distraction types accepted by the generation service.
var (
	ScapegoatTypes = []string{
		"vendor_outage", "legacy_system", "industry_wide",
		"unexpected_dependency", "weather", "unknown_root_cause",
	}
	DistractionTypes = []string{
		"csr_donation", "carbon_offset_mention",
		"product_announcement_tease", "community_highlight",
	}
)

// ModeGenerate and ModeInterpret are the only request modes.
const (
	ModeGenerate  = "generate"
	ModeInterpret = "interpret"
)

// Incident is the structured description of what is being apologized for.
type Incident struct {
	Summary       string     `json:"summary"`
	Who           []string   `json:"who"`
	What          string     `json:"what"`
	When          string     `json:"when,omitempty"`
	Harm          string     `json:"harm"`
	Severity      Severity   `json:"severity"`
	Evidence      []string   `json:"evidence"`
	Stakeholders  []string   `json:"stakeholders"`
	Jurisdictions []string   `json:"jurisdictions"`
	RiskLevel     *RiskLevel `json:"risk_level,omitempty"`
}

// Sliders are 0-100 tone controls. The last five are advanced controls the
// console never sends; the service honours them when a caller does.
type Sliders struct {
	Contrition   int `json:"contrition"`
	LegalHedging int `json:"legal_hedging"`
	Memes        int `json:"memes"`

	AccountabilityEvasion int `json:"accountability_evasion,omitempty"`
	ProfitAlchemist       int `json:"profit_alchemist,omitempty"`
	RiskTransfer          int `json:"risk_transfer,omitempty"`
	DataFog               int `json:"data_fog,omitempty"`
	PseudoTransparency    int `json:"pseudo_transparency,omitempty"`
}

// StrategyKnob is a typed tactic with an intensity; a nil Type means unused.
type StrategyKnob struct {
	Type      *string `json:"type"`
	Intensity int     `json:"intensity"`
}

// ResponsibilitySplit divides blame between the brand and external parties.
type ResponsibilitySplit struct {
	Brand    float64 `json:"brand"`
	External float64 `json:"external"`
}

type Strategy struct {
	Scapegoat           StrategyKnob        `json:"scapegoat"`
	Distraction         StrategyKnob        `json:"distraction"`
	ResponsibilitySplit ResponsibilitySplit `json:"responsibility_split"`
	VictimlessFrame     bool                `json:"victimless_frame"`
	SelfCredentialing   []string            `json:"self_credentialing"`
}

// DefaultStrategy is the neutral, no-op strategy.
func DefaultStrategy() Strategy {
	return Strategy{
		ResponsibilitySplit: ResponsibilitySplit{Brand: 0.5, External: 0.5},
		SelfCredentialing:   []string{},
	}
}

// VoiceTraits and BrandProfile describe an optional house style.
type VoiceTraits struct {
	ReadingLevel string   `json:"reading_level,omitempty" yaml:"reading_level"`
	Cadence      string   `json:"cadence,omitempty" yaml:"cadence"`
	Keywords     []string `json:"keywords,omitempty" yaml:"keywords"`
}

type BrandProfile struct {
	Name               string      `json:"name" yaml:"name"`
	Values             []string    `json:"values,omitempty" yaml:"values"`
	TabooTopics        []string    `json:"taboo_topics,omitempty" yaml:"taboo_topics"`
	LegalBoilerplate   string      `json:"legal_boilerplate,omitempty" yaml:"legal_boilerplate"`
	VoiceTraits        VoiceTraits `json:"voice_traits" yaml:"voice_traits"`
	ExemplarParagraphs []string    `json:"exemplar_paragraphs,omitempty" yaml:"exemplar_paragraphs"`
}

// GenerationRequest is the body of POST /v1/generate.
type GenerationRequest struct {
	Mode         string        `json:"mode"`
	Incident     Incident      `json:"incident"`
	Sliders      Sliders       `json:"sliders"`
	Strategy     Strategy      `json:"strategy"`
	Tone         Tone          `json:"tone"`
	Channels     []Channel     `json:"channels"`
	Locale       string        `json:"locale"`
	BrandProfile *BrandProfile `json:"brand_profile,omitempty"`
}

// Metrics are risk and quality scores in [0,1].
type Metrics struct {
	PRRisk         float64 `json:"pr_risk"`
	LegalRisk      float64 `json:"legal_risk"`
	EthicsScore    float64 `json:"ethics_score"`
	ClarityScore   float64 `json:"clarity_score"`
	SincerityScore float64 `json:"sincerity_score"`
}

// Detectors are flags raised by content analysis.
type Detectors struct {
	NonApology         bool     `json:"non_apology"`
	ScapegoatFlag      string   `json:"scapegoat_flag,omitempty"`
	UnverifiableClaims []string `json:"unverifiable_claims,omitempty"`
}

// ChannelDraft holds both variants written for one channel.
type ChannelDraft struct {
	Useful      string   `json:"useful"`
	Pointless   string   `json:"pointless"`
	Attachments []string `json:"attachments,omitempty"`
	Redlines    []string `json:"redlines"`
}

// GenerationResult is the body returned by POST /v1/generate.
type GenerationResult struct {
	Metrics     Metrics                 `json:"metrics"`
	Detectors   Detectors               `json:"detectors"`
	Adjustments []string                `json:"adjustments"`
	Drafts      map[string]ChannelDraft `json:"drafts"`
	Rationales  []string                `json:"rationales,omitempty"`
}

// IncidentInput is raw, unstructured incident material.
type IncidentInput struct {
	Text  string   `json:"text"`
	Links []string `json:"links"`
	Files []string `json:"files"`
}

type InterpretRequest struct {
	Mode          string        `json:"mode"`
	IncidentInput IncidentInput `json:"incident_input"`
}

type InterpretResponse struct {
	Incident    Incident            `json:"incident"`
	Notes       []string            `json:"notes"`
	Extractions map[string][]string `json:"extractions"`
}

type ModerationRequest struct {
	Text string `json:"text"`
}

type ModerationResult struct {
	Allowed  bool   `json:"allowed"`
	Reason   string `json:"reason"`
	Category string `json:"category"`
}

// LuckyRequest is the minimal instant-mode request.
type LuckyRequest struct {
	Summary  string   `json:"summary"`
	What     string   `json:"what"`
	Harm     string   `json:"harm"`
	Severity Severity `json:"severity,omitempty"`
}

type LuckyDraft struct {
	Useful    string `json:"useful"`
	Pointless string `json:"pointless"`
}

type LuckyRisk struct {
	PRRisk    float64 `json:"pr_risk"`
	Sincerity float64 `json:"sincerity"`
}

type LuckyResponse struct {
	Twitter       LuckyDraft `json:"twitter"`
	CustomerEmail LuckyDraft `json:"customer_email"`
	Risk          LuckyRisk  `json:"risk"`
	Watermark     string     `json:"watermark"`
}

// LuckyWatermark is stamped on every instant-mode response.
const LuckyWatermark = "Generated by oops.ninja"

// ErrorResponse is the JSON error envelope used by the service.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Detail  string   `json:"detail,omitempty"`
	Details []string `json:"details,omitempty"`
}
