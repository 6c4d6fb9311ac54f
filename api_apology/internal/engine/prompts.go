package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"sorrymonster/pkg/models"
)

// Line prefixes of the per-channel user prompt.
const (
	promptChannel  = "CHANNEL: "
	promptIncident = "INCIDENT: "
	promptSliders  = "SLIDERS: "
	promptText     = "Text: "
	promptLinks    = "\nLinks: "
)

var channelRules = map[models.Channel]string{
	models.ChannelTwitter:       "at most 280 characters, crisp, include an ownership line if contrition >= 60",
	models.ChannelLinkedIn:      "2-5 sentences, professional, soft call to action",
	models.ChannelPressRelease:  "headline, lede, summary, bullets, quote, contact",
	models.ChannelCEOLetter:     "3-7 paragraphs, human, explicit responsibility if contrition >= 60",
	models.ChannelCustomerEmail: "greeting, what happened, restitution, support, sign-off, about 120-200 words",
	models.ChannelStatusPage:    "timeline, scope, root cause, remediation, next update",
}

// ChannelRule describes the format a channel's draft must follow.
func ChannelRule(ch models.Channel) string {
	if r, ok := channelRules[ch]; ok {
		return r
	}
	return "plain prose"
}

// GenerateSystemPrompt carries the fixed principles, slider mappings and
// channel rules shared by every per-channel call.
func GenerateSystemPrompt() string {
	var b strings.Builder
	b.WriteString(`You are the generation engine for Apology-as-a-Service.

Write two apology variants for one channel: useful (professional) and pointless (satirical).

PRINCIPLES:
- Never assert certainty without evidence.
- Always produce both the useful and the pointless variant.
- When contrition >= 60, never write "we regret any inconvenience" without ownership.
- Never scapegoat individuals or protected classes.
- Legal qualifiers must not contradict facts.

SLIDER MAPPINGS:
Contrition: 0-20 neutral/indirect; 21-59 partial ownership; 60-100 explicit "we caused/we failed" plus restitution.
Legal hedging: 0-20 plain language; 21-59 qualifiers ("to our knowledge", "pending investigation"); 60-100 safe-harbor language.
Memes: 0-10 none; 11-40 subtle idiom; 41-70 tasteful unhinged; 71-100 overt memes.

CHANNEL RULES:
`)
	for _, ch := range models.AllChannels() {
		fmt.Fprintf(&b, "- %s: %s\n", ch, ChannelRule(ch))
	}
	b.WriteString(`
Respond with a single JSON object:
{"draft":{"useful":"","pointless":"","attachments":[],"redlines":[]},
 "metrics":{"pr_risk":0,"legal_risk":0,"ethics_score":0,"clarity_score":0,"sincerity_score":0},
 "detectors":{"non_apology":false,"scapegoat_flag":"none","unverifiable_claims":[]},
 "adjustments":[],"rationales":[]}
Metrics are floats between 0 and 1. redlines lists evasive or spin phrases used in the useful draft.`)
	return b.String()
}

// ChannelUserPrompt renders one request for one channel. Structured fields are
// emitted as single-line JSON after a fixed prefix.
func ChannelUserPrompt(req *models.GenerationRequest, ch models.Channel) string {
	var b strings.Builder
	b.WriteString("Write apology drafts for this incident.\n\n")
	b.WriteString(promptChannel + string(ch) + "\n")
	fmt.Fprintf(&b, "CHANNEL RULE: %s\n", ChannelRule(ch))
	b.WriteString(promptIncident + mustJSON(req.Incident) + "\n")
	b.WriteString(promptSliders + mustJSON(req.Sliders) + "\n")
	fmt.Fprintf(&b, "BANDS: contrition=%s, legal_hedging=%s, memes=%s\n",
		models.ContritionBand(req.Sliders.Contrition),
		models.LegalHedgingBand(req.Sliders.LegalHedging),
		models.MemesBand(req.Sliders.Memes))
	b.WriteString("STRATEGY: " + mustJSON(req.Strategy) + "\n")
	fmt.Fprintf(&b, "TONE: %s\n", req.Tone)
	fmt.Fprintf(&b, "LOCALE: %s\n", req.Locale)
	if req.BrandProfile != nil {
		b.WriteString("BRAND PROFILE: " + mustJSON(req.BrandProfile) + "\n")
	}
	return b.String()
}

// InterpretSystemPrompt instructs the model to structure raw incident material.
func InterpretSystemPrompt() string {
	return `You are the interpretation engine for Apology-as-a-Service.

Parse messy incident input into a structured incident record.

RULES:
1. Never fabricate facts or evidence.
2. When evidence is missing, use "no evidence at this time" or "unknown".
3. Extract entities, times and numbers into the extractions field.
4. Assess severity (low, medium, high) from harm scope and stakeholder impact.
5. Identify relevant regulatory jurisdictions.

Respond with a single JSON object with fields: incident (summary, who, what, when, harm,
severity, evidence, stakeholders, jurisdictions), notes, extractions.`
}

// InterpretUserPrompt lists the raw text, links and files.
func InterpretUserPrompt(req *models.InterpretRequest) string {
	in := req.IncidentInput
	return fmt.Sprintf("Parse this incident input into a structured record:\n\n%s%s%s%s\nFiles: %s\n",
		promptText, strings.TrimSpace(in.Text), promptLinks, joinOrNone(in.Links), joinOrNone(in.Files))
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
