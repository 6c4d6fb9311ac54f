package guardrails

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"sorrymonster/pkg/models"
)

// TwitterMaxRunes is the hard length limit for a twitter draft.
const TwitterMaxRunes = 280

// Guard applies post-generation checks to a merged result.
type Guard struct {
	catalogue *Catalogue
}

func New(c *Catalogue) *Guard {
	if c == nil {
		c = DefaultCatalogue()
	}
	return &Guard{catalogue: c}
}

// DetectRedlines returns the catalogue phrases found in text, ordered by
// where they first appear.
func (g *Guard) DetectRedlines(text string) []string {
	lowered := strings.ToLower(text)

	type hit struct {
		phrase string
		at     int
	}
	var hits []hit
	for _, p := range g.catalogue.redlinePhrases() {
		if i := strings.Index(lowered, p); i >= 0 {
			hits = append(hits, hit{phrase: p, at: i})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].at < hits[j].at })

	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.phrase)
	}
	return out
}

// IsNonApology reports whether text apologizes without owning anything.
func (g *Guard) IsNonApology(text string) bool {
	lowered := strings.ToLower(text)
	for _, p := range g.catalogue.Ownership {
		if strings.Contains(lowered, p) {
			return false
		}
	}
	for _, p := range g.catalogue.NonApology {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}

// Apply runs every guardrail over res in place and returns the adjustments it
// added. contrition is the effective slider value after clamps.
func (g *Guard) Apply(res *models.GenerationResult, contrition int) []string {
	var added []string

	channels := make([]string, 0, len(res.Drafts))
	for ch := range res.Drafts {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool {
		ri, rj := models.ChannelRank(channels[i]), models.ChannelRank(channels[j])
		if ri != rj {
			return ri < rj
		}
		return channels[i] < channels[j]
	})

	nonApology := false
	for _, ch := range channels {
		draft := res.Drafts[ch]
		draft.Redlines = MergeUnique(draft.Redlines, g.DetectRedlines(draft.Useful))
		if draft.Redlines == nil {
			draft.Redlines = []string{}
		}
		res.Drafts[ch] = draft

		if g.IsNonApology(draft.Useful) {
			nonApology = true
		}
		if ch == string(models.ChannelTwitter) {
			if n := utf8.RuneCountInString(draft.Useful); n > TwitterMaxRunes {
				added = append(added, fmt.Sprintf("Twitter draft is %d characters, over the %d character limit", n, TwitterMaxRunes))
			}
		}
	}

	if contrition >= 60 && nonApology && !res.Detectors.NonApology {
		res.Detectors.NonApology = true
		added = append(added, "Flagged non-apology wording despite contrition >= 60")
	}

	res.Metrics = ClampMetrics(res.Metrics)
	res.Adjustments = MergeUnique(res.Adjustments, added)
	return added
}

// ClampMetrics limits every metric to [0,1].
func ClampMetrics(m models.Metrics) models.Metrics {
	return models.Metrics{
		PRRisk:         models.ClampUnit(m.PRRisk),
		LegalRisk:      models.ClampUnit(m.LegalRisk),
		EthicsScore:    models.ClampUnit(m.EthicsScore),
		ClarityScore:   models.ClampUnit(m.ClarityScore),
		SincerityScore: models.ClampUnit(m.SincerityScore),
	}
}

// MergeUnique appends extra to base, skipping case-insensitive duplicates and
// blank entries while keeping first-seen order.
func MergeUnique(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, s := range list {
			key := strings.ToLower(strings.TrimSpace(s))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, s)
		}
	}
	return out
}
