package guardrails

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorrymonster/pkg/models"
)

func TestDefaultCatalogueLoads(t *testing.T) {
	c := DefaultCatalogue()
	assert.NotEmpty(t, c.Redlines["evasion"])
	assert.NotEmpty(t, c.Redlines["spin"])
	assert.NotEmpty(t, c.NonApology)
	assert.NotEmpty(t, c.Ownership)
}

func TestLoadCatalogueErrors(t *testing.T) {
	_, err := LoadCatalogue([]byte("redlines: [unclosed"))
	assert.Error(t, err)

	_, err = LoadCatalogue([]byte("ownership: [we failed]"))
	assert.Error(t, err)
}

func TestLoadCatalogueNormalizes(t *testing.T) {
	c, err := LoadCatalogue([]byte("redlines:\n  spin:\n    - '  Synergy '\n    - ''\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"synergy"}, c.Redlines["spin"])
}

func TestDetectRedlinesOrderAndCase(t *testing.T) {
	g := New(nil)
	text := "We take this VERY seriously. Mistakes were made, but it was beyond our control."
	assert.Equal(t, []string{"we take this very seriously", "mistakes were made", "beyond our control"}, g.DetectRedlines(text))
	assert.Empty(t, g.DetectRedlines("We broke it. We fixed it."))
}

func TestIsNonApology(t *testing.T) {
	g := New(nil)
	assert.True(t, g.IsNonApology("We regret any inconvenience this may have caused."))
	assert.False(t, g.IsNonApology("We failed you and we regret any inconvenience."))
	assert.False(t, g.IsNonApology("We caused a two hour outage. We are sorry."))
}

func TestApplyMergesRedlines(t *testing.T) {
	g := New(nil)
	res := &models.GenerationResult{
		Drafts: map[string]models.ChannelDraft{
			"twitter": {
				Useful:    "We take this very seriously and are fixing it.",
				Pointless: "lol",
				Redlines:  []string{"fixing it", "We take this very seriously"},
			},
		},
	}
	g.Apply(res, 30)
	assert.Equal(t, []string{"fixing it", "We take this very seriously"}, res.Drafts["twitter"].Redlines)
}

func TestApplyForcesNonApologyAtHighContrition(t *testing.T) {
	g := New(nil)
	draft := models.ChannelDraft{Useful: "We regret any inconvenience.", Pointless: "oops"}

	low := &models.GenerationResult{Drafts: map[string]models.ChannelDraft{"linkedin": draft}}
	g.Apply(low, 59)
	assert.False(t, low.Detectors.NonApology)

	high := &models.GenerationResult{Drafts: map[string]models.ChannelDraft{"linkedin": draft}}
	added := g.Apply(high, 60)
	assert.True(t, high.Detectors.NonApology)
	assert.Len(t, added, 1)
	assert.Contains(t, high.Adjustments, added[0])
}

func TestApplyFlagsLongTweet(t *testing.T) {
	g := New(nil)
	res := &models.GenerationResult{
		Adjustments: []string{"Set memes to 0 for high severity incident"},
		Drafts: map[string]models.ChannelDraft{
			"twitter":        {Useful: strings.Repeat("é", 281)},
			"customer_email": {Useful: strings.Repeat("a", 500)},
		},
	}
	g.Apply(res, 0)
	require.Len(t, res.Adjustments, 2)
	assert.Equal(t, "Set memes to 0 for high severity incident", res.Adjustments[0])
	assert.Contains(t, res.Adjustments[1], "281 characters")

	ok := &models.GenerationResult{Drafts: map[string]models.ChannelDraft{"twitter": {Useful: strings.Repeat("é", 280)}}}
	g.Apply(ok, 0)
	assert.Empty(t, ok.Adjustments)
	assert.NotNil(t, ok.Adjustments)
}

func TestClampMetrics(t *testing.T) {
	m := ClampMetrics(models.Metrics{PRRisk: 1.4, LegalRisk: -0.2, EthicsScore: 0.5, ClarityScore: 1, SincerityScore: 0})
	assert.Equal(t, models.Metrics{PRRisk: 1, LegalRisk: 0, EthicsScore: 0.5, ClarityScore: 1, SincerityScore: 0}, m)
}

func TestMergeUnique(t *testing.T) {
	assert.Equal(t, []string{"a", "B", "c"}, MergeUnique([]string{"a", "B", " "}, []string{"b", "c", "A"}))
	assert.NotNil(t, MergeUnique(nil, nil))
}
