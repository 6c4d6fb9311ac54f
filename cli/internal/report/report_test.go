package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorrymonster/pkg/models"
)

func init() {
	color.NoColor = true
}

func sampleResult() *models.GenerationResult {
	return &models.GenerationResult{
		Metrics: models.Metrics{
			PRRisk: 0.304, LegalRisk: 0.2, EthicsScore: 0.8, ClarityScore: 0.855, SincerityScore: 0.7,
		},
		Detectors:   models.Detectors{NonApology: true, ScapegoatFlag: "vendor"},
		Adjustments: []string{"Capped memes at 15 for medium severity incident (was 40)"},
		Drafts: map[string]models.ChannelDraft{
			"zz_custom":     {Useful: "custom", Pointless: "p"},
			"status_page":   {Useful: "Status line", Pointless: "p", Redlines: []string{"no ETA"}},
			"twitter":       {Useful: "We're sorry <3", Pointless: "oops"},
			"press_release": {Useful: "Release", Pointless: "p"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "JSON": FormatJSON, "md": FormatMarkdown, "html": FormatHTML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "30%", Percent(0.304))
	assert.Equal(t, "86%", Percent(0.855))
	assert.Equal(t, "0%", Percent(0))
	assert.Equal(t, "100%", Percent(1))
}

func TestGenerationText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGeneration(&buf, FormatText, sampleResult()))
	out := buf.String()

	assert.Contains(t, out, "PR Risk      30%")
	assert.Contains(t, out, "Non-apology detected")
	assert.Contains(t, out, "scapegoat: vendor")
	assert.Contains(t, out, "- Capped memes at 15")
	assert.Contains(t, out, "- no ETA")

	tw := strings.Index(out, "Twitter")
	pr := strings.Index(out, "Press Release")
	sp := strings.Index(out, "Status Page")
	zz := strings.Index(out, "Zz Custom")
	require.True(t, tw >= 0 && pr >= 0 && sp >= 0 && zz >= 0)
	assert.True(t, tw < pr && pr < sp && sp < zz, "cards out of order:\n%s", out)
}

func TestGenerationJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGeneration(&buf, FormatJSON, sampleResult()))

	var back models.GenerationResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Len(t, back.Drafts, 4)
	assert.True(t, back.Detectors.NonApology)
}

func TestGenerationMarkdownAndHTML(t *testing.T) {
	var md bytes.Buffer
	require.NoError(t, WriteGeneration(&md, FormatMarkdown, sampleResult()))
	assert.Contains(t, md.String(), "| Clarity | 86% |")
	assert.Contains(t, md.String(), "## Press Release")

	var html bytes.Buffer
	require.NoError(t, WriteGeneration(&html, FormatHTML, sampleResult()))
	out := html.String()
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<h2>Twitter</h2>")
	assert.Contains(t, out, "We're sorry &lt;3")
	assert.Contains(t, out, "<blockquote>")
}

func TestLucky(t *testing.T) {
	res := &models.LuckyResponse{
		Twitter:       models.LuckyDraft{Useful: "tw useful", Pointless: "tw pointless"},
		CustomerEmail: models.LuckyDraft{Useful: "mail useful", Pointless: "mail pointless"},
		Risk:          models.LuckyRisk{PRRisk: 0.25, Sincerity: 0.65},
		Watermark:     models.LuckyWatermark,
	}

	var text bytes.Buffer
	require.NoError(t, WriteLucky(&text, FormatText, res))
	assert.Contains(t, text.String(), "PR Risk 25%, Sincerity 65%")
	assert.Contains(t, text.String(), "mail useful")
	assert.True(t, strings.HasSuffix(text.String(), models.LuckyWatermark+"\n"))

	var html bytes.Buffer
	require.NoError(t, WriteLucky(&html, FormatHTML, res))
	assert.Contains(t, html.String(), "<h2>Customer Email</h2>")
	assert.Contains(t, html.String(), "<em>Generated by oops.ninja</em>")
}

func TestModeration(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteModeration(&buf, FormatText, &models.ModerationResult{
		Allowed: false, Reason: "Cannot assist with illegal activities", Category: "illegal",
	}))
	assert.Equal(t, "blocked [illegal] Cannot assist with illegal activities\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteModeration(&buf, FormatJSON, &models.ModerationResult{Allowed: true, Category: "safe"}))
	assert.Contains(t, buf.String(), `"allowed": true`)
}
