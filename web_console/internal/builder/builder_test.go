package builder

import (
	"encoding/json"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorrymonster/pkg/models"
)

func completeForm() Form {
	f := DefaultForm()
	f.Summary = "Outage"
	f.What = "DB went down"
	f.Harm = "2h downtime"
	return f
}

func TestBuildEmitsEverySliderValueUnchanged(t *testing.T) {
	for v := 0; v <= 100; v++ {
		f := completeForm()
		f.Contrition, f.LegalHedging, f.Memes = v, v, v

		req := Build(f)
		assert.Equal(t, v, req.Sliders.Contrition)
		assert.Equal(t, v, req.Sliders.LegalHedging)
		assert.Equal(t, v, req.Sliders.Memes)
	}
}

func TestParseFormKeepsBandBoundaries(t *testing.T) {
	for _, v := range []int{0, 10, 11, 20, 21, 40, 41, 59, 60, 70, 71, 100} {
		s := strconv.Itoa(v)
		f := ParseForm(url.Values{"contrition": {s}, "legal_hedging": {s}, "memes": {s}})
		req := Build(f)
		assert.Equal(t, v, req.Sliders.Contrition, "contrition %d", v)
		assert.Equal(t, v, req.Sliders.LegalHedging, "legal_hedging %d", v)
		assert.Equal(t, v, req.Sliders.Memes, "memes %d", v)
	}
}

func TestParseFormClampsAndFallsBack(t *testing.T) {
	f := ParseForm(url.Values{
		"contrition":    {"250"},
		"legal_hedging": {"-4"},
		"memes":         {"lots"},
		"severity":      {"apocalyptic"},
		"tone":          {"smug"},
	})
	assert.Equal(t, 100, f.Contrition)
	assert.Equal(t, 0, f.LegalHedging)
	assert.Equal(t, 0, f.Memes)
	assert.Equal(t, models.SeverityMedium, f.Severity)
	assert.Equal(t, models.ToneEarnest, f.Tone)
}

func TestParseFormChannels(t *testing.T) {
	f := ParseForm(url.Values{"channels": {"linkedin", "fax", "linkedin", "status_page"}})
	assert.Equal(t, []models.Channel{models.ChannelLinkedIn, models.ChannelStatusPage}, f.Channels)

	f = ParseForm(url.Values{"summary": {"x"}})
	assert.Empty(t, f.Channels, "unchecked boxes mean no channels")
}

func TestMissing(t *testing.T) {
	assert.Empty(t, completeForm().Missing())

	f := completeForm()
	f.Summary = ""
	f.Channels = nil
	assert.Equal(t, []string{"summary", "channels"}, f.Missing())

	assert.Equal(t, []string{"summary", "what", "harm", "channels"}, ParseForm(url.Values{}).Missing())
}

func TestBuildDefaults(t *testing.T) {
	f := completeForm()
	f.Who = "partners"
	f.Evidence = " rollback done , , refund job queued "

	req := Build(f)

	assert.Equal(t, models.ModeGenerate, req.Mode)
	assert.Equal(t, []string{"partners"}, req.Incident.Who)
	assert.Equal(t, []string{"partners"}, req.Incident.Stakeholders)
	assert.Equal(t, []string{"rollback done", "refund job queued"}, req.Incident.Evidence)
	assert.Equal(t, []string{}, req.Incident.Jurisdictions)
	assert.Equal(t, models.DefaultStrategy(), req.Strategy)
	assert.Equal(t, "en-US", req.Locale)
	assert.Equal(t, []models.Channel{models.ChannelTwitter}, req.Channels)

	raw, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"evidence":["rollback done","refund job queued"]`)
	assert.Contains(t, string(raw), `"jurisdictions":[]`)
	assert.Contains(t, string(raw), `"scapegoat":{"type":null,"intensity":0}`)
}

func TestBuildEmptyEvidence(t *testing.T) {
	raw, err := json.Marshal(Build(completeForm()))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"evidence":[]`)
}
