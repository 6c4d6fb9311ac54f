// Package render turns a GenerationResult into display-ready values.
package render

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sorrymonster/pkg/models"
)

type Metric struct {
	Label string
	Value string
	Class string
}

type DraftCard struct {
	Channel   string
	Title     string
	Useful    string
	Pointless string
	Redlines  []string
}

type View struct {
	Metrics        []Metric
	ShowNonApology bool
	Adjustments    []string
	Cards          []DraftCard
}

var titleCaser = cases.Title(language.English)

// Percent renders a [0,1] score as a whole percentage, e.g. 0.4 -> "40%".
func Percent(v float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(v*100)))
}

// Title turns a channel name into a card heading: "press_release" -> "Press Release".
func Title(channel string) string {
	return titleCaser.String(strings.ReplaceAll(channel, "_", " "))
}

func NewView(res *models.GenerationResult) View {
	if res == nil {
		return View{}
	}

	m := res.Metrics
	v := View{
		Metrics: []Metric{
			{Label: "PR Risk", Value: Percent(m.PRRisk), Class: "risk"},
			{Label: "Legal Risk", Value: Percent(m.LegalRisk), Class: "legal"},
			{Label: "Ethics Score", Value: Percent(m.EthicsScore), Class: "ethics"},
			{Label: "Clarity", Value: Percent(m.ClarityScore), Class: "clarity"},
			{Label: "Sincerity", Value: Percent(m.SincerityScore), Class: "sincerity"},
		},
		ShowNonApology: res.Detectors.NonApology,
		Adjustments:    append([]string(nil), res.Adjustments...),
	}

	for _, ch := range orderedChannels(res.Drafts) {
		d := res.Drafts[ch]
		v.Cards = append(v.Cards, DraftCard{
			Channel:   ch,
			Title:     Title(ch),
			Useful:    d.Useful,
			Pointless: d.Pointless,
			Redlines:  append([]string(nil), d.Redlines...),
		})
	}
	return v
}

// orderedChannels sorts known channels canonically and anything else after
// them alphabetically.
func orderedChannels(drafts map[string]models.ChannelDraft) []string {
	out := make([]string, 0, len(drafts))
	for ch := range drafts {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := models.ChannelRank(out[i]), models.ChannelRank(out[j])
		if ri != rj {
			return ri < rj
		}
		return out[i] < out[j]
	})
	return out
}
