// Package report renders service responses for the terminal, for scripts
// and for pasting into documents.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sorrymonster/pkg/models"
)

type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat accepts the --output values; empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatMarkdown, FormatHTML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text|json|markdown|html)", s)
	}
}

var (
	heading = color.New(color.Bold, color.FgCyan)
	warn    = color.New(color.Bold, color.FgRed)
	subtle  = color.New(color.FgHiBlack)
	good    = color.New(color.FgGreen)

	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
)

// Percent is a [0,1] score as a whole percentage.
func Percent(v float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(v*100)))
}

func title(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}

// orderedChannels lists draft keys in canonical channel order, unknown
// keys last and alphabetically.
func orderedChannels(drafts map[string]models.ChannelDraft) []string {
	names := make([]string, 0, len(drafts))
	for name := range drafts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := models.ChannelRank(names[i]), models.ChannelRank(names[j])
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})
	return names
}

type metricRow struct {
	label string
	value float64
}

func metricRows(m models.Metrics) []metricRow {
	return []metricRow{
		{"PR Risk", m.PRRisk},
		{"Legal Risk", m.LegalRisk},
		{"Ethics", m.EthicsScore},
		{"Clarity", m.ClarityScore},
		{"Sincerity", m.SincerityScore},
	}
}

// WriteGeneration renders a full generation result.
func WriteGeneration(w io.Writer, format Format, res *models.GenerationResult) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, res)
	case FormatMarkdown:
		_, err := io.WriteString(w, generationMarkdown(res))
		return err
	case FormatHTML:
		return writeHTML(w, generationMarkdown(res))
	default:
		writeGenerationText(w, res)
		return nil
	}
}

func writeGenerationText(w io.Writer, res *models.GenerationResult) {
	heading.Fprintln(w, "Metrics")
	for _, row := range metricRows(res.Metrics) {
		fmt.Fprintf(w, "  %-10s %5s\n", row.label, Percent(row.value))
	}

	if res.Detectors.NonApology {
		fmt.Fprintln(w)
		warn.Fprintln(w, "Non-apology detected: these drafts avoid taking responsibility.")
	}
	if flag := res.Detectors.ScapegoatFlag; flag != "" && flag != "none" {
		subtle.Fprintf(w, "  scapegoat: %s\n", flag)
	}

	if len(res.Adjustments) > 0 {
		fmt.Fprintln(w)
		heading.Fprintln(w, "Adjustments")
		for _, a := range res.Adjustments {
			fmt.Fprintf(w, "  - %s\n", a)
		}
	}

	for _, name := range orderedChannels(res.Drafts) {
		d := res.Drafts[name]
		fmt.Fprintln(w)
		heading.Fprintln(w, title(name))
		good.Fprintln(w, "  Useful")
		fmt.Fprintf(w, "    %s\n", indent(d.Useful))
		subtle.Fprintln(w, "  Pointless")
		fmt.Fprintf(w, "    %s\n", indent(d.Pointless))
		if len(d.Redlines) > 0 {
			warn.Fprintln(w, "  Redlines")
			for _, r := range d.Redlines {
				fmt.Fprintf(w, "    - %s\n", r)
			}
		}
	}
}

func generationMarkdown(res *models.GenerationResult) string {
	var b strings.Builder
	b.WriteString("## Metrics\n\n| Metric | Value |\n| --- | --- |\n")
	for _, row := range metricRows(res.Metrics) {
		fmt.Fprintf(&b, "| %s | %s |\n", row.label, Percent(row.value))
	}

	if res.Detectors.NonApology {
		b.WriteString("\n> **Non-apology detected:** these drafts avoid taking responsibility.\n")
	}

	if len(res.Adjustments) > 0 {
		b.WriteString("\n## Adjustments\n\n")
		for _, a := range res.Adjustments {
			fmt.Fprintf(&b, "- %s\n", a)
		}
	}

	for _, name := range orderedChannels(res.Drafts) {
		d := res.Drafts[name]
		fmt.Fprintf(&b, "\n## %s\n\n### Useful\n\n%s\n\n### Pointless\n\n%s\n", title(name), d.Useful, d.Pointless)
		if len(d.Redlines) > 0 {
			b.WriteString("\n### Redlines\n\n")
			for _, r := range d.Redlines {
				fmt.Fprintf(&b, "- %s\n", r)
			}
		}
	}
	return b.String()
}

// WriteLucky renders the instant-mode answer.
func WriteLucky(w io.Writer, format Format, res *models.LuckyResponse) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, res)
	case FormatMarkdown:
		_, err := io.WriteString(w, luckyMarkdown(res))
		return err
	case FormatHTML:
		return writeHTML(w, luckyMarkdown(res))
	}

	fmt.Fprintf(w, "PR Risk %s, Sincerity %s\n", Percent(res.Risk.PRRisk), Percent(res.Risk.Sincerity))
	for _, d := range []struct {
		name  string
		draft models.LuckyDraft
	}{{"Twitter", res.Twitter}, {"Customer Email", res.CustomerEmail}} {
		fmt.Fprintln(w)
		heading.Fprintln(w, d.name)
		good.Fprintln(w, "  Useful")
		fmt.Fprintf(w, "    %s\n", indent(d.draft.Useful))
		subtle.Fprintln(w, "  Pointless")
		fmt.Fprintf(w, "    %s\n", indent(d.draft.Pointless))
	}
	fmt.Fprintln(w)
	subtle.Fprintln(w, res.Watermark)
	return nil
}

func luckyMarkdown(res *models.LuckyResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**PR Risk:** %s | **Sincerity:** %s\n", Percent(res.Risk.PRRisk), Percent(res.Risk.Sincerity))
	fmt.Fprintf(&b, "\n## Twitter\n\n%s\n\n*Pointless:* %s\n", res.Twitter.Useful, res.Twitter.Pointless)
	fmt.Fprintf(&b, "\n## Customer Email\n\n%s\n\n*Pointless:* %s\n", res.CustomerEmail.Useful, res.CustomerEmail.Pointless)
	fmt.Fprintf(&b, "\n---\n\n_%s_\n", res.Watermark)
	return b.String()
}

// WriteModeration renders a moderation verdict. Markdown and HTML fall back
// to text since a verdict is one line.
func WriteModeration(w io.Writer, format Format, res *models.ModerationResult) error {
	if format == FormatJSON {
		return writeJSON(w, res)
	}
	if res.Allowed {
		good.Fprint(w, "allowed")
	} else {
		warn.Fprint(w, "blocked")
	}
	fmt.Fprintf(w, " [%s] %s\n", res.Category, res.Reason)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeHTML(w io.Writer, md string) error {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func indent(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", "\n    ")
}
