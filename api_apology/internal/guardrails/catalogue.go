package guardrails

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed phrases.yaml
var defaultPhrases []byte

// Catalogue is the phrase list the guardrails scan drafts against.
type Catalogue struct {
	Redlines   map[string][]string `yaml:"redlines"`
	NonApology []string            `yaml:"non_apology"`
	Ownership  []string            `yaml:"ownership"`
}

// LoadCatalogue parses a YAML phrase catalogue.
func LoadCatalogue(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse phrase catalogue: %w", err)
	}
	if len(c.Redlines) == 0 {
		return nil, fmt.Errorf("phrase catalogue has no redlines")
	}
	c.normalize()
	return &c, nil
}

// DefaultCatalogue returns the embedded catalogue.
func DefaultCatalogue() *Catalogue {
	c, err := LoadCatalogue(defaultPhrases)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalogue) normalize() {
	for cat, phrases := range c.Redlines {
		c.Redlines[cat] = lowerAll(phrases)
	}
	c.NonApology = lowerAll(c.NonApology)
	c.Ownership = lowerAll(c.Ownership)
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// redlinePhrases flattens the categories in a stable order.
func (c *Catalogue) redlinePhrases() []string {
	cats := make([]string, 0, len(c.Redlines))
	for cat := range c.Redlines {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	var out []string
	for _, cat := range cats {
		out = append(out, c.Redlines[cat]...)
	}
	return out
}
