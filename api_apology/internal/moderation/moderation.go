package moderation

import (
	"regexp"
	"strings"

	"sorrymonster/pkg/models"
)

const (
	CategorySafe            = "safe"
	CategoryPolicyViolation = "policy_violation"
)

// forbidden covers hate/violence/illegal requests, professional advice beyond
// boilerplate and attempts to profit from a tragedy.
var forbidden = []*regexp.Regexp{
	regexp.MustCompile(`\b(hate|violence|illegal|exploit)\b`),
	regexp.MustCompile(`\b(medical advice|financial advice)\b`),
	regexp.MustCompile(`\b(tragedy|disaster) (exploitation|profit)\b`),
}

// Check classifies text. Matching is case-insensitive.
func Check(text string) models.ModerationResult {
	lowered := strings.ToLower(text)
	for _, re := range forbidden {
		if re.MatchString(lowered) {
			return models.ModerationResult{
				Allowed:  false,
				Reason:   "Content violates moderation policy",
				Category: CategoryPolicyViolation,
			}
		}
	}
	return models.ModerationResult{
		Allowed:  true,
		Reason:   "Content passes moderation",
		Category: CategorySafe,
	}
}

// IncidentText joins the free-text incident fields so a generation request can
// be screened with Check before any model call.
func IncidentText(inc models.Incident) string {
	parts := []string{inc.Summary, inc.What, inc.Harm}
	parts = append(parts, inc.Evidence...)
	return strings.Join(parts, "\n")
}
