package models

// Band is the semantic range a slider value falls in.
type Band string

const (
	ContritionNeutral  Band = "neutral"
	ContritionPartial  Band = "partial ownership"
	ContritionExplicit Band = "explicit responsibility"

	LegalPlain      Band = "plain"
	LegalQualifiers Band = "qualifiers"
	LegalSafeHarbor Band = "safe-harbor language"

	MemesNone     Band = "none"
	MemesSubtle   Band = "subtle"
	MemesTasteful Band = "tasteful"
	MemesOvert    Band = "overt"
)

// ContritionBand: 0-20 neutral, 21-59 partial, 60-100 explicit.
func ContritionBand(v int) Band {
	switch {
	case v <= 20:
		return ContritionNeutral
	case v <= 59:
		return ContritionPartial
	default:
		return ContritionExplicit
	}
}

// LegalHedgingBand: 0-20 plain, 21-59 qualifiers, 60-100 safe-harbor.
func LegalHedgingBand(v int) Band {
	switch {
	case v <= 20:
		return LegalPlain
	case v <= 59:
		return LegalQualifiers
	default:
		return LegalSafeHarbor
	}
}

// MemesBand: 0-10 none, 11-40 subtle, 41-70 tasteful, 71-100 overt.
func MemesBand(v int) Band {
	switch {
	case v <= 10:
		return MemesNone
	case v <= 40:
		return MemesSubtle
	case v <= 70:
		return MemesTasteful
	default:
		return MemesOvert
	}
}

const (
	SliderMin = 0
	SliderMax = 100
)

// ClampSlider limits v to [0,100].
func ClampSlider(v int) int {
	if v < SliderMin {
		return SliderMin
	}
	if v > SliderMax {
		return SliderMax
	}
	return v
}

// InSliderRange reports whether v is already a legal slider value.
func InSliderRange(v int) bool {
	return v >= SliderMin && v <= SliderMax
}

// ClampUnit limits v to [0,1].
func ClampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
