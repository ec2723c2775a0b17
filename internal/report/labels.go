package report

import (
	"fmt"
	"strings"

	"github.com/tagpilot/attribution-insights/internal/models"
)

// Breakdown selects the attribution dimension a report groups by.
type Breakdown string

const (
	BreakdownSourceMedium Breakdown = "source_medium"
	BreakdownSourceType   Breakdown = "source_type"
	BreakdownCampaign     Breakdown = "campaign"
	BreakdownDeviceType   Breakdown = "device_type"
	BreakdownReferrer     Breakdown = "referrer"
	BreakdownSource       Breakdown = "source"
	BreakdownMedium       Breakdown = "medium"
)

// ParseBreakdown validates a caller-supplied breakdown. The empty string
// selects the default source/medium composite.
func ParseBreakdown(s string) (Breakdown, error) {
	switch Breakdown(s) {
	case "":
		return BreakdownSourceMedium, nil
	case BreakdownSourceMedium, BreakdownSourceType, BreakdownCampaign,
		BreakdownDeviceType, BreakdownReferrer, BreakdownSource, BreakdownMedium:
		return Breakdown(s), nil
	}
	return "", fmt.Errorf("unknown breakdown %q", s)
}

// Canonical labels for absent attribution values. Substitution happens
// before key construction so "", NULL and "(none)" collapse identically.
const (
	labelUnknown = "unknown"
	labelDirect  = "Direct"
	labelNone    = "(none)"
)

// channelLabels collapses medium synonyms into one canonical channel
// label. Data-driven so new synonyms are a row here, not a branch.
var channelLabels = map[string]string{
	"cpc":        "Paid Search",
	"ppc":        "Paid Search",
	"paid":       "Paid Search",
	"paidsearch": "Paid Search",
	"organic":    "Organic Search",
	"email":      "Email",
	"newsletter": "Email",
	"social":     "Social",
	"referral":   "Referral",
}

// normalize lowercases and trims a raw attribution value, mapping the
// various empty-field representations to the empty string.
func normalize(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "", "(none)", "none", "null", labelUnknown:
		return ""
	}
	return v
}

func orLabel(v, placeholder string) string {
	if v == "" {
		return placeholder
	}
	return v
}

// AttributionKey derives the grouping key for one record under the given
// breakdown. Two records with equal normalized attribution fields always
// map to the identical key.
func AttributionKey(rec models.OrderRecord, b Breakdown) string {
	switch b {
	case BreakdownSourceMedium:
		source := normalize(rec.Source)
		medium := normalize(rec.Medium)
		if source == "" && medium == "" {
			return labelDirect
		}
		if label, ok := channelLabels[medium]; ok {
			return label
		}
		return orLabel(source, labelUnknown) + " / " + orLabel(medium, labelUnknown)
	case BreakdownSourceType:
		return orLabel(normalize(rec.SourceType), labelUnknown)
	case BreakdownCampaign:
		return orLabel(normalize(rec.Campaign), labelNone)
	case BreakdownDeviceType:
		return orLabel(normalize(rec.DeviceType), labelUnknown)
	case BreakdownReferrer:
		return orLabel(normalize(rec.Referrer), labelDirect)
	case BreakdownSource:
		return orLabel(normalize(rec.Source), labelUnknown)
	case BreakdownMedium:
		medium := normalize(rec.Medium)
		if label, ok := channelLabels[medium]; ok {
			return label
		}
		return orLabel(medium, labelUnknown)
	}
	return labelUnknown
}
