package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagpilot/attribution-insights/internal/models"
)

func TestParseBreakdown(t *testing.T) {
	b, err := ParseBreakdown("")
	require.NoError(t, err)
	assert.Equal(t, BreakdownSourceMedium, b)

	b, err = ParseBreakdown("device_type")
	require.NoError(t, err)
	assert.Equal(t, BreakdownDeviceType, b)

	_, err = ParseBreakdown("utm_term")
	assert.Error(t, err)
}

func TestAttributionKeySourceMedium(t *testing.T) {
	cases := []struct {
		name   string
		source string
		medium string
		want   string
	}{
		{"paid search synonym", "google", "cpc", "Paid Search"},
		{"paid search case and space", " Google ", " CPC ", "Paid Search"},
		{"organic", "google", "organic", "Organic Search"},
		{"plain composite", "partner-site", "banner", "partner-site / banner"},
		{"both absent", "", "", "Direct"},
		{"none markers", "(none)", "null", "Direct"},
		{"explicit unknown", "unknown", "unknown", "Direct"},
		{"source only", "newsletter-feb", "", "newsletter-feb / unknown"},
		{"medium only", "", "banner", "unknown / banner"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := models.OrderRecord{Source: tc.source, Medium: tc.medium}
			assert.Equal(t, tc.want, AttributionKey(rec, BreakdownSourceMedium))
		})
	}
}

func TestAttributionKeySingleDimensions(t *testing.T) {
	rec := models.OrderRecord{
		SourceType: "UTM",
		Source:     "Google",
		Medium:     "ppc",
		Campaign:   "  Spring-Sale ",
		DeviceType: "Mobile",
		Referrer:   "https://news.example.com",
	}

	assert.Equal(t, "utm", AttributionKey(rec, BreakdownSourceType))
	assert.Equal(t, "google", AttributionKey(rec, BreakdownSource))
	assert.Equal(t, "Paid Search", AttributionKey(rec, BreakdownMedium))
	assert.Equal(t, "spring-sale", AttributionKey(rec, BreakdownCampaign))
	assert.Equal(t, "mobile", AttributionKey(rec, BreakdownDeviceType))
	assert.Equal(t, "https://news.example.com", AttributionKey(rec, BreakdownReferrer))
}

func TestAttributionKeyPlaceholders(t *testing.T) {
	empty := models.OrderRecord{}

	assert.Equal(t, "unknown", AttributionKey(empty, BreakdownSourceType))
	assert.Equal(t, "unknown", AttributionKey(empty, BreakdownSource))
	assert.Equal(t, "unknown", AttributionKey(empty, BreakdownMedium))
	assert.Equal(t, "(none)", AttributionKey(empty, BreakdownCampaign))
	assert.Equal(t, "unknown", AttributionKey(empty, BreakdownDeviceType))
	assert.Equal(t, "Direct", AttributionKey(empty, BreakdownReferrer))
}
