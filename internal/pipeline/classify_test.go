package pipeline

import (
	"testing"
	"time"

	"github.com/couchcryptid/asset-rating-service/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func newTestRater() *domain.Rater {
	return domain.NewRater(clockwork.NewFakeClockAt(time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)))
}

func TestClassifyRow(t *testing.T) {
	rater := newTestRater()

	tests := []struct {
		name   string
		cols   assetColumns
		rating string
		reason string
	}{
		{
			name:   "unknown type",
			cols:   assetColumns{AssetType: "bridge", InstalledDate: "2000-01-01"},
			rating: "Invalid Asset Type",
			reason: reasonInvalidAssetType,
		},
		{
			name:   "missing type",
			cols:   assetColumns{InstalledDate: "2000-01-01"},
			rating: "Invalid Asset Type",
			reason: reasonInvalidAssetType,
		},
		{
			name:   "sign without maintenance date",
			cols:   assetColumns{AssetType: "Traffic Sign", InstalledDate: "2000-01-01", LastMaintainedDate: "  "},
			rating: "No maintenance data",
			reason: reasonNoMaintenance,
		},
		{
			name:   "maintenance check precedes validation",
			cols:   assetColumns{AssetType: "traffic signal", InstalledDate: "garbage"},
			rating: "No maintenance data",
			reason: reasonNoMaintenance,
		},
		{
			name:   "building blank fci",
			cols:   assetColumns{AssetType: "highway building", InstalledDate: "2000-01-01"},
			rating: "Missing FCI Index",
			reason: reasonMissingFCI,
		},
		{
			name:   "building non-numeric fci",
			cols:   assetColumns{AssetType: "highway building", InstalledDate: "2000-01-01", FCIIndex: "n/a"},
			rating: "Missing FCI Index",
			reason: reasonMissingFCI,
		},
		{
			name:   "building ignores maintenance date",
			cols:   assetColumns{AssetType: "highway building", InstalledDate: "2005-01-01", FCIIndex: "3"},
			rating: "Good",
		},
		{
			name:   "marking rr checked before maintenance",
			cols:   assetColumns{AssetType: "pavement marking", InstalledDate: "2022-01-01"},
			rating: "Missing RR Index",
			reason: reasonMissingRR,
		},
		{
			name:   "marking without maintenance date",
			cols:   assetColumns{AssetType: "pavement marking", InstalledDate: "2022-01-01", RRIndex: "120"},
			rating: "No maintenance data",
			reason: reasonNoMaintenance,
		},
		{
			name:   "marking negative rr",
			cols:   assetColumns{AssetType: "pavement marking", InstalledDate: "2022-01-01", LastMaintainedDate: "2024-01-01", RRIndex: "-1"},
			rating: "Validation Error: rrIndex must be a positive number",
			reason: reasonValidation,
		},
		{
			name:   "bad installed date",
			cols:   assetColumns{AssetType: "roadway illumination", InstalledDate: "someday", LastMaintainedDate: "2024-01-01"},
			rating: "Validation Error: installedDate must be a valid date string (YYYY-MM-DD)",
			reason: reasonValidation,
		},
		{
			name:   "bad maintenance date",
			cols:   assetColumns{AssetType: "traffic sign", InstalledDate: "2000-01-01", LastMaintainedDate: "last spring"},
			rating: "Validation Error: lastMaintainedDate must be a valid date string (YYYY-MM-DD)",
			reason: reasonValidation,
		},
		{
			name:   "illumination rated",
			cols:   assetColumns{AssetType: "roadway illumination", InstalledDate: "1980-03-01", LastMaintainedDate: "2010-01-01"},
			rating: "Poor",
		},
		{
			name:   "marking rated",
			cols:   assetColumns{AssetType: "pavement marking", InstalledDate: "2018-03-01", LastMaintainedDate: "2025-01-01", RRIndex: " 120 "},
			rating: "Good",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := classifyRow(rater, tt.cols)
			assert.Equal(t, tt.rating, out.rating)
			assert.Equal(t, tt.reason, out.reason)
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"", nil},
		{"   ", nil},
		{"abc", nil},
		{"NaN", nil},
		{"Inf", nil},
		{"12abc", nil},
		{"5", ptr(5)},
		{" 7.5 ", ptr(7.5)},
		{"-1", ptr(-1)},
	}
	for _, tt := range tests {
		got := parseNumber(tt.in)
		if tt.want == nil {
			assert.Nil(t, got, "input %q", tt.in)
			continue
		}
		if assert.NotNil(t, got, "input %q", tt.in) {
			assert.InDelta(t, *tt.want, *got, 1e-9)
		}
	}
}

func ptr(v float64) *float64 { return &v }
