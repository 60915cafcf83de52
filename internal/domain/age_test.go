package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"iso date", "2020-03-04", time.Date(2020, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"slashes year first", "2020/03/04", time.Date(2020, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"us format", "03/04/2020", time.Date(2020, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"datetime without zone", "2020-03-04T10:30:00", time.Date(2020, 3, 4, 10, 30, 0, 0, time.UTC)},
		{"rfc3339", "2020-03-04T10:30:00Z", time.Date(2020, 3, 4, 10, 30, 0, 0, time.UTC)},
		{"surrounding space", "  2020-03-04 ", time.Date(2020, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"us format without padding", "3/5/2020", time.Date(2020, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"iso without padding", "2020-3-5", time.Date(2020, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"datetime with space", "2020-03-05 10:00:00", time.Date(2020, 3, 5, 10, 0, 0, 0, time.UTC)},
		{"rfc3339 with offset", "2020-03-05T01:00:00+02:00", time.Date(2020, 3, 4, 23, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, s := range []string{"", "   ", "not a date", "2020-13-01", "2020-02-30", "13/45/2020"} {
		_, err := ParseDate(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestAssetAge_CalendarYearSubtraction(t *testing.T) {
	for _, now := range []time.Time{
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.December, 31, 23, 0, 0, 0, time.UTC),
	} {
		age, err := AssetAge("2000-01-01", now)
		require.NoError(t, err)
		assert.Equal(t, 25, age)

		age, err = AssetAge("2000-12-31", now)
		require.NoError(t, err)
		assert.Equal(t, 25, age)
	}
}

func TestAssetAge_FutureDateIsNegative(t *testing.T) {
	age, err := AssetAge("2030-05-01", testNow)
	require.NoError(t, err)
	assert.Equal(t, -5, age)
}

func TestAssetAge_InvalidDate(t *testing.T) {
	_, err := AssetAge("yesterday", testNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "asset age")
}

func TestWasRecentlyMaintained(t *testing.T) {
	day := func(n int) string { return testNow.AddDate(0, 0, -n).Format("2006-01-02") }

	tests := []struct {
		name string
		date string
		want bool
	}{
		{"today", day(0), true},
		{"one year ago", day(365), true},
		{"exactly 540 days", day(540), true},
		{"541 days", day(541), false},
		{"ten years ago", day(3650), false},
		{"future date", testNow.AddDate(0, 1, 0).Format("2006-01-02"), true},
		{"unparsable", "soon", false},
		{"blank", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WasRecentlyMaintained(tt.date, testNow))
		})
	}
}
