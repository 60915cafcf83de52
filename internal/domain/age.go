package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// RecencyWindow is how far back a maintenance date may lie and still count as recent.
const RecencyWindow = 540 * 24 * time.Hour

// ParseDate parses s leniently: ISO dates with or without zero padding,
// month-first slash dates, datetimes with a "T" or a space, RFC3339 and the
// other forms dateparse recognizes. Dates without an explicit zone are
// interpreted as UTC.
func ParseDate(s string) (t time.Time, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("parse date: empty value")
	}

	// dateparse can panic on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			t, err = time.Time{}, fmt.Errorf("parse date %q: unrecognized format", s)
		}
	}()

	t, err = dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// AssetAge returns now's year minus the installation year. The result may be
// negative for future installation dates.
func AssetAge(installedDate string, now time.Time) (int, error) {
	installed, err := ParseDate(installedDate)
	if err != nil {
		return 0, fmt.Errorf("asset age: %w", err)
	}
	return now.UTC().Year() - installed.UTC().Year(), nil
}

// WasRecentlyMaintained reports whether lastMaintainedDate is at most
// RecencyWindow before now. Unparsable dates are never recent.
func WasRecentlyMaintained(lastMaintainedDate string, now time.Time) bool {
	maintained, err := ParseDate(lastMaintainedDate)
	if err != nil {
		return false
	}
	return now.Sub(maintained) <= RecencyWindow
}
