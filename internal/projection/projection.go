// Package projection turns gateway timestamps into epoch milliseconds and
// projects them forward on the local display clock.
package projection

import (
	"strings"
	"time"

	"discoverydash/internal/models"
)

// Layout is the gateway timestamp format, also used for display.
const Layout = "2006-01-02 15:04:05.000"

var parseLayouts = []string{
	Layout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
}

// ParseObserved converts a gateway timestamp into epoch milliseconds.
// The "N/A" sentinel and unparseable values yield nil. Zone-less values are
// read in the local time zone.
func ParseObserved(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == models.NotAvailable {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return models.Int64(t.UnixMilli())
	}
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return models.Int64(t.UnixMilli())
		}
	}
	return nil
}

// Project returns the observed time advanced by the time elapsed since the
// record was fetched, formatted with Layout. It returns "N/A" when either
// input is missing.
func Project(observedAtMS, fetchedAtMS *int64, nowMS int64) string {
	if observedAtMS == nil || fetchedAtMS == nil {
		return models.NotAvailable
	}
	offset := nowMS - *fetchedAtMS
	return Format(*observedAtMS + offset)
}

// Format renders epoch milliseconds with Layout in local time.
func Format(epochMS int64) string {
	return time.UnixMilli(epochMS).Format(Layout)
}
