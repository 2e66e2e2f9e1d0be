package core

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical calendar-day layout used by the API.
const DateLayout = "2006-01-02"

// Layouts without a zone are interpreted in local time.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	DateLayout,
}

// ParseDate parses an ISO-8601 date or date-time. Values carrying an offset
// are converted to local time so calendar bucketing happens in one zone.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(time.Local), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// FormatDate renders t as the canonical stored form (local RFC3339 with milliseconds).
func FormatDate(t time.Time) string {
	return t.In(time.Local).Format("2006-01-02T15:04:05.000Z07:00")
}
