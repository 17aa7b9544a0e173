package event

import (
	"fmt"
	"strings"
	"time"
)

// StartLayout is the timezone-naive layout start times are stored in
const StartLayout = "2006-01-02T15:04:05"

// offsetLayouts carry a zone offset; RFC3339Nano covers fractional seconds
// and the last form is what Songkick sends
var offsetLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
}

// naiveLayouts are tried in order for timestamps without an offset
var naiveLayouts = []string{
	StartLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// NormalizeStart parses an upstream start timestamp and returns it in
// StartLayout. Timestamps carrying an offset are converted into loc first;
// naive timestamps are taken as already local.
func NormalizeStart(s string, loc *time.Location) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("missing start time")
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc).Format(StartLayout), nil
		}
	}

	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.Format(StartLayout), nil
		}
	}

	return "", fmt.Errorf("unparseable start time %q", s)
}

// DateKey returns the YYYY-MM-DD prefix of a start time, or the trimmed
// input when it is too short to carry one.
func DateKey(start string) string {
	start = strings.TrimSpace(start)
	if len(start) >= 10 {
		return start[:10]
	}
	return start
}

// Clock returns the hour and minute in 24h form for an "h:mm am" style time.
// ok is false when the period is not AM or PM or the values are out of range.
func Clock(hour, minute int, period string) (int, int, bool) {
	if hour < 1 || hour > 12 || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	switch strings.ToUpper(strings.TrimSpace(period)) {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return 0, 0, false
	}
	return hour, minute, true
}
