package proximity

import (
	"errors"
	"fmt"
	"time"
)

// TimeRange selects how far back events are kept, relative to now.
type TimeRange string

// Supported time ranges.
const (
	RangeAll  TimeRange = "all"
	RangeDay  TimeRange = "day"
	RangeWeek TimeRange = "week"
)

// AllBooths disables booth filtering.
const AllBooths = "all"

// ErrInvalidTimeRange is returned by ParseTimeRange for unknown values.
var ErrInvalidTimeRange = errors.New("invalid time range")

// ParseTimeRange parses a range name. The empty string means RangeAll.
func ParseTimeRange(s string) (TimeRange, error) {
	switch TimeRange(s) {
	case "", RangeAll:
		return RangeAll, nil
	case RangeDay, RangeWeek:
		return TimeRange(s), nil
	default:
		return "", fmt.Errorf("%w: %q (want all, day or week)", ErrInvalidTimeRange, s)
	}
}

// Cutoff returns the earliest timestamp kept by r, and false for RangeAll.
func (r TimeRange) Cutoff(now time.Time) (time.Time, bool) {
	switch r {
	case RangeDay:
		return now.AddDate(0, 0, -1), true
	case RangeWeek:
		return now.AddDate(0, 0, -7), true
	default:
		return time.Time{}, false
	}
}

// Selection is the immutable filter configuration for one pass.
type Selection struct {
	Range TimeRange
	Booth string // empty or AllBooths keeps every booth
}

// Matcher returns a predicate for s evaluated against a single now.
func (s Selection) Matcher(now time.Time) func(Event) bool {
	cutoff, bounded := s.Range.Cutoff(now)
	booth := s.Booth
	if booth == AllBooths {
		booth = ""
	} else if booth != "" {
		booth = BoothKey(booth)
	}
	return func(e Event) bool {
		if bounded && e.Timestamp.Before(cutoff) {
			return false
		}
		return booth == "" || e.BoothID == booth
	}
}
