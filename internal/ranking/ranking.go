package ranking

import (
	"errors"
	"fmt"
	"sort"

	"github.com/onnwee/boothpulse/internal/aggregate"
)

// DefaultTopN is the size of ranked chart output.
const DefaultTopN = 10

// Metric names a rankable booth statistic.
type Metric string

// Supported metrics.
const (
	Visitors        Metric = "visitors"
	AvgDwellTime    Metric = "avgDwellTime"
	AvgRSSI         Metric = "avgRssi"
	AverageDistance Metric = "averageDistance"
)

// Metrics lists the supported metrics in display order.
var Metrics = []Metric{Visitors, AvgDwellTime, AvgRSSI, AverageDistance}

// Direction is the sort order in which better values come first.
type Direction int

// Sort directions.
const (
	Descending Direction = iota
	Ascending
)

func (d Direction) String() string {
	if d == Ascending {
		return "ascending"
	}
	return "descending"
}

// ErrUnknownMetric is returned by ParseMetric for unsupported names.
var ErrUnknownMetric = errors.New("unknown ranking metric")

// ParseMetric parses a metric name. The empty string means Visitors.
func ParseMetric(s string) (Metric, error) {
	if s == "" {
		return Visitors, nil
	}
	for _, m := range Metrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// Direction returns the intrinsic order of m.
func (m Metric) Direction() Direction {
	if m == AverageDistance {
		return Ascending
	}
	return Descending
}

// Value extracts m from a view.
func (m Metric) Value(v aggregate.View) float64 {
	switch m {
	case AvgDwellTime:
		return v.AvgDwellTime
	case AvgRSSI:
		return v.AvgRSSI
	case AverageDistance:
		return v.AvgDistance
	default:
		return float64(v.Count)
	}
}

// needsSamples reports whether m is undefined for groups without RSSI.
func (m Metric) needsSamples() bool {
	return m == AvgRSSI || m == AverageDistance
}

// Result is a ranked sequence of views.
type Result struct {
	Metric    Metric
	Direction Direction
	Top       []aggregate.View // first N of All
	All       []aggregate.View // untruncated, same order
}

// Rank orders views by m and truncates Top to n entries. The input slice is
// not modified. A non-positive n leaves Top equal to All.
func Rank(views []aggregate.View, m Metric, n int) Result {
	all := append([]aggregate.View(nil), views...)
	dir := m.Direction()

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if m.needsSamples() {
			hasA, hasB := a.RSSISamples > 0, b.RSSISamples > 0
			if hasA != hasB {
				return hasA
			}
		}
		va, vb := m.Value(a), m.Value(b)
		if va != vb {
			if dir == Ascending {
				return va < vb
			}
			return va > vb
		}
		return a.Key < b.Key
	})

	top := all
	if n > 0 && len(all) > n {
		top = all[:n]
	}

	return Result{
		Metric:    m,
		Direction: dir,
		Top:       top,
		All:       all,
	}
}
