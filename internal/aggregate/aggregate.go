package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/onnwee/boothpulse/internal/proximity"
)

// HoursPerDay is the size of the dense hour-of-day domain.
const HoursPerDay = 24

// Record is an event that survived parsing and filtering, with its metrics.
type Record struct {
	Index   int // position in the raw snapshot
	Event   proximity.Event
	Metrics proximity.Metrics
}

// KeyFunc maps a record to its group key. Returning false leaves the
// record out of the grouping.
type KeyFunc func(Record) (string, bool)

// Aggregate folds records into groups keyed by key. Records are only read.
func Aggregate(records []Record, key KeyFunc) map[string]*Group {
	groups := make(map[string]*Group)
	for _, r := range records {
		k, ok := key(r)
		if !ok {
			continue
		}
		g, exists := groups[k]
		if !exists {
			g = &Group{Key: k}
			groups[k] = g
		}
		g.Add(r.Metrics)
	}
	return groups
}

// ByBooth groups by canonical booth id.
func ByBooth(r Record) (string, bool) { return r.Event.BoothID, true }

// ByDevice groups by device id.
func ByDevice(r Record) (string, bool) { return r.Event.DeviceID, true }

// ByInTimeHour groups by the hour of in_time, in the event's own offset.
func ByInTimeHour(r Record) (string, bool) { return strconv.Itoa(r.Event.InTime.Hour()), true }

// ByTimestampHour groups by the hour of the event record time, in the
// event's own offset.
func ByTimestampHour(r Record) (string, bool) { return strconv.Itoa(r.Event.Timestamp.Hour()), true }

// ByDwell groups dwell minutes through s.
func ByDwell(s Scheme) KeyFunc {
	return func(r Record) (string, bool) {
		return s.Label(float64(r.Metrics.DwellMinutes)), true
	}
}

// ByRSSI groups the average RSSI through s. Records without samples are
// skipped.
func ByRSSI(s Scheme) KeyFunc {
	return func(r Record) (string, bool) {
		if !r.Metrics.HasRSSI {
			return "", false
		}
		return s.Label(r.Metrics.AvgRSSI), true
	}
}

// Bin is one histogram entry.
type Bin struct {
	Label string `json:"range"`
	Count int    `json:"count"`
}

// HourBin is one hour-of-day histogram entry.
type HourBin struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// Histogram returns one bin per label of s, in scheme order, including
// empty bins.
func Histogram(s Scheme, groups map[string]*Group) []Bin {
	labels := s.Labels()
	bins := make([]Bin, len(labels))
	for i, label := range labels {
		bins[i].Label = label
		if g, ok := groups[label]; ok {
			bins[i].Count = g.Count
		}
	}
	return bins
}

// Hourly returns the dense 24-hour histogram of records grouped by hour,
// which must map into "0".."23".
func Hourly(records []Record, hour KeyFunc) []HourBin {
	groups := Aggregate(records, hour)
	bins := make([]HourBin, HoursPerDay)
	for h := range bins {
		bins[h].Hour = h
		if g, ok := groups[strconv.Itoa(h)]; ok {
			bins[h].Count = g.Count
		}
	}
	return bins
}

// PeakHour returns the first hour holding the largest non-zero count.
func PeakHour(hours []HourBin) (int, bool) {
	peak, best := 0, 0
	for _, b := range hours {
		if b.Count > best {
			peak, best = b.Hour, b.Count
		}
	}
	return peak, best > 0
}

// UniqueVisitors counts distinct device ids.
func UniqueVisitors(records []Record) int {
	return len(Aggregate(records, ByDevice))
}

// Totals folds every record into one group.
func Totals(records []Record) Group {
	g := Group{Key: "total"}
	for _, r := range records {
		g.Add(r.Metrics)
	}
	return g
}

// FiveMinuteBins returns a sparse histogram of dwell minutes in five minute
// steps ("0-5", "5-10", ...), ordered by lower edge.
func FiveMinuteBins(records []Record) []Bin {
	counts := make(map[int]int)
	for _, r := range records {
		lower := int(math.Floor(float64(r.Metrics.DwellMinutes)/5)) * 5
		counts[lower]++
	}

	lowers := make([]int, 0, len(counts))
	for l := range counts {
		lowers = append(lowers, l)
	}
	sort.Ints(lowers)

	bins := make([]Bin, len(lowers))
	for i, l := range lowers {
		bins[i] = Bin{Label: fmt.Sprintf("%d-%d", l, l+5), Count: counts[l]}
	}
	return bins
}

// Finalize converts groups into views ordered by key.
func Finalize(groups map[string]*Group, model proximity.PathLoss) []View {
	views := make([]View, 0, len(groups))
	for _, g := range groups {
		views = append(views, g.Finalize(model))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Key < views[j].Key })
	return views
}
