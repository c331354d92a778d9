package aggregate

import (
	"math"

	"github.com/onnwee/boothpulse/internal/proximity"
)

// Group accumulates the events sharing one key.
type Group struct {
	Key       string
	Count     int
	SumDwell  float64
	SumRSSI   float64
	RSSICount int // at most Count; events without samples add nothing
}

// Add folds one event's metrics into g.
func (g *Group) Add(m proximity.Metrics) {
	g.Count++
	g.SumDwell += float64(m.DwellMinutes)
	if m.HasRSSI {
		g.SumRSSI += m.AvgRSSI
		g.RSSICount++
	}
}

// AvgDwellTime returns the mean dwell in minutes, or 0 for an empty group.
func (g Group) AvgDwellTime() float64 {
	if g.Count == 0 {
		return 0
	}
	return g.SumDwell / float64(g.Count)
}

// AvgRSSI returns the mean of the per-event RSSI averages, or 0 when no
// event in the group had samples.
func (g Group) AvgRSSI() float64 {
	if g.RSSICount == 0 {
		return 0
	}
	return g.SumRSSI / float64(g.RSSICount)
}

// View is a finalized group. It carries averages, never raw sums.
type View struct {
	Key          string
	Count        int
	AvgDwellTime float64
	AvgRSSI      float64
	AvgDistance  float64 // path-loss distance of AvgRSSI, 0 without samples
	RSSISamples  int
}

// Finalize converts g into a View using model for the distance estimate.
// Averages that overflow to a non-finite value are reported as 0.
func (g Group) Finalize(model proximity.PathLoss) View {
	v := View{
		Key:          g.Key,
		Count:        g.Count,
		AvgDwellTime: g.AvgDwellTime(),
		RSSISamples:  g.RSSICount,
	}
	if g.RSSICount > 0 {
		v.AvgRSSI = finiteOrZero(g.AvgRSSI())
		v.AvgDistance = finiteOrZero(model.Distance(v.AvgRSSI))
	}
	v.AvgDwellTime = finiteOrZero(v.AvgDwellTime)
	return v
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
