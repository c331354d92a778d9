// Package synthetic produces placeholder data for demos and empty
// deployments. Nothing here is derived from real telemetry, and every
// payload is marked synthetic. The aggregation packages never import it.
package synthetic

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/onnwee/boothpulse/internal/proximity"
)

// Booths is the number of demo booths, numbered from 1.
const Booths = 5

// Site time zone of the demo hall (UTC+05:30).
var siteZone = time.FixedZone("IST", 5*60*60+30*60)

var engagementMetrics = []string{"Dwell Time", "Return Rate", "Proximity", "Interaction", "Overall Performance"}

// Generator is a seeded source of synthetic data. It is safe for
// concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a generator; equal seeds yield equal output.
func New(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Events returns n demo visits on the given day: a MAC-style device id,
// 4 to 10 RSSI readings in [-80, -20] dBm, an in_time between 10:00 and
// 16:00 site time, a 30 second to 5 minute stay, a booth in 1..Booths and a
// record timestamp equal to out_time.
func (g *Generator) Events(day time.Time, n int) []proximity.RawEvent {
	g.mu.Lock()
	defer g.mu.Unlock()

	y, m, d := day.In(siteZone).Date()
	open := time.Date(y, m, d, 10, 0, 0, 0, siteZone)
	window := 6*60*60 - 300

	events := make([]proximity.RawEvent, n)
	for i := range events {
		samples := make([]float64, 4+g.rng.IntN(7))
		for j := range samples {
			samples[j] = float64(-80 + g.rng.IntN(61))
		}
		in := open.Add(time.Duration(g.rng.IntN(window+1)) * time.Second)
		out := in.Add(time.Duration(30+g.rng.IntN(271)) * time.Second)

		events[i] = proximity.RawEvent{
			DeviceID:   g.mac(),
			BoothID:    float64(1 + g.rng.IntN(Booths)),
			InTime:     in.Format(time.RFC3339),
			OutTime:    out.Format(time.RFC3339),
			Timestamp:  out.Format(time.RFC3339),
			RSSIValues: samples,
		}
	}
	return events
}

func (g *Generator) mac() string {
	b := make([]any, 6)
	for i := range b {
		b[i] = g.rng.IntN(256)
	}
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", b...)
}

// TrendPoint is one day of synthetic visitor trend.
type TrendPoint struct {
	Date      string `json:"date"`
	Visitors  int    `json:"visitors"`
	Returning int    `json:"returning"`
}

// EngagementScore is a synthetic 60..99 score for a named metric.
type EngagementScore struct {
	Metric string `json:"metric"`
	Score  int    `json:"score"`
}

// Placeholders bundles the synthetic chart series shown next to real
// aggregates.
type Placeholders struct {
	Synthetic        bool              `json:"synthetic"`
	VisitorTrends    []TrendPoint      `json:"visitorTrends"`
	EngagementScores []EngagementScore `json:"engagementScores"`
}

// Placeholders returns seven days of trends ending at now and one score per
// engagement metric.
func (g *Generator) Placeholders(now time.Time) Placeholders {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := Placeholders{
		Synthetic:        true,
		VisitorTrends:    make([]TrendPoint, 7),
		EngagementScores: make([]EngagementScore, len(engagementMetrics)),
	}
	for i := range p.VisitorTrends {
		day := now.AddDate(0, 0, i-6)
		p.VisitorTrends[i] = TrendPoint{
			Date:      day.Format("Jan 2"),
			Visitors:  50 + g.rng.IntN(50),
			Returning: 10 + g.rng.IntN(30),
		}
	}
	for i, name := range engagementMetrics {
		p.EngagementScores[i] = EngagementScore{Metric: name, Score: 60 + g.rng.IntN(40)}
	}
	return p
}
