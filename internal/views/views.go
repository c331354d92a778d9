// Package views assembles the dashboard outputs from a raw event snapshot.
//
// Each view is a pure function of its snapshot and Options: it runs one
// aggregation pass, applies the groupings the view needs and returns a
// JSON-ready value that embeds the pass diagnostics. Nothing is cached
// between calls.
package views

import (
	"math"
	"time"

	"github.com/onnwee/boothpulse/internal/aggregate"
	"github.com/onnwee/boothpulse/internal/proximity"
	"github.com/onnwee/boothpulse/internal/ranking"
)

// Options is the immutable configuration of one view request.
type Options struct {
	Range  proximity.TimeRange
	Booth  string         // dashboard only
	Metric ranking.Metric // booth comparison only
	TopN   int
	Model  proximity.PathLoss
	Now    func() time.Time
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

func (o Options) rangeOrAll() proximity.TimeRange {
	if o.Range == "" {
		return proximity.RangeAll
	}
	return o.Range
}

func (o Options) model() proximity.PathLoss {
	if o.Model.Exponent == 0 {
		return proximity.DefaultPathLoss()
	}
	return o.Model
}

func (o Options) run(raws []proximity.RawEvent, booth string) *aggregate.Pass {
	return aggregate.Run(raws, aggregate.Options{
		Selection: proximity.Selection{Range: o.rangeOrAll(), Booth: booth},
		Model:     o.model(),
		Now:       o.Now,
	})
}

// Meta is embedded in every view.
type Meta struct {
	Range       proximity.TimeRange    `json:"range"`
	Events      int                    `json:"events"` // raw events received
	GeneratedAt time.Time              `json:"generatedAt"`
	Diagnostics []aggregate.Diagnostic `json:"diagnostics"`
}

func (o Options) meta(p *aggregate.Pass) Meta {
	return Meta{
		Range:       o.rangeOrAll(),
		Events:      p.Received,
		GeneratedAt: o.now().UTC(),
		Diagnostics: p.Diagnostics,
	}
}

// Counts returns the number of excluded events and of warnings.
func (m Meta) Counts() (excluded, warnings int) {
	for _, d := range m.Diagnostics {
		switch d.Severity {
		case aggregate.SeverityExcluded:
			excluded++
		case aggregate.SeverityWarning:
			warnings++
		}
	}
	return excluded, warnings
}

// Dashboard is the summary view.
type Dashboard struct {
	Booth             string              `json:"booth"`
	TotalVisitors     int                 `json:"totalVisitors"`
	AvgDwellTime      float64             `json:"avgDwellTime"` // minutes, one decimal
	ActiveBooths      int                 `json:"activeBooths"`
	Booths            []string            `json:"booths"` // selector options, AllBooths first
	RSSIDistribution  []aggregate.Bin     `json:"rssiDistribution"`
	DwellDistribution []aggregate.Bin     `json:"dwellTimeDistribution"`
	HourlyTraffic     []aggregate.HourBin `json:"hourlyTraffic"`
	Meta
}

// BuildDashboard computes the dashboard summary. Active booths and the
// selector list cover the whole snapshot; every other figure covers the
// selected range and booth.
func BuildDashboard(raws []proximity.RawEvent, opts Options) Dashboard {
	booth := opts.Booth
	if booth == "" {
		booth = proximity.AllBooths
	}
	p := opts.run(raws, booth)
	totals := aggregate.Totals(p.Records)

	return Dashboard{
		Booth:             booth,
		TotalVisitors:     totals.Count,
		AvgDwellTime:      proximity.Round(totals.AvgDwellTime(), 1),
		ActiveBooths:      len(p.Booths),
		Booths:            append([]string{proximity.AllBooths}, p.Booths...),
		RSSIDistribution:  aggregate.Histogram(aggregate.RSSIScheme, aggregate.Aggregate(p.Records, aggregate.ByRSSI(aggregate.RSSIScheme))),
		DwellDistribution: aggregate.Histogram(aggregate.DwellScheme, aggregate.Aggregate(p.Records, aggregate.ByDwell(aggregate.DwellScheme))),
		HourlyTraffic:     aggregate.Hourly(p.Records, aggregate.ByInTimeHour),
		Meta:              opts.meta(p),
	}
}

// BoothRow is one booth in the comparison. Dwell and RSSI are rounded to
// one decimal and distance to two.
type BoothRow struct {
	Name            string  `json:"name"`
	Visitors        int     `json:"visitors"`
	AvgDwellTime    float64 `json:"avgDwellTime"`
	AvgRSSI         float64 `json:"avgRssi"`
	AverageDistance float64 `json:"averageDistance"`
}

// BoothComparison ranks booths by one metric.
type BoothComparison struct {
	Metric    ranking.Metric `json:"metric"`
	Direction string         `json:"direction"`
	Chart     []BoothRow     `json:"chart"` // top N
	Table     []BoothRow     `json:"table"` // every booth
	Meta
}

// BuildBoothComparison groups the selected range by booth and ranks it.
func BuildBoothComparison(raws []proximity.RawEvent, opts Options) BoothComparison {
	metric := opts.Metric
	if metric == "" {
		metric = ranking.Visitors
	}
	n := opts.TopN
	if n <= 0 {
		n = ranking.DefaultTopN
	}

	p := opts.run(raws, proximity.AllBooths)
	groups := aggregate.Aggregate(p.Records, aggregate.ByBooth)
	ranked := ranking.Rank(aggregate.Finalize(groups, opts.model()), metric, n)

	return BoothComparison{
		Metric:    metric,
		Direction: ranked.Direction.String(),
		Chart:     boothRows(ranked.Top),
		Table:     boothRows(ranked.All),
		Meta:      opts.meta(p),
	}
}

func boothRows(views []aggregate.View) []BoothRow {
	rows := make([]BoothRow, len(views))
	for i, v := range views {
		rows[i] = BoothRow{
			Name:            v.Key,
			Visitors:        v.Count,
			AvgDwellTime:    proximity.Round(v.AvgDwellTime, 1),
			AvgRSSI:         proximity.Round(v.AvgRSSI, 1),
			AverageDistance: proximity.Round(v.AvgDistance, 2),
		}
	}
	return rows
}

// Segment is one slice of the visitor segment pie.
type Segment struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// HourTraffic is one hour of visitor traffic.
type HourTraffic struct {
	Hour     int `json:"hour"`
	Visitors int `json:"visitors"`
}

// VisitorAnalytics describes visitor engagement over the selected range.
type VisitorAnalytics struct {
	TotalVisits       int             `json:"totalVisits"`
	UniqueVisitors    int             `json:"totalUniqueVisitors"`
	AvgDwellTime      int             `json:"avgDwellTime"` // whole minutes
	PeakHour          *int            `json:"peakHour"`     // null without events
	Segments          []Segment       `json:"visitorSegments"`
	DwellDistribution []aggregate.Bin `json:"dwellTimeDistribution"` // five minute bins
	TrafficByHour     []HourTraffic   `json:"trafficByHour"`
	Meta
}

// BuildVisitorAnalytics computes segments, dwell bins and hourly traffic.
func BuildVisitorAnalytics(raws []proximity.RawEvent, opts Options) VisitorAnalytics {
	p := opts.run(raws, proximity.AllBooths)
	totals := aggregate.Totals(p.Records)

	segGroups := aggregate.Aggregate(p.Records, aggregate.ByDwell(aggregate.SegmentScheme))
	segments := make([]Segment, 0, 3)
	for _, b := range aggregate.Histogram(aggregate.SegmentScheme, segGroups) {
		segments = append(segments, Segment{Name: b.Label, Value: b.Count})
	}

	hours := aggregate.Hourly(p.Records, aggregate.ByTimestampHour)
	traffic := make([]HourTraffic, len(hours))
	for i, h := range hours {
		traffic[i] = HourTraffic{Hour: h.Hour, Visitors: h.Count}
	}

	va := VisitorAnalytics{
		TotalVisits:       totals.Count,
		UniqueVisitors:    aggregate.UniqueVisitors(p.Records),
		AvgDwellTime:      int(math.Floor(totals.AvgDwellTime() + 0.5)),
		Segments:          segments,
		DwellDistribution: aggregate.FiveMinuteBins(p.Records),
		TrafficByHour:     traffic,
		Meta:              opts.meta(p),
	}
	if peak, ok := aggregate.PeakHour(hours); ok {
		va.PeakHour = &peak
	}
	return va
}

// DateRange bounds the event timestamps of a snapshot.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AssistantContext is the summary exported to the conversational assistant.
type AssistantContext struct {
	TotalVisitors  int        `json:"totalVisitors"`
	UniqueVisitors int        `json:"uniqueVisitors"`
	DateRange      *DateRange `json:"dateRange"` // null without events
	Meta
}

// BuildAssistantContext exports already-aggregated scalars only.
func BuildAssistantContext(raws []proximity.RawEvent, opts Options) AssistantContext {
	p := opts.run(raws, proximity.AllBooths)

	ac := AssistantContext{
		TotalVisitors:  len(p.Records),
		UniqueVisitors: aggregate.UniqueVisitors(p.Records),
		Meta:           opts.meta(p),
	}
	for i, r := range p.Records {
		ts := r.Event.Timestamp
		if i == 0 {
			ac.DateRange = &DateRange{Start: ts, End: ts}
			continue
		}
		if ts.Before(ac.DateRange.Start) {
			ac.DateRange.Start = ts
		}
		if ts.After(ac.DateRange.End) {
			ac.DateRange.End = ts
		}
	}
	return ac
}
