package aggregate

import (
	"errors"
	"sort"
	"time"

	"github.com/onnwee/boothpulse/internal/proximity"
)

// Severity says whether a diagnostic removed its event from the pass.
type Severity string

// Diagnostic severities.
const (
	SeverityExcluded Severity = "excluded"
	SeverityWarning  Severity = "warning"
)

// Diagnostic kinds.
const (
	KindMalformedTimestamp = "malformed_timestamp"
	KindEmptySample        = "empty_sample"
	KindNonFiniteSample    = "non_finite_sample"
	KindNegativeDwellTime  = "negative_dwell_time"
)

// Diagnostic is a per-event data-quality report.
type Diagnostic struct {
	Index    int      `json:"index"`
	DeviceID string   `json:"deviceId,omitempty"`
	Kind     string   `json:"kind"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Options configures a pass.
type Options struct {
	Selection proximity.Selection
	Model     proximity.PathLoss
	Now       func() time.Time
}

// Pass is the prepared input of one aggregation run.
type Pass struct {
	Received    int      // raw events supplied
	Parsed      int      // raw events with valid timestamps
	Booths      []string // distinct booth ids across the parsed snapshot
	Records     []Record // parsed events kept by the selection
	Diagnostics []Diagnostic
}

// Run parses raws, applies the selection and derives per-event metrics.
// Malformed events are excluded and reported; derivation warnings are
// reported for kept events only. Run holds no state between calls.
func Run(raws []proximity.RawEvent, opts Options) *Pass {
	model := opts.Model
	if model.Exponent == 0 {
		model = proximity.DefaultPathLoss()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	p := &Pass{
		Received:    len(raws),
		Records:     make([]Record, 0, len(raws)),
		Diagnostics: []Diagnostic{},
	}
	keep := opts.Selection.Matcher(now())
	booths := make(map[string]struct{})

	for i, raw := range raws {
		ev, err := proximity.Parse(raw)
		if err != nil {
			p.report(i, raw.DeviceID, KindMalformedTimestamp, SeverityExcluded, err)
			continue
		}
		p.Parsed++
		booths[ev.BoothID] = struct{}{}

		if !keep(ev) {
			continue
		}

		m, warn := proximity.Derive(ev, model)
		if errors.Is(warn, proximity.ErrNegativeDwellTime) {
			p.report(i, ev.DeviceID, KindNegativeDwellTime, SeverityWarning, proximity.ErrNegativeDwellTime)
		}
		if errors.Is(warn, proximity.ErrEmptySample) {
			p.report(i, ev.DeviceID, KindEmptySample, SeverityWarning, proximity.ErrEmptySample)
		}
		if errors.Is(warn, proximity.ErrNonFiniteSample) {
			p.report(i, ev.DeviceID, KindNonFiniteSample, SeverityWarning, proximity.ErrNonFiniteSample)
		}
		p.Records = append(p.Records, Record{Index: i, Event: ev, Metrics: m})
	}

	p.Booths = make([]string, 0, len(booths))
	for b := range booths {
		p.Booths = append(p.Booths, b)
	}
	sort.Strings(p.Booths)

	return p
}

func (p *Pass) report(index int, device, kind string, sev Severity, err error) {
	p.Diagnostics = append(p.Diagnostics, Diagnostic{
		Index:    index,
		DeviceID: device,
		Kind:     kind,
		Severity: sev,
		Message:  err.Error(),
	})
}

// Excluded returns the number of events dropped as malformed.
func (p *Pass) Excluded() int { return p.Received - p.Parsed }

// Warnings returns the number of warning diagnostics.
func (p *Pass) Warnings() int {
	n := 0
	for _, d := range p.Diagnostics {
		if d.Severity == SeverityWarning {
			n++
		}
	}
	return n
}
