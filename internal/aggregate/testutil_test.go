package aggregate

import (
	"time"

	"github.com/onnwee/boothpulse/internal/proximity"
)

var testBase = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// rawEvent builds an event that starts at testBase plus offset and lasts
// dwell minutes.
func rawEvent(device string, booth any, offset time.Duration, dwell float64, rssi ...float64) proximity.RawEvent {
	in := testBase.Add(offset)
	out := in.Add(time.Duration(dwell * float64(time.Minute)))
	return proximity.RawEvent{
		DeviceID:   device,
		BoothID:    booth,
		InTime:     in.Format(time.RFC3339Nano),
		OutTime:    out.Format(time.RFC3339Nano),
		Timestamp:  out.Format(time.RFC3339Nano),
		RSSIValues: rssi,
	}
}

func runAll(raws []proximity.RawEvent) *Pass {
	return Run(raws, Options{
		Selection: proximity.Selection{Range: proximity.RangeAll},
		Now:       func() time.Time { return testBase.Add(24 * time.Hour) },
	})
}
