package proximity

import (
	"errors"
	"math"
	"time"
)

// Default path-loss parameters.
const (
	DefaultReferenceRSSI = -60.0 // dBm measured at one meter
	DefaultExponent      = 2.0   // free-space propagation
)

// PathLoss holds the log-distance path-loss model parameters.
type PathLoss struct {
	ReferenceRSSI float64 `json:"reference_rssi"`
	Exponent      float64 `json:"exponent"`
}

// DefaultPathLoss returns the model used when no calibration is supplied.
func DefaultPathLoss() PathLoss {
	return PathLoss{
		ReferenceRSSI: DefaultReferenceRSSI,
		Exponent:      DefaultExponent,
	}
}

// Distance estimates the distance in meters for a mean RSSI.
func (p PathLoss) Distance(avgRSSI float64) float64 {
	if p.Exponent == 0 {
		return 0
	}
	return math.Pow(10, (p.ReferenceRSSI-avgRSSI)/(10*p.Exponent))
}

// Metrics are the quantities derived from a single event.
type Metrics struct {
	DwellMinutes   int
	AvgRSSI        float64
	HasRSSI        bool // false when the event carried no readings
	DistanceMeters float64
}

// DwellMinutes returns out-in in whole minutes, rounding halves up.
// The result is negative when out precedes in.
func DwellMinutes(in, out time.Time) int {
	return int(math.Floor(out.Sub(in).Minutes() + 0.5))
}

// AverageRSSI returns the arithmetic mean of values. It returns
// ErrEmptySample without readings and ErrNonFiniteSample when a reading or
// the mean is NaN or infinite.
func AverageRSSI(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptySample
	}
	var sum float64
	for _, v := range values {
		if !finite(v) {
			return 0, ErrNonFiniteSample
		}
		sum += v
	}
	avg := sum / float64(len(values))
	if !finite(avg) {
		return 0, ErrNonFiniteSample
	}
	return avg, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Derive computes the metrics of e. The returned error is never fatal: it
// joins ErrEmptySample, ErrNonFiniteSample and ErrNegativeDwellTime when
// they apply, and the Metrics value is valid either way. An event whose
// readings give no finite distance is treated as having no readings.
func Derive(e Event, model PathLoss) (Metrics, error) {
	var (
		m     Metrics
		warns []error
	)

	if e.OutTime.Before(e.InTime) {
		warns = append(warns, ErrNegativeDwellTime)
	}
	m.DwellMinutes = DwellMinutes(e.InTime, e.OutTime)

	avg, err := AverageRSSI(e.RSSI)
	var dist float64
	if err == nil {
		if dist = model.Distance(avg); !finite(dist) {
			err = ErrNonFiniteSample
		}
	}
	if err != nil {
		warns = append(warns, err)
	} else {
		m.AvgRSSI = avg
		m.HasRSSI = true
		m.DistanceMeters = dist
	}

	return m, errors.Join(warns...)
}

// Round rounds v to the given number of decimal places, halves away from zero.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
