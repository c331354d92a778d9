package aggregate

// Band is one labelled bucket of a Scheme.
type Band struct {
	Label string
	Match func(v float64) bool
}

// Below matches values strictly less than limit.
func Below(label string, limit float64) Band {
	return Band{Label: label, Match: func(v float64) bool { return v < limit }}
}

// AtMost matches values less than or equal to limit.
func AtMost(label string, limit float64) Band {
	return Band{Label: label, Match: func(v float64) bool { return v <= limit }}
}

// Scheme is an ordered bucketing of a scalar. Bands are tried in order and
// the first match wins; values matching no band fall into the catch-all.
type Scheme struct {
	name     string
	bands    []Band
	catchAll string
}

// NewScheme builds a scheme. It panics when catchAll is empty, since a
// scheme without a catch-all could leave values unassigned.
func NewScheme(name string, catchAll string, bands ...Band) Scheme {
	if catchAll == "" {
		panic("aggregate: scheme " + name + " requires a catch-all label")
	}
	return Scheme{name: name, bands: bands, catchAll: catchAll}
}

// Name returns the scheme name.
func (s Scheme) Name() string { return s.name }

// Index returns the bucket position of v; the catch-all is last.
func (s Scheme) Index(v float64) int {
	for i, b := range s.bands {
		if b.Match(v) {
			return i
		}
	}
	return len(s.bands)
}

// Label returns the bucket label of v.
func (s Scheme) Label(v float64) string {
	i := s.Index(v)
	if i == len(s.bands) {
		return s.catchAll
	}
	return s.bands[i].Label
}

// Labels returns every bucket label in evaluation order, catch-all last.
func (s Scheme) Labels() []string {
	labels := make([]string, 0, len(s.bands)+1)
	for _, b := range s.bands {
		labels = append(labels, b.Label)
	}
	return append(labels, s.catchAll)
}

// Dashboard dwell-time buckets, in minutes.
var DwellScheme = NewScheme("dwell_time", "> 10 min",
	Below("< 1 min", 1),
	Below("1-2 min", 2),
	Below("2-5 min", 5),
	Below("5-10 min", 10),
)

// Signal strength bands, 10 dBm wide with inclusive upper edges.
var RSSIScheme = NewScheme("rssi", "> -30",
	AtMost("-90 to -80", -80),
	AtMost("-80 to -70", -70),
	AtMost("-70 to -60", -60),
	AtMost("-60 to -50", -50),
	AtMost("-50 to -40", -40),
	AtMost("-40 to -30", -30),
)

// Visitor engagement segments by dwell minutes.
var SegmentScheme = NewScheme("segment", "Engaged (>15min)",
	Below("Brief (<5min)", 5),
	Below("Average (5-15min)", 15),
)
