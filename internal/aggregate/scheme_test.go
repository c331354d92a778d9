package aggregate

import (
	"testing"
)

func TestDwellScheme(t *testing.T) {
	tests := []struct {
		minutes float64
		want    string
	}{
		{-3, "< 1 min"},
		{0, "< 1 min"},
		{1, "1-2 min"},
		{2, "2-5 min"},
		{4, "2-5 min"},
		{5, "5-10 min"},
		{9, "5-10 min"},
		{10, "> 10 min"},
		{240, "> 10 min"},
	}

	for _, tt := range tests {
		if got := DwellScheme.Label(tt.minutes); got != tt.want {
			t.Errorf("DwellScheme.Label(%v) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestRSSIScheme(t *testing.T) {
	tests := []struct {
		rssi float64
		want string
	}{
		{-100, "-90 to -80"},
		{-80, "-90 to -80"},
		{-79.5, "-80 to -70"},
		{-70, "-80 to -70"},
		{-65, "-70 to -60"},
		{-60, "-70 to -60"},
		{-55, "-60 to -50"},
		{-41, "-50 to -40"},
		{-30, "-40 to -30"},
		{-29.9, "> -30"},
		{0, "> -30"},
	}

	for _, tt := range tests {
		if got := RSSIScheme.Label(tt.rssi); got != tt.want {
			t.Errorf("RSSIScheme.Label(%v) = %q, want %q", tt.rssi, got, tt.want)
		}
	}

	if n := len(RSSIScheme.Labels()); n != 7 {
		t.Errorf("RSSIScheme has %d bands, want 7", n)
	}
}

func TestSegmentScheme_Boundaries(t *testing.T) {
	tests := []struct {
		minutes float64
		want    string
	}{
		{4, "Brief (<5min)"},
		{5, "Average (5-15min)"},
		{14, "Average (5-15min)"},
		{15, "Engaged (>15min)"},
	}

	for _, tt := range tests {
		if got := SegmentScheme.Label(tt.minutes); got != tt.want {
			t.Errorf("SegmentScheme.Label(%v) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

// Every value maps to exactly one label, and the label is one of Labels().
func TestSchemes_TotalAssignment(t *testing.T) {
	for _, s := range []Scheme{DwellScheme, RSSIScheme, SegmentScheme} {
		t.Run(s.Name(), func(t *testing.T) {
			valid := make(map[string]bool)
			for _, l := range s.Labels() {
				if valid[l] {
					t.Fatalf("duplicate label %q", l)
				}
				valid[l] = true
			}
			for v := -150.0; v <= 150; v += 0.5 {
				if !valid[s.Label(v)] {
					t.Fatalf("value %v mapped to unknown label %q", v, s.Label(v))
				}
			}
		})
	}
}

func TestNewScheme_RequiresCatchAll(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic without catch-all")
		}
	}()
	NewScheme("broken", "", Below("low", 1))
}
