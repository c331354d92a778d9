// Package proximity models booth proximity events and derives the per-event
// metrics used by every dashboard view.
//
// Events arrive as RawEvent values decoded from JSON or CBOR. Parse validates
// the timestamps and canonicalises the booth identifier, producing an Event.
// Derive then computes dwell time, mean signal strength and an estimated
// distance for a single event:
//
//	ev, err := proximity.Parse(raw)
//	if err != nil {
//		// malformed timestamps exclude the event from every aggregate
//	}
//	m, warn := proximity.Derive(ev, proximity.DefaultPathLoss())
//	if errors.Is(warn, proximity.ErrEmptySample) {
//		// m.HasRSSI is false; dwell is still usable
//	}
//
// Distance Model:
//
// Distance is a log-distance path-loss estimate,
//
//	distance = 10 ^ ((RSSI_ref - avg_rssi) / (10 * n))
//
// with RSSI_ref = -60 dBm at one meter and n = 2 unless a calibration file
// overrides them. The result is a heuristic for comparing booths, not a
// measured range.
package proximity
