// Package aggregate reduces derived proximity events into grouped statistics.
//
// A pass starts with Run, which parses, filters and derives a raw snapshot
// into Records plus a list of data-quality Diagnostics. Records are then
// folded into Groups by a KeyFunc (booth, hour of day, dwell bucket, RSSI
// bucket, visitor segment or device). Groups keep raw sums; callers read
// them through Finalize, which exposes averages only and yields 0 for empty
// groups.
//
// Bucketed groupings use a Scheme: an ordered list of bands evaluated first
// match wins, closed by a catch-all band so that every value lands in
// exactly one bucket.
package aggregate
