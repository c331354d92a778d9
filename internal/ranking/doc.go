// Package ranking orders finalized booth groups for comparison views.
//
// Every Metric carries its own "better" direction: more visitors, longer
// dwell and stronger (less negative) signal rank first, while a smaller
// estimated distance ranks first. Callers pick the metric, never the
// direction.
//
// Basic Usage:
//
//	metric, err := ranking.ParseMetric(r.URL.Query().Get("metric"))
//	if err != nil {
//		// 400
//	}
//	result := ranking.Rank(views, metric, ranking.DefaultTopN)
//	chart := result.Top   // at most DefaultTopN rows
//	table := result.All   // every row, same order
//
// Ties:
//
// Groups with equal metric values are ordered by key, lexicographically, so
// that output is stable for a given input regardless of input order. For the
// signal-derived metrics, groups without any RSSI samples sort after every
// group that has them.
package ranking
