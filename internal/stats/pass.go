// Package stats tracks cumulative data-quality counters across aggregation
// passes.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// PassStats tracks cumulative statistics for aggregation passes over one view.
// All operations are thread-safe using atomic counters.
type PassStats struct {
	passes   int64 // completed passes
	received int64 // raw events seen
	excluded int64 // events dropped for malformed timestamps
	warnings int64 // events kept with a degraded metric
}

// NewPassStats creates a new PassStats instance.
func NewPassStats() *PassStats {
	return &PassStats{}
}

// Record adds the outcome of one pass.
func (s *PassStats) Record(received, excluded, warnings int) {
	atomic.AddInt64(&s.passes, 1)
	atomic.AddInt64(&s.received, int64(received))
	atomic.AddInt64(&s.excluded, int64(excluded))
	atomic.AddInt64(&s.warnings, int64(warnings))
}

// Passes returns the number of recorded passes.
func (s *PassStats) Passes() int64 {
	return atomic.LoadInt64(&s.passes)
}

// Received returns the total number of raw events seen.
func (s *PassStats) Received() int64 {
	return atomic.LoadInt64(&s.received)
}

// Excluded returns the total number of excluded events.
func (s *PassStats) Excluded() int64 {
	return atomic.LoadInt64(&s.excluded)
}

// Warnings returns the total number of warning diagnostics.
func (s *PassStats) Warnings() int64 {
	return atomic.LoadInt64(&s.warnings)
}

// Processed returns the number of events that reached aggregation.
func (s *PassStats) Processed() int64 {
	return s.Received() - s.Excluded()
}

// Reset resets all counters to zero.
func (s *PassStats) Reset() {
	atomic.StoreInt64(&s.passes, 0)
	atomic.StoreInt64(&s.received, 0)
	atomic.StoreInt64(&s.excluded, 0)
	atomic.StoreInt64(&s.warnings, 0)
}

// String returns a human-readable summary of the statistics.
func (s *PassStats) String() string {
	return fmt.Sprintf("passes=%d received=%d processed=%d excluded=%d warnings=%d",
		s.Passes(), s.Received(), s.Processed(), s.Excluded(), s.Warnings())
}

// LogSummary logs the counters for view at INFO level.
func (s *PassStats) LogSummary(logger *slog.Logger, view string) {
	logger.Info("pass statistics",
		"view", view,
		"passes", s.Passes(),
		"received", s.Received(),
		"processed", s.Processed(),
		"excluded", s.Excluded(),
		"warnings", s.Warnings(),
	)
}

// Set holds one PassStats per view name.
type Set struct {
	mu    sync.RWMutex
	views map[string]*PassStats
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{views: make(map[string]*PassStats)}
}

// For returns the stats for view, creating them on first use.
func (s *Set) For(view string) *PassStats {
	s.mu.RLock()
	ps, ok := s.views[view]
	s.mu.RUnlock()
	if ok {
		return ps
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ps, ok := s.views[view]; ok {
		return ps
	}
	ps = NewPassStats()
	s.views[view] = ps
	return ps
}

// LogSummary logs every view that has recorded at least one pass, in name
// order.
func (s *Set) LogSummary(logger *slog.Logger) {
	s.mu.RLock()
	names := make([]string, 0, len(s.views))
	for name := range s.views {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)

	for _, name := range names {
		ps := s.For(name)
		if ps.Passes() == 0 {
			continue
		}
		ps.LogSummary(logger, name)
	}
}

// Report calls LogSummary every interval until ctx is cancelled.
func (s *Set) Report(ctx context.Context, logger *slog.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.LogSummary(logger)
		}
	}
}
