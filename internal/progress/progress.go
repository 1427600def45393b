// Package progress defines the build progress-reporting capability
// (spec §9): a sink the build driver hands to the extractor and
// resolver so they can report status without owning a transport.
package progress

import (
	"log/slog"

	"github.com/google/uuid"
)

// Sink receives progress notifications during a build. Implementations
// must be safe to call from a single build worker (the pipeline is
// single-threaded per spec §5, so Sink need not be goroutine-safe).
type Sink interface {
	// Report announces a step. increment is added to a running total
	// the caller may use to render a percentage; pass 0 for steps that
	// don't correspond to a discrete unit of work.
	Report(message string, increment int)
}

// NopSink discards all progress reports.
type NopSink struct{}

func (NopSink) Report(string, int) {}

// SlogSink reports progress through structured logging, tagging every
// report with a per-build run ID so concurrent or sequential build logs
// stay attributable to one invocation.
type SlogSink struct {
	log   *slog.Logger
	runID string
	total int
}

// NewSlogSink returns a Sink that logs each report at info level under
// the given logger, tagged with a fresh run ID.
func NewSlogSink(log *slog.Logger) *SlogSink {
	return &SlogSink{log: log, runID: uuid.NewString()}
}

func (s *SlogSink) Report(message string, increment int) {
	s.total += increment
	s.log.Info(message, "run_id", s.runID, "progress", s.total)
}
