package sql

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Stats holds statement execution statistics.
type Stats struct {
	// Statements is the number of statements executed.
	Statements atomic.Int64
	// Duration is the total time spent executing statements.
	Duration atomic.Int64 // nanoseconds
	// Slow is the count of statements exceeding the slow threshold.
	Slow atomic.Int64
	// Errors is the count of failed statements.
	Errors atomic.Int64
}

func (s *Stats) record(d time.Duration, err error, slow bool) {
	s.Statements.Add(1)
	s.Duration.Add(int64(d))
	if err != nil {
		s.Errors.Add(1)
	}
	if slow {
		s.Slow.Add(1)
	}
}

// Snapshot returns a point-in-time copy of the statistics.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Statements: s.Statements.Load(),
		Duration:   time.Duration(s.Duration.Load()),
		Slow:       s.Slow.Load(),
		Errors:     s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *Stats) Reset() {
	s.Statements.Store(0)
	s.Duration.Store(0)
	s.Slow.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of statement statistics.
type StatsSnapshot struct {
	Statements int64
	Duration   time.Duration
	Slow       int64
	Errors     int64
}

// Avg returns the average statement duration.
func (s StatsSnapshot) Avg() time.Duration {
	if s.Statements == 0 {
		return 0
	}
	return s.Duration / time.Duration(s.Statements)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf("statements=%d duration=%s avg=%s slow=%d errors=%d",
		s.Statements, s.Duration, s.Avg(), s.Slow, s.Errors)
}
