package reporting

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tathienbao/signal-relay/internal/types"
)

// SessionSummary accumulates outcome counts over the lifetime of the
// process and renders a shutdown report.
type SessionSummary struct {
	mu        sync.Mutex
	startedAt time.Time
	signals   int
	byKind    map[types.OutcomeKind]int
}

// NewSessionSummary creates an empty summary starting now.
func NewSessionSummary() *SessionSummary {
	return &SessionSummary{
		startedAt: time.Now(),
		byKind:    make(map[types.OutcomeKind]int),
	}
}

// ObserveSignal records one received signal.
func (s *SessionSummary) ObserveSignal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals++
}

// ObserveOutcome records one outcome.
func (s *SessionSummary) ObserveOutcome(out types.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byKind[out.Kind]++
}

// Signals returns the number of signals observed.
func (s *SessionSummary) Signals() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signals
}

// Count returns the number of outcomes observed with the given kind.
func (s *SessionSummary) Count(kind types.OutcomeKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byKind[kind]
}

// totals returns executed/skipped/failed counts.
func (s *SessionSummary) totals() (executed, skipped, failed int) {
	for kind, n := range s.byKind {
		switch {
		case kind.IsSuccess():
			executed += n
		case kind.IsSkip():
			skipped += n
		default:
			failed += n
		}
	}
	return executed, skipped, failed
}

// Report sends the session summary through the reporter.
func (s *SessionSummary) Report(ctx context.Context, r Reporter) error {
	s.mu.Lock()
	executed, skipped, failed := s.totals()
	uptime := time.Since(s.startedAt).Round(time.Second)
	signals := s.signals
	opened := s.byKind[types.OutcomeOpened]
	closed := s.byKind[types.OutcomeClosed]
	modified := s.byKind[types.OutcomeModified]
	rejected := s.byKind[types.OutcomeRejected]
	s.mu.Unlock()

	return r.Report(ctx, SeverityInfo, "Session summary",
		"uptime", uptime.String(),
		"signals", signals,
		"executed", fmt.Sprintf("%d (open %d / close %d / modify %d)", executed, opened, closed, modified),
		"skipped", skipped,
		"rejected", rejected,
		"failed", failed,
	)
}
