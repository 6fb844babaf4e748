package reporting

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// MultiReporter fans a report out to multiple channels.
type MultiReporter struct {
	mu        sync.RWMutex
	reporters []Reporter
	logger    *slog.Logger
}

// NewMultiReporter creates a new multi-channel reporter.
func NewMultiReporter(logger *slog.Logger, reporters ...Reporter) *MultiReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiReporter{
		reporters: reporters,
		logger:    logger,
	}
}

// Name returns the name of the reporter.
func (m *MultiReporter) Name() string {
	return "multi"
}

// AddReporter adds a channel to the multi-reporter.
func (m *MultiReporter) AddReporter(r Reporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reporters = append(m.reporters, r)
}

// Report sends the report to all configured channels.
// Returns an error if any channel fails (errors are joined).
func (m *MultiReporter) Report(ctx context.Context, severity Severity, message string, fields ...any) error {
	m.mu.RLock()
	reporters := make([]Reporter, len(m.reporters))
	copy(reporters, m.reporters)
	m.mu.RUnlock()

	if len(reporters) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(reporters))

	for _, r := range reporters {
		wg.Add(1)
		go func(r Reporter) {
			defer wg.Done()
			if err := r.Report(ctx, severity, message, fields...); err != nil {
				m.logger.Error("reporter failed",
					"reporter", r.Name(),
					"severity", severity.String(),
					"error", err,
				)
				errCh <- err
			}
		}(r)
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
