package metrics

import (
	"time"
)

// Recorder provides methods for recording metrics.
type Recorder struct{}

// NewRecorder creates a new metrics recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordSignal records an actionable signal and refreshes the heartbeat.
func (r *Recorder) RecordSignal(action, subAction string) {
	SignalsTotal.WithLabelValues(action, subAction).Inc()
	HeartbeatTimestamp.Set(float64(time.Now().Unix()))
}

// RecordSignalDropped records an inbound payload dropped before execution.
func (r *Recorder) RecordSignalDropped(reason string) {
	SignalsDropped.WithLabelValues(reason).Inc()
}

// RecordOutcome records a per-order outcome.
func (r *Recorder) RecordOutcome(kind string) {
	OutcomesTotal.WithLabelValues(kind).Inc()
}

// RecordOrder records an order request by trade action and status.
func (r *Recorder) RecordOrder(action, status string) {
	OrdersTotal.WithLabelValues(action, status).Inc()
}

// RecordTerminalStatus records terminal connection status.
func (r *Recorder) RecordTerminalStatus(connected bool) {
	if connected {
		TerminalConnected.Set(1)
	} else {
		TerminalConnected.Set(0)
	}
}

// RecordJournalError records a failed journal write.
func (r *Recorder) RecordJournalError() {
	JournalErrors.Inc()
}

// Timer is a helper for measuring latency.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed duration.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// ObserveTerminalRequest observes the elapsed time as terminal latency.
func (t *Timer) ObserveTerminalRequest() {
	TerminalRequestLatency.Observe(t.Elapsed().Seconds())
}
