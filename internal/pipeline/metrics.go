// Package pipeline wires the capture-to-event components (spec.md §2)
// into the single running pipeline a device is captured through.
package pipeline

import "sync/atomic"

// Metrics contains per-pipeline counters, a lightweight introspection
// surface distinct from the process-wide Prometheus counters in
// internal/metrics: those are for operators, these back Stats() for
// callers embedding the pipeline directly.
type Metrics struct {
	PacketsReceived   atomic.Uint64
	FramesEmitted     atomic.Uint64
	NotifyAccepted    atomic.Uint64
	NotifyRejected    atomic.Uint64
	MethodsDispatched atomic.Uint64
	DispatchErrors    atomic.Uint64
}

// NewMetrics returns a zeroed Metrics.
func NewMetrics() *Metrics { return &Metrics{} }

// Reset resets all counters to zero.
func (m *Metrics) Reset() {
	m.PacketsReceived.Store(0)
	m.FramesEmitted.Store(0)
	m.NotifyAccepted.Store(0)
	m.NotifyRejected.Store(0)
	m.MethodsDispatched.Store(0)
	m.DispatchErrors.Store(0)
}

// Stats is a point-in-time snapshot of Metrics.
type Stats struct {
	PacketsReceived   uint64
	FramesEmitted     uint64
	NotifyAccepted    uint64
	NotifyRejected    uint64
	MethodsDispatched uint64
	DispatchErrors    uint64
}
