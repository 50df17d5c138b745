// Package metrics implements Prometheus metrics for the
// capture-to-event pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PacketsCapturedTotal counts link-layer frames read off the wire.
	PacketsCapturedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearcap_packets_captured_total",
			Help: "Total number of link-layer frames captured",
		},
		[]string{"device"},
	)

	// PacketsDroppedTotal counts frames dropped before reaching the
	// reassembler (non-IPv4, non-TCP, or non-positive payload length).
	PacketsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearcap_packets_dropped_total",
			Help: "Total number of captured frames dropped by the flow demultiplexer",
		},
		[]string{"reason"},
	)

	// FramesEmittedTotal counts complete outer frames the reassembler
	// handed to the outer frame parser.
	FramesEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearcap_frames_emitted_total",
			Help: "Total number of length-delimited application frames emitted by the reassembler",
		},
		[]string{"flow"},
	)

	// ResyncBytesSkippedTotal counts bytes skipped during the
	// reassembler's byte-at-a-time desynchronization recovery.
	ResyncBytesSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nearcap_resync_bytes_skipped_total",
			Help: "Total number of bytes skipped while resynchronizing a flow's frame boundary",
		},
	)

	// FlowBuffersActive tracks the number of live per-flow byte
	// accumulators.
	FlowBuffersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nearcap_flow_buffers_active",
			Help: "Current number of tracked per-flow reassembly buffers",
		},
	)

	// FlowBuffersDroppedTotal counts flows discarded for exceeding the
	// per-flow byte cap.
	FlowBuffersDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nearcap_flow_buffers_dropped_total",
			Help: "Total number of flow buffers discarded for exceeding the size cap",
		},
	)

	// DecodeErrorsTotal counts per-frame errors by ErrorKind, per
	// spec.md §7's observability requirement.
	DecodeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearcap_decode_errors_total",
			Help: "Total number of per-frame decode errors by kind",
		},
		[]string{"kind"},
	)

	// DamageEventsTotal counts damage/heal events forwarded to the sink.
	DamageEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearcap_damage_events_total",
			Help: "Total number of damage events dispatched to the sink",
		},
		[]string{"direction"},
	)
)
