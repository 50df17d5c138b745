// Package reassembly implements the Stream Reassembler (spec.md
// §4.3): a per-flow byte accumulator that yields length-delimited
// outer frames, including the byte-at-a-time resync required to
// tolerate truncated or interleaved captures. It deliberately does
// not use gopacket/tcpassembly — that package performs sequence-based
// reordering, which spec.md §4.2 rules out for this system.
package reassembly

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/nearcap/nearcap/internal/core"
	"github.com/nearcap/nearcap/internal/metrics"
)

const minFrameSize = 6

// accumulator is one flow's byte buffer, holding only the bytes not
// yet sliced into an emitted frame, and the time it last saw data.
type accumulator struct {
	buf      []byte
	lastSeen time.Time
}

// Reassembler owns the map of per-flow accumulators. It is not safe
// for concurrent use by design: spec.md §5 runs the core on a single
// producer thread, or behind a Pool that preserves per-flow ordering.
type Reassembler struct {
	flows          map[core.FlowKey]*accumulator
	maxFrameBytes  int
	maxBufferBytes int
}

// New returns a Reassembler with the given safety caps (spec.md §6:
// max_frame_bytes, max_flow_buffer_bytes).
func New(maxFrameBytes, maxBufferBytes int) *Reassembler {
	return &Reassembler{
		flows:          make(map[core.FlowKey]*accumulator),
		maxFrameBytes:  maxFrameBytes,
		maxBufferBytes: maxBufferBytes,
	}
}

// SetLimits updates the safety caps in place (spec.md §6's knobs).
// Pipeline does not call it: the caps are read once, at Start.
func (r *Reassembler) SetLimits(maxFrameBytes, maxBufferBytes int) {
	r.maxFrameBytes = maxFrameBytes
	r.maxBufferBytes = maxBufferBytes
}

// Feed appends payload to key's accumulator and slices out every
// complete outer frame now available, in arrival order (spec.md
// §4.3). Each returned frame includes its 4-byte size prefix; callers
// pass it straight to the Outer Frame Parser.
func (r *Reassembler) Feed(key core.FlowKey, payload []byte) [][]byte {
	a, ok := r.flows[key]
	if !ok {
		a = &accumulator{}
		r.flows[key] = a
	}
	a.lastSeen = time.Now()
	a.buf = append(a.buf, payload...)

	if len(a.buf) > r.maxBufferBytes {
		metrics.FlowBuffersDroppedTotal.Inc()
		delete(r.flows, key)
		return nil
	}

	var frames [][]byte
	offset := 0
	for {
		remaining := len(a.buf) - offset
		if remaining < 4 {
			break
		}
		size := int(binary.BigEndian.Uint32(a.buf[offset : offset+4]))
		if size < minFrameSize || size > r.maxFrameBytes {
			kind := core.KindFrameTooShort
			if size > r.maxFrameBytes {
				kind = core.KindFrameOversize
			}
			metrics.CountError(kind)
			metrics.ResyncBytesSkippedTotal.Inc()
			offset++
			continue
		}
		if remaining < size {
			break
		}
		frames = append(frames, a.buf[offset:offset+size])
		metrics.FramesEmittedTotal.WithLabelValues(flowLabel(key)).Inc()
		offset += size
	}

	if offset > 0 {
		a.buf = append(a.buf[:0:0], a.buf[offset:]...)
	}

	if len(r.flows) > 0 {
		metrics.FlowBuffersActive.Set(float64(len(r.flows)))
	}
	return frames
}

// Sweep discards flows idle longer than timeout (spec.md §3's
// lifecycle rule: reclaimed after a timeout with no data).
func (r *Reassembler) Sweep(timeout time.Duration) {
	now := time.Now()
	for key, a := range r.flows {
		if now.Sub(a.lastSeen) > timeout {
			delete(r.flows, key)
		}
	}
	metrics.FlowBuffersActive.Set(float64(len(r.flows)))
}

// Reset drops every flow buffer (spec.md §5: "no cross-device
// replay"). Pipeline does not call it: a device switch builds a fresh
// Pool, and with it fresh Reassemblers.
func (r *Reassembler) Reset() {
	r.flows = make(map[core.FlowKey]*accumulator)
	metrics.FlowBuffersActive.Set(0)
}

func flowLabel(key core.FlowKey) string {
	return key.SrcIP.String() + ":" + strconv.Itoa(int(key.SrcPort)) + "->" + key.DstIP.String() + ":" + strconv.Itoa(int(key.DstPort))
}
