package reassembly

import (
	"encoding/binary"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nearcap/nearcap/internal/core"
)

func flowKeyFor(srcIP string, srcPort uint16, dstIP string, dstPort uint16) core.FlowKey {
	return core.FlowKey{
		SrcIP:   netip.MustParseAddr(srcIP),
		SrcPort: srcPort,
		DstIP:   netip.MustParseAddr(dstIP),
		DstPort: dstPort,
	}
}

func frameOf(t *testing.T, typeAndFlags uint16, body []byte) []byte {
	t.Helper()
	size := 6 + len(body)
	out := make([]byte, size)
	binary.BigEndian.PutUint32(out[0:4], uint32(size))
	binary.BigEndian.PutUint16(out[4:6], typeAndFlags)
	copy(out[6:], body)
	return out
}

func TestFeedEmitsCompleteFrame(t *testing.T) {
	r := New(2<<20, 4<<20)
	key := flowKeyFor("10.0.0.1", 1, "10.0.0.2", 2)

	frame := frameOf(t, 2, []byte("payload"))
	frames := r.Feed(key, frame)

	require.Len(t, frames, 1)
	assert.Equal(t, frame, frames[0])
}

func TestFeedWaitsForMoreBytes(t *testing.T) {
	r := New(2<<20, 4<<20)
	key := flowKeyFor("10.0.0.1", 1, "10.0.0.2", 2)

	frame := frameOf(t, 2, []byte("payload"))
	frames := r.Feed(key, frame[:len(frame)-2])
	assert.Empty(t, frames)

	frames = r.Feed(key, frame[len(frame)-2:])
	require.Len(t, frames, 1)
	assert.Equal(t, frame, frames[0])
}

func TestFeedResyncsOnUndersizedLength(t *testing.T) {
	r := New(2<<20, 4<<20)
	key := flowKeyFor("10.0.0.1", 1, "10.0.0.2", 2)

	garbage := make([]byte, 4)
	binary.BigEndian.PutUint32(garbage, 3) // < minFrameSize, triggers resync
	frame := frameOf(t, 2, []byte("payload"))

	frames := r.Feed(key, append(garbage, frame...))
	require.Len(t, frames, 1)
	assert.Equal(t, frame, frames[0])
}

func TestFeedResyncsOnOversizedLength(t *testing.T) {
	r := New(10, 4<<20)
	key := flowKeyFor("10.0.0.1", 1, "10.0.0.2", 2)

	garbage := make([]byte, 4)
	binary.BigEndian.PutUint32(garbage, 1000) // > maxFrameBytes, resync forever
	frames := r.Feed(key, garbage)
	assert.Empty(t, frames)
}

func TestFeedEvictsFlowExceedingBufferCap(t *testing.T) {
	r := New(2<<20, 8)
	key := flowKeyFor("10.0.0.1", 1, "10.0.0.2", 2)

	frames := r.Feed(key, make([]byte, 100))
	assert.Empty(t, frames)
	assert.Len(t, r.flows, 0)
}

func TestSweepReclaimsIdleFlow(t *testing.T) {
	r := New(2<<20, 4<<20)
	key := flowKeyFor("10.0.0.1", 1, "10.0.0.2", 2)
	r.Feed(key, []byte{0, 0, 0, 1})

	r.flows[key].lastSeen = time.Now().Add(-time.Hour)
	r.Sweep(time.Minute)

	assert.Len(t, r.flows, 0)
}
