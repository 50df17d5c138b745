// Package flow implements the Flow Demultiplexer (spec.md §4.2):
// Ethernet/IPv4/TCP field extraction and payload slicing, with no TCP
// sequence tracking — the system operates best-effort on observed
// byte order, matching the teacher's direct-layer decode approach in
// pkg/codec rather than a full gopacket.NewPacket parse.
package flow

import (
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/nearcap/nearcap/internal/core"
	"github.com/nearcap/nearcap/internal/metrics"
)

// Demultiplexer reuses one set of layer structs and a
// DecodingLayerParser across calls so per-packet demuxing does not
// allocate.
type Demultiplexer struct {
	eth     layers.Ethernet
	ip4     layers.IPv4
	tcp     layers.TCP
	parser  *gopacket.DecodingLayerParser
	decoded []gopacket.LayerType
}

// New returns a Demultiplexer bound to a single goroutine (spec.md
// §5's single producer thread).
func New() *Demultiplexer {
	d := &Demultiplexer{}
	d.parser = gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &d.eth, &d.ip4, &d.tcp)
	d.parser.IgnoreUnsupported = true
	return d
}

// Extract parses one captured link-layer frame and returns its
// directed 4-tuple and TCP payload. ok is false when the frame is
// dropped per spec.md §4.2 (not IPv4, not TCP, or non-positive
// payload length).
func (d *Demultiplexer) Extract(data []byte) (key core.FlowKey, payload []byte, ok bool) {
	d.decoded = d.decoded[:0]
	if err := d.parser.DecodeLayers(data, &d.decoded); err != nil {
		metrics.PacketsDroppedTotal.WithLabelValues("decode_error").Inc()
		return core.FlowKey{}, nil, false
	}

	var sawIPv4, sawTCP bool
	for _, lt := range d.decoded {
		switch lt {
		case layers.LayerTypeIPv4:
			sawIPv4 = true
		case layers.LayerTypeTCP:
			sawTCP = true
		}
	}
	if !sawIPv4 {
		metrics.PacketsDroppedTotal.WithLabelValues("not_ipv4").Inc()
		return core.FlowKey{}, nil, false
	}
	if !sawTCP {
		metrics.PacketsDroppedTotal.WithLabelValues("not_tcp").Inc()
		return core.FlowKey{}, nil, false
	}

	payload = d.tcp.LayerPayload()
	if len(payload) == 0 {
		metrics.PacketsDroppedTotal.WithLabelValues("empty_payload").Inc()
		return core.FlowKey{}, nil, false
	}

	srcIP, _ := netip.AddrFromSlice(d.ip4.SrcIP.To4())
	dstIP, _ := netip.AddrFromSlice(d.ip4.DstIP.To4())

	key = core.FlowKey{
		SrcIP:   srcIP,
		SrcPort: uint16(d.tcp.SrcPort),
		DstIP:   dstIP,
		DstPort: uint16(d.tcp.DstPort),
	}
	return key, payload, true
}
