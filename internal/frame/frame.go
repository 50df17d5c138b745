// Package frame implements the Outer Frame Parser (spec.md §4.4) and
// the Codec (spec.md §4.5): envelope decoding, compression-bit
// extraction, bounded container-envelope recursion, and Zstandard
// block decompression. Zstandard is not exercised anywhere in the
// example pack (see DESIGN.md); klauspost/compress/zstd is named here
// as the out-of-pack ecosystem choice.
package frame

import (
	"encoding/binary"

	"github.com/klauspost/compress/zstd"

	"github.com/nearcap/nearcap/internal/core"
	"github.com/nearcap/nearcap/internal/metrics"
)

// MessageType is the low 15 bits of an outer frame's type_and_flags
// field (spec.md §3).
type MessageType uint16

const (
	TypeNone      MessageType = 0
	TypeCall      MessageType = 1
	TypeNotify    MessageType = 2
	TypeReturn    MessageType = 3
	TypeEcho      MessageType = 4
	TypeFrameUp   MessageType = 5
	TypeFrameDown MessageType = 6
)

func (t MessageType) isContainer() bool {
	switch t {
	case TypeCall, TypeEcho, TypeFrameUp, TypeFrameDown:
		return true
	default:
		return false
	}
}

const compressedFlag = 0x8000
const typeMask = 0x7fff

// Notify is a parsed Notify envelope's remaining body, decompressed
// if its compression bit was set.
type Notify struct {
	Body []byte
}

// Codec performs synchronous Zstandard block decompression. A single
// shared *zstd.Decoder is safe for concurrent DecodeAll calls, so one
// Codec may be shared by every reassembly shard without per-frame
// decoder allocation (spec.md §4.12's sharding extension).
type Codec struct {
	dec *zstd.Decoder
}

// NewCodec builds the shared decompressor. It panics only if the
// zstd library itself fails to construct a decoder with no options,
// which indicates a broken build rather than a runtime condition.
func NewCodec() *Codec {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}
	return &Codec{dec: dec}
}

// Decompress expands one Zstandard block. Failure is per-frame, never
// fatal (spec.md §4.5, §7).
func (c *Codec) Decompress(data []byte) ([]byte, error) {
	out, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		metrics.CountError(core.KindDecompressionFailure)
		return nil, err
	}
	return out, nil
}

// Parser decodes outer frames, unwrapping container envelopes up to
// maxNesting levels deep (spec.md §4.4, §6).
type Parser struct {
	codec      *Codec
	maxNesting int
}

// NewParser returns a Parser sharing codec across calls.
func NewParser(codec *Codec, maxNesting int) *Parser {
	return &Parser{codec: codec, maxNesting: maxNesting}
}

// Parse decodes one complete outer frame (as sliced by the
// Reassembler, size prefix included) and returns the Notify body,
// if any. ok is false when the frame is a no-op (Return), an unknown
// type (dropped silently), or recursion/decompression failed.
func (p *Parser) Parse(raw []byte) (notify Notify, ok bool) {
	return p.parse(raw, 0)
}

func (p *Parser) parse(raw []byte, depth int) (Notify, bool) {
	if depth >= p.maxNesting {
		return Notify{}, false
	}
	if len(raw) < 6 {
		return Notify{}, false
	}

	typeAndFlags := binary.BigEndian.Uint16(raw[4:6])
	compressed := typeAndFlags&compressedFlag != 0
	msgType := MessageType(typeAndFlags & typeMask)
	remainder := raw[6:]

	if compressed {
		plain, err := p.codec.Decompress(remainder)
		if err != nil {
			return Notify{}, false
		}
		remainder = plain
	}

	switch {
	case msgType == TypeNotify:
		return Notify{Body: remainder}, true
	case msgType == TypeReturn:
		return Notify{}, false
	case msgType.isContainer():
		return p.parse(remainder, depth+1)
	default:
		return Notify{}, false
	}
}
