// Package schema implements the Schema Decoder (spec.md §4.7) and the
// Attribute Blob Reader (spec.md §3, §4.15) on top of
// google.golang.org/protobuf/encoding/protowire: each method-id's
// shape is a small hand-written walker over the protobuf wire format,
// tolerating unknown fields and surfacing missing required fields as
// a per-frame decode error, exactly as spec.md §4.7 requires. No
// generated .pb.go types are used — protowire plays the role of the
// schema compiler's runtime support library that spec.md §1 assumes
// is available out of scope.
package schema

import (
	"errors"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/nearcap/nearcap/internal/core"
	"github.com/nearcap/nearcap/internal/metrics"
)

// ErrMissingField is returned by decode functions when a required
// field never appeared in the message.
var ErrMissingField = errors.New("nearcap: missing required schema field")

// field holds one decoded field's raw value, keyed by its wire type
// so callers can assert the shape they expect.
type field struct {
	number protowire.Number
	typ    protowire.Type
	varint uint64
	bytes  []byte
}

// parseFields walks data once, tolerating and skipping unknown field
// wire types, and returns every field in arrival order in `all`,
// repeats included, since message-shape repeats (e.g. Entities[],
// Attrs[], Events[]) need every occurrence. firstVarint/firstBytes
// take the first occurrence of a number; allBytes takes all of them.
func parseFields(data []byte) (all []field, err error) {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		data = data[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			all = append(all, field{number: num, typ: typ, varint: v})
			data = data[n:]
		case protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			all = append(all, field{number: num, typ: typ, varint: uint64(v)})
			data = data[n:]
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			all = append(all, field{number: num, typ: typ, varint: v})
			data = data[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			all = append(all, field{number: num, typ: typ, bytes: v})
			data = data[n:]
		default:
			// Unknown/group wire types: skip via ConsumeFieldValue,
			// tolerating schemas evolving ahead of this decoder
			// (spec.md §4.7).
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return all, nil
}

func firstVarint(fields []field, number protowire.Number) (uint64, bool) {
	for _, f := range fields {
		if f.number == number && f.typ != protowire.BytesType {
			return f.varint, true
		}
	}
	return 0, false
}

func firstBytes(fields []field, number protowire.Number) ([]byte, bool) {
	for _, f := range fields {
		if f.number == number && f.typ == protowire.BytesType {
			return f.bytes, true
		}
	}
	return nil, false
}

func allBytes(fields []field, number protowire.Number) [][]byte {
	var out [][]byte
	for _, f := range fields {
		if f.number == number && f.typ == protowire.BytesType {
			out = append(out, f.bytes)
		}
	}
	return out
}

func decodeFailure() {
	metrics.CountError(core.KindSchemaDecodeFailure)
}
