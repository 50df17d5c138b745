package schema

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers for the two movement schemas tried in order by the
// Opportunistic Movement Decoder (spec.md §4.9). Both share the same
// position shape; NewMove is tried first, UserControlInfo second.
const (
	fieldMoveX           protowire.Number = 1
	fieldMoveY           protowire.Number = 2
	fieldMoveZ           protowire.Number = 3
	fieldMoveDir         protowire.Number = 4
	fieldMoveMoveVersion protowire.Number = 5
)

// Position is the record spec.md §4.9 publishes to the sink as the
// local player's position, keyed externally by the current local
// player short id.
type Position struct {
	X, Y, Z     float32
	Dir         float32
	MoveVersion uint32
}

func decodePosition(data []byte) (Position, error) {
	fields, err := parseFields(data)
	if err != nil {
		return Position{}, err
	}

	x, ok := firstVarint(fields, fieldMoveX)
	if !ok {
		return Position{}, ErrMissingField
	}
	y, ok := firstVarint(fields, fieldMoveY)
	if !ok {
		return Position{}, ErrMissingField
	}
	z, ok := firstVarint(fields, fieldMoveZ)
	if !ok {
		return Position{}, ErrMissingField
	}

	pos := Position{
		X: fixed32ToFloat(x),
		Y: fixed32ToFloat(y),
		Z: fixed32ToFloat(z),
	}
	if dir, ok := firstVarint(fields, fieldMoveDir); ok {
		pos.Dir = fixed32ToFloat(dir)
	}
	if mv, ok := firstVarint(fields, fieldMoveMoveVersion); ok {
		pos.MoveVersion = uint32(mv)
	}
	return pos, nil
}

// fixed32ToFloat reinterprets a wire Fixed32 field's raw 32-bit
// pattern as IEEE-754 float32, as protobuf's float scalar type does.
func fixed32ToFloat(v uint64) float32 {
	return math.Float32frombits(uint32(v))
}

// DecodeNewMove tries the first of the two movement schemas
// (spec.md §4.9).
func DecodeNewMove(body []byte) (Position, error) {
	pos, err := decodePosition(body)
	if err != nil {
		decodeFailure()
		return Position{}, err
	}
	return pos, nil
}

// DecodeUserControlInfo tries the fallback movement schema, attempted
// only after DecodeNewMove fails (spec.md §4.9).
func DecodeUserControlInfo(body []byte) (Position, error) {
	pos, err := decodePosition(body)
	if err != nil {
		decodeFailure()
		return Position{}, err
	}
	return pos, nil
}

// DecodeMovement runs the NewMove-then-UserControlInfo fallback chain
// and reports the first schema that yields a position record. Any
// decode error falls through silently to the next attempt or to
// discard, exactly as spec.md §4.9 describes.
func DecodeMovement(body []byte) (Position, bool) {
	if pos, err := DecodeNewMove(body); err == nil {
		return pos, true
	}
	if pos, err := DecodeUserControlInfo(body); err == nil {
		return pos, true
	}
	return Position{}, false
}
