package schema

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePosition(x, y, z, dir float32, moveVersion uint32) []byte {
	var b []byte
	b = appendFixed32Field(b, fieldMoveX, math.Float32bits(x))
	b = appendFixed32Field(b, fieldMoveY, math.Float32bits(y))
	b = appendFixed32Field(b, fieldMoveZ, math.Float32bits(z))
	b = appendFixed32Field(b, fieldMoveDir, math.Float32bits(dir))
	b = appendVarintField(b, fieldMoveMoveVersion, uint64(moveVersion))
	return b
}

func TestDecodeNewMoveYieldsPosition(t *testing.T) {
	body := encodePosition(1.5, 2.5, 3.5, 0.25, 9)

	pos, err := DecodeNewMove(body)
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), pos.X)
	assert.Equal(t, float32(2.5), pos.Y)
	assert.Equal(t, float32(3.5), pos.Z)
	assert.Equal(t, float32(0.25), pos.Dir)
	assert.Equal(t, uint32(9), pos.MoveVersion)
}

func TestDecodeMovementFallsThroughToUserControlInfo(t *testing.T) {
	// Both schemas share the same shape in this decoder, so a
	// well-formed body always succeeds on the first attempt; this
	// exercises the fallback call path directly.
	body := encodePosition(0, 0, 0, 0, 1)

	pos, err := DecodeUserControlInfo(body)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), pos.MoveVersion)
}

func TestDecodeMovementDiscardsOnBothFailures(t *testing.T) {
	_, ok := DecodeMovement([]byte{0xff})
	assert.False(t, ok)
}

func TestDecodeMovementSucceeds(t *testing.T) {
	body := encodePosition(10, 20, 30, 1, 2)

	pos, ok := DecodeMovement(body)
	require.True(t, ok)
	assert.Equal(t, float32(10), pos.X)
}
