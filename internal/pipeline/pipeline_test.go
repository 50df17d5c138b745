package pipeline

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nearcap/nearcap/internal/config"
	"github.com/nearcap/nearcap/internal/core"
	"github.com/nearcap/nearcap/internal/entity"
	"github.com/nearcap/nearcap/internal/frame"
)

// recordingSink mirrors internal/entity's fakeSink, kept separate
// since pipeline tests exercise the wiring, not the dispatch logic
// itself (already covered in internal/entity).
type recordingSink struct {
	professions    map[uint64]string
	playerDamage   []core.DamageEvent
	damageToPlayer []core.DamageEvent
}

func newRecordingSink() *recordingSink {
	return &recordingSink{professions: map[uint64]string{}}
}

func (r *recordingSink) SetName(uint64, string)                   {}
func (r *recordingSink) SetProfession(shortID uint64, p string)    { r.professions[shortID] = p }
func (r *recordingSink) SetFightPoint(uint64, uint32)              {}
func (r *recordingSink) SetLevel(uint64, uint32)                   {}
func (r *recordingSink) SetEnemyName(uint64, string)               {}
func (r *recordingSink) SetEnemyID(uint64, uint32)                 {}
func (r *recordingSink) SetEnemyHP(uint64, uint32)                 {}
func (r *recordingSink) SetEnemyMaxHP(uint64, uint32)               {}
func (r *recordingSink) SetEnemyReductionLevel(uint64, uint32)      {}
func (r *recordingSink) SetEnemyReductionID(uint64, uint32)         {}
func (r *recordingSink) SetEnemyElement(uint64, string)             {}
func (r *recordingSink) AddEnemy(core.EnemySnapshot)                {}
func (r *recordingSink) ProcessPlayerDamage(ev core.DamageEvent)    { r.playerDamage = append(r.playerDamage, ev) }
func (r *recordingSink) ProcessDamageToPlayer(ev core.DamageEvent)  { r.damageToPlayer = append(r.damageToPlayer, ev) }
func (r *recordingSink) SetLocalPosition(core.PlayerPosition)       {}

func testLoader(t *testing.T) *config.Loader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nearcap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nearcap:\n  capture:\n    selected_device: 0\n"), 0o644))
	l, err := config.Load(path)
	require.NoError(t, err)
	return l
}

// newTestPipeline builds a Pipeline with its frame-processing
// components wired but without opening any capture device, letting
// handleFrame be exercised directly.
func newTestPipeline(t *testing.T, s *recordingSink) *Pipeline {
	t.Helper()
	loader := testLoader(t)
	p := New(Config{Loader: loader, Sink: s})
	p.dispatcher = entity.New(s)
	p.frameParse = frame.NewParser(frame.NewCodec(), loader.Safety.MaxEnvelopeNesting())
	return p
}

func outerFrame(typeAndFlags uint16, body []byte) []byte {
	size := 6 + len(body)
	out := make([]byte, size)
	binary.BigEndian.PutUint32(out[0:4], uint32(size))
	binary.BigEndian.PutUint16(out[4:6], typeAndFlags)
	copy(out[6:], body)
	return out
}

func notifyBody(serviceID uint64, stubID, methodID uint32, payload []byte) []byte {
	b := make([]byte, 16+len(payload))
	binary.BigEndian.PutUint64(b[0:8], serviceID)
	binary.BigEndian.PutUint32(b[8:12], stubID)
	binary.BigEndian.PutUint32(b[12:16], methodID)
	copy(b[16:], payload)
	return b
}

func appendVarintField(dst []byte, num int, v uint64) []byte {
	var tmp [10]byte
	n := binary.PutUvarint(tmp[:], uint64(num)<<3)
	dst = append(dst, tmp[:n]...)
	n = binary.PutUvarint(tmp[:], v)
	return append(dst, tmp[:n]...)
}

// syncNearEntitiesBody builds a minimal SyncNearEntities body with one
// player entity carrying CurProfessionId, mirroring spec.md S6.
func syncNearEntitiesBody(uuid uint64, professionID uint32) []byte {
	var char []byte
	char = appendVarintField(char, 1, uint64(professionID))

	var container []byte
	container = appendVarintField(container, 1, uuid)
	container = append(container, lengthDelimited(2, char)...)

	return lengthDelimited(1, container)
}

func lengthDelimited(fieldNum int, data []byte) []byte {
	var tmp [10]byte
	n := binary.PutUvarint(tmp[:], uint64(fieldNum)<<3|2)
	out := append([]byte{}, tmp[:n]...)
	n = binary.PutUvarint(tmp[:], uint64(len(data)))
	out = append(out, tmp[:n]...)
	return append(out, data...)
}

func TestHandleFrameDispatchesSyncNearEntitiesProfession(t *testing.T) {
	s := newRecordingSink()
	p := newTestPipeline(t, s)

	body := syncNearEntitiesBody(0x00010000000a0001, 23)
	n := notifyBody(0x63335342, 1, 0x00000006, body)
	raw := outerFrame(uint16(2), n) // type=Notify

	p.handleFrame(raw)

	assert.Equal(t, "涤罪恶火_战斧", s.professions[uint64(0x00010000000a0001)>>16])
}

func TestHandleFrameDropsWrongServiceID(t *testing.T) {
	s := newRecordingSink()
	p := newTestPipeline(t, s)

	body := syncNearEntitiesBody(0x0001, 23)
	n := notifyBody(0x00000001, 1, 0x00000006, body)
	raw := outerFrame(uint16(2), n)

	p.handleFrame(raw)

	assert.Empty(t, s.professions)
	assert.Equal(t, uint64(1), p.metrics.NotifyRejected.Load())
}

func TestHandleFrameUnwrapsCompressedContainer(t *testing.T) {
	s := newRecordingSink()
	p := newTestPipeline(t, s)

	body := syncNearEntitiesBody(0x0001, 21)
	n := notifyBody(0x63335342, 1, 0x00000006, body)
	nested := outerFrame(uint16(2), n)

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll(nested, nil)
	require.NoError(t, enc.Close())

	container := outerFrame(uint16(4)|0x8000, compressed) // type=Echo, compressed
	p.handleFrame(container)

	assert.Equal(t, "雷影剑士", s.professions[0])
}

func TestOnFrameForwardsToFrameChan(t *testing.T) {
	s := newRecordingSink()
	p := newTestPipeline(t, s)
	p.ctx, p.cancel = context.WithCancel(context.Background())
	defer p.cancel()

	p.frameChan = make(chan []byte, 1)
	p.onFrame(core.FlowKey{}, []byte("frame"))

	select {
	case got := <-p.frameChan:
		assert.Equal(t, []byte("frame"), got)
	default:
		t.Fatal("expected frame to be forwarded")
	}
}
