package entity

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nearcap/nearcap/internal/core"
	"github.com/nearcap/nearcap/internal/schema"
)

func nameBlob(name string) []byte {
	b := make([]byte, 4+4+len(name)+4)
	binary.LittleEndian.PutUint32(b[0:4], uint32(len(name)))
	copy(b[8:8+len(name)], name)
	return b
}

func numericBlob(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// fakeSink records every call for assertions, mirroring the teacher's
// table-test style of asserting against a recorded call log rather
// than a full mock framework.
type fakeSink struct {
	names             map[uint64]string
	professions       map[uint64]string
	fightPoints       map[uint64]uint32
	levels            map[uint64]uint32
	enemyNames        map[uint64]string
	enemyIDs          map[uint64]uint32
	enemyHPs          map[uint64]uint32
	enemyMaxHPs       map[uint64]uint32
	enemyReductionLvl map[uint64]uint32
	enemyReductionID  map[uint64]uint32
	enemyElements     map[uint64]string
	enemiesAdded      []core.EnemySnapshot
	playerDamage      []core.DamageEvent
	damageToPlayer    []core.DamageEvent
	positions         []core.PlayerPosition
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		names:             map[uint64]string{},
		professions:       map[uint64]string{},
		fightPoints:       map[uint64]uint32{},
		levels:            map[uint64]uint32{},
		enemyNames:        map[uint64]string{},
		enemyIDs:          map[uint64]uint32{},
		enemyHPs:          map[uint64]uint32{},
		enemyMaxHPs:       map[uint64]uint32{},
		enemyReductionLvl: map[uint64]uint32{},
		enemyReductionID:  map[uint64]uint32{},
		enemyElements:     map[uint64]string{},
	}
}

func (f *fakeSink) SetName(shortID uint64, name string)             { f.names[shortID] = name }
func (f *fakeSink) SetProfession(shortID uint64, profession string) { f.professions[shortID] = profession }
func (f *fakeSink) SetFightPoint(shortID uint64, value uint32)      { f.fightPoints[shortID] = value }
func (f *fakeSink) SetLevel(shortID uint64, value uint32)           { f.levels[shortID] = value }

func (f *fakeSink) SetEnemyName(shortID uint64, name string)        { f.enemyNames[shortID] = name }
func (f *fakeSink) SetEnemyID(shortID uint64, id uint32)            { f.enemyIDs[shortID] = id }
func (f *fakeSink) SetEnemyHP(shortID uint64, hp uint32)            { f.enemyHPs[shortID] = hp }
func (f *fakeSink) SetEnemyMaxHP(shortID uint64, maxHP uint32)      { f.enemyMaxHPs[shortID] = maxHP }
func (f *fakeSink) SetEnemyReductionLevel(shortID uint64, v uint32) { f.enemyReductionLvl[shortID] = v }
func (f *fakeSink) SetEnemyReductionID(shortID uint64, v uint32)    { f.enemyReductionID[shortID] = v }
func (f *fakeSink) SetEnemyElement(shortID uint64, element string)  { f.enemyElements[shortID] = element }
func (f *fakeSink) AddEnemy(snapshot core.EnemySnapshot)            { f.enemiesAdded = append(f.enemiesAdded, snapshot) }

func (f *fakeSink) ProcessPlayerDamage(event core.DamageEvent) { f.playerDamage = append(f.playerDamage, event) }
func (f *fakeSink) ProcessDamageToPlayer(event core.DamageEvent) {
	f.damageToPlayer = append(f.damageToPlayer, event)
}

func (f *fakeSink) SetLocalPosition(pos core.PlayerPosition) { f.positions = append(f.positions, pos) }

func TestDispatchSyncNearEntitiesTracksLocalPlayerAndProfession(t *testing.T) {
	s := newFakeSink()
	d := New(s)

	prof := uint32(23)
	entities := []schema.Entity{
		{UUID: 0x00010000000a0001, HasProfessionID: true, ProfessionID: prof},
	}

	d.DispatchSyncNearEntities(entities)

	shortID, ok := d.LocalPlayerShortID()
	require.True(t, ok)
	assert.Equal(t, uint64(0x00010000000a0001)>>16, shortID)
	assert.Equal(t, "涤罪恶火_战斧", s.professions[shortID])
}

func TestLocalPlayerReplacedByDistinctUUID(t *testing.T) {
	s := newFakeSink()
	d := New(s)

	d.considerLocalPlayer(0x0001) // shortID 0, class player
	d.considerLocalPlayer(0x00020001) // distinct uuid, same class, shortID 2

	shortID, ok := d.LocalPlayerShortID()
	require.True(t, ok)
	assert.Equal(t, uint64(2), shortID)
}

func TestDispatchSyncContainerDataAppliesAttributeSettersForPlayer(t *testing.T) {
	s := newFakeSink()
	d := New(s)

	e := schema.Entity{
		UUID: 0x0001,
		Attrs: []schema.AttrKV{
			{AttrID: 0x01, AttrData: nameBlob("Alice")},
			{AttrID: 0x2710, AttrData: numericBlob(60)},
		},
	}
	d.DispatchSyncContainerData(e)

	assert.Equal(t, "Alice", s.names[0])
	assert.Equal(t, uint32(60), s.levels[0])
}

func TestMonsterRegistrationGateRequiresNameAndMaxHP(t *testing.T) {
	s := newFakeSink()
	d := New(s)

	monsterUUID := uint64(0x0002)
	e1 := schema.Entity{UUID: monsterUUID, Attrs: []schema.AttrKV{
		{AttrID: 0x01, AttrData: nameBlob("Slime")},
	}}
	d.DispatchSyncContainerData(e1)
	assert.Empty(t, s.enemiesAdded, "must not register before max_hp is known")

	e2 := schema.Entity{UUID: monsterUUID, Attrs: []schema.AttrKV{
		{AttrID: 0x2c38, AttrData: numericBlob(500)},
	}}
	d.DispatchSyncContainerData(e2)

	require.Len(t, s.enemiesAdded, 1)
	assert.Equal(t, "Slime", s.enemiesAdded[0].Name)
	assert.Equal(t, uint32(500), s.enemiesAdded[0].MaxHP)
}

func TestUnknownClassificationIsDropped(t *testing.T) {
	s := newFakeSink()
	d := New(s)

	e := schema.Entity{UUID: 0x0099, HasProfessionID: true, ProfessionID: 21}
	d.DispatchSyncContainerData(e)

	assert.Empty(t, s.professions)
}

func TestResetClearsLocalPlayerAndMonsterState(t *testing.T) {
	s := newFakeSink()
	d := New(s)
	d.considerLocalPlayer(0x0001)

	d.Reset()

	_, ok := d.LocalPlayerShortID()
	assert.False(t, ok)
}
