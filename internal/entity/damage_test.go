package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nearcap/nearcap/internal/schema"
)

func TestDispatchSyncNearDeltaInfoEmitsPlayerToMonsterDamage(t *testing.T) {
	// Mirrors spec.md S1: target uuid ending 0x0002 (monster), attacker
	// uuid ending 0x0001 (player), Value=1234, TypeFlag=1, Property=4.
	s := newFakeSink()
	d := New(s)

	delta := schema.AoIDelta{
		UUID: 0x00020000000a0002,
		Events: []schema.DamageEventRecord{
			{OwnerID: 7, AttackerUUID: 0x00010000000a0001, Value: 1234, TypeFlag: 1, Property: 4},
		},
	}
	d.DispatchSyncNearDeltaInfo([]schema.AoIDelta{delta})

	require.Len(t, s.playerDamage, 1)
	ev := s.playerDamage[0]
	assert.Equal(t, int64(1234), ev.Value)
	assert.True(t, ev.IsCrit)
	assert.Equal(t, "Thunder", ev.DamageElement)
	assert.Empty(t, s.damageToPlayer)
}

func TestDispatchDamageEventDropsPlayerToPlayer(t *testing.T) {
	s := newFakeSink()
	d := New(s)

	delta := schema.AoIDelta{
		UUID: 0x0001, // player target
		Events: []schema.DamageEventRecord{
			{OwnerID: 1, AttackerUUID: 0x00020001, Value: 10}, // attacker low16=1 -> player
		},
	}
	d.DispatchSyncNearDeltaInfo([]schema.AoIDelta{delta})

	assert.Empty(t, s.playerDamage)
	assert.Empty(t, s.damageToPlayer)
}

func TestDispatchDamageEventMonsterToPlayer(t *testing.T) {
	s := newFakeSink()
	d := New(s)

	delta := schema.AoIDelta{
		UUID: 0x0001, // player target
		Events: []schema.DamageEventRecord{
			{OwnerID: 2, AttackerUUID: 0x0002, Value: 50}, // attacker low16=2 -> monster
		},
	}
	d.DispatchSyncNearDeltaInfo([]schema.AoIDelta{delta})

	require.Len(t, s.damageToPlayer, 1)
	assert.Equal(t, int64(50), s.damageToPlayer[0].Value)
}

func TestDispatchDamageEventUsesTopSummonerOverride(t *testing.T) {
	s := newFakeSink()
	d := New(s)

	delta := schema.AoIDelta{
		UUID: 0x0002, // monster target
		Events: []schema.DamageEventRecord{
			{OwnerID: 1, AttackerUUID: 0x0099, HasTopSummoner: true, TopSummonerID: 0x0001, Value: 20},
		},
	}
	d.DispatchSyncNearDeltaInfo([]schema.AoIDelta{delta})

	require.Len(t, s.playerDamage, 1)
	assert.Equal(t, int64(20), s.playerDamage[0].Value)
}

func TestDispatchDamageEventDroppedWhenDamageIsZero(t *testing.T) {
	s := newFakeSink()
	d := New(s)

	delta := schema.AoIDelta{
		UUID: 0x0002,
		Events: []schema.DamageEventRecord{
			{OwnerID: 1, AttackerUUID: 0x0001, Value: 0},
		},
	}
	d.DispatchSyncNearDeltaInfo([]schema.AoIDelta{delta})

	assert.Empty(t, s.playerDamage)
}

func TestDispatchDamageEventFallsBackToLuckyValue(t *testing.T) {
	s := newFakeSink()
	d := New(s)

	delta := schema.AoIDelta{
		UUID: 0x0002,
		Events: []schema.DamageEventRecord{
			{OwnerID: 1, AttackerUUID: 0x0001, HasLuckyValue: true, LuckyValue: 99},
		},
	}
	d.DispatchSyncNearDeltaInfo([]schema.AoIDelta{delta})

	require.Len(t, s.playerDamage, 1)
	assert.Equal(t, int64(99), s.playerDamage[0].LuckyValue)
	assert.True(t, s.playerDamage[0].IsLucky)
}

func TestDispatchSyncToMeDeltaInfoTracksLocalPlayer(t *testing.T) {
	s := newFakeSink()
	d := New(s)

	d.DispatchSyncToMeDeltaInfo(schema.AoIDelta{UUID: 0x0001})

	shortID, ok := d.LocalPlayerShortID()
	require.True(t, ok)
	assert.Equal(t, uint64(0), shortID)
}
