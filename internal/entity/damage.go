package entity

import (
	"github.com/nearcap/nearcap/internal/core"
	"github.com/nearcap/nearcap/internal/metrics"
	"github.com/nearcap/nearcap/internal/schema"
)

// DispatchSyncToMeDeltaInfo handles the local player's own AoI delta
// (spec.md §4.6 method_id 0x2e). Its uuid is a local-player candidate
// per the glossary.
func (d *Dispatcher) DispatchSyncToMeDeltaInfo(delta schema.AoIDelta) {
	d.considerLocalPlayer(delta.UUID)
	d.dispatchAoIDelta(delta)
}

// DispatchSyncNearDeltaInfo handles a list of AoI deltas (spec.md §4.6
// method_id 0x2d).
func (d *Dispatcher) DispatchSyncNearDeltaInfo(deltas []schema.AoIDelta) {
	for _, delta := range deltas {
		d.dispatchAoIDelta(delta)
	}
}

// DispatchSyncServerTime handles the AoI delta wrapped by a
// server-time push (spec.md §4.6 method_id 0x2b).
func (d *Dispatcher) DispatchSyncServerTime(delta schema.AoIDelta) {
	d.dispatchAoIDelta(delta)
}

func (d *Dispatcher) dispatchAoIDelta(delta schema.AoIDelta) {
	class, shortID, ok := classifyOrDrop(delta.UUID)
	if ok {
		for _, kv := range delta.Attrs {
			d.applyAttribute(class, shortID, kv.AttrID, kv.AttrData)
		}
		if class == core.ClassMonster {
			d.maybeRegisterEnemy(shortID)
		}
	}

	// Damage events are emitted in schema-declared order (spec.md §5)
	// regardless of whether the delta's own uuid classified, since the
	// event's target classification is derived independently below.
	for _, ev := range delta.Events {
		d.dispatchDamageEvent(delta.UUID, ev)
	}
}

// dispatchDamageEvent implements spec.md §4.8's damage filtering:
// effective attacker = TopSummonerId if non-zero else AttackerUuid;
// only player→monster and monster→player pairings are emitted.
func (d *Dispatcher) dispatchDamageEvent(targetUUID uint64, ev schema.DamageEventRecord) {
	attackerUUID := ev.AttackerUUID
	if ev.HasTopSummoner {
		attackerUUID = ev.TopSummonerID
	}

	attackerClass, attackerShortID := core.ClassifyUUID(attackerUUID)
	targetClass, targetShortID := core.ClassifyUUID(targetUUID)

	var direction string
	switch {
	case attackerClass == core.ClassPlayer && targetClass == core.ClassMonster:
		direction = "player_to_monster"
	case attackerClass == core.ClassMonster && targetClass == core.ClassPlayer:
		direction = "monster_to_player"
	default:
		return
	}

	damage := ev.Value
	if !ev.HasValue {
		damage = ev.LuckyValue
	}
	if damage == 0 {
		return
	}

	event := core.DamageEvent{
		AttackerShortID: attackerShortID,
		TargetShortID:   targetShortID,
		SkillID:         ev.OwnerID,
		Value:           ev.Value,
		LuckyValue:      ev.LuckyValue,
		IsCrit:          ev.TypeFlag&1 != 0,
		IsCauseLucky:    ev.TypeFlag&4 != 0,
		IsMiss:          ev.IsMiss,
		IsHeal:          ev.Type == schema.EventTypeHeal,
		IsDead:          ev.IsDead,
		IsLucky:         ev.HasLuckyValue,
		HPLessenValue:   ev.HpLessenValue,
		DamageElement:   core.ElementLabel(ev.Property),
		DamageSource:    ev.DamageSource,
	}

	metrics.DamageEventsTotal.WithLabelValues(direction).Inc()

	switch direction {
	case "player_to_monster":
		d.sink.ProcessPlayerDamage(event)
	case "monster_to_player":
		d.sink.ProcessDamageToPlayer(event)
	}
}
