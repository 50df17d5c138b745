// Package entity implements the Entity/Event Dispatcher (spec.md
// §4.8): it classifies entity UUIDs, tracks the local player, applies
// decoded attribute patches to the sink, and turns AoI delta damage
// records into filtered sink events.
package entity

import (
	"github.com/nearcap/nearcap/internal/core"
	"github.com/nearcap/nearcap/internal/log"
	"github.com/nearcap/nearcap/internal/metrics"
	"github.com/nearcap/nearcap/internal/schema"
	"github.com/nearcap/nearcap/internal/sink"
)

// monsterState accumulates a monster's patched attributes across
// multiple SyncContainerDirtyData calls, since spec.md §4.8's
// registration gate ("non-default name and max_hp > 0") depends on
// fields that usually arrive in separate patches.
type monsterState struct {
	name           string
	id             uint32
	hp             uint32
	maxHP          uint32
	reductionLevel uint32
	reductionID    uint32
	elementFlag    uint32
	registered     bool
}

func (m *monsterState) eligible() bool {
	return m.name != "" && m.maxHP > 0
}

// Dispatcher holds the instance state spec.md §9 moves out of process
// globals: the current local player and per-monster accumulated
// attribute state, both re-initialized on device switch.
type Dispatcher struct {
	sink sink.Sink

	hasLocalPlayer  bool
	localPlayerUUID uint64
	localShortID    uint64

	monsters map[uint64]*monsterState
}

// New returns a Dispatcher pushing decoded state into s.
func New(s sink.Sink) *Dispatcher {
	return &Dispatcher{sink: s, monsters: make(map[uint64]*monsterState)}
}

// Reset clears local-player tracking and monster accumulation
// (spec.md §5, §9). Pipeline does not call it: a device switch builds
// a fresh Dispatcher.
func (d *Dispatcher) Reset() {
	d.hasLocalPlayer = false
	d.localPlayerUUID = 0
	d.localShortID = 0
	d.monsters = make(map[uint64]*monsterState)
}

// LocalPlayerShortID reports the current local player's short id, if
// any has been observed yet.
func (d *Dispatcher) LocalPlayerShortID() (uint64, bool) {
	return d.localShortID, d.hasLocalPlayer
}

// considerLocalPlayer implements spec.md §4.8's "first observed uuid
// ... becomes the local player; subsequent distinct uuids replace it
// and emit a notice."
func (d *Dispatcher) considerLocalPlayer(uuid uint64) {
	class, shortID := core.ClassifyUUID(uuid)
	if class != core.ClassPlayer {
		return
	}
	if !d.hasLocalPlayer {
		d.hasLocalPlayer = true
		d.localPlayerUUID = uuid
		d.localShortID = shortID
		return
	}
	if uuid != d.localPlayerUUID {
		log.GetLogger().WithFields(map[string]interface{}{
			"previous_short_id": d.localShortID,
			"new_short_id":      shortID,
		}).Warn("local player replaced")
		d.localPlayerUUID = uuid
		d.localShortID = shortID
	}
}

func classifyOrDrop(uuid uint64) (core.EntityClass, uint64, bool) {
	class, shortID := core.ClassifyUUID(uuid)
	if class == core.ClassUnknown {
		metrics.CountError(core.KindClassificationUnknown)
		log.GetLogger().WithField("uuid", uuid).Warn("classification unknown")
		return class, shortID, false
	}
	return class, shortID, true
}

// DispatchSyncNearEntities handles a bulk entity registration message
// (spec.md §4.6 method_id 0x06). The first entity in the list is the
// local-player candidate (glossary: "the first one seen in
// SyncNearEntities").
func (d *Dispatcher) DispatchSyncNearEntities(entities []schema.Entity) {
	for i, e := range entities {
		if i == 0 {
			d.considerLocalPlayer(e.UUID)
		}
		d.dispatchEntity(e)
	}
}

// DispatchSyncContainerData handles a single-entity snapshot or patch
// (spec.md §4.6 method_id 0x15/0x16).
func (d *Dispatcher) DispatchSyncContainerData(e schema.Entity) {
	d.dispatchEntity(e)
}

func (d *Dispatcher) dispatchEntity(e schema.Entity) {
	class, shortID, ok := classifyOrDrop(e.UUID)
	if !ok {
		return
	}

	switch class {
	case core.ClassPlayer:
		if e.HasProfessionID {
			d.sink.SetProfession(shortID, core.Profession(e.ProfessionID))
		}
	case core.ClassMonster:
		if e.HasMonsterTypeID {
			d.sink.SetEnemyID(shortID, e.MonsterTypeID)
		}
	}

	for _, kv := range e.Attrs {
		d.applyAttribute(class, shortID, kv.AttrID, kv.AttrData)
	}
	if class == core.ClassMonster {
		d.maybeRegisterEnemy(shortID)
	}
}

// applyAttribute decodes one attribute blob and pushes it to the sink
// (spec.md §4.8). Decode failures for one attribute must not stop
// processing of siblings; schema.DecodeAttrValue already counts the
// failure and returns ok=false, so the caller just skips.
func (d *Dispatcher) applyAttribute(class core.EntityClass, shortID uint64, attrID uint64, data []byte) {
	name, value, ok := schema.DecodeAttrValue(attrID, data)
	if !ok {
		return
	}

	switch class {
	case core.ClassPlayer:
		d.applyPlayerAttribute(shortID, name, value)
	case core.ClassMonster:
		d.applyMonsterAttribute(shortID, name, value)
	}
}

func (d *Dispatcher) applyPlayerAttribute(shortID uint64, name string, value any) {
	switch name {
	case "name":
		d.sink.SetName(shortID, value.(string))
	case "profession_id":
		d.sink.SetProfession(shortID, core.Profession(value.(uint32)))
	case "combat_rating":
		d.sink.SetFightPoint(shortID, value.(uint32))
	case "level":
		d.sink.SetLevel(shortID, value.(uint32))
	}
}

func (d *Dispatcher) applyMonsterAttribute(shortID uint64, name string, value any) {
	m := d.monsters[shortID]
	if m == nil {
		m = &monsterState{}
		d.monsters[shortID] = m
	}

	switch name {
	case "name":
		resolved := localizedMonsterName(value.(string))
		m.name = resolved
		d.sink.SetEnemyName(shortID, resolved)
	case "monster_type_id":
		m.id = value.(uint32)
		d.sink.SetEnemyID(shortID, m.id)
	case "hp":
		m.hp = value.(uint32)
		d.sink.SetEnemyHP(shortID, m.hp)
	case "max_hp":
		m.maxHP = value.(uint32)
		d.sink.SetEnemyMaxHP(shortID, m.maxHP)
	case "reduction_level":
		m.reductionLevel = value.(uint32)
		d.sink.SetEnemyReductionLevel(shortID, m.reductionLevel)
	case "reduction_id":
		m.reductionID = value.(uint32)
		d.sink.SetEnemyReductionID(shortID, m.reductionID)
	case "element_affinity":
		m.elementFlag = value.(uint32)
		d.sink.SetEnemyElement(shortID, core.ElementLabel(int32(m.elementFlag)))
	}
}

// maybeRegisterEnemy implements spec.md §4.8's registration gate:
// "if a monster has both a non-default name and max_hp > 0, register
// it with addEnemy."
func (d *Dispatcher) maybeRegisterEnemy(shortID uint64) {
	m := d.monsters[shortID]
	if m == nil || !m.eligible() {
		return
	}
	d.sink.AddEnemy(core.EnemySnapshot{
		ShortID:        shortID,
		Name:           m.name,
		HP:             m.hp,
		MaxHP:          m.maxHP,
		ReductionLevel: m.reductionLevel,
		ReductionID:    m.reductionID,
		ElementFlag:    m.elementFlag,
	})
	m.registered = true
}

// localizedMonsterName remaps through a small static table if a
// mapping exists, else returns the raw name (spec.md §4.8). No
// mappings are known at this layer today; the table exists so one can
// be populated without touching call sites.
var localizedMonsterNames = map[string]string{}

func localizedMonsterName(raw string) string {
	if mapped, ok := localizedMonsterNames[raw]; ok {
		return mapped
	}
	return raw
}
