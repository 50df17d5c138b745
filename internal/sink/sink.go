// Package sink defines the Sink collaborator the Entity/Event
// Dispatcher pushes state into (spec.md §6). The core never assumes
// anything about the sink's internal locking beyond spec.md §5: it is
// mutated only from the single pipeline goroutine unless sharded, in
// which case the sink's own policy governs concurrent access.
package sink

import "github.com/nearcap/nearcap/internal/core"

// Sink is the external collaborator consumed by the Entity/Event
// Dispatcher. Method names mirror spec.md §6 verbatim so the mapping
// from spec to code is direct.
type Sink interface {
	SetName(shortID uint64, name string)
	SetProfession(shortID uint64, profession string)
	SetFightPoint(shortID uint64, value uint32)
	SetLevel(shortID uint64, value uint32)

	SetEnemyName(shortID uint64, name string)
	SetEnemyID(shortID uint64, id uint32)
	SetEnemyHP(shortID uint64, hp uint32)
	SetEnemyMaxHP(shortID uint64, maxHP uint32)
	SetEnemyReductionLevel(shortID uint64, v uint32)
	SetEnemyReductionID(shortID uint64, v uint32)
	SetEnemyElement(shortID uint64, element string)
	AddEnemy(snapshot core.EnemySnapshot)

	ProcessPlayerDamage(event core.DamageEvent)
	ProcessDamageToPlayer(event core.DamageEvent)

	SetLocalPosition(pos core.PlayerPosition)
}
