package core

// DamageEvent is emitted per per-target damage/heal record (spec.md
// §3). Integers that originate as 64-bit values on the wire are kept
// as 64-bit end to end; narrowing to a sink's safe-integer range, if
// required, happens at the sink boundary (spec.md §9).
type DamageEvent struct {
	AttackerShortID uint64
	TargetShortID   uint64
	SkillID         uint32
	Value           int64
	LuckyValue      int64
	IsCrit          bool
	IsCauseLucky    bool
	IsMiss          bool
	IsHeal          bool
	IsDead          bool
	IsLucky         bool
	HPLessenValue   int64
	DamageElement   string
	DamageSource    uint32
}

// PlayerPosition is published by the Opportunistic Movement Decoder
// (spec.md §4.9) for the local player only.
type PlayerPosition struct {
	ShortID     uint64
	X, Y, Z     float32
	Dir         float32
	MoveVersion uint32
}

// EnemySnapshot is the record handed to Sink.AddEnemy once a monster
// has both a non-default name and a positive max HP (spec.md §4.8).
type EnemySnapshot struct {
	ShortID        uint64
	Name           string
	HP             uint32
	MaxHP          uint32
	ReductionLevel uint32
	ReductionID    uint32
	ElementFlag    uint32
}
