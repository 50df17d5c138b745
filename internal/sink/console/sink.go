// Package console implements a reference Sink that logs enemy
// registrations, damage events and the enemy id/element setters
// through the structured logger, and records the other setters in
// memory only, so the module is runnable and observable standalone
// without a real UI attached.
package console

import (
	"sync"

	"github.com/nearcap/nearcap/internal/core"
	"github.com/nearcap/nearcap/internal/log"
	"github.com/nearcap/nearcap/internal/sink"
)

// Sink is a thread-safe, in-memory Sink implementation. Entities are
// keyed by short id; callers may read back the current view via
// Players/Enemies for tests or a local status endpoint.
type Sink struct {
	mu      sync.RWMutex
	players map[uint64]*PlayerState
	enemies map[uint64]*core.EnemySnapshot
}

// PlayerState accumulates the attribute setters spec.md §4.8 defines
// for players.
type PlayerState struct {
	ShortID     uint64
	Name        string
	Profession  string
	FightPoint  uint32
	Level       uint32
	LocalPos    core.PlayerPosition
	HasLocalPos bool
}

// New returns an empty Sink.
func New() *Sink {
	return &Sink{
		players: make(map[uint64]*PlayerState),
		enemies: make(map[uint64]*core.EnemySnapshot),
	}
}

func (s *Sink) player(shortID uint64) *PlayerState {
	p, ok := s.players[shortID]
	if !ok {
		p = &PlayerState{ShortID: shortID}
		s.players[shortID] = p
	}
	return p
}

func (s *Sink) SetName(shortID uint64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player(shortID).Name = name
}

func (s *Sink) SetProfession(shortID uint64, profession string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player(shortID).Profession = profession
}

func (s *Sink) SetFightPoint(shortID uint64, value uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player(shortID).FightPoint = value
}

func (s *Sink) SetLevel(shortID uint64, value uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player(shortID).Level = value
}

func (s *Sink) enemy(shortID uint64) *core.EnemySnapshot {
	e, ok := s.enemies[shortID]
	if !ok {
		e = &core.EnemySnapshot{ShortID: shortID}
		s.enemies[shortID] = e
	}
	return e
}

func (s *Sink) SetEnemyName(shortID uint64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enemy(shortID).Name = name
}

func (s *Sink) SetEnemyID(shortID uint64, id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enemy(shortID).ShortID = shortID
	_ = id // the monster type id is logged, not stored on the short-id keyed snapshot
	log.GetLogger().WithFields(map[string]interface{}{"short_id": shortID, "monster_type_id": id}).Debug("enemy id observed")
}

func (s *Sink) SetEnemyHP(shortID uint64, hp uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enemy(shortID).HP = hp
}

func (s *Sink) SetEnemyMaxHP(shortID uint64, maxHP uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enemy(shortID).MaxHP = maxHP
}

func (s *Sink) SetEnemyReductionLevel(shortID uint64, v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enemy(shortID).ReductionLevel = v
}

func (s *Sink) SetEnemyReductionID(shortID uint64, v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enemy(shortID).ReductionID = v
}

func (s *Sink) SetEnemyElement(shortID uint64, element string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.GetLogger().WithFields(map[string]interface{}{"short_id": shortID, "element": element}).Debug("enemy element observed")
}

func (s *Sink) AddEnemy(snapshot core.EnemySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enemies[snapshot.ShortID] = &snapshot
	log.GetLogger().WithFields(map[string]interface{}{
		"short_id": snapshot.ShortID,
		"name":     snapshot.Name,
		"max_hp":   snapshot.MaxHP,
	}).Info("enemy registered")
}

func (s *Sink) ProcessPlayerDamage(event core.DamageEvent) {
	log.GetLogger().WithFields(map[string]interface{}{
		"attacker": event.AttackerShortID,
		"target":   event.TargetShortID,
		"value":    event.Value,
		"crit":     event.IsCrit,
		"heal":     event.IsHeal,
		"element":  event.DamageElement,
	}).Info("player damage")
}

func (s *Sink) ProcessDamageToPlayer(event core.DamageEvent) {
	log.GetLogger().WithFields(map[string]interface{}{
		"attacker": event.AttackerShortID,
		"target":   event.TargetShortID,
		"value":    event.Value,
		"crit":     event.IsCrit,
		"heal":     event.IsHeal,
		"element":  event.DamageElement,
	}).Info("damage to player")
}

func (s *Sink) SetLocalPosition(pos core.PlayerPosition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.player(pos.ShortID)
	p.LocalPos = pos
	p.HasLocalPos = true
}

// Players returns a snapshot copy of the tracked player states.
func (s *Sink) Players() map[uint64]PlayerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uint64]PlayerState, len(s.players))
	for k, v := range s.players {
		out[k] = *v
	}
	return out
}

// Enemies returns a snapshot copy of the tracked enemy states.
func (s *Sink) Enemies() map[uint64]core.EnemySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uint64]core.EnemySnapshot, len(s.enemies))
	for k, v := range s.enemies {
		out[k] = *v
	}
	return out
}

var _ sink.Sink = (*Sink)(nil)
