// Package core defines the zero-dependency types shared across the
// capture-to-event pipeline: device descriptors, flow keys, and the
// entity/damage domain records. Keeping these free of gopacket,
// viper, etc. lets every downstream package depend on core without
// pulling in capture internals.
package core

import "net/netip"

// Device describes one link-layer capture device as reported by the
// Interface Enumerator. Index is stable only within a single
// enumeration snapshot (spec.md §4.1); Name is the OS-level handle
// used to open it.
type Device struct {
	Index       int
	Name        string
	Description string
	Addresses   []netip.Addr
}

// FlowKey is the ordered 4-tuple identifying one direction of a TCP
// connection. The reverse direction of the same connection is a
// distinct FlowKey (spec.md §3).
type FlowKey struct {
	SrcIP   netip.Addr
	SrcPort uint16
	DstIP   netip.Addr
	DstPort uint16
}

// EntityClass is the result of classifying a 64-bit entity UUID by
// its low 16 bits (spec.md §4.8).
type EntityClass int

const (
	ClassUnknown EntityClass = iota
	ClassPlayer
	ClassMonster
)

func (c EntityClass) String() string {
	switch c {
	case ClassPlayer:
		return "player"
	case ClassMonster:
		return "monster"
	default:
		return "unknown"
	}
}

// ClassifyUUID implements spec.md §4.8's entity classification: the
// low 16 bits of the UUID select the class, the high 48 bits
// (uuid >> 16) are the entity's short id. Any low-16 value other than
// 1 or 2 is ClassUnknown and must be logged as "classification
// unknown" rather than coerced (spec.md §9 Open Questions).
func ClassifyUUID(uuid uint64) (class EntityClass, shortID uint64) {
	shortID = uuid >> 16
	switch uuid & 0xffff {
	case 1:
		return ClassPlayer, shortID
	case 2:
		return ClassMonster, shortID
	default:
		return ClassUnknown, shortID
	}
}

// DamageElement is the string label of the integer element tag
// carried by a damage event (spec.md §3, §4.8).
type DamageElement int

const (
	ElementNone DamageElement = iota
	ElementFire
	ElementIce
	ElementPoison
	ElementThunder
	ElementWind
	ElementRock
	ElementLight
	ElementDark
)

// ElementLabel resolves the integer element tag per spec.md §4.8.
func ElementLabel(tag int32) string {
	switch DamageElement(tag) {
	case ElementNone:
		return "None"
	case ElementFire:
		return "Fire"
	case ElementIce:
		return "Ice"
	case ElementPoison:
		return "Poison"
	case ElementThunder:
		return "Thunder"
	case ElementWind:
		return "Wind"
	case ElementRock:
		return "Rock"
	case ElementLight:
		return "Light"
	case ElementDark:
		return "Dark"
	default:
		return "Unknown"
	}
}

// Profession resolves a player's CurProfessionId to its display name
// per the static table in spec.md §4.8.
func Profession(id uint32) string {
	switch id {
	case 21:
		return "雷影剑士"
	case 22:
		return "冰魔导师"
	case 23:
		return "涤罪恶火_战斧"
	case 24:
		return "涤罪恶火_战剑"
	case 25:
		return "核能射手"
	case 26:
		return "兽化斗士"
	default:
		return "未知职业"
	}
}
