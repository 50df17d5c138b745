package schema

import (
	"encoding/binary"

	"github.com/mitchellh/mapstructure"

	"github.com/nearcap/nearcap/internal/core"
	"github.com/nearcap/nearcap/internal/metrics"
)

// attrID values recognized by the Attribute Blob Reader (spec.md §3).
const (
	attrDisplayName     uint64 = 0x01
	attrMonsterTypeID   uint64 = 0x0a
	attrProfessionID    uint64 = 0xdc
	attrCombatRating    uint64 = 0x272e
	attrLevel           uint64 = 0x2710
	attrRankLevel       uint64 = 0x274c
	attrCurrentHP       uint64 = 0x2c2e
	attrMaxHP           uint64 = 0x2c38
	attrReductionLevel  uint64 = 0x64696d
	attrReductionID     uint64 = 0x6f6c65
	attrElementAffinity uint64 = 0x646d6c
)

// symbolicName maps an attr_id to the map key used before mapstructure
// decoding, so PlayerAttributes/MonsterAttributes field tags line up
// with the attr_id table in spec.md §3.
func symbolicName(attrID uint64) (string, bool) {
	switch attrID {
	case attrDisplayName:
		return "name", true
	case attrMonsterTypeID:
		return "monster_type_id", true
	case attrProfessionID:
		return "profession_id", true
	case attrCombatRating:
		return "combat_rating", true
	case attrLevel:
		return "level", true
	case attrRankLevel:
		return "rank_level", true
	case attrCurrentHP:
		return "hp", true
	case attrMaxHP:
		return "max_hp", true
	case attrReductionLevel:
		return "reduction_level", true
	case attrReductionID:
		return "reduction_id", true
	case attrElementAffinity:
		return "element_affinity", true
	default:
		return "", false
	}
}

// decodeString decodes a string attribute blob (spec.md §3, §6):
// "{ length: u32 little-endian, 4 reserved bytes, raw utf-8 bytes of
// length, 4 reserved bytes }".
func decodeString(data []byte) (string, bool) {
	const headerLen = 4 + 4
	if len(data) < headerLen {
		return "", false
	}
	strLen := binary.LittleEndian.Uint32(data[0:4])
	start := headerLen
	end := start + int(strLen)
	if end+4 > len(data) || end < start {
		return "", false
	}
	return string(data[start:end]), true
}

// decodeNumeric decodes a numeric attribute blob (spec.md §3: "u32
// big-endian").
func decodeNumeric(data []byte) (uint32, bool) {
	if len(data) < 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(data[0:4]), true
}

func attributeDecodeFailure() {
	metrics.CountError(core.KindAttributeDecodeFailure)
}

// DecodeAttrValue decodes a single attr_data blob by attr_id per the
// table in spec.md §3, returning the symbolic name to key it under and
// the decoded value (string or uint32). Decoding failures for one
// attribute must not stop processing of siblings (spec.md §4.8); the
// caller skips the attribute when ok is false.
func DecodeAttrValue(attrID uint64, data []byte) (name string, value any, ok bool) {
	name, known := symbolicName(attrID)
	if !known {
		return "", nil, false
	}

	if attrID == attrDisplayName {
		s, ok := decodeString(data)
		if !ok {
			attributeDecodeFailure()
			return "", nil, false
		}
		return name, s, true
	}

	n, ok := decodeNumeric(data)
	if !ok {
		attributeDecodeFailure()
		return "", nil, false
	}
	return name, n, true
}

// PlayerAttributes is the typed, mapstructure-tagged view of a
// player's decoded attribute blobs (spec.md §4.15). The entity
// Dispatcher does not use this view: it decodes one attribute at a
// time with DecodeAttrValue and switches on the returned symbolic name.
type PlayerAttributes struct {
	Name         string `mapstructure:"name"`
	ProfessionID uint32 `mapstructure:"profession_id"`
	CombatRating uint32 `mapstructure:"combat_rating"`
	Level        uint32 `mapstructure:"level"`
	RankLevel    uint32 `mapstructure:"rank_level"`
}

// MonsterAttributes is the monster counterpart of PlayerAttributes.
type MonsterAttributes struct {
	Name            string `mapstructure:"name"`
	MonsterTypeID   uint32 `mapstructure:"monster_type_id"`
	HP              uint32 `mapstructure:"hp"`
	MaxHP           uint32 `mapstructure:"max_hp"`
	ReductionLevel  uint32 `mapstructure:"reduction_level"`
	ReductionID     uint32 `mapstructure:"reduction_id"`
	ElementAffinity uint32 `mapstructure:"element_affinity"`
}

// buildAttrMap decodes every attribute blob in attrs into a symbolic
// map, skipping decode failures per-attribute (spec.md §4.8).
func buildAttrMap(attrs []AttrKV) map[string]any {
	out := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		name, value, ok := DecodeAttrValue(kv.AttrID, kv.AttrData)
		if !ok {
			continue
		}
		out[name] = value
	}
	return out
}

// DecodePlayerAttributes materializes attrs into a PlayerAttributes
// view via mapstructure, leaving fields with no corresponding attr_id
// at their zero value.
func DecodePlayerAttributes(attrs []AttrKV) (PlayerAttributes, error) {
	var out PlayerAttributes
	if err := mapstructure.Decode(buildAttrMap(attrs), &out); err != nil {
		return PlayerAttributes{}, err
	}
	return out, nil
}

// DecodeMonsterAttributes is the monster counterpart of
// DecodePlayerAttributes.
func DecodeMonsterAttributes(attrs []AttrKV) (MonsterAttributes, error) {
	var out MonsterAttributes
	if err := mapstructure.Decode(buildAttrMap(attrs), &out); err != nil {
		return MonsterAttributes{}, err
	}
	return out, nil
}
