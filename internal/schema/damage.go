package schema

import "google.golang.org/protobuf/encoding/protowire"

// Field numbers for the AoI delta family (spec.md §4.7's abstract
// shape): "AoI delta records have { Uuid, Attrs.Attrs[],
// DamageEvents.Events[] } where each damage event carries OwnerId
// (skill id), AttackerUuid, optional TopSummonerId, ... Type
// (Heal/Damage/...), IsMiss, IsDead, HpLessenValue, Property,
// DamageSource."
const (
	fieldDeltaUUID         protowire.Number = 1
	fieldDeltaAttrs        protowire.Number = 2
	fieldDeltaDamageEvents protowire.Number = 3

	fieldDamageEventsEvents protowire.Number = 1

	fieldEventOwnerID       protowire.Number = 1
	fieldEventAttackerUUID  protowire.Number = 2
	fieldEventTopSummonerID protowire.Number = 3
	fieldEventValue         protowire.Number = 4
	fieldEventLuckyValue    protowire.Number = 5
	fieldEventTypeFlag      protowire.Number = 6
	fieldEventType          protowire.Number = 7
	fieldEventIsMiss        protowire.Number = 8
	fieldEventIsDead        protowire.Number = 9
	fieldEventHpLessen      protowire.Number = 10
	fieldEventProperty      protowire.Number = 11
	fieldEventDamageSource  protowire.Number = 12

	fieldDeltasDeltas protowire.Number = 1
	fieldWrapperDelta protowire.Number = 1
)

// EventType is the schema-declared Heal/Damage discriminator for one
// DamageEventRecord (spec.md §3: "is_heal = (type_code == Heal)").
type EventType uint32

const (
	EventTypeDamage EventType = 0
	EventTypeHeal   EventType = 1
)

// DamageEventRecord is the raw schema record before classification
// and direction filtering (spec.md §4.7, §4.8).
type DamageEventRecord struct {
	OwnerID        uint32
	AttackerUUID   uint64
	TopSummonerID  uint64
	HasTopSummoner bool
	Value          int64
	HasValue       bool
	LuckyValue     int64
	HasLuckyValue  bool
	TypeFlag       uint32
	Type           EventType
	IsMiss         bool
	IsDead         bool
	HpLessenValue  int64
	Property       int32
	DamageSource   uint32
}

// AoIDelta is one "area of interest" update (spec.md §4.7, glossary).
type AoIDelta struct {
	UUID   uint64
	Attrs  []AttrKV
	Events []DamageEventRecord
}

func decodeDamageEventRecord(data []byte) (DamageEventRecord, error) {
	fields, err := parseFields(data)
	if err != nil {
		return DamageEventRecord{}, err
	}

	owner, ok := firstVarint(fields, fieldEventOwnerID)
	if !ok {
		return DamageEventRecord{}, ErrMissingField
	}
	attacker, ok := firstVarint(fields, fieldEventAttackerUUID)
	if !ok {
		return DamageEventRecord{}, ErrMissingField
	}

	rec := DamageEventRecord{
		OwnerID:      uint32(owner),
		AttackerUUID: attacker,
	}
	if v, ok := firstVarint(fields, fieldEventTopSummonerID); ok {
		rec.TopSummonerID = v
		rec.HasTopSummoner = v != 0
	}
	if v, ok := firstVarint(fields, fieldEventValue); ok {
		rec.Value = int64(v)
		rec.HasValue = true
	}
	if v, ok := firstVarint(fields, fieldEventLuckyValue); ok {
		rec.LuckyValue = int64(v)
		rec.HasLuckyValue = true
	}
	if v, ok := firstVarint(fields, fieldEventTypeFlag); ok {
		rec.TypeFlag = uint32(v)
	}
	if v, ok := firstVarint(fields, fieldEventType); ok {
		rec.Type = EventType(v)
	}
	if v, ok := firstVarint(fields, fieldEventIsMiss); ok {
		rec.IsMiss = v != 0
	}
	if v, ok := firstVarint(fields, fieldEventIsDead); ok {
		rec.IsDead = v != 0
	}
	if v, ok := firstVarint(fields, fieldEventHpLessen); ok {
		rec.HpLessenValue = int64(v)
	}
	if v, ok := firstVarint(fields, fieldEventProperty); ok {
		rec.Property = int32(v)
	}
	if v, ok := firstVarint(fields, fieldEventDamageSource); ok {
		rec.DamageSource = uint32(v)
	}
	return rec, nil
}

func decodeAoIDelta(data []byte) (AoIDelta, error) {
	fields, err := parseFields(data)
	if err != nil {
		return AoIDelta{}, err
	}

	uuid, ok := firstVarint(fields, fieldDeltaUUID)
	if !ok {
		decodeFailure()
		return AoIDelta{}, ErrMissingField
	}
	delta := AoIDelta{UUID: uuid}

	if raw, ok := firstBytes(fields, fieldDeltaAttrs); ok {
		if attrs, err := decodeAttrs(raw); err == nil {
			delta.Attrs = attrs
		}
	}

	if raw, ok := firstBytes(fields, fieldDeltaDamageEvents); ok {
		eventFields, err := parseFields(raw)
		if err == nil {
			for _, ev := range allBytes(eventFields, fieldDamageEventsEvents) {
				rec, err := decodeDamageEventRecord(ev)
				if err != nil {
					decodeFailure()
					continue
				}
				delta.Events = append(delta.Events, rec)
			}
		}
	}
	return delta, nil
}

// DecodeSyncNearDeltaInfo decodes a list of AoI deltas (spec.md §4.6
// method_id 0x2d).
func DecodeSyncNearDeltaInfo(body []byte) ([]AoIDelta, error) {
	fields, err := parseFields(body)
	if err != nil {
		decodeFailure()
		return nil, err
	}
	var deltas []AoIDelta
	for _, raw := range allBytes(fields, fieldDeltasDeltas) {
		d, err := decodeAoIDelta(raw)
		if err != nil {
			continue
		}
		deltas = append(deltas, d)
	}
	return deltas, nil
}

// decodeWrappedDelta decodes the single-AoIDelta shape shared by
// SyncServerTime and SyncToMeDeltaInfo (spec.md §4.6 method_id
// 0x2b/0x2e: "wraps one AoI delta").
func decodeWrappedDelta(body []byte) (AoIDelta, error) {
	fields, err := parseFields(body)
	if err != nil {
		decodeFailure()
		return AoIDelta{}, err
	}
	raw, ok := firstBytes(fields, fieldWrapperDelta)
	if !ok {
		decodeFailure()
		return AoIDelta{}, ErrMissingField
	}
	delta, err := decodeAoIDelta(raw)
	if err != nil {
		decodeFailure()
		return AoIDelta{}, err
	}
	return delta, nil
}

// DecodeSyncServerTime decodes the AoI delta wrapped by a server-time
// push (spec.md §4.6 method_id 0x2b).
func DecodeSyncServerTime(body []byte) (AoIDelta, error) { return decodeWrappedDelta(body) }

// DecodeSyncToMeDeltaInfo decodes the local player's own AoI delta
// (spec.md §4.6 method_id 0x2e).
func DecodeSyncToMeDeltaInfo(body []byte) (AoIDelta, error) { return decodeWrappedDelta(body) }
