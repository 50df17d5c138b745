package schema

import "google.golang.org/protobuf/encoding/protowire"

// Test-only encoders mirroring the field-number registries in
// entities.go/damage.go/movement.go, used to build wire-format
// fixtures without generated .pb.go types.

func appendVarintField(dst []byte, num protowire.Number, v uint64) []byte {
	dst = protowire.AppendTag(dst, num, protowire.VarintType)
	return protowire.AppendVarint(dst, v)
}

func appendBytesField(dst []byte, num protowire.Number, v []byte) []byte {
	dst = protowire.AppendTag(dst, num, protowire.BytesType)
	return protowire.AppendBytes(dst, v)
}

func appendFixed32Field(dst []byte, num protowire.Number, v uint32) []byte {
	dst = protowire.AppendTag(dst, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(dst, v)
}

func encodeAttrKV(attrID uint64, data []byte) []byte {
	var b []byte
	b = appendVarintField(b, fieldAttrID, attrID)
	b = appendBytesField(b, fieldAttrData, data)
	return b
}

func encodeAttrs(kvs ...[]byte) []byte {
	var b []byte
	for _, kv := range kvs {
		b = appendBytesField(b, fieldAttrsAttrs, kv)
	}
	return b
}

func encodeContainer(uuid uint64, charProfessionID *uint32, monsterTypeID *uint32, attrs []byte) []byte {
	var b []byte
	b = appendVarintField(b, fieldContainerUUID, uuid)
	if charProfessionID != nil {
		var char []byte
		char = appendVarintField(char, fieldCharProfessionID, uint64(*charProfessionID))
		b = appendBytesField(b, fieldContainerChar, char)
	}
	if monsterTypeID != nil {
		var mon []byte
		mon = appendVarintField(mon, fieldMonsterTypeID, uint64(*monsterTypeID))
		b = appendBytesField(b, fieldContainerMon, mon)
	}
	if attrs != nil {
		b = appendBytesField(b, fieldContainerAttrs, attrs)
	}
	return b
}

func encodeSyncNearEntities(entities ...[]byte) []byte {
	var b []byte
	for _, e := range entities {
		b = appendBytesField(b, fieldSyncNearEntitiesEntities, e)
	}
	return b
}

func encodeDamageEvent(ownerID uint32, attackerUUID uint64, topSummonerID uint64, value int64, typeFlag uint32, property int32) []byte {
	var b []byte
	b = appendVarintField(b, fieldEventOwnerID, uint64(ownerID))
	b = appendVarintField(b, fieldEventAttackerUUID, attackerUUID)
	if topSummonerID != 0 {
		b = appendVarintField(b, fieldEventTopSummonerID, topSummonerID)
	}
	b = appendVarintField(b, fieldEventValue, uint64(value))
	b = appendVarintField(b, fieldEventTypeFlag, uint64(typeFlag))
	b = appendVarintField(b, fieldEventProperty, uint64(property))
	return b
}

func encodeAoIDelta(uuid uint64, attrs []byte, events ...[]byte) []byte {
	var b []byte
	b = appendVarintField(b, fieldDeltaUUID, uuid)
	if attrs != nil {
		b = appendBytesField(b, fieldDeltaAttrs, attrs)
	}
	if len(events) > 0 {
		var evBytes []byte
		for _, e := range events {
			evBytes = appendBytesField(evBytes, fieldDamageEventsEvents, e)
		}
		b = appendBytesField(b, fieldDeltaDamageEvents, evBytes)
	}
	return b
}

func encodeSyncNearDeltaInfo(deltas ...[]byte) []byte {
	var b []byte
	for _, d := range deltas {
		b = appendBytesField(b, fieldDeltasDeltas, d)
	}
	return b
}

func encodeWrappedDelta(delta []byte) []byte {
	var b []byte
	b = appendBytesField(b, fieldWrapperDelta, delta)
	return b
}
