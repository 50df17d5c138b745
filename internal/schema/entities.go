package schema

import "google.golang.org/protobuf/encoding/protowire"

// Field numbers below are this decoder's own schema assignment: the
// wire format spec.md §4.7 describes (field numbers/wire types,
// tolerate-unknown-fields, nested messages) without naming a concrete
// registry, since the schema compiler that would produce one is out
// of scope (spec.md §1). Any registry a real client uses must assign
// the same numbers for these bytes to decode; this file is the
// registry for this implementation.
const (
	fieldCharProfessionID protowire.Number = 1
	fieldMonsterTypeID    protowire.Number = 1

	fieldAttrsAttrs protowire.Number = 1
	fieldAttrID     protowire.Number = 1
	fieldAttrData   protowire.Number = 2

	fieldSyncNearEntitiesEntities protowire.Number = 1

	fieldContainerUUID  protowire.Number = 1
	fieldContainerChar  protowire.Number = 2
	fieldContainerMon   protowire.Number = 3
	fieldContainerAttrs protowire.Number = 4
)

// AttrKV is one raw attribute blob pair before the Attribute Blob
// Reader decodes attr_data by attr_id (spec.md §3).
type AttrKV struct {
	AttrID   uint64
	AttrData []byte
}

// Entity is the decoded shape shared by SyncNearEntities' entries and
// SyncContainerData/DirtyData's single record (spec.md §4.7: "Entity
// is Uuid + Entity.Container.{CharBaseData|MonsterBaseData}" and
// "Container.Attrs.Attrs[]").
type Entity struct {
	UUID             uint64
	HasProfessionID  bool
	ProfessionID     uint32
	HasMonsterTypeID bool
	MonsterTypeID    uint32
	Attrs            []AttrKV
}

func decodeAttrs(data []byte) ([]AttrKV, error) {
	fields, err := parseFields(data)
	if err != nil {
		return nil, err
	}
	var out []AttrKV
	for _, raw := range allBytes(fields, fieldAttrsAttrs) {
		kvFields, err := parseFields(raw)
		if err != nil {
			decodeFailure()
			continue
		}
		id, ok := firstVarint(kvFields, fieldAttrID)
		if !ok {
			decodeFailure()
			continue
		}
		data, _ := firstBytes(kvFields, fieldAttrData)
		out = append(out, AttrKV{AttrID: id, AttrData: data})
	}
	return out, nil
}

// decodeEntityContainer decodes the Container sub-message shared by
// SyncNearEntities entries and SyncContainerData/DirtyData.
func decodeEntityContainer(fields []field) (Entity, error) {
	e := Entity{}

	uuid, ok := firstVarint(fields, fieldContainerUUID)
	if !ok {
		decodeFailure()
		return Entity{}, ErrMissingField
	}
	e.UUID = uuid

	if raw, ok := firstBytes(fields, fieldContainerChar); ok {
		charFields, err := parseFields(raw)
		if err == nil {
			if id, ok := firstVarint(charFields, fieldCharProfessionID); ok {
				e.HasProfessionID = true
				e.ProfessionID = uint32(id)
			}
		}
	}
	if raw, ok := firstBytes(fields, fieldContainerMon); ok {
		monFields, err := parseFields(raw)
		if err == nil {
			if id, ok := firstVarint(monFields, fieldMonsterTypeID); ok {
				e.HasMonsterTypeID = true
				e.MonsterTypeID = uint32(id)
			}
		}
	}
	if raw, ok := firstBytes(fields, fieldContainerAttrs); ok {
		attrs, err := decodeAttrs(raw)
		if err == nil {
			e.Attrs = attrs
		}
	}
	return e, nil
}

// DecodeSyncNearEntities decodes a bulk entity registration message
// (spec.md §4.6 method_id 0x06).
func DecodeSyncNearEntities(body []byte) ([]Entity, error) {
	fields, err := parseFields(body)
	if err != nil {
		decodeFailure()
		return nil, err
	}

	var entities []Entity
	for _, raw := range allBytes(fields, fieldSyncNearEntitiesEntities) {
		entFields, err := parseFields(raw)
		if err != nil {
			decodeFailure()
			continue
		}
		e, err := decodeEntityContainer(entFields)
		if err != nil {
			continue
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// DecodeSyncContainerData decodes a single-entity snapshot or patch
// (spec.md §4.6 method_id 0x15/0x16 — both share this shape).
func DecodeSyncContainerData(body []byte) (Entity, error) {
	fields, err := parseFields(body)
	if err != nil {
		decodeFailure()
		return Entity{}, err
	}
	return decodeEntityContainer(fields)
}
