// Package notify implements the Message Router (spec.md §4.6): it
// reads a Notify envelope's service-id/stub-id/method-id header,
// filters by service id, and dispatches the remaining schema-encoded
// body by method id.
package notify

import "encoding/binary"

// MethodID values recognized by the Schema Decoder (spec.md §4.6).
const (
	MethodSyncNearEntities       uint32 = 0x00000006
	MethodSyncContainerData      uint32 = 0x00000015
	MethodSyncContainerDirtyData uint32 = 0x00000016
	MethodSyncServerTime         uint32 = 0x0000002b
	MethodSyncNearDeltaInfo      uint32 = 0x0000002d
	MethodSyncToMeDeltaInfo      uint32 = 0x0000002e
)

const headerSize = 8 + 4 + 4

// Header is the parsed Notify header (spec.md §3).
type Header struct {
	ServiceID uint64
	StubID    uint32
	MethodID  uint32
}

// Parse reads the Notify header from body and returns it alongside
// the remaining schema-encoded payload. ok is false if body is too
// short to contain a header.
func Parse(body []byte) (Header, []byte, bool) {
	if len(body) < headerSize {
		return Header{}, nil, false
	}
	h := Header{
		ServiceID: binary.BigEndian.Uint64(body[0:8]),
		StubID:    binary.BigEndian.Uint32(body[8:12]),
		MethodID:  binary.BigEndian.Uint32(body[12:16]),
	}
	return h, body[headerSize:], true
}

// Accepts reports whether serviceID matches the router's configured
// service id filter (spec.md §4.6; configurable per the Open Question
// in spec.md §9, defaulting to the hard-coded 0x63335342).
func Accepts(serviceID, configured uint64) bool {
	return serviceID == configured
}
