package entity

import (
	"github.com/nearcap/nearcap/internal/core"
	"github.com/nearcap/nearcap/internal/schema"
)

// DispatchPosition publishes a decoded movement record to the sink as
// the local player's position, keyed by the current local-player
// short id (spec.md §4.9). If no local player has been observed yet,
// the position is dropped.
func (d *Dispatcher) DispatchPosition(pos schema.Position) {
	shortID, ok := d.LocalPlayerShortID()
	if !ok {
		return
	}
	d.sink.SetLocalPosition(core.PlayerPosition{
		ShortID:     shortID,
		X:           pos.X,
		Y:           pos.Y,
		Z:           pos.Z,
		Dir:         pos.Dir,
		MoveVersion: pos.MoveVersion,
	})
}
