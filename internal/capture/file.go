package capture

import (
	"fmt"

	"github.com/google/gopacket/pcap"

	"github.com/nearcap/nearcap/internal/core"
)

// OpenFile opens a previously captured pcap file for offline replay,
// reusing the same Source/ReadPacket surface as a live device so the
// rest of the pipeline cannot tell the difference (spec.md §4.1 is
// silent on offline replay; this is a supplement for testing and
// incident review).
func OpenFile(path string) (*Source, error) {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return nil, fmt.Errorf("nearcap: opening capture file %q: %w", path, err)
	}
	device := core.Device{Index: -1, Name: path, Description: "offline pcap replay"}
	return &Source{handle: handle, device: device}, nil
}
