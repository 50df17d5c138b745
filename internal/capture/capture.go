// Package capture implements the Interface Enumerator and Capture
// Source (spec.md §4.1): device listing with stable per-snapshot
// indices, and promiscuous live capture with a BPF filter, backed by
// either gopacket/pcap (the default, portable backend) or
// gopacket/afpacket (an opt-in Linux PACKET_MMAP backend for higher
// throughput).
package capture

import (
	"fmt"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"

	"github.com/nearcap/nearcap/internal/config"
	"github.com/nearcap/nearcap/internal/core"
)

// ListDevices enumerates link-layer capture devices. Index is stable
// only within the returned slice (spec.md §3, §4.1); callers must not
// persist it across enumerations.
func ListDevices() ([]core.Device, error) {
	ifs, err := pcap.FindAllDevs()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrCaptureBackendMissing, err)
	}
	if len(ifs) == 0 {
		return nil, core.ErrDeviceUnavailable
	}

	devices := make([]core.Device, 0, len(ifs))
	for i, d := range ifs {
		addrs := make([]netip.Addr, 0, len(d.Addresses))
		for _, a := range d.Addresses {
			if addr, ok := netip.AddrFromSlice(a.IP); ok {
				addrs = append(addrs, addr)
			}
		}
		devices = append(devices, core.Device{
			Index:       i,
			Name:        d.Name,
			Description: d.Description,
			Addresses:   addrs,
		})
	}
	return devices, nil
}

// PickDefault selects the first device with a non-loopback IPv4
// address, per spec.md §6's fallback for an unset selected_device.
func PickDefault(devices []core.Device) (core.Device, error) {
	for _, d := range devices {
		for _, a := range d.Addresses {
			if a.Is4() && !a.IsLoopback() {
				return d, nil
			}
		}
	}
	return core.Device{}, core.ErrDeviceUnavailable
}

// Resolve turns a configured device index (-1 meaning "auto") into a
// concrete Device, per spec.md §4.1/§6.
func Resolve(devices []core.Device, selected int) (core.Device, error) {
	if selected < 0 {
		return PickDefault(devices)
	}
	for _, d := range devices {
		if d.Index == selected {
			return d, nil
		}
	}
	return core.Device{}, core.ErrDeviceInvalid
}

// packetReader is the minimal surface both backends expose; it lets
// Source stay backend-agnostic after Open.
type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	Close()
}

// Source is one open capture device. It is not safe for concurrent
// use: spec.md §5 assigns it a single producer thread.
type Source struct {
	handle packetReader
	device core.Device
}

// Open opens device with cfg's backend, snapshot length, buffer size,
// and BPF filter (spec.md §4.1). cfg.Backend selects "pcap" (default)
// or "afpacket" (Linux-only, PACKET_MMAP).
func Open(device core.Device, cfg config.CaptureConfig) (*Source, error) {
	switch cfg.Backend {
	case "", backendPcap:
		return openPcap(device, cfg)
	case backendAFPacket:
		return openAFPacket(device, cfg)
	default:
		return nil, fmt.Errorf("nearcap: unknown capture backend %q", cfg.Backend)
	}
}

func openPcap(device core.Device, cfg config.CaptureConfig) (*Source, error) {
	inactive, err := pcap.NewInactiveHandle(device.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrCaptureBackendMissing, err)
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(cfg.SnapLen); err != nil {
		return nil, err
	}
	if err := inactive.SetPromisc(true); err != nil {
		return nil, err
	}
	if err := inactive.SetBufferSize(cfg.RingBufferSize); err != nil {
		return nil, err
	}
	if err := inactive.SetTimeout(pcap.BlockForever); err != nil {
		return nil, err
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDeviceUnavailable, err)
	}

	if err := handle.SetBPFFilter(cfg.BPFFilter); err != nil {
		handle.Close()
		return nil, fmt.Errorf("nearcap: compiling BPF filter %q: %w", cfg.BPFFilter, err)
	}

	return &Source{handle: handle, device: device}, nil
}

// ReadPacket returns the next link-layer frame. It blocks until a
// frame arrives or the handle is closed.
func (s *Source) ReadPacket() ([]byte, gopacket.CaptureInfo, error) {
	return s.handle.ReadPacketData()
}

// Close fully releases the device handle. Callers must drop all
// per-flow state afterward (spec.md §4.1, §5): Close itself carries
// no flow state to drop.
func (s *Source) Close() {
	if s.handle != nil {
		s.handle.Close()
		s.handle = nil
	}
}

// Device returns the device this Source was opened against.
func (s *Source) Device() core.Device { return s.device }
