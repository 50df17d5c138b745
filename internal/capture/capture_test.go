package capture

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nearcap/nearcap/internal/core"
)

func TestPickDefaultSkipsLoopbackAndIPv6(t *testing.T) {
	devices := []core.Device{
		{Index: 0, Name: "lo", Addresses: []netip.Addr{netip.MustParseAddr("127.0.0.1")}},
		{Index: 1, Name: "eth0-v6", Addresses: []netip.Addr{netip.MustParseAddr("fe80::1")}},
		{Index: 2, Name: "eth0", Addresses: []netip.Addr{netip.MustParseAddr("10.0.0.5")}},
	}

	got, err := PickDefault(devices)
	assert.NoError(t, err)
	assert.Equal(t, "eth0", got.Name)
}

func TestPickDefaultFailsWithNoCandidate(t *testing.T) {
	devices := []core.Device{
		{Index: 0, Name: "lo", Addresses: []netip.Addr{netip.MustParseAddr("127.0.0.1")}},
	}

	_, err := PickDefault(devices)
	assert.ErrorIs(t, err, core.ErrDeviceUnavailable)
}

func TestResolveAutoPicksDefault(t *testing.T) {
	devices := []core.Device{
		{Index: 0, Name: "eth0", Addresses: []netip.Addr{netip.MustParseAddr("10.0.0.5")}},
	}

	got, err := Resolve(devices, -1)
	assert.NoError(t, err)
	assert.Equal(t, "eth0", got.Name)
}

func TestResolveByIndex(t *testing.T) {
	devices := []core.Device{
		{Index: 0, Name: "eth0"},
		{Index: 1, Name: "eth1"},
	}

	got, err := Resolve(devices, 1)
	assert.NoError(t, err)
	assert.Equal(t, "eth1", got.Name)
}

func TestResolveUnknownIndexFails(t *testing.T) {
	devices := []core.Device{{Index: 0, Name: "eth0"}}

	_, err := Resolve(devices, 9)
	assert.ErrorIs(t, err, core.ErrDeviceInvalid)
}
