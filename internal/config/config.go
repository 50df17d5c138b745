// Package config loads the nearcap process configuration via viper:
// a YAML file, NEARCAP_-prefixed environment overrides, and optional
// file-watch hot reload of the reassembler's safety knobs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nearcap/nearcap/internal/log"
)

// CaptureConfig configures the Capture Source (spec.md §4.1, §6).
type CaptureConfig struct {
	SelectedDevice int    `mapstructure:"selected_device" yaml:"selected_device"` // -1 = auto-pick
	Backend        string `mapstructure:"backend" yaml:"backend"`                 // "pcap" or "afpacket"
	BPFFilter      string `mapstructure:"bpf_filter" yaml:"bpf_filter"`
	SnapLen        int    `mapstructure:"snap_len" yaml:"snap_len"`
	RingBufferSize int    `mapstructure:"ring_buffer_bytes" yaml:"ring_buffer_bytes"`
}

// ReassemblyConfig configures the Stream Reassembler and its optional
// flow-key sharding (spec.md §4.3, §4.12, §6).
type ReassemblyConfig struct {
	MaxFrameBytes      int    `mapstructure:"max_frame_bytes" yaml:"max_frame_bytes"`
	MaxFlowBufferBytes int    `mapstructure:"max_flow_buffer_bytes" yaml:"max_flow_buffer_bytes"`
	Shards             int    `mapstructure:"shards" yaml:"shards"`
	FlowIdleTimeout    string `mapstructure:"flow_idle_timeout" yaml:"flow_idle_timeout"`
}

// FrameConfig configures the Outer Frame Parser (spec.md §4.4, §6).
type FrameConfig struct {
	MaxEnvelopeNesting int `mapstructure:"max_envelope_nesting" yaml:"max_envelope_nesting"`
}

// RouterConfig configures the Message Router's service-id filter
// (spec.md §4.6; kept hard-coded-compatible but overridable per the
// Open Question in spec.md §9).
type RouterConfig struct {
	ServiceID uint64 `mapstructure:"service_id" yaml:"service_id"`
}

// MetricsConfig configures the Prometheus HTTP endpoint.
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
	Path       string `mapstructure:"path" yaml:"path"`
}

// Config is the top-level nearcap configuration, loaded from YAML
// under the `nearcap:` root key.
type Config struct {
	Capture    CaptureConfig    `mapstructure:"capture" yaml:"capture"`
	Reassembly ReassemblyConfig `mapstructure:"reassembly" yaml:"reassembly"`
	Frame      FrameConfig      `mapstructure:"frame" yaml:"frame"`
	Router     RouterConfig     `mapstructure:"router" yaml:"router"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
	Log        log.Config       `mapstructure:"log" yaml:"log"`
}

// root mirrors the YAML file's `nearcap:` top-level key for
// marshaling a fresh config template (see WriteDefault).
type root struct {
	Nearcap Config `yaml:"nearcap"`
}

// DefaultConfig mirrors the constants spec.md §6 names as defaults.
func DefaultConfig() Config {
	return Config{
		Capture: CaptureConfig{
			SelectedDevice: -1,
			Backend:        "pcap",
			BPFFilter:      "tcp",
			SnapLen:        65535,
			RingBufferSize: 10 << 20,
		},
		Reassembly: ReassemblyConfig{
			MaxFrameBytes:      2 << 20,
			MaxFlowBufferBytes: 4 << 20,
			Shards:             1,
			FlowIdleTimeout:    "5m",
		},
		Frame: FrameConfig{
			MaxEnvelopeNesting: 4,
		},
		Router: RouterConfig{
			ServiceID: 0x63335342,
		},
		Metrics: MetricsConfig{
			Enabled:    true,
			ListenAddr: ":9090",
			Path:       "/metrics",
		},
		Log: log.DefaultConfig(),
	}
}

// Validate applies the invariants spec.md §6 implies: a nonsensical
// knob here is a configuration error, not a pipeline error.
func (c *Config) Validate() error {
	switch c.Capture.Backend {
	case "", "pcap", "afpacket":
	default:
		return fmt.Errorf("nearcap: capture.backend must be %q or %q, got %q", "pcap", "afpacket", c.Capture.Backend)
	}
	if c.Reassembly.MaxFrameBytes < 6 {
		return fmt.Errorf("nearcap: reassembly.max_frame_bytes must be >= 6")
	}
	if c.Reassembly.MaxFlowBufferBytes < c.Reassembly.MaxFrameBytes {
		return fmt.Errorf("nearcap: reassembly.max_flow_buffer_bytes must be >= max_frame_bytes")
	}
	if c.Reassembly.Shards < 1 {
		return fmt.Errorf("nearcap: reassembly.shards must be >= 1")
	}
	if c.Frame.MaxEnvelopeNesting < 1 {
		return fmt.Errorf("nearcap: frame.max_envelope_nesting must be >= 1")
	}
	return nil
}

// WriteDefault marshals DefaultConfig() under the `nearcap:` root key
// and writes it to path, for `nearcap config init` to scaffold a
// starting file an operator then edits by hand.
func WriteDefault(path string) error {
	out, err := yaml.Marshal(root{Nearcap: DefaultConfig()})
	if err != nil {
		return fmt.Errorf("nearcap: marshaling default config: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("nearcap: writing %q: %w", path, err)
	}
	return nil
}
