package config

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/atomic"

	"github.com/nearcap/nearcap/internal/log"
)

// configRoot mirrors the YAML file's `nearcap:` root key.
type configRoot struct {
	Nearcap Config `mapstructure:"nearcap"`
}

// SafetyKnobs is the hot-reloadable subset of Config holding the
// reassembler and outer frame parser caps (spec.md §6:
// max_frame_bytes, max_flow_buffer_bytes, max_envelope_nesting). It is
// backed by atomics so a config file write never hands a reader a
// half-updated value. A Pipeline reads these values once, when it
// starts; a reload stored later takes effect at the next Start.
type SafetyKnobs struct {
	maxFrameBytes      atomic.Int64
	maxFlowBufferBytes atomic.Int64
	maxEnvelopeNesting atomic.Int64
}

func newSafetyKnobs(c ReassemblyConfig, f FrameConfig) *SafetyKnobs {
	k := &SafetyKnobs{}
	k.store(c, f)
	return k
}

func (k *SafetyKnobs) store(c ReassemblyConfig, f FrameConfig) {
	k.maxFrameBytes.Store(int64(c.MaxFrameBytes))
	k.maxFlowBufferBytes.Store(int64(c.MaxFlowBufferBytes))
	k.maxEnvelopeNesting.Store(int64(f.MaxEnvelopeNesting))
}

func (k *SafetyKnobs) MaxFrameBytes() int      { return int(k.maxFrameBytes.Load()) }
func (k *SafetyKnobs) MaxFlowBufferBytes() int { return int(k.maxFlowBufferBytes.Load()) }
func (k *SafetyKnobs) MaxEnvelopeNesting() int { return int(k.maxEnvelopeNesting.Load()) }

// Loader owns a viper instance, the last-loaded Config, and the live
// SafetyKnobs snapshot consumed by the reassembler and frame parser.
type Loader struct {
	v      *viper.Viper
	Config Config
	Safety *SafetyKnobs
}

// Load reads path into a Config, applying NEARCAP_-prefixed
// environment overrides and viper defaults, then validates it.
func Load(path string) (*Loader, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix("NEARCAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, err
	}
	cfg := root.Nearcap
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Loader{
		v:      v,
		Config: cfg,
		Safety: newSafetyKnobs(cfg.Reassembly, cfg.Frame),
	}
	return l, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("nearcap.capture.selected_device", d.Capture.SelectedDevice)
	v.SetDefault("nearcap.capture.backend", d.Capture.Backend)
	v.SetDefault("nearcap.capture.bpf_filter", d.Capture.BPFFilter)
	v.SetDefault("nearcap.capture.snap_len", d.Capture.SnapLen)
	v.SetDefault("nearcap.capture.ring_buffer_bytes", d.Capture.RingBufferSize)
	v.SetDefault("nearcap.reassembly.max_frame_bytes", d.Reassembly.MaxFrameBytes)
	v.SetDefault("nearcap.reassembly.max_flow_buffer_bytes", d.Reassembly.MaxFlowBufferBytes)
	v.SetDefault("nearcap.reassembly.shards", d.Reassembly.Shards)
	v.SetDefault("nearcap.reassembly.flow_idle_timeout", d.Reassembly.FlowIdleTimeout)
	v.SetDefault("nearcap.frame.max_envelope_nesting", d.Frame.MaxEnvelopeNesting)
	v.SetDefault("nearcap.router.service_id", d.Router.ServiceID)
	v.SetDefault("nearcap.metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("nearcap.metrics.listen_addr", d.Metrics.ListenAddr)
	v.SetDefault("nearcap.metrics.path", d.Metrics.Path)
	v.SetDefault("nearcap.log.level", d.Log.Level)
	v.SetDefault("nearcap.log.pattern", d.Log.Pattern)
	v.SetDefault("nearcap.log.time", d.Log.Time)
}

// WatchSafety re-reads the reassembly/frame safety knobs on every file
// change and stores them into the live SafetyKnobs snapshot. A running
// Pipeline does not pick the new values up until its next Start. It
// does not hot-swap the capture device, router, or log settings —
// those require a restart.
func (l *Loader) WatchSafety() {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		var root configRoot
		if err := l.v.Unmarshal(&root); err != nil {
			log.GetLogger().WithError(err).Warn("config reload: unmarshal failed, keeping previous safety knobs")
			return
		}
		cfg := root.Nearcap
		if err := cfg.Validate(); err != nil {
			log.GetLogger().WithError(err).Warn("config reload: validation failed, keeping previous safety knobs")
			return
		}
		l.Safety.store(cfg.Reassembly, cfg.Frame)
		log.GetLogger().Info("config reload: safety knobs updated")
	})
	l.v.WatchConfig()
}
