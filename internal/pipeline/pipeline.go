package pipeline

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/nearcap/nearcap/internal/capture"
	"github.com/nearcap/nearcap/internal/config"
	"github.com/nearcap/nearcap/internal/core"
	"github.com/nearcap/nearcap/internal/entity"
	"github.com/nearcap/nearcap/internal/flow"
	"github.com/nearcap/nearcap/internal/frame"
	"github.com/nearcap/nearcap/internal/log"
	pmetrics "github.com/nearcap/nearcap/internal/metrics"
	"github.com/nearcap/nearcap/internal/notify"
	"github.com/nearcap/nearcap/internal/reassembly"
	"github.com/nearcap/nearcap/internal/schema"
	"github.com/nearcap/nearcap/internal/sink"
)

const sweepInterval = 30 * time.Second

// Config configures one Pipeline (spec.md §2, §5).
type Config struct {
	Loader *config.Loader
	Sink   sink.Sink

	// FrameChanSize bounds how many emitted frames may queue between
	// the reassembly shards and the single frame-processing goroutine.
	FrameChanSize int
}

// Pipeline wires the capture-to-event components into the single
// running device capture spec.md §2 describes: Capture Source → Flow
// Demultiplexer → Stream Reassembler → Outer Frame Parser → Message
// Router → Schema Decoder → Entity/Event Dispatcher → Sink.
//
// Per spec.md §5, frame decoding from the Outer Frame Parser onward
// runs on a single goroutine even when the Stream Reassembler is
// sharded by flow key: shards only own buffering, not dispatch.
type Pipeline struct {
	loader *config.Loader
	sink   sink.Sink

	demux      *flow.Demultiplexer
	pool       *reassembly.Pool
	frameParse *frame.Parser
	dispatcher *entity.Dispatcher
	metrics    *Metrics

	source *capture.Source

	frameChan chan []byte

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Pipeline without opening a capture device. Call
// Start to open device and begin processing.
func New(cfg Config) *Pipeline {
	chanSize := cfg.FrameChanSize
	if chanSize == 0 {
		chanSize = 1024
	}

	return &Pipeline{
		loader:    cfg.Loader,
		sink:      cfg.Sink,
		demux:     flow.New(),
		metrics:   NewMetrics(),
		frameChan: make(chan []byte, chanSize),
	}
}

// Start opens device and begins capture and frame processing (spec.md
// §4.1, §5). Start is not idempotent; call Stop before calling Start
// again (device switch is modeled as stop(); start(i')).
func (p *Pipeline) Start(device core.Device) error {
	source, err := capture.Open(device, p.loader.Config.Capture)
	if err != nil {
		return err
	}
	return p.startWithSource(source)
}

// StartReplay begins frame processing against a previously captured
// pcap file instead of a live device, reusing the same goroutines and
// sink wiring as Start (a supplement for testing and incident review;
// spec.md §4.1 only describes live devices).
func (p *Pipeline) StartReplay(path string) error {
	source, err := capture.OpenFile(path)
	if err != nil {
		return err
	}
	return p.startWithSource(source)
}

func (p *Pipeline) startWithSource(source *capture.Source) error {
	rc := p.loader.Config.Reassembly
	safety := p.loader.Safety

	p.source = source
	// The previous run's captureLoop closed frameChan on exit.
	p.frameChan = make(chan []byte, cap(p.frameChan))

	p.dispatcher = entity.New(p.sink)
	p.frameParse = frame.NewParser(frame.NewCodec(), safety.MaxEnvelopeNesting())
	p.pool = reassembly.NewPool(rc.Shards, safety.MaxFrameBytes(), safety.MaxFlowBufferBytes(), p.onFrame)

	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.wg.Add(1)
	go p.captureLoop()

	p.wg.Add(1)
	go p.frameLoop()

	p.wg.Add(1)
	go p.sweepLoop()

	log.GetLogger().WithField("device", source.Device().Name).Info("pipeline started")
	return nil
}

// Stop cancels capture and frame processing and closes the device
// handle. All per-flow state is dropped per spec.md §5/§9's
// stop();start(i') device-switch model.
func (p *Pipeline) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	if p.source != nil {
		p.source.Close()
	}
	p.wg.Wait()
	if p.pool != nil {
		p.pool.Close()
	}
	log.GetLogger().Info("pipeline stopped")
}

// Switch implements spec.md §5's device-switch model: stop the
// current capture, drop all per-flow and local-player state, and
// start against the new device.
func (p *Pipeline) Switch(device core.Device) error {
	p.Stop()
	return p.Start(device)
}

func (p *Pipeline) captureLoop() {
	defer p.wg.Done()
	defer close(p.frameChan)

	device := p.source.Device()
	for {
		data, _, err := p.source.ReadPacket()
		if err != nil {
			if p.ctx.Err() != nil {
				return
			}
			if err == io.EOF {
				log.GetLogger().Info("capture source exhausted")
				p.cancel()
				return
			}
			log.GetLogger().WithError(err).Warn("capture read failed")
			continue
		}

		pmetrics.PacketsCapturedTotal.WithLabelValues(device.Name).Inc()
		p.metrics.PacketsReceived.Add(1)

		key, payload, ok := p.demux.Extract(data)
		if !ok {
			continue
		}
		p.pool.Feed(key, payload)

		select {
		case <-p.ctx.Done():
			return
		default:
		}
	}
}

// onFrame is the reassembly.Pool callback: it only hands emitted
// frames to the single downstream goroutine, never dispatches itself,
// so entity/sink mutation stays on one goroutine regardless of shard
// count (spec.md §5).
func (p *Pipeline) onFrame(key core.FlowKey, frameBytes []byte) {
	select {
	case p.frameChan <- frameBytes:
	case <-p.ctx.Done():
	}
}

func (p *Pipeline) frameLoop() {
	defer p.wg.Done()
	for raw := range p.frameChan {
		p.metrics.FramesEmitted.Add(1)
		p.handleFrame(raw)
	}
}

func (p *Pipeline) sweepLoop() {
	defer p.wg.Done()
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	timeout, err := time.ParseDuration(p.loader.Config.Reassembly.FlowIdleTimeout)
	if err != nil {
		timeout = 5 * time.Minute
	}

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.pool.Sweep(timeout)
		}
	}
}

func (p *Pipeline) handleFrame(raw []byte) {
	n, ok := p.frameParse.Parse(raw)
	if !ok {
		return
	}

	header, body, ok := notify.Parse(n.Body)
	if !ok {
		return
	}
	if !notify.Accepts(header.ServiceID, p.loader.Config.Router.ServiceID) {
		p.metrics.NotifyRejected.Add(1)
		return
	}
	p.metrics.NotifyAccepted.Add(1)

	p.dispatchMethod(header.MethodID, body)
}

func (p *Pipeline) dispatchMethod(methodID uint32, body []byte) {
	switch methodID {
	case notify.MethodSyncNearEntities:
		entities, err := schema.DecodeSyncNearEntities(body)
		if err != nil {
			p.metrics.DispatchErrors.Add(1)
			return
		}
		p.dispatcher.DispatchSyncNearEntities(entities)

	case notify.MethodSyncContainerData, notify.MethodSyncContainerDirtyData:
		e, err := schema.DecodeSyncContainerData(body)
		if err != nil {
			p.metrics.DispatchErrors.Add(1)
			return
		}
		p.dispatcher.DispatchSyncContainerData(e)

	case notify.MethodSyncServerTime:
		delta, err := schema.DecodeSyncServerTime(body)
		if err != nil {
			p.metrics.DispatchErrors.Add(1)
			return
		}
		p.dispatcher.DispatchSyncServerTime(delta)

	case notify.MethodSyncNearDeltaInfo:
		deltas, err := schema.DecodeSyncNearDeltaInfo(body)
		if err != nil {
			p.metrics.DispatchErrors.Add(1)
			return
		}
		p.dispatcher.DispatchSyncNearDeltaInfo(deltas)

	case notify.MethodSyncToMeDeltaInfo:
		delta, err := schema.DecodeSyncToMeDeltaInfo(body)
		if err != nil {
			p.metrics.DispatchErrors.Add(1)
			return
		}
		p.dispatcher.DispatchSyncToMeDeltaInfo(delta)

	default:
		// Opportunistic movement decode (spec.md §4.9): try NewMove
		// then UserControlInfo, discard silently on both failures.
		if pos, ok := schema.DecodeMovement(body); ok {
			p.dispatcher.DispatchPosition(pos)
		}
	}

	p.metrics.MethodsDispatched.Add(1)
}

// Stats returns a point-in-time snapshot of the pipeline's counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		PacketsReceived:   p.metrics.PacketsReceived.Load(),
		FramesEmitted:     p.metrics.FramesEmitted.Load(),
		NotifyAccepted:    p.metrics.NotifyAccepted.Load(),
		NotifyRejected:    p.metrics.NotifyRejected.Load(),
		MethodsDispatched: p.metrics.MethodsDispatched.Load(),
		DispatchErrors:    p.metrics.DispatchErrors.Load(),
	}
}
