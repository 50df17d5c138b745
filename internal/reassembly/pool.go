package reassembly

import (
	"strconv"
	"time"

	"github.com/serialx/hashring"
	"github.com/sourcegraph/conc"

	"github.com/nearcap/nearcap/internal/core"
)

// OnFrame is invoked once per emitted outer frame, in the arrival
// order of the shard that owns the frame's flow (spec.md §5's
// ordering guarantee, extended to the opt-in sharded case).
type OnFrame func(key core.FlowKey, frame []byte)

// shardJob is either a payload to feed (sweep == false) or a sweep
// command (sweep == true); both must run on the shard's own goroutine
// since only it may touch the shard's Reassembler.
type shardJob struct {
	key     core.FlowKey
	payload []byte
	sweep   bool
	timeout time.Duration
}

// shard owns one Reassembler plus the single goroutine draining its
// queue. Only its owning goroutine ever touches the Reassembler,
// preserving spec.md §4.3's single-writer-per-flow-buffer invariant.
type shard struct {
	id    string
	queue chan shardJob
	r     *Reassembler
}

// Pool fans flow keys out to N shard goroutines by consistent hash so
// every frame of one flow is always handled by the same goroutine in
// arrival order, per spec.md §5's sharding escape hatch. With N=1 the
// Pool degenerates to the single-producer-thread model §5 describes
// directly.
type Pool struct {
	shards  []*shard
	ring    *hashring.HashRing
	onFrame OnFrame
	wg      conc.WaitGroup
}

// NewPool starts n shard goroutines, each with its own Reassembler
// using the given safety caps.
func NewPool(n, maxFrameBytes, maxBufferBytes int, onFrame OnFrame) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{onFrame: onFrame}
	nodes := make([]string, n)
	for i := 0; i < n; i++ {
		s := &shard{
			id:    "shard-" + strconv.Itoa(i),
			queue: make(chan shardJob, 1024),
			r:     New(maxFrameBytes, maxBufferBytes),
		}
		nodes[i] = s.id
		p.shards = append(p.shards, s)
		p.wg.Go(func() { p.run(s) })
	}
	p.ring = hashring.New(nodes)
	return p
}

func (p *Pool) run(s *shard) {
	for job := range s.queue {
		if job.sweep {
			s.r.Sweep(job.timeout)
			continue
		}
		for _, frame := range s.r.Feed(job.key, job.payload) {
			p.onFrame(job.key, frame)
		}
	}
}

// Feed routes payload to the shard owning key. It never blocks longer
// than the shard queue's capacity allows; a full queue indicates the
// pool is undersized for the capture rate.
func (p *Pool) Feed(key core.FlowKey, payload []byte) {
	node, ok := p.ring.GetNode(flowLabel(key))
	if !ok {
		node = p.shards[0].id
	}
	for _, s := range p.shards {
		if s.id == node {
			s.queue <- shardJob{key: key, payload: payload}
			return
		}
	}
}

// Sweep reclaims idle flow buffers across every shard (spec.md §3's
// "reclaimed when the flow produces no data for a timeout"). Each
// shard sweeps its own Reassembler from its own goroutine, since only
// the owning goroutine may touch it.
func (p *Pool) Sweep(timeout time.Duration) {
	for _, s := range p.shards {
		select {
		case s.queue <- shardJob{sweep: true, timeout: timeout}:
		default:
			// Queue full: skip this round rather than block the caller;
			// the next tick will retry.
		}
	}
}

// Close drains and stops every shard goroutine, propagating any
// panic raised inside a shard rather than losing it silently (spec.md
// §5's device-switch join semantics).
func (p *Pool) Close() {
	for _, s := range p.shards {
		close(s.queue)
	}
	p.wg.Wait()
}
