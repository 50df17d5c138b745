package pipeline

import (
	"github.com/nearcap/nearcap/internal/config"
	"github.com/nearcap/nearcap/internal/sink"
)

// Builder provides a fluent interface for constructing a Pipeline
// Config, mirroring the teacher's builder pattern.
type Builder struct {
	config Config
}

// NewBuilder returns a Builder with defaults applied.
func NewBuilder() *Builder {
	return &Builder{config: Config{FrameChanSize: 1024}}
}

// WithLoader sets the configuration loader.
func (b *Builder) WithLoader(l *config.Loader) *Builder {
	b.config.Loader = l
	return b
}

// WithSink sets the sink collaborator.
func (b *Builder) WithSink(s sink.Sink) *Builder {
	b.config.Sink = s
	return b
}

// WithFrameChanSize sets the frame channel buffer size.
func (b *Builder) WithFrameChanSize(size int) *Builder {
	b.config.FrameChanSize = size
	return b
}

// Build constructs the Pipeline.
func (b *Builder) Build() *Pipeline {
	return New(b.config)
}
