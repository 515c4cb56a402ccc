package renderer

import (
	"runtime"

	"github.com/tonihW/raytracer-v2/tracer"
)

// Frame rendering options.
type Options struct {
	// Output dimensions in pixels.
	FrameW uint32
	FrameH uint32

	// Bound on trace recursion depth.
	MaxDepth int

	// Number of worker goroutines; defaults to the available hardware
	// parallelism.
	NumWorkers int
}

// Fill in defaults for unset options.
func (o *Options) applyDefaults() {
	if o.FrameW == 0 {
		o.FrameW = 512
	}
	if o.FrameH == 0 {
		o.FrameH = 512
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = tracer.DefaultMaxDepth
	}
	if o.NumWorkers <= 0 {
		o.NumWorkers = runtime.NumCPU()
	}
}
