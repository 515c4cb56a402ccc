package renderer

import "time"

// Per-worker render statistics for the last frame.
type WorkerStats struct {
	Id     int
	Tiles  int
	Pixels uint64

	// Total time this worker spent tracing.
	RenderTime time.Duration
}

// Frame statistics.
type FrameStats struct {
	Workers []WorkerStats

	// Wall-clock time for the whole frame.
	RenderTime time.Duration
}
