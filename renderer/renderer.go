// Package renderer drives per-pixel tracing across a pool of workers and
// assembles the final frame.
package renderer

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/tonihW/raytracer-v2/log"
	"github.com/tonihW/raytracer-v2/scene"
	"github.com/tonihW/raytracer-v2/tracer"
)

// A rectangular subregion of the output image. Each tile is rendered by
// exactly one worker into a private buffer.
type tile struct {
	x, y uint32
	w, h uint32

	// Tone-mapped pixels, 3 bytes per pixel in row-major order. Filled by
	// the rendering worker, merged by the coordinator after the join.
	pix []uint8
}

// Renders frames by partitioning the image plane into tiles and tracing
// them on independent workers. The scene is shared read-only: it must be
// built before New is called and no worker ever mutates it.
type Renderer struct {
	logger log.Logger

	sc   *scene.Scene
	rt   *tracer.Raytracer
	opts Options

	stats FrameStats
}

// Create a renderer for a built scene.
func New(sc *scene.Scene, opts Options) (*Renderer, error) {
	opts.applyDefaults()
	if sc.Bvh == nil {
		return nil, fmt.Errorf("renderer: scene must be built before rendering")
	}
	if sc.Camera == nil {
		return nil, fmt.Errorf("renderer: scene has no camera")
	}

	return &Renderer{
		logger: log.New("renderer"),
		sc:     sc,
		rt:     &tracer.Raytracer{MaxDepth: opts.MaxDepth},
		opts:   opts,
	}, nil
}

// Render a single frame. Tiles are distributed over a fixed pool of
// workers; each worker traces its tiles into private buffers which the
// coordinator merges into the output image only after all workers have
// joined, so no synchronization on the image itself is needed.
func (r *Renderer) Render() (*image.RGBA, error) {
	start := time.Now()

	tiles := partitionFrame(r.opts.FrameW, r.opts.FrameH, uint32(r.opts.NumWorkers))
	r.logger.Infof("rendering %dx%d frame: %d tiles on %d workers",
		r.opts.FrameW, r.opts.FrameH, len(tiles), r.opts.NumWorkers)

	jobs := make(chan *tile, len(tiles))
	for i := range tiles {
		jobs <- &tiles[i]
	}
	close(jobs)

	r.stats = FrameStats{Workers: make([]WorkerStats, r.opts.NumWorkers)}

	var wg sync.WaitGroup
	for workerId := 0; workerId < r.opts.NumWorkers; workerId++ {
		wg.Add(1)
		go func(workerId int) {
			defer wg.Done()

			ws := &r.stats.Workers[workerId]
			ws.Id = workerId
			for t := range jobs {
				tileStart := time.Now()
				r.renderTile(t)
				ws.Tiles++
				ws.Pixels += uint64(t.w) * uint64(t.h)
				ws.RenderTime += time.Since(tileStart)
			}
		}(workerId)
	}
	wg.Wait()

	// Merge tile buffers into the output image
	frame := image.NewRGBA(image.Rect(0, 0, int(r.opts.FrameW), int(r.opts.FrameH)))
	for i := range tiles {
		t := &tiles[i]
		for ty := uint32(0); ty < t.h; ty++ {
			for tx := uint32(0); tx < t.w; tx++ {
				offset := (ty*t.w + tx) * 3
				frame.SetRGBA(int(t.x+tx), int(t.y+ty), color.RGBA{
					R: t.pix[offset],
					G: t.pix[offset+1],
					B: t.pix[offset+2],
					A: 255,
				})
			}
		}
	}

	r.stats.RenderTime = time.Since(start)
	r.logger.Noticef("rendered frame in %d ms", r.stats.RenderTime.Nanoseconds()/1e6)

	return frame, nil
}

// Get statistics for the last rendered frame.
func (r *Renderer) Stats() FrameStats {
	return r.stats
}

// Trace every pixel of a tile into its private buffer, tone-mapping at the
// pixel-write boundary.
func (r *Renderer) renderTile(t *tile) {
	t.pix = make([]uint8, t.w*t.h*3)

	offset := 0
	for y := t.y; y < t.y+t.h; y++ {
		for x := t.x; x < t.x+t.w; x++ {
			ray := r.sc.Camera.CalcRay(float32(x), float32(y))
			radiance := r.rt.Trace(r.sc, &ray, 0)

			t.pix[offset] = toneMap(radiance[0])
			t.pix[offset+1] = toneMap(radiance[1])
			t.pix[offset+2] = toneMap(radiance[2])
			offset += 3
		}
	}
}

// Map a linear radiance channel to display range: scale by 255 and clamp.
func toneMap(v float32) uint8 {
	v *= 255.0
	if v < 0.0 {
		return 0
	}
	if v > 255.0 {
		return 255
	}
	return uint8(v)
}

// Split the frame into an n by n grid of rectangular tiles. The trailing
// tile in each dimension absorbs any remainder pixels so the union of all
// tiles covers every pixel exactly once.
func partitionFrame(frameW, frameH, n uint32) []tile {
	if n == 0 {
		n = 1
	}
	tileW := frameW / n
	tileH := frameH / n

	tiles := make([]tile, 0, n*n)
	for j := uint32(0); j < n; j++ {
		y := j * tileH
		h := tileH
		if j == n-1 {
			h = frameH - y
		}
		if h == 0 {
			continue
		}

		for i := uint32(0); i < n; i++ {
			x := i * tileW
			w := tileW
			if i == n-1 {
				w = frameW - x
			}
			if w == 0 {
				continue
			}

			tiles = append(tiles, tile{x: x, y: y, w: w, h: h})
		}
	}

	return tiles
}
