package renderer

import (
	"context"

	"github.com/vega-render/vega/bvh"
	"github.com/vega-render/vega/integrator"
	"github.com/vega-render/vega/sampler"
	"github.com/vega-render/vega/scene"
)

// Job assigns one frame tile to a worker. JobID identifies the assignment
// itself so retransmitted results can be deduplicated independently of the
// tile they carry.
type Job struct {
	JobID  string `json:"job_id"`
	TileID int    `json:"tile_id"`
	Rect   Rect   `json:"rect"`

	SamplesPerPixel uint32 `json:"spp"`
	Seed            uint64 `json:"seed"`
}

// Result carries the radiance sums for a rendered tile: 3 floats per pixel
// in row-major order.
type Result struct {
	JobID  string `json:"job_id"`
	TileID int    `json:"tile_id"`
	Rect   Rect   `json:"rect"`

	Pix     []float32 `json:"pix"`
	Samples uint32    `json:"samples"`
}

// Tracer renders assigned tiles. Local worker goroutines and remote worker
// connections both satisfy it; the coordinator pumps each attached tracer
// from the shared tile queue.
type Tracer interface {
	// Identifier reported in frame statistics.
	ID() string

	// Render the tile described by the job.
	Trace(ctx context.Context, job Job) (Result, error)
}

// TileRenderer renders frame tiles against an immutable scene. It is the
// sampling core shared by local workers and remote worker processes; every
// field is read-only during rendering so a single value may back any number
// of concurrent tracers.
type TileRenderer struct {
	Scene *scene.Scene
	Accel *bvh.BVH

	FrameW uint32
	FrameH uint32

	Integrator integrator.Path
}

// Render traces every pixel of the tile, spp samples each, and returns the
// per-pixel radiance sums. The output of a given (tile, spp, seed) triple is
// identical no matter which worker executes it: each sample draws from a
// sampler stream derived only from the seed, the absolute pixel coordinates
// and the sample index.
func (t *TileRenderer) Render(rect Rect, spp uint32, seed uint64) []float32 {
	pix := make([]float32, 3*rect.W*rect.H)

	for ty := uint32(0); ty < rect.H; ty++ {
		py := rect.Y + ty
		for tx := uint32(0); tx < rect.W; tx++ {
			px := rect.X + tx

			var sumR, sumG, sumB float32
			for s := uint32(0); s < spp; s++ {
				smp := sampler.New(seed, px, py, s)
				jitter := smp.PixelJitter(spp)

				// Pixel rows count down from the frame top while
				// the camera's t axis points up.
				u := (float32(px) + jitter[0]) / float32(t.FrameW)
				v := 1 - (float32(py)+jitter[1])/float32(t.FrameH)

				r := t.Scene.Camera.GenerateRay(u, v, smp.Get2D())
				l := t.Integrator.Li(r, t.Scene, t.Accel, smp)
				sumR += l[0]
				sumG += l[1]
				sumB += l[2]
			}

			idx := 3 * (ty*rect.W + tx)
			pix[idx] = sumR
			pix[idx+1] = sumG
			pix[idx+2] = sumB
		}
	}
	return pix
}

// A tracer backed by an in-process goroutine.
type localTracer struct {
	id string
	tr *TileRenderer
}

func (l *localTracer) ID() string {
	return l.id
}

func (l *localTracer) Trace(_ context.Context, job Job) (Result, error) {
	return Result{
		JobID:   job.JobID,
		TileID:  job.TileID,
		Rect:    job.Rect,
		Pix:     l.tr.Render(job.Rect, job.SamplesPerPixel, job.Seed),
		Samples: job.SamplesPerPixel,
	}, nil
}
