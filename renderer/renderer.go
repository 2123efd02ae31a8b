// Package renderer coordinates the rendering of a frame. It partitions the
// frame into tiles, hands them out to local and remote workers on a
// pull basis, survives worker loss by requeueing timed-out units and merges
// completed tiles into the framebuffer exactly once each.
package renderer

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vega-render/vega/bvh"
	"github.com/vega-render/vega/integrator"
	"github.com/vega-render/vega/log"
	"github.com/vega-render/vega/scene"
)

// Coordinator drives a single render job from tile partition to the final
// framebuffer.
type Coordinator struct {
	logger log.Logger

	sc      *scene.Scene
	accel   *bvh.BVH
	options Options

	tracers []Tracer

	stats FrameStats
}

// New validates the options, builds the acceleration structure over the
// scene and prepares a coordinator with the requested number of local
// workers attached. Remote workers are attached separately via
// AttachWorker before Render is called.
func New(sc *scene.Scene, options Options) (*Coordinator, error) {
	if sc == nil {
		return nil, ErrSceneNotDefined
	}
	if sc.Camera == nil {
		return nil, ErrCameraNotDefined
	}
	if options.FrameW == 0 || options.FrameH == 0 {
		return nil, ErrZeroResolution
	}
	if options.SamplesPerPixel == 0 {
		return nil, ErrNoSamples
	}
	options.applyDefaults()

	numLocal := options.NumWorkers
	if numLocal == 0 {
		numLocal = runtime.NumCPU()
	} else if numLocal < 0 {
		numLocal = 0
	}

	sc.Camera.SetupProjection(float32(options.FrameW) / float32(options.FrameH))

	co := &Coordinator{
		logger:  log.New("renderer"),
		sc:      sc,
		accel:   bvh.Build(sc.Primitives),
		options: options,
	}

	tr := &TileRenderer{
		Scene:  sc,
		Accel:  co.accel,
		FrameW: options.FrameW,
		FrameH: options.FrameH,
		Integrator: integrator.Path{
			MinDepth: options.MinBouncesForRR,
			MaxDepth: options.NumBounces,
		},
	}
	for i := 0; i < numLocal; i++ {
		co.tracers = append(co.tracers, &localTracer{
			id: fmt.Sprintf("local-%d", i),
			tr: tr,
		})
	}

	return co, nil
}

// AttachWorker registers an additional tracer with the coordinator. Must be
// called before Render.
func (co *Coordinator) AttachWorker(t Tracer) {
	co.tracers = append(co.tracers, t)
}

// Options returns the effective options after default resolution.
func (co *Coordinator) Options() Options {
	return co.options
}

// Stats returns the statistics gathered by the last Render call.
func (co *Coordinator) Stats() *FrameStats {
	return &co.stats
}

// Render blocks until every frame tile has been rendered and merged, then
// returns the framebuffer. Cancelling the context aborts pending work;
// tiles already in flight still complete and are merged. A tile that fails
// past the retry budget aborts the render with an error naming it.
func (co *Coordinator) Render(ctx context.Context) (*Framebuffer, error) {
	if len(co.tracers) == 0 {
		return nil, ErrNoWorkers
	}

	queue := newTileQueue(co.options.FrameW, co.options.FrameH, co.options.TileSize, co.options.MaxRetries)
	fb := NewFramebuffer(co.options.FrameW, co.options.FrameH)

	co.logger.Noticef(
		"rendering %dx%d frame, %d spp, %d tiles, %d workers",
		co.options.FrameW, co.options.FrameH, co.options.SamplesPerPixel,
		queue.unitCount(), len(co.tracers),
	)
	start := time.Now()
	co.stats = FrameStats{}

	// Watchdog: returns lost units to the queue, stops alongside the
	// worker pumps.
	pumpCtx, stopPumps := context.WithCancel(ctx)
	defer stopPumps()
	go func() {
		ticker := time.NewTicker(co.options.WorkerTimeout / 2)
		defer ticker.Stop()
		for {
			select {
			case <-pumpCtx.Done():
				return
			case <-ticker.C:
				queue.requeueStale(co.options.WorkerTimeout)
			}
		}
	}()

	// Abort pending units when the caller cancels.
	go func() {
		<-pumpCtx.Done()
		queue.abort(ctx.Err())
	}()

	var wg sync.WaitGroup
	var statsMu sync.Mutex
	for _, t := range co.tracers {
		wg.Add(1)
		go func(t Tracer) {
			defer wg.Done()
			co.pump(pumpCtx, t, queue, fb, &statsMu)
		}(t)
	}
	wg.Wait()
	stopPumps()

	co.stats.RenderTime = time.Since(start)

	if err := queue.failure(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	co.logger.Noticef("frame completed in %d ms", co.stats.RenderTime.Nanoseconds()/1e6)
	return fb, nil
}

// pump feeds one tracer from the queue until the queue drains or aborts.
func (co *Coordinator) pump(ctx context.Context, t Tracer, queue *tileQueue, fb *Framebuffer, statsMu *sync.Mutex) {
	stat := WorkerStats{ID: t.ID()}

	for {
		id, rect, ok := queue.next()
		if !ok {
			break
		}

		job := Job{
			JobID:           uuid.New().String(),
			TileID:          id,
			Rect:            rect,
			SamplesPerPixel: co.options.SamplesPerPixel,
			Seed:            co.options.Seed,
		}

		traceStart := time.Now()
		res, err := t.Trace(ctx, job)
		if err != nil {
			co.logger.Warningf("worker %s failed on tile %d: %v", t.ID(), id, err)
			queue.fail(id, err)
			continue
		}

		if !queue.complete(res.TileID) {
			co.logger.Debugf("worker %s: dropping stale result for tile %d", t.ID(), res.TileID)
			continue
		}
		if !fb.MergeTile(res.TileID, res.Rect, res.Pix, res.Samples) {
			co.logger.Debugf("worker %s: duplicate merge for tile %d ignored", t.ID(), res.TileID)
			continue
		}

		stat.Tiles++
		stat.Samples += uint64(res.Samples) * uint64(res.Rect.W) * uint64(res.Rect.H)
		stat.Time += time.Since(traceStart)
	}

	statsMu.Lock()
	co.stats.Workers = append(co.stats.Workers, stat)
	statsMu.Unlock()
}
