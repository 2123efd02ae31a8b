package cmd

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"github.com/vega-render/vega/distrib"
	"github.com/vega-render/vega/renderer"
	"github.com/vega-render/vega/scene"
)

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	opts := renderer.Options{
		FrameW:          uint32(ctx.Int("width")),
		FrameH:          uint32(ctx.Int("height")),
		SamplesPerPixel: uint32(ctx.Int("spp")),
		TileSize:        uint32(ctx.Int("tile-size")),
		NumWorkers:      ctx.Int("num-workers"),
		NumBounces:      uint32(ctx.Int("num-bounces")),
		MinBouncesForRR: uint32(ctx.Int("rr-bounces")),
		Seed:            uint64(ctx.Int("seed")),
		Workers:         ctx.StringSlice("worker"),
		WorkerTimeout:   time.Duration(ctx.Int("worker-timeout")) * time.Second,
		Exposure:        float32(ctx.Float64("exposure")),
	}

	if opts.MinBouncesForRR >= opts.NumBounces && opts.NumBounces != 0 {
		logger.Notice("disabling RR for path elimination")
		opts.MinBouncesForRR = opts.NumBounces + 1
	}

	if ctx.NArg() != 1 {
		return errors.New("missing scene name argument")
	}
	sc, err := scene.ByName(ctx.Args().First())
	if err != nil {
		return err
	}
	logger.Noticef("scene statistics\n%s", sc.Stats())

	r, err := renderer.New(sc, opts)
	if err != nil {
		return err
	}

	// Attach remote workers before the frame starts.
	for _, addr := range opts.Workers {
		rw, err := distrib.Dial(addr, r.Options())
		if err != nil {
			return err
		}
		defer rw.Close()
		logger.Noticef("attached remote worker %s at %s", rw.ID(), addr)
		r.AttachWorker(rw)
	}

	renderCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fb, err := r.Render(renderCtx)
	if err != nil {
		return err
	}

	displayFrameStats(r.Stats())

	return writeFrame(fb, opts.Exposure, ctx.String("out"))
}

func displayFrameStats(stats *renderer.FrameStats) {
	var buf bytes.Buffer
	stats.Write(&buf)
	logger.Noticef("frame statistics\n%s", buf.String())
}

func writeFrame(fb *renderer.Framebuffer, exposure float32, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	if err = png.Encode(f, fb.Image(exposure)); err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}
	logger.Noticef("wrote frame to %s", path)
	return nil
}
