package renderer

import "time"

const (
	// Edge length of the square frame tiles handed out as work units.
	DefaultTileSize uint32 = 32

	// Bounce limit applied when the options leave it unset.
	DefaultNumBounces uint32 = 8

	// Number of bounces traced before Russian roulette may kill a path.
	DefaultMinBouncesForRR uint32 = 3

	// An in-flight work unit older than this is assumed lost and
	// requeued.
	DefaultWorkerTimeout = 30 * time.Second

	// Times a work unit may fail before the render is aborted.
	DefaultMaxRetries = 3
)

// Options tunes a render job. The zero value is not usable directly; New
// fills in defaults for the fields left at zero and rejects options that
// cannot produce a frame.
type Options struct {
	// Output frame dimensions in pixels.
	FrameW uint32
	FrameH uint32

	// Monte Carlo samples traced per pixel.
	SamplesPerPixel uint32

	// Edge length of the square tiles the frame is partitioned into.
	TileSize uint32

	// Number of local worker goroutines. Zero means one per CPU.
	NumWorkers int

	// Path depth controls handed to the integrator.
	NumBounces      uint32
	MinBouncesForRR uint32

	// Base seed for the deterministic per-pixel sampler streams.
	Seed uint64

	// Remote worker endpoints the frame is additionally distributed to.
	Workers []string

	// Lost-unit detection and retry budget.
	WorkerTimeout time.Duration
	MaxRetries    int

	// Linear exposure multiplier applied during tone mapping.
	Exposure float32
}

func (o *Options) applyDefaults() {
	if o.TileSize == 0 {
		o.TileSize = DefaultTileSize
	}
	if o.NumBounces == 0 {
		o.NumBounces = DefaultNumBounces
	}
	if o.MinBouncesForRR == 0 {
		o.MinBouncesForRR = DefaultMinBouncesForRR
	}
	if o.WorkerTimeout == 0 {
		o.WorkerTimeout = DefaultWorkerTimeout
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.Exposure == 0 {
		o.Exposure = 1
	}
}
