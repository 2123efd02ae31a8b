package sampler

import (
	"math"
	"math/rand"

	"github.com/vega-render/vega/types"
)

// Sampler produces a deterministic lazy stream of sample values in [0, 1)
// for a single (pixel, sample index) pair. Streams for the same tuple are
// reproducible bit-for-bit which allows a failed work unit to be restarted
// on another worker without changing the rendered result.
//
// Sampler instances are owned by a single worker goroutine and must not be
// shared.
type Sampler struct {
	rng    *rand.Rand
	sample uint32
}

// Create a sampler for the given frame seed, pixel coordinates and sample
// index. The stream position depends only on the input tuple.
func New(seed uint64, pixelX, pixelY, sample uint32) *Sampler {
	h := mix(seed ^ uint64(pixelX)<<40 ^ uint64(pixelY)<<20 ^ uint64(sample))
	return &Sampler{
		rng:    rand.New(rand.NewSource(int64(h))),
		sample: sample,
	}
}

// Get the next 1D sample value in [0, 1).
func (s *Sampler) Get1D() float32 {
	v := float32(s.rng.Float64())
	if v >= 1 {
		v = math.Nextafter32(1, 0)
	}
	return v
}

// Get the next 2D sample value with both components in [0, 1).
func (s *Sampler) Get2D() types.Vec2 {
	return types.XY(s.Get1D(), s.Get1D())
}

// Generate a stratified sub-pixel offset in [0, 1)^2 for this sampler's
// sample index. Samples are jittered inside cells of a ceil(sqrt(spp)) grid
// so that successive samples of the same pixel cover it evenly.
func (s *Sampler) PixelJitter(spp uint32) types.Vec2 {
	if spp <= 1 {
		return s.Get2D()
	}

	n := uint32(math.Ceil(math.Sqrt(float64(spp))))
	sx := s.sample % n
	sy := (s.sample / n) % n

	u := s.Get2D()
	jx := (float32(sx) + u[0]) / float32(n)
	jy := (float32(sy) + u[1]) / float32(n)
	if jx >= 1 {
		jx = math.Nextafter32(1, 0)
	}
	if jy >= 1 {
		jy = math.Nextafter32(1, 0)
	}
	return types.XY(jx, jy)
}

// splitmix64 finalizer. Decorrelates the per-pixel seeds so that adjacent
// pixels do not share low-discrepancy structure.
func mix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
