package renderer

import (
	"image"
	"image/color"
	"math"
	"sync"
)

// Rect describes a tile of the output frame in pixel coordinates.
type Rect struct {
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
	W uint32 `json:"w"`
	H uint32 `json:"h"`
}

// Framebuffer accumulates radiance sums per pixel. Tiles are merged at most
// once each; a duplicate or retransmitted tile result leaves the buffer
// untouched so retries on the work queue cannot double-count samples.
type Framebuffer struct {
	mu sync.Mutex

	width  uint32
	height uint32

	// Radiance sums, 3 floats per pixel in row-major order, plus the
	// number of samples accumulated per pixel.
	sum     []float32
	samples []uint32

	merged map[int]struct{}
}

func NewFramebuffer(width, height uint32) *Framebuffer {
	return &Framebuffer{
		width:   width,
		height:  height,
		sum:     make([]float32, 3*width*height),
		samples: make([]uint32, width*height),
		merged:  make(map[int]struct{}),
	}
}

func (fb *Framebuffer) Width() uint32 {
	return fb.width
}

func (fb *Framebuffer) Height() uint32 {
	return fb.height
}

// MergeTile folds a tile's radiance sums into the frame. pix holds 3 floats
// per tile pixel in row-major order. Returns false without touching the
// buffer when the tile was merged before or the rectangle does not fit the
// frame.
func (fb *Framebuffer) MergeTile(tileID int, rect Rect, pix []float32, samples uint32) bool {
	if rect.X+rect.W > fb.width || rect.Y+rect.H > fb.height {
		return false
	}
	if uint32(len(pix)) != 3*rect.W*rect.H {
		return false
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()

	if _, seen := fb.merged[tileID]; seen {
		return false
	}
	fb.merged[tileID] = struct{}{}

	for ty := uint32(0); ty < rect.H; ty++ {
		srcRow := 3 * ty * rect.W
		dstRow := 3 * ((rect.Y+ty)*fb.width + rect.X)
		copy(fb.sum[dstRow:dstRow+3*rect.W], pix[srcRow:srcRow+3*rect.W])

		sampleRow := (rect.Y+ty)*fb.width + rect.X
		for tx := uint32(0); tx < rect.W; tx++ {
			fb.samples[sampleRow+uint32(tx)] = samples
		}
	}
	return true
}

// Image resolves the accumulated sums into a tone-mapped sRGB image. The
// exposure multiplier scales linear radiance before the gamma transform.
func (fb *Framebuffer) Image(exposure float32) *image.RGBA {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, int(fb.width), int(fb.height)))
	for y := uint32(0); y < fb.height; y++ {
		for x := uint32(0); x < fb.width; x++ {
			idx := y*fb.width + x
			n := float32(fb.samples[idx])
			if n == 0 {
				n = 1
			}
			img.SetRGBA(int(x), int(y), color.RGBA{
				R: toSRGB(fb.sum[3*idx] * exposure / n),
				G: toSRGB(fb.sum[3*idx+1] * exposure / n),
				B: toSRGB(fb.sum[3*idx+2] * exposure / n),
				A: 255,
			})
		}
	}
	return img
}

// Map a linear radiance channel to an 8-bit sRGB value using gamma 2.2.
func toSRGB(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	v = float32(math.Pow(float64(v), 1/2.2))
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
