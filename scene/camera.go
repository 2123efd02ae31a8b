package scene

import (
	"math"

	"github.com/vega-render/vega/sampler"
	"github.com/vega-render/vega/types"
)

// A thin lens camera. With zero aperture it degenerates to a pinhole model.
// SetupProjection must be called with the frame aspect ratio before rays are
// generated.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	// Vertical field of view in degrees.
	FOV float32

	// Lens aperture diameter; zero disables depth of field.
	Aperture float32

	// Distance to the focal plane. Zero focuses on the look-at point.
	FocusDist float32

	// Derived frame: lens basis and viewport corner vectors.
	u, v, w    types.Vec3
	lowerLeft  types.Vec3
	horizontal types.Vec3
	vertical   types.Vec3
	lensRadius float32
}

func NewCamera(position, lookAt types.Vec3, fov float32) *Camera {
	return &Camera{
		Position: position,
		LookAt:   lookAt,
		Up:       types.XYZ(0, 1, 0),
		FOV:      fov,
	}
}

// Setup the camera viewport for the given aspect ratio.
func (c *Camera) SetupProjection(aspect float32) {
	focusDist := c.FocusDist
	if focusDist == 0 {
		focusDist = c.LookAt.Sub(c.Position).Len()
	}
	if focusDist == 0 {
		focusDist = 1
	}

	theta := float64(c.FOV) * math.Pi / 180
	halfH := float32(math.Tan(theta / 2))
	halfW := aspect * halfH

	c.w = c.Position.Sub(c.LookAt).Normalize()
	c.u = c.Up.Cross(c.w).Normalize()
	c.v = c.w.Cross(c.u)

	c.horizontal = c.u.Mul(2 * halfW * focusDist)
	c.vertical = c.v.Mul(2 * halfH * focusDist)
	c.lowerLeft = c.Position.
		Sub(c.horizontal.Mul(0.5)).
		Sub(c.vertical.Mul(0.5)).
		Sub(c.w.Mul(focusDist))
	c.lensRadius = c.Aperture / 2
}

// Generate a camera ray through viewport coordinates (s, t) in [0, 1]^2
// with (0, 0) at the bottom-left corner. The lens sample picks the aperture
// position for depth of field.
func (c *Camera) GenerateRay(s, t float32, lens types.Vec2) Ray {
	origin := c.Position
	if c.lensRadius > 0 {
		d := sampler.ConcentricSampleDisk(lens)
		origin = origin.Add(c.u.Mul(d[0] * c.lensRadius)).Add(c.v.Mul(d[1] * c.lensRadius))
	}

	target := c.lowerLeft.Add(c.horizontal.Mul(s)).Add(c.vertical.Mul(t))
	return NewRay(origin, target.Sub(origin).Normalize())
}
