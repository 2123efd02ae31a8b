package scene

import (
	"math"

	"github.com/vega-render/vega/types"
)

const (
	// Offset applied to ray origins to avoid self-intersection with the
	// surface the ray leaves from.
	RayEpsilon float32 = 1e-3

	// Hard bound on path depth. Paths longer than this are terminated
	// regardless of throughput.
	MaxRayDepth uint32 = 64
)

// A ray with a valid parametric interval [TMin, TMax]. TMax is tightened by
// intersection queries as closer hits are found; no other field is mutated
// after construction.
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3

	TMin float32
	TMax float32

	// Number of surface bounces this ray is away from the camera.
	Depth uint32
}

// Create a ray with an unbounded interval.
func NewRay(origin, dir types.Vec3) Ray {
	return Ray{
		Origin: origin,
		Dir:    dir,
		TMin:   RayEpsilon,
		TMax:   float32(math.Inf(1)),
	}
}

// Create a ray limited to the segment [tMin, tMax].
func NewRaySegment(origin, dir types.Vec3, tMin, tMax float32) Ray {
	return Ray{
		Origin: origin,
		Dir:    dir,
		TMin:   tMin,
		TMax:   tMax,
	}
}

// Spawn a continuation ray from a surface point, inheriting an incremented
// depth counter. The origin is nudged along the geometric normal to the side
// the new direction leaves from.
func (r Ray) Child(p, dir, ng types.Vec3) Ray {
	offset := ng.Mul(RayEpsilon)
	if dir.Dot(ng) < 0 {
		offset = offset.Neg()
	}
	child := NewRay(p.Add(offset), dir)
	child.Depth = r.Depth + 1
	return child
}

// Get the point at parametric distance t along the ray.
func (r Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// True if the ray interval is non-empty.
func (r Ray) Valid() bool {
	return r.TMin < r.TMax
}
