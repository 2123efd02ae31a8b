package scene

import (
	"math"

	"github.com/vega-render/vega/sampler"
	"github.com/vega-render/vega/types"
)

// Shape selects the geometry payload of a primitive.
type Shape uint8

const (
	SphereShape Shape = iota
	TriangleShape
)

// A primitive is one intersectable unit of geometry. Primitives are
// constructed once during scene load and shared read-only by all render
// workers; none of the intersection queries mutate them.
type Primitive struct {
	Shape Shape

	// Sphere payload.
	Pos    types.Vec3
	Radius float32

	// Triangle payload: vertices, optional per-vertex shading normals and
	// texture coordinates. A zero shading normal falls back to the
	// geometric normal.
	V  [3]types.Vec3
	N  [3]types.Vec3
	UV [3]types.Vec2

	// Index into the scene material list.
	Mat int32

	// Index of the area light backed by this primitive, -1 if the
	// primitive does not emit.
	Light int32
}

// Surface data produced by a successful intersection query. Transient: it is
// produced per query and consumed immediately by the integrator.
type Interaction struct {
	P  types.Vec3
	Ng types.Vec3
	Ns types.Vec3

	Tangent   types.Vec3
	Bitangent types.Vec3

	UV types.Vec2
	T  float32

	// Direction back toward the ray origin.
	Wo types.Vec3

	Mat  int32
	Prim int32
}

// Create a sphere primitive.
func NewSphere(center types.Vec3, radius float32, mat int32) Primitive {
	return Primitive{
		Shape:  SphereShape,
		Pos:    center,
		Radius: radius,
		Mat:    mat,
		Light:  -1,
	}
}

// Create a triangle primitive. Shading normals default to the geometric
// normal until set explicitly.
func NewTriangle(v0, v1, v2 types.Vec3, mat int32) Primitive {
	return Primitive{
		Shape: TriangleShape,
		V:     [3]types.Vec3{v0, v1, v2},
		Mat:   mat,
		Light: -1,
	}
}

// Get the world-space bounding box as a min/max vector pair.
func (p *Primitive) BBox() [2]types.Vec3 {
	switch p.Shape {
	case SphereShape:
		r := types.XYZ(p.Radius, p.Radius, p.Radius)
		return [2]types.Vec3{p.Pos.Sub(r), p.Pos.Add(r)}
	default:
		min := types.MinVec3(p.V[0], types.MinVec3(p.V[1], p.V[2]))
		max := types.MaxVec3(p.V[0], types.MaxVec3(p.V[1], p.V[2]))
		return [2]types.Vec3{min, max}
	}
}

// Get the primitive center used for BVH partitioning.
func (p *Primitive) Center() types.Vec3 {
	switch p.Shape {
	case SphereShape:
		return p.Pos
	default:
		return p.V[0].Add(p.V[1]).Add(p.V[2]).Mul(1.0 / 3.0)
	}
}

// Get the surface area. Degenerate primitives report zero area and are
// skipped by the light sampler.
func (p *Primitive) Area() float32 {
	switch p.Shape {
	case SphereShape:
		return 4 * math.Pi * p.Radius * p.Radius
	default:
		e1 := p.V[1].Sub(p.V[0])
		e2 := p.V[2].Sub(p.V[0])
		return 0.5 * e1.Cross(e2).Len()
	}
}

// Intersect the primitive with the ray. On a hit the ray's TMax is tightened
// to the hit distance so that subsequent queries only report closer hits.
func (p *Primitive) Intersect(r *Ray) (Interaction, bool) {
	if !r.Valid() {
		return Interaction{}, false
	}

	switch p.Shape {
	case SphereShape:
		return p.intersectSphere(r)
	default:
		return p.intersectTriangle(r)
	}
}

// Boolean-only intersection test for occlusion queries. Does not compute
// surface data and does not tighten the ray interval.
func (p *Primitive) IntersectP(r Ray) bool {
	_, hit := p.Intersect(&r)
	return hit
}

func (p *Primitive) intersectSphere(r *Ray) (Interaction, bool) {
	oc := r.Origin.Sub(p.Pos)
	a := r.Dir.Dot(r.Dir)
	halfB := oc.Dot(r.Dir)
	c := oc.Dot(oc) - p.Radius*p.Radius

	disc := float64(halfB*halfB - a*c)
	if disc < 0 {
		return Interaction{}, false
	}
	sqrtDisc := float32(math.Sqrt(disc))

	t := (-halfB - sqrtDisc) / a
	if t < r.TMin || t > r.TMax {
		t = (-halfB + sqrtDisc) / a
		if t < r.TMin || t > r.TMax {
			return Interaction{}, false
		}
	}

	hitP := r.At(t)
	n := hitP.Sub(p.Pos).Mul(1.0 / p.Radius)

	theta := math.Acos(float64(clamp(n[1], -1, 1)))
	phi := math.Atan2(float64(n[2]), float64(n[0])) + math.Pi

	r.TMax = t
	it := Interaction{
		P:    hitP,
		Ng:   n,
		Ns:   n,
		UV:   types.XY(float32(phi/(2*math.Pi)), float32(theta/math.Pi)),
		T:    t,
		Wo:   r.Dir.Neg().Normalize(),
		Mat:  p.Mat,
		Prim: -1,
	}
	it.Tangent, it.Bitangent = sampler.OrthonormalBasis(it.Ns)
	return it, true
}

// Moeller-Trumbore intersection. Degenerate triangles never hit.
func (p *Primitive) intersectTriangle(r *Ray) (Interaction, bool) {
	e1 := p.V[1].Sub(p.V[0])
	e2 := p.V[2].Sub(p.V[0])

	pvec := r.Dir.Cross(e2)
	det := e1.Dot(pvec)
	if det > -1e-9 && det < 1e-9 {
		return Interaction{}, false
	}
	invDet := 1.0 / det

	tvec := r.Origin.Sub(p.V[0])
	b1 := tvec.Dot(pvec) * invDet
	if b1 < 0 || b1 > 1 {
		return Interaction{}, false
	}

	qvec := tvec.Cross(e1)
	b2 := r.Dir.Dot(qvec) * invDet
	if b2 < 0 || b1+b2 > 1 {
		return Interaction{}, false
	}

	t := e2.Dot(qvec) * invDet
	if t < r.TMin || t > r.TMax {
		return Interaction{}, false
	}

	b0 := 1 - b1 - b2
	ng := e1.Cross(e2).Normalize()

	ns := p.N[0].Mul(b0).Add(p.N[1].Mul(b1)).Add(p.N[2].Mul(b2))
	if ns.IsBlack() {
		ns = ng
	} else {
		ns = ns.Normalize()
	}
	// Keep the two normals on the same side.
	if ns.Dot(ng) < 0 {
		ng = ng.Neg()
	}

	uv := types.XY(
		p.UV[0][0]*b0+p.UV[1][0]*b1+p.UV[2][0]*b2,
		p.UV[0][1]*b0+p.UV[1][1]*b1+p.UV[2][1]*b2,
	)

	r.TMax = t
	it := Interaction{
		P:    r.At(t),
		Ng:   ng,
		Ns:   ns,
		UV:   uv,
		T:    t,
		Wo:   r.Dir.Neg().Normalize(),
		Mat:  p.Mat,
		Prim: -1,
	}
	it.Tangent, it.Bitangent = sampler.OrthonormalBasis(it.Ns)
	return it, true
}

// Sample a uniform point on the primitive surface. Returns the point and the
// outward surface normal at it.
func (p *Primitive) SamplePoint(u types.Vec2) (types.Vec3, types.Vec3) {
	switch p.Shape {
	case SphereShape:
		dir := sampler.UniformSampleSphere(u)
		return p.Pos.Add(dir.Mul(p.Radius)), dir
	default:
		b0, b1 := sampler.UniformSampleTriangle(u)
		b2 := 1 - b0 - b1
		point := p.V[0].Mul(b0).Add(p.V[1].Mul(b1)).Add(p.V[2].Mul(b2))
		n := p.V[1].Sub(p.V[0]).Cross(p.V[2].Sub(p.V[0])).Normalize()
		return point, n
	}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
