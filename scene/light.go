package scene

import (
	"github.com/vega-render/vega/types"
)

// LightKind enumerates the supported light source types.
type LightKind uint8

const (
	// A delta light with a position and radiant intensity.
	PointLight LightKind = iota

	// An emissive primitive sampled by area.
	AreaLight
)

// A light source. Area lights reference the emissive primitive that backs
// them; the emitted radiance lives on the primitive's material.
type Light struct {
	Kind LightKind

	// Point light payload.
	Pos       types.Vec3
	Intensity types.Vec3

	// Area light payload: primitive index into the scene primitive list.
	Prim int32
}

// The result of sampling incident illumination from a light at a surface
// point: radiance arriving along Wi, the distance to the light and the solid
// angle density of the sample. Delta lights report Pdf = 1 and Delta = true.
type LightSample struct {
	L     types.Vec3
	Wi    types.Vec3
	Dist  float32
	Pdf   float32
	Delta bool
}

func NewPointLight(pos, intensity types.Vec3) Light {
	return Light{Kind: PointLight, Pos: pos, Intensity: intensity}
}

func NewAreaLight(prim int32) Light {
	return Light{Kind: AreaLight, Prim: prim}
}

// True if the light is described by a delta distribution. Delta lights
// cannot be hit by BSDF-sampled rays so MIS assigns their samples full
// weight.
func (l *Light) IsDelta() bool {
	return l.Kind == PointLight
}

// Sample the illumination from the light arriving at point p. Returns false
// when the light cannot illuminate p (backfacing area sample, degenerate
// geometry).
func (l *Light) SampleIncident(sc *Scene, p types.Vec3, u types.Vec2) (LightSample, bool) {
	switch l.Kind {
	case PointLight:
		toLight := l.Pos.Sub(p)
		dist2 := toLight.Len2()
		if dist2 == 0 {
			return LightSample{}, false
		}
		dist := toLight.Len()
		return LightSample{
			L:     l.Intensity.Mul(1.0 / dist2),
			Wi:    toLight.Mul(1.0 / dist),
			Dist:  dist,
			Pdf:   1,
			Delta: true,
		}, true

	default:
		prim := &sc.Primitives[l.Prim]
		area := prim.Area()
		if area == 0 {
			return LightSample{}, false
		}

		lightP, lightN := prim.SamplePoint(u)
		toLight := lightP.Sub(p)
		dist2 := toLight.Len2()
		if dist2 == 0 {
			return LightSample{}, false
		}
		dist := toLight.Len()
		wi := toLight.Mul(1.0 / dist)

		// Front-face emission only.
		cosLight := lightN.Dot(wi.Neg())
		if cosLight <= 0 {
			return LightSample{}, false
		}

		// Convert the per-area density to solid angle at p.
		pdf := dist2 / (cosLight * area)
		mat := &sc.Materials[prim.Mat]
		return LightSample{
			L:    mat.Radiance,
			Wi:   wi,
			Dist: dist,
			Pdf:  pdf,
		}, true
	}
}

// Get the solid angle density with which SampleIncident would produce the
// direction wi from point p. Used to weight BSDF samples that reach the
// light. Delta lights report zero.
func (l *Light) Pdf(sc *Scene, p, wi types.Vec3) float32 {
	if l.Kind == PointLight {
		return 0
	}

	prim := &sc.Primitives[l.Prim]
	area := prim.Area()
	if area == 0 {
		return 0
	}

	ray := NewRay(p, wi)
	it, hit := prim.Intersect(&ray)
	if !hit {
		return 0
	}
	cosLight := it.Ng.Dot(wi.Neg())
	if cosLight <= 0 {
		return 0
	}
	return (it.T * it.T) / (cosLight * area)
}
