package scene

import (
	"math"

	"github.com/vega-render/vega/sampler"
	"github.com/vega-render/vega/types"
)

// MaterialKind enumerates the closed set of surface models supported by the
// renderer. Dispatch is a switch on the kind rather than an interface call;
// the material evaluation sits in the innermost render loop.
type MaterialKind uint8

const (
	MatDiffuse MaterialKind = iota
	MatMirror
	MatGlass
	MatMeasured
	MatEmissive
)

func (k MaterialKind) String() string {
	switch k {
	case MatDiffuse:
		return "diffuse"
	case MatMirror:
		return "mirror"
	case MatGlass:
		return "glass"
	case MatMeasured:
		return "measured"
	case MatEmissive:
		return "emissive"
	}
	return "invalid"
}

// A surface material. The payload fields used depend on the kind.
type Material struct {
	Kind MaterialKind

	// Diffuse albedo or specular tint.
	Reflectance types.Vec3

	// Emitted radiance for emissive materials.
	Radiance types.Vec3

	// Index of refraction for glass.
	IOR float32

	// Tabulated isotropic BRDF data for measured materials.
	Merl *MerlTable
}

// The result of sampling an outgoing direction from a material.
type BxdfSample struct {
	Wi  types.Vec3
	F   types.Vec3
	Pdf float32

	// Delta distributions (mirror, glass) cannot be evaluated for
	// arbitrary direction pairs; MIS treats them as unsampleable by the
	// opposing strategy.
	Specular bool
}

func NewDiffuse(reflectance types.Vec3) Material {
	return Material{Kind: MatDiffuse, Reflectance: reflectance}
}

func NewMirror(tint types.Vec3) Material {
	return Material{Kind: MatMirror, Reflectance: tint}
}

func NewGlass(tint types.Vec3, ior float32) Material {
	return Material{Kind: MatGlass, Reflectance: tint, IOR: ior}
}

func NewMeasured(table *MerlTable) Material {
	return Material{Kind: MatMeasured, Reflectance: types.XYZ(1, 1, 1), Merl: table}
}

func NewEmissive(radiance types.Vec3) Material {
	return Material{Kind: MatEmissive, Radiance: radiance}
}

// True for materials whose scattering is a delta distribution.
func (m *Material) IsDelta() bool {
	return m.Kind == MatMirror || m.Kind == MatGlass
}

// True for materials that emit light.
func (m *Material) IsEmissive() bool {
	return m.Kind == MatEmissive
}

// Get the radiance emitted toward wo. Emission is front-face only.
func (m *Material) Emitted(wo, ng types.Vec3) types.Vec3 {
	if m.Kind != MatEmissive || wo.Dot(ng) <= 0 {
		return types.Vec3{}
	}
	return m.Radiance
}

// Evaluate the BRDF for the wo/wi direction pair. Used by next-event light
// sampling; delta materials always evaluate to black.
func (m *Material) Eval(wo, wi, ns types.Vec3) types.Vec3 {
	n := faceForward(ns, wo)
	if wi.Dot(n) <= 0 {
		return types.Vec3{}
	}

	switch m.Kind {
	case MatDiffuse:
		return m.Reflectance.Mul(1.0 / math.Pi)
	case MatMeasured:
		return m.Merl.Lookup(wo, wi, n)
	default:
		return types.Vec3{}
	}
}

// Get the probability density with which Sample would have produced wi for
// the given wo. Zero means the direction cannot be sampled.
func (m *Material) Pdf(wo, wi, ns types.Vec3) float32 {
	n := faceForward(ns, wo)

	switch m.Kind {
	case MatDiffuse, MatMeasured:
		return sampler.CosHemispherePdf(wi.Dot(n))
	default:
		return 0
	}
}

// Sample an outgoing direction for the path continuation. The returned F and
// Pdf are consistent with Eval and Pdf for non-delta kinds; for delta kinds
// F already folds in the implicit delta so that F * cos / Pdf yields the
// correct throughput update.
func (m *Material) Sample(wo, ns types.Vec3, u types.Vec2) (BxdfSample, bool) {
	n := faceForward(ns, wo)

	switch m.Kind {
	case MatDiffuse, MatMeasured:
		local := sampler.CosSampleHemisphere(u)
		wi := sampler.LocalToWorld(local, n)
		pdf := sampler.CosHemispherePdf(local[2])
		if pdf <= 0 {
			return BxdfSample{}, false
		}
		return BxdfSample{Wi: wi, F: m.Eval(wo, wi, ns), Pdf: pdf}, true

	case MatMirror:
		wi := reflect(wo, n)
		cos := abs32(wi.Dot(n))
		if cos == 0 {
			return BxdfSample{}, false
		}
		return BxdfSample{
			Wi:       wi,
			F:        m.Reflectance.Mul(1.0 / cos),
			Pdf:      1,
			Specular: true,
		}, true

	case MatGlass:
		return m.sampleGlass(wo, ns, u)
	}

	// Emissive surfaces absorb.
	return BxdfSample{}, false
}

func (m *Material) sampleGlass(wo, ns types.Vec3, u types.Vec2) (BxdfSample, bool) {
	entering := wo.Dot(ns) > 0
	n := ns
	eta := 1.0 / m.IOR
	if !entering {
		n = ns.Neg()
		eta = m.IOR
	}

	cosI := wo.Dot(n)
	refracted, ok := refract(wo, n, eta)
	fresnel := float32(1.0)
	if ok {
		fresnel = schlick(cosI, eta)
	}

	if u[0] < fresnel {
		// Reflection branch, probability = fresnel.
		wi := reflect(wo, n)
		cos := abs32(wi.Dot(n))
		if cos == 0 {
			return BxdfSample{}, false
		}
		return BxdfSample{
			Wi:       wi,
			F:        m.Reflectance.Mul(fresnel / cos),
			Pdf:      fresnel,
			Specular: true,
		}, true
	}

	cos := abs32(refracted.Dot(n))
	if cos == 0 {
		return BxdfSample{}, false
	}
	return BxdfSample{
		Wi:       refracted,
		F:        m.Reflectance.Mul((1 - fresnel) / cos),
		Pdf:      1 - fresnel,
		Specular: true,
	}, true
}

// Orient n so that it lies in the same hemisphere as v.
func faceForward(n, v types.Vec3) types.Vec3 {
	if n.Dot(v) < 0 {
		return n.Neg()
	}
	return n
}

// Mirror wo about n. Both wo and the result point away from the surface.
func reflect(wo, n types.Vec3) types.Vec3 {
	return n.Mul(2 * wo.Dot(n)).Sub(wo)
}

// Refract wo through the surface with relative IOR eta. Returns false on
// total internal reflection.
func refract(wo, n types.Vec3, eta float32) (types.Vec3, bool) {
	cosI := wo.Dot(n)
	sin2T := eta * eta * (1 - cosI*cosI)
	if sin2T >= 1 {
		return types.Vec3{}, false
	}
	cosT := float32(math.Sqrt(float64(1 - sin2T)))
	wi := wo.Neg().Mul(eta).Add(n.Mul(eta*cosI - cosT))
	return wi.Normalize(), true
}

// Schlick's fresnel approximation.
func schlick(cosI, eta float32) float32 {
	r0 := (1 - eta) / (1 + eta)
	r0 = r0 * r0
	return r0 + (1-r0)*pow5(1-cosI)
}

func pow5(v float32) float32 {
	v2 := v * v
	return v2 * v2 * v
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
