package scene

import (
	"math"

	"github.com/pkg/errors"
	"github.com/vega-render/vega/sampler"
	"github.com/vega-render/vega/types"
)

// MerlTable holds an isotropic measured BRDF in the half/difference angle
// parameterization of the MERL database (Matusik et al., "A Data-Driven
// Reflectance Model"). Values are stored as RGB triples indexed by
// (theta_half, theta_diff, phi_diff); theta_half uses the usual square-root
// warp that concentrates resolution near the specular peak.
//
// Parsing of MERL database files is the concern of the scene loading
// collaborator; the table only consumes already-decoded samples.
type MerlTable struct {
	nThetaH int
	nThetaD int
	nPhiD   int
	brdf    []float32
}

// Create a measured BRDF table. The data slice holds RGB triples laid out as
// phiD-major within thetaD within thetaH.
func NewMerlTable(nThetaH, nThetaD, nPhiD int, data []float32) (*MerlTable, error) {
	if nThetaH <= 0 || nThetaD <= 0 || nPhiD <= 0 {
		return nil, errors.Errorf("merl: invalid table dimensions %dx%dx%d", nThetaH, nThetaD, nPhiD)
	}
	if want := 3 * nThetaH * nThetaD * nPhiD; len(data) != want {
		return nil, errors.Errorf("merl: expected %d samples; got %d", want, len(data))
	}
	return &MerlTable{nThetaH: nThetaH, nThetaD: nThetaD, nPhiD: nPhiD, brdf: data}, nil
}

// Evaluate the measured reflectance for the wo/wi pair around shading normal
// n. Directions are transformed into the local frame, the half and
// difference angles computed and the nearest table cell returned.
func (t *MerlTable) Lookup(wo, wi, n types.Vec3) types.Vec3 {
	tangent, bitangent := sampler.OrthonormalBasis(n)
	lo := toLocal(wo, tangent, bitangent, n)
	li := toLocal(wi, tangent, bitangent, n)
	if lo[2]+li[2] < 0 {
		lo = lo.Neg()
		li = li.Neg()
	}

	h := lo.Add(li)
	if h.Len2() == 0 {
		return types.Vec3{}
	}
	h = h.Normalize()

	thetaH := sphericalTheta(h)
	cosThetaH := h[2]
	sinThetaH := float32(math.Sqrt(math.Max(0, float64(1-cosThetaH*cosThetaH))))
	cosPhiH, sinPhiH := float32(1), float32(0)
	if sinThetaH > 1e-6 {
		cosPhiH = h[0] / sinThetaH
		sinPhiH = h[1] / sinThetaH
	}

	// Rows of the rotation taking h to +Z; the difference vector is wi
	// expressed in that rotated frame.
	hx := types.XYZ(cosPhiH*cosThetaH, sinPhiH*cosThetaH, -sinThetaH)
	hy := types.XYZ(-sinPhiH, cosPhiH, 0)
	d := types.XYZ(li.Dot(hx), li.Dot(hy), li.Dot(h))

	thetaD := sphericalTheta(d)
	phiD := float32(math.Atan2(float64(d[1]), float64(d[0])))
	if phiD < 0 {
		phiD += 2 * math.Pi
	}
	if phiD > math.Pi {
		phiD -= math.Pi
	}

	warpedThetaH := float32(math.Sqrt(math.Max(0, float64(2*thetaH/math.Pi))))
	hIdx := mapIndex(warpedThetaH, 1, t.nThetaH)
	dIdx := mapIndex(thetaD, math.Pi/2, t.nThetaD)
	pIdx := mapIndex(phiD, math.Pi, t.nPhiD)

	i := pIdx + t.nPhiD*(dIdx+hIdx*t.nThetaD)
	return types.XYZ(t.brdf[3*i], t.brdf[3*i+1], t.brdf[3*i+2])
}

// Re-map an angular value to its table index.
func mapIndex(val, max float32, nVals int) int {
	idx := int(val / max * float32(nVals))
	if idx < 0 {
		return 0
	}
	if idx >= nVals {
		return nVals - 1
	}
	return idx
}

func sphericalTheta(v types.Vec3) float32 {
	return float32(math.Acos(float64(clamp(v[2], -1, 1))))
}

func toLocal(v, tangent, bitangent, n types.Vec3) types.Vec3 {
	return types.XYZ(v.Dot(tangent), v.Dot(bitangent), v.Dot(n))
}
