package sampler

import (
	"math"

	"github.com/vega-render/vega/types"
)

// Monte Carlo sampling routines for mapping uniform [0, 1) sample values to
// points and directions on the objects the integrator needs to sample,
// together with the matching probability densities.

// Map a uniform sample to a point on the unit disk using the concentric
// mapping of Shirley and Chiu. Avoids the clumping at the disk center that
// the naive polar mapping produces.
func ConcentricSampleDisk(u types.Vec2) types.Vec2 {
	offset := types.XY(2*u[0]-1, 2*u[1]-1)
	if offset[0] == 0 && offset[1] == 0 {
		return types.Vec2{}
	}

	var r, theta float64
	if math.Abs(float64(offset[0])) > math.Abs(float64(offset[1])) {
		r = float64(offset[0])
		theta = math.Pi / 4 * float64(offset[1]/offset[0])
	} else {
		r = float64(offset[1])
		theta = math.Pi/2 - math.Pi/4*float64(offset[0]/offset[1])
	}
	return types.XY(float32(r*math.Cos(theta)), float32(r*math.Sin(theta)))
}

// Sample a cosine weighted direction on the hemisphere around +Z using
// Malley's method: sample the disk, project up.
func CosSampleHemisphere(u types.Vec2) types.Vec3 {
	d := ConcentricSampleDisk(u)
	z := float32(math.Sqrt(math.Max(0, float64(1-d[0]*d[0]-d[1]*d[1]))))
	return types.XYZ(d[0], d[1], z)
}

// Pdf of the cosine weighted hemisphere distribution.
func CosHemispherePdf(cosTheta float32) float32 {
	if cosTheta <= 0 {
		return 0
	}
	return cosTheta / math.Pi
}

// Sample a uniform direction on the unit sphere.
func UniformSampleSphere(u types.Vec2) types.Vec3 {
	z := 1 - 2*u[0]
	r := float32(math.Sqrt(math.Max(0, float64(1-z*z))))
	phi := 2 * math.Pi * float64(u[1])
	return types.XYZ(r*float32(math.Cos(phi)), r*float32(math.Sin(phi)), z)
}

// Sample uniform barycentric coordinates on a triangle. Returns the first
// two barycentric weights; the third is 1 - b0 - b1.
func UniformSampleTriangle(u types.Vec2) (float32, float32) {
	su := float32(math.Sqrt(float64(u[0])))
	return 1 - su, u[1] * su
}

// The power heuristic with beta = 2 for combining two sampling strategies,
// following Veach. nf/ng are the sample counts taken from each strategy and
// fPdf/gPdf the corresponding densities.
func PowerHeuristic(nf, fPdf, ng, gPdf float32) float32 {
	f := nf * fPdf
	g := ng * gPdf
	if f == 0 && g == 0 {
		return 0
	}
	return (f * f) / (f*f + g*g)
}

// Build an orthonormal basis around the given unit vector. Returns the
// tangent and bitangent completing the frame.
func OrthonormalBasis(n types.Vec3) (types.Vec3, types.Vec3) {
	var up types.Vec3
	if math.Abs(float64(n[0])) > 0.9 {
		up = types.XYZ(0, 1, 0)
	} else {
		up = types.XYZ(1, 0, 0)
	}
	tangent := up.Cross(n).Normalize()
	bitangent := n.Cross(tangent)
	return tangent, bitangent
}

// Transform a direction in the local frame around n (+Z aligned with n)
// to world space.
func LocalToWorld(local, n types.Vec3) types.Vec3 {
	tangent, bitangent := OrthonormalBasis(n)
	return tangent.Mul(local[0]).Add(bitangent.Mul(local[1])).Add(n.Mul(local[2]))
}
