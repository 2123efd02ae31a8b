// Package integrator implements the radiance estimators that drive the
// renderer. The path integrator is the only estimator currently provided;
// it performs unidirectional path tracing with next-event estimation,
// multiple importance sampling and Russian roulette termination.
package integrator

import (
	"github.com/vega-render/vega/bvh"
	"github.com/vega-render/vega/sampler"
	"github.com/vega-render/vega/scene"
	"github.com/vega-render/vega/types"
)

// Path estimates radiance by tracing a single path per call. It is stateless
// and safe for concurrent use; all per-path randomness flows through the
// sampler argument.
type Path struct {
	// Number of bounces traced before Russian roulette may terminate
	// the path.
	MinDepth uint32

	// Hard bounce limit. Zero disables the limit and defers to the
	// global ray depth bound.
	MaxDepth uint32
}

// Li returns a single-sample estimate of the radiance arriving at the ray
// origin from the ray direction.
func (p *Path) Li(r scene.Ray, sc *scene.Scene, accel *bvh.BVH, smp *sampler.Sampler) types.Vec3 {
	var radiance types.Vec3
	beta := types.XYZ(1, 1, 1)

	// MIS state carried from the previous bounce: the density of the
	// BSDF sample that produced the current ray, and the point it left.
	specularBounce := false
	prevBsdfPdf := float32(0)
	prevPoint := r.Origin

	for bounces := uint32(0); ; bounces++ {
		it, hit := accel.Intersect(&r)
		if !hit {
			radiance = radiance.Add(beta.MulVec(sc.EnvRadiance(r.Dir)))
			break
		}

		mat := &sc.Materials[it.Mat]

		// Radiance emitted by the surface itself. Camera and specular
		// vertices cannot be reached by light sampling so they keep
		// full weight; everything else is weighted against the light
		// sampling density of the previous vertex.
		if mat.IsEmissive() {
			emitted := mat.Emitted(it.Wo, it.Ng)
			if !emitted.IsBlack() {
				weight := float32(1)
				if bounces > 0 && !specularBounce {
					weight = 0
					if li := sc.Primitives[it.Prim].Light; li >= 0 {
						lightPdf := sc.Lights[li].Pdf(sc, prevPoint, r.Dir) / float32(len(sc.Lights))
						weight = sampler.PowerHeuristic(1, prevBsdfPdf, 1, lightPdf)
					}
				}
				contrib := beta.MulVec(emitted).Mul(weight)
				if contrib.IsFinite() {
					radiance = radiance.Add(contrib)
				}
			}
		}

		if p.MaxDepth > 0 && bounces+1 >= p.MaxDepth {
			break
		}
		if r.Depth >= scene.MaxRayDepth {
			break
		}

		// Next-event estimation: sample one light uniformly and trace
		// a shadow ray toward it. Skipped at delta vertices, where the
		// BSDF is zero for every sampled direction.
		if !mat.IsDelta() && len(sc.Lights) > 0 {
			lightIdx := int(smp.Get1D() * float32(len(sc.Lights)))
			if lightIdx == len(sc.Lights) {
				lightIdx = len(sc.Lights) - 1
			}
			light := &sc.Lights[lightIdx]
			selPdf := 1.0 / float32(len(sc.Lights))

			if ls, ok := light.SampleIncident(sc, it.P, smp.Get2D()); ok && ls.Pdf > 0 && !ls.L.IsBlack() {
				f := mat.Eval(it.Wo, ls.Wi, it.Ns)
				if !f.IsBlack() && !occluded(accel, it.P, it.Ng, ls.Wi, ls.Dist) {
					lightPdf := ls.Pdf * selPdf
					weight := float32(1)
					if !ls.Delta {
						weight = sampler.PowerHeuristic(1, lightPdf, 1, mat.Pdf(it.Wo, ls.Wi, it.Ns))
					}
					cos := abs32(ls.Wi.Dot(it.Ns))
					contrib := beta.MulVec(f).MulVec(ls.L).Mul(cos * weight / lightPdf)
					if contrib.IsFinite() {
						radiance = radiance.Add(contrib)
					}
				}
			}
		}

		// Extend the path by sampling the BSDF.
		bs, ok := mat.Sample(it.Wo, it.Ns, smp.Get2D())
		if !ok || bs.Pdf == 0 || bs.F.IsBlack() {
			break
		}

		cos := abs32(bs.Wi.Dot(it.Ns))
		beta = beta.MulVec(bs.F).Mul(cos / bs.Pdf)
		if beta.IsBlack() || !beta.IsFinite() {
			break
		}

		specularBounce = bs.Specular
		prevBsdfPdf = bs.Pdf
		prevPoint = it.P
		r = r.Child(it.P, bs.Wi, it.Ng)

		// Russian roulette. The survival probability tracks the path
		// throughput so dim paths die early while surviving paths are
		// reweighted to keep the estimator unbiased.
		if bounces >= p.MinDepth {
			q := beta.MaxComponent()
			if q < 0.05 {
				q = 0.05
			} else if q > 0.95 {
				q = 0.95
			}
			if smp.Get1D() >= q {
				break
			}
			beta = beta.Mul(1 / q)
		}
	}

	if !radiance.IsFinite() {
		return types.Vec3{}
	}
	return radiance
}

// Test visibility between a surface point and a light sample at distance
// dist along wi. The segment is shortened at both ends to avoid grazing the
// endpoint surfaces.
func occluded(accel *bvh.BVH, p, ng, wi types.Vec3, dist float32) bool {
	offset := ng.Mul(scene.RayEpsilon)
	if wi.Dot(ng) < 0 {
		offset = offset.Neg()
	}
	shadow := scene.NewRaySegment(p.Add(offset), wi, scene.RayEpsilon, dist-2*scene.RayEpsilon)
	if !shadow.Valid() {
		return false
	}
	return accel.IntersectP(shadow)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
