package integrator

import (
	"math"
	"testing"

	"github.com/vega-render/vega/bvh"
	"github.com/vega-render/vega/sampler"
	"github.com/vega-render/vega/scene"
	"github.com/vega-render/vega/types"
)

func TestDirectLightingMatchesAnalyticValue(t *testing.T) {
	// A diffuse floor lit by a single point light straight above the
	// shaded point. With a black environment and a two-bounce cap the
	// estimate has no variance and must equal rho/pi * I/d^2 exactly.
	sc := scene.New()
	mat := sc.AddMaterial(scene.NewDiffuse(types.XYZ(0.5, 0.5, 0.5)))
	addFloor(sc, 20, mat)
	sc.AddPointLight(types.XYZ(0, 3, 0), types.XYZ(10, 10, 10))

	accel := bvh.Build(sc.Primitives)
	in := Path{MinDepth: 3, MaxDepth: 2}

	r := scene.NewRay(types.XYZ(0, 2, 0), types.XYZ(0, -1, 0))
	got := in.Li(r, sc, accel, sampler.New(1, 0, 0, 0))

	want := float32(0.5 / math.Pi * 10.0 / 9.0)
	for i := 0; i < 3; i++ {
		if absDelta(got[i], want) > 1e-4 {
			t.Fatalf("direct lighting mismatch on channel %d: got %f, want %f", i, got[i], want)
		}
	}
}

func TestEmissiveSurfaceSeenByCameraRay(t *testing.T) {
	sc := scene.New()
	emitMat := sc.AddMaterial(scene.NewEmissive(types.XYZ(2, 4, 6)))
	prim := scene.NewTriangle(
		types.XYZ(-1, -1, -3),
		types.XYZ(1, -1, -3),
		types.XYZ(0, 1, -3),
		emitMat,
	)
	sc.AddAreaLight(prim)

	accel := bvh.Build(sc.Primitives)
	in := Path{MinDepth: 3, MaxDepth: 4}

	r := scene.NewRay(types.XYZ(0, 0, 0), types.XYZ(0, 0, -1))
	got := in.Li(r, sc, accel, sampler.New(1, 0, 0, 0))

	want := types.XYZ(2, 4, 6)
	for i := 0; i < 3; i++ {
		if absDelta(got[i], want[i]) > 1e-4 {
			t.Fatalf("emitted radiance mismatch on channel %d: got %f, want %f", i, got[i], want[i])
		}
	}
}

func TestEmissiveBackfaceIsDark(t *testing.T) {
	sc := scene.New()
	emitMat := sc.AddMaterial(scene.NewEmissive(types.XYZ(5, 5, 5)))
	// Wound so the geometric normal faces away from the camera.
	prim := scene.NewTriangle(
		types.XYZ(1, -1, -3),
		types.XYZ(-1, -1, -3),
		types.XYZ(0, 1, -3),
		emitMat,
	)
	sc.AddAreaLight(prim)

	accel := bvh.Build(sc.Primitives)
	in := Path{MinDepth: 3, MaxDepth: 4}

	r := scene.NewRay(types.XYZ(0, 0, 0), types.XYZ(0, 0, -1))
	if got := in.Li(r, sc, accel, sampler.New(1, 0, 0, 0)); !got.IsBlack() {
		t.Fatalf("expected no radiance from an emitter backface, got %v", got)
	}
}

func TestEnvironmentRadianceOnMiss(t *testing.T) {
	sc := scene.New()
	sc.BackgroundTop = types.XYZ(0.2, 0.4, 0.8)
	sc.BackgroundBottom = types.XYZ(1, 1, 1)

	accel := bvh.Build(sc.Primitives)
	in := Path{MinDepth: 3, MaxDepth: 8}

	dir := types.XYZ(0, 1, 0)
	r := scene.NewRay(types.XYZ(0, 0, 0), dir)
	got := in.Li(r, sc, accel, sampler.New(1, 0, 0, 0))
	want := sc.EnvRadiance(dir)
	for i := 0; i < 3; i++ {
		if absDelta(got[i], want[i]) > 1e-6 {
			t.Fatalf("environment mismatch on channel %d: got %f, want %f", i, got[i], want[i])
		}
	}
}

func TestEstimateIsDeterministic(t *testing.T) {
	sc := scene.Cornell()
	sc.Camera.SetupProjection(1)
	accel := bvh.Build(sc.Primitives)
	in := Path{MinDepth: 3, MaxDepth: 8}

	render := func() types.Vec3 {
		var sum types.Vec3
		for s := uint32(0); s < 16; s++ {
			smp := sampler.New(1234, 7, 11, s)
			jitter := smp.PixelJitter(16)
			r := sc.Camera.GenerateRay(
				(7+jitter[0])/64,
				(11+jitter[1])/64,
				smp.Get2D(),
			)
			sum = sum.Add(in.Li(r, sc, accel, smp))
		}
		return sum
	}

	first := render()
	second := render()
	if first != second {
		t.Fatalf("expected bit-identical estimates across runs, got %v and %v", first, second)
	}
}

func TestRussianRouletteIsUnbiased(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping statistical test in short mode")
	}

	// Two facing diffuse quads around a point light produce multi-bounce
	// interreflection. The mean estimate must agree whether roulette
	// starts on the first bounce or is effectively disabled.
	sc := scene.New()
	mat := sc.AddMaterial(scene.NewDiffuse(types.XYZ(0.7, 0.7, 0.7)))
	addFloor(sc, 10, mat)
	addCeiling(sc, 10, 2, mat)
	sc.AddPointLight(types.XYZ(0, 1, 0), types.XYZ(4, 4, 4))

	accel := bvh.Build(sc.Primitives)

	mean := func(minDepth uint32, seed uint64) float32 {
		in := Path{MinDepth: minDepth, MaxDepth: 16}
		const samples = 40000
		var sum float64
		for s := uint32(0); s < samples; s++ {
			smp := sampler.New(seed, 0, 0, s)
			r := scene.NewRay(types.XYZ(0.3, 1.7, 0.3), types.XYZ(0, -1, 0))
			sum += float64(in.Li(r, sc, accel, smp)[0])
		}
		return float32(sum / samples)
	}

	early := mean(1, 2024)
	late := mean(12, 4048)
	if relDelta(early, late) > 0.05 {
		t.Fatalf("roulette bias detected: early-termination mean %f, reference mean %f", early, late)
	}
}

func TestShadowRayRespectsOccluders(t *testing.T) {
	sc := scene.New()
	mat := sc.AddMaterial(scene.NewDiffuse(types.XYZ(0.5, 0.5, 0.5)))
	addFloor(sc, 20, mat)
	// Blocker between the floor and the light.
	sc.AddPrimitive(scene.NewSphere(types.XYZ(0, 1.5, 0), 0.5, mat))
	sc.AddPointLight(types.XYZ(0, 3, 0), types.XYZ(10, 10, 10))

	accel := bvh.Build(sc.Primitives)
	in := Path{MinDepth: 3, MaxDepth: 2}

	r := scene.NewRay(types.XYZ(0.01, 0.5, 0.01), types.XYZ(0, -1, 0))
	if got := in.Li(r, sc, accel, sampler.New(1, 0, 0, 0)); !got.IsBlack() {
		t.Fatalf("expected the blocker to shadow the floor, got %v", got)
	}
}

func addFloor(sc *scene.Scene, halfSize float32, mat int32) {
	sc.AddPrimitive(scene.NewTriangle(
		types.XYZ(-halfSize, 0, -halfSize),
		types.XYZ(-halfSize, 0, halfSize),
		types.XYZ(halfSize, 0, halfSize),
		mat,
	))
	sc.AddPrimitive(scene.NewTriangle(
		types.XYZ(-halfSize, 0, -halfSize),
		types.XYZ(halfSize, 0, halfSize),
		types.XYZ(halfSize, 0, -halfSize),
		mat,
	))
}

func addCeiling(sc *scene.Scene, halfSize, height float32, mat int32) {
	sc.AddPrimitive(scene.NewTriangle(
		types.XYZ(-halfSize, height, -halfSize),
		types.XYZ(halfSize, height, halfSize),
		types.XYZ(-halfSize, height, halfSize),
		mat,
	))
	sc.AddPrimitive(scene.NewTriangle(
		types.XYZ(-halfSize, height, -halfSize),
		types.XYZ(halfSize, height, -halfSize),
		types.XYZ(halfSize, height, halfSize),
		mat,
	))
}

func absDelta(a, b float32) float32 {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}

func relDelta(a, b float32) float32 {
	if b == 0 {
		return absDelta(a, b)
	}
	return absDelta(a, b) / b
}
