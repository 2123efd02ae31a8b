package scene

import (
	"testing"

	"github.com/vega-render/vega/sampler"
	"github.com/vega-render/vega/types"
)

func TestPointLightSample(t *testing.T) {
	sc := New()
	sc.AddPointLight(types.XYZ(0, 4, 0), types.XYZ(8, 8, 8))
	light := &sc.Lights[0]

	if !light.IsDelta() {
		t.Fatal("expected point lights to be delta lights")
	}

	ls, ok := light.SampleIncident(sc, types.XYZ(0, 0, 0), types.XY(0.3, 0.7))
	if !ok {
		t.Fatal("expected the sample to succeed")
	}
	if !ls.Delta || ls.Pdf != 1 {
		t.Fatalf("expected a delta sample with unit pdf, got delta=%t pdf=%f", ls.Delta, ls.Pdf)
	}
	if absDelta(ls.Dist, 4) > 1e-5 {
		t.Fatalf("expected distance 4, got %f", ls.Dist)
	}
	// Inverse square falloff.
	if absDelta(ls.L[0], 0.5) > 1e-5 {
		t.Fatalf("expected radiance 8/16, got %f", ls.L[0])
	}
	if light.Pdf(sc, types.XYZ(0, 0, 0), ls.Wi) != 0 {
		t.Fatal("expected a zero density for BSDF-sampled rays toward a delta light")
	}
}

func TestAreaLightSamplePdfMatchesPdfQuery(t *testing.T) {
	sc := New()
	mat := sc.AddMaterial(NewEmissive(types.XYZ(5, 5, 5)))
	// Wound so the emitter faces downward, toward the shading point.
	sc.AddAreaLight(NewTriangle(
		types.XYZ(-1, 2, -1),
		types.XYZ(1, 2, -1),
		types.XYZ(1, 2, 1),
		mat,
	))
	light := &sc.Lights[0]

	if light.IsDelta() {
		t.Fatal("expected area lights to not be delta lights")
	}

	p := types.XYZ(0, 0, 0)
	smp := sampler.New(17, 0, 0, 0)
	for i := 0; i < 500; i++ {
		ls, ok := light.SampleIncident(sc, p, smp.Get2D())
		if !ok {
			t.Fatalf("[draw %d] expected the sample to succeed", i)
		}
		if ls.Delta {
			t.Fatalf("[draw %d] area sample flagged delta", i)
		}
		if ls.L[0] != 5 {
			t.Fatalf("[draw %d] expected the material radiance, got %v", i, ls.L)
		}

		// The density reported for the sampled direction must match the
		// density the MIS path computes for a BSDF-sampled ray toward
		// the same point.
		pdf := light.Pdf(sc, p, ls.Wi)
		if relDelta(pdf, ls.Pdf) > 1e-3 {
			t.Fatalf("[draw %d] pdf mismatch: sampled %f, queried %f", i, ls.Pdf, pdf)
		}
	}
}

func TestAreaLightBackfaceSampleFails(t *testing.T) {
	sc := New()
	mat := sc.AddMaterial(NewEmissive(types.XYZ(5, 5, 5)))
	// Same quad as above but facing up, away from the shading point.
	sc.AddAreaLight(NewTriangle(
		types.XYZ(-1, 2, -1),
		types.XYZ(1, 2, 1),
		types.XYZ(1, 2, -1),
		mat,
	))

	if _, ok := sc.Lights[0].SampleIncident(sc, types.XYZ(0, 0, 0), types.XY(0.4, 0.4)); ok {
		t.Fatal("expected sampling an emitter backface to fail")
	}
	if pdf := sc.Lights[0].Pdf(sc, types.XYZ(0, 0, 0), types.XYZ(0, 1, 0)); pdf != 0 {
		t.Fatalf("expected a zero density through the emitter backface, got %f", pdf)
	}
}

func TestAreaLightPdfForMissingDirections(t *testing.T) {
	sc := New()
	mat := sc.AddMaterial(NewEmissive(types.XYZ(5, 5, 5)))
	sc.AddAreaLight(NewTriangle(
		types.XYZ(-1, 2, -1),
		types.XYZ(1, 2, -1),
		types.XYZ(1, 2, 1),
		mat,
	))

	if pdf := sc.Lights[0].Pdf(sc, types.XYZ(0, 0, 0), types.XYZ(0, -1, 0)); pdf != 0 {
		t.Fatalf("expected a zero density for a ray missing the emitter, got %f", pdf)
	}
}

func TestCameraGeneratesNormalizedRays(t *testing.T) {
	cam := NewCamera(types.XYZ(0, 1, 5), types.XYZ(0, 0, 0), 45)
	cam.SetupProjection(16.0 / 9.0)

	smp := sampler.New(23, 0, 0, 0)
	for i := 0; i < 100; i++ {
		u := smp.Get2D()
		r := cam.GenerateRay(u[0], u[1], types.XY(0.5, 0.5))
		if d := r.Dir.Len(); d < 0.999 || d > 1.001 {
			t.Fatalf("[ray %d] direction not normalized: len %f", i, d)
		}
		if r.Origin != cam.Position {
			t.Fatalf("[ray %d] pinhole ray must start at the camera position", i)
		}
	}
}

func TestCameraCenterRayPointsAtTarget(t *testing.T) {
	cam := NewCamera(types.XYZ(0, 0, 5), types.XYZ(0, 0, 0), 45)
	cam.SetupProjection(1)

	r := cam.GenerateRay(0.5, 0.5, types.XY(0.5, 0.5))
	want := types.XYZ(0, 0, -1)
	if r.Dir.Sub(want).Len() > 1e-5 {
		t.Fatalf("expected the center ray to look down the view axis, got %v", r.Dir)
	}
}

func TestPresetLookup(t *testing.T) {
	specs := []struct {
		name string
		ok   bool
	}{
		{"cornell", true},
		{"spheres", true},
		{"unknown-scene", false},
	}

	for i, sp := range specs {
		sc, err := ByName(sp.name)
		if (err == nil) != sp.ok {
			t.Fatalf("[spec %d: %s] unexpected lookup result: %v", i, sp.name, err)
		}
		if !sp.ok {
			continue
		}
		if len(sc.Primitives) == 0 || sc.Camera == nil || len(sc.Lights) == 0 {
			t.Fatalf("[spec %d: %s] preset scene is incomplete", i, sp.name)
		}
		for p := range sc.Primitives {
			if int(sc.Primitives[p].Mat) >= len(sc.Materials) {
				t.Fatalf("[spec %d: %s] primitive %d references a missing material", i, sp.name, p)
			}
		}
	}
}

func relDelta(a, b float32) float32 {
	if b == 0 {
		return absDelta(a, b)
	}
	return absDelta(a, b) / b
}
