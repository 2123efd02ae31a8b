package scene

import (
	"math"
	"testing"

	"github.com/vega-render/vega/sampler"
	"github.com/vega-render/vega/types"
)

func TestDiffuseSampleAgreesWithPdfAndEval(t *testing.T) {
	mat := NewDiffuse(types.XYZ(0.6, 0.4, 0.2))
	ns := types.XYZ(0, 0, 1)
	wo := types.XYZ(0, 0.5, 1).Normalize()

	smp := sampler.New(3, 0, 0, 0)
	for i := 0; i < 1000; i++ {
		bs, ok := mat.Sample(wo, ns, smp.Get2D())
		if !ok {
			continue
		}
		if bs.Specular {
			t.Fatalf("[draw %d] diffuse sample flagged specular", i)
		}
		if bs.Wi.Dot(ns) < 0 {
			t.Fatalf("[draw %d] sampled direction below the surface: %v", i, bs.Wi)
		}

		if pdf := mat.Pdf(wo, bs.Wi, ns); absDelta(pdf, bs.Pdf) > 1e-5 {
			t.Fatalf("[draw %d] sample pdf %f disagrees with Pdf %f", i, bs.Pdf, pdf)
		}

		f := mat.Eval(wo, bs.Wi, ns)
		want := float32(0.6 / math.Pi)
		if absDelta(f[0], want) > 1e-5 {
			t.Fatalf("[draw %d] lambertian reflectance mismatch: got %f, want %f", i, f[0], want)
		}
		if f != bs.F {
			t.Fatalf("[draw %d] sampled f %v disagrees with Eval %v", i, bs.F, f)
		}
	}
}

func TestMirrorSampleIsDeltaReflection(t *testing.T) {
	mat := NewMirror(types.XYZ(0.9, 0.9, 0.9))
	ns := types.XYZ(0, 0, 1)
	wo := types.XYZ(0.3, -0.2, 0.8).Normalize()

	bs, ok := mat.Sample(wo, ns, types.XY(0.5, 0.5))
	if !ok {
		t.Fatal("expected the mirror sample to succeed")
	}
	if !bs.Specular || bs.Pdf != 1 {
		t.Fatalf("expected a delta sample with unit pdf, got specular=%t pdf=%f", bs.Specular, bs.Pdf)
	}

	want := reflect(wo, ns)
	if bs.Wi.Sub(want).Len() > 1e-6 {
		t.Fatalf("expected the mirror direction %v, got %v", want, bs.Wi)
	}

	// Throughput f*cos/pdf must resolve to the mirror tint.
	cos := bs.Wi.Dot(ns)
	through := bs.F.Mul(cos / bs.Pdf)
	if absDelta(through[0], 0.9) > 1e-5 {
		t.Fatalf("expected tint throughput 0.9, got %f", through[0])
	}

	if !mat.Eval(wo, bs.Wi, ns).IsBlack() {
		t.Fatal("expected Eval to be black for a delta material")
	}
	if mat.Pdf(wo, bs.Wi, ns) != 0 {
		t.Fatal("expected Pdf to be zero for a delta material")
	}
}

func TestGlassSamplesBothBranches(t *testing.T) {
	mat := NewGlass(types.XYZ(1, 1, 1), 1.5)
	ns := types.XYZ(0, 0, 1)
	wo := types.XYZ(0.3, 0, 1).Normalize()

	smp := sampler.New(5, 0, 0, 0)
	reflections, refractions := 0, 0
	for i := 0; i < 2000; i++ {
		bs, ok := mat.Sample(wo, ns, smp.Get2D())
		if !ok {
			continue
		}
		if !bs.Specular {
			t.Fatalf("[draw %d] glass sample not flagged specular", i)
		}
		if d := bs.Wi.Len(); d < 0.999 || d > 1.001 {
			t.Fatalf("[draw %d] sampled direction not normalized: len %f", i, d)
		}
		if !bs.F.IsFinite() {
			t.Fatalf("[draw %d] non-finite sample value %v", i, bs.F)
		}
		if bs.Wi.Dot(ns) > 0 {
			reflections++
		} else {
			refractions++
		}
	}
	if reflections == 0 || refractions == 0 {
		t.Fatalf("expected both fresnel branches to be exercised, got %d reflections, %d refractions",
			reflections, refractions)
	}
}

func TestGlassTotalInternalReflection(t *testing.T) {
	// Grazing exit from the dense medium; refraction is impossible so
	// every sample must reflect regardless of the random value.
	mat := NewGlass(types.XYZ(1, 1, 1), 1.5)
	ns := types.XYZ(0, 0, 1)
	wo := types.XYZ(1, 0, -0.1).Normalize()

	smp := sampler.New(9, 0, 0, 0)
	for i := 0; i < 200; i++ {
		bs, ok := mat.Sample(wo, ns, smp.Get2D())
		if !ok {
			continue
		}
		// The ray travels inside the medium (wo below the surface), so
		// reflection keeps wi on the same side as wo.
		if bs.Wi.Dot(ns) >= 0 {
			t.Fatalf("[draw %d] expected total internal reflection, got wi %v", i, bs.Wi)
		}
	}
}

func TestEmissiveRadiatesFromFrontFaceOnly(t *testing.T) {
	mat := NewEmissive(types.XYZ(3, 3, 3))
	ng := types.XYZ(0, 0, 1)

	if got := mat.Emitted(types.XYZ(0, 0, 1), ng); got.IsBlack() {
		t.Fatal("expected emission toward the front face")
	}
	if got := mat.Emitted(types.XYZ(0, 0, -1), ng); !got.IsBlack() {
		t.Fatalf("expected no emission toward the back face, got %v", got)
	}
}

func TestMerlTableValidation(t *testing.T) {
	specs := []struct {
		desc            string
		th, td, pd      int
		dataLen         int
		expectControlOK bool
	}{
		{"valid", 4, 4, 8, 3 * 4 * 4 * 8, true},
		{"zero dims", 0, 4, 8, 0, false},
		{"short data", 4, 4, 8, 7, false},
	}

	for i, sp := range specs {
		_, err := NewMerlTable(sp.th, sp.td, sp.pd, make([]float32, sp.dataLen))
		if (err == nil) != sp.expectControlOK {
			t.Fatalf("[spec %d: %s] unexpected validation result: %v", i, sp.desc, err)
		}
	}
}

func TestMeasuredMaterialUsesTable(t *testing.T) {
	// A constant table makes the measured material behave like a
	// lambertian surface with reflectance pi * value.
	data := make([]float32, 3*4*4*8)
	for i := range data {
		data[i] = 0.1
	}
	table, err := NewMerlTable(4, 4, 8, data)
	if err != nil {
		t.Fatal(err)
	}

	mat := NewMeasured(table)
	ns := types.XYZ(0, 0, 1)
	wo := types.XYZ(0, 0.3, 1).Normalize()

	smp := sampler.New(21, 0, 0, 0)
	bs, ok := mat.Sample(wo, ns, smp.Get2D())
	if !ok {
		t.Fatal("expected the measured sample to succeed")
	}
	if bs.Specular {
		t.Fatal("measured materials must not be delta distributions")
	}
	for c := 0; c < 3; c++ {
		if absDelta(bs.F[c], 0.1) > 1e-5 {
			t.Fatalf("expected the constant table value on channel %d, got %f", c, bs.F[c])
		}
	}
}

func absDelta(a, b float32) float32 {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}
