package scene

import (
	"github.com/pkg/errors"
	"github.com/vega-render/vega/types"
)

// Built-in scenes. The render core treats scene construction as an external
// concern; these presets stand in for the scene loading collaborator so the
// CLI and the integration tests have something to render.

// Look up a built-in scene by name.
func ByName(name string) (*Scene, error) {
	switch name {
	case "cornell":
		return Cornell(), nil
	case "spheres":
		return Spheres(), nil
	}
	return nil, errors.Errorf("scene: unknown built-in scene %q", name)
}

// A Cornell-style box: diffuse walls, a mirror and a glass sphere, an area
// light in the ceiling.
func Cornell() *Scene {
	sc := New()

	white := sc.AddMaterial(NewDiffuse(types.XYZ(0.73, 0.73, 0.73)))
	red := sc.AddMaterial(NewDiffuse(types.XYZ(0.65, 0.05, 0.05)))
	green := sc.AddMaterial(NewDiffuse(types.XYZ(0.12, 0.45, 0.15)))
	mirror := sc.AddMaterial(NewMirror(types.XYZ(0.9, 0.9, 0.9)))
	glass := sc.AddMaterial(NewGlass(types.XYZ(1, 1, 1), 1.5))
	lamp := sc.AddMaterial(NewEmissive(types.XYZ(15, 15, 15)))

	// Box interior, 2 units wide, centered on the origin.
	addQuad(sc, // floor
		types.XYZ(-1, -1, -1), types.XYZ(1, -1, -1),
		types.XYZ(1, -1, 1), types.XYZ(-1, -1, 1), white)
	addQuad(sc, // ceiling
		types.XYZ(-1, 1, 1), types.XYZ(1, 1, 1),
		types.XYZ(1, 1, -1), types.XYZ(-1, 1, -1), white)
	addQuad(sc, // back wall
		types.XYZ(-1, -1, -1), types.XYZ(-1, 1, -1),
		types.XYZ(1, 1, -1), types.XYZ(1, -1, -1), white)
	addQuad(sc, // left wall
		types.XYZ(-1, -1, 1), types.XYZ(-1, 1, 1),
		types.XYZ(-1, 1, -1), types.XYZ(-1, -1, -1), red)
	addQuad(sc, // right wall
		types.XYZ(1, -1, -1), types.XYZ(1, 1, -1),
		types.XYZ(1, 1, 1), types.XYZ(1, -1, 1), green)

	sc.AddPrimitive(NewSphere(types.XYZ(-0.4, -0.6, -0.35), 0.4, mirror))
	sc.AddPrimitive(NewSphere(types.XYZ(0.45, -0.65, 0.25), 0.35, glass))

	// Ceiling lamp, slightly below the ceiling so it faces down.
	const ly = 0.999
	sc.AddAreaLight(lampTriangle(
		types.XYZ(-0.3, ly, -0.3), types.XYZ(0.3, ly, -0.3), types.XYZ(0.3, ly, 0.3), lamp))
	sc.AddAreaLight(lampTriangle(
		types.XYZ(-0.3, ly, -0.3), types.XYZ(0.3, ly, 0.3), types.XYZ(-0.3, ly, 0.3), lamp))

	sc.Camera = NewCamera(types.XYZ(0, 0, 3.4), types.XYZ(0, 0, 0), 40)
	return sc
}

// An open scene with diffuse spheres on a ground plane under a point light
// and a gradient sky.
func Spheres() *Scene {
	sc := New()

	ground := sc.AddMaterial(NewDiffuse(types.XYZ(0.5, 0.5, 0.5)))
	blue := sc.AddMaterial(NewDiffuse(types.XYZ(0.2, 0.3, 0.8)))
	mirror := sc.AddMaterial(NewMirror(types.XYZ(0.95, 0.95, 0.95)))

	addQuad(sc,
		types.XYZ(-20, 0, 20), types.XYZ(20, 0, 20),
		types.XYZ(20, 0, -20), types.XYZ(-20, 0, -20), ground)
	sc.AddPrimitive(NewSphere(types.XYZ(-1.1, 1, 0), 1, blue))
	sc.AddPrimitive(NewSphere(types.XYZ(1.1, 1, 0), 1, mirror))

	sc.AddPointLight(types.XYZ(0, 6, 4), types.XYZ(120, 120, 120))

	sc.BackgroundTop = types.XYZ(0.5, 0.7, 1.0)
	sc.BackgroundBottom = types.XYZ(1, 1, 1)

	sc.Camera = NewCamera(types.XYZ(0, 2, 6), types.XYZ(0, 1, 0), 45)
	return sc
}

// Append a quad as two triangles. Vertices are given counter-clockwise when
// viewed from the front side.
func addQuad(sc *Scene, v0, v1, v2, v3 types.Vec3, mat int32) {
	sc.AddPrimitive(NewTriangle(v0, v1, v2, mat))
	sc.AddPrimitive(NewTriangle(v0, v2, v3, mat))
}

func lampTriangle(v0, v1, v2 types.Vec3, mat int32) Primitive {
	return NewTriangle(v0, v1, v2, mat)
}
