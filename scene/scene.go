package scene

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/vega-render/vega/types"
)

// Scene is the fully-resolved, read-only description the render core
// consumes. Parsing and validation of scene files is the concern of an
// external collaborator; the core receives the in-memory form, builds its
// acceleration structure once and then shares the scene across all workers
// without locking.
type Scene struct {
	Primitives []Primitive
	Materials  []Material
	Lights     []Light

	Camera *Camera

	// Environment radiance returned for rays that escape the scene,
	// interpolated on the ray direction's vertical component.
	BackgroundTop    types.Vec3
	BackgroundBottom types.Vec3
}

func New() *Scene {
	return &Scene{}
}

// Append a material and get its index.
func (sc *Scene) AddMaterial(mat Material) int32 {
	sc.Materials = append(sc.Materials, mat)
	return int32(len(sc.Materials) - 1)
}

// Append a primitive and get its index.
func (sc *Scene) AddPrimitive(prim Primitive) int32 {
	sc.Primitives = append(sc.Primitives, prim)
	return int32(len(sc.Primitives) - 1)
}

// Append a primitive backed by an emissive material and register the area
// light that samples it. Zero-area primitives are accepted but skipped by
// light sampling.
func (sc *Scene) AddAreaLight(prim Primitive) int32 {
	primIdx := int32(len(sc.Primitives))
	lightIdx := int32(len(sc.Lights))
	prim.Light = lightIdx
	sc.Primitives = append(sc.Primitives, prim)
	sc.Lights = append(sc.Lights, NewAreaLight(primIdx))
	return lightIdx
}

// Append a point light.
func (sc *Scene) AddPointLight(pos, intensity types.Vec3) int32 {
	sc.Lights = append(sc.Lights, NewPointLight(pos, intensity))
	return int32(len(sc.Lights) - 1)
}

// Get the environment contribution for an escaped ray.
func (sc *Scene) EnvRadiance(dir types.Vec3) types.Vec3 {
	unit := dir.Normalize()
	t := 0.5 * (unit[1] + 1)
	return types.LerpVec3(sc.BackgroundBottom, sc.BackgroundTop, t)
}

// Build a tabular representation of scene statistics.
func (sc *Scene) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Scene element", "Count"})

	numSpheres, numTriangles := 0, 0
	for i := range sc.Primitives {
		if sc.Primitives[i].Shape == SphereShape {
			numSpheres++
		} else {
			numTriangles++
		}
	}
	numPoint, numArea := 0, 0
	for i := range sc.Lights {
		if sc.Lights[i].Kind == PointLight {
			numPoint++
		} else {
			numArea++
		}
	}

	table.Append([]string{"Primitives", fmt.Sprintf("%d", len(sc.Primitives))})
	table.Append([]string{"  Spheres", fmt.Sprintf("%d", numSpheres)})
	table.Append([]string{"  Triangles", fmt.Sprintf("%d", numTriangles)})
	table.Append([]string{"Materials", fmt.Sprintf("%d", len(sc.Materials))})
	table.Append([]string{"Lights", fmt.Sprintf("%d", len(sc.Lights))})
	table.Append([]string{"  Point", fmt.Sprintf("%d", numPoint)})
	table.Append([]string{"  Area", fmt.Sprintf("%d", numArea)})

	table.Render()
	return buf.String()
}
