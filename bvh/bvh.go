// Package bvh provides the bounding volume hierarchy used to accelerate
// ray-primitive intersection queries. Nodes are stored in a contiguous
// arena and linked by index; the tree is built once, is immutable afterward
// and is shared read-only by all render workers.
package bvh

import (
	"github.com/vega-render/vega/scene"
	"github.com/vega-render/vega/types"
)

// A single node in the flat node arena. A node is a leaf when Count > 0, in
// which case [First, First+Count) indexes the primitive visit order;
// otherwise Left and Right point at the child nodes and Axis records the
// split axis used to order near/far traversal.
type Node struct {
	Min types.Vec3
	Max types.Vec3

	Left  int32
	Right int32

	First int32
	Count int32

	Axis uint8
}

// BVH indexes a primitive list for closest-hit and any-hit queries. The
// primitive slice is referenced, not copied, and must not be mutated while
// the tree is alive.
type BVH struct {
	nodes []Node
	prims []scene.Primitive
	order []int32
}

// Get the number of nodes in the tree arena.
func (b *BVH) NodeCount() int {
	return len(b.nodes)
}

// Slab test against the node bounds over the interval [tMin, tMax].
func (n *Node) hit(origin, invDir types.Vec3, tMin, tMax float32) bool {
	for axis := 0; axis < 3; axis++ {
		t0 := (n.Min[axis] - origin[axis]) * invDir[axis]
		t1 := (n.Max[axis] - origin[axis]) * invDir[axis]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
		if tMin > tMax {
			return false
		}
	}
	return true
}

// Intersect finds the closest primitive hit along the ray, tightening the
// ray's TMax as the traversal proceeds. An empty tree or an invalid ray
// interval reports no hit.
func (b *BVH) Intersect(r *scene.Ray) (scene.Interaction, bool) {
	if len(b.nodes) == 0 || !r.Valid() {
		return scene.Interaction{}, false
	}

	invDir := types.XYZ(1/r.Dir[0], 1/r.Dir[1], 1/r.Dir[2])
	dirIsNeg := [3]bool{r.Dir[0] < 0, r.Dir[1] < 0, r.Dir[2] < 0}

	var best scene.Interaction
	found := false

	// Explicit stack keeps traversal memory bounded on deep trees.
	var stack [64]int32
	stackTop := 0
	stack[stackTop] = 0

	for stackTop >= 0 {
		node := &b.nodes[stack[stackTop]]
		stackTop--

		if !node.hit(r.Origin, invDir, r.TMin, r.TMax) {
			continue
		}

		if node.Count > 0 {
			for i := node.First; i < node.First+node.Count; i++ {
				primIdx := b.order[i]
				if it, hit := b.prims[primIdx].Intersect(r); hit {
					it.Prim = primIdx
					best = it
					found = true
				}
			}
			continue
		}

		// Visit the near child first so that close hits shrink TMax
		// before the far subtree is considered.
		near, far := node.Left, node.Right
		if dirIsNeg[node.Axis] {
			near, far = far, near
		}
		stackTop++
		stack[stackTop] = far
		stackTop++
		stack[stackTop] = near
	}

	return best, found
}

// IntersectP reports whether the ray hits any primitive within its interval.
// It stops at the first hit found and computes no surface data; occlusion
// queries on the shadow-ray path use this variant.
func (b *BVH) IntersectP(r scene.Ray) bool {
	if len(b.nodes) == 0 || !r.Valid() {
		return false
	}

	invDir := types.XYZ(1/r.Dir[0], 1/r.Dir[1], 1/r.Dir[2])

	var stack [64]int32
	stackTop := 0
	stack[stackTop] = 0

	for stackTop >= 0 {
		node := &b.nodes[stack[stackTop]]
		stackTop--

		if !node.hit(r.Origin, invDir, r.TMin, r.TMax) {
			continue
		}

		if node.Count > 0 {
			for i := node.First; i < node.First+node.Count; i++ {
				if b.prims[b.order[i]].IntersectP(r) {
					return true
				}
			}
			continue
		}

		stackTop++
		stack[stackTop] = node.Left
		stackTop++
		stack[stackTop] = node.Right
	}

	return false
}
