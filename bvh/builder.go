package bvh

import (
	"math"
	"sort"
	"time"

	"github.com/vega-render/vega/log"
	"github.com/vega-render/vega/scene"
	"github.com/vega-render/vega/types"
)

const (
	// Number of candidate split planes evaluated per axis.
	numBuckets = 12

	// Nodes with at most this many primitives become leaves immediately.
	leafThreshold = 4

	// Nodes with more than this many primitives are always split, even
	// when the SAH prefers a leaf.
	maxLeafSize = 16

	// Force a leaf once the tree grows this deep; keeps the traversal
	// stack bound valid for pathological inputs.
	maxBuildDepth = 60

	// Relative cost of a traversal step vs a primitive intersection in
	// the SAH cost model.
	traversalCost = 0.125

	// Centroid extents below this are treated as degenerate; the SAH
	// cannot place split planes inside them.
	minCentroidExtent float32 = 1e-6
)

type primInfo struct {
	idx    int32
	bbox   [2]types.Vec3
	center types.Vec3
}

type buildStats struct {
	nodes    int
	leafs    int
	maxDepth int
}

type builder struct {
	logger log.Logger

	nodes []Node
	order []int32
	stats buildStats
}

// Construct a BVH over the primitive list. Partitioning only reorders an
// index array; the primitive slice itself is never touched. An empty list
// yields a tree that reports no intersections.
func Build(prims []scene.Primitive) *BVH {
	b := &builder{
		logger: log.New("bvh"),
		nodes:  make([]Node, 0, 2*len(prims)),
		order:  make([]int32, 0, len(prims)),
	}

	if len(prims) == 0 {
		return &BVH{}
	}

	work := make([]primInfo, len(prims))
	for i := range prims {
		work[i] = primInfo{
			idx:    int32(i),
			bbox:   prims[i].BBox(),
			center: prims[i].Center(),
		}
	}

	start := time.Now()
	b.partition(work, 0)
	b.logger.Debugf(
		"built tree over %d primitives in %d ms: maxDepth %d, nodes %d, leafs %d",
		len(prims), time.Since(start).Nanoseconds()/1e6,
		b.stats.maxDepth, b.stats.nodes, b.stats.leafs,
	)

	return &BVH{nodes: b.nodes, prims: prims, order: b.order}
}

// Partition the work list and return the arena index of the created node.
func (b *builder) partition(work []primInfo, depth int) int32 {
	if depth > b.stats.maxDepth {
		b.stats.maxDepth = depth
	}

	node := Node{
		Min: types.XYZ(math.MaxFloat32, math.MaxFloat32, math.MaxFloat32),
		Max: types.XYZ(-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32),
	}
	cbMin := node.Min
	cbMax := node.Max
	for i := range work {
		node.Min = types.MinVec3(node.Min, work[i].bbox[0])
		node.Max = types.MaxVec3(node.Max, work[i].bbox[1])
		cbMin = types.MinVec3(cbMin, work[i].center)
		cbMax = types.MaxVec3(cbMax, work[i].center)
	}

	if len(work) <= leafThreshold || depth >= maxBuildDepth {
		return b.createLeaf(&node, work)
	}

	// Split along the axis of greatest centroid extent.
	extent := cbMax.Sub(cbMin)
	axis := 0
	if extent[1] > extent[axis] {
		axis = 1
	}
	if extent[2] > extent[axis] {
		axis = 2
	}

	var mid int
	if extent[axis] < minCentroidExtent {
		// All centroids coincide; the SAH has nowhere to place a
		// plane. Fall back to an equal-counts split so grossly
		// oversized leaves cannot form.
		if len(work) <= maxLeafSize {
			return b.createLeaf(&node, work)
		}
		mid = len(work) / 2
	} else {
		mid = b.sahSplit(work, axis, cbMin[axis], extent[axis], &node)
		if mid < 0 {
			return b.createLeaf(&node, work)
		}
	}

	nodeIdx := int32(len(b.nodes))
	b.nodes = append(b.nodes, node)
	b.stats.nodes++

	left := b.partition(work[:mid], depth+1)
	right := b.partition(work[mid:], depth+1)
	b.nodes[nodeIdx].Left = left
	b.nodes[nodeIdx].Right = right
	b.nodes[nodeIdx].Axis = uint8(axis)

	return nodeIdx
}

// Evaluate bucketed SAH split candidates along the chosen axis. Returns the
// partition point in work, or -1 when keeping a leaf is cheaper.
func (b *builder) sahSplit(work []primInfo, axis int, cbMin, cbExtent float32, node *Node) int {
	type bucket struct {
		count int
		min   types.Vec3
		max   types.Vec3
	}

	var buckets [numBuckets]bucket
	for i := range buckets {
		buckets[i].min = types.XYZ(math.MaxFloat32, math.MaxFloat32, math.MaxFloat32)
		buckets[i].max = types.XYZ(-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32)
	}

	bucketOf := func(p *primInfo) int {
		idx := int(float32(numBuckets) * (p.center[axis] - cbMin) / cbExtent)
		if idx >= numBuckets {
			idx = numBuckets - 1
		}
		return idx
	}

	for i := range work {
		idx := bucketOf(&work[i])
		buckets[idx].count++
		buckets[idx].min = types.MinVec3(buckets[idx].min, work[i].bbox[0])
		buckets[idx].max = types.MaxVec3(buckets[idx].max, work[i].bbox[1])
	}

	nodeArea := surfaceArea(node.Min, node.Max)
	bestCost := float32(math.MaxFloat32)
	bestBucket := -1

	for split := 0; split < numBuckets-1; split++ {
		lMin := types.XYZ(math.MaxFloat32, math.MaxFloat32, math.MaxFloat32)
		lMax := types.XYZ(-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32)
		rMin, rMax := lMin, lMax
		lCount, rCount := 0, 0

		for i := 0; i <= split; i++ {
			if buckets[i].count == 0 {
				continue
			}
			lCount += buckets[i].count
			lMin = types.MinVec3(lMin, buckets[i].min)
			lMax = types.MaxVec3(lMax, buckets[i].max)
		}
		for i := split + 1; i < numBuckets; i++ {
			if buckets[i].count == 0 {
				continue
			}
			rCount += buckets[i].count
			rMin = types.MinVec3(rMin, buckets[i].min)
			rMax = types.MaxVec3(rMax, buckets[i].max)
		}
		if lCount == 0 || rCount == 0 {
			continue
		}

		cost := traversalCost +
			(float32(lCount)*surfaceArea(lMin, lMax)+float32(rCount)*surfaceArea(rMin, rMax))/nodeArea
		if cost < bestCost {
			bestCost = cost
			bestBucket = split
		}
	}

	leafCost := float32(len(work))
	if bestBucket < 0 || (bestCost >= leafCost && len(work) <= maxLeafSize) {
		return -1
	}

	// Partition in place around the chosen bucket boundary.
	mid := 0
	for i := range work {
		if bucketOf(&work[i]) <= bestBucket {
			work[mid], work[i] = work[i], work[mid]
			mid++
		}
	}
	if mid == 0 || mid == len(work) {
		// All primitives bucketed to one side despite the candidate
		// scoring both sides non-empty; fall back to equal counts.
		sort.Slice(work, func(i, j int) bool {
			return work[i].center[axis] < work[j].center[axis]
		})
		mid = len(work) / 2
	}
	return mid
}

// Set up the node as a leaf holding all items in the work list and return
// its arena index.
func (b *builder) createLeaf(node *Node, work []primInfo) int32 {
	node.First = int32(len(b.order))
	node.Count = int32(len(work))
	for i := range work {
		b.order = append(b.order, work[i].idx)
	}

	nodeIdx := int32(len(b.nodes))
	b.nodes = append(b.nodes, *node)
	b.stats.nodes++
	b.stats.leafs++
	return nodeIdx
}

func surfaceArea(min, max types.Vec3) float32 {
	side := max.Sub(min)
	if side[0] < 0 || side[1] < 0 || side[2] < 0 {
		return 0
	}
	return 2 * (side[0]*side[1] + side[1]*side[2] + side[0]*side[2])
}
