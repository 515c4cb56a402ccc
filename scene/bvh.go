package scene

import (
	"math"
	"time"

	"github.com/tonihW/raytracer-v2/log"
	"github.com/tonihW/raytracer-v2/types"
)

type splitAxis uint8

const (
	xAxis splitAxis = iota
	yAxis
	zAxis

	// The builder will not attempt to calculate split candidates if the
	// node bbox along an axis is less than this threshold.
	minSideLength float32 = 1e-3

	// If the split step (side length / (1024 / depth+1)) is less than
	// this threshold the builder will not evaluate split candidates.
	minSplitStep float32 = 1e-5

	// Leaves are created for work lists at or below this size.
	minLeafTriangles = 4
)

// A node in the flattened BVH tree. The two int32 fields are multipurpose:
// for inner nodes they both point (>0) to the L/R child node indices; for
// leaves lData is <= 0 and points to the first triangle of the leaf while
// rData holds the triangle count.
type bvhNode struct {
	min   types.Vec3
	lData int32

	max   types.Vec3
	rData int32
}

// Set left and right child node indices.
func (n *bvhNode) setChildNodes(left, right int32) {
	n.lData = left
	n.rData = right
}

// Set first triangle index and count for a leaf.
func (n *bvhNode) setTriangles(first, count int32) {
	n.lData = -first
	n.rData = count
}

// Get first triangle index and count for a leaf.
func (n *bvhNode) triangles() (first, count int32) {
	return -n.lData, n.rData
}

func (n *bvhNode) isLeaf() bool {
	return n.lData <= 0
}

// A bounding volume hierarchy over the scene triangle list.
//
// Build reorders the triangle list and writes each triangle's bookkeeping
// index; this mutation happens strictly before the parallel render phase.
// Query returns a conservative, unsorted superset of the triangles whose
// bounding box the ray may intersect; callers must run exact intersection
// tests and perform the nearest-hit reduction themselves.
type Bvh struct {
	nodes     []bvhNode
	triangles []*Triangle

	maxDepth int
	leafs    int
}

type splitScore struct {
	axis       splitAxis
	splitPoint float32

	leftCount  int
	rightCount int
	score      float32
}

type bvhBuilder struct {
	logger log.Logger

	bvh       *Bvh
	scoreChan chan splitScore
}

// Construct a BVH from the given triangle list.
//
// The builder uses the surface area heuristic for scoring splits:
// score = triangle count * node bbox face area.
func BuildBvh(triangles []*Triangle) *Bvh {
	b := &bvhBuilder{
		logger: log.New("bvh builder"),
		bvh: &Bvh{
			nodes:     make([]bvhNode, 0),
			triangles: make([]*Triangle, 0, len(triangles)),
		},
		scoreChan: make(chan splitScore),
	}

	start := time.Now()
	if len(triangles) > 0 {
		b.partition(triangles, 0)
	}
	b.logger.Debugf(
		"BVH tree build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d",
		time.Since(start).Nanoseconds()/1e6,
		b.bvh.maxDepth, len(b.bvh.nodes), b.bvh.leafs,
	)

	return b.bvh
}

// Collect all triangles whose bounding box the ray may penetrate within
// [0, maxDist]. Candidates are appended to out which is returned to allow
// callers to reuse scratch space between queries.
func (b *Bvh) Query(ray *Ray, maxDist float32, out []*Triangle) []*Triangle {
	if len(b.nodes) == 0 {
		return out
	}

	// Iterative traversal; the stack depth is bounded by the tree depth.
	stack := make([]int32, 0, 64)
	stack = append(stack, 0)
	for len(stack) > 0 {
		nodeIndex := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &b.nodes[nodeIndex]
		if !ray.intersectBox(node.min, node.max, maxDist) {
			continue
		}

		if node.isLeaf() {
			first, count := node.triangles()
			out = append(out, b.triangles[first:first+count]...)
			continue
		}

		stack = append(stack, node.lData, node.rData)
	}

	return out
}

// Partition the work list and return the created node index.
func (b *bvhBuilder) partition(workList []*Triangle, depth int) int32 {
	if depth > b.bvh.maxDepth {
		b.bvh.maxDepth = depth
	}

	node := bvhNode{
		min: types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		max: types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}

	// Calculate bounding box for node
	for _, tri := range workList {
		bbox := tri.BBox()
		node.min = types.MinVec3(node.min, bbox[0])
		node.max = types.MaxVec3(node.max, bbox[1])
	}

	// Do we have enough items for partitioning? If not create a leaf
	if len(workList) <= minLeafTriangles {
		return b.createLeaf(&node, workList)
	}

	bestScore := scorePartition(workList)
	var bestSplit *splitScore

	// Run axis split tests in parallel
	pendingScores := 0
	side := node.max.Sub(node.min)
	for axis := xAxis; axis <= zAxis; axis++ {
		// Skip axis if bbox dimension is too small
		if side[axis] < minSideLength {
			continue
		}

		// Split steps become more granular the deeper we go
		splitStep := side[axis] / (1024.0 / float32(depth+1))
		if splitStep < minSplitStep {
			continue
		}

		for splitPoint := node.min[axis]; splitPoint < node.max[axis]; splitPoint += splitStep {
			pendingScores++
			go func(axis splitAxis, splitPoint float32) {
				lCount, rCount, score := scoreSplit(workList, axis, splitPoint)
				b.scoreChan <- splitScore{
					axis:       axis,
					splitPoint: splitPoint,

					leftCount:  lCount,
					rightCount: rCount,
					score:      score,
				}
			}(axis, splitPoint)
		}
	}

	// Process all scores and pick the best split
	for ; pendingScores > 0; pendingScores-- {
		candidate := <-b.scoreChan
		if candidate.score < bestScore {
			bestScore = candidate.score
			bestSplit = &candidate
		}
	}

	// If no split improves on the current node score create a leaf
	if bestSplit == nil {
		return b.createLeaf(&node, workList)
	}

	leftWorkList := make([]*Triangle, 0, bestSplit.leftCount)
	rightWorkList := make([]*Triangle, 0, bestSplit.rightCount)
	for _, tri := range workList {
		if tri.Center()[bestSplit.axis] < bestSplit.splitPoint {
			leftWorkList = append(leftWorkList, tri)
		} else {
			rightWorkList = append(rightWorkList, tri)
		}
	}

	nodeIndex := int32(len(b.bvh.nodes))
	b.bvh.nodes = append(b.bvh.nodes, node)

	leftNodeIndex := b.partition(leftWorkList, depth+1)
	rightNodeIndex := b.partition(rightWorkList, depth+1)
	b.bvh.nodes[nodeIndex].setChildNodes(leftNodeIndex, rightNodeIndex)

	return nodeIndex
}

// Set up the given node as a leaf holding all triangles in the work list.
// The triangles are appended to the reordered triangle list and tagged
// with their leaf node index.
func (b *bvhBuilder) createLeaf(node *bvhNode, workList []*Triangle) int32 {
	nodeIndex := int32(len(b.bvh.nodes))
	node.setTriangles(int32(len(b.bvh.triangles)), int32(len(workList)))

	for _, tri := range workList {
		tri.nodeIndex = int(nodeIndex)
	}
	b.bvh.triangles = append(b.bvh.triangles, workList...)
	b.bvh.nodes = append(b.bvh.nodes, *node)
	b.bvh.leafs++

	return nodeIndex
}

// Score a BVH split using the surface area heuristic (lower is better):
//
// left count * left bbox area + right count * right bbox area.
//
// Splits that generate empty partitions receive the worst possible score.
func scoreSplit(workList []*Triangle, axis splitAxis, splitPoint float32) (leftCount, rightCount int, score float32) {
	lmin := types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	rmin := types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	lmax := types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	rmax := types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}

	for _, tri := range workList {
		bbox := tri.BBox()
		if tri.Center()[axis] < splitPoint {
			leftCount++
			lmin = types.MinVec3(lmin, bbox[0])
			lmax = types.MaxVec3(lmax, bbox[1])
		} else {
			rightCount++
			rmin = types.MinVec3(rmin, bbox[0])
			rmax = types.MaxVec3(rmax, bbox[1])
		}
	}

	if leftCount == 0 || rightCount == 0 {
		return leftCount, rightCount, math.MaxFloat32
	}

	lside := lmax.Sub(lmin)
	rside := rmax.Sub(rmin)
	score = (float32(leftCount) * (lside[0]*lside[1] + lside[1]*lside[2] + lside[0]*lside[2])) +
		(float32(rightCount) * (rside[0]*rside[1] + rside[1]*rside[2] + rside[0]*rside[2]))

	return leftCount, rightCount, score
}

// Calculate the SAH score for an unsplit work list: count * bbox area.
func scorePartition(workList []*Triangle) float32 {
	if len(workList) == 0 {
		return math.MaxFloat32
	}

	min := types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	max := types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for _, tri := range workList {
		bbox := tri.BBox()
		min = types.MinVec3(min, bbox[0])
		max = types.MaxVec3(max, bbox[1])
	}

	side := max.Sub(min)
	return float32(len(workList)) * (side[0]*side[1] + side[1]*side[2] + side[0]*side[2])
}
