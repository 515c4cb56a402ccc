package scene

import (
	"github.com/tonihW/raytracer-v2/types"
)

// Threshold used for intersection acceptance tests. Hits with t below this
// value are rejected to avoid self-intersection artifacts.
const Epsilon float32 = 1e-5

// A ray described by an origin and a direction. The component-wise inverse
// of the direction is precalculated as it is used by every AABB slab test
// during BVH traversal.
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3

	invDir types.Vec3
}

// Create a new ray. The direction is not normalized here; callers that
// require a unit direction must normalize it themselves.
func NewRay(origin, dir types.Vec3) Ray {
	return Ray{
		Origin: origin,
		Dir:    dir,
		invDir: types.Vec3{1.0 / dir[0], 1.0 / dir[1], 1.0 / dir[2]},
	}
}

// Test whether the ray intersects an AABB within [0, maxDist] using the
// slab method. Division by a zero direction component yields +/-Inf which
// the min/max selection below handles correctly; NaN comparisons evaluate
// to false which keeps the test conservative.
func (r *Ray) intersectBox(min, max types.Vec3, maxDist float32) bool {
	var tmin float32 = 0.0
	tmax := maxDist

	for axis := 0; axis < 3; axis++ {
		t1 := (min[axis] - r.Origin[axis]) * r.invDir[axis]
		t2 := (max[axis] - r.Origin[axis]) * r.invDir[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return false
		}
	}

	return true
}
