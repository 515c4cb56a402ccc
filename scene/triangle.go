package scene

import (
	"github.com/tonihW/raytracer-v2/types"
)

// A single shaded vertex. Immutable once constructed.
type Vertex struct {
	Pos types.Vec3
	Nrm types.Vec3
	Tex types.Vec2
}

// The result of a successful ray/triangle intersection test. Instances are
// produced and consumed within a single trace step and are never retained.
type Intersection struct {
	T   float32
	Pos types.Vec3
	Nrm types.Vec3
	Tex types.Vec2
	Mat *Material
}

// A triangle primitive. Triangles reference their material by name; the
// reference is resolved to a *Material when the owning scene is built.
type Triangle struct {
	Vrt     [3]Vertex
	MatName string

	// Resolved by Scene.Build.
	mat *Material

	// Bookkeeping slot written by the BVH builder. Frozen once the scene
	// enters the parallel render phase.
	nodeIndex int
}

// Get the material resolved for this triangle.
func (t *Triangle) Material() *Material {
	return t.mat
}

// Intersect tests the ray against the triangle using the Möller-Trumbore
// algorithm. Back-facing and near-parallel triangles are rejected by the
// determinant epsilon test; one-sided culling is intentional.
//
// Reference: http://www.graphics.cornell.edu/pubs/1997/MT97.html
func (t *Triangle) Intersect(ray *Ray) (Intersection, bool) {
	edgeA := t.Vrt[1].Pos.Sub(t.Vrt[0].Pos)
	edgeB := t.Vrt[2].Pos.Sub(t.Vrt[0].Pos)

	// Solve the system for the distance along the ray
	p := ray.Dir.Cross(edgeB)
	det := edgeA.Dot(p)
	if det < Epsilon {
		return Intersection{}, false
	}

	invDet := 1.0 / det
	tv := ray.Origin.Sub(t.Vrt[0].Pos)
	u := tv.Dot(p) * invDet
	if u < 0.0 || u > 1.0 {
		return Intersection{}, false
	}

	q := tv.Cross(edgeA)
	v := ray.Dir.Dot(q) * invDet
	if v < 0.0 || u+v > 1.0 {
		return Intersection{}, false
	}

	dist := edgeB.Dot(q) * invDet
	if dist < Epsilon {
		return Intersection{}, false
	}

	pos := ray.Origin.Add(ray.Dir.Mul(dist))

	// Interpolate normal and texture coordinates using barycentric weights
	b0, b1, b2 := t.barycentric(pos, edgeA, edgeB)
	nrm := t.Vrt[0].Nrm.Mul(b0).Add(t.Vrt[1].Nrm.Mul(b1)).Add(t.Vrt[2].Nrm.Mul(b2))
	tex := t.Vrt[0].Tex.Mul(b0).Add(t.Vrt[1].Tex.Mul(b1)).Add(t.Vrt[2].Tex.Mul(b2))

	return Intersection{
		T:   dist,
		Pos: pos,
		Nrm: nrm.Normalize(),
		Tex: tex,
		Mat: t.mat,
	}, true
}

// Calculate the barycentric weights of a point inside the triangle from the
// magnitudes of the edge cross products. For points inside the triangle
// these agree with the Möller-Trumbore u/v values up to rounding.
//
// Reference: https://www.pbr-book.org
func (t *Triangle) barycentric(pos, edgeA, edgeB types.Vec3) (float32, float32, float32) {
	w := pos.Sub(t.Vrt[0].Pos)

	vCrossW := edgeB.Cross(w)
	uCrossW := edgeA.Cross(w)
	uCrossV := edgeA.Cross(edgeB)

	denom := uCrossV.Len()
	b1 := vCrossW.Len() / denom
	b2 := uCrossW.Len() / denom

	return 1.0 - b1 - b2, b1, b2
}

// Get the axis-aligned bounding box of the triangle.
func (t *Triangle) BBox() [2]types.Vec3 {
	return [2]types.Vec3{
		types.MinVec3(t.Vrt[0].Pos, types.MinVec3(t.Vrt[1].Pos, t.Vrt[2].Pos)),
		types.MaxVec3(t.Vrt[0].Pos, types.MaxVec3(t.Vrt[1].Pos, t.Vrt[2].Pos)),
	}
}

// Get the centroid of the triangle.
func (t *Triangle) Center() types.Vec3 {
	return t.Vrt[0].Pos.Add(t.Vrt[1].Pos).Add(t.Vrt[2].Pos).Mul(1.0 / 3.0)
}

// Get the surface area of the triangle. Degenerate (collinear) triangles
// report zero area and are dropped when the scene is built.
func (t *Triangle) Area() float32 {
	edgeA := t.Vrt[1].Pos.Sub(t.Vrt[0].Pos)
	edgeB := t.Vrt[2].Pos.Sub(t.Vrt[0].Pos)
	return edgeA.Cross(edgeB).Len() * 0.5
}
