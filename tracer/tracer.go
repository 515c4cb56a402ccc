// Package tracer implements the recursive Whitted-style shading algorithm
// that turns camera rays into radiance values.
package tracer

import (
	"math"

	"github.com/tonihW/raytracer-v2/scene"
	"github.com/tonihW/raytracer-v2/types"
)

// Default bound on trace recursion.
const DefaultMaxDepth = 4

// Offset applied along the surface normal when spawning shadow rays, to
// avoid self-shadowing acne.
const shadowBias = scene.Epsilon

// A recursive raytracer. Instances are stateless apart from configuration
// and may be shared freely between worker goroutines.
type Raytracer struct {
	// Trace calls with a depth above this bound contribute zero radiance.
	MaxDepth int
}

// Create a raytracer with the default recursion bound.
func New() *Raytracer {
	return &Raytracer{MaxDepth: DefaultMaxDepth}
}

// Trace returns the linear radiance arriving along the ray. The result is
// unbounded; tone mapping to display range happens at the pixel-write
// boundary, outside the tracer.
//
// The scene must be built and is only ever read.
func (rt *Raytracer) Trace(sc *scene.Scene, ray *scene.Ray, depth int) types.Vec3 {
	// Hard recursion bound; no adaptive termination
	if depth > rt.MaxDepth {
		return types.Vec3{}
	}

	isect, found := rt.nearestHit(sc, ray, math.MaxFloat32)
	if !found {
		// Background
		return sc.Ambient
	}

	// Fully transparent cutout: pass through along the same direction
	// without shading, burning one recursion step.
	if isect.Mat.Cutout(isect.Tex) {
		next := scene.NewRay(isect.Pos, ray.Dir)
		return rt.Trace(sc, &next, depth+1)
	}

	diffuseCol := isect.Mat.DiffuseAt(isect.Tex)
	result := types.Vec3{}

	// Direct lighting with per-light shadow tests. |we| bounds the shadow
	// ray; directional lights report a pseudo-distance of 1e9 which stands
	// in for an unbounded ray and must exceed the scene extent.
	for _, light := range sc.Lights {
		we := light.EvalWe(isect.Pos)
		dist := we.Len()
		toLight := we.Normalize()

		if rt.occluded(sc, isect.Pos, isect.Nrm, toLight, dist) {
			continue
		}

		le := light.EvalLe(we)
		contrib := diffuseCol.Mul(scene.Lambert(isect.Nrm, toLight))

		if isect.Mat.Shininess > 0 {
			refl := types.Reflect(toLight.Mul(-1.0), isect.Nrm)
			toViewer := ray.Dir.Mul(-1.0)
			contrib = contrib.Add(diffuseCol.Mul(scene.Phong(refl, toViewer, isect.Mat.Shininess)))
		}

		result = result.Add(le.MulVec(contrib))
	}

	// Ambient and emissive terms apply regardless of shadow state
	result = result.Add(sc.Ambient.MulVec(diffuseCol))
	result = result.Add(isect.Mat.Emission)

	return result
}

// Find the nearest exact intersection along the ray. The spatial index
// only yields an unsorted candidate superset, so every candidate is
// intersected and the minimum distance kept.
func (rt *Raytracer) nearestHit(sc *scene.Scene, ray *scene.Ray, maxDist float32) (scene.Intersection, bool) {
	candidates := sc.Bvh.Query(ray, maxDist, nil)

	nearest := scene.Intersection{T: maxDist}
	found := false
	for _, tri := range candidates {
		if isect, hit := tri.Intersect(ray); hit && isect.T < nearest.T {
			nearest = isect
			found = true
		}
	}

	return nearest, found
}

// Check whether the path from a surface point toward a light is blocked.
// The shadow ray starts slightly off the surface along the normal, and an
// occluder only counts when it is not itself transparent at the hit point.
func (rt *Raytracer) occluded(sc *scene.Scene, pos, nrm, toLight types.Vec3, dist float32) bool {
	ray := scene.NewRay(pos.Add(nrm.Mul(shadowBias)), toLight)

	isect, found := rt.nearestHit(sc, &ray, dist)
	if !found {
		return false
	}
	return !isect.Mat.Cutout(isect.Tex)
}
