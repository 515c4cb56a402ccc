package scene

import (
	"github.com/tonihW/raytracer-v2/types"
)

// A rigid transform: position, orientation and scale.
type Transform struct {
	Pos types.Vec3
	Ori types.Quat
	Scl types.Vec3
}

// Create a transform from a position and an axis/angle rotation with unit
// scale.
func TransformFromAxisAngle(pos, axis types.Vec3, angle float32) Transform {
	return Transform{
		Pos: pos,
		Ori: types.QuatFromAxisAngle(axis, angle),
		Scl: types.Vec3{1.0, 1.0, 1.0},
	}
}

// A pinhole camera. Immutable after construction.
type Camera struct {
	Trf Transform

	ViewportW float32
	ViewportH float32

	// Vertical aspect correction factor (height / width).
	ViewportA float32
}

// Create a new camera for the given viewport dimensions.
func NewCamera(trf Transform, viewportW, viewportH float32) *Camera {
	return &Camera{
		Trf:       trf,
		ViewportW: viewportW,
		ViewportH: viewportH,
		ViewportA: viewportH / viewportW,
	}
}

// Create a camera positioned at pos and rotated by angle radians around
// axis.
func CameraFromAxisAngle(pos, axis types.Vec3, angle, viewportW, viewportH float32) *Camera {
	return NewCamera(TransformFromAxisAngle(pos, axis, angle), viewportW, viewportH)
}

// Generate the world-space ray through pixel x, y.
//
// Pixel coordinates are normalized into [-0.5, 0.5] relative to the
// viewport center, the vertical axis is scaled by the aspect ratio and the
// implicit forward depth is 1. The view-space vector is then rotated into
// world space by conjugating with the orientation quaternion (q v q^-1)
// and normalized. The ray origin is always the camera position.
func (c *Camera) CalcRay(x, y float32) Ray {
	xNorm := (c.ViewportW*0.5 - x) / c.ViewportW
	yNorm := (c.ViewportH*0.5 - y) / c.ViewportH * c.ViewportA
	vNorm := types.Vec3{xNorm, yNorm, 1.0}

	dir := c.Trf.Ori.Rotate(vNorm).Normalize()
	return NewRay(c.Trf.Pos, dir)
}
