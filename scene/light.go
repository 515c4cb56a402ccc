package scene

import (
	"github.com/tonihW/raytracer-v2/types"
)

// Distance reported by lights that are infinitely far away. Large enough
// to bound shadow rays for any practical scene while keeping its square
// inside float32 range.
const infiniteLightDist float32 = 1e9

// A light source. New light types extend this two-method capability set.
//
// EvalWe returns the unnormalized vector from the surface point toward the
// light; its magnitude is the distance to the light, which bounds shadow
// rays. EvalLe returns the incident radiance for a vector previously
// obtained from EvalWe.
type Light interface {
	EvalWe(p types.Vec3) types.Vec3
	EvalLe(we types.Vec3) types.Vec3
}

// A directional light with a fixed direction of travel and constant
// emission regardless of distance.
type DirLight struct {
	Direction types.Vec3
	Emission  types.Vec3
}

func (l *DirLight) EvalWe(p types.Vec3) types.Vec3 {
	return l.Direction.Mul(-1.0).Normalize().Mul(infiniteLightDist)
}

func (l *DirLight) EvalLe(we types.Vec3) types.Vec3 {
	return l.Emission
}

// A point light with the classic OpenGL constant/linear/quadratic
// attenuation model.
type PointLight struct {
	Position types.Vec3
	Emission types.Vec3

	C float32
	L float32
	Q float32
}

func (l *PointLight) EvalWe(p types.Vec3) types.Vec3 {
	return l.Position.Sub(p)
}

func (l *PointLight) EvalLe(we types.Vec3) types.Vec3 {
	d := we.Len()
	return l.Emission.Mul(1.0 / (l.C + l.L*d + l.Q*d*d))
}
