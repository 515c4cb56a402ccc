package scene

import (
	"math"

	"github.com/tonihW/raytracer-v2/types"
)

// Alpha samples below this threshold (less than one 8-bit quantization
// step) are treated as fully transparent.
const alphaCutoff float32 = 1.0 / 255.0

// Surface reflectance parameters plus optional texture maps. Materials are
// shared between all triangles that reference them by name and are never
// mutated after scene load.
type Material struct {
	Name string

	Ambient   types.Vec3
	Diffuse   types.Vec3
	Specular  types.Vec3
	Shininess float32
	Emission  types.Vec3

	// Optional maps; nil when absent.
	DiffuseTex *Texture
	AlphaTex   *Texture
}

// Get the diffuse reflectance at the given UV coordinate. The base diffuse
// color is modulated by the diffuse texture when one is present.
func (m *Material) DiffuseAt(uv types.Vec2) types.Vec3 {
	if m.DiffuseTex == nil {
		return m.Diffuse
	}
	texel := m.DiffuseTex.Sample(uv)
	return m.Diffuse.MulVec(texel.Vec3())
}

// Check whether the surface is fully transparent at the given UV
// coordinate. Both the dedicated alpha map and the alpha channel of the
// diffuse map can make a surface point see-through.
func (m *Material) Cutout(uv types.Vec2) bool {
	if m.AlphaTex != nil && m.AlphaTex.Sample(uv)[3] < alphaCutoff {
		return true
	}
	if m.DiffuseTex != nil && m.DiffuseTex.Sample(uv)[3] < alphaCutoff {
		return true
	}
	return false
}

// Evaluate the Lambertian diffuse term for a surface normal and a unit
// direction toward the light. Negative values (light behind the surface)
// are clamped to zero.
func Lambert(nrm, toLight types.Vec3) float32 {
	d := nrm.Dot(toLight)
	if d < 0.0 {
		return 0.0
	}
	return d
}

// Evaluate the Phong specular term (R.V)^shininess where R is the incident
// light direction reflected about the surface normal and V points toward
// the viewer.
func Phong(refl, toViewer types.Vec3, shininess float32) float32 {
	d := refl.Dot(toViewer)
	if d <= 0.0 {
		return 0.0
	}
	return float32(math.Pow(float64(d), float64(shininess)))
}

// Evaluate the Fresnel-Schlick approximation clamp(1 - N.V, 0, 1)^5.
// Not wired into the shading loop; kept as an extension point.
func FresnelSchlick(nrm, toViewer types.Vec3) float32 {
	f := 1.0 - nrm.Dot(toViewer)
	if f < 0.0 {
		f = 0.0
	} else if f > 1.0 {
		f = 1.0
	}
	return f * f * f * f * f
}
