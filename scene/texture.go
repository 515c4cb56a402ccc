package scene

import (
	"math"

	"github.com/tonihW/raytracer-v2/types"
)

type TextureKind uint8

const (
	// Diffuse textures store 4 bytes per pixel (RGBA). Sources without an
	// alpha channel are expanded with a fully opaque alpha at load time.
	TexDiffuse TextureKind = iota

	// Alpha textures store 2 bytes per pixel (luminance + alpha).
	TexAlpha
)

// A decoded texture image. Read-only after scene load.
type Texture struct {
	Kind TextureKind

	Width  uint32
	Height uint32

	Data []byte
}

// Get the RGBA value of the pixel at x, y with channel values mapped to
// [0, 1]. Alpha textures replicate their luminance across RGB.
func (t *Texture) Texel(x, y uint32) types.Vec4 {
	switch t.Kind {
	case TexAlpha:
		offset := (y*t.Width + x) << 1
		lum := float32(t.Data[offset]) / 255.0
		return types.Vec4{lum, lum, lum, float32(t.Data[offset+1]) / 255.0}
	default:
		offset := (y*t.Width + x) << 2
		return types.Vec4{
			float32(t.Data[offset]) / 255.0,
			float32(t.Data[offset+1]) / 255.0,
			float32(t.Data[offset+2]) / 255.0,
			float32(t.Data[offset+3]) / 255.0,
		}
	}
}

// Sample the texture at the given UV coordinate using bilinear filtering.
//
// Addressing uses wrap/repeat semantics: coordinates are reduced by their
// Euclidean remainder against 1.0 so negative coordinates wrap correctly.
// The V axis is flipped to map the bottom-left UV origin onto the top-down
// pixel rows of the decoded image. The four texels around the 0.5 offset
// pixel center are blended by fractional distance.
func (t *Texture) Sample(uv types.Vec2) types.Vec4 {
	if t.Width == 0 || t.Height == 0 {
		return types.Vec4{}
	}

	u := wrapCoord(uv[0])
	v := 1.0 - wrapCoord(uv[1])

	fx := u*float32(t.Width) - 0.5
	fy := v*float32(t.Height) - 0.5
	x0 := int32(math.Floor(float64(fx)))
	y0 := int32(math.Floor(float64(fy)))
	dx := fx - float32(x0)
	dy := fy - float32(y0)

	x1 := wrapIndex(x0+1, int32(t.Width))
	y1 := wrapIndex(y0+1, int32(t.Height))
	x0w := wrapIndex(x0, int32(t.Width))
	y0w := wrapIndex(y0, int32(t.Height))

	top := lerpVec4(t.Texel(x0w, y0w), t.Texel(x1, y0w), dx)
	bottom := lerpVec4(t.Texel(x0w, y1), t.Texel(x1, y1), dx)
	return lerpVec4(top, bottom, dy)
}

// Reduce a texture coordinate to [0, 1) via the Euclidean remainder.
func wrapCoord(c float32) float32 {
	return c - float32(math.Floor(float64(c)))
}

// Wrap a texel index into [0, dim).
func wrapIndex(i, dim int32) uint32 {
	i %= dim
	if i < 0 {
		i += dim
	}
	return uint32(i)
}

func lerpVec4(a, b types.Vec4, s float32) types.Vec4 {
	return types.Vec4{
		a[0] + (b[0]-a[0])*s,
		a[1] + (b[1]-a[1])*s,
		a[2] + (b[2]-a[2])*s,
		a[3] + (b[3]-a[3])*s,
	}
}
