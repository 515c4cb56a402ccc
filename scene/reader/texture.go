package reader

import (
	"fmt"
	"image"
	"image/color"
	"os"

	// Register the decoders for the supported texture formats.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/tonihW/raytracer-v2/scene"
)

// Decode a texture image from disk.
func readTexture(pathToFile string, kind scene.TextureKind) (*scene.Texture, error) {
	f, err := os.Open(pathToFile)
	if err != nil {
		return nil, fmt.Errorf("texture: %v", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("texture: could not decode %s: %v", pathToFile, err)
	}

	return textureFromImage(img, kind), nil
}

// Convert a decoded image into the renderer's texture layout: RGBA8 for
// diffuse maps, luminance+alpha pairs for alpha maps. Sources without an
// alpha channel become fully opaque.
func textureFromImage(img image.Image, kind scene.TextureKind) *scene.Texture {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	tex := &scene.Texture{
		Kind:   kind,
		Width:  uint32(width),
		Height: uint32(height),
	}

	switch kind {
	case scene.TexAlpha:
		tex.Data = make([]byte, width*height*2)
		offset := 0
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				px := img.At(x, y)
				gray := color.GrayModel.Convert(px).(color.Gray)
				_, _, _, a := px.RGBA()
				tex.Data[offset] = gray.Y
				tex.Data[offset+1] = uint8(a >> 8)
				offset += 2
			}
		}
	default:
		tex.Data = make([]byte, width*height*4)
		offset := 0
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				rgba := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				tex.Data[offset] = rgba.R
				tex.Data[offset+1] = rgba.G
				tex.Data[offset+2] = rgba.B
				tex.Data[offset+3] = rgba.A
				offset += 4
			}
		}
	}

	return tex
}
