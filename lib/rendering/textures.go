package rendering

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// LoadTexture decodes a PNG or JPEG file into a mipmapped RGBA texture
func LoadTexture(path string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("could not open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return 0, fmt.Errorf("could not decode %s: %w", path, err)
	}
	return UploadTexture(ToRGBA(img))
}

// ToRGBA returns img as tightly packed RGBA, copying only when needed
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == rgba.Rect.Dx()*4 && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

func UploadTexture(rgba *image.RGBA) (uint32, error) {
	width := rgba.Rect.Dx()
	height := rgba.Rect.Dy()
	if width == 0 || height == 0 {
		return 0, fmt.Errorf("texture is empty")
	}

	var id uint32
	gl.GenTextures(1, &id)
	if id == 0 {
		return 0, fmt.Errorf("could not generate texture")
	}
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		gl.RGBA,
		int32(width),
		int32(height),
		0,
		gl.RGBA,
		gl.UNSIGNED_BYTE,
		gl.Ptr(rgba.Pix),
	)
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	TextureUploadCounter += uint64(len(rgba.Pix))
	return id, nil
}

// WhiteTexture is bound when a geometry has no texture of its own
func WhiteTexture() (uint32, error) {
	rgba := image.NewRGBA(image.Rect(0, 0, 1, 1))
	copy(rgba.Pix, []uint8{0xff, 0xff, 0xff, 0xff})
	return UploadTexture(rgba)
}

var TextureUploadCounter uint64
