package tilemap

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

// numbered returns an image where pixel (x,y) has red = x*10 + y + 1
func numbered(w, h int) *image.RGBA {
	im := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			im.SetRGBA(x, y, color.RGBA{R: uint8(x*10 + y + 1), A: 0xff})
		}
	}
	return im
}

func red(im image.Image, x, y int) uint8 {
	return color.RGBAModel.Convert(im.At(x, y)).(color.RGBA).R
}

func TestTextureUnflipped(t *testing.T) {
	src := numbered(4, 4)
	tex := NewTexture(src, image.Rect(1, 1, 3, 4), Orientation{})

	assert.Equal(t, 2, tex.Width())
	assert.Equal(t, 3, tex.Height())
	assert.Equal(t, image.Rect(1, 1, 3, 4), tex.Frame())
	assert.Same(t, src, tex.Source())
	assert.Equal(t, image.Rect(0, 0, 2, 3), tex.Image().Bounds())

	assert.Equal(t, red(src, 1, 1), red(tex.Image(), 0, 0))
	assert.Equal(t, red(src, 2, 3), red(tex.Image(), 1, 2))
}

func TestTextureFlips(t *testing.T) {
	// a b c
	// d e f
	src := numbered(3, 2)
	frame := src.Bounds()

	h := NewTexture(src, frame, Orientation{FlippedHorizontally: true})
	assert.Equal(t, red(src, 2, 0), red(h.Image(), 0, 0))
	assert.Equal(t, red(src, 0, 1), red(h.Image(), 2, 1))

	v := NewTexture(src, frame, Orientation{FlippedVertically: true})
	assert.Equal(t, red(src, 0, 1), red(v.Image(), 0, 0))
	assert.Equal(t, red(src, 2, 0), red(v.Image(), 2, 1))

	d := NewTexture(src, frame, Orientation{FlippedDiagonally: true})
	assert.Equal(t, 2, d.Width())
	assert.Equal(t, 3, d.Height())
	assert.Equal(t, red(src, 0, 1), red(d.Image(), 1, 0))
	assert.Equal(t, red(src, 2, 0), red(d.Image(), 0, 2))
}

func TestTextureRotations(t *testing.T) {
	src := numbered(3, 2)
	frame := src.Bounds()

	// diagonal + horizontal is a clockwise quarter turn
	//   d a
	//   e b
	//   f c
	cw := NewTexture(src, frame, Orientation{FlippedDiagonally: true, FlippedHorizontally: true})
	assert.Equal(t, red(src, 0, 1), red(cw.Image(), 0, 0))
	assert.Equal(t, red(src, 0, 0), red(cw.Image(), 1, 0))
	assert.Equal(t, red(src, 2, 0), red(cw.Image(), 1, 2))

	// diagonal + vertical is anti-clockwise
	//   c f
	//   b e
	//   a d
	ccw := NewTexture(src, frame, Orientation{FlippedDiagonally: true, FlippedVertically: true})
	assert.Equal(t, red(src, 2, 0), red(ccw.Image(), 0, 0))
	assert.Equal(t, red(src, 0, 1), red(ccw.Image(), 1, 2))

	// horizontal + vertical is a half turn
	half := NewTexture(src, frame, Orientation{FlippedHorizontally: true, FlippedVertically: true})
	assert.Equal(t, red(src, 2, 1), red(half.Image(), 0, 0))
	assert.Equal(t, red(src, 0, 0), red(half.Image(), 2, 1))
}
