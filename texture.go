package tilemap

import (
	"image"
	"image/draw"
)

// Texture is a handle to a (possibly flipped) region of some source image.
//
// A Texture references its source but never owns it; whoever loaded the atlas
// image is responsible for it. The oriented pixels are built once on creation
// so Image() is cheap to call while rendering.
type Texture struct {
	source      image.Image
	frame       image.Rectangle
	orientation Orientation
	img         *image.RGBA
}

// NewTexture cuts `frame` out of `src` and applies the given orientation.
// Following Tiled the diagonal flip (x/y swap) is applied first, then the
// horizontal flip then the vertical flip.
func NewTexture(src image.Image, frame image.Rectangle, o Orientation) *Texture {
	frame = frame.Intersect(src.Bounds())
	return &Texture{
		source:      src,
		frame:       frame,
		orientation: o,
		img:         orient(src, frame, o),
	}
}

// Source image this texture was cut from
func (t *Texture) Source() image.Image {
	return t.source
}

// Frame is the region of the source image
func (t *Texture) Frame() image.Rectangle {
	return t.frame
}

// Orientation the texture was built for
func (t *Texture) Orientation() Orientation {
	return t.orientation
}

// Image returns the oriented pixels, with bounds starting at (0,0).
func (t *Texture) Image() image.Image {
	return t.img
}

// Width in pixels after orientation
func (t *Texture) Width() int {
	return t.img.Bounds().Dx()
}

// Height in pixels after orientation
func (t *Texture) Height() int {
	return t.img.Bounds().Dy()
}

// orient copies `frame` from `src` into a new image, flipped as requested.
func orient(src image.Image, frame image.Rectangle, o Orientation) *image.RGBA {
	w, h := frame.Dx(), frame.Dy()
	if o.FlippedDiagonally {
		w, h = h, w
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))

	if o.IsZero() {
		draw.Draw(out, out.Bounds(), src, frame.Min, draw.Src)
		return out
	}

	for oy := 0; oy < h; oy++ {
		for ox := 0; ox < w; ox++ {
			// walk the flips backwards to find the source pixel
			x, y := ox, oy
			if o.FlippedVertically {
				y = h - 1 - y
			}
			if o.FlippedHorizontally {
				x = w - 1 - x
			}
			if o.FlippedDiagonally {
				x, y = y, x
			}
			out.Set(ox, oy, src.At(frame.Min.X+x, frame.Min.Y+y))
		}
	}

	return out
}
