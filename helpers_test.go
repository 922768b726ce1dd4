package tilemap

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
)

var (
	colRed   = color.RGBA{R: 0xff, A: 0xff}
	colGreen = color.RGBA{G: 0xff, A: 0xff}
	colBlue  = color.RGBA{B: 0xff, A: 0xff}
	colWhite = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colBlack = color.RGBA{A: 0xff}
)

// memLoader serves images from memory & counts loads
type memLoader struct {
	lock   sync.Mutex
	images map[string]image.Image
	loads  map[string]int
}

func newMemLoader(images map[string]image.Image) *memLoader {
	return &memLoader{images: images, loads: map[string]int{}}
}

func (l *memLoader) Load(source string) (image.Image, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.loads[source]++
	im, ok := l.images[source]
	if !ok {
		return nil, fmt.Errorf("no such image %s", source)
	}
	return im, nil
}

// fill paints the rectangle `r` of `im`
func fill(im draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(im, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// solid returns a w x h image of one colour
func solid(w, h int, c color.Color) *image.RGBA {
	im := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(im, im.Bounds(), c)
	return im
}

// quadrants returns a 16x16 sheet of four 8x8 tiles: red, green / blue, white
func quadrants() *image.RGBA {
	im := image.NewRGBA(image.Rect(0, 0, 16, 16))
	fill(im, image.Rect(0, 0, 8, 8), colRed)
	fill(im, image.Rect(8, 0, 16, 8), colGreen)
	fill(im, image.Rect(0, 8, 8, 16), colBlue)
	fill(im, image.Rect(8, 8, 16, 16), colWhite)
	return im
}

// testAssets are the images testMapCSV refers to
func testAssets() *memLoader {
	return newMemLoader(map[string]image.Image{
		"sheet.png": quadrants(),
		"rock.png":  solid(8, 8, colBlack),
		"tree.png":  solid(8, 16, colGreen),
	})
}

func rgba(im image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(im.At(x, y)).(color.RGBA)
}
