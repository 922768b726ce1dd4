package tilemap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"
	"go.uber.org/zap"
)

var (
	// ErrMissingTexture is returned in strict mode for tiles with no texture
	ErrMissingTexture = errors.New("no texture for tile")

	// ErrUnsupportedOrientation is returned for non orthogonal maps
	ErrUnsupportedOrientation = errors.New("unsupported map orientation")
)

// RenderOptions controls how a map is drawn
type RenderOptions struct {
	// canvas colour (#RRGGBB or #AARRGGBB), overrides the map's backgroundcolor
	Background string

	// output scale factor, 0 or 1 means no scaling
	Scale float64

	// fail on the first tile without a texture rather than skipping it
	Strict bool

	// only draw layers with these names (all if empty)
	Layers []string

	// loads image layer images, image layers are skipped if nil
	Images ImageLoader
}

// RenderStats reports what was drawn
type RenderStats struct {
	Layers  int
	Drawn   int
	Missing int
}

// Renderer draws maps using textures from a TileTextureCache.
type Renderer struct {
	cache *TileTextureCache
	opts  RenderOptions
	log   *zap.Logger
}

// NewRenderer returns a renderer reading textures from `cache`
func NewRenderer(cache *TileTextureCache, opts RenderOptions, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{cache: cache, opts: opts, log: log}
}

// Render draws the map into a new image.
//
// Image layers are drawn first, then tile layers in document order. Tiles
// are aligned to the bottom left of their cell, so tiles larger than the
// map grid stick out upwards like they do in Tiled.
func (r *Renderer) Render(m *Map) (image.Image, *RenderStats, error) {
	if m.Orientation != "" && m.Orientation != OrientationOrthogonal {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedOrientation, m.Orientation)
	}

	width := m.Width * m.TileWidth
	height := m.Height * m.TileHeight
	if width <= 0 || height <= 0 {
		return nil, nil, fmt.Errorf("map has no area (%dx%d px)", width, height)
	}

	dc := gg.NewContext(width, height)

	bg := r.opts.Background
	if bg == "" {
		bg = m.BackgroundColor
	}
	if bg != "" {
		c, err := ParseColor(bg)
		if err != nil {
			return nil, nil, err
		}
		dc.SetColor(c)
		dc.Clear()
	}

	stats := &RenderStats{}
	wanted := map[string]bool{}
	for _, name := range r.opts.Layers {
		wanted[name] = true
	}
	include := func(name string, visible bool) bool {
		if !visible {
			return false
		}
		return len(wanted) == 0 || wanted[name]
	}

	if r.opts.Images != nil {
		for _, il := range m.ImageLayers {
			if !include(il.Name, il.IsVisible()) || il.Image == nil || il.Image.Source == "" {
				continue
			}
			im, err := r.opts.Images.Load(il.Image.Source)
			if err != nil {
				return nil, nil, fmt.Errorf("image layer %q: %w", il.Name, err)
			}

			layer := dc
			if il.LayerOpacity() < 1 {
				layer = gg.NewContext(width, height)
			}
			layer.DrawImage(im, int(il.OffsetX), int(il.OffsetY))
			if layer != dc {
				composite(dc, layer, il.LayerOpacity())
			}
			stats.Layers++
		}
	}

	for _, tl := range m.TileLayers {
		if !include(tl.Name, tl.IsVisible()) {
			continue
		}

		layer := dc
		if tl.LayerOpacity() < 1 {
			layer = gg.NewContext(width, height)
		}
		if err := r.drawTiles(layer, m, tl, stats); err != nil {
			return nil, stats, err
		}
		if layer != dc {
			composite(dc, layer, tl.LayerOpacity())
		}
		stats.Layers++
	}

	if stats.Missing > 0 {
		r.log.Warn("tiles without texture", zap.Int("missing", stats.Missing))
	}

	var out image.Image = dc.Image()
	if r.opts.Scale > 0 && r.opts.Scale != 1 {
		out = resize.Resize(
			uint(float64(width)*r.opts.Scale),
			uint(float64(height)*r.opts.Scale),
			out,
			resize.Lanczos3,
		)
	}

	return out, stats, nil
}

// drawTiles draws every non empty cell of a tile layer
func (r *Renderer) drawTiles(dc *gg.Context, m *Map, tl *TileLayer, stats *RenderStats) error {
	for index, gid := range tl.decodedTiles {
		if gid.IsEmpty() {
			continue
		}

		// the reverse of index = y * width + x
		tx := index % m.Width
		ty := index / m.Width

		o := gid.Orientation()
		tex, ok := r.cache.FindTileTexture(gid.TileID(), o.FlippedHorizontally, o.FlippedVertically, o.FlippedDiagonally)
		if !ok {
			stats.Missing++
			if r.opts.Strict {
				return fmt.Errorf("%w: gid %d (%s) at (%d,%d) on layer %q",
					ErrMissingTexture, gid.TileID(), o, tx, ty, tl.Name)
			}
			r.log.Debug("missing texture",
				zap.Uint32("tile", gid.TileID()),
				zap.Stringer("orientation", o),
				zap.String("layer", tl.Name),
				zap.Int("x", tx),
				zap.Int("y", ty),
			)
			continue
		}

		px := tx*m.TileWidth + int(tl.OffsetX)
		py := (ty+1)*m.TileHeight - tex.Height() + int(tl.OffsetY)
		dc.DrawImage(tex.Image(), px, py)
		stats.Drawn++
	}
	return nil
}

// composite draws `layer` over `dst` at the given opacity
func composite(dst, layer *gg.Context, opacity float64) {
	if opacity <= 0 {
		return
	}
	out, ok := dst.Image().(draw.Image)
	if !ok {
		return
	}
	mask := image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})
	draw.DrawMask(out, out.Bounds(), layer.Image(), image.Point{}, mask, image.Point{}, draw.Over)
}

// ParseColor reads a Tiled colour, #RRGGBB or #AARRGGBB (the '#' is optional).
func ParseColor(s string) (color.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return nil, fmt.Errorf("invalid colour %q", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid colour %q: %w", s, err)
	}

	a := uint8(0xff)
	if len(hex) == 8 {
		a = uint8(v >> 24)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: a}, nil
}
