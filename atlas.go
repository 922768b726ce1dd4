package tilemap

import (
	"errors"
	"fmt"
	"image"
	"runtime"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// ErrAtlasBounds is returned when a tileset image is too small for the tiles
// it claims to hold.
var ErrAtlasBounds = errors.New("tile frame outside of atlas image")

// AtlasOption configures ParseAtlas
type AtlasOption func(*atlasConfig)

type atlasConfig struct {
	workers         int
	allOrientations bool
	log             *zap.Logger
}

// WithWorkers sets how many goroutines build textures
func WithWorkers(n int) AtlasOption {
	return func(c *atlasConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithAllOrientations builds all 8 orientations of every tile rather than
// only those placed on the map.
func WithAllOrientations() AtlasOption {
	return func(c *atlasConfig) {
		c.allOrientations = true
	}
}

// WithLogger sets where ParseAtlas logs to
func WithLogger(log *zap.Logger) AtlasOption {
	return func(c *atlasConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// frameJob is one texture to cut from an atlas
type frameJob struct {
	gid     GID
	tileset string
	src     image.Image
	frame   image.Rectangle
}

// ParseAtlas loads the images of every tileset in `m` and returns a cache
// holding a texture per tile, keyed by global tile id.
//
// The unflipped texture of every tile is always registered. Flipped variants
// are built for the orientations the map actually uses (or all of them, see
// WithAllOrientations).
func ParseAtlas(m *Map, loader ImageLoader, opts ...AtlasOption) (*TileTextureCache, error) {
	cfg := &atlasConfig{workers: runtime.NumCPU(), log: zap.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}

	// tile id -> flipped orientations placed on the map
	flipped := map[uint32][]Orientation{}
	if !cfg.allOrientations {
		it := m.UsedGIDs().Iterator()
		for it.HasNext() {
			gid := GID(it.Next())
			if o := gid.Orientation(); !o.IsZero() {
				flipped[gid.TileID()] = append(flipped[gid.TileID()], o)
			}
		}
	}

	jobs := []frameJob{}
	for _, ts := range m.Tilesets {
		frames, err := tilesetFrames(ts, loader)
		if err != nil {
			return nil, err
		}

		for _, f := range frames {
			variants := []Orientation{{}}
			if cfg.allOrientations {
				variants = Orientations
			} else {
				variants = append(variants, flipped[f.gid.TileID()]...)
			}
			for _, o := range variants {
				jobs = append(jobs, frameJob{
					gid:     NewGID(f.gid.TileID(), o),
					tileset: f.tileset,
					src:     f.src,
					frame:   f.frame,
				})
			}
		}

		cfg.log.Debug("tileset frames",
			zap.String("tileset", ts.Name),
			zap.Uint32("firstgid", ts.FirstGID),
			zap.Int("tiles", len(frames)),
			zap.Bool("spritesheet", ts.IsSpritesheet()),
		)
	}

	type built struct {
		gid GID
		tex *Texture
	}

	p := pool.NewWithResults[built]().WithErrors().WithMaxGoroutines(cfg.workers)
	for _, job := range jobs {
		job := job
		p.Go(func() (built, error) {
			if !job.frame.In(job.src.Bounds()) {
				return built{}, fmt.Errorf("%w: tileset %q tile %d frame %v, image %v",
					ErrAtlasBounds, job.tileset, job.gid.TileID(), job.frame, job.src.Bounds())
			}
			return built{gid: job.gid, tex: NewTexture(job.src, job.frame, job.gid.Orientation())}, nil
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	cache := NewTileTextureCache()
	for _, b := range results {
		o := b.gid.Orientation()
		err = cache.SetTexture(b.gid.TileID(), o.FlippedHorizontally, o.FlippedVertically, o.FlippedDiagonally, b.tex)
		if err != nil {
			return nil, err
		}
	}

	cfg.log.Debug("atlas parsed", zap.Int("textures", cache.Len()), zap.Int("tilesets", len(m.Tilesets)))
	return cache, nil
}

// tilesetFrames returns the unflipped frame of every tile in a tileset
func tilesetFrames(ts *Tileset, loader ImageLoader) ([]frameJob, error) {
	if ts.IsSpritesheet() {
		return spritesheetFrames(ts, loader)
	}

	frames := []frameJob{}
	for _, t := range ts.Tiles {
		if t.Image == nil || t.Image.Source == "" {
			continue
		}
		im, err := loader.Load(t.Image.Source)
		if err != nil {
			return nil, fmt.Errorf("tileset %q tile %d: loading %s: %w", ts.Name, t.ID, t.Image.Source, err)
		}
		frames = append(frames, frameJob{
			gid:     GID(ts.FirstGID + t.ID),
			tileset: ts.Name,
			src:     im,
			frame:   im.Bounds(),
		})
	}
	return frames, nil
}

// spritesheetFrames cuts the tileset image on it's grid
func spritesheetFrames(ts *Tileset, loader ImageLoader) ([]frameJob, error) {
	im, err := loader.Load(ts.Image.Source)
	if err != nil {
		return nil, fmt.Errorf("tileset %q: loading %s: %w", ts.Name, ts.Image.Source, err)
	}

	b := im.Bounds()
	cols, rows := ts.Grid(b.Dx(), b.Dy())
	if cols < 1 {
		return nil, fmt.Errorf("%w: tileset %q image %v fits no %dx%d tiles", ErrAtlasBounds, ts.Name, b, ts.TileWidth, ts.TileHeight)
	}

	count := ts.TileCount
	if count <= 0 {
		count = cols * rows
	}

	frames := make([]frameJob, 0, count)
	for i := 0; i < count; i++ {
		col := i % cols
		row := i / cols
		x := b.Min.X + ts.Margin + col*(ts.TileWidth+ts.Spacing)
		y := b.Min.Y + ts.Margin + row*(ts.TileHeight+ts.Spacing)

		frames = append(frames, frameJob{
			gid:     GID(ts.FirstGID + uint32(i)),
			tileset: ts.Name,
			src:     im,
			frame:   image.Rect(x, y, x+ts.TileWidth, y+ts.TileHeight),
		})
	}
	return frames, nil
}
