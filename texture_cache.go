package tilemap

import (
	"errors"
	"fmt"
)

// ErrTileIDOutOfRange is returned for tile ids that overlap the flip bits.
var ErrTileIDOutOfRange = errors.New("tile id overlaps reserved orientation bits")

// TileTextureCache maps a tile id + orientation to the texture used to draw it.
//
// It's filled once by ParseAtlas and read while rendering. There is no eviction;
// entries live as long as the cache. The cache holds textures by reference and
// never disposes them.
//
// A cache is not safe for concurrent writes, give each render pipeline its own.
type TileTextureCache struct {
	textures map[GID]*Texture
}

// NewTileTextureCache returns an empty cache
func NewTileTextureCache() *TileTextureCache {
	return &TileTextureCache{textures: map[GID]*Texture{}}
}

// SetTexture registers the texture for the given tile id & orientation,
// replacing anything already set for the same combination.
func (c *TileTextureCache) SetTexture(tileID uint32, flippedHorizontally, flippedVertically, flippedDiagonally bool, texture *Texture) error {
	if tileID > MaxTileID {
		return fmt.Errorf("%w: %d", ErrTileIDOutOfRange, tileID)
	}
	c.textures[globalID(tileID, flippedHorizontally, flippedVertically, flippedDiagonally)] = texture
	return nil
}

// FindTileTexture returns the texture to use for the tile with the given id &
// orientation (see doc.mapeditor.org/en/stable/reference/tmx-map-format/).
// If nothing is registered (nil, false) is returned.
func (c *TileTextureCache) FindTileTexture(tileID uint32, flippedHorizontally, flippedVertically, flippedDiagonally bool) (*Texture, bool) {
	if tileID > MaxTileID {
		return nil, false
	}
	t, ok := c.textures[globalID(tileID, flippedHorizontally, flippedVertically, flippedDiagonally)]
	return t, ok
}

// Len returns the number of registered textures
func (c *TileTextureCache) Len() int {
	return len(c.textures)
}

// globalID is the one place the cache key is built, for both reads & writes.
func globalID(tileID uint32, flippedHorizontally, flippedVertically, flippedDiagonally bool) GID {
	return NewGID(tileID, Orientation{
		FlippedHorizontally: flippedHorizontally,
		FlippedVertically:   flippedVertically,
		FlippedDiagonally:   flippedDiagonally,
	})
}
