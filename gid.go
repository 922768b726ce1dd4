package tilemap

import (
	"strings"
)

const (
	// Flip flags live in the top three bits of a 32 bit global tile id.
	// see doc.mapeditor.org/en/stable/reference/tmx-map-format/#tile-flipping
	FlippedHorizontallyFlag uint32 = 0x80000000
	FlippedVerticallyFlag   uint32 = 0x40000000
	FlippedDiagonallyFlag   uint32 = 0x20000000

	// FlipMask is all three orientation bits
	FlipMask = FlippedHorizontallyFlag | FlippedVerticallyFlag | FlippedDiagonallyFlag

	// MaxTileID is the largest tile id that doesn't overlap the flip bits
	MaxTileID uint32 = FlippedDiagonallyFlag - 1
)

// GID is a raw global tile id as found in TMX layer data, that is a tile id
// with (optionally) orientation flags set in the high bits.
// A GID of 0 (ignoring flags) is the nil tile.
type GID uint32

// Orientation of a placed tile.
type Orientation struct {
	FlippedHorizontally bool
	FlippedVertically   bool
	FlippedDiagonally   bool
}

// Orientations lists all eight possible orientations, unflipped first.
var Orientations = []Orientation{
	{},
	{FlippedHorizontally: true},
	{FlippedVertically: true},
	{FlippedHorizontally: true, FlippedVertically: true},
	{FlippedDiagonally: true},
	{FlippedHorizontally: true, FlippedDiagonally: true},
	{FlippedVertically: true, FlippedDiagonally: true},
	{FlippedHorizontally: true, FlippedVertically: true, FlippedDiagonally: true},
}

// NewGID packs a tile id & orientation into a single GID.
// The tile id is used as is; callers are expected to keep it <= MaxTileID.
func NewGID(tileID uint32, o Orientation) GID {
	gid := tileID
	if o.FlippedHorizontally {
		gid |= FlippedHorizontallyFlag
	}
	if o.FlippedVertically {
		gid |= FlippedVerticallyFlag
	}
	if o.FlippedDiagonally {
		gid |= FlippedDiagonallyFlag
	}
	return GID(gid)
}

// TileID returns the id with the orientation bits cleared
func (g GID) TileID() uint32 {
	return uint32(g) &^ FlipMask
}

// Orientation decodes the flip bits
func (g GID) Orientation() Orientation {
	return Orientation{
		FlippedHorizontally: uint32(g)&FlippedHorizontallyFlag != 0,
		FlippedVertically:   uint32(g)&FlippedVerticallyFlag != 0,
		FlippedDiagonally:   uint32(g)&FlippedDiagonallyFlag != 0,
	}
}

// IsEmpty returns if this is the nil tile
func (g GID) IsEmpty() bool {
	return g.TileID() == 0
}

// IsZero returns if no flips are set
func (o Orientation) IsZero() bool {
	return !o.FlippedHorizontally && !o.FlippedVertically && !o.FlippedDiagonally
}

// bits returns just the flag bits for this orientation
func (o Orientation) bits() uint32 {
	return uint32(NewGID(0, o))
}

func (o Orientation) String() string {
	if o.IsZero() {
		return "none"
	}
	parts := []string{}
	if o.FlippedHorizontally {
		parts = append(parts, "h")
	}
	if o.FlippedVertically {
		parts = append(parts, "v")
	}
	if o.FlippedDiagonally {
		parts = append(parts, "d")
	}
	return strings.Join(parts, "|")
}
