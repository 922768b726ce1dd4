package tilemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGIDRoundTrip(t *testing.T) {
	for _, id := range []uint32{0, 1, 42, MaxTileID} {
		for _, o := range Orientations {
			gid := NewGID(id, o)
			assert.Equal(t, id, gid.TileID())
			assert.Equal(t, o, gid.Orientation())
		}
	}
}

func TestGIDBits(t *testing.T) {
	assert.Equal(t, GID(0x80000005), NewGID(5, Orientation{FlippedHorizontally: true}))
	assert.Equal(t, GID(0x40000005), NewGID(5, Orientation{FlippedVertically: true}))
	assert.Equal(t, GID(0x20000005), NewGID(5, Orientation{FlippedDiagonally: true}))
	assert.Equal(t, GID(0xe0000005), NewGID(5, Orientations[7]))
	assert.Equal(t, uint32(0x1fffffff), MaxTileID)
}

func TestGIDEmpty(t *testing.T) {
	assert.True(t, GID(0).IsEmpty())
	assert.True(t, GID(FlippedHorizontallyFlag).IsEmpty())
	assert.False(t, GID(1).IsEmpty())
}

func TestOrientationsDistinct(t *testing.T) {
	seen := map[uint32]bool{}
	for _, o := range Orientations {
		assert.False(t, seen[o.bits()], o.String())
		seen[o.bits()] = true
	}
	assert.Len(t, seen, 8)
	assert.True(t, Orientations[0].IsZero())
}

func TestOrientationString(t *testing.T) {
	assert.Equal(t, "none", Orientation{}.String())
	assert.Equal(t, "h|d", Orientation{FlippedHorizontally: true, FlippedDiagonally: true}.String())
}
