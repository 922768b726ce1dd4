package tilemap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestInfinite(t *testing.T) *InfiniteMap {
	inf, err := OpenInfiniteMap(filepath.Join(t.TempDir(), "inf.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { inf.Close() })
	return inf
}

func TestInfiniteSetAt(t *testing.T) {
	inf := openTestInfinite(t)

	flipped := Orientation{FlippedVertically: true, FlippedDiagonally: true}
	require.NoError(t, inf.Set(100, -20, 0, "grass.png"))
	require.NoError(t, inf.SetOriented(101, -20, 0, "grass.png", flipped))

	src, o, err := inf.At(100, -20, 0)
	require.NoError(t, err)
	assert.Equal(t, "grass.png", src)
	assert.True(t, o.IsZero())

	src, o, err = inf.At(101, -20, 0)
	require.NoError(t, err)
	assert.Equal(t, "grass.png", src)
	assert.Equal(t, flipped, o)

	require.NoError(t, inf.Set(100, -20, 0, ""))
	src, _, err = inf.At(100, -20, 0)
	require.NoError(t, err)
	assert.Equal(t, "", src)
}

func TestInfiniteAddFits(t *testing.T) {
	inf := openTestInfinite(t)
	o := tree(t)

	fits, err := inf.Fits(10, 10, 0, o)
	require.NoError(t, err)
	assert.True(t, fits)

	require.NoError(t, inf.Add(10, 10, 0, o))

	fits, err = inf.Fits(10, 10, 0, o)
	require.NoError(t, err)
	assert.False(t, fits)

	fits, err = inf.Fits(12, 10, 0, o)
	require.NoError(t, err)
	assert.True(t, fits)

	src, orient, err := inf.At(10, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, "leaves.png", src)
	assert.True(t, orient.FlippedHorizontally)

	props, err := inf.Properties("trunk.png")
	require.NoError(t, err)
	solid, ok := props.Bool("solid")
	assert.True(t, ok)
	assert.True(t, solid)

	// merged with what's already saved
	extra := NewProperties()
	extra.SetInt("hp", 4)
	require.NoError(t, inf.SetProperties("trunk.png", extra))
	require.NoError(t, inf.Add(20, 20, 0, o))

	props, err = inf.Properties("trunk.png")
	require.NoError(t, err)
	hp, _ := props.Int("hp")
	assert.Equal(t, 4, hp)
	_, ok = props.Bool("solid")
	assert.True(t, ok)
}

func TestInfiniteAddOnTop(t *testing.T) {
	inf := openTestInfinite(t)
	o := tree(t)

	require.NoError(t, inf.Set(5, 5, 0, "grass.png"))
	require.NoError(t, inf.Set(5, 5, 2, "flower.png"))

	fits, err := inf.Fits(5, 5, -1, o)
	require.NoError(t, err)
	assert.True(t, fits)

	require.NoError(t, inf.Add(5, 5, -1, o))

	src, _, err := inf.At(5, 6, 3)
	require.NoError(t, err)
	assert.Equal(t, "trunk.png", src)

	src, orient, err := inf.At(5, 5, 4)
	require.NoError(t, err)
	assert.Equal(t, "leaves.png", src)
	assert.True(t, orient.FlippedHorizontally)

	src, _, err = inf.At(5, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, "flower.png", src, "nothing underneath is overwritten")

	// an empty column starts at the ground
	require.NoError(t, inf.Add(20, 20, -1, o))
	src, _, err = inf.At(20, 21, 0)
	require.NoError(t, err)
	assert.Equal(t, "trunk.png", src)
}

func TestInfiniteProperties(t *testing.T) {
	inf := openTestInfinite(t)

	props, err := inf.Properties("")
	require.NoError(t, err)
	assert.Nil(t, props)

	props, err = inf.Properties("unknown.png")
	require.NoError(t, err)
	assert.Empty(t, props.Keys())

	in := NewProperties()
	in.SetFloat("friction", 0.5)
	require.NoError(t, inf.SetProperties("ice.png", in))

	props, err = inf.Properties("ice.png")
	require.NoError(t, err)
	f, _ := props.Float("friction")
	assert.Equal(t, 0.5, f)
}

func TestInfiniteMapRegion(t *testing.T) {
	inf := openTestInfinite(t)
	require.NoError(t, inf.Add(10, 10, 0, tree(t)))
	require.NoError(t, inf.Set(50, 50, 0, "far.png"))

	m, err := inf.Map(8, 8, 10, 10, 13, 13)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Width)
	assert.Equal(t, 3, m.Height)

	assert.Equal(t, "trunk.png", m.Source(m.TileAt(0, 1, 0)))
	assert.Equal(t, Orientation{FlippedHorizontally: true}, m.TileAt(0, 0, 1).Orientation())
	assert.Nil(t, m.Properties("far.png"))

	solid, _ := m.At(0, 1, 0).Bool("solid")
	assert.True(t, solid)

	_, err = inf.Map(8, 8, 5, 5, 5, 6)
	assert.Error(t, err)
}

func TestNewInfiniteMap(t *testing.T) {
	inf, err := NewInfiniteMap()
	require.NoError(t, err)
	defer os.Remove(inf.Filename())
	defer inf.Close()

	assert.FileExists(t, inf.Filename())
	require.NoError(t, inf.Set(0, 0, 0, "a.png"))
}
