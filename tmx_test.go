package tilemap

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMapHeader = `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" tiledversion="1.10.2" orientation="orthogonal" renderorder="right-down" width="4" height="3" tilewidth="8" tileheight="8" infinite="0" backgroundcolor="#102030">
 <properties>
  <property name="title" value="test"/>
  <property name="level" type="int" value="3"/>
 </properties>
 <tileset firstgid="1" name="sheet" tilewidth="8" tileheight="8" tilecount="4" columns="2">
  <image source="sheet.png" width="16" height="16"/>
 </tileset>
 <tileset firstgid="5" name="things" tilewidth="8" tileheight="16" tilecount="2" columns="0">
  <tile id="0">
   <properties>
    <property name="solid" type="bool" value="true"/>
   </properties>
   <image source="rock.png" width="8" height="8"/>
  </tile>
  <tile id="1">
   <image source="tree.png" width="8" height="16"/>
  </tile>
 </tileset>
`

const testMapCSV = testMapHeader + ` <layer id="1" name="ground" width="4" height="3">
  <data encoding="csv">
1,2147483649,0,5,
0,0,3221225474,0,
3,0,0,536870917
</data>
 </layer>
 <layer id="2" name="hidden" width="4" height="3" visible="0" opacity="0.5">
  <data encoding="csv">
0,0,0,0,
0,0,0,0,
0,0,0,6
</data>
 </layer>
</map>
`

var testMapGIDs = []GID{
	1, 0x80000001, 0, 5,
	0, 0, 0xC0000002, 0,
	3, 0, 0, 0x20000005,
}

// base64Map returns the test map with the ground layer base64 encoded
func base64Map(t *testing.T, compression string) string {
	raw := new(bytes.Buffer)
	for _, gid := range testMapGIDs {
		require.NoError(t, binary.Write(raw, binary.LittleEndian, uint32(gid)))
	}

	data := raw.Bytes()
	switch compression {
	case CompressionZlib:
		buf := new(bytes.Buffer)
		w := zlib.NewWriter(buf)
		_, err := w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		data = buf.Bytes()
	case CompressionGzip:
		buf := new(bytes.Buffer)
		w := gzip.NewWriter(buf)
		_, err := w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		data = buf.Bytes()
	}

	return testMapHeader + fmt.Sprintf(` <layer id="1" name="ground" width="4" height="3">
  <data encoding="base64" compression=%q>
   %s
  </data>
 </layer>
</map>
`, compression, base64.StdEncoding.EncodeToString(data))
}

func TestDecode(t *testing.T) {
	m, err := Decode(strings.NewReader(testMapCSV))
	require.NoError(t, err)

	assert.Equal(t, 4, m.Width)
	assert.Equal(t, 3, m.Height)
	assert.Equal(t, 8, m.TileWidth)
	assert.Equal(t, 8, m.TileHeight)
	assert.Equal(t, "#102030", m.BackgroundColor)
	assert.Len(t, m.Tilesets, 2)
	assert.Len(t, m.TileLayers, 2)
	assert.Equal(t, testMapGIDs, m.TileLayers[0].GIDs())

	props := m.MapProperties()
	title, _ := props.String("title")
	level, _ := props.Int("level")
	assert.Equal(t, "test", title)
	assert.Equal(t, 3, level)
}

func TestDecodeLayerAttributes(t *testing.T) {
	m, err := Decode(strings.NewReader(testMapCSV))
	require.NoError(t, err)

	ground, hidden := m.TileLayers[0], m.TileLayers[1]
	assert.True(t, ground.IsVisible())
	assert.Equal(t, 1.0, ground.LayerOpacity())
	assert.False(t, hidden.IsVisible())
	assert.Equal(t, 0.5, hidden.LayerOpacity())
}

func TestDecodeBase64(t *testing.T) {
	for _, compression := range []string{"", CompressionZlib, CompressionGzip} {
		m, err := Decode(strings.NewReader(base64Map(t, compression)))
		require.NoError(t, err, compression)
		assert.Equal(t, testMapGIDs, m.TileLayers[0].GIDs(), compression)
	}
}

func TestDecodeTilesets(t *testing.T) {
	m, err := Decode(strings.NewReader(testMapCSV))
	require.NoError(t, err)

	sheet, things := m.Tilesets[0], m.Tilesets[1]
	assert.True(t, sheet.IsSpritesheet())
	assert.False(t, things.IsSpritesheet())
	assert.Equal(t, uint32(4), sheet.Size())
	assert.Equal(t, uint32(2), things.Size())

	assert.Same(t, sheet, m.TilesetFor(4))
	assert.Same(t, things, m.TilesetFor(5))
	assert.Same(t, things, m.TilesetFor(0x20000005))
	assert.Nil(t, m.TilesetFor(0))

	assert.Equal(t, "rock.png", m.Source(5))
	assert.Equal(t, "tree.png", m.Source(0x80000006))
	assert.Equal(t, "", m.Source(2))

	// layers aren't named after z-levels
	assert.Nil(t, m.At(3, 0, 0))
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]struct {
		in  string
		err error
	}{
		"external tileset": {
			in:  `<map width="1" height="1" tilewidth="8" tileheight="8"><tileset firstgid="1" source="x.tsx"/></map>`,
			err: ErrExternalTileset,
		},
		"infinite": {
			in:  `<map width="1" height="1" tilewidth="8" tileheight="8" infinite="1"></map>`,
			err: ErrInfiniteMap,
		},
		"xml tile data": {
			in:  `<map width="1" height="1" tilewidth="8" tileheight="8"><layer name="a"><data><tile gid="1"/></data></layer></map>`,
			err: ErrUnsupportedEncoding,
		},
		"zstd": {
			in:  `<map width="1" height="1" tilewidth="8" tileheight="8"><layer name="a"><data encoding="base64" compression="zstd">AAAAAA==</data></layer></map>`,
			err: ErrUnsupportedEncoding,
		},
	}

	for name, tc := range cases {
		_, err := Decode(strings.NewReader(tc.in))
		assert.ErrorIs(t, err, tc.err, name)
	}

	_, err := Decode(strings.NewReader(`<map width="2" height="2" tilewidth="8" tileheight="8"><layer name="a"><data encoding="csv">1,2,3</data></layer></map>`))
	assert.Error(t, err)
}

func TestEncodeKeepsOrientation(t *testing.T) {
	m, err := Decode(strings.NewReader(testMapCSV))
	require.NoError(t, err)

	buf := bytes.Buffer{}
	require.NoError(t, m.Encode(&buf))
	assert.Contains(t, buf.String(), "2147483649")

	again, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, testMapGIDs, again.TileLayers[0].GIDs())
	assert.Equal(t, "#102030", again.BackgroundColor)
	assert.False(t, again.TileLayers[1].IsVisible())
	assert.Equal(t, "rock.png", again.Source(5))
}

func TestUsedGIDs(t *testing.T) {
	m, err := Decode(strings.NewReader(testMapCSV))
	require.NoError(t, err)

	used := m.UsedGIDs()
	assert.Equal(t, []uint32{1, 3, 5, 6, 0x20000005, 0x80000001, 0xC0000002}, used.ToArray())
}
