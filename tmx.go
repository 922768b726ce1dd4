/* this file is a simplified set of structs for reading & writing TMX files.

The struct layout started life as github.com/bcvery1/tilepix (all credit to
authors) and has since grown the bits we need for rendering: multiple
tilesets, spritesheet tilesets, layer visibility / opacity / offsets and
base64 (+ zlib / gzip) layer data.

Layer data is kept as raw GIDs, orientation bits included.
*/
package tilemap

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	// Layer data encodings
	EncodingCSV    = "csv"
	EncodingBase64 = "base64"

	// Compression of base64 layer data
	CompressionZlib = "zlib"
	CompressionGzip = "gzip"

	// OrientationOrthogonal is the only map orientation we render
	OrientationOrthogonal = "orthogonal"
)

var (
	// ErrExternalTileset is returned for tilesets stored in their own .tsx file
	ErrExternalTileset = errors.New("external tilesets are not supported")

	// ErrInfiniteMap is returned for maps stored as chunks
	ErrInfiniteMap = errors.New("infinite (chunked) tmx maps are not supported")

	// ErrUnsupportedEncoding is returned for layer data we can't decode
	ErrUnsupportedEncoding = errors.New("unsupported layer data encoding")

	// ErrUnknownTilesetSize is returned when adding tiles to a map with a
	// spritesheet that has neither a tilecount nor an image size
	ErrUnknownTilesetSize = errors.New("spritesheet tileset size unknown")

	// ErrGIDInUse is returned when a new tile would reuse another tileset's gid
	ErrGIDInUse = errors.New("gid already used by another tileset")
)

// Map is a TMX file structure representing the map as a whole.
// We support only a subset of TMX (read: the bits that we actually use).
// - tilesets must be embedded (no external .tsx files)
// - layer data is CSV or base64 (optionally zlib / gzip compressed), we always write CSV
// - we only render the 'orthogonal' orientation
type Map struct {
	XMLName         xml.Name      `xml:"map"`
	Version         string        `xml:"version,attr,omitempty"`
	TiledVersion    string        `xml:"tiledversion,attr,omitempty"`
	Orientation     string        `xml:"orientation,attr"`
	RenderOrder     string        `xml:"renderorder,attr,omitempty"`
	Width           int           `xml:"width,attr"`      // in tiles
	Height          int           `xml:"height,attr"`     // in tiles
	TileWidth       int           `xml:"tilewidth,attr"`  // in pixels
	TileHeight      int           `xml:"tileheight,attr"` // in pixels
	Infinite        int           `xml:"infinite,attr,omitempty"`
	BackgroundColor string        `xml:"backgroundcolor,attr,omitempty"`
	RootProperties  []*Property   `xml:"properties>property"`
	Tilesets        []*Tileset    `xml:"tileset"`
	ImageLayers     []*ImageLayer `xml:"imagelayer"`
	TileLayers      []*TileLayer  `xml:"layer"`
}

// ImageLayer is a TMX file structure which references an image layer, with associated properties.
type ImageLayer struct {
	ID      uint     `xml:"id,attr"`
	Name    string   `xml:"name,attr"`
	Visible *int     `xml:"visible,attr,omitempty"`
	Opacity *float64 `xml:"opacity,attr,omitempty"`
	OffsetX float64  `xml:"offsetx,attr,omitempty"`
	OffsetY float64  `xml:"offsety,attr,omitempty"`
	Image   *Image   `xml:"image"`
}

// Tileset is a TMX file structure which represents a Tiled Tileset.
//
// A tileset is either a spritesheet (Image is set, tiles are cut from it on
// a grid) or a collection (each Tile carries its own Image).
type Tileset struct {
	FirstGID   uint32      `xml:"firstgid,attr"`
	Source     string      `xml:"source,attr,omitempty"`
	Name       string      `xml:"name,attr"`
	TileWidth  int         `xml:"tilewidth,attr"`
	TileHeight int         `xml:"tileheight,attr"`
	Spacing    int         `xml:"spacing,attr,omitempty"`
	Margin     int         `xml:"margin,attr,omitempty"`
	TileCount  int         `xml:"tilecount,attr,omitempty"`
	Columns    int         `xml:"columns,attr,omitempty"`
	Properties []*Property `xml:"properties>property"`
	Image      *Image      `xml:"image"`
	Tiles      []*Tile     `xml:"tile"`

	// by local tile id & by image source
	tileByID  map[uint32]*Tile
	tileBySrc map[string]*Tile
}

// Property is a TMX file structure which holds a Tiled property.
type Property struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
	Type  string `xml:"type,attr,omitempty"` // string (default), int, bool, float + other (we don't use)
}

// Image is an image file in TMX
type Image struct {
	Source string `xml:"source,attr"`
	Width  int    `xml:"width,attr,omitempty"`
	Height int    `xml:"height,attr,omitempty"`
}

// Tile is a TMX tile (from a tileset). The ID is local to the tileset.
type Tile struct {
	ID         uint32      `xml:"id,attr"`
	Properties []*Property `xml:"properties>property"`
	Image      *Image      `xml:"image"`
}

// TileLayer is a TMX file structure holding a grid of GIDs.
type TileLayer struct {
	ID           uint        `xml:"id,attr"`
	Name         string      `xml:"name,attr"`
	Width        int         `xml:"width,attr"`
	Height       int         `xml:"height,attr"`
	Visible      *int        `xml:"visible,attr,omitempty"`
	Opacity      *float64    `xml:"opacity,attr,omitempty"`
	OffsetX      float64     `xml:"offsetx,attr,omitempty"`
	OffsetY      float64     `xml:"offsety,attr,omitempty"`
	Properties   []*Property `xml:"properties>property"`
	Data         Data        `xml:"data"`
	decodedTiles []GID
}

// Data is a TMX file structure holding data.
type Data struct {
	Encoding    string `xml:"encoding,attr,omitempty"`
	Compression string `xml:"compression,attr,omitempty"`
	RawData     []byte `xml:",innerxml"`
}

// IsVisible returns if the layer should be drawn (TMX default: visible)
func (l *TileLayer) IsVisible() bool {
	return l.Visible == nil || *l.Visible != 0
}

// LayerOpacity returns the layer opacity in [0, 1] (TMX default: 1)
func (l *TileLayer) LayerOpacity() float64 {
	return clampOpacity(l.Opacity)
}

// GIDs returns the decoded tile data, one GID per cell in row major order
func (l *TileLayer) GIDs() []GID {
	return l.decodedTiles
}

// IsVisible returns if the layer should be drawn (TMX default: visible)
func (l *ImageLayer) IsVisible() bool {
	return l.Visible == nil || *l.Visible != 0
}

// LayerOpacity returns the layer opacity in [0, 1] (TMX default: 1)
func (l *ImageLayer) LayerOpacity() float64 {
	return clampOpacity(l.Opacity)
}

func clampOpacity(o *float64) float64 {
	if o == nil || *o > 1 {
		return 1
	}
	if *o < 0 {
		return 0
	}
	return *o
}

// newTileset makes a new (collection) tileset starting at `first`
func newTileset(name string, first uint32, tw, th int) *Tileset {
	return &Tileset{
		FirstGID:   first,
		Name:       name,
		TileWidth:  tw,
		TileHeight: th,
		Properties: []*Property{},
		Tiles:      []*Tile{},
		tileByID:   map[uint32]*Tile{},
		tileBySrc:  map[string]*Tile{},
	}
}

// index (re)builds our lookup tables
func (ts *Tileset) index() {
	ts.tileByID = map[uint32]*Tile{}
	ts.tileBySrc = map[string]*Tile{}
	for _, t := range ts.Tiles {
		ts.tileByID[t.ID] = t
		if t.Image != nil && t.Image.Source != "" {
			ts.tileBySrc[t.Image.Source] = t
		}
	}
}

// IsSpritesheet returns if tiles are cut from a single image
func (ts *Tileset) IsSpritesheet() bool {
	return ts.Image != nil && ts.Image.Source != ""
}

// Size returns the number of GIDs this tileset claims
func (ts *Tileset) Size() uint32 {
	if ts.IsSpritesheet() {
		if ts.TileCount > 0 {
			return uint32(ts.TileCount)
		}
		cols, rows := ts.Grid(ts.Image.Width, ts.Image.Height)
		return uint32(cols * rows)
	}

	size := uint32(0)
	for _, t := range ts.Tiles {
		if t.ID+1 > size {
			size = t.ID + 1
		}
	}
	if uint32(ts.TileCount) > size {
		size = uint32(ts.TileCount)
	}
	return size
}

// Grid returns the number of columns & rows of tiles that fit in a
// spritesheet of the given pixel size, honouring margin & spacing.
// An explicit Columns attribute wins over the derived value.
func (ts *Tileset) Grid(width, height int) (int, int) {
	if ts.TileWidth <= 0 || ts.TileHeight <= 0 {
		return 0, 0
	}
	cols := (width - 2*ts.Margin + ts.Spacing) / (ts.TileWidth + ts.Spacing)
	rows := (height - 2*ts.Margin + ts.Spacing) / (ts.TileHeight + ts.Spacing)
	if ts.Columns > 0 {
		cols = ts.Columns
	}
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	return cols, rows
}

// decode the layer data into GIDs
func (d *Data) decode() ([]GID, error) {
	switch d.Encoding {
	case EncodingCSV:
		return d.decodeCSV()
	case EncodingBase64:
		return d.decodeBase64()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, d.Encoding)
	}
}

// encodeCSV turns our list of tile ids back into csv format
func (d *Data) encodeCSV(width, height int, in []GID) []byte {
	values := make([]string, height)

	for row := 0; row < height; row++ {
		csvrow := make([]string, width)
		for col := 0; col < width; col++ {
			csvrow[col] = strconv.FormatUint(uint64(in[row*width+col]), 10)
		}
		values[row] = strings.Join(csvrow, ",")
	}

	return []byte("\n" + strings.Join(values, ",\n") + "\n")
}

// decodeCSV reads csv encoded tile data
func (d *Data) decodeCSV() ([]GID, error) {
	cleaner := func(r rune) rune {
		if (r >= '0' && r <= '9') || r == ',' {
			return r
		}
		return -1
	}

	rawDataClean := strings.Map(cleaner, string(d.RawData))
	if rawDataClean == "" {
		return []GID{}, nil
	}

	str := strings.Split(rawDataClean, ",")

	gids := make([]GID, len(str))
	for i, s := range str {
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("csv cell %d: %w", i, err)
		}
		gids[i] = GID(v)
	}
	return gids, nil
}

// decodeBase64 reads base64 encoded little endian uint32s, optionally compressed
func (d *Data) decodeBase64() ([]GID, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(d.RawData)))
	if err != nil {
		return nil, fmt.Errorf("base64 layer data: %w", err)
	}

	var r io.Reader
	switch d.Compression {
	case "":
		r = bytes.NewReader(raw)
	case CompressionZlib:
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("zlib layer data: %w", err)
		}
		defer zr.Close()
		r = zr
	case CompressionGzip:
		gr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("gzip layer data: %w", err)
		}
		defer gr.Close()
		r = gr
	default:
		return nil, fmt.Errorf("%w: compression %q", ErrUnsupportedEncoding, d.Compression)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading layer data: %w", err)
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("layer data length %d is not a multiple of 4", len(data))
	}

	gids := make([]GID, len(data)/4)
	for i := range gids {
		gids[i] = GID(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return gids, nil
}
