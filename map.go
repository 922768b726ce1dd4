/* file adds helper functions to our tmx map wrapper struct.
 */
package tilemap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/RoaringBitmap/roaring"
)

// New returns a new map with defaults set.
func New(cfg *Config) *Map {
	return &Map{
		Orientation:    OrientationOrthogonal,
		RenderOrder:    "right-down",
		Width:          int(cfg.MapWidth),
		Height:         int(cfg.MapHeight),
		TileWidth:      int(cfg.TileWidth),
		TileHeight:     int(cfg.TileHeight),
		Tilesets:       []*Tileset{newTileset("default", 1, int(cfg.TileWidth), int(cfg.TileHeight))},
		RootProperties: []*Property{},
		TileLayers:     []*TileLayer{},
		ImageLayers:    []*ImageLayer{},
	}
}

// MapProperties returns properties set on the map itself
func (m *Map) MapProperties() *Properties {
	return newPropertiesFromList(m.RootProperties)
}

// SetMapProperties sets properties on the map
func (m *Map) SetMapProperties(in *Properties) {
	m.RootProperties = in.toList()
}

// TilesetFor returns the tileset the given gid belongs to (or nil).
func (m *Map) TilesetFor(gid GID) *Tileset {
	id := gid.TileID()
	if id == 0 {
		return nil
	}

	var found *Tileset
	for _, ts := range m.Tilesets {
		if ts.FirstGID <= id && (found == nil || ts.FirstGID > found.FirstGID) {
			found = ts
		}
	}
	return found
}

// tileFor returns the tileset & tile entry of a gid.
// Spritesheet tiles without a <tile> entry return a nil tile.
func (m *Map) tileFor(gid GID) (*Tileset, *Tile) {
	ts := m.TilesetFor(gid)
	if ts == nil {
		return nil, nil
	}
	return ts, ts.tileByID[gid.TileID()-ts.FirstGID]
}

// Source returns the image source of a collection tile (or "").
func (m *Map) Source(gid GID) string {
	_, t := m.tileFor(gid)
	if t == nil || t.Image == nil {
		return ""
	}
	return t.Image.Source
}

// gidForSource finds the (unflipped) gid of the tile using the given image.
func (m *Map) gidForSource(source string) (GID, bool) {
	for _, ts := range m.Tilesets {
		t, ok := ts.tileBySrc[source]
		if ok {
			return GID(ts.FirstGID + t.ID), true
		}
	}
	return 0, false
}

// newTile registers a new tile by it's image.
// New tiles go on the last tileset if it's a collection, otherwise a new
// collection tileset is started after the highest gid in use.
// Spritesheets with no tilecount or image size claim an unknown number of
// gids, so nothing can be placed after them.
func (m *Map) newTile(source string) (GID, error) {
	for _, s := range m.Tilesets {
		if s.IsSpritesheet() && s.Size() == 0 {
			return 0, fmt.Errorf("%w: %q", ErrUnknownTilesetSize, s.Name)
		}
	}

	var ts *Tileset
	if len(m.Tilesets) > 0 && !m.Tilesets[len(m.Tilesets)-1].IsSpritesheet() {
		ts = m.Tilesets[len(m.Tilesets)-1]
	} else {
		next := uint32(1)
		for _, s := range m.Tilesets {
			if end := s.FirstGID + s.Size(); end > next {
				next = end
			}
		}
		ts = newTileset(fmt.Sprintf("default.%d", len(m.Tilesets)), next, m.TileWidth, m.TileHeight)
		m.Tilesets = append(m.Tilesets, ts)
	}
	if ts.tileByID == nil {
		ts.index()
	}

	id := ts.Size()
	gid := ts.FirstGID + id
	for _, s := range m.Tilesets {
		if s != ts && s.FirstGID <= gid && gid < s.FirstGID+s.Size() {
			return 0, fmt.Errorf("%w: gid %d of %s belongs to tileset %q", ErrGIDInUse, gid, source, s.Name)
		}
	}

	t := &Tile{
		ID:         id,
		Image:      &Image{Source: source, Width: m.TileWidth, Height: m.TileHeight},
		Properties: []*Property{},
	}
	ts.Tiles = append(ts.Tiles, t)
	ts.tileByID[t.ID] = t
	ts.tileBySrc[source] = t
	if ts.TileCount > 0 {
		ts.TileCount = int(ts.Size())
	}
	return GID(gid), nil
}

// newTilelayer creates a new tilelayer with the given name &
// adds it to the map
func (m *Map) newTilelayer(name string) *TileLayer {
	l := &TileLayer{
		Name:       name,
		Width:      m.Width,
		Height:     m.Height,
		Properties: []*Property{},
		Data: Data{
			Encoding: EncodingCSV,
			RawData:  []byte{},
		},
		decodedTiles: make([]GID, m.Width*m.Height),
	}
	m.TileLayers = append(m.TileLayers, l)
	return l
}

// zlayer returns the tile layer named after z (or nil)
func (m *Map) zlayer(z int) *TileLayer {
	name := strconv.Itoa(z)
	for _, tl := range m.TileLayers {
		if tl.Name == name {
			return tl
		}
	}
	return nil
}

// topZ returns the z-level above the highest tile set at (x,y), used when
// a negative zoffset is given to Fits / Add.
func (m *Map) topZ(x, y int) int {
	levels := m.ZLevels()
	for i := len(levels) - 1; i >= 0; i-- {
		if !m.TileAt(x, y, levels[i]).IsEmpty() {
			return levels[i] + 1
		}
	}
	return 0
}

// Fits returns if copying in the given map to (x,y,zoffset) would
// overwrite an existing tile on any layer in our current map.
// A negative zoffset means "on top of whatever is at (x,y)".
func (m *Map) Fits(x, y, zoffset int, o *Map) bool {
	if zoffset < 0 {
		zoffset = m.topZ(x, y)
	}

	for _, tl := range o.TileLayers {
		z, err := strconv.Atoi(tl.Name)
		if err != nil {
			continue
		}

		for index, gid := range tl.decodedTiles {
			if gid.IsEmpty() {
				continue
			}

			// the reverse of index = y * width + x
			tx := index % o.Width
			ty := index / o.Width

			// check if the object goes off the map
			if tx+x < 0 || tx+x >= m.Width || ty+y < 0 || ty+y >= m.Height {
				return false
			}

			if !m.TileAt(tx+x, ty+y, z+zoffset).IsEmpty() {
				return false
			}
		}
	}

	return true
}

// Add the given map `o` starting at the location x,y
// We merge the TileLayers of both maps, but we only consider TileLayers that
// we write ie, those named after their z-layers (0, 1, 2, 3, ...).
// (x,y) is the top left tile, irrespective of z-layer. Tile orientation is kept.
// Only collection tiles (those with their own image) can be copied.
func (m *Map) Add(x, y, zoffset int, o *Map) error {
	if zoffset < 0 {
		zoffset = m.topZ(x, y)
	}

	for _, tl := range o.TileLayers {
		z, err := strconv.Atoi(tl.Name)
		if err != nil {
			continue
		}

		for index, gid := range tl.decodedTiles {
			if gid.IsEmpty() {
				continue
			}
			src := o.Source(gid)
			if src == "" {
				// no image of it's own, ie. from a spritesheet
				continue
			}

			tx := index % o.Width
			ty := index / o.Width

			err = m.SetOriented(tx+x, ty+y, z+zoffset, src, gid.Orientation())
			if err != nil {
				return err
			}
			err = m.SetProperties(src, m.Properties(src).Merge(o.Properties(src)))
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// ZLevels returns all z-level layers (layers named after an int) sorted low -> high.
func (m *Map) ZLevels() []int {
	levels := []int{}
	for _, tl := range m.TileLayers {
		z, err := strconv.Atoi(tl.Name)
		if err != nil {
			continue
		}
		levels = append(levels, z)
	}
	sort.Ints(levels)
	return levels
}

// TileAt returns the raw gid at (x, y, z), 0 if unset or out of bounds.
func (m *Map) TileAt(x, y, z int) GID {
	l := m.zlayer(z)
	if l == nil || x < 0 || x >= m.Width {
		return 0
	}

	index := y*m.Width + x
	if index >= len(l.decodedTiles) || index < 0 {
		return 0
	}
	return l.decodedTiles[index]
}

// At returns the properties of the tile at (x, y, z) or nil if not set
// (ie. set to the nil tile).
func (m *Map) At(x, y, z int) *Properties {
	gid := m.TileAt(x, y, z)
	if gid.IsEmpty() {
		return nil
	}

	_, t := m.tileFor(gid)
	if t == nil {
		return NewProperties()
	}
	return newPropertiesFromList(t.Properties)
}

// Set the tile source for (x,y,z) to some image src.
// If the image doesn't exist in a tileset it is added.
// If "" is passed for source the nil tile is set (ID: 0).
func (m *Map) Set(x, y, z int, source string) error {
	return m.SetOriented(x, y, z, source, Orientation{})
}

// SetOriented is Set with the tile flipped as given.
func (m *Map) SetOriented(x, y, z int, source string, o Orientation) error {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return fmt.Errorf("(%d,%d) is out of bounds for this map", x, y)
	}

	gid := GID(0)
	if source != "" {
		var ok bool
		gid, ok = m.gidForSource(source)
		if !ok {
			var err error
			gid, err = m.newTile(source)
			if err != nil {
				return err
			}
		}
		gid = NewGID(gid.TileID(), o)
	}

	l := m.zlayer(z)
	if l == nil {
		l = m.newTilelayer(strconv.Itoa(z))
	}
	l.decodedTiles[y*m.Width+x] = gid
	return nil
}

// SetBackground sets (/creates) an image layer "background" and sets
// it's image to the given src. It's dimensions are also configured
// to cover the map
func (m *Map) SetBackground(src string) {
	var l *ImageLayer
	for _, layer := range m.ImageLayers {
		if layer.Name == "background" {
			l = layer
			break
		}
	}

	if l == nil {
		l = &ImageLayer{
			Name:  "background",
			Image: &Image{},
		}
		m.ImageLayers = append(m.ImageLayers, l)
	}

	l.Image.Source = src
	l.Image.Width = m.TileWidth * m.Width
	l.Image.Height = m.TileHeight * m.Height
}

// Properties returns the properties of the tile indicated by the `source`
// image (or nil).
func (m *Map) Properties(source string) *Properties {
	if source == "" {
		// the nil tile has no properties
		return nil
	}

	gid, ok := m.gidForSource(source)
	if !ok {
		return nil
	}
	_, t := m.tileFor(gid)
	if t == nil {
		return nil
	}
	return newPropertiesFromList(t.Properties)
}

// SetProperties sets properties on the tile indicated by the given source
// image. Setting properties on the nil tile ("") does nothing.
func (m *Map) SetProperties(source string, in *Properties) error {
	if source == "" {
		return nil
	}

	gid, ok := m.gidForSource(source)
	if !ok {
		var err error
		gid, err = m.newTile(source)
		if err != nil {
			return err
		}
	}
	_, t := m.tileFor(gid)
	if t == nil {
		return nil
	}
	t.Properties = in.toList()
	return nil
}

// UsedGIDs returns every non empty gid placed on any tile layer,
// orientation bits included.
func (m *Map) UsedGIDs() *roaring.Bitmap {
	used := roaring.New()
	for _, tl := range m.TileLayers {
		for _, gid := range tl.decodedTiles {
			if gid.IsEmpty() {
				continue
			}
			used.Add(uint32(gid))
		}
	}
	return used
}

// Encode the current map as XML to a io.Writer stream
func (m *Map) Encode(w io.Writer) error {
	for _, tl := range m.TileLayers {
		if len(tl.decodedTiles) != m.Width*m.Height {
			return fmt.Errorf("layer %q holds %d tiles, map is %dx%d", tl.Name, len(tl.decodedTiles), m.Width, m.Height)
		}
	}

	// tiled renders maps in order of ID, low -> high
	// So we'll sort our z-layers, then ID them in order to make sure they're rendered
	// in the intended order. Layers not named after a z-level keep their position.
	sort.SliceStable(m.TileLayers, func(i, j int) bool {
		in, ierr := strconv.Atoi(m.TileLayers[i].Name)
		jn, jerr := strconv.Atoi(m.TileLayers[j].Name)
		if ierr != nil || jerr != nil {
			return false
		}
		return in < jn
	})
	for i, l := range m.ImageLayers {
		l.ID = uint(i + 1)
	}
	for i, l := range m.TileLayers {
		l.ID = uint(i + len(m.ImageLayers) + 1)
	}

	for _, tl := range m.TileLayers {
		tl.Width = m.Width
		tl.Height = m.Height
		tl.Data.Encoding = EncodingCSV
		tl.Data.Compression = ""
		tl.Data.RawData = tl.Data.encodeCSV(m.Width, m.Height, tl.decodedTiles)
	}

	return xml.NewEncoder(w).Encode(m)
}

// Decode an input TMX map XML
func Decode(r io.Reader) (*Map, error) {
	m := &Map{}
	if err := xml.NewDecoder(r).Decode(m); err != nil {
		return nil, err
	}

	if m.Infinite != 0 {
		return nil, ErrInfiniteMap
	}

	for _, ts := range m.Tilesets {
		if ts.Source != "" {
			return nil, fmt.Errorf("%w: %s", ErrExternalTileset, ts.Source)
		}
		ts.index()
	}
	sort.SliceStable(m.Tilesets, func(i, j int) bool {
		return m.Tilesets[i].FirstGID < m.Tilesets[j].FirstGID
	})

	for _, tl := range m.TileLayers {
		gids, err := tl.Data.decode()
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", tl.Name, err)
		}
		if len(gids) != m.Width*m.Height {
			return nil, fmt.Errorf("layer %q: expected %d tiles, got %d", tl.Name, m.Width*m.Height, len(gids))
		}
		tl.decodedTiles = gids
	}

	return m, nil
}

// Open reads a .tmx map from disk
func Open(fname string) (*Map, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// WriteFile writes the map to disk as .tmx
func (m *Map) WriteFile(fname string) error {
	buff := bytes.Buffer{}
	err := m.Encode(&buff)
	if err != nil {
		return err
	}
	return os.WriteFile(fname, buff.Bytes(), 0644)
}
