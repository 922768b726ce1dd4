package tilemap

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const (
	sqlCreateTiles = `CREATE TABLE IF NOT EXISTS tiles(
		id TEXT PRIMARY KEY,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		z INTEGER NOT NULL,
		src TEXT NOT NULL,
		flags INTEGER NOT NULL DEFAULT 0
	    );`
	sqlCreateProps = `CREATE TABLE IF NOT EXISTS properties(
		src TEXT PRIMARY KEY,
		data TEXT
	    );`

	sqlUpdateTiles = `INSERT INTO tiles (id, x, y, z, src, flags) VALUES (:id, :x, :y, :z, :src, :flags) ON CONFLICT (id) DO UPDATE SET src=EXCLUDED.src, flags=EXCLUDED.flags;`
	sqlDeleteTile  = `DELETE FROM tiles WHERE id=:id;`
	sqlGetProps    = `SELECT src,data FROM properties WHERE `
	sqlUpdateProps = `INSERT INTO properties (src, data) VALUES (:src, :data) ON CONFLICT (src) DO UPDATE SET data=EXCLUDED.data;`
)

// namedQuery allows us to use either a transaction.NamedQuery or DB.NamedQuery
// in our sub functions.
// Tl;dr it's helpful for using the same code in & out of transactions.
type namedQuery func(string, interface{}) (*sqlx.Rows, error)

// InfiniteMap holds all the same data as a 'Map' (an in memory .TMX map)
// but kept in a sqlite database on disk so we can hold truly massive maps.
// Tile orientation is stored along side each tile.
//
// We can then use this to write out any number of .tmx maps of practical
// sizes for use in other systems.
type InfiniteMap struct {
	filename string
	db       *sqlx.DB
}

var _ Tileable = (*InfiniteMap)(nil)

// NewInfiniteMap creates an 'infinite' version of a 'tileable' map
// with a new database file in the os tempdir.
func NewInfiniteMap() (*InfiniteMap, error) {
	f, err := os.CreateTemp("", "infmap.*.sqlite")
	if err != nil {
		return nil, err
	}
	f.Close()
	return OpenInfiniteMap(f.Name())
}

// OpenInfiniteMap given it's filename (database file) on disk.
// Will create if it doesn't exist.
func OpenInfiniteMap(fname string) (*InfiniteMap, error) {
	db, err := sqlx.Open("sqlite3", fname)
	if err != nil {
		return nil, err
	}

	inf := &InfiniteMap{db: db, filename: fname}
	if err := inf.init(); err != nil {
		db.Close()
		return nil, err
	}
	return inf, nil
}

// Filename returns the path to the infinite map data on disk
func (i *InfiniteMap) Filename() string {
	return i.filename
}

// Close the underlying database
func (i *InfiniteMap) Close() error {
	return i.db.Close()
}

// Map returns a (Tile)Map with all tiles from the infinite map in the rectangle (x0,y0,x1,y1).
// Tile (x0,y0) becomes (0,0) in the returned map.
func (i *InfiniteMap) Map(tilewidth, tileheight uint, x0, y0, x1, y1 int) (*Map, error) {
	if x1 <= x0 || y1 <= y0 {
		return nil, fmt.Errorf("requested map dimensions invalid, unable to render map")
	}

	tmap := New(&Config{
		MapWidth:   uint(x1 - x0),
		MapHeight:  uint(y1 - y0),
		TileWidth:  tilewidth,
		TileHeight: tileheight,
	})

	rows, err := i.db.NamedQuery(
		"SELECT id,x,y,z,src,flags FROM tiles WHERE x>=:x0 AND x<:x1 AND y>=:y0 AND y<:y1;",
		map[string]interface{}{
			"x0": x0, "x1": x1,
			"y0": y0, "y1": y1,
		},
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := map[string]bool{}
	srcs := []string{}
	for rows.Next() {
		tile := dbTile{}
		if err := rows.StructScan(&tile); err != nil {
			return nil, err
		}
		if !seen[tile.Src] {
			seen[tile.Src] = true
			srcs = append(srcs, tile.Src)
		}
		err = tmap.SetOriented(tile.X-x0, tile.Y-y0, tile.Z, tile.Src, GID(tile.Flags).Orientation())
		if err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	srcProps, err := i.properties(i.db.NamedQuery, srcs...)
	if err != nil {
		return nil, err
	}

	for src, props := range srcProps {
		if err := tmap.SetProperties(src, props); err != nil {
			return nil, err
		}
	}

	return tmap, nil
}

// At returns the tile that exists at the given location (or "" if unset)
// and it's orientation.
func (i *InfiniteMap) At(x, y, z int) (string, Orientation, error) {
	rows, err := i.db.NamedQuery(
		"SELECT id,x,y,z,src,flags FROM tiles WHERE x=:x0 AND y=:y0 AND z=:z0 LIMIT 1;",
		map[string]interface{}{
			"x0": x,
			"y0": y,
			"z0": z,
		},
	)
	if err != nil {
		return "", Orientation{}, err
	}
	defer rows.Close()

	tile := dbTile{}
	for rows.Next() { // there's at most one due to LIMIT 1
		if err := rows.StructScan(&tile); err != nil {
			return "", Orientation{}, err
		}
	}

	return tile.Src, GID(tile.Flags).Orientation(), rows.Err()
}

// Set the given image src at (x,y,z), "" removes the tile
func (i *InfiniteMap) Set(x, y, z int, src string) error {
	return i.SetOriented(x, y, z, src, Orientation{})
}

// SetOriented sets the given image src at (x,y,z) flipped as given
func (i *InfiniteMap) SetOriented(x, y, z int, src string, o Orientation) error {
	t := newDBTile(x, y, z, src, o)
	if src == "" {
		_, err := i.db.NamedExec(sqlDeleteTile, t)
		return err
	}
	_, err := i.db.NamedExec(sqlUpdateTiles, t)
	return err
}

// topZ returns the z-level above the highest tile set at (x,y)
func (i *InfiniteMap) topZ(x, y int) (int, error) {
	rows, err := i.db.NamedQuery(
		"SELECT max(z) FROM tiles WHERE x=:x AND y=:y;",
		map[string]interface{}{"x": x, "y": y},
	)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var top sql.NullInt64
	for rows.Next() {
		if err := rows.Scan(&top); err != nil {
			return 0, err
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if !top.Valid {
		return 0, nil
	}
	return int(top.Int64) + 1, nil
}

// Add the given tile object map `o` beginning at (x,y,z).
// A negative zoffset means "on top of whatever is at (x,y)".
func (i *InfiniteMap) Add(x, y, zoffset int, o *Map) error {
	if zoffset < 0 {
		top, err := i.topZ(x, y)
		if err != nil {
			return err
		}
		zoffset = top
	}

	updateTiles := []dbTile{}
	srcsToUpdate := []string{}
	propsCurrent := map[string]*Properties{}

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
				// implies we have a tile with no image of it's own
				continue
			}

			// the reverse of index = y * width + x
			tx := index % o.Width
			ty := index / o.Width

			updateTiles = append(updateTiles, newDBTile(tx+x, ty+y, z+zoffset, src, gid.Orientation()))
			if _, ok := propsCurrent[src]; !ok {
				propsCurrent[src] = o.Properties(src)
				srcsToUpdate = append(srcsToUpdate, src)
			}
		}
	}
	if len(updateTiles) == 0 {
		return nil
	}

	txn, err := i.db.Beginx()
	if err != nil {
		return err
	}

	stmt, err := txn.PrepareNamed(sqlUpdateTiles)
	if err != nil {
		txn.Rollback()
		return err
	}
	defer stmt.Close()

	for _, t := range updateTiles {
		if _, err := stmt.Exec(t); err != nil {
			txn.Rollback()
			return err
		}
	}

	existingProps, err := i.properties(txn.NamedQuery, srcsToUpdate...)
	if err != nil {
		txn.Rollback()
		return err
	}

	for _, src := range srcsToUpdate {
		saved := existingProps[src]
		if saved == nil {
			saved = NewProperties()
		}
		_, err = txn.NamedExec(sqlUpdateProps, newDBProp(src, saved.Merge(propsCurrent[src])))
		if err != nil {
			txn.Rollback()
			return err
		}
	}

	return txn.Commit()
}

// Fits returns if writing the given tilemap `o` starting at (x,y,z) would require
// overwriting an already set tile.
// Nb. we do not check nil (empty) tiles in the given object but rather if there
// are tiles set in the rectangle described starting from (x,y,z) and adding
// the object width, height and it's highest z-layer.
// A negative z means "on top of whatever is at (x,y)".
func (i *InfiniteMap) Fits(x, y, z int, o *Map) (bool, error) {
	if z < 0 {
		top, err := i.topZ(x, y)
		if err != nil {
			return false, err
		}
		z = top
	}

	highest := 0
	lvls := o.ZLevels()
	if len(lvls) > 0 {
		highest = lvls[len(lvls)-1]
	}

	rows, err := i.db.NamedQuery(
		"SELECT count(*) as num FROM tiles WHERE x>=:x0 AND x<:x1 AND y>=:y0 AND y<:y1 AND z>=:z0 AND z<:z1;",
		map[string]interface{}{
			"x0": x, "x1": x + o.Width,
			"y0": y, "y1": y + o.Height,
			"z0": z, "z1": z + highest + 1, // since `highest` is the z-layer (eg, 0 means "the first layer")
		},
	)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	var num int64
	for rows.Next() { // should only be one row
		if err := rows.Scan(&num); err != nil {
			return false, err
		}
	}

	return num == 0, rows.Err()
}

// properties returns set properties by their src name
func (i *InfiniteMap) properties(do namedQuery, in ...string) (map[string]*Properties, error) {
	result := map[string]*Properties{}
	if len(in) == 0 {
		return result, nil
	}

	args := map[string]interface{}{}
	or := []string{}
	for i, src := range in {
		name := fmt.Sprintf("prop_%d", i)
		args[name] = src
		or = append(or, fmt.Sprintf("src=:%s", name))
	}

	qstr := fmt.Sprintf("%s %s LIMIT %d;", sqlGetProps, strings.Join(or, " OR "), len(in))

	rows, err := do(qstr, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		r := dbProp{}
		if err := rows.StructScan(&r); err != nil {
			return nil, err
		}

		block := propBlock{}
		if err := json.Unmarshal([]byte(r.Data), &block); err != nil {
			return nil, fmt.Errorf("properties of %s: %w", r.Src, err)
		}
		result[r.Src] = block.properties()
	}

	return result, rows.Err()
}

// Properties returns properties for a given src
// Asking for "" (the empty tile) always returns nil
// Otherwise if no properties are set an empty properties will be returned.
func (i *InfiniteMap) Properties(src string) (*Properties, error) {
	if src == "" {
		return nil, nil
	}

	result, err := i.properties(i.db.NamedQuery, src)
	if err != nil {
		return nil, err
	}

	props := result[src]
	if props == nil {
		return NewProperties(), nil
	}

	return props, nil
}

// SetProperties for the given src. This doesn't do an update / merge just overwrites.
func (i *InfiniteMap) SetProperties(src string, props *Properties) error {
	_, err := i.db.NamedExec(sqlUpdateProps, newDBProp(src, props))
	return err
}

// init creates some DB tables for us if they don't exist
func (i *InfiniteMap) init() error {
	_, err := i.db.Exec(sqlCreateTiles)
	if err != nil {
		return err
	}
	_, err = i.db.Exec(sqlCreateProps)
	return err
}

// dbTile object encodes a single tile.
// The ID here is used to insert/update on a unique tile by it's (x,y,z)
// with a more straight forward query. Flags holds the orientation bits.
type dbTile struct {
	ID    string `db:"id"`
	X     int    `db:"x"`
	Y     int    `db:"y"`
	Z     int    `db:"z"`
	Src   string `db:"src"`
	Flags uint32 `db:"flags"`
}

// newDBTile crafts a dbTile struct given it's inputs
func newDBTile(x, y, z int, src string, o Orientation) dbTile {
	return dbTile{ID: fmt.Sprintf("%d-%d-%d", x, y, z), X: x, Y: y, Z: z, Src: src, Flags: o.bits()}
}

// dbProp object encodes properties for a single src.
type dbProp struct {
	Src  string `db:"src"`
	Data string `db:"data"`
}

// propBlock is the JSON form of Properties in the database
type propBlock struct {
	I map[string]int
	S map[string]string
	B map[string]bool
	F map[string]float64 `json:",omitempty"`
}

func (b propBlock) properties() *Properties {
	p := NewProperties()
	for k, v := range b.I {
		p.ints[k] = v
	}
	for k, v := range b.S {
		p.strings[k] = v
	}
	for k, v := range b.B {
		p.bools[k] = v
	}
	for k, v := range b.F {
		p.floats[k] = v
	}
	return p
}

// newDBProp crafts a dbProp struct given it's inputs.
// Properties are encoded into JSON.
func newDBProp(src string, props *Properties) dbProp {
	if props == nil {
		props = NewProperties()
	}
	databytes, _ := json.Marshal(propBlock{
		I: props.ints,
		S: props.strings,
		B: props.bools,
		F: props.floats,
	})
	return dbProp{Src: src, Data: string(databytes)}
}
