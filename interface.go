package tilemap

import (
	"image"
)

// Tileable represents something we can tile
type Tileable interface {
	// Set a single tile (given src image) at x,y,z
	Set(x, y, z int, src string) error

	// SetOriented sets a single flipped tile at x,y,z
	SetOriented(x, y, z int, src string, o Orientation) error

	// Add an object `o` beginning at x,y,z
	// Any set properties on tiles in `o` will be merged.
	// A negative z places `o` above the highest tile at x,y
	Add(x, y, z int, o *Map) error

	// Fits returns if placing an object `o` beginning at x,y,z
	// would cause us to overwrite any currently set tile.
	// A negative z is resolved as in Add
	Fits(x, y, z int, o *Map) (bool, error)

	// Properties gets properties (if set) on the given src
	Properties(src string) (*Properties, error)

	// SetProperties sets properties on the given src
	SetProperties(src string, props *Properties) error
}

// ImageLoader fetches the images tilesets refer to
type ImageLoader interface {
	// Load the image with the given source, as written in the TMX file
	Load(source string) (image.Image, error)
}
