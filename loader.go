package tilemap

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/mitchellh/go-homedir"
)

// DirLoader loads images from disk, relative sources are resolved against Dir.
// Images are read once & kept, since tilesets commonly share an atlas.
type DirLoader struct {
	Dir string

	lock   sync.Mutex
	images map[string]image.Image
}

// NewDirLoader returns a loader reading from `dir` ("~" is expanded)
func NewDirLoader(dir string) (*DirLoader, error) {
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, err
	}
	return &DirLoader{Dir: expanded, images: map[string]image.Image{}}, nil
}

// Load decodes the png, gif or jpeg image at `source`
func (d *DirLoader) Load(source string) (image.Image, error) {
	path, err := homedir.Expand(source)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(d.Dir, path)
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	if d.images == nil {
		d.images = map[string]image.Image{}
	}
	if im, ok := d.images[path]; ok {
		return im, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	im, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	d.images[path] = im
	return im, nil
}
