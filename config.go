package tilemap

import (
	"fmt"
	"os"
	"runtime"

	"github.com/go-yaml/yaml"
	"github.com/mitchellh/go-homedir"
)

// Config includes settings for a TileMap
type Config struct {
	// in tiles
	MapHeight uint
	MapWidth  uint

	// in pixels
	TileWidth  uint
	TileHeight uint
}

// DefaultConfig returns a map config with default settings.
func DefaultConfig() *Config {
	return &Config{
		TileWidth:  32,
		TileHeight: 32,
		MapWidth:   100,
		MapHeight:  100,
	}
}

// RenderConfig holds settings for turning a map into an image, usually read
// from a yaml file.
type RenderConfig struct {
	// where atlas images are found, defaults to the map's directory
	Assets string `yaml:"assets"`

	// canvas colour (#RRGGBB or #AARRGGBB), overrides the map's backgroundcolor
	Background string `yaml:"background"`

	// output scale factor, 1 means no scaling
	Scale float64 `yaml:"scale"`

	// fail on the first tile without a texture
	Strict bool `yaml:"strict"`

	// only draw the named layers (all if empty)
	Layers []string `yaml:"layers"`

	// build textures for all 8 orientations of every tile, not just those used
	AllOrientations bool `yaml:"all_orientations"`

	// number of goroutines building textures
	Workers int `yaml:"workers"`

	LogLevel string `yaml:"log_level"`
}

// DefaultRenderConfig returns render settings with defaults set.
func DefaultRenderConfig() *RenderConfig {
	return &RenderConfig{
		Scale:    1,
		Workers:  runtime.NumCPU(),
		LogLevel: "info",
	}
}

// LoadRenderConfig reads a yaml render config, unset fields keep their defaults.
func LoadRenderConfig(fname string) (*RenderConfig, error) {
	path, err := homedir.Expand(fname)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading render config: %w", err)
	}

	cfg := DefaultRenderConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing render config %s: %w", path, err)
	}

	if cfg.Assets != "" {
		cfg.Assets, err = homedir.Expand(cfg.Assets)
		if err != nil {
			return nil, err
		}
	}
	if cfg.Scale <= 0 {
		return nil, fmt.Errorf("render config scale must be > 0, got %v", cfg.Scale)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return cfg, nil
}

// RenderOptions returns the renderer settings of this config
func (c *RenderConfig) RenderOptions() RenderOptions {
	return RenderOptions{
		Background: c.Background,
		Scale:      c.Scale,
		Strict:     c.Strict,
		Layers:     c.Layers,
	}
}

// AtlasOptions returns the atlas parsing settings of this config
func (c *RenderConfig) AtlasOptions() []AtlasOption {
	opts := []AtlasOption{WithWorkers(c.Workers)}
	if c.AllOrientations {
		opts = append(opts, WithAllOrientations())
	}
	return opts
}
