package main

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/voidshard/tilemap"
	"github.com/voidshard/tilemap/internal/logger"
)

const desc = `Renders a .tmx (doc.mapeditor.org/en/stable/) map to a png.

Tileset images are loaded relative to the map (or --assets). Every tile is looked up in a
texture cache keyed by tile id & orientation (the flip bits TMX packs into each gid), so
flipped & rotated tiles are drawn the way Tiled draws them.`

var cli struct {
	Input  string `arg:"" help:"input .tmx map"`
	Output string `short:"o" help:"where to write the png. Defaults to input + .png"`

	Config string `short:"c" help:"yaml render config"`
	Assets string `help:"directory tileset images are relative to, defaults to the map's directory"`

	Background string   `help:"background colour #RRGGBB or #AARRGGBB"`
	Scale      float64  `help:"scale the output image by this factor"`
	Strict     bool     `help:"fail if any tile has no texture"`
	Layers     []string `short:"l" help:"only render the named layers"`

	AllOrientations bool   `help:"build textures for all 8 orientations of each tile"`
	LogLevel        string `default:"info" help:"log level (debug, info, warn, error)"`
}

// settings merges the config file (if any) with cli flags, flags win
func settings() (*tilemap.RenderConfig, error) {
	cfg := tilemap.DefaultRenderConfig()
	if cli.Config != "" {
		var err error
		cfg, err = tilemap.LoadRenderConfig(cli.Config)
		if err != nil {
			return nil, err
		}
	}

	if cli.Assets != "" {
		cfg.Assets = cli.Assets
	}
	if cfg.Assets == "" {
		cfg.Assets = filepath.Dir(cli.Input)
	}
	if cli.Background != "" {
		cfg.Background = cli.Background
	}
	if cli.Scale > 0 {
		cfg.Scale = cli.Scale
	}
	if cli.Strict {
		cfg.Strict = true
	}
	if len(cli.Layers) > 0 {
		cfg.Layers = cli.Layers
	}
	if cli.AllOrientations {
		cfg.AllOrientations = true
	}
	if cli.Config == "" || cli.LogLevel != "info" {
		cfg.LogLevel = cli.LogLevel
	}
	return cfg, nil
}

// savePng to disk
func savePng(fpath string, in image.Image) error {
	buff := new(bytes.Buffer)
	err := png.Encode(buff, in)
	if err != nil {
		return err
	}
	return os.WriteFile(fpath, buff.Bytes(), 0644)
}

func main() {
	kong.Parse(&cli, kong.Name("tmx-render"), kong.Description(desc))

	if cli.Output == "" {
		cli.Output = cli.Input + ".png"
	}

	cfg, err := settings()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	m, err := tilemap.Open(cli.Input)
	if err != nil {
		log.Fatal("failed to read map", zap.String("input", cli.Input), zap.Error(err))
	}

	loader, err := tilemap.NewDirLoader(cfg.Assets)
	if err != nil {
		log.Fatal("bad assets directory", zap.String("assets", cfg.Assets), zap.Error(err))
	}

	cache, err := tilemap.ParseAtlas(m, loader, append(cfg.AtlasOptions(), tilemap.WithLogger(log))...)
	if err != nil {
		log.Fatal("failed to parse tilesets", zap.Error(err))
	}
	log.Info("textures ready", zap.Int("textures", cache.Len()), zap.Int("tilesets", len(m.Tilesets)))

	opts := cfg.RenderOptions()
	opts.Images = loader

	img, stats, err := tilemap.NewRenderer(cache, opts, log).Render(m)
	if err != nil {
		log.Fatal("failed to render map", zap.Error(err))
	}

	if err := savePng(cli.Output, img); err != nil {
		log.Fatal("failed to write png", zap.String("output", cli.Output), zap.Error(err))
	}

	log.Info("wrote map",
		zap.String("output", cli.Output),
		zap.Int("layers", stats.Layers),
		zap.Int("tiles", stats.Drawn),
		zap.Int("missing", stats.Missing),
	)
}
