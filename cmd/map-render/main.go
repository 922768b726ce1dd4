package main

import (
	"bytes"
	"fmt"
	"image/png"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/voidshard/tilemap"
	"github.com/voidshard/tilemap/internal/logger"
)

const desc = `Generates a tmx map from an 'infinite map' database file, optionally rendering it to a png.`

var cli struct {
	// where to find input database file
	Input  string `short:"i" help:"input inifinite map database file (required)"`
	Output string `short:"o" help:"where to write output .tmx map. Defaults to input + coords + .tmx. Overwrites output file if it exists."`

	// how wide/high each tile image should be in pixels
	TileWidth  uint `default:"32" help:"width of each tile in px"`
	TileHeight uint `default:"32" help:"height of each tile in px"`

	X0 int `default:"0" help:"x coord of map, top left corner"`
	Y0 int `default:"0" help:"y coord of map, top left corner"`
	X1 int `default:"0" help:"x coord of map, bottom right corner"`
	Y1 int `default:"0" help:"y coord of map, bottom right corner"`

	// set properties on map
	Props map[string]string `short:"p" help:"set props on resulting map"`

	// also draw the map
	Png    bool   `help:"also render the map to output + .png"`
	Assets string `default:"." help:"directory tile images are relative to (with --png)"`

	LogLevel string `default:"info" help:"log level (debug, info, warn, error)"`
}

// fileExists checks if file exists
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return !info.IsDir()
}

func main() {
	kong.Parse(&cli, kong.Name("map-render"), kong.Description(desc))

	log, err := logger.New(cli.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if cli.Output == "" {
		cli.Output = fmt.Sprintf("%s_%d.%d_%d.%d.tmx", cli.Input, cli.X0, cli.Y0, cli.X1, cli.Y1)
	}

	if !fileExists(cli.Input) {
		log.Fatal("input file not found", zap.String("input", cli.Input))
	}

	inf, err := tilemap.OpenInfiniteMap(cli.Input)
	if err != nil {
		log.Fatal("failed to open infinite map", zap.Error(err))
	}
	defer inf.Close()

	m, err := inf.Map(cli.TileWidth, cli.TileHeight, cli.X0, cli.Y0, cli.X1, cli.Y1)
	if err != nil {
		log.Fatal("failed to cut map", zap.Error(err))
	}

	m.SetMapProperties(tilemap.ParseProperties(cli.Props))

	err = m.WriteFile(cli.Output)
	if err != nil {
		log.Fatal("failed to write map", zap.String("output", cli.Output), zap.Error(err))
	}
	log.Info("wrote map", zap.String("output", cli.Output))

	if !cli.Png {
		return
	}

	loader, err := tilemap.NewDirLoader(cli.Assets)
	if err != nil {
		log.Fatal("bad assets directory", zap.Error(err))
	}

	cache, err := tilemap.ParseAtlas(m, loader, tilemap.WithLogger(log))
	if err != nil {
		log.Fatal("failed to load tile images", zap.Error(err))
	}

	img, stats, err := tilemap.NewRenderer(cache, tilemap.RenderOptions{}, log).Render(m)
	if err != nil {
		log.Fatal("failed to render map", zap.Error(err))
	}

	buff := new(bytes.Buffer)
	if err := png.Encode(buff, img); err != nil {
		log.Fatal("failed to encode png", zap.Error(err))
	}
	if err := os.WriteFile(cli.Output+".png", buff.Bytes(), 0644); err != nil {
		log.Fatal("failed to write png", zap.Error(err))
	}

	log.Info("wrote png", zap.String("output", cli.Output+".png"), zap.Int("tiles", stats.Drawn), zap.Int("missing", stats.Missing))
}
