// Command laneproject overlays one lane record onto one camera frame.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/AmazingWilson-hub/road-lane/internal/config"
	"github.com/AmazingWilson-hub/road-lane/internal/fsutil"
	"github.com/AmazingWilson-hub/road-lane/internal/lane"
	"github.com/AmazingWilson-hub/road-lane/internal/render"
	"github.com/AmazingWilson-hub/road-lane/internal/version"
)

var (
	configPath    = flag.String("config", "", "Camera/pipeline config JSON (built-in defaults when empty)")
	imagePath     = flag.String("image", "", "Camera frame")
	recordPath    = flag.String("record", "", "Lane record for the frame")
	outPath       = flag.String("out", "lane_projected.png", "Output overlay PNG")
	extrinsicPath = flag.String("extrinsic", "", "Extrinsic matrix dump, overrides the config")
	lineWidth     = flag.Float64("line-width", 4, "Polyline width in pixels")
	plotDir       = flag.String("plot-dir", "", "Also write bird's-eye and pixel-space plots to this directory")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String("laneproject"))
		return
	}
	if *imagePath == "" || *recordPath == "" {
		log.Fatal("-image and -record are required")
	}

	cfg := config.EmptyConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(*configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	if *extrinsicPath != "" {
		cfg.SetExtrinsicPath(*extrinsicPath)
	}
	fsys := fsutil.OSFileSystem{}
	engine, err := cfg.Engine(fsys)
	if err != nil {
		log.Fatalf("invalid camera setup: %v", err)
	}

	imgFile, err := fsys.Open(*imagePath)
	if err != nil {
		log.Fatalf("failed to open image: %v", err)
	}
	frame, err := render.DecodeFrame(imgFile)
	imgFile.Close()
	if err != nil {
		log.Fatalf("failed to read %s: %v", *imagePath, err)
	}

	recFile, err := fsys.Open(*recordPath)
	if err != nil {
		log.Fatalf("failed to open record: %v", err)
	}
	parsed, err := lane.Parse(recFile)
	recFile.Close()
	if err != nil {
		log.Fatalf("failed to read %s: %v", *recordPath, err)
	}
	for _, s := range parsed.Skipped {
		log.Printf("record %s", s)
	}

	lanes := engine.ProjectAll(parsed.Lanes)
	for i, l := range lanes {
		log.Printf("lane %d (%s): %d points, %d culled", i, l.Side, len(l.Points), l.Culled)
	}

	out := render.Overlay{LineWidth: *lineWidth}.Draw(frame, lanes)
	if err := writeFile(fsys, *outPath, func(f io.Writer) error { return render.EncodePNG(f, out) }); err != nil {
		log.Fatalf("failed to write overlay: %v", err)
	}
	log.Printf("wrote %s", *outPath)

	if *plotDir == "" {
		return
	}
	if err := fsys.MkdirAll(*plotDir, 0755); err != nil {
		log.Fatalf("failed to create plot dir: %v", err)
	}
	birdsEye := filepath.Join(*plotDir, "lanes_birdseye.png")
	if err := writeFile(fsys, birdsEye, func(f io.Writer) error {
		return render.PlotBirdsEye(f, parsed.Lanes, engine.Samples())
	}); err != nil {
		log.Fatalf("failed to plot lanes: %v", err)
	}
	pixels := filepath.Join(*plotDir, "lanes_pixels.png")
	if err := writeFile(fsys, pixels, func(f io.Writer) error {
		return render.PlotPixels(f, lanes, frame.Bounds())
	}); err != nil {
		log.Fatalf("failed to plot projection: %v", err)
	}
	log.Printf("plots written to %s", *plotDir)
}

func writeFile(fsys fsutil.FileSystem, path string, write func(io.Writer) error) error {
	f, err := fsys.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
