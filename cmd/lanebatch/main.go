// Command lanebatch draws lane records onto every frame of a recorded
// sequence and writes one overlay PNG per frame.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/AmazingWilson-hub/road-lane/internal/batch"
	"github.com/AmazingWilson-hub/road-lane/internal/config"
	"github.com/AmazingWilson-hub/road-lane/internal/fsutil"
	"github.com/AmazingWilson-hub/road-lane/internal/metrics"
	"github.com/AmazingWilson-hub/road-lane/internal/render"
	"github.com/AmazingWilson-hub/road-lane/internal/version"
)

var (
	configPath    = flag.String("config", "", "Camera/pipeline config JSON (built-in defaults when empty)")
	imageDir      = flag.String("images", "", "Directory of camera frames")
	recordDir     = flag.String("records", "", "Directory of lane records (<stem>.txt)")
	outDir        = flag.String("out", "output_batch", "Output directory for overlay PNGs")
	extrinsicPath = flag.String("extrinsic", "", "Extrinsic matrix dump, overrides the config")
	workers       = flag.Int("workers", 0, "Concurrent frames (0 uses the config)")
	lineWidth     = flag.Float64("line-width", 0, "Polyline width in pixels (0 uses the config)")
	mono          = flag.Bool("mono", false, "Draw every lane green regardless of side")
	reportPath    = flag.String("report", "", "Write an HTML run report to this path")
	metricsPath   = flag.String("metrics", "", "Write prometheus metrics to this textfile")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String("lanebatch"))
		return
	}
	if *imageDir == "" || *recordDir == "" {
		log.Fatal("-images and -records are required")
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

	overlay := render.Overlay{LineWidth: cfg.GetLineWidth()}
	if *lineWidth > 0 {
		overlay.LineWidth = *lineWidth
	}
	if *mono {
		overlay.Color = color.RGBA{G: 255, A: 255}
	}
	n := cfg.GetWorkers()
	if *workers > 0 {
		n = *workers
	}

	runner, err := batch.NewRunner(fsys, engine, overlay, metrics.New(), batch.Options{
		ImageDir:    *imageDir,
		RecordDir:   *recordDir,
		OutputDir:   *outDir,
		Workers:     n,
		ReportPath:  *reportPath,
		MetricsPath: *metricsPath,
	})
	if err != nil {
		log.Fatalf("failed to set up batch run: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := runner.Run(ctx)
	for _, f := range sum.Frames {
		log.Printf("wrote %s", f.Output)
	}
	for _, s := range sum.Skipped {
		log.Printf("skipped %s", s)
	}
	if err != nil {
		log.Printf("batch run failed: %v", err)
		os.Exit(1)
	}
	log.Printf("%d frames written to %s, %d skipped", len(sum.Frames), *outDir, len(sum.Skipped))
}
