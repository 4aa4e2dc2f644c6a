// Package batch overlays lane records onto every frame of a recorded
// sequence.
package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/AmazingWilson-hub/road-lane/internal/fsutil"
	"github.com/AmazingWilson-hub/road-lane/internal/lane"
	"github.com/AmazingWilson-hub/road-lane/internal/metrics"
	"github.com/AmazingWilson-hub/road-lane/internal/monitoring"
	"github.com/AmazingWilson-hub/road-lane/internal/projection"
	"github.com/AmazingWilson-hub/road-lane/internal/render"
	"github.com/AmazingWilson-hub/road-lane/internal/timeutil"
)

// SkipReason explains why a frame produced no output.
type SkipReason string

const (
	SkipMissingRecord SkipReason = "missing_record"
	SkipMissingImage  SkipReason = "missing_image"
	SkipReadError     SkipReason = "read_error"
	SkipDecodeError   SkipReason = "decode_error"
)

// FrameSkip is a frame that was not processed.
type FrameSkip struct {
	Stem   string
	Reason SkipReason
	Err    error
}

func (s FrameSkip) String() string {
	if s.Err != nil {
		return fmt.Sprintf("%s: %s: %v", s.Stem, s.Reason, s.Err)
	}
	return fmt.Sprintf("%s: %s", s.Stem, s.Reason)
}

// FrameResult is a processed frame.
type FrameResult struct {
	Stem   string
	Output string
	Lanes  []projection.ProjectedLane
	// Skipped holds the record pairs the parser dropped.
	Skipped []lane.Skip
}

// Summary reports a run in stem order.
type Summary struct {
	Frames  []FrameResult
	Skipped []FrameSkip
}

// Options configures a Runner.
type Options struct {
	ImageDir  string
	RecordDir string
	OutputDir string
	Workers   int
	// ReportPath, when set, receives an HTML summary of the run.
	ReportPath string
	// MetricsPath, when set, receives the metrics in text exposition format.
	MetricsPath string
	// Clock times frames for the metrics; nil uses the wall clock.
	Clock timeutil.Clock
}

// Runner processes a directory pair frame by frame.
type Runner struct {
	fs      fsutil.FileSystem
	engine  *projection.Engine
	overlay render.Overlay
	metrics *metrics.Metrics
	opts    Options
	logf    func(format string, v ...interface{})
}

// NewRunner returns a runner. m may be nil.
func NewRunner(fsys fsutil.FileSystem, engine *projection.Engine, overlay render.Overlay, m *metrics.Metrics, opts Options) (*Runner, error) {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	if engine == nil {
		return nil, errors.New("batch runner needs an engine")
	}
	if opts.ImageDir == "" || opts.RecordDir == "" || opts.OutputDir == "" {
		return nil, errors.New("image, record and output directories are required")
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	return &Runner{
		fs:      fsys,
		engine:  engine,
		overlay: overlay,
		metrics: m,
		opts:    opts,
		logf:    monitoring.Prefixed("batch"),
	}, nil
}

type outcome struct {
	result *FrameResult
	skip   *FrameSkip
}

// Run processes every paired frame. Missing or unreadable inputs are
// skipped with a diagnostic; only output failures and cancellation end the
// run early. The summary covers the frames that were scheduled.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	frames, err := PairFrames(r.fs, r.opts.ImageDir, r.opts.RecordDir)
	if err != nil {
		return Summary{}, err
	}
	if err := r.fs.MkdirAll(r.opts.OutputDir, 0755); err != nil {
		return Summary{}, fmt.Errorf("failed to create output dir: %w", err)
	}
	r.logf("%d frames, %d workers", len(frames), r.opts.Workers)

	outcomes := make([]outcome, len(frames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	scheduled := 0
	for i := range frames {
		if gctx.Err() != nil {
			break
		}
		scheduled++
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o, err := r.processFrame(frames[i])
			outcomes[i] = o
			return err
		})
	}
	runErr := g.Wait()

	var sum Summary
	for _, o := range outcomes[:scheduled] {
		switch {
		case o.result != nil:
			sum.Frames = append(sum.Frames, *o.result)
		case o.skip != nil:
			sum.Skipped = append(sum.Skipped, *o.skip)
		}
	}
	r.logf("done: %d written, %d skipped", len(sum.Frames), len(sum.Skipped))

	if runErr == nil {
		runErr = ctx.Err()
	}
	if runErr != nil {
		return sum, runErr
	}
	if err := r.writeArtifacts(sum); err != nil {
		return sum, err
	}
	return sum, nil
}

func (r *Runner) processFrame(f Frame) (outcome, error) {
	start := r.opts.Clock.Now()
	switch {
	case f.ImagePath == "":
		return r.skip(f.Stem, SkipMissingImage, nil), nil
	case f.RecordPath == "":
		return r.skip(f.Stem, SkipMissingRecord, nil), nil
	}

	imgData, err := r.fs.ReadFile(f.ImagePath)
	if err != nil {
		return r.skip(f.Stem, SkipReadError, err), nil
	}
	frame, err := render.DecodeFrame(bytes.NewReader(imgData))
	if err != nil {
		return r.skip(f.Stem, SkipDecodeError, err), nil
	}
	rec, err := r.fs.Open(f.RecordPath)
	if err != nil {
		return r.skip(f.Stem, SkipReadError, err), nil
	}
	parsed, err := lane.Parse(rec)
	rec.Close()
	if err != nil {
		return r.skip(f.Stem, SkipReadError, err), nil
	}
	for _, s := range parsed.Skipped {
		r.logf("%s: %s", f.Stem, s)
	}

	lanes := r.engine.ProjectAll(parsed.Lanes)
	out := r.overlay.Draw(frame, lanes)

	outPath := filepath.Join(r.opts.OutputDir, f.Stem+".png")
	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, out); err != nil {
		return outcome{}, fmt.Errorf("%s: %w", f.Stem, err)
	}
	if err := r.fs.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
		return outcome{}, fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	r.metrics.ObserveFrame(lanes, parsed.Skipped, r.opts.Clock.Since(start))
	return outcome{result: &FrameResult{
		Stem:    f.Stem,
		Output:  outPath,
		Lanes:   lanes,
		Skipped: parsed.Skipped,
	}}, nil
}

func (r *Runner) skip(stem string, reason SkipReason, err error) outcome {
	s := FrameSkip{Stem: stem, Reason: reason, Err: err}
	r.logf("skip %s", s)
	r.metrics.SkipFrame(string(reason))
	return outcome{skip: &s}
}

func (r *Runner) writeArtifacts(sum Summary) error {
	if r.opts.ReportPath != "" {
		var buf bytes.Buffer
		if err := render.WriteReport(&buf, "lane overlay "+r.opts.ImageDir, ReportRows(sum)); err != nil {
			return err
		}
		if err := r.fs.WriteFile(r.opts.ReportPath, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		r.logf("report written to %s", r.opts.ReportPath)
	}
	if r.opts.MetricsPath != "" {
		if err := r.metrics.WriteTextfile(r.opts.MetricsPath); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

// ReportRows turns the processed frames of a summary into report rows.
func ReportRows(sum Summary) []render.ReportRow {
	rows := make([]render.ReportRow, 0, len(sum.Frames))
	for _, f := range sum.Frames {
		row := render.ReportRow{Stem: f.Stem, SkippedPairs: len(f.Skipped)}
		for _, l := range f.Lanes {
			if l.Empty() {
				row.LanesEmpty++
			} else {
				row.LanesDrawn++
			}
			row.Points += len(l.Points)
			row.Culled += l.Culled
		}
		rows = append(rows, row)
	}
	return rows
}
