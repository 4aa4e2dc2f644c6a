package render

import (
	"fmt"
	"image"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/AmazingWilson-hub/road-lane/internal/lane"
	"github.com/AmazingWilson-hub/road-lane/internal/projection"
)

// Debug plot size.
const (
	PlotWidth  = 8 * vg.Inch
	PlotHeight = 6 * vg.Inch
)

// PlotBirdsEye writes a PNG of the lane curves in the body frame, lateral
// offset against forward distance, sampled n times per lane.
func PlotBirdsEye(w io.Writer, lanes []lane.Descriptor, n int) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Lane curves (%d lanes)", len(lanes))
	p.X.Label.Text = "Lateral y (m)"
	p.Y.Label.Text = "Forward x (m)"
	p.Add(plotter.NewGrid())

	for i, d := range lanes {
		samples := projection.Sample(d, n)
		if len(samples) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(samples))
		for j, s := range samples {
			pts[j] = plotter.XY{X: s.Y, Y: s.X}
		}
		if err := addLine(p, pts, d.Side, fmt.Sprintf("%d %s", i, d.Side)); err != nil {
			return err
		}
	}
	return writePlot(w, p)
}

// PlotPixels writes a PNG of projected lanes in pixel coordinates, with the
// v axis pointing down as it does in the image.
func PlotPixels(w io.Writer, lanes []projection.ProjectedLane, frame image.Rectangle) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Projected lanes (%dx%d)", frame.Dx(), frame.Dy())
	p.X.Label.Text = "u (px)"
	p.Y.Label.Text = "v (px)"
	p.X.Min, p.X.Max = float64(frame.Min.X), float64(frame.Max.X)
	p.Y.Min, p.Y.Max = float64(frame.Min.Y), float64(frame.Max.Y)
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	p.Add(plotter.NewGrid())

	for i, l := range lanes {
		if l.Empty() {
			continue
		}
		pts := make(plotter.XYs, len(l.Points))
		for j, pt := range l.Points {
			pts[j] = plotter.XY{X: float64(pt.X), Y: float64(pt.Y)}
		}
		if err := addLine(p, pts, l.Side, fmt.Sprintf("%d %s", i, l.Side)); err != nil {
			return err
		}
	}
	return writePlot(w, p)
}

func addLine(p *plot.Plot, pts plotter.XYs, side lane.Side, label string) error {
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to build line %q: %w", label, err)
	}
	line.Color = SideColor(side)
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}

func writePlot(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(PlotWidth, PlotHeight, "png")
	if err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return nil
}
