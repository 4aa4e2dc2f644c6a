// Package render draws projected lanes onto camera frames and produces the
// debug artefacts of the overlay tools.
package render

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/AmazingWilson-hub/road-lane/internal/lane"
	"github.com/AmazingWilson-hub/road-lane/internal/projection"
)

// Lane colours by side tag.
var (
	ColorRight   = color.RGBA{R: 255, A: 255}
	ColorLeft    = color.RGBA{B: 255, A: 255}
	ColorDefault = color.RGBA{G: 255, A: 255}
)

// SideColor returns the render colour for a side tag: right lanes red,
// left lanes blue, everything else green.
func SideColor(s lane.Side) color.RGBA {
	switch s {
	case lane.SideRight:
		return ColorRight
	case lane.SideLeft:
		return ColorLeft
	default:
		return ColorDefault
	}
}

// Overlay draws lanes as open polylines.
type Overlay struct {
	LineWidth float64
	// Color overrides SideColor for every lane when set.
	Color color.Color
}

// Draw returns a copy of frame with the lanes drawn on top. The input frame
// is not modified. Lanes with no points draw nothing; a single point is
// drawn as a dot.
func (o Overlay) Draw(frame image.Image, lanes []projection.ProjectedLane) *image.RGBA {
	dc := gg.NewContextForImage(frame)
	dc.SetLineWidth(o.LineWidth)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()

	// Segments are clipped to the frame grown by the line width so that
	// pixels near the focal plane do not overflow the rasteriser.
	pad := o.LineWidth + 1
	b := frame.Bounds()
	clip := box{
		minX: float64(b.Min.X) - pad, minY: float64(b.Min.Y) - pad,
		maxX: float64(b.Max.X) + pad, maxY: float64(b.Max.Y) + pad,
	}

	for _, l := range lanes {
		if l.Empty() {
			continue
		}
		if o.Color != nil {
			dc.SetColor(o.Color)
		} else {
			dc.SetColor(SideColor(l.Side))
		}
		if len(l.Points) == 1 {
			p := l.Points[0]
			if clip.contains(float64(p.X), float64(p.Y)) {
				dc.DrawPoint(float64(p.X), float64(p.Y), o.LineWidth/2)
				dc.Fill()
			}
			continue
		}
		tracePolyline(dc, l.Points, clip)
		dc.Stroke()
	}
	return dc.Image().(*image.RGBA)
}

// tracePolyline adds the visible parts of the polyline to the current path,
// starting a new subpath wherever clipping breaks continuity.
func tracePolyline(dc *gg.Context, pts []image.Point, clip box) {
	var (
		penX, penY float64
		penDown    bool
	)
	for i := 1; i < len(pts); i++ {
		x0, y0 := float64(pts[i-1].X), float64(pts[i-1].Y)
		x1, y1 := float64(pts[i].X), float64(pts[i].Y)
		cx0, cy0, cx1, cy1, ok := clip.segment(x0, y0, x1, y1)
		if !ok {
			penDown = false
			continue
		}
		if !penDown || cx0 != penX || cy0 != penY {
			dc.MoveTo(cx0, cy0)
		}
		dc.LineTo(cx1, cy1)
		penX, penY, penDown = cx1, cy1, true
	}
}

type box struct {
	minX, minY, maxX, maxY float64
}

func (b box) contains(x, y float64) bool {
	return x >= b.minX && x <= b.maxX && y >= b.minY && y <= b.maxY
}

// segment clips the segment (x0,y0)-(x1,y1) to the box (Liang-Barsky).
func (b box) segment(x0, y0, x1, y1 float64) (float64, float64, float64, float64, bool) {
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, x0 - b.minX},
		{dx, b.maxX - x0},
		{-dy, y0 - b.minY},
		{dy, b.maxY - y0},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			if r < t1 {
				t1 = r
			}
		}
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}
