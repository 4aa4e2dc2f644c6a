// Package projection turns lane polynomials into pixel polylines: sample in
// the vehicle-body frame, move into the camera frame with a rigid
// extrinsic, cull points at or behind the camera, project through a
// pinhole intrinsic.
package projection

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/golang/geo/r3"

	"github.com/AmazingWilson-hub/road-lane/internal/lane"
)

// ErrInvalidConfig marks a malformed intrinsic, extrinsic or engine setting.
// It is a caller bug and must stop processing before any frame is touched.
var ErrInvalidConfig = errors.New("invalid projection configuration")

// DefaultSamples is the number of samples taken along each lane.
const DefaultSamples = 100

// Rounding selects how continuous pixel coordinates become integers.
type Rounding int

const (
	// RoundNearest rounds half away from zero.
	RoundNearest Rounding = iota
	// RoundTruncate truncates toward zero, matching the original overlay tools.
	RoundTruncate
)

// String returns the config name of the rounding mode.
func (r Rounding) String() string {
	switch r {
	case RoundNearest:
		return "nearest"
	case RoundTruncate:
		return "truncate"
	default:
		return fmt.Sprintf("rounding(%d)", int(r))
	}
}

// ParseRounding maps a config name to a Rounding.
func ParseRounding(s string) (Rounding, error) {
	switch s {
	case "", "nearest":
		return RoundNearest, nil
	case "truncate":
		return RoundTruncate, nil
	default:
		return 0, fmt.Errorf("%w: unknown pixel rounding %q", ErrInvalidConfig, s)
	}
}

// ProjectedLane is the visible part of one lane in pixel space. Points keep
// the order in which the lane was sampled. Culled counts the samples
// dropped for lying at or behind the camera.
type ProjectedLane struct {
	Side   lane.Side
	Points []image.Point
	Culled int
}

// Empty reports whether nothing of the lane is visible.
func (p ProjectedLane) Empty() bool {
	return len(p.Points) == 0
}

// Engine projects lane descriptors for one camera setup. It holds no mutable
// state and may be shared between goroutines.
type Engine struct {
	extrinsic Transform
	intrinsic Intrinsic
	samples   int
	rounding  Rounding
}

// Option configures an Engine.
type Option func(*Engine)

// WithSamples sets the number of samples per lane.
func WithSamples(n int) Option {
	return func(e *Engine) { e.samples = n }
}

// WithRounding sets the pixel rounding mode.
func WithRounding(r Rounding) Option {
	return func(e *Engine) { e.rounding = r }
}

// NewEngine validates the camera setup and returns an engine. All failures
// wrap ErrInvalidConfig.
func NewEngine(extrinsic Transform, intrinsic Intrinsic, opts ...Option) (*Engine, error) {
	e := &Engine{
		extrinsic: extrinsic,
		intrinsic: intrinsic,
		samples:   DefaultSamples,
		rounding:  RoundNearest,
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := extrinsic.Validate(); err != nil {
		return nil, err
	}
	if err := intrinsic.Validate(); err != nil {
		return nil, err
	}
	if e.samples < 1 {
		return nil, fmt.Errorf("%w: samples per lane must be positive, got %d", ErrInvalidConfig, e.samples)
	}
	if e.rounding != RoundNearest && e.rounding != RoundTruncate {
		return nil, fmt.Errorf("%w: unknown rounding %v", ErrInvalidConfig, e.rounding)
	}
	return e, nil
}

// WithExtrinsic returns a copy of the engine using a different extrinsic.
func (e *Engine) WithExtrinsic(t Transform) (*Engine, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	cp := *e
	cp.extrinsic = t
	return &cp, nil
}

func (e *Engine) Extrinsic() Transform { return e.extrinsic }
func (e *Engine) Intrinsic() Intrinsic { return e.intrinsic }
func (e *Engine) Samples() int         { return e.samples }
func (e *Engine) Rounding() Rounding   { return e.rounding }

// Project returns the visible polyline of one lane. A lane whose samples
// are all culled yields an empty polyline.
func (e *Engine) Project(d lane.Descriptor) ProjectedLane {
	body := Sample(d, e.samples)
	out := ProjectedLane{
		Side:   d.Side,
		Points: make([]image.Point, 0, len(body)),
	}
	for _, p := range body {
		cam := e.extrinsic.Apply(p)
		// Written as !(Z > 0) so NaN depths are culled too.
		if !(cam.Z > 0) {
			out.Culled++
			continue
		}
		u, v := e.intrinsic.Project(cam)
		if !isFinite(u) || !isFinite(v) {
			out.Culled++
			continue
		}
		out.Points = append(out.Points, image.Point{X: e.toPixel(u), Y: e.toPixel(v)})
	}
	return out
}

// ProjectAll projects every descriptor, one ProjectedLane per descriptor in
// the same order.
func (e *Engine) ProjectAll(lanes []lane.Descriptor) []ProjectedLane {
	out := make([]ProjectedLane, 0, len(lanes))
	for _, d := range lanes {
		out = append(out, e.Project(d))
	}
	return out
}

// CameraPoints returns the camera-frame samples of a lane before culling.
func (e *Engine) CameraPoints(d lane.Descriptor) []r3.Vector {
	body := Sample(d, e.samples)
	for i, p := range body {
		body[i] = e.extrinsic.Apply(p)
	}
	return body
}

// Sample evaluates the lane polynomial at n evenly spaced x over
// [0, d.Length], both ends included, with z = 0. A single sample sits at
// x = 0. n < 1 yields nil.
func Sample(d lane.Descriptor, n int) []r3.Vector {
	if n < 1 {
		return nil
	}
	pts := make([]r3.Vector, n)
	if n == 1 {
		pts[0] = r3.Vector{X: 0, Y: d.Eval(0)}
		return pts
	}
	denom := float64(n - 1)
	for i := 0; i < n; i++ {
		x := d.Length * float64(i) / denom
		pts[i] = r3.Vector{X: x, Y: d.Eval(x)}
	}
	return pts
}

// pixel coordinates are clamped to the int32 range, as the original tools
// stored them.
func (e *Engine) toPixel(f float64) int {
	switch e.rounding {
	case RoundTruncate:
		f = math.Trunc(f)
	default:
		f = math.Round(f)
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
