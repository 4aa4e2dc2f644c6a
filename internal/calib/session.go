// Package calib holds the interactive extrinsic calibration session: six
// rigid-body parameters, the lanes of one frame, and the projection that is
// rebuilt whenever a parameter changes.
package calib

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/AmazingWilson-hub/road-lane/internal/lane"
	"github.com/AmazingWilson-hub/road-lane/internal/monitoring"
	"github.com/AmazingWilson-hub/road-lane/internal/projection"
)

// Param names one of the six tunable parameters.
type Param string

const (
	ParamTX    Param = "tx"
	ParamTY    Param = "ty"
	ParamTZ    Param = "tz"
	ParamRoll  Param = "roll"
	ParamPitch Param = "pitch"
	ParamYaw   Param = "yaw"
)

// AllParams lists every parameter in display order.
var AllParams = []Param{ParamTX, ParamTY, ParamTZ, ParamRoll, ParamPitch, ParamYaw}

// Unit returns the unit the parameter is expressed in.
func (p Param) Unit() string {
	switch p {
	case ParamTX, ParamTY, ParamTZ:
		return "m"
	default:
		return "deg"
	}
}

// ParseParam resolves a parameter name, ignoring case.
func ParseParam(s string) (Param, error) {
	p := Param(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllParams {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown parameter %q (want one of tx, ty, tz, roll, pitch, yaw)", s)
}

func get(ps projection.Params, p Param) float64 {
	switch p {
	case ParamTX:
		return ps.TX
	case ParamTY:
		return ps.TY
	case ParamTZ:
		return ps.TZ
	case ParamRoll:
		return ps.Roll
	case ParamPitch:
		return ps.Pitch
	default:
		return ps.Yaw
	}
}

func set(ps *projection.Params, p Param, v float64) {
	switch p {
	case ParamTX:
		ps.TX = v
	case ParamTY:
		ps.TY = v
	case ParamTZ:
		ps.TZ = v
	case ParamRoll:
		ps.Roll = v
	case ParamPitch:
		ps.Pitch = v
	case ParamYaw:
		ps.Yaw = v
	}
}

// Update is the result of a parameter change.
type Update struct {
	Params    projection.Params
	Transform projection.Transform
	Lanes     []projection.ProjectedLane
}

// Session is a single calibration run over one frame. It is not safe for
// concurrent use.
type Session struct {
	id      uuid.UUID
	base    *projection.Engine
	engine  *projection.Engine
	lanes   []lane.Descriptor
	initial projection.Params
	params  projection.Params
	logf    func(format string, v ...interface{})
}

// NewSession starts a session at the initial parameters. The engine
// supplies the intrinsic matrix, sampling and rounding; its extrinsic is
// replaced by the one built from the parameters.
func NewSession(engine *projection.Engine, lanes []lane.Descriptor, initial projection.Params) (*Session, error) {
	if engine == nil {
		return nil, fmt.Errorf("calibration session needs an engine")
	}
	id := uuid.New()
	s := &Session{
		id:      id,
		base:    engine,
		lanes:   lanes,
		initial: initial,
		logf:    monitoring.Prefixed("calib " + id.String()[:8]),
	}
	if _, err := s.apply(initial); err != nil {
		return nil, err
	}
	s.logf("started with %d lanes", len(lanes))
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Params returns the current parameters.
func (s *Session) Params() projection.Params { return s.params }

// Transform returns the extrinsic built from the current parameters.
func (s *Session) Transform() projection.Transform { return s.engine.Extrinsic() }

// Engine returns the engine for the current parameters.
func (s *Session) Engine() *projection.Engine { return s.engine }

// Lanes returns the current frame's projected lanes.
func (s *Session) Lanes() []projection.ProjectedLane { return s.engine.ProjectAll(s.lanes) }

// Set changes one parameter, rebuilds the extrinsic and re-projects the
// frame. On error the session is unchanged.
func (s *Session) Set(p Param, value float64) (Update, error) {
	if _, err := ParseParam(string(p)); err != nil {
		return Update{}, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Update{}, fmt.Errorf("%s: value must be finite, got %v", p, value)
	}
	next := s.params
	set(&next, p, value)
	u, err := s.apply(next)
	if err != nil {
		return Update{}, err
	}
	s.logf("%s=%g %s", p, value, p.Unit())
	return u, nil
}

// Reset returns every parameter to its initial value.
func (s *Session) Reset() (Update, error) {
	u, err := s.apply(s.initial)
	if err != nil {
		return Update{}, err
	}
	s.logf("reset")
	return u, nil
}

func (s *Session) apply(ps projection.Params) (Update, error) {
	t := projection.BuildTransform(ps)
	e, err := s.base.WithExtrinsic(t)
	if err != nil {
		return Update{}, err
	}
	s.engine = e
	s.params = ps
	return Update{Params: ps, Transform: t, Lanes: e.ProjectAll(s.lanes)}, nil
}

// String renders the parameters and the extrinsic as tables.
func (s *Session) String() string {
	pt := table.NewWriter()
	pt.AppendHeader(table.Row{"Param", "Value", "Unit"})
	for _, p := range AllParams {
		pt.AppendRow(table.Row{string(p), fmt.Sprintf("%.3f", get(s.params, p)), p.Unit()})
	}

	mt := table.NewWriter()
	mt.SetTitle("extrinsic (body to camera)")
	t := s.Transform()
	for i := 0; i < 4; i++ {
		row := make(table.Row, 4)
		for j := range row {
			row[j] = fmt.Sprintf("%.6f", t.At(i, j))
		}
		mt.AppendRow(row)
	}
	return fmt.Sprintf("session %s\n%s\n%s", s.id, pt.Render(), mt.Render())
}
