package calib

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmazingWilson-hub/road-lane/internal/lane"
	"github.com/AmazingWilson-hub/road-lane/internal/projection"
)

var frameLanes = []lane.Descriptor{
	{Coefficients: []float64{1.8}, Length: 40, Confidence: 0.9, Side: lane.SideRight},
	{Coefficients: []float64{-1.7, 0.002}, Length: 35, Confidence: 0.7, Side: lane.SideLeft},
}

func newSession(t *testing.T, initial projection.Params) *Session {
	t.Helper()
	e, err := projection.NewEngine(projection.Identity(), projection.NewIntrinsic(1418.667, 1418.667, 640, 360))
	require.NoError(t, err)
	s, err := NewSession(e, frameLanes, initial)
	require.NoError(t, err)
	return s
}

func TestNewSession_ZeroParamsIsIdentity(t *testing.T) {
	s := newSession(t, projection.Params{})

	assert.Equal(t, projection.Identity(), s.Transform())
	assert.Equal(t, projection.Params{}, s.Params())
	// Identity puts the ground plane in the camera's focal plane.
	for _, l := range s.Lanes() {
		assert.True(t, l.Empty())
		assert.Equal(t, projection.DefaultSamples, l.Culled)
	}
}

func TestNewSession_NilEngine(t *testing.T) {
	_, err := NewSession(nil, frameLanes, projection.Params{})
	assert.Error(t, err)
}

func TestSession_SetReprojects(t *testing.T) {
	s := newSession(t, projection.Params{})

	u, err := s.Set(ParamTZ, 5)
	require.NoError(t, err)

	assert.Equal(t, 5.0, u.Params.TZ)
	assert.Equal(t, 5.0, u.Transform.At(2, 3))
	assert.Equal(t, u.Transform, s.Transform())
	require.Len(t, u.Lanes, 2)
	for i, l := range u.Lanes {
		assert.Len(t, l.Points, projection.DefaultSamples, "lane %d", i)
		assert.Equal(t, frameLanes[i].Side, l.Side)
	}

	u, err = s.Set(ParamYaw, 90)
	require.NoError(t, err)
	assert.Equal(t, projection.BuildTransform(projection.Params{TZ: 5, Yaw: 90}), u.Transform)
	assert.Equal(t, projection.Params{TZ: 5, Yaw: 90}, s.Params())
}

func TestSession_SetRejectsLeavesStateUnchanged(t *testing.T) {
	s := newSession(t, projection.Params{TZ: 2})
	before := s.Transform()

	_, err := s.Set(Param("zoom"), 1)
	assert.ErrorContains(t, err, "unknown parameter")

	_, err = s.Set(ParamRoll, math.NaN())
	assert.ErrorContains(t, err, "finite")

	_, err = s.Set(ParamTX, math.Inf(-1))
	assert.Error(t, err)

	assert.Equal(t, before, s.Transform())
	assert.Equal(t, projection.Params{TZ: 2}, s.Params())
}

func TestSession_Reset(t *testing.T) {
	initial := projection.Params{TX: 0.07, TZ: 1.15, Pitch: -3}
	s := newSession(t, initial)

	_, err := s.Set(ParamPitch, 12)
	require.NoError(t, err)
	_, err = s.Set(ParamTY, -0.4)
	require.NoError(t, err)

	u, err := s.Reset()
	require.NoError(t, err)
	assert.Equal(t, initial, u.Params)
	assert.Equal(t, projection.BuildTransform(initial), s.Transform())
}

func TestSession_String(t *testing.T) {
	s := newSession(t, projection.Params{})
	_, err := s.Set(ParamTZ, 5)
	require.NoError(t, err)

	out := s.String()
	assert.Contains(t, out, s.ID().String())
	assert.Contains(t, out, "tz")
	assert.Contains(t, out, "5.000")
	assert.Contains(t, out, "5.000000")
	assert.Contains(t, out, "deg")
}

func TestParseParam(t *testing.T) {
	p, err := ParseParam(" Pitch ")
	require.NoError(t, err)
	assert.Equal(t, ParamPitch, p)
	assert.Equal(t, "deg", p.Unit())
	assert.Equal(t, "m", ParamTY.Unit())

	_, err = ParseParam("x")
	assert.Error(t, err)
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    Command
		ok      bool
		wantErr bool
	}{
		{line: "tx 0.25", want: Command{Kind: CmdSet, Param: ParamTX, Value: 0.25}, ok: true},
		{line: "  YAW   -1.5e1 ", want: Command{Kind: CmdSet, Param: ParamYaw, Value: -15}, ok: true},
		{line: "show", want: Command{Kind: CmdShow}, ok: true},
		{line: "reset", want: Command{Kind: CmdReset}, ok: true},
		{line: "save", want: Command{Kind: CmdSave}, ok: true},
		{line: "save /tmp/ext.txt", want: Command{Kind: CmdSave, Path: "/tmp/ext.txt"}, ok: true},
		{line: "q", want: Command{Kind: CmdQuit}, ok: true},
		{line: "help", want: Command{Kind: CmdHelp}, ok: true},
		{line: "", want: Command{Kind: CmdShow}, ok: false},
		{line: "# comment", want: Command{Kind: CmdShow}, ok: false},
		{line: "tx", ok: true, wantErr: true},
		{line: "tx abc", ok: true, wantErr: true},
		{line: "tx 1 2", ok: true, wantErr: true},
		{line: "zoom 2", ok: true, wantErr: true},
		{line: "reset now", ok: true, wantErr: true},
		{line: "save a b", ok: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok, err := ParseCommand(tt.line)
			assert.Equal(t, tt.ok, ok)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
