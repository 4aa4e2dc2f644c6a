package main

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmazingWilson-hub/road-lane/internal/calib"
	"github.com/AmazingWilson-hub/road-lane/internal/fsutil"
	"github.com/AmazingWilson-hub/road-lane/internal/lane"
	"github.com/AmazingWilson-hub/road-lane/internal/projection"
	"github.com/AmazingWilson-hub/road-lane/internal/render"
)

func newTuner(t *testing.T) (*tuner, *fsutil.MemoryFileSystem) {
	t.Helper()
	engine, err := projection.NewEngine(projection.Identity(), projection.NewIntrinsic(177, 177, 80, 45))
	require.NoError(t, err)
	session, err := calib.NewSession(engine, lane.ParseString("0,0.9,1,0,50\n0.0,0.1,0.0\n"), projection.Params{})
	require.NoError(t, err)

	fs := fsutil.NewMemoryFileSystem()
	return &tuner{
		fs:           fs,
		session:      session,
		frame:        image.NewRGBA(image.Rect(0, 0, 160, 90)),
		overlay:      render.Overlay{LineWidth: 3},
		outPath:      "/work/overlay.png",
		extrinsicOut: "/work/current_extrinsic.txt",
	}, fs
}

func TestRun_SetWritesArtifacts(t *testing.T) {
	tu, fs := newTuner(t)
	var out bytes.Buffer

	err := tu.run(strings.NewReader("tz 5\nquit\nyaw 90\n"), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "tz = 5 m, 1 lanes visible")
	assert.True(t, fs.Exists("/work/overlay.png"))

	data, err := fs.ReadFile("/work/current_extrinsic.txt")
	require.NoError(t, err)
	ext, err := projection.ReadTransform(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 5.0, ext.At(2, 3))

	// Nothing after quit is applied.
	assert.Equal(t, 0.0, tu.session.Params().Yaw)
}

func TestRun_ErrorsKeepLooping(t *testing.T) {
	tu, fs := newTuner(t)
	var out bytes.Buffer

	err := tu.run(strings.NewReader("zoom 3\ntx abc\n\n# note\nroll 2\n"), &out)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out.String(), "error:"))
	assert.Equal(t, 2.0, tu.session.Params().Roll)
	assert.True(t, fs.Exists("/work/current_extrinsic.txt"))
}

func TestRun_ShowResetSave(t *testing.T) {
	tu, fs := newTuner(t)
	var out bytes.Buffer

	err := tu.run(strings.NewReader("tx 1.5\nreset\nsave /work/saved.txt\nshow\nhelp\n"), &out)
	require.NoError(t, err)

	assert.Equal(t, projection.Params{}, tu.session.Params())
	data, err := fs.ReadFile("/work/saved.txt")
	require.NoError(t, err)
	ext, err := projection.ReadTransform(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, projection.Identity(), ext)

	assert.Contains(t, out.String(), "saved /work/saved.txt")
	assert.Contains(t, out.String(), tu.session.ID().String())
	assert.Contains(t, out.String(), "commands:")
}

func TestVisible(t *testing.T) {
	assert.Equal(t, 1, visible([]projection.ProjectedLane{
		{Points: []image.Point{{1, 1}}},
		{Culled: 100},
	}))
}

func TestRun_SaveOutsideDirRejected(t *testing.T) {
	tu, _ := newTuner(t)
	dir := t.TempDir()
	tu.fs = fsutil.OSFileSystem{}
	tu.outPath = filepath.Join(dir, "overlay.png")
	tu.extrinsicOut = filepath.Join(dir, "current_extrinsic.txt")
	tu.saveDir = dir
	var out bytes.Buffer

	err := tu.run(strings.NewReader("save ../stolen.txt\nsave "+filepath.Join(dir, "kept.txt")+"\n"), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "path traversal detected")
	_, statErr := os.Stat(filepath.Join(dir, "kept.txt"))
	assert.NoError(t, statErr)
}
