package monitoring

import (
	"fmt"
	"testing"
)

func captureLogs(t *testing.T) *[]string {
	t.Helper()
	original := Logf
	t.Cleanup(func() { Logf = original })

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	return &lines
}

func TestSetLogger(t *testing.T) {
	lines := captureLogs(t)

	Logf("frame %s", "000001")
	if len(*lines) != 1 || (*lines)[0] != "frame 000001" {
		t.Fatalf("unexpected log lines: %q", *lines)
	}

	// nil installs a no-op logger
	SetLogger(nil)
	Logf("dropped")
	if len(*lines) != 1 {
		t.Errorf("no-op logger should not have recorded anything, got %q", *lines)
	}
}

func TestPrefixed(t *testing.T) {
	lines := captureLogs(t)

	logf := Prefixed("000042")
	logf("skipped %d pairs", 2)

	if got, want := (*lines)[0], "000042: skipped 2 pairs"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPrefixed_FollowsSetLogger(t *testing.T) {
	lines := captureLogs(t)
	logf := Prefixed("late")

	var other []string
	SetLogger(func(format string, v ...interface{}) {
		other = append(other, fmt.Sprintf(format, v...))
	})
	logf("hello")

	if len(*lines) != 0 || len(other) != 1 {
		t.Errorf("prefixed logger should use the current Logf, got %q and %q", *lines, other)
	}
}

func TestWarnf(t *testing.T) {
	lines := captureLogs(t)

	Warnf("extrinsic is not rigid (det=%.3f)", 1.2)

	if got, want := (*lines)[0], "warning: extrinsic is not rigid (det=1.200)"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf should not be nil by default")
	}
}
