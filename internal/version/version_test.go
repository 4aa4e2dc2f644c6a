package version

import "testing"

func TestString(t *testing.T) {
	oldV, oldSHA, oldTime := Version, GitSHA, BuildTime
	defer func() { Version, GitSHA, BuildTime = oldV, oldSHA, oldTime }()

	Version, GitSHA, BuildTime = "1.2.0", "abc1234", "2024-07-03T16:35:57Z"

	if got, want := String("lanebatch"), "lanebatch 1.2.0 (abc1234, built 2024-07-03T16:35:57Z)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
