package shared

import (
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func TestOpenBrowser(t *testing.T) {
	origGoos, origLookPath, origStart := goos, lookPath, startCmd
	t.Cleanup(func() {
		goos, lookPath, startCmd = origGoos, origLookPath, origStart
	})

	var launched []string
	startCmd = func(cmd *exec.Cmd) error {
		launched = cmd.Args
		return nil
	}
	lookPath = func(file string) (string, error) {
		return "", exec.ErrNotFound
	}
	t.Setenv("BROWSER", "")

	t.Run("honors the BROWSER variable", func(t *testing.T) {
		t.Setenv("BROWSER", "firefox")

		if err := OpenBrowser("https://example.com"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(launched) != 2 || launched[0] != "firefox" || launched[1] != "https://example.com" {
			t.Errorf("expected firefox with the url, got %v", launched)
		}
	})

	t.Run("uses open on darwin", func(t *testing.T) {
		goos = func() string { return "darwin" }

		if err := OpenBrowser("https://example.com"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(launched) == 0 || launched[0] != "open" {
			t.Errorf("expected open, got %v", launched)
		}
	})

	t.Run("uses cmd start on windows", func(t *testing.T) {
		goos = func() string { return "windows" }

		if err := OpenBrowser("https://example.com"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(launched) < 3 || launched[0] != "cmd" || launched[2] != "start" {
			t.Errorf("expected cmd /c start, got %v", launched)
		}
	})

	t.Run("prefers wslview on linux when installed", func(t *testing.T) {
		goos = func() string { return "linux" }
		lookPath = func(file string) (string, error) { return "/usr/bin/" + file, nil }
		t.Cleanup(func() {
			lookPath = func(file string) (string, error) { return "", exec.ErrNotFound }
		})

		if err := OpenBrowser("https://example.com"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(launched) == 0 || launched[0] != "wslview" {
			t.Errorf("expected wslview, got %v", launched)
		}
	})

	t.Run("falls back to xdg-open on linux", func(t *testing.T) {
		goos = func() string { return "linux" }

		if err := OpenBrowser("https://example.com"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(launched) == 0 || launched[0] != "xdg-open" {
			t.Errorf("expected xdg-open, got %v", launched)
		}
	})

	t.Run("rejects unknown platforms", func(t *testing.T) {
		goos = func() string { return "plan9" }

		err := OpenBrowser("https://example.com")
		if !errors.Is(err, ErrUnsupportedPlatform) {
			t.Fatalf("expected ErrUnsupportedPlatform, got %v", err)
		}
	})

	t.Run("wraps launch failures", func(t *testing.T) {
		goos = func() string { return "darwin" }
		startCmd = func(cmd *exec.Cmd) error { return errors.New("exec format error") }

		err := OpenBrowser("https://example.com")
		if err == nil {
			t.Fatal("expected error from failing launcher")
		}
		if !strings.Contains(err.Error(), "failed to open browser") {
			t.Errorf("expected launch error, got %v", err)
		}
	})
}
