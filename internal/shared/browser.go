package shared

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Seams for tests.
var (
	goos     = func() string { return runtime.GOOS }
	lookPath = exec.LookPath
	startCmd = func(cmd *exec.Cmd) error { return cmd.Start() }
)

// ErrUnsupportedPlatform is returned when no browser launcher is known for
// the current operating system.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// OpenBrowser launches the user's browser at url. The BROWSER environment
// variable wins when set. On linux, wslview is preferred over xdg-open so
// links still land in the Windows browser under WSL.
func OpenBrowser(url string) error {
	if browser := os.Getenv("BROWSER"); browser != "" {
		return launch(exec.Command(browser, url))
	}

	switch system := goos(); system {
	case "darwin":
		return launch(exec.Command("open", url))
	case "windows":
		return launch(exec.Command("cmd", "/c", "start", url))
	case "linux":
		if _, err := lookPath("wslview"); err == nil {
			return launch(exec.Command("wslview", url))
		}
		return launch(exec.Command("xdg-open", url))
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedPlatform, system)
	}
}

func launch(cmd *exec.Cmd) error {
	if err := startCmd(cmd); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
