package output

import (
	"fmt"
	"os/exec"
	"runtime"
)

// viewerCommand returns the program that opens path on goos.
func viewerCommand(goos, path string) (string, []string) {
	switch goos {
	case "windows":
		return "notepad", []string{path}
	case "darwin":
		return "open", []string{path}
	default:
		return "xdg-open", []string{path}
	}
}

// OpenViewer opens path with the platform's default viewer without waiting
// for it to exit.
func OpenViewer(path string) error {
	name, args := viewerCommand(runtime.GOOS, path)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", name, err)
	}
	go cmd.Wait()
	return nil
}
