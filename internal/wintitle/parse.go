package wintitle

import (
	"fmt"
	"strings"
)

func powershellScript(processes []string) string {
	return fmt.Sprintf(
		"Get-Process -Name %s -ErrorAction SilentlyContinue | Where-Object { $_.MainWindowTitle } | ForEach-Object { $_.MainWindowTitle }",
		strings.Join(processes, ","),
	)
}

// appleScript prints one window name per line for app, or nothing when the
// app is not running.
func appleScript(app string) string {
	return fmt.Sprintf(`tell application "System Events"
	if exists process %[1]q then
		set out to ""
		repeat with w in (windows of process %[1]q)
			set out to out & (name of w) & linefeed
		end repeat
		return out
	end if
end tell`, app)
}

func parseLines(out []byte) []string {
	var titles []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			titles = append(titles, line)
		}
	}
	return titles
}

// parseWmctrl reads `wmctrl -lx` output:
//
//	0x03a00003  0 google-chrome.Google-chrome  host Title of tab - Google Chrome
//
// and keeps titles whose WM_CLASS mentions one of classes.
func parseWmctrl(out []byte, classes []string) []string {
	var titles []string
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		class := strings.ToLower(fields[2])
		if !matchesAny(class, classes) {
			continue
		}

		// The title is everything after the host column, spacing preserved.
		rest := line
		for i := 0; i < 4; i++ {
			rest = strings.TrimLeft(rest, " \t")
			if j := strings.IndexAny(rest, " \t"); j >= 0 {
				rest = rest[j:]
			} else {
				rest = ""
			}
		}
		if title := strings.TrimSpace(rest); title != "" {
			titles = append(titles, title)
		}
	}
	return titles
}

func matchesAny(class string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(class, strings.ToLower(f)) {
			return true
		}
	}
	return false
}
