//go:build darwin

package notify

import (
	"fmt"
	"os/exec"
	"strings"
)

// darwinNotifier sends notifications with osascript.
type darwinNotifier struct{}

func newPlatformNotifier() Notifier {
	return &darwinNotifier{}
}

// IsSupported returns true if osascript is available.
func (n *darwinNotifier) IsSupported() bool {
	_, err := exec.LookPath("osascript")
	return err == nil
}

func (n *darwinNotifier) Send(note Notification) error {
	cmd := exec.Command("osascript", "-e", appleScript(note))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("osascript failed: %w: %s", err, out)
	}
	return nil
}

// appleScript builds the display notification statement. macOS ignores the
// timeout.
func appleScript(note Notification) string {
	script := `display notification "` + escapeAppleScript(note.Message) +
		`" with title "` + escapeAppleScript(note.Title) + `"`
	if note.Sound {
		script += ` sound name "Glass"`
	}
	return script
}

// escapeAppleScript escapes backslashes and quotes for AppleScript strings.
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
