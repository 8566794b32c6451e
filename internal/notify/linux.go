//go:build linux

package notify

import (
	"fmt"
	"os/exec"
	"strconv"
)

// linuxNotifier sends notifications with notify-send.
type linuxNotifier struct{}

func newPlatformNotifier() Notifier {
	return &linuxNotifier{}
}

// IsSupported returns true if notify-send is available.
func (n *linuxNotifier) IsSupported() bool {
	_, err := exec.LookPath("notify-send")
	return err == nil
}

func (n *linuxNotifier) Send(note Notification) error {
	cmd := exec.Command("notify-send", notifySendArgs(note)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("notify-send failed: %w: %s", err, out)
	}
	return nil
}

// notifySendArgs builds the notify-send argument list. Sound support depends
// on the notification daemon.
func notifySendArgs(note Notification) []string {
	args := []string{"--app-name=" + AppName}
	if note.Timeout > 0 {
		args = append(args, "--expire-time="+strconv.FormatInt(note.Timeout.Milliseconds(), 10))
	}
	if note.Sound {
		args = append(args, "--urgency=normal", "--hint=string:sound-name:complete")
	}
	return append(args, note.Title, note.Message)
}
