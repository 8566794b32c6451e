//go:build linux

package notify

import (
	"reflect"
	"testing"
	"time"
)

func TestNotifySendArgs(t *testing.T) {
	tests := []struct {
		name string
		in   Notification
		want []string
	}{
		{
			name: "plain",
			in:   Notification{Title: "pomo", Message: "Timer paused."},
			want: []string{"--app-name=pomo", "pomo", "Timer paused."},
		},
		{
			name: "timeout and sound",
			in:   Notification{Title: "pomo", Message: "hi", Sound: true, Timeout: 5 * time.Second},
			want: []string{"--app-name=pomo", "--expire-time=5000", "--urgency=normal", "--hint=string:sound-name:complete", "pomo", "hi"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := notifySendArgs(tc.in); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("notifySendArgs() = %v, want %v", got, tc.want)
			}
		})
	}
}
