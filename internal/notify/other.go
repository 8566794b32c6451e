//go:build !darwin && !linux

package notify

// newPlatformNotifier returns nil; New falls back to a no-op notifier.
func newPlatformNotifier() Notifier {
	return nil
}
