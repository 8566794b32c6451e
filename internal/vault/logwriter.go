package vault

import (
	"context"
	"fmt"

	"pomo/internal/config"
)

// LogWriter writes pomodoro log entries to the configured note: today's
// daily note or a fixed log file. Entries are always prepended.
type LogWriter struct {
	vault    *Vault
	settings func() config.Settings
}

// NewLogWriter creates a LogWriter. settings is consulted on every write so
// reloaded settings take effect immediately.
func NewLogWriter(v *Vault, settings func() config.Settings) *LogWriter {
	return &LogWriter{vault: v, settings: settings}
}

// Target returns the vault-relative note the next entry goes to. For daily
// logging the note is created if needed.
func (w *LogWriter) Target() (string, error) {
	s := w.settings()
	if s.LogToDaily {
		return w.vault.DailyNote()
	}
	if s.LogFile == "" {
		return "", fmt.Errorf("%w: no log file configured", config.ErrInvalidSettings)
	}
	return s.LogFile, nil
}

// WriteEntry prepends text to the log note.
func (w *LogWriter) WriteEntry(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := w.Target()
	if err != nil {
		return err
	}
	if err := w.vault.Prepend(rel, text); err != nil {
		return fmt.Errorf("prepend to %s: %w", rel, err)
	}
	return nil
}
