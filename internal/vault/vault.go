// Package vault reads and writes markdown notes inside a vault directory.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pomo/internal/config"
	"pomo/internal/fsutil"
)

var (
	// ErrNoVault is returned when the vault directory does not exist.
	ErrNoVault = errors.New("vault directory not found")

	// ErrNotFound is returned when a note does not exist.
	ErrNotFound = errors.New("note not found")

	// ErrOutsideVault is returned for paths that escape the vault root.
	ErrOutsideVault = errors.New("path is outside the vault")
)

const (
	dirPerm  os.FileMode = 0755
	notePerm os.FileMode = 0644

	noteExt = ".md"
)

// SaveContext describes a write for semantic commit messages, e.g.
// "Log pomodoro: write docs".
type SaveContext struct {
	Path      string // vault-relative, slash separated
	Operation string // "log", "create", "write"
	Summary   string // first line of the written text, truncated
}

// Vault is a directory of markdown notes.
type Vault struct {
	root  string
	daily config.DailyConfig

	mu     sync.Mutex
	now    func() time.Time
	onSave func(SaveContext)
	active string
	// written holds notes this process logged to; they are never reported
	// as the active note.
	written map[string]struct{}
}

// Open returns a Vault rooted at dir, which must exist.
func Open(dir string, daily config.DailyConfig) (*Vault, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve vault path: %w", err)
	}
	if !fsutil.IsDir(abs) {
		return nil, fmt.Errorf("%w: %s", ErrNoVault, abs)
	}
	if daily.Format == "" {
		daily.Format = "2006-01-02"
	}
	return &Vault{
		root:    abs,
		daily:   daily,
		now:     time.Now,
		written: make(map[string]struct{}),
	}, nil
}

// Root returns the absolute vault directory.
func (v *Vault) Root() string {
	return v.root
}

// SetNowFunc overrides the clock used for daily notes. Passing nil resets it
// to time.Now.
func (v *Vault) SetNowFunc(now func() time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if now == nil {
		now = time.Now
	}
	v.now = now
}

// Now returns the current time according to the vault clock.
func (v *Vault) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now()
}

// SetOnSave registers a callback run after every successful write.
// It is used for git auto-commit.
func (v *Vault) SetOnSave(fn func(SaveContext)) {
	v.mu.Lock()
	v.onSave = fn
	v.mu.Unlock()
}

// Resolve maps a vault-relative path to an absolute one.
func (v *Vault) Resolve(rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %q", ErrOutsideVault, rel)
	}
	abs := filepath.Join(v.root, filepath.FromSlash(rel))
	r, err := filepath.Rel(v.root, abs)
	if err != nil || r == "." || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideVault, rel)
	}
	return abs, nil
}

// Exists reports whether a note exists.
func (v *Vault) Exists(rel string) bool {
	abs, err := v.Resolve(rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

// Read returns the contents of a note.
func (v *Vault) Read(rel string) (string, error) {
	abs, err := v.Resolve(rel)
	if err != nil {
		return "", err
	}
	data, exists, err := fsutil.ReadFileOrEmpty(abs)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rel, err)
	}
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrNotFound, rel)
	}
	return string(data), nil
}

// Write replaces the contents of a note, creating it and its folder.
func (v *Vault) Write(rel, content string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.writeLocked(rel, content); err != nil {
		return err
	}
	v.notifyLocked(SaveContext{Path: filepath.ToSlash(rel), Operation: "write", Summary: summarize(content)})
	return nil
}

// Prepend inserts text at the top of a note, creating it if missing. A
// single newline separates text from non-empty existing content.
func (v *Vault) Prepend(rel, text string) error {
	return v.edit(rel, "log", text, func(existing string) string {
		if existing == "" {
			return text
		}
		return text + "\n" + existing
	})
}

// Append adds text at the end of a note, creating it if missing. A single
// newline separates text from non-empty existing content.
func (v *Vault) Append(rel, text string) error {
	return v.edit(rel, "log", text, func(existing string) string {
		if existing == "" {
			return text
		}
		return existing + "\n" + text
	})
}

func (v *Vault) edit(rel, op, text string, apply func(existing string) string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	abs, err := v.Resolve(rel)
	if err != nil {
		return err
	}
	data, _, err := fsutil.ReadFileOrEmpty(abs)
	if err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}
	if err := v.writeLocked(rel, apply(string(data))); err != nil {
		return err
	}

	key := filepath.ToSlash(rel)
	v.written[key] = struct{}{}
	v.notifyLocked(SaveContext{Path: key, Operation: op, Summary: summarize(text)})
	return nil
}

func (v *Vault) writeLocked(rel, content string) error {
	abs, err := v.Resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), dirPerm); err != nil {
		return fmt.Errorf("create folder for %s: %w", rel, err)
	}
	if err := fsutil.WriteFileAtomic(abs, []byte(content), notePerm); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

func (v *Vault) notifyLocked(sc SaveContext) {
	if v.onSave != nil {
		v.onSave(sc)
	}
}

// DailyNotePath returns the vault-relative path of the daily note for t.
func (v *Vault) DailyNotePath(t time.Time) string {
	name := t.Format(v.daily.Format) + noteExt
	if v.daily.Folder == "" {
		return name
	}
	return filepath.ToSlash(filepath.Join(v.daily.Folder, name))
}

// DailyNote returns today's daily note, creating it from the configured
// template when it does not exist yet.
func (v *Vault) DailyNote() (string, error) {
	now := v.Now()
	rel := v.DailyNotePath(now)
	if v.Exists(rel) {
		return rel, nil
	}

	content := ""
	if v.daily.Template != "" {
		tmpl, err := v.Read(ensureExt(v.daily.Template))
		if err != nil {
			return "", fmt.Errorf("daily note template: %w", err)
		}
		content = expandDailyTemplate(tmpl, now, v.daily.Format)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.writeLocked(rel, content); err != nil {
		return "", fmt.Errorf("create daily note: %w", err)
	}
	v.notifyLocked(SaveContext{Path: rel, Operation: "create", Summary: "daily note"})
	return rel, nil
}

func expandDailyTemplate(tmpl string, now time.Time, format string) string {
	r := strings.NewReplacer(
		"{{date}}", now.Format(format),
		"{{title}}", now.Format(format),
		"{{time}}", now.Format("15:04"),
	)
	return r.Replace(tmpl)
}

// SetActiveNote pins the note reported by ActiveNote. An empty path
// restores detection by modification time.
func (v *Vault) SetActiveNote(rel string) {
	v.mu.Lock()
	v.active = filepath.ToSlash(rel)
	v.mu.Unlock()
}

// ActiveNote returns the pinned note, or the most recently modified note
// that this process has not logged to. Hidden folders are skipped.
func (v *Vault) ActiveNote() (string, bool) {
	v.mu.Lock()
	pinned := v.active
	written := make(map[string]struct{}, len(v.written))
	for k := range v.written {
		written[k] = struct{}{}
	}
	v.mu.Unlock()

	if pinned != "" {
		return pinned, true
	}

	var best string
	var bestMod time.Time
	_ = filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != v.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), noteExt) {
			return nil
		}
		rel, err := filepath.Rel(v.root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if _, ok := written[rel]; ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if best == "" || info.ModTime().After(bestMod) {
			best, bestMod = rel, info.ModTime()
		}
		return nil
	})
	return best, best != ""
}

// MarkdownLink renders a wiki link to a note: [[name]] for notes at the
// vault root, [[folder/name]] otherwise.
func (v *Vault) MarkdownLink(rel string) string {
	rel = strings.TrimSuffix(filepath.ToSlash(rel), noteExt)
	return "[[" + rel + "]]"
}

func ensureExt(rel string) string {
	if strings.EqualFold(filepath.Ext(rel), noteExt) {
		return rel
	}
	return rel + noteExt
}

// summarize returns the first line of text, truncated for commit messages.
func summarize(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	const maxLen = 60
	r := []rune(line)
	if len(r) <= maxLen {
		return line
	}
	return string(r[:maxLen-1]) + "…"
}
