// Package backup keeps timestamped snapshots of the interval history
// database and restores them.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"pomo/internal/fsutil"
	"pomo/internal/history"
)

// Version constants for the backup format.
const (
	ManifestVersion = "1.0"
	ManifestFile    = "manifest.json"
	BackupsDir      = "backups"
	HistoryFile     = "history.db"
)

var (
	// ErrNotFound is returned for an unknown backup name.
	ErrNotFound = errors.New("backup not found")

	// ErrNoBackups is returned by RestoreLatest when nothing was backed up.
	ErrNoBackups = errors.New("no backups available")
)

// Manager handles backup and restore of the history database in a data
// directory.
type Manager struct {
	dataDir    string
	backupDir  string
	appVersion string
	now        func() time.Time
}

// Manifest contains metadata about a backup.
type Manifest struct {
	Version    string    `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	AppVersion string    `json:"app_version"`
	Intervals  int       `json:"intervals"`
}

// Info summarizes one backup.
type Info struct {
	Name      string // Directory name (2025-12-15_143022_123)
	Path      string
	CreatedAt time.Time
	Intervals int
}

// NewManager creates a manager for the history database in dataDir.
func NewManager(dataDir, appVersion string) *Manager {
	return &Manager{
		dataDir:    dataDir,
		backupDir:  filepath.Join(dataDir, BackupsDir),
		appVersion: appVersion,
		now:        time.Now,
	}
}

// HistoryPath returns the live database path.
func (m *Manager) HistoryPath() string {
	return filepath.Join(m.dataDir, HistoryFile)
}

// Create snapshots store into a new backup and returns its name.
func (m *Manager) Create(ctx context.Context, store *history.Store) (string, error) {
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	now := m.now()
	name := fmt.Sprintf("%s_%03d", now.Format("2006-01-02_150405"), now.Nanosecond()/1e6)
	backupPath := filepath.Join(m.backupDir, name)
	if err := os.Mkdir(backupPath, 0700); err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}

	if err := store.Snapshot(ctx, filepath.Join(backupPath, HistoryFile)); err != nil {
		_ = os.RemoveAll(backupPath)
		return "", err
	}
	count, err := store.Count(ctx)
	if err != nil {
		_ = os.RemoveAll(backupPath)
		return "", err
	}

	manifest := Manifest{
		Version:    ManifestVersion,
		CreatedAt:  now,
		AppVersion: m.appVersion,
		Intervals:  count,
	}
	if err := writeJSON(filepath.Join(backupPath, ManifestFile), manifest); err != nil {
		_ = os.RemoveAll(backupPath)
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return name, nil
}

// List returns all backups, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	backups := make([]Info, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := m.Get(e.Name())
		if err != nil {
			continue
		}
		backups = append(backups, *info)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Get returns information about one backup.
func (m *Manager) Get(name string) (*Info, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	backupPath := filepath.Join(m.backupDir, name)
	if !fsutil.IsDir(backupPath) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	var manifest Manifest
	if err := readJSON(filepath.Join(backupPath, ManifestFile), &manifest); err != nil {
		createdAt, parseErr := parseName(name)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid backup: %s", name)
		}
		manifest.CreatedAt = createdAt
	}

	return &Info{
		Name:      name,
		Path:      backupPath,
		CreatedAt: manifest.CreatedAt,
		Intervals: manifest.Intervals,
	}, nil
}

// Restore replaces the live database with a backup. The live database
// must not be open. Its current content is backed up first.
func (m *Manager) Restore(ctx context.Context, name string) error {
	info, err := m.Get(name)
	if err != nil {
		return err
	}
	src := filepath.Join(info.Path, HistoryFile)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("backup %s has no %s: %w", name, HistoryFile, err)
	}

	live := m.HistoryPath()
	safetyName := ""
	if _, err := os.Stat(live); err == nil {
		if safetyName, err = m.snapshotFile(ctx, live); err != nil {
			return fmt.Errorf("create safety backup: %w", err)
		}
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(live, data, 0600); err != nil {
		return fmt.Errorf("restore %s (safety backup: %s): %w", HistoryFile, safetyName, err)
	}

	// The restored file must open and migrate cleanly.
	store, err := history.Open(live)
	if err != nil {
		return fmt.Errorf("restored history is invalid (safety backup: %s): %w", safetyName, err)
	}
	_, err = store.Count(ctx)
	_ = store.Close()
	if err != nil {
		return fmt.Errorf("restored history is invalid (safety backup: %s): %w", safetyName, err)
	}
	return nil
}

// RestoreLatest restores the most recent backup.
func (m *Manager) RestoreLatest(ctx context.Context) error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return ErrNoBackups
	}
	return m.Restore(ctx, backups[0].Name)
}

// Delete removes one backup.
func (m *Manager) Delete(name string) error {
	info, err := m.Get(name)
	if err != nil {
		return err
	}
	return os.RemoveAll(info.Path)
}

// Prune removes old backups, keeping the keep most recent. It returns the
// number deleted.
func (m *Manager) Prune(keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep must be non-negative")
	}
	backups, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(backups) <= keep {
		return 0, nil
	}

	deleted := 0
	for _, b := range backups[keep:] {
		if err := m.Delete(b.Name); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (m *Manager) snapshotFile(ctx context.Context, path string) (string, error) {
	store, err := history.Open(path)
	if err != nil {
		return "", err
	}
	defer store.Close()
	return m.Create(ctx, store)
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("backup name is required")
	}
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid backup name: %q", name)
	}
	if _, err := parseName(name); err != nil {
		return fmt.Errorf("invalid backup name: %q", name)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, 0600)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// parseName parses a backup directory name (2006-01-02_150405_XXX, or
// without milliseconds) into a timestamp.
func parseName(name string) (time.Time, error) {
	if len(name) == 21 {
		base, err := time.ParseInLocation("2006-01-02_150405", name[:17], time.Local)
		if err != nil {
			return time.Time{}, err
		}
		if name[17] != '_' {
			return time.Time{}, fmt.Errorf("invalid backup format")
		}
		ms, err := strconv.Atoi(name[18:])
		if err != nil || ms < 0 || ms > 999 {
			return time.Time{}, fmt.Errorf("invalid milliseconds")
		}
		return base.Add(time.Duration(ms) * time.Millisecond), nil
	}
	return time.ParseInLocation("2006-01-02_150405", name, time.Local)
}
