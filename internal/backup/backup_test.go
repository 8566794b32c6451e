package backup

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pomo/internal/history"
)

// steppedClock returns a clock that advances one second per call.
func steppedClock() func() time.Time {
	t := time.Date(2025, 12, 15, 14, 30, 22, 0, time.Local)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

// newTestManager returns a manager over a data directory holding a history
// database with n focus intervals. The database is closed on return.
func newTestManager(t *testing.T, n int) *Manager {
	t.Helper()
	dir := t.TempDir()
	m := NewManager(dir, "1.2.0-test")
	m.now = steppedClock()
	seedHistory(t, m.HistoryPath(), n)
	return m
}

func seedHistory(t *testing.T, path string, n int) {
	t.Helper()
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("history.Open() error: %v", err)
	}
	defer store.Close()

	base := time.Date(2025, 12, 15, 9, 0, 0, 0, time.Local)
	for i := 0; i < n; i++ {
		start := base.Add(time.Duration(i) * 30 * time.Minute)
		_, err := store.Insert(context.Background(), history.Record{
			RunID:     "run-1",
			Mode:      history.ModeFocus,
			StartedAt: start,
			EndedAt:   start.Add(25 * time.Minute),
			Planned:   25 * time.Minute,
		})
		if err != nil {
			t.Fatalf("Insert() error: %v", err)
		}
	}
}

func countHistory(t *testing.T, path string) int {
	t.Helper()
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("history.Open() error: %v", err)
	}
	defer store.Close()
	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	return n
}

// createBackup backs up the live database.
func createBackup(t *testing.T, m *Manager) string {
	t.Helper()
	store, err := history.Open(m.HistoryPath())
	if err != nil {
		t.Fatalf("history.Open() error: %v", err)
	}
	defer store.Close()
	name, err := m.Create(context.Background(), store)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	return name
}

func TestManager_Create(t *testing.T) {
	m := newTestManager(t, 3)
	name := createBackup(t, m)

	if len(name) != 21 {
		t.Errorf("Expected backup name length 21, got %d: %s", len(name), name)
	}

	backupPath := filepath.Join(m.dataDir, BackupsDir, name)
	if got := countHistory(t, filepath.Join(backupPath, HistoryFile)); got != 3 {
		t.Errorf("Expected 3 intervals in snapshot, got %d", got)
	}

	data, err := os.ReadFile(filepath.Join(backupPath, ManifestFile))
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("failed to parse manifest: %v", err)
	}
	if manifest.Version != ManifestVersion {
		t.Errorf("Expected manifest version %s, got %s", ManifestVersion, manifest.Version)
	}
	if manifest.AppVersion != "1.2.0-test" {
		t.Errorf("Expected app_version 1.2.0-test, got %s", manifest.AppVersion)
	}
	if manifest.Intervals != 3 {
		t.Errorf("Expected 3 intervals, got %d", manifest.Intervals)
	}
}

func TestManager_List(t *testing.T) {
	m := newTestManager(t, 1)

	backups, err := m.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(backups) != 0 {
		t.Fatalf("Expected no backups, got %d", len(backups))
	}

	first := createBackup(t, m)
	second := createBackup(t, m)

	backups, err = m.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("Expected 2 backups, got %d", len(backups))
	}
	if backups[0].Name != second || backups[1].Name != first {
		t.Errorf("Expected newest first, got %s, %s", backups[0].Name, backups[1].Name)
	}
	if backups[0].Intervals != 1 {
		t.Errorf("Expected 1 interval, got %d", backups[0].Intervals)
	}
}

func TestManager_Restore(t *testing.T) {
	m := newTestManager(t, 2)
	name := createBackup(t, m)

	seedHistory(t, m.HistoryPath(), 3)
	if got := countHistory(t, m.HistoryPath()); got != 5 {
		t.Fatalf("Expected 5 intervals before restore, got %d", got)
	}

	if err := m.Restore(context.Background(), name); err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if got := countHistory(t, m.HistoryPath()); got != 2 {
		t.Errorf("Expected 2 intervals after restore, got %d", got)
	}
}

func TestManager_RestoreCreatesSafetyBackup(t *testing.T) {
	m := newTestManager(t, 2)
	name := createBackup(t, m)
	seedHistory(t, m.HistoryPath(), 1)

	if err := m.Restore(context.Background(), name); err != nil {
		t.Fatalf("Restore() error: %v", err)
	}

	backups, err := m.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("Expected first and safety backup, got %d", len(backups))
	}
	if backups[0].Intervals != 3 {
		t.Errorf("Expected safety backup with 3 intervals, got %d", backups[0].Intervals)
	}
}

func TestManager_RestoreLatest(t *testing.T) {
	m := newTestManager(t, 1)

	if err := m.RestoreLatest(context.Background()); err != ErrNoBackups {
		t.Fatalf("Expected ErrNoBackups, got %v", err)
	}

	createBackup(t, m)
	seedHistory(t, m.HistoryPath(), 1)
	createBackup(t, m)
	seedHistory(t, m.HistoryPath(), 1)

	if err := m.RestoreLatest(context.Background()); err != nil {
		t.Fatalf("RestoreLatest() error: %v", err)
	}
	if got := countHistory(t, m.HistoryPath()); got != 2 {
		t.Errorf("Expected 2 intervals after restore, got %d", got)
	}
}

func TestManager_RestoreNonexistent(t *testing.T) {
	m := newTestManager(t, 0)
	if err := m.Restore(context.Background(), "2025-01-01_000000_000"); err == nil {
		t.Error("Expected error for nonexistent backup")
	}
	if err := m.Restore(context.Background(), "../escape"); err == nil {
		t.Error("Expected error for invalid backup name")
	}
}

func TestManager_Prune(t *testing.T) {
	m := newTestManager(t, 1)
	for i := 0; i < 5; i++ {
		createBackup(t, m)
	}

	deleted, err := m.Prune(2)
	if err != nil {
		t.Fatalf("Prune() error: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Expected 3 deleted, got %d", deleted)
	}

	backups, err := m.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(backups) != 2 {
		t.Errorf("Expected 2 remaining, got %d", len(backups))
	}

	if _, err := m.Prune(-1); err == nil {
		t.Error("Expected error for negative keep")
	}
}

func TestManager_GetWithoutManifest(t *testing.T) {
	m := newTestManager(t, 1)
	name := createBackup(t, m)
	if err := os.Remove(filepath.Join(m.backupDir, name, ManifestFile)); err != nil {
		t.Fatalf("remove manifest: %v", err)
	}

	info, err := m.Get(name)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	want, _ := parseName(name)
	if !info.CreatedAt.Equal(want) {
		t.Errorf("Expected CreatedAt from name %v, got %v", want, info.CreatedAt)
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"2025-12-15_143022_123", false},
		{"2025-12-15_143022", false},
		{"2025-12-15_143022-123", true},
		{"2025-12-15_143022_abc", true},
		{"latest", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}
