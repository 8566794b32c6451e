// Package sync commits vault notes to git after pomodoro log writes and
// handles pull and push against the vault's remote.
package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	gosync "sync"
	"time"

	"github.com/rs/zerolog"

	"pomo/internal/config"
	"pomo/internal/fsutil"
	"pomo/internal/logging"
	"pomo/internal/vault"
)

var (
	ErrGitMissing = errors.New("git is not installed")
	ErrNotRepo    = errors.New("vault is not a git repository - run 'pomo sync --init' first")
	ErrNoRemote   = errors.New("no remote configured - add one with 'git remote add origin <url>'")
)

// Status represents the current git status.
type Status struct {
	IsRepo       bool
	HasRemote    bool
	RemoteName   string
	RemoteURL    string
	Branch       string
	Ahead        int
	Behind       int
	HasChanges   bool
	LastCommitAt *time.Time
}

// GitSync manages git operations for the vault directory.
type GitSync struct {
	dir    string
	config config.SyncConfig
	logger zerolog.Logger

	// Debouncing for auto-commit
	pendingFiles    map[string]bool
	pendingContexts []vault.SaveContext
	commitTimer     *time.Timer
	mu              gosync.Mutex

	// Serializes git operations to avoid index/lock conflicts.
	opMu gosync.Mutex

	debounceDuration time.Duration
}

// New creates a GitSync for the vault at dir.
func New(dir string, cfg config.SyncConfig) *GitSync {
	return &GitSync{
		dir:              dir,
		config:           cfg,
		logger:           logging.Component("sync"),
		pendingFiles:     make(map[string]bool),
		debounceDuration: 2 * time.Second,
	}
}

// IsGitInstalled checks if git is available on the system.
func IsGitInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// IsRepo checks if the vault directory is a git repository.
func (g *GitSync) IsRepo() bool {
	return fsutil.IsDir(filepath.Join(g.dir, ".git"))
}

const (
	defaultGitTimeout  = 10 * time.Second
	pullPushGitTimeout = 60 * time.Second
	commitGitTimeout   = 15 * time.Second
)

const gitignoreContent = `# pomo - vault sync ignore file
.obsidian/workspace*
.trash/
*.tmp-*
`

// Init initializes a git repository in the vault. An existing .gitignore
// is left untouched.
func (g *GitSync) Init() error {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	if !IsGitInstalled() {
		return ErrGitMissing
	}

	if _, err := g.runGitTimeout(commitGitTimeout, "init"); err != nil {
		return fmt.Errorf("failed to initialize git repository: %w", err)
	}

	gitignorePath := filepath.Join(g.dir, ".gitignore")
	if _, err := os.Stat(gitignorePath); os.IsNotExist(err) {
		if err := fsutil.WriteFileAtomic(gitignorePath, []byte(gitignoreContent), 0644); err != nil {
			return fmt.Errorf("failed to create .gitignore: %w", err)
		}
	}

	if _, err := g.runGitTimeout(defaultGitTimeout, "add", ".gitignore"); err != nil {
		return fmt.Errorf("failed to stage .gitignore: %w", err)
	}

	if _, err := g.runGitTimeout(commitGitTimeout, "-c", "commit.gpgsign=false", "commit", "-m", "Initialize pomodoro vault repository"); err != nil {
		if !isGitNothingToCommit(err) {
			return fmt.Errorf("failed to create initial commit: %w", err)
		}
	}

	g.logger.Info().Str("dir", g.dir).Msg("vault repository initialized")
	return nil
}

// Status returns the current git status.
func (g *GitSync) Status() (*Status, error) {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	status := &Status{IsRepo: g.IsRepo()}
	if !status.IsRepo {
		return status, nil
	}

	if branch, err := g.runGitTimeout(defaultGitTimeout, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		status.Branch = trimOutput(branch)
	}

	// First line: "origin\tgit@...\t(fetch)"
	remotes, err := g.runGitTimeout(defaultGitTimeout, "remote", "-v")
	if err == nil && trimOutput(remotes) != "" {
		status.HasRemote = true
		first, _, _ := strings.Cut(trimOutput(remotes), "\n")
		if parts := strings.Fields(first); len(parts) >= 2 {
			status.RemoteName = parts[0]
			status.RemoteURL = parts[1]
		}
	}

	if out, err := g.runGitTimeout(defaultGitTimeout, "status", "--porcelain"); err == nil {
		status.HasChanges = trimOutput(out) != ""
	}

	if status.HasRemote && status.Branch != "" {
		remote := status.RemoteName + "/" + status.Branch
		revList, err := g.runGitTimeout(defaultGitTimeout, "rev-list", "--left-right", "--count", status.Branch+"..."+remote)
		if err == nil {
			fmt.Sscanf(trimOutput(revList), "%d\t%d", &status.Ahead, &status.Behind)
		}
	}

	lastCommit, err := g.runGitTimeout(defaultGitTimeout, "log", "-1", "--format=%ci")
	if err == nil && trimOutput(lastCommit) != "" {
		if t, err := time.Parse("2006-01-02 15:04:05 -0700", trimOutput(lastCommit)); err == nil {
			status.LastCommitAt = &t
		}
	}

	return status, nil
}

// Pull fetches and rebases onto the remote.
func (g *GitSync) Pull() error {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	if err := g.requireRemote(); err != nil {
		return err
	}
	if _, err := g.runGitTimeout(pullPushGitTimeout, "pull", "--rebase"); err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}
	return nil
}

// Push pushes local commits to the remote.
func (g *GitSync) Push() error {
	g.opMu.Lock()
	defer g.opMu.Unlock()
	return g.pushLocked()
}

func (g *GitSync) pushLocked() error {
	if err := g.requireRemote(); err != nil {
		return err
	}
	if _, err := g.runGitTimeout(pullPushGitTimeout, "push"); err != nil {
		return fmt.Errorf("push failed: %w", err)
	}
	return nil
}

func (g *GitSync) requireRemote() error {
	if !g.IsRepo() {
		return ErrNotRepo
	}
	remotes, err := g.runGitTimeout(defaultGitTimeout, "remote")
	if err != nil || trimOutput(remotes) == "" {
		return ErrNoRemote
	}
	return nil
}

// OnNoteSaved queues a written note for commit. Commits are debounced so a
// burst of writes becomes one commit.
func (g *GitSync) OnNoteSaved(sc vault.SaveContext) {
	if !g.config.Enabled || !g.config.AutoCommit || !g.IsRepo() {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.pendingFiles[sc.Path] = true
	g.pendingContexts = append(g.pendingContexts, sc)

	if g.commitTimer != nil {
		g.commitTimer.Stop()
	}
	g.commitTimer = time.AfterFunc(g.debounceDuration, g.flushCommit)
}

// Flush immediately commits any pending notes without waiting for debounce.
func (g *GitSync) Flush() {
	g.mu.Lock()
	if g.commitTimer != nil {
		g.commitTimer.Stop()
		g.commitTimer = nil
	}
	g.mu.Unlock()

	g.flushCommit()
}

func (g *GitSync) flushCommit() {
	g.mu.Lock()
	files := make([]string, 0, len(g.pendingFiles))
	for f := range g.pendingFiles {
		files = append(files, f)
	}
	contexts := g.pendingContexts
	g.pendingFiles = make(map[string]bool)
	g.pendingContexts = nil
	g.mu.Unlock()

	if len(files) == 0 {
		return
	}
	if err := g.commit(files, contexts); err != nil {
		g.logger.Warn().Err(err).Strs("files", files).Msg("auto-commit failed")
	}
}

// commit stages and commits files with a message built from contexts.
func (g *GitSync) commit(files []string, contexts []vault.SaveContext) error {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	if !g.IsRepo() {
		return ErrNotRepo
	}

	args := append([]string{"add", "--"}, files...)
	if _, err := g.runGitTimeout(defaultGitTimeout, args...); err != nil {
		return fmt.Errorf("failed to stage files: %w", err)
	}

	staged, err := g.runGitTimeout(defaultGitTimeout, "diff", "--cached", "--name-only")
	if err != nil {
		return fmt.Errorf("failed to check staged changes: %w", err)
	}
	if trimOutput(staged) == "" {
		return nil
	}

	message := g.commitMessage(files, contexts)
	if _, err := g.runGitTimeout(commitGitTimeout, "-c", "commit.gpgsign=false", "commit", "-m", message); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	g.logger.Debug().Str("message", message).Msg("committed")

	if g.config.AutoPush {
		if err := g.pushLocked(); err != nil {
			return fmt.Errorf("committed locally, but push failed: %w", err)
		}
	}
	return nil
}

// commitMessage builds messages like "Log pomodoro: write docs" or
// "Log 3 pomodoros".
func (g *GitSync) commitMessage(files []string, contexts []vault.SaveContext) string {
	if g.config.CommitMessage != "" && g.config.CommitMessage != "auto" {
		return g.config.CommitMessage
	}

	var logs []vault.SaveContext
	created := 0
	for _, sc := range contexts {
		switch sc.Operation {
		case "log":
			logs = append(logs, sc)
		case "create":
			created++
		}
	}

	switch {
	case len(logs) == 1:
		if logs[0].Summary == "" {
			return "Log pomodoro"
		}
		return "Log pomodoro: " + logs[0].Summary
	case len(logs) > 1:
		return fmt.Sprintf("Log %d pomodoros", len(logs))
	case created > 0 && len(files) == 1:
		return "Create daily note: " + files[0]
	case len(files) == 1:
		return "Update " + files[0]
	default:
		return fmt.Sprintf("Update %d notes", len(files))
	}
}

// runGit executes a git command and returns its output.
func (g *GitSync) runGit(args ...string) (string, error) {
	return g.runGitTimeout(defaultGitTimeout, args...)
}

func (g *GitSync) runGitTimeout(timeout time.Duration, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir
	cmd.Env = envWithOverrides(os.Environ(), map[string]string{
		"GIT_TERMINAL_PROMPT": "0",
		"GIT_ASKPASS":         "",
		"SSH_ASKPASS":         "",
	})
	cmd.Stdin = bytes.NewReader(nil)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("git %s timed out after %s", strings.Join(args, " "), timeout)
		}
		// git commit reports "nothing to commit" on stdout.
		errMsg := stderr.String()
		if strings.TrimSpace(errMsg) == "" {
			errMsg = stdout.String()
		}
		if strings.TrimSpace(errMsg) == "" {
			errMsg = err.Error()
		}
		return "", errors.New(trimOutput(errMsg))
	}
	return stdout.String(), nil
}

func envWithOverrides(base []string, overrides map[string]string) []string {
	out := make([]string, 0, len(base)+len(overrides))
	seen := make(map[string]bool, len(overrides))
	for _, kv := range base {
		k, _, ok := strings.Cut(kv, "=")
		if v, override := overrides[k]; ok && override {
			out = append(out, k+"="+v)
			seen[k] = true
			continue
		}
		out = append(out, kv)
	}
	for k, v := range overrides {
		if !seen[k] {
			out = append(out, k+"="+v)
		}
	}
	return out
}

func isGitNothingToCommit(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "nothing to commit") ||
		strings.Contains(msg, "nothing added to commit") ||
		strings.Contains(msg, "no changes added to commit")
}

func trimOutput(s string) string {
	return strings.TrimSpace(s)
}
