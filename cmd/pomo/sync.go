package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"pomo/internal/config"
	"pomo/internal/sync"
)

// syncOptions are the flags of the sync command.
type syncOptions struct {
	init   bool
	status bool
	pull   bool
	push   bool
}

func newSyncCmd(opts *globalOptions) *cobra.Command {
	so := &syncOptions{}
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Git synchronization for your vault",
		Long: `Manages git synchronization of the vault. With auto_commit enabled, every
note the timer logs to is committed shortly after the write.`,
		Example: `  # Initialize a git repository in the vault
  pomo sync --init

  # Check sync status (default)
  pomo sync

  # Pull or push against the vault's remote
  pomo sync --pull
  pomo sync --push

Configuration:
  sync:
    enabled: false           # Enable/disable git sync
    auto_commit: true        # Commit log notes after each write
    auto_push: false         # Push after each commit
    pull_on_startup: false   # Pull when the timer starts
    commit_message: "auto"   # "auto" or custom message`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !sync.IsGitInstalled() {
				return sync.ErrGitMissing
			}
			cfg, err := opts.load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			dir := cfg.GetVaultDir()
			gs := sync.New(dir, cfg.Sync)
			out := cmd.OutOrStdout()

			switch {
			case so.init:
				return runSyncInit(out, gs, dir)
			case so.pull:
				fmt.Fprintln(out, "Pulling latest changes...")
				if err := gs.Pull(); err != nil {
					return err
				}
				fmt.Fprintln(out, "Pull complete.")
				return nil
			case so.push:
				fmt.Fprintln(out, "Pushing local changes...")
				if err := gs.Push(); err != nil {
					return err
				}
				fmt.Fprintln(out, "Push complete.")
				return nil
			default:
				return runSyncStatus(out, gs, cfg, time.Now())
			}
		},
	}

	cmd.Flags().BoolVar(&so.init, "init", false, "initialize a git repository in the vault")
	cmd.Flags().BoolVar(&so.status, "status", false, "show sync status (default)")
	cmd.Flags().BoolVar(&so.pull, "pull", false, "pull latest changes from the remote")
	cmd.Flags().BoolVar(&so.push, "push", false, "push local commits to the remote")
	cmd.MarkFlagsMutuallyExclusive("init", "status", "pull", "push")
	return cmd
}

func runSyncInit(out io.Writer, gs *sync.GitSync, dir string) error {
	if gs.IsRepo() {
		fmt.Fprintf(out, "Git repository already initialized in %s\n", dir)
		return nil
	}

	fmt.Fprintf(out, "Initializing git repository in %s...\n", dir)
	if err := gs.Init(); err != nil {
		return err
	}

	fmt.Fprintln(out, "Repository initialized successfully!")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Add a remote repository:")
	fmt.Fprintf(out, "     cd %s && git remote add origin <your-repo-url>\n", dir)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  2. Enable sync in your config:")
	fmt.Fprintln(out, "     sync:")
	fmt.Fprintln(out, "       enabled: true")
	fmt.Fprintln(out, "       auto_commit: true")
	return nil
}

func runSyncStatus(out io.Writer, gs *sync.GitSync, cfg *config.Config, now time.Time) error {
	status, err := gs.Status()
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}

	fmt.Fprintln(out, "Git Sync Status")
	fmt.Fprintln(out, "───────────────")

	if cfg.Sync.Enabled {
		fmt.Fprintln(out, "Sync:       enabled")
	} else {
		fmt.Fprintln(out, "Sync:       disabled")
	}
	fmt.Fprintf(out, "Vault:      %s\n", cfg.GetVaultDir())

	if !status.IsRepo {
		fmt.Fprintln(out, "Repository: not initialized")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Run 'pomo sync --init' to initialize.")
		return nil
	}

	fmt.Fprintln(out, "Repository: initialized")
	fmt.Fprintf(out, "Branch:     %s\n", status.Branch)

	if status.HasRemote {
		fmt.Fprintf(out, "Remote:     %s (%s)\n", status.RemoteName, status.RemoteURL)
		if status.Ahead > 0 || status.Behind > 0 {
			fmt.Fprintf(out, "Status:     %d ahead, %d behind\n", status.Ahead, status.Behind)
		} else {
			fmt.Fprintln(out, "Status:     up to date")
		}
	} else {
		fmt.Fprintln(out, "Remote:     not configured")
	}

	if status.HasChanges {
		fmt.Fprintln(out, "Changes:    uncommitted changes present")
	} else {
		fmt.Fprintln(out, "Changes:    clean")
	}

	if status.LastCommitAt != nil {
		fmt.Fprintf(out, "Last commit: %s\n", formatTimeAgo(*status.LastCommitAt, now))
	}
	return nil
}

// formatTimeAgo formats t relative to now.
func formatTimeAgo(t, now time.Time) string {
	d := now.Sub(t)

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case d < 24*time.Hour:
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("Jan 2, 2006")
	}
}
