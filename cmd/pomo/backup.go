package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"pomo/internal/backup"
	"pomo/internal/history"
)

func newBackupCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up the pomodoro history",
		Long: `Snapshots the interval history database into <data_dir>/backups.
Log notes live in the vault and are not part of the backup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := backupManager(opts)
			if err != nil {
				return err
			}
			store, err := history.Open(m.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			name, err := m.Create(cmd.Context(), store)
			if err != nil {
				return fmt.Errorf("create backup: %w", err)
			}
			info, err := m.Get(name)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Backup created: %s\n", name)
			fmt.Fprintf(out, "  Intervals: %d\n", info.Intervals)
			fmt.Fprintf(out, "  Location: %s\n", info.Path)
			return nil
		},
	}
	cmd.AddCommand(newBackupListCmd(opts))
	cmd.AddCommand(newBackupRestoreCmd(opts))
	cmd.AddCommand(newBackupPruneCmd(opts))
	return cmd
}

func newBackupListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := backupManager(opts)
			if err != nil {
				return err
			}
			backups, err := m.List()
			if err != nil {
				return err
			}
			printBackups(cmd.OutOrStdout(), backups, time.Now())
			return nil
		},
	}
}

func newBackupRestoreCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore [NAME]",
		Short: "Restore a backup (default: the latest)",
		Long: `Replaces the history database with a backup. The current history is
backed up first. Do not run this while a timer is running.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := backupManager(opts)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				err = m.RestoreLatest(cmd.Context())
			} else {
				err = m.Restore(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ History restored")
			return nil
		},
	}
}

func newBackupPruneCmd(opts *globalOptions) *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := backupManager(opts)
			if err != nil {
				return err
			}
			deleted, err := m.Prune(keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d backup(s)\n", deleted)
			return nil
		},
	}
	cmd.Flags().IntVarP(&keep, "keep", "k", 10, "number of recent backups to keep")
	return cmd
}

func backupManager(opts *globalOptions) (*backup.Manager, error) {
	cfg, err := opts.load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return backup.NewManager(cfg.GetDataDir(), version), nil
}

func printBackups(out io.Writer, backups []backup.Info, now time.Time) {
	if len(backups) == 0 {
		fmt.Fprintln(out, "No backups available.")
		fmt.Fprintln(out, "Run 'pomo backup' to create one.")
		return
	}
	fmt.Fprintln(out, "Available backups:")
	for _, b := range backups {
		fmt.Fprintf(out, "  %s  (%s)   Intervals: %d\n", b.Name, formatTimeAgo(b.CreatedAt, now), b.Intervals)
	}
}
