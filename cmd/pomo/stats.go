package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"pomo/internal/fsutil"
	"pomo/internal/history"
	"pomo/internal/reports"
)

// statsOptions are the flags of the stats command.
type statsOptions struct {
	weekly bool
	format string
	output string
}

func newStatsCmd(opts *globalOptions) *cobra.Command {
	so := &statsOptions{}
	cmd := &cobra.Command{
		Use:   "stats [DATE]",
		Short: "Summarize completed pomodoros",
		Long: `Generates a report of completed focus intervals and breaks.

DATE is YYYY-MM-DD and defaults to today. For weekly reports the week
(Sunday to Saturday) containing DATE is used.`,
		Example: `  pomo stats
  pomo stats 2025-12-14
  pomo stats --weekly --format json --output weekly.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(so.format)
			if err != nil {
				return err
			}
			date := time.Now()
			if len(args) > 0 {
				if date, err = time.ParseInLocation("2006-01-02", args[0], time.Local); err != nil {
					return fmt.Errorf("invalid date %q: use YYYY-MM-DD", args[0])
				}
			}

			cfg, err := opts.load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			store, err := history.Open(cfg.GetHistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			output, err := buildReport(cmd.Context(), reports.NewGenerator(store), date, so.weekly, format)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), so.output, output)
		},
	}

	cmd.Flags().BoolVarP(&so.weekly, "weekly", "w", false, "generate a weekly report")
	cmd.Flags().StringVarP(&so.format, "format", "f", "markdown", "output format: markdown or json")
	cmd.Flags().StringVarP(&so.output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func parseFormat(format string) (string, error) {
	switch format {
	case "markdown", "md":
		return "markdown", nil
	case "json":
		return "json", nil
	default:
		return "", fmt.Errorf("invalid format %q: use markdown or json", format)
	}
}

func buildReport(ctx context.Context, gen *reports.Generator, date time.Time, weekly bool, format string) (string, error) {
	if weekly {
		report, err := gen.GenerateWeekly(ctx, date)
		if err != nil {
			return "", fmt.Errorf("generate weekly report: %w", err)
		}
		if format == "json" {
			data, err := reports.FormatWeeklyJSON(report)
			return string(data), err
		}
		return reports.FormatWeeklyMarkdown(report), nil
	}

	report, err := gen.GenerateDaily(ctx, date)
	if err != nil {
		return "", fmt.Errorf("generate daily report: %w", err)
	}
	if format == "json" {
		data, err := reports.FormatDailyJSON(report)
		return string(data), err
	}
	return reports.FormatDailyMarkdown(report), nil
}

func writeReport(out io.Writer, path, output string) error {
	if path == "" {
		fmt.Fprint(out, output)
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := fsutil.WriteFileAtomic(path, []byte(output), 0600); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(out, "Report written to %s\n", path)
	return nil
}
