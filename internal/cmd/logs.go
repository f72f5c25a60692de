package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/red-hand/midenclaim/internal/config"
	"github.com/red-hand/midenclaim/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View run logs",
	Long: `View and filter the structured log file written by "run".

Examples:
  # Show the last 50 entries
  midenclaim logs

  # Warnings and errors for account 12 in the last hour
  midenclaim logs --level warn --account 12 --since 1h

  # Everything from one run
  midenclaim logs --run 6f1c2a9e-... -n 0`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsFile    string
	logsTail    int
	logsLevel   string
	logsAccount int
	logsRunID   string
	logsSince   string
	logsGrep    string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVar(&logsFile, "file", "", "Log file to read (default: <logging.dir>/midenclaim.log)")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().IntVar(&logsAccount, "account", 0, "Only entries for this account number")
	logsCmd.Flags().StringVar(&logsRunID, "run", "", "Only entries for this run id")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show entries since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Only entries whose message contains this text")
}

func runLogs(cmd *cobra.Command, args []string) error {
	path := logsFile
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		path = filepath.Join(cfg.Logging.LogDir(), logging.FileName)
	}

	filter, err := logsFilter(time.Now())
	if err != nil {
		return err
	}

	entries, err := logging.ReadEntries(path)
	if err != nil {
		return err
	}
	entries = logging.FilterEntries(entries, filter)
	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}
	return logging.WriteText(cmd.OutOrStdout(), entries)
}

func logsFilter(now time.Time) (logging.Filter, error) {
	f := logging.Filter{
		Level:           logsLevel,
		RunID:           logsRunID,
		AccountID:       logsAccount,
		MessageContains: logsGrep,
	}
	if logsSince != "" {
		d, err := time.ParseDuration(logsSince)
		if err != nil {
			return logging.Filter{}, fmt.Errorf("invalid --since duration %q: %w", logsSince, err)
		}
		f.Since = now.Add(-d)
	}
	return f, nil
}
