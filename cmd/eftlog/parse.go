package main

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eftlog/eftlog-go/pkg/eftlog"
)

var (
	// parse flags
	parseLogsDir      string
	parseIncludeTypes []string
	parseExcludeTypes []string
	parseSince        string
	parseUntil        string
	parseFormat       string
	parseRaw          bool
	parseTraces       bool
	parseStopOnError  bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [session-dir|file]",
	Short: "Replay a session folder (batch mode)",
	Long: `Replay one session folder and output the events it produces.

Unlike 'tail', this command processes finished logs without waiting for
the game. The role log files of the session are merged by timestamp and
replayed from the start. Given a logs directory, its newest session folder
is used; given a single log file, only that file is replayed.

Examples:
  # Replay the newest session in the logs directory
  eftlog parse --logs-dir "C:\Battlestate Games\Escape from Tarkov\Logs"

  # Replay a specific session folder
  eftlog parse "Logs\log_2024.01.15_10-00-00_0.14.0.0.28375"

  # Filter by time range
  eftlog parse --since "2024-01-15T12:00:00Z" --until "2024-01-16T00:00:00Z"

  # Only flea market sales, human-readable
  eftlog parse --include-types flea_sold --format pretty

  # Pipe to jq for filtering
  eftlog parse | jq 'select(.type == "raid_loaded")'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVarP(&parseLogsDir, "logs-dir", "d", "",
		"Game logs directory (used when no path is given)")
	parseCmd.Flags().StringSliceVar(&parseIncludeTypes, "include-types", nil,
		"Event types to include (comma-separated: match_found,raid_loaded)")
	parseCmd.Flags().StringSliceVar(&parseExcludeTypes, "exclude-types", nil,
		"Event types to exclude (comma-separated)")
	parseCmd.Flags().StringVar(&parseSince, "since", "",
		"Only events at/after timestamp (RFC3339 format, e.g., 2024-01-15T12:00:00Z)")
	parseCmd.Flags().StringVar(&parseUntil, "until", "",
		"Only events before timestamp (RFC3339 format)")
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "jsonl",
		"Output format: jsonl, pretty, yaml")
	parseCmd.Flags().BoolVar(&parseRaw, "raw", false,
		"Include raw log lines in output")
	parseCmd.Flags().BoolVar(&parseTraces, "traces", false,
		"Also replay the traces log")
	parseCmd.Flags().BoolVar(&parseStopOnError, "stop-on-error", false,
		"Stop on first record error instead of reporting it as an exception event")

	registerEventTypeCompletion(parseCmd, "include-types")
	registerEventTypeCompletion(parseCmd, "exclude-types")
	registerFormatCompletion(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	if err := applyConfig(cmd, viper.GetViper()); err != nil {
		return err
	}

	// Validate format
	if !ValidFormats[parseFormat] {
		return fmt.Errorf("invalid format %q: must be one of: %s", parseFormat, formatNames())
	}

	// Normalize and validate event types
	includes, excludes, err := eventTypeFilters(parseIncludeTypes, parseExcludeTypes)
	if err != nil {
		return err
	}

	// Parse time range
	sinceTime, untilTime, err := parseTimeRange(parseSince, parseUntil)
	if err != nil {
		return err
	}

	path, err := parseTarget(args)
	if err != nil {
		return err
	}

	// Setup context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []eftlog.ParseOption{
		eftlog.WithParseFilter(includes, excludes),
		eftlog.WithParseTimeRange(sinceTime, untilTime),
		eftlog.WithParseIncludeRawLine(parseRaw),
		eftlog.WithParseTraces(parseTraces),
		eftlog.WithParseStopOnError(parseStopOnError),
		eftlog.WithParseLogger(newLogger()),
	}

	var events iter.Seq2[eftlog.Event, error]
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		events = eftlog.ParseFile(ctx, path, opts...)
	} else {
		events = eftlog.ParseDir(ctx, path, opts...)
	}

	for ev, err := range events {
		if err != nil {
			// Ctrl+C: exit silently
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("parse error: %w", err)
		}

		if err := OutputEvent(parseFormat, ev, os.Stdout); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}

	return nil
}

// parseTarget picks the path to replay: the argument, then --logs-dir, then
// the EFTLOG_LOGSDIR environment variable.
func parseTarget(args []string) (string, error) {
	switch {
	case len(args) > 0:
		return args[0], nil
	case parseLogsDir != "":
		return parseLogsDir, nil
	case os.Getenv(eftlog.EnvLogsDir) != "":
		return os.Getenv(eftlog.EnvLogsDir), nil
	}
	return "", fmt.Errorf("no session folder given: pass a path, --logs-dir or set %s", eftlog.EnvLogsDir)
}

// parseTimeRange parses since and until strings into time.Time values.
func parseTimeRange(since, until string) (time.Time, time.Time, error) {
	var sinceTime, untilTime time.Time
	var err error

	if since != "" {
		sinceTime, err = time.Parse(time.RFC3339, since)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --since format: %w (expected RFC3339, e.g., 2024-01-15T12:00:00Z)", err)
		}
	}

	if until != "" {
		untilTime, err = time.Parse(time.RFC3339, until)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --until format: %w (expected RFC3339, e.g., 2024-01-15T12:00:00Z)", err)
		}
	}

	// Validate that since is before until
	if !sinceTime.IsZero() && !untilTime.IsZero() && sinceTime.After(untilTime) {
		return time.Time{}, time.Time{}, fmt.Errorf("--since must be before --until")
	}

	return sinceTime, untilTime, nil
}
