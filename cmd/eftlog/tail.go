package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eftlog/eftlog-go/pkg/eftlog"
	"github.com/eftlog/eftlog-go/pkg/eftlog/event"
)

var (
	// tail flags
	logsDir          string
	format           string
	tailIncludeTypes []string
	tailExcludeTypes []string
	includeRaw       bool
	replay           bool
	traces           bool
	pollInterval     time.Duration
	processName      string
	pollFiles        bool
	debugMessages    bool
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Monitor the game's logs and output events",
	Long: `Wait for Escape from Tarkov to start, then follow its logs in real-time
and output derived events.

The newest session folder is followed; when the game starts a new session
or rotates a log file, the new file is picked up automatically. Errors are
reported as "exception" events and never stop the command.

Events are output as JSON Lines by default (one JSON object per line),
which makes it easy to process with tools like jq.

Examples:
  # Monitor with default settings (logs directory next to the game)
  eftlog tail

  # Specify logs directory
  eftlog tail --logs-dir "C:\Battlestate Games\Escape from Tarkov\Logs"

  # Output only raid events
  eftlog tail --include-types match_found,raid_loaded,raid_exited

  # Human-readable output
  eftlog tail --format pretty

  # Replay the current session before following it
  eftlog tail --replay

  # Pipe to jq for filtering
  eftlog tail | jq 'select(.type == "flea_sold")'`,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().StringVarP(&logsDir, "logs-dir", "d", "",
		"Game logs directory (derived from the game executable if not specified)")
	tailCmd.Flags().StringVarP(&format, "format", "f", "jsonl",
		"Output format: jsonl, pretty, yaml")
	tailCmd.Flags().StringSliceVar(&tailIncludeTypes, "include-types", nil,
		"Event types to include (comma-separated: match_found,raid_loaded)")
	tailCmd.Flags().StringSliceVar(&tailExcludeTypes, "exclude-types", nil,
		"Event types to exclude (comma-separated)")
	tailCmd.Flags().BoolVar(&includeRaw, "raw", false,
		"Include raw log lines in output")
	tailCmd.Flags().BoolVar(&replay, "replay", false,
		"Read the session's existing log content before following it")
	tailCmd.Flags().BoolVar(&traces, "traces", false,
		"Also follow the traces log")
	tailCmd.Flags().DurationVar(&pollInterval, "poll-interval", eftlog.DefaultPollInterval,
		"How often to check whether the game is running")
	tailCmd.Flags().StringVar(&processName, "process-name", eftlog.DefaultProcessName,
		"Executable name of the game process")
	tailCmd.Flags().BoolVar(&pollFiles, "poll-files", false,
		"Poll log files instead of using filesystem notifications")
	tailCmd.Flags().BoolVar(&debugMessages, "debug", false,
		"Emit debug events for lifecycle changes")

	// Register completion for event type flags
	registerEventTypeCompletion(tailCmd, "include-types")
	registerEventTypeCompletion(tailCmd, "exclude-types")
	registerFormatCompletion(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	if err := applyConfig(cmd, viper.GetViper()); err != nil {
		return err
	}

	// Validate format
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format %q: must be one of: %s", format, formatNames())
	}

	// Normalize and validate event types
	includes, excludes, err := eventTypeFilters(tailIncludeTypes, tailExcludeTypes)
	if err != nil {
		return err
	}

	// Setup context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watchOpts := []eftlog.WatchOption{
		eftlog.WithPollInterval(pollInterval),
		eftlog.WithProcessName(processName),
		eftlog.WithIncludeRawLine(includeRaw),
		eftlog.WithReplayFromStart(replay),
		eftlog.WithTraces(traces),
		eftlog.WithPollFiles(pollFiles),
		eftlog.WithDebugMessages(debugMessages),
		eftlog.WithLogger(newLogger()),
	}
	if logsDir != "" {
		watchOpts = append(watchOpts, eftlog.WithLogsDir(logsDir))
	}

	// Use library-level filtering (more efficient than CLI-side filtering)
	if len(includes) > 0 {
		watchOpts = append(watchOpts, eftlog.WithIncludeTypes(includes...))
	}
	if len(excludes) > 0 {
		watchOpts = append(watchOpts, eftlog.WithExcludeTypes(excludes...))
	}

	watcher, err := eftlog.NewWatcher(watchOpts...)
	if err != nil {
		return err
	}
	defer watcher.Close()

	events, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}

	// Output loop; the channel is closed on Ctrl+C
	for ev := range events {
		if err := OutputEvent(format, ev, os.Stdout); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
		// Errors also go to stderr unless already readable on stdout
		if d, ok := ev.Data.(event.ExceptionData); ok && format != "pretty" {
			fmt.Fprintf(os.Stderr, "warning: %s\n", d.Message)
		}
	}
	return nil
}
