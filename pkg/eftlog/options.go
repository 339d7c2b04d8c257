package eftlog

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eftlog/eftlog-go/internal/logfinder"
	"github.com/eftlog/eftlog-go/internal/monitor"
	"github.com/eftlog/eftlog-go/internal/procfind"
)

// DefaultPollInterval is how often the watcher checks for the game process.
const DefaultPollInterval = 30 * time.Second

// DefaultProcessName is the executable name of the game client.
const DefaultProcessName = procfind.DefaultName

// EnvLogsDir is the environment variable that overrides the logs directory.
const EnvLogsDir = logfinder.EnvLogsDir

// WatchOption configures Watch behavior using the functional options pattern.
type WatchOption func(*watchConfig)

// watchConfig holds internal configuration for the watcher.
type watchConfig struct {
	logsDir         string
	pollInterval    time.Duration
	processName     string
	finder          ProcessFinder
	traces          bool
	replayFromStart bool
	pollFiles       bool
	idleFlush       time.Duration
	includeRawLine  bool
	debugMessages   bool
	logger          *slog.Logger
	filter          *compiledFilter

	// opener overrides how monitors open files.
	opener monitor.Opener
}

// defaultWatchConfig returns a watchConfig with sensible defaults.
func defaultWatchConfig() *watchConfig {
	return &watchConfig{
		pollInterval: DefaultPollInterval,
		processName:  DefaultProcessName,
		idleFlush:    monitor.DefaultIdleFlush,
		logger:       discardLogger,
	}
}

// applyWatchOptions applies functional options to a watchConfig.
func applyWatchOptions(opts []WatchOption) *watchConfig {
	cfg := defaultWatchConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.finder == nil {
		cfg.finder = newProcFinder(cfg.processName)
	}
	if cfg.opener == nil {
		cfg.opener = monitor.TailOpener(cfg.pollFiles)
	}
	return cfg
}

func (c *watchConfig) validate() error {
	var errs []error
	if c.pollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive, got %v", c.pollInterval))
	}
	if c.idleFlush < 0 {
		errs = append(errs, fmt.Errorf("idle flush must be non-negative, got %v", c.idleFlush))
	}
	if c.processName == "" {
		errs = append(errs, errors.New("process name must not be empty"))
	}
	return errors.Join(errs...)
}

// WithLogsDir sets the game's logs directory (the folder holding one
// subfolder per launch). If not set, it is derived from the location of the
// game executable. Can also be set via EFTLOG_LOGSDIR environment variable.
func WithLogsDir(dir string) WatchOption {
	return func(c *watchConfig) {
		c.logsDir = dir
	}
}

// WithPollInterval sets how often to check whether the game is running.
// Default: 30 seconds.
func WithPollInterval(interval time.Duration) WatchOption {
	return func(c *watchConfig) {
		c.pollInterval = interval
	}
}

// WithProcessName sets the executable name of the game process.
// Default: "EscapeFromTarkov".
func WithProcessName(name string) WatchOption {
	return func(c *watchConfig) {
		c.processName = name
	}
}

// WithProcessFinder replaces process discovery.
func WithProcessFinder(f ProcessFinder) WatchOption {
	return func(c *watchConfig) {
		c.finder = f
	}
}

// WithTraces also monitors the traces log.
// Default: false.
func WithTraces(enabled bool) WatchOption {
	return func(c *watchConfig) {
		c.traces = enabled
	}
}

// WithReplayFromStart reads the existing content of the session's log files
// when the watcher attaches, instead of only what is appended afterwards.
func WithReplayFromStart(replay bool) WatchOption {
	return func(c *watchConfig) {
		c.replayFromStart = replay
	}
}

// WithPollFiles uses polling instead of filesystem notifications to follow
// log files (useful on network drives).
func WithPollFiles(poll bool) WatchOption {
	return func(c *watchConfig) {
		c.pollFiles = poll
	}
}

// WithIdleFlush sets how long to wait for more text before releasing the
// last message line of a burst. Zero waits for the next line.
// Default: 500 milliseconds.
func WithIdleFlush(d time.Duration) WatchOption {
	return func(c *watchConfig) {
		c.idleFlush = d
	}
}

// WithIncludeRawLine includes the originating message line in Event.RawLine.
// Default: false.
func WithIncludeRawLine(include bool) WatchOption {
	return func(c *watchConfig) {
		c.includeRawLine = include
	}
}

// WithDebugMessages emits Debug events for lifecycle changes and malformed
// payloads. They are rate limited.
// Default: false.
func WithDebugMessages(enabled bool) WatchOption {
	return func(c *watchConfig) {
		c.debugMessages = enabled
	}
}

// WithLogger sets the slog logger for debug output.
// If nil (default), logging is disabled.
func WithLogger(logger *slog.Logger) WatchOption {
	return func(c *watchConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIncludeTypes filters events to only include the specified types.
// If called multiple times, only the last call takes effect.
func WithIncludeTypes(types ...EventType) WatchOption {
	return func(c *watchConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.setInclude(types)
	}
}

// WithExcludeTypes filters out events of the specified types.
// Exclude takes precedence over include.
// If called multiple times, only the last call takes effect.
func WithExcludeTypes(types ...EventType) WatchOption {
	return func(c *watchConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.setExclude(types)
	}
}

// ParseOption configures ParseDir behavior.
type ParseOption func(*parseConfig)

// parseConfig holds internal configuration for parsing.
type parseConfig struct {
	filter         *compiledFilter
	includeRawLine bool
	traces         bool
	stopOnError    bool
	since          time.Time
	until          time.Time
	logger         *slog.Logger
}

// applyParseOptions applies functional options to a parseConfig.
func applyParseOptions(opts []ParseOption) *parseConfig {
	cfg := &parseConfig{logger: discardLogger}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithParseIncludeTypes filters events to only include the specified types.
func WithParseIncludeTypes(types ...EventType) ParseOption {
	return func(c *parseConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.setInclude(types)
	}
}

// WithParseExcludeTypes filters out events of the specified types.
func WithParseExcludeTypes(types ...EventType) ParseOption {
	return func(c *parseConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.setExclude(types)
	}
}

// WithParseFilter sets both include and exclude type filters for parsing.
func WithParseFilter(include, exclude []EventType) ParseOption {
	return func(c *parseConfig) {
		c.filter = newCompiledFilter(include, exclude)
	}
}

// WithParseIncludeRawLine includes the originating message line in Event.RawLine.
func WithParseIncludeRawLine(include bool) ParseOption {
	return func(c *parseConfig) {
		c.includeRawLine = include
	}
}

// WithParseTraces also reads the traces log.
func WithParseTraces(enabled bool) ParseOption {
	return func(c *parseConfig) {
		c.traces = enabled
	}
}

// WithParseStopOnError stops at the first record that fails field
// extraction instead of reporting it as an Exception event.
// Default: false.
func WithParseStopOnError(stop bool) ParseOption {
	return func(c *parseConfig) {
		c.stopOnError = stop
	}
}

// WithParseTimeRange only yields events at or after since and before until.
// A zero value leaves that end open.
func WithParseTimeRange(since, until time.Time) ParseOption {
	return func(c *parseConfig) {
		c.since = since
		c.until = until
	}
}

// WithParseLogger sets the slog logger for debug output.
func WithParseLogger(logger *slog.Logger) ParseOption {
	return func(c *parseConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
