package eftlog

import (
	"errors"
	"fmt"

	"github.com/eftlog/eftlog-go/internal/logfinder"
)

// Sentinel errors returned by this package.
var (
	// ErrLogsDirNotFound is returned when the game's logs directory
	// cannot be found or accessed.
	ErrLogsDirNotFound = logfinder.ErrLogsDirNotFound

	// ErrNoSessionDir is returned when the logs directory contains no
	// session folder.
	ErrNoSessionDir = logfinder.ErrNoSessionDir

	// ErrWatcherClosed is returned by Watch after Close.
	ErrWatcherClosed = errors.New("eftlog: watcher closed")

	// ErrAlreadyWatching is returned when Watch is called twice.
	ErrAlreadyWatching = errors.New("eftlog: already watching")
)

// WatchOp names the watcher operation that failed.
type WatchOp string

const (
	WatchOpFindProcess WatchOp = "find_process"
	WatchOpResolveLogs WatchOp = "resolve_logs"
	WatchOpFindSession WatchOp = "find_session"
	WatchOpMonitor     WatchOp = "monitor"
	WatchOpFsnotify    WatchOp = "fsnotify"
	WatchOpTail        WatchOp = "tail"
)

// WatchError is an environment error isolated to one poll cycle or one
// monitored file. The watcher keeps running and retries on its next poll.
type WatchError struct {
	Op   WatchOp
	Path string
	Err  error
}

func (e *WatchError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("eftlog: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("eftlog: %s: %v", e.Op, e.Err)
}

func (e *WatchError) Unwrap() error {
	return e.Err
}

// RecordError reports a record whose fields could not be extracted.
// Processing continues with the next record.
type RecordError struct {
	// Message is the log message line of the failing record.
	Message string
	Err     error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("eftlog: record %q: %v", truncate(e.Message, 120), e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
