// Package tailer follows a single log file and delivers appended text.
package tailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/nxadm/tail"
)

const (
	// errBuffer is the buffer size for the error channel.
	errBuffer = 16

	// maxChunk caps how much text is coalesced before a chunk is handed off
	// even though more lines are waiting.
	maxChunk = 256 * 1024
)

// Tailer follows one file. Text appended to it is delivered on Chunks in file
// order: each chunk holds every complete line that became available since
// the previous chunk was taken, terminators included. A line is never split
// across chunks.
type Tailer struct {
	t      *tail.Tail
	path   string
	ctx    context.Context
	cancel context.CancelFunc
	chunks chan string
	errors chan error
	doneCh chan struct{}

	mu      sync.Mutex
	stopped bool
}

// Config controls how a file is followed.
type Config struct {
	// Follow keeps reading as the file grows. Without it Chunks closes at EOF.
	Follow bool

	// ReOpen reopens the file when it is truncated or recreated.
	ReOpen bool

	// Poll uses stat polling instead of filesystem notifications.
	Poll bool

	// MustExist fails New when the file does not exist yet.
	MustExist bool

	// FromStart delivers the existing content first. Otherwise only text
	// appended after New returns is delivered.
	FromStart bool
}

// DefaultConfig follows a game log from its current end.
func DefaultConfig() Config {
	return Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
	}
}

// New starts following path. The provided context controls the tailer's
// lifecycle.
func New(ctx context.Context, path string, cfg Config) (*Tailer, error) {
	location, err := startAt(path, cfg)
	if err != nil {
		return nil, err
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:        cfg.Follow,
		ReOpen:        cfg.ReOpen,
		Poll:          cfg.Poll,
		MustExist:     cfg.MustExist,
		Location:      location,
		CompleteLines: true,
		Logger:        tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening tail: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)

	tailer := &Tailer{
		t:      t,
		path:   path,
		ctx:    ctx,
		cancel: cancel,
		chunks: make(chan string),
		errors: make(chan error, errBuffer),
		doneCh: make(chan struct{}),
	}

	go tailer.run()

	return tailer, nil
}

// startAt pins the read position to the file size seen now, so text written
// after New returns is never skipped by a late seek to the end.
func startAt(path string, cfg Config) (*tail.SeekInfo, error) {
	if cfg.FromStart {
		return &tail.SeekInfo{Offset: 0, Whence: io.SeekStart}, nil
	}
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return &tail.SeekInfo{Offset: info.Size(), Whence: io.SeekStart}, nil
	case errors.Is(err, os.ErrNotExist) && !cfg.MustExist:
		return &tail.SeekInfo{Offset: 0, Whence: io.SeekStart}, nil
	default:
		return nil, fmt.Errorf("opening tail: %w", err)
	}
}

// Path returns the file being tailed.
func (t *Tailer) Path() string {
	return t.path
}

// Chunks returns the channel of appended text.
// It is closed when the tailer stops or reaches the end of a non-followed file.
func (t *Tailer) Chunks() <-chan string {
	return t.chunks
}

// Errors returns a channel that receives errors from tailing.
// Errors are dropped when the buffer is full.
func (t *Tailer) Errors() <-chan error {
	return t.errors
}

// Stop stops tailing and closes all channels. After Stop returns no further
// chunk is delivered. Safe to call multiple times.
func (t *Tailer) Stop() error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	t.stopped = true
	t.mu.Unlock()

	t.cancel()
	<-t.doneCh
	return t.t.Stop()
}

// run coalesces lines from nxadm/tail into chunks. While a chunk waits for
// the consumer, newly read lines are appended to it.
func (t *Tailer) run() {
	defer close(t.doneCh)
	defer close(t.chunks)
	defer close(t.errors)

	var (
		buf   strings.Builder
		lines = t.t.Lines
	)
	for {
		// Only offer a chunk when there is text; stop reading while full.
		var out chan<- string
		if buf.Len() > 0 {
			out = t.chunks
		}
		in := lines
		if buf.Len() >= maxChunk {
			in = nil
		}
		if in == nil && out == nil {
			return
		}

		select {
		case <-t.ctx.Done():
			return

		case out <- buf.String():
			buf.Reset()

		case line, ok := <-in:
			if !ok {
				// Deliver what was read before the end of a non-followed file.
				lines = nil
				continue
			}
			if line.Err != nil {
				select {
				case t.errors <- fmt.Errorf("tail %s: %w", t.path, line.Err):
				default:
				}
				continue
			}
			// nxadm/tail strips the terminator.
			buf.WriteString(line.Text)
			buf.WriteByte('\n')
		}
	}
}
