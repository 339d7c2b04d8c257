package eftlog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/eftlog/eftlog-go/internal/logfinder"
	"github.com/eftlog/eftlog-go/internal/monitor"
	"github.com/eftlog/eftlog-go/pkg/eftlog/event"
)

// Watcher follows the logs of the running game and emits events.
type Watcher struct {
	cfg *watchConfig

	mu       sync.Mutex
	closed   bool
	cancel   context.CancelFunc // cancel func to stop the goroutine
	doneCh   chan struct{}      // signals when goroutine has exited
	watching bool               // true if Watch() has been called
}

// NewWatcher creates a watcher.
// Validates options. Does NOT start goroutines (cheap to call).
// The game does not need to be running yet.
func NewWatcher(opts ...WatchOption) (*Watcher, error) {
	cfg := applyWatchOptions(opts)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if cfg.logsDir != "" {
		if _, err := logfinder.FindLogsDir(cfg.logsDir, ""); err != nil {
			return nil, err
		}
	}
	return &Watcher{cfg: cfg}, nil
}

// Watch starts watching and returns the event channel.
//
// The watcher polls for the game process; each time it (re)appears, the
// newest session folder is located, a GameStarted event is emitted and the
// session's log files are followed. Errors are delivered in-band as
// Exception events and never stop the watcher.
//
// The channel is closed when ctx is cancelled or Close is called.
// Watch can only be called once per Watcher instance.
func (w *Watcher) Watch(ctx context.Context) (<-chan Event, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrWatcherClosed
	}
	if w.watching {
		w.mu.Unlock()
		return nil, ErrAlreadyWatching
	}
	w.watching = true

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	out := make(chan Event)
	c := newCoordinator(w.cfg, out)
	go func() {
		defer close(w.doneCh)
		c.run(ctx)
	}()

	return out, nil
}

// Close stops the watcher and releases resources.
// Safe to call multiple times.
// Blocks until the goroutine has exited.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true

	if w.cancel != nil {
		w.cancel()
	}
	doneCh := w.doneCh
	w.mu.Unlock()

	if doneCh != nil {
		<-doneCh
	}
	return nil
}

// Watch is a convenience function that creates a watcher and starts watching.
// Returns error immediately for initialization failures.
func Watch(ctx context.Context, opts ...WatchOption) (<-chan Event, error) {
	w, err := NewWatcher(opts...)
	if err != nil {
		return nil, err
	}
	events, err := w.Watch(ctx)
	if err != nil {
		return nil, err
	}
	// Release the watcher's resources once the caller's context ends.
	go func() {
		<-ctx.Done()
		_ = w.Close()
	}()
	return events, nil
}

// attachment is what the coordinator knows about the process it follows.
type attachment struct {
	proc       *Process
	logsDir    string
	sessionDir string
	fsw        *fsnotify.Watcher
}

// coordinator is the single goroutine that owns the session state. Poll
// ticks, file creation and monitor deliveries are serialized through run.
type coordinator struct {
	cfg  *watchConfig
	out  chan<- Event
	pipe *pipeline
	set  *monitor.Set
	att  *attachment
}

func newCoordinator(cfg *watchConfig, out chan<- Event) *coordinator {
	return &coordinator{
		cfg:  cfg,
		out:  out,
		pipe: newPipeline(cfg.filter, cfg.includeRawLine, cfg.debugMessages, cfg.logger),
		set: monitor.NewSet(cfg.opener,
			monitor.WithIdleFlush(cfg.idleFlush),
			monitor.WithLogger(cfg.logger),
		),
	}
}

func (c *coordinator) run(ctx context.Context) {
	defer close(c.out)
	defer c.release()

	c.poll(ctx)

	ticker := time.NewTicker(c.cfg.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			c.poll(ctx)

		case ev, ok := <-c.fsEvents():
			if !ok {
				c.closeFsnotify()
				continue
			}
			c.handleFsEvent(ctx, ev)

		case err, ok := <-c.fsErrors():
			if !ok {
				c.closeFsnotify()
				continue
			}
			c.emitErr(ctx, &WatchError{Op: WatchOpFsnotify, Path: c.att.logsDir, Err: err})

		case d := <-c.set.Deliveries():
			if !c.set.IsCurrent(d) {
				// Sent by a monitor that has since been superseded or stopped.
				continue
			}
			c.handleDelivery(ctx, d)
		}
	}
}

// poll checks the tracked process, detaching when it has exited and
// attaching when a new one is found.
func (c *coordinator) poll(ctx context.Context) {
	if c.att != nil {
		running, err := c.cfg.finder.Running(ctx, c.att.proc)
		if err != nil {
			c.emitErr(ctx, &WatchError{Op: WatchOpFindProcess, Path: c.att.proc.Exe, Err: err})
			return
		}
		if running {
			return
		}
		pid := c.att.proc.PID
		c.release()
		c.pipe.reset("")
		c.cfg.logger.Info("game process exited", "pid", pid)
		c.emitDebug(ctx, fmt.Sprintf("game process %d exited", pid))
	}

	proc, err := c.cfg.finder.Find(ctx)
	if err != nil {
		c.emitErr(ctx, &WatchError{Op: WatchOpFindProcess, Err: err})
		return
	}
	if proc == nil {
		c.cfg.logger.Debug("game process not running")
		return
	}
	c.attach(ctx, proc)
}

func (c *coordinator) attach(ctx context.Context, proc *Process) {
	logsDir, err := logfinder.FindLogsDir(c.cfg.logsDir, proc.Exe)
	if err != nil {
		c.emitErr(ctx, &WatchError{Op: WatchOpResolveLogs, Path: proc.Exe, Err: err})
		return
	}

	sessionDir, err := logfinder.FindLatestSessionDir(logsDir)
	if err != nil && !errors.Is(err, ErrNoSessionDir) {
		c.emitErr(ctx, &WatchError{Op: WatchOpFindSession, Path: logsDir, Err: err})
		return
	}

	c.att = &attachment{proc: proc, logsDir: logsDir, sessionDir: sessionDir}
	c.pipe.reset(uuid.NewString())
	c.cfg.logger.Info("game process found", "pid", proc.PID, "logs_dir", logsDir, "session_dir", sessionDir)

	c.emitData(ctx, event.GameStartedData{
		PID:        proc.PID,
		Executable: proc.Exe,
		LogsDir:    logsDir,
		SessionDir: sessionDir,
	})

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		c.emitErr(ctx, &WatchError{Op: WatchOpFsnotify, Path: logsDir, Err: err})
	} else {
		c.att.fsw = fsw
		c.addWatch(ctx, logsDir)
	}

	if sessionDir == "" {
		c.emitDebug(ctx, fmt.Sprintf("no session folder in %s yet", logsDir))
		return
	}
	c.addWatch(ctx, sessionDir)
	c.startRoleFiles(ctx, sessionDir, c.cfg.replayFromStart)
}

// startRoleFiles starts a monitor for each role file in dir that is not
// already being followed.
func (c *coordinator) startRoleFiles(ctx context.Context, dir string, fromStart bool) {
	files, err := logfinder.RoleFiles(dir)
	if err != nil {
		c.emitErr(ctx, &WatchError{Op: WatchOpFindSession, Path: dir, Err: err})
		return
	}
	for _, path := range files {
		c.startMonitor(ctx, path, fromStart)
	}
}

func (c *coordinator) startMonitor(ctx context.Context, path string, fromStart bool) {
	role, ok := monitor.RoleOf(path)
	if !ok || (role == monitor.Traces && !c.cfg.traces) {
		return
	}
	if cur := c.set.Current(role); cur != nil && cur.Path() == path {
		return
	}
	if _, err := c.set.Start(ctx, role, path, fromStart); err != nil {
		c.emitErr(ctx, &WatchError{Op: WatchOpMonitor, Path: path, Err: err})
		return
	}
	c.emitDebug(ctx, fmt.Sprintf("monitoring %s log %s", role, filepath.Base(path)))
}

func (c *coordinator) handleFsEvent(ctx context.Context, ev fsnotify.Event) {
	if c.att == nil || !ev.Has(fsnotify.Create) {
		return
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if filepath.Dir(ev.Name) != c.att.logsDir {
			return
		}
		// The game started a new session folder. Files of the previous
		// one are no longer of interest.
		if prev := c.att.sessionDir; prev != "" && c.att.fsw != nil {
			_ = c.att.fsw.Remove(prev)
		}
		c.att.sessionDir = ev.Name
		c.addWatch(ctx, ev.Name)
		c.emitDebug(ctx, fmt.Sprintf("new session folder %s", filepath.Base(ev.Name)))
		c.startRoleFiles(ctx, ev.Name, true)
		return
	}

	if filepath.Dir(ev.Name) != c.att.sessionDir || !logfinder.IsRoleFile(ev.Name) {
		return
	}
	// A new file for a role supersedes the old one (log rotation).
	c.startMonitor(ctx, ev.Name, true)
}

func (c *coordinator) handleDelivery(ctx context.Context, d monitor.Delivery) {
	if d.Err != nil {
		c.emitErr(ctx, &WatchError{Op: WatchOpTail, Path: d.Path, Err: d.Err})
		return
	}
	evs, _ := c.pipe.apply(d.Record)
	for _, ev := range evs {
		if !c.emit(ctx, ev) {
			return
		}
	}
}

func (c *coordinator) addWatch(ctx context.Context, dir string) {
	if c.att == nil || c.att.fsw == nil {
		return
	}
	if err := c.att.fsw.Add(dir); err != nil {
		c.emitErr(ctx, &WatchError{Op: WatchOpFsnotify, Path: dir, Err: err})
	}
}

func (c *coordinator) fsEvents() <-chan fsnotify.Event {
	if c.att == nil || c.att.fsw == nil {
		return nil
	}
	return c.att.fsw.Events
}

func (c *coordinator) fsErrors() <-chan error {
	if c.att == nil || c.att.fsw == nil {
		return nil
	}
	return c.att.fsw.Errors
}

func (c *coordinator) closeFsnotify() {
	if c.att != nil && c.att.fsw != nil {
		_ = c.att.fsw.Close()
		c.att.fsw = nil
	}
}

// release stops all monitors and filesystem watches.
func (c *coordinator) release() {
	c.set.StopAll()
	c.closeFsnotify()
	c.att = nil
}

func (c *coordinator) emit(ctx context.Context, ev Event) bool {
	select {
	case c.out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *coordinator) emitData(ctx context.Context, d event.Data) {
	if ev, ok := c.pipe.event(d); ok {
		c.emit(ctx, ev)
	}
}

func (c *coordinator) emitErr(ctx context.Context, err error) {
	c.cfg.logger.Warn("watch error", "error", err)
	if ev, ok := c.pipe.exception(err); ok {
		c.emit(ctx, ev)
	}
}

func (c *coordinator) emitDebug(ctx context.Context, text string) {
	if ev, ok := c.pipe.debugEvent(text); ok {
		c.emit(ctx, ev)
	}
}
