// Package monitor runs one tail subscription per log role and turns the
// appended text into records.
package monitor

import (
	"context"
	"iter"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/eftlog/eftlog-go/internal/record"
	"github.com/eftlog/eftlog-go/internal/tailer"
)

// Role identifies which of a session's log files a monitor follows.
type Role int

const (
	Application Role = iota
	Notifications
	Traces
)

var roleNames = [...]string{
	Application:   "application",
	Notifications: "notifications",
	Traces:        "traces",
}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return "unknown"
	}
	return roleNames[r]
}

// RoleOf returns the role of a log file from its name.
func RoleOf(path string) (Role, bool) {
	base := filepath.Base(path)
	for r, name := range roleNames {
		if strings.Contains(base, name+".log") {
			return Role(r), true
		}
	}
	return 0, false
}

// Source delivers appended text for one file. *tailer.Tailer implements it.
type Source interface {
	Chunks() <-chan string
	Errors() <-chan error
	Stop() error
}

// Opener starts a Source for path. fromStart selects whether existing content
// is delivered.
type Opener func(ctx context.Context, path string, fromStart bool) (Source, error)

// TailOpener returns an Opener backed by nxadm/tail.
func TailOpener(poll bool) Opener {
	return func(ctx context.Context, path string, fromStart bool) (Source, error) {
		cfg := tailer.DefaultConfig()
		cfg.Poll = poll
		cfg.FromStart = fromStart
		t, err := tailer.New(ctx, path, cfg)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
}

// Delivery is one record, or one source error, from a monitor.
type Delivery struct {
	Role Role
	Gen  uint64
	Path string

	Record record.Record
	Err    error
}

// Monitor follows one file. Create monitors through a Set.
type Monitor struct {
	role   Role
	gen    uint64
	path   string
	src    Source
	out    chan<- Delivery
	idle   time.Duration
	logger *slog.Logger

	cancel context.CancelFunc
	doneCh chan struct{}
}

// Role returns the role the monitor was started for.
func (m *Monitor) Role() Role { return m.role }

// Path returns the followed file.
func (m *Monitor) Path() string { return m.path }

// Gen returns the generation stamped on the monitor's deliveries.
func (m *Monitor) Gen() uint64 { return m.gen }

// Stop ends the subscription. No delivery is sent after Stop returns.
// Safe to call multiple times.
func (m *Monitor) Stop() {
	m.cancel()
	<-m.doneCh
	if err := m.src.Stop(); err != nil {
		m.logger.Debug("stopping source", "path", m.path, "error", err)
	}
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.doneCh)

	sp := record.NewSplitter()
	idle := time.NewTimer(m.idle)
	idle.Stop()
	defer idle.Stop()

	chunks, errs := m.src.Chunks(), m.src.Errors()
	for {
		select {
		case <-ctx.Done():
			return

		case chunk, ok := <-chunks:
			if !ok {
				m.deliver(ctx, sp.Flush())
				m.logger.Debug("source closed", "role", m.role, "path", m.path)
				return
			}
			if !m.deliver(ctx, sp.Feed(chunk)) {
				return
			}
			if sp.Buffered() && m.idle > 0 {
				idle.Reset(m.idle)
			} else {
				idle.Stop()
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if !m.send(ctx, Delivery{Err: err}) {
				return
			}

		case <-idle.C:
			if !m.deliver(ctx, sp.Flush()) {
				return
			}
		}
	}
}

func (m *Monitor) deliver(ctx context.Context, recs iter.Seq[record.Record]) bool {
	for r := range recs {
		if !m.send(ctx, Delivery{Record: r}) {
			return false
		}
	}
	return true
}

func (m *Monitor) send(ctx context.Context, d Delivery) bool {
	d.Role, d.Gen, d.Path = m.role, m.gen, m.path
	select {
	case m.out <- d:
		return true
	case <-ctx.Done():
		return false
	}
}
