package monitor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// deliveryBuffer is the buffer size of the shared deliveries channel.
const deliveryBuffer = 64

// DefaultIdleFlush is how long a monitor waits for more text before
// releasing a message line that may still be followed by a payload.
const DefaultIdleFlush = 500 * time.Millisecond

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Set owns at most one Monitor per Role. All monitors share one deliveries
// channel; each delivery carries the generation of the monitor that sent it
// so the consumer can drop anything from a superseded monitor.
type Set struct {
	open   Opener
	idle   time.Duration
	logger *slog.Logger
	out    chan Delivery

	mu       sync.Mutex
	gen      uint64
	monitors map[Role]*Monitor
}

// SetOption configures a Set.
type SetOption func(*Set)

// WithIdleFlush sets the idle flush delay. Zero disables idle flushing.
func WithIdleFlush(d time.Duration) SetOption {
	return func(s *Set) { s.idle = d }
}

// WithLogger sets the logger used for monitor lifecycle messages.
func WithLogger(l *slog.Logger) SetOption {
	return func(s *Set) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSet returns an empty Set that opens sources with open.
func NewSet(open Opener, opts ...SetOption) *Set {
	s := &Set{
		open:     open,
		idle:     DefaultIdleFlush,
		logger:   discardLogger,
		out:      make(chan Delivery, deliveryBuffer),
		monitors: make(map[Role]*Monitor),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deliveries returns the channel all monitors send on. It is never closed.
func (s *Set) Deliveries() <-chan Delivery {
	return s.out
}

// Start follows path for role. An existing monitor for the same role is
// stopped before the new source is opened, so the two never deliver
// concurrently. The monitor runs until ctx is done or it is superseded.
func (s *Set) Start(ctx context.Context, role Role, path string, fromStart bool) (*Monitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old := s.monitors[role]; old != nil {
		delete(s.monitors, role)
		old.Stop()
		s.logger.Debug("monitor superseded", "role", role, "path", old.path, "gen", old.gen)
	}

	mctx, cancel := context.WithCancel(ctx)
	src, err := s.open(mctx, path, fromStart)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("opening %s log: %w", role, err)
	}

	s.gen++
	m := &Monitor{
		role:   role,
		gen:    s.gen,
		path:   path,
		src:    src,
		out:    s.out,
		idle:   s.idle,
		logger: s.logger,
		cancel: cancel,
		doneCh: make(chan struct{}),
	}
	s.monitors[role] = m
	go m.run(mctx)

	s.logger.Debug("monitor started", "role", role, "path", path, "gen", m.gen, "from_start", fromStart)
	return m, nil
}

// IsCurrent reports whether d was sent by the live monitor for its role.
func (s *Set) IsCurrent(d Delivery) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.monitors[d.Role]
	return m != nil && m.gen == d.Gen
}

// Current returns the live monitor for role, or nil.
func (s *Set) Current(role Role) *Monitor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.monitors[role]
}

// Len returns the number of live monitors.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.monitors)
}

// StopAll stops every monitor. Deliveries already queued become stale.
func (s *Set) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for role, m := range s.monitors {
		delete(s.monitors, role)
		m.Stop()
	}
}
