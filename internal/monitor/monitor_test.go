package monitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	chunks  chan string
	errs    chan error
	stopped atomic.Bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{chunks: make(chan string, 16), errs: make(chan error, 16)}
}

func (f *fakeSource) Chunks() <-chan string { return f.chunks }
func (f *fakeSource) Errors() <-chan error  { return f.errs }
func (f *fakeSource) Stop() error {
	f.stopped.Store(true)
	return nil
}

// fakeOpener hands out sources in order and records the paths opened.
type fakeOpener struct {
	sources chan *fakeSource
	opened  chan string
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{sources: make(chan *fakeSource, 8), opened: make(chan string, 8)}
}

func (o *fakeOpener) push() *fakeSource {
	src := newFakeSource()
	o.sources <- src
	return src
}

func (o *fakeOpener) open(_ context.Context, path string, _ bool) (Source, error) {
	o.opened <- path
	select {
	case src := <-o.sources:
		return src, nil
	default:
		return nil, errors.New("no source queued")
	}
}

func next(t *testing.T, s *Set) Delivery {
	t.Helper()
	select {
	case d := <-s.Deliveries():
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for delivery")
		return Delivery{}
	}
}

func TestRoleOf(t *testing.T) {
	tests := []struct {
		path string
		want Role
		ok   bool
	}{
		{`C:\Games\EFT\Logs\log_x\2024.01.15_10-00-00_0.14 application.log`, Application, true},
		{"/logs/log_x/2024.01.15_10-00-00_0.14 notifications.log", Notifications, true},
		{"/logs/log_x/2024 traces.log", Traces, true},
		{"/logs/log_x/2024 backend.log", 0, false},
		{"/logs/application/readme.txt", 0, false},
	}
	for _, tt := range tests {
		got, ok := RoleOf(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.path)
		}
	}
	assert.Equal(t, "notifications", Notifications.String())
	assert.Equal(t, "unknown", Role(7).String())
}

func TestSet_DeliversRecordsWithIdleFlush(t *testing.T) {
	o := newFakeOpener()
	src := o.push()
	s := NewSet(o.open, WithIdleFlush(20*time.Millisecond))
	defer s.StopAll()

	m, err := s.Start(context.Background(), Notifications, "notifications.log", false)
	require.NoError(t, err)
	assert.Equal(t, Notifications, m.Role())
	assert.Equal(t, "notifications.log", m.Path())

	src.chunks <- "2024-01-15 10:00:00.000|Got notification | GroupMatchUserLeave\n{\n\"Nickname\":"
	src.chunks <- " \"Bob\"\n}\n2024-01-15 10:00:01.000|application|GameStarted\n"

	d := next(t, s)
	assert.True(t, s.IsCurrent(d))
	assert.Equal(t, m.Gen(), d.Gen)
	assert.Equal(t, "notifications.log", d.Path)
	assert.Equal(t, "Bob", string(d.Record.Payload.GetStringBytes("Nickname")))

	// The trailing message has no following line; the idle flush releases it.
	d = next(t, s)
	assert.Contains(t, d.Record.Message, "GameStarted")
}

func TestSet_SourceErrorsAreDelivered(t *testing.T) {
	o := newFakeOpener()
	src := o.push()
	s := NewSet(o.open)
	defer s.StopAll()

	_, err := s.Start(context.Background(), Application, "application.log", false)
	require.NoError(t, err)

	boom := errors.New("boom")
	src.errs <- boom
	d := next(t, s)
	assert.ErrorIs(t, d.Err, boom)
	assert.Equal(t, Application, d.Role)
}

func TestSet_SupersedeDropsOldDeliveries(t *testing.T) {
	o := newFakeOpener()
	oldSrc := o.push()
	s := NewSet(o.open, WithIdleFlush(0))
	defer s.StopAll()

	old, err := s.Start(context.Background(), Application, "old application.log", false)
	require.NoError(t, err)

	// Two complete records from the old file are queued but not consumed.
	oldSrc.chunks <- "2024-01-15 10:00:00.000|application|GameStarting\n2024-01-15 10:00:01.000|application|GameStarted\n2024-01-15 10:00:02.000|x\n"
	require.Eventually(t, func() bool { return len(s.Deliveries()) >= 2 }, 2*time.Second, 5*time.Millisecond)

	newSrc := o.push()
	cur, err := s.Start(context.Background(), Application, "new application.log", false)
	require.NoError(t, err)
	assert.True(t, oldSrc.stopped.Load(), "old source must be stopped before the new one starts")
	assert.NotEqual(t, old.Gen(), cur.Gen())
	assert.Same(t, cur, s.Current(Application))
	assert.Equal(t, 1, s.Len())

	// Anything the old monitor sends after this point is impossible: it has exited.
	oldSrc.chunks <- "2024-01-15 10:00:03.000|late\n2024-01-15 10:00:04.000|late\n"

	newSrc.chunks <- "2024-01-15 10:00:05.000|application|LocationLoaded:1 real:2\n2024-01-15 10:00:06.000|y\n"

	var current []Delivery
	deadline := time.After(2 * time.Second)
	for len(current) == 0 {
		select {
		case d := <-s.Deliveries():
			if s.IsCurrent(d) {
				current = append(current, d)
				continue
			}
			assert.Equal(t, old.Gen(), d.Gen)
			assert.NotContains(t, d.Record.Message, "late")
		case <-deadline:
			t.Fatal("timeout waiting for delivery from the new monitor")
		}
	}
	assert.Equal(t, "new application.log", current[0].Path)
	assert.Contains(t, current[0].Record.Message, "LocationLoaded")
}

func TestSet_StopAll(t *testing.T) {
	o := newFakeOpener()
	a, n := o.push(), o.push()
	s := NewSet(o.open)

	_, err := s.Start(context.Background(), Application, "application.log", false)
	require.NoError(t, err)
	_, err = s.Start(context.Background(), Notifications, "notifications.log", false)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	a.chunks <- "2024-01-15 10:00:00.000|a\n2024-01-15 10:00:01.000|b\n"
	d := next(t, s)
	assert.True(t, s.IsCurrent(d))

	s.StopAll()
	assert.Equal(t, 0, s.Len())
	assert.True(t, a.stopped.Load())
	assert.True(t, n.stopped.Load())
	assert.False(t, s.IsCurrent(d))
	assert.Nil(t, s.Current(Application))
}

func TestSet_OpenError(t *testing.T) {
	o := newFakeOpener()
	s := NewSet(o.open)

	_, err := s.Start(context.Background(), Traces, "traces.log", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "traces")
	assert.Equal(t, 0, s.Len())
}

func TestSet_ContextCancelStopsMonitor(t *testing.T) {
	o := newFakeOpener()
	src := o.push()
	s := NewSet(o.open)

	ctx, cancel := context.WithCancel(context.Background())
	m, err := s.Start(ctx, Application, "application.log", false)
	require.NoError(t, err)
	cancel()

	select {
	case <-m.doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not exit after context cancel")
	}
	s.StopAll()
	assert.True(t, src.stopped.Load())
}

func TestTailOpener(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2024.01.15 application.log")
	require.NoError(t, os.WriteFile(path, []byte("2024-01-15 10:00:00.000|application|GameStarting\n"), 0o644))

	s := NewSet(TailOpener(true), WithIdleFlush(20*time.Millisecond))
	defer s.StopAll()

	_, err := s.Start(context.Background(), Application, path, true)
	require.NoError(t, err)

	d := next(t, s)
	require.NoError(t, d.Err)
	assert.Contains(t, d.Record.Message, "GameStarting")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteString("2024-01-15 10:00:01.000|application|GameStarted\n")
	require.NoError(t, err)
	require.NoError(t, f.Sync())

	d = next(t, s)
	assert.Contains(t, d.Record.Message, "GameStarted")
}
