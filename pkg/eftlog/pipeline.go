package eftlog

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/eftlog/eftlog-go/internal/parser"
	"github.com/eftlog/eftlog-go/internal/record"
	"github.com/eftlog/eftlog-go/internal/session"
	"github.com/eftlog/eftlog-go/pkg/eftlog/event"
)

// Debug events are limited to this many per second, with an equal burst.
const debugRateLimit = 10

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// pipeline turns records into events. It owns the session state and must
// only be used from one goroutine.
type pipeline struct {
	machine        *session.Machine
	sessionID      string
	includeRawLine bool
	filter         *compiledFilter
	logger         *slog.Logger

	// debug is nil when Debug events are disabled.
	debug *rate.Limiter

	// now is the clock for events not tied to a record.
	now func() time.Time
}

func newPipeline(filter *compiledFilter, includeRawLine, debugMessages bool, logger *slog.Logger) *pipeline {
	p := &pipeline{
		machine:        session.New(),
		includeRawLine: includeRawLine,
		filter:         filter,
		logger:         logger,
		now:            time.Now,
	}
	if debugMessages {
		p.debug = rate.NewLimiter(debugRateLimit, debugRateLimit)
	}
	return p
}

// reset starts a new session with empty raid state.
func (p *pipeline) reset(sessionID string) {
	p.machine.Reset()
	p.sessionID = sessionID
}

// apply classifies r and runs it through the state machine. Field extraction
// failures and panics become Exception events; they never stop the stream.
func (p *pipeline) apply(r record.Record) (out []Event, recErr error) {
	defer func() {
		if v := recover(); v != nil {
			recErr = &RecordError{Message: r.Message, Err: fmt.Errorf("panic: %v", v)}
			p.logger.Error("record processing panicked", "message", r.Message, "panic", v)
			out = p.keep(out, p.stamp(event.New(r.Time(), event.NewException(recErr)), r))
		}
	}()

	if r.PayloadErr != nil {
		p.logger.Debug("malformed payload", "message", r.Message, "error", r.PayloadErr)
		if ev, ok := p.debugEvent(fmt.Sprintf("malformed payload after %q: %v", truncate(r.Message, 80), r.PayloadErr)); ok {
			out = p.keep(out, ev)
		}
	}

	msgs, err := parser.Match(r)
	for _, msg := range msgs {
		for _, ev := range p.machine.Apply(msg) {
			out = p.keep(out, p.stamp(ev, r))
		}
	}
	if err != nil {
		recErr = &RecordError{Message: r.Message, Err: err}
		p.logger.Warn("record field extraction failed", "error", err)
		out = p.keep(out, p.stamp(event.New(r.Time(), event.NewException(recErr)), r))
	}
	return out, recErr
}

// exception builds an Exception event for an error not tied to a record.
func (p *pipeline) exception(err error) (Event, bool) {
	ev := event.New(p.now(), event.NewException(err))
	ev.SessionID = p.sessionID
	return ev, p.filter.Allows(ev.Type)
}

// debugEvent builds a Debug event if debug events are enabled and the rate
// limit allows it.
func (p *pipeline) debugEvent(text string) (Event, bool) {
	if p.debug == nil || !p.filter.Allows(event.Debug) || !p.debug.Allow() {
		return Event{}, false
	}
	ev := event.New(p.now(), event.DebugData{Text: text})
	ev.SessionID = p.sessionID
	return ev, true
}

// event wraps d with the session id, for events not tied to a record.
func (p *pipeline) event(d event.Data) (Event, bool) {
	ev := event.New(p.now(), d)
	ev.SessionID = p.sessionID
	return ev, p.filter.Allows(ev.Type)
}

func (p *pipeline) stamp(ev Event, r record.Record) Event {
	ev.SessionID = p.sessionID
	if ev.Time.IsZero() {
		ev.Time = p.now()
	}
	if p.includeRawLine {
		ev.RawLine = r.Message
	}
	return ev
}

func (p *pipeline) keep(out []Event, ev Event) []Event {
	if !p.filter.Allows(ev.Type) {
		return out
	}
	return append(out, ev)
}
