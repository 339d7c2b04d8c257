package eftlog

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eftlog/eftlog-go/internal/parser"
	"github.com/eftlog/eftlog-go/internal/record"
	"github.com/eftlog/eftlog-go/pkg/eftlog/event"
)

const testPrefix = "2024-01-15 10:00:00.000|0.14|Info|"

func TestPipeline_StampsEvents(t *testing.T) {
	p := newPipeline(nil, true, false, discardLogger)
	p.reset("session-1")

	r := record.New(testPrefix+"notifications|Got notification | GroupMatchUserLeave", `{"Nickname":"Bob"}`)
	evs, err := p.apply(r)
	require.NoError(t, err)
	require.Len(t, evs, 1)

	ev := evs[0]
	assert.Equal(t, event.GroupUserLeaveData{Nickname: "Bob"}, ev.Data)
	assert.Equal(t, "session-1", ev.SessionID)
	assert.Equal(t, r.Message, ev.RawLine)
	assert.Equal(t, r.Time(), ev.Time)
}

func TestPipeline_ZeroTimeFallsBackToClock(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	p := newPipeline(nil, false, false, discardLogger)
	p.now = func() time.Time { return now }

	evs, err := p.apply(record.New("2024-13-99 broken|Got notification | GroupMatchWasRemoved", ""))
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, now, evs[0].Time)
	assert.Empty(t, evs[0].RawLine)
}

func TestPipeline_FieldErrorBecomesException(t *testing.T) {
	p := newPipeline(nil, false, false, discardLogger)

	evs, err := p.apply(record.New(testPrefix+"notifications|Got notification | GroupMatchUserLeave", `{}`))
	var recErr *RecordError
	require.ErrorAs(t, err, &recErr)
	var fieldErr *parser.FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "Nickname", fieldErr.Field)

	require.Len(t, evs, 1)
	assert.Equal(t, EventException, evs[0].Type)
	assert.Same(t, recErr, evs[0].Data.(event.ExceptionData).Err)
}

func TestPipeline_RecoversPanics(t *testing.T) {
	p := newPipeline(nil, false, false, discardLogger)
	p.machine = nil

	evs, err := p.apply(record.New(testPrefix+"application|GameStarted", ""))
	var recErr *RecordError
	require.ErrorAs(t, err, &recErr)
	assert.Contains(t, recErr.Error(), "panic")
	require.Len(t, evs, 1)
	assert.Equal(t, EventException, evs[0].Type)
}

func TestPipeline_MalformedPayloadDebug(t *testing.T) {
	r := record.New(testPrefix+"notifications|Got notification | GroupMatchWasRemoved", "{\n\"broken\": \n}")
	require.Error(t, r.PayloadErr)

	t.Run("disabled", func(t *testing.T) {
		p := newPipeline(nil, false, false, discardLogger)
		evs, err := p.apply(r)
		require.NoError(t, err)
		assert.Equal(t, []EventType{EventGroupDisbanded}, typesOf(evs))
	})

	t.Run("enabled", func(t *testing.T) {
		p := newPipeline(nil, false, true, discardLogger)
		evs, err := p.apply(r)
		require.NoError(t, err)
		require.Equal(t, []EventType{EventDebug, EventGroupDisbanded}, typesOf(evs))
		assert.True(t, strings.HasPrefix(evs[0].Data.(event.DebugData).Text, "malformed payload"))
	})
}

func TestPipeline_DebugRateLimit(t *testing.T) {
	p := newPipeline(nil, false, true, discardLogger)

	allowed := 0
	for range 3 * debugRateLimit {
		if _, ok := p.debugEvent("x"); ok {
			allowed++
		}
	}
	assert.GreaterOrEqual(t, allowed, debugRateLimit)
	assert.Less(t, allowed, 2*debugRateLimit)
}

func TestPipeline_Filter(t *testing.T) {
	p := newPipeline(newCompiledFilter(nil, []EventType{EventException, EventGroupDisbanded}), false, true, discardLogger)

	evs, err := p.apply(record.New(testPrefix+"notifications|Got notification | GroupMatchWasRemoved", ""))
	require.NoError(t, err)
	assert.Empty(t, evs)

	_, ok := p.exception(errors.New("boom"))
	assert.False(t, ok)

	_, ok = p.event(event.GameStartedData{PID: 1})
	assert.True(t, ok)
}

func TestPipeline_ResetClearsRaidState(t *testing.T) {
	p := newPipeline(nil, false, false, discardLogger)
	_, err := p.apply(record.New(testPrefix+"application|LocationLoaded:1 real:5.25", ""))
	require.NoError(t, err)

	p.reset("next")
	evs, err := p.apply(record.New(testPrefix+"application|Network game matching aborted", ""))
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, event.MatchingAbortedData{}, evs[0].Data)
	assert.Equal(t, "next", evs[0].SessionID)
}

func typesOf(evs []Event) []EventType {
	out := make([]EventType, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type
	}
	return out
}
