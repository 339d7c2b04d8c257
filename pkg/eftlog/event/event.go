// Package event defines the Event type emitted by the Escape from Tarkov log watcher.
//
// This package is separated from the main eftlog package so that internal
// packages (the session state machine, the pattern matcher) can construct
// events without importing eftlog.
package event

import (
	"sort"
	"strings"
	"time"
)

// Type represents the kind of an Event.
type Type string

const (
	// GameStarted indicates the game process was found and monitoring began.
	GameStarted Type = "game_started"

	// RaidExited indicates the server reported the end of a match.
	RaidExited Type = "raid_exited"

	// GroupMatchInvite indicates a group invite was accepted or received.
	GroupMatchInvite Type = "group_match_invite"

	// GroupReady indicates another group member readied up.
	GroupReady Type = "group_ready"

	// GroupDisbanded indicates the group was removed.
	GroupDisbanded Type = "group_disbanded"

	// GroupUserLeave indicates a member left the group.
	GroupUserLeave Type = "group_user_leave"

	// MatchingStarted indicates the map finished loading and matching began.
	MatchingStarted Type = "matching_started"

	// MatchFound indicates matching completed after the player queued.
	MatchFound Type = "match_found"

	// MatchingAborted indicates the player cancelled matching.
	MatchingAborted Type = "matching_aborted"

	// RaidLoaded indicates an online raid is starting.
	RaidLoaded Type = "raid_loaded"

	// TaskModified indicates a task changed status.
	TaskModified Type = "task_modified"

	// TaskStarted indicates a task was started.
	TaskStarted Type = "task_started"

	// TaskFailed indicates a task was failed.
	TaskFailed Type = "task_failed"

	// TaskFinished indicates a task was completed.
	TaskFinished Type = "task_finished"

	// FleaSold indicates a flea market offer was bought by another player.
	FleaSold Type = "flea_sold"

	// FleaOfferExpired indicates a flea market offer expired unsold.
	FleaOfferExpired Type = "flea_offer_expired"

	// Exception carries an error isolated to one record or poll cycle.
	Exception Type = "exception"

	// Debug carries a diagnostic message.
	Debug Type = "debug"
)

// allTypes is the canonical list of all event types.
var allTypes = []Type{
	GameStarted, RaidExited,
	GroupMatchInvite, GroupReady, GroupDisbanded, GroupUserLeave,
	MatchingStarted, MatchFound, MatchingAborted, RaidLoaded,
	TaskModified, TaskStarted, TaskFailed, TaskFinished,
	FleaSold, FleaOfferExpired,
	Exception, Debug,
}

// TypeNames returns a sorted list of all valid event type names.
func TypeNames() []string {
	names := make([]string, len(allTypes))
	for i, t := range allTypes {
		names[i] = string(t)
	}
	sort.Strings(names)
	return names
}

var typeByName = func() map[string]Type {
	m := make(map[string]Type, len(allTypes))
	for _, t := range allTypes {
		m[string(t)] = t
	}
	return m
}()

// ParseType converts a string to Type if valid.
// It is case-insensitive and trims leading/trailing whitespace.
func ParseType(name string) (Type, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	t, ok := typeByName[name]
	return t, ok
}

// Event is one derived occurrence. Data holds the kind-specific value record;
// its dynamic type always corresponds to Type.
type Event struct {
	// Type is the event kind.
	Type Type `json:"type" yaml:"type"`

	// Time is the timestamp of the log record that produced the event, or the
	// wall clock for events not tied to a record.
	Time time.Time `json:"time" yaml:"time"`

	// SessionID identifies the process attach (or replay) the event belongs to.
	SessionID string `json:"session_id,omitempty" yaml:"session_id,omitempty"`

	// Data is the kind-specific payload.
	Data Data `json:"data,omitempty" yaml:"data,omitempty"`

	// RawLine is the originating message line (only included if requested).
	RawLine string `json:"raw_line,omitempty" yaml:"raw_line,omitempty"`
}

// Data is implemented by every per-kind value record.
type Data interface {
	EventType() Type
}

// New wraps d in an Event of the matching type.
func New(ts time.Time, d Data) Event {
	return Event{Type: d.EventType(), Time: ts, Data: d}
}
