package eftlog

import "github.com/eftlog/eftlog-go/pkg/eftlog/event"

// Re-export event types for convenience.
// Users can import just "github.com/eftlog/eftlog-go/pkg/eftlog"
// and use eftlog.Event, eftlog.EventMatchFound, etc.

// Event represents one derived game event.
type Event = event.Event

// EventType represents the type of an Event.
type EventType = event.Type

// Event type constants.
const (
	EventGameStarted      = event.GameStarted
	EventRaidExited       = event.RaidExited
	EventGroupMatchInvite = event.GroupMatchInvite
	EventGroupReady       = event.GroupReady
	EventGroupDisbanded   = event.GroupDisbanded
	EventGroupUserLeave   = event.GroupUserLeave
	EventMatchingStarted  = event.MatchingStarted
	EventMatchFound       = event.MatchFound
	EventMatchingAborted  = event.MatchingAborted
	EventRaidLoaded       = event.RaidLoaded
	EventTaskModified     = event.TaskModified
	EventTaskStarted      = event.TaskStarted
	EventTaskFailed       = event.TaskFailed
	EventTaskFinished     = event.TaskFinished
	EventFleaSold         = event.FleaSold
	EventFleaOfferExpired = event.FleaOfferExpired
	EventException        = event.Exception
	EventDebug            = event.Debug
)
