// Package session correlates classified log messages into one-shot domain
// events using the short-lived state of the current raid.
package session

import (
	"strings"
	"time"

	"github.com/eftlog/eftlog-go/internal/parser"
	"github.com/eftlog/eftlog-go/pkg/eftlog/event"
)

// RaidInfo is what is known about the raid being entered.
// A zero QueueTime means the player did not queue (for example on reconnect).
type RaidInfo struct {
	Map         string
	RaidID      string
	Online      bool
	MapLoadTime float64
	QueueTime   float64
	RaidType    event.RaidType
}

func newRaidInfo() RaidInfo {
	return RaidInfo{RaidType: event.RaidTypeUnknown}
}

// Machine applies messages in arrival order. It is not safe for concurrent
// use; callers serialize all messages through a single goroutine.
type Machine struct {
	raid RaidInfo
}

// New returns a Machine with empty raid state.
func New() *Machine {
	return &Machine{raid: newRaidInfo()}
}

// Reset replaces the raid state with an empty one.
func (m *Machine) Reset() {
	m.raid = newRaidInfo()
}

// Current returns a copy of the raid state.
func (m *Machine) Current() RaidInfo {
	return m.raid
}

// Apply processes one message and returns the events it produces, in order.
func (m *Machine) Apply(msg parser.Message) []event.Event {
	ts := msg.Record.Time()
	emit := func(d event.Data) []event.Event {
		return []event.Event{event.New(ts, d)}
	}

	switch msg.Kind {
	case parser.KindMatchOver:
		return emit(event.RaidExitedData{Map: msg.Map, RaidID: msg.RaidID})

	case parser.KindGroupInvite:
		return emit(event.GroupMatchInviteData{Player: msg.Player, Invite: msg.Invite})

	case parser.KindGroupUserLeave:
		return emit(event.GroupUserLeaveData{Nickname: msg.Nickname})

	case parser.KindGroupDisbanded:
		return emit(event.GroupDisbandedData{})

	case parser.KindGroupReady:
		return emit(event.GroupReadyData{Player: msg.Player, Loadout: msg.Loadout})

	case parser.KindLocationLoaded:
		m.raid = newRaidInfo()
		m.raid.MapLoadTime = msg.Seconds
		return emit(event.MatchingStartedData{MapLoadTime: m.raid.MapLoadTime})

	case parser.KindMatchingCompleted:
		m.raid.QueueTime = msg.Seconds
		return nil

	case parser.KindNetworkGameCreate:
		m.raid.Map = msg.Map
		m.raid.Online = msg.Online
		m.raid.RaidID = msg.RaidID
		// No queue time means the client reconnected to a raid in progress.
		if m.raid.Online && m.raid.QueueTime > 0 {
			return emit(m.matchFound())
		}
		return nil

	case parser.KindGameStarting:
		// The countdown only runs for PMC raids.
		m.raid.RaidType = event.RaidTypePMC
		if m.raid.Online {
			return emit(m.raidLoaded())
		}
		return nil

	case parser.KindGameStarted:
		if m.raid.RaidType == event.RaidTypeUnknown && m.raid.QueueTime > 0 {
			m.raid.RaidType = event.RaidTypeScav
		}
		var out []event.Event
		if m.raid.Online && m.raid.RaidType != event.RaidTypePMC {
			out = emit(m.raidLoaded())
		}
		m.raid = newRaidInfo()
		return out

	case parser.KindMatchingAborted:
		out := emit(event.MatchingAbortedData{
			MapLoadTime: m.raid.MapLoadTime,
			QueueTime:   m.raid.QueueTime,
		})
		m.raid = newRaidInfo()
		return out

	case parser.KindChatMessage:
		return chatEvents(ts, msg.Chat)
	}
	return nil
}

func (m *Machine) matchFound() event.MatchFoundData {
	return event.MatchFoundData{
		Map:         m.raid.Map,
		RaidID:      m.raid.RaidID,
		QueueTime:   m.raid.QueueTime,
		MapLoadTime: m.raid.MapLoadTime,
	}
}

func (m *Machine) raidLoaded() event.RaidLoadedData {
	return event.RaidLoadedData{
		Map:         m.raid.Map,
		RaidID:      m.raid.RaidID,
		QueueTime:   m.raid.QueueTime,
		MapLoadTime: m.raid.MapLoadTime,
		RaidType:    m.raid.RaidType,
	}
}

func chatEvents(ts time.Time, c parser.Chat) []event.Event {
	switch {
	case c.Sold != nil:
		return []event.Event{event.New(ts, *c.Sold)}
	case c.Expired != nil:
		return []event.Event{event.New(ts, *c.Expired)}
	}

	status := event.TaskStatus(c.Type)
	if !status.Valid() || c.TemplateID == "" {
		return nil
	}
	taskID, _, _ := strings.Cut(c.TemplateID, " ")

	var specific event.Data
	switch status {
	case event.TaskStatusStarted:
		specific = event.TaskStartedData{TaskID: taskID}
	case event.TaskStatusFailed:
		specific = event.TaskFailedData{TaskID: taskID}
	case event.TaskStatusFinished:
		specific = event.TaskFinishedData{TaskID: taskID}
	}
	return []event.Event{
		event.New(ts, event.TaskModifiedData{TaskID: taskID, Status: status}),
		event.New(ts, specific),
	}
}
