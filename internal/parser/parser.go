// Package parser classifies Escape from Tarkov log records against the
// message catalog and extracts their typed fields.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/valyala/fastjson"

	"github.com/eftlog/eftlog-go/internal/record"
	"github.com/eftlog/eftlog-go/pkg/eftlog/event"
)

// Kind identifies a catalog entry.
type Kind int

const (
	KindUnknown Kind = iota
	KindMatchOver
	KindGroupInvite
	KindGroupUserLeave
	KindGroupDisbanded
	KindGroupReady
	KindLocationLoaded
	KindMatchingCompleted
	KindNetworkGameCreate
	KindGameStarting
	KindGameStarted
	KindMatchingAborted
	KindChatMessage
)

var kindNames = [...]string{
	KindUnknown:           "unknown",
	KindMatchOver:         "match_over",
	KindGroupInvite:       "group_invite",
	KindGroupUserLeave:    "group_user_leave",
	KindGroupDisbanded:    "group_disbanded",
	KindGroupReady:        "group_ready",
	KindLocationLoaded:    "location_loaded",
	KindMatchingCompleted: "matching_completed",
	KindNetworkGameCreate: "network_game_create",
	KindGameStarting:      "game_starting",
	KindGameStarted:       "game_started",
	KindMatchingAborted:   "matching_aborted",
	KindChatMessage:       "chat_message",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Message is a classified record. Only the fields relevant to Kind are set.
type Message struct {
	Kind   Kind
	Record record.Record

	// MatchOver, NetworkGameCreate
	Map    string
	RaidID string

	// NetworkGameCreate
	Online bool

	// LocationLoaded (map load time) and MatchingCompleted (queue time).
	Seconds float64

	// GroupInvite, GroupReady
	Player  event.PlayerInfo
	Invite  event.InviteType
	Loadout event.PlayerLoadout

	// GroupUserLeave
	Nickname string

	// ChatMessage
	Chat Chat
}

// Chat holds the fields of a ChatMessageReceived notification.
type Chat struct {
	Type       int
	Text       string
	TemplateID string

	// Sold is set for flea market "sold" notifications.
	Sold *event.FleaSoldData

	// Expired is set for flea market "offer expired" notifications.
	Expired *event.FleaOfferExpiredData
}

// FieldError reports a required field that was missing or had the wrong type.
type FieldError struct {
	Marker string
	Field  string
	Err    error
}

func (e *FieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: field %q: %v", e.Marker, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: missing field %q", e.Marker, e.Field)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

type entry struct {
	kind    Kind
	markers []string
	extract func(m *Message, marker string) error
}

var catalog = []entry{
	{KindMatchOver, []string{MarkerUserMatchOver}, extractMatchOver},
	{KindGroupInvite, []string{MarkerGroupInviteAccept, MarkerGroupInviteSend}, extractGroupInvite},
	{KindGroupUserLeave, []string{MarkerGroupUserLeave}, extractGroupUserLeave},
	{KindGroupDisbanded, []string{MarkerGroupWasRemoved}, nil},
	{KindGroupReady, []string{MarkerGroupRaidReady}, extractGroupReady},
	{KindLocationLoaded, []string{MarkerLocationLoaded}, extractLoadTime},
	{KindMatchingCompleted, []string{MarkerMatchingCompleted}, extractQueueTime},
	{KindNetworkGameCreate, []string{MarkerNetworkGameCreate}, extractNetworkGameCreate},
	{KindGameStarting, []string{MarkerGameStarting}, nil},
	{KindGameStarted, []string{MarkerGameStarted}, nil},
	{KindMatchingAborted, []string{MarkerMatchingAborted, MarkerMatchingCancelled}, nil},
	{KindChatMessage, []string{MarkerChatMessageReceived}, extractChat},
}

// Match classifies r against every catalog entry.
//
// Return values:
//   - (nil, nil): no entry matched (not an error)
//   - (msgs, nil): every matching entry extracted its fields
//   - (msgs, err): some entries failed extraction; msgs holds the others
func Match(r record.Record) ([]Message, error) {
	var msgs []Message
	var errs []error

	for _, e := range catalog {
		marker, ok := findMarker(r.Message, e.markers)
		if !ok {
			continue
		}
		m := Message{Kind: e.kind, Record: r}
		if e.extract != nil {
			if err := e.extract(&m, marker); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		msgs = append(msgs, m)
	}

	return msgs, errors.Join(errs...)
}

func findMarker(line string, markers []string) (string, bool) {
	for _, marker := range markers {
		if strings.Contains(line, marker) {
			return marker, true
		}
	}
	return "", false
}

func extractMatchOver(m *Message, marker string) error {
	p := m.Record.Payload
	loc, err := requireString(p, marker, "location")
	if err != nil {
		return err
	}
	m.Map = loc
	m.RaidID = optionalString(p, "shortId")
	return nil
}

func extractGroupInvite(m *Message, marker string) error {
	p := m.Record.Payload
	typ, err := requireString(p, marker, "type")
	if err != nil {
		return err
	}
	if typ == inviteAcceptNotificationType {
		m.Invite = event.InviteAccepted
	} else {
		m.Invite = event.InviteSent
	}
	m.Player, err = playerInfo(p, marker, "Info")
	return err
}

func extractGroupUserLeave(m *Message, marker string) error {
	nick, err := requireString(m.Record.Payload, marker, "Nickname")
	if err != nil {
		return err
	}
	m.Nickname = nick
	return nil
}

func extractGroupReady(m *Message, marker string) error {
	p := m.Record.Payload
	info, err := playerInfo(p, marker, "extendedProfile", "Info")
	if err != nil {
		return err
	}
	loadout, err := playerLoadout(p, marker, "extendedProfile", "PlayerVisualRepresentation")
	if err != nil {
		return err
	}
	m.Player = info
	m.Loadout = loadout
	return nil
}

func extractLoadTime(m *Message, marker string) error {
	v, err := secondsFrom(m.Record.Message, marker, loadTimePattern)
	m.Seconds = v
	return err
}

func extractQueueTime(m *Message, marker string) error {
	v, err := secondsFrom(m.Record.Message, marker, queueTimePattern)
	m.Seconds = v
	return err
}

func secondsFrom(line, marker string, re *regexp.Regexp) (float64, error) {
	match := re.FindStringSubmatch(line)
	if match == nil {
		return 0, &FieldError{Marker: marker, Field: "real"}
	}
	v, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, &FieldError{Marker: marker, Field: "real", Err: err}
	}
	return v, nil
}

func extractNetworkGameCreate(m *Message, _ string) error {
	line := m.Record.Message
	if match := mapPattern.FindStringSubmatch(line); match != nil {
		m.Map = match[1]
	}
	if match := raidIDPattern.FindStringSubmatch(line); match != nil {
		m.RaidID = match[1]
	}
	m.Online = strings.Contains(line, onlineMarker)
	return nil
}

func extractChat(m *Message, marker string) error {
	p := m.Record.Payload
	typ, err := requireInt(p, marker, "message", "type")
	if err != nil {
		return err
	}
	m.Chat = Chat{
		Type:       typ,
		Text:       optionalString(p, "message", "text"),
		TemplateID: optionalString(p, "message", "templateId"),
	}
	if typ != SystemRewardType {
		return nil
	}

	switch m.Chat.TemplateID {
	case FleaSoldTemplate:
		sold, err := fleaSold(p, marker)
		if err != nil {
			return err
		}
		m.Chat.Sold = sold
	case FleaExpiredTemplate:
		expired, err := fleaExpired(p, marker)
		if err != nil {
			return err
		}
		m.Chat.Expired = expired
	}
	return nil
}

func fleaSold(p *fastjson.Value, marker string) (*event.FleaSoldData, error) {
	buyer, err := requireString(p, marker, "message", "systemData", "buyerNickname")
	if err != nil {
		return nil, err
	}
	item, err := requireString(p, marker, "message", "systemData", "soldItem")
	if err != nil {
		return nil, err
	}
	count, err := requireInt(p, marker, "message", "systemData", "itemCount")
	if err != nil {
		return nil, err
	}

	received := make(map[string]int)
	if p.GetBool("message", "hasRewards") {
		items, err := requireArray(p, marker, "message", "items", "data")
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			tpl, n, err := stack(it, marker)
			if err != nil {
				return nil, err
			}
			received[tpl] += n
		}
	}

	return &event.FleaSoldData{
		Buyer:         buyer,
		SoldItemID:    item,
		SoldItemCount: count,
		ReceivedItems: received,
	}, nil
}

func fleaExpired(p *fastjson.Value, marker string) (*event.FleaOfferExpiredData, error) {
	items, err := requireArray(p, marker, "message", "items", "data")
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &FieldError{Marker: marker, Field: "message.items.data[0]"}
	}
	tpl, n, err := stack(items[0], marker)
	if err != nil {
		return nil, err
	}
	return &event.FleaOfferExpiredData{ItemID: tpl, ItemCount: n}, nil
}

// stack reads the template id and stack size of one item.
func stack(it *fastjson.Value, marker string) (string, int, error) {
	tpl, err := requireString(it, marker, "_tpl")
	if err != nil {
		return "", 0, err
	}
	n, err := requireInt(it, marker, "upd", "StackObjectsCount")
	if err != nil {
		return "", 0, err
	}
	return tpl, n, nil
}

func playerInfo(p *fastjson.Value, marker string, path ...string) (event.PlayerInfo, error) {
	info := p.Get(path...)
	if info == nil || info.Type() != fastjson.TypeObject {
		return event.PlayerInfo{}, &FieldError{Marker: marker, Field: strings.Join(path, ".")}
	}
	nick, err := requireString(info, marker, "Nickname")
	if err != nil {
		return event.PlayerInfo{}, err
	}
	return event.PlayerInfo{
		Nickname:       nick,
		Side:           optionalString(info, "Side"),
		Level:          info.GetInt("Level"),
		MemberCategory: info.GetInt("MemberCategory"),
	}, nil
}

func playerLoadout(p *fastjson.Value, marker string, path ...string) (event.PlayerLoadout, error) {
	rep := p.Get(path...)
	if rep == nil || rep.Type() != fastjson.TypeObject {
		return event.PlayerLoadout{}, &FieldError{Marker: marker, Field: strings.Join(path, ".")}
	}
	info, err := playerInfo(rep, marker, "Info")
	if err != nil {
		return event.PlayerLoadout{}, err
	}
	loadout := event.PlayerLoadout{Info: info}
	for _, it := range rep.GetArray("Equipment", "Items") {
		loadout.Items = append(loadout.Items, event.LoadoutItem{
			ID:     optionalString(it, "_id"),
			Tpl:    optionalString(it, "_tpl"),
			SlotID: optionalString(it, "slotId"),
		})
	}
	return loadout, nil
}

// requireString returns the value at path as text. Non-string scalars are
// rendered as JSON.
func requireString(v *fastjson.Value, marker string, path ...string) (string, error) {
	x := v.Get(path...)
	if x == nil || x.Type() == fastjson.TypeNull {
		return "", &FieldError{Marker: marker, Field: strings.Join(path, ".")}
	}
	return text(x), nil
}

func optionalString(v *fastjson.Value, path ...string) string {
	x := v.Get(path...)
	if x == nil || x.Type() == fastjson.TypeNull {
		return ""
	}
	return text(x)
}

func text(x *fastjson.Value) string {
	if x.Type() == fastjson.TypeString {
		return string(x.GetStringBytes())
	}
	return x.String()
}

func requireInt(v *fastjson.Value, marker string, path ...string) (int, error) {
	field := strings.Join(path, ".")
	x := v.Get(path...)
	if x == nil {
		return 0, &FieldError{Marker: marker, Field: field}
	}
	n, err := x.Int()
	if err != nil {
		return 0, &FieldError{Marker: marker, Field: field, Err: err}
	}
	return n, nil
}

func requireArray(v *fastjson.Value, marker string, path ...string) ([]*fastjson.Value, error) {
	field := strings.Join(path, ".")
	x := v.Get(path...)
	if x == nil {
		return nil, &FieldError{Marker: marker, Field: field}
	}
	arr, err := x.Array()
	if err != nil {
		return nil, &FieldError{Marker: marker, Field: field, Err: err}
	}
	return arr, nil
}
