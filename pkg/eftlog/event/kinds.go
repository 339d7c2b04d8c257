package event

// RaidType is the role a raid was entered as.
type RaidType string

const (
	RaidTypeUnknown RaidType = "unknown"
	RaidTypePMC     RaidType = "pmc"
	RaidTypeScav    RaidType = "scav"
)

// InviteType distinguishes the two group invite notifications.
type InviteType string

const (
	// InviteAccepted is raised when someone accepts an invite the player sent.
	InviteAccepted InviteType = "accepted"
	// InviteSent is raised when the player answers an invite they received.
	InviteSent InviteType = "sent"
)

// TaskStatus is the chat message type used for task notifications.
type TaskStatus int

const (
	TaskStatusStarted  TaskStatus = 10
	TaskStatusFailed   TaskStatus = 11
	TaskStatusFinished TaskStatus = 12
)

// Valid reports whether s is one of the known task statuses.
func (s TaskStatus) Valid() bool {
	return s == TaskStatusStarted || s == TaskStatusFailed || s == TaskStatusFinished
}

func (s TaskStatus) String() string {
	switch s {
	case TaskStatusStarted:
		return "started"
	case TaskStatusFailed:
		return "failed"
	case TaskStatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// PlayerInfo is the subset of a profile's Info object carried by group notifications.
type PlayerInfo struct {
	Nickname       string `json:"nickname" yaml:"nickname"`
	Side           string `json:"side,omitempty" yaml:"side,omitempty"`
	Level          int    `json:"level,omitempty" yaml:"level,omitempty"`
	MemberCategory int    `json:"member_category,omitempty" yaml:"member_category,omitempty"`
}

// LoadoutItem is one equipped item of a group member.
type LoadoutItem struct {
	ID     string `json:"id" yaml:"id"`
	Tpl    string `json:"tpl" yaml:"tpl"`
	SlotID string `json:"slot_id,omitempty" yaml:"slot_id,omitempty"`
}

// PlayerLoadout is a group member's visual representation.
type PlayerLoadout struct {
	Info  PlayerInfo    `json:"info" yaml:"info"`
	Items []LoadoutItem `json:"items,omitempty" yaml:"items,omitempty"`
}

type GameStartedData struct {
	PID        int32  `json:"pid" yaml:"pid"`
	Executable string `json:"executable,omitempty" yaml:"executable,omitempty"`
	LogsDir    string `json:"logs_dir,omitempty" yaml:"logs_dir,omitempty"`
	SessionDir string `json:"session_dir,omitempty" yaml:"session_dir,omitempty"`
}

type RaidExitedData struct {
	Map    string `json:"map" yaml:"map"`
	RaidID string `json:"raid_id,omitempty" yaml:"raid_id,omitempty"`
}

type GroupMatchInviteData struct {
	Player PlayerInfo `json:"player" yaml:"player"`
	Invite InviteType `json:"invite_type" yaml:"invite_type"`
}

type GroupReadyData struct {
	Player  PlayerInfo    `json:"player" yaml:"player"`
	Loadout PlayerLoadout `json:"loadout" yaml:"loadout"`
}

type GroupDisbandedData struct{}

type GroupUserLeaveData struct {
	Nickname string `json:"nickname" yaml:"nickname"`
}

type MatchingStartedData struct {
	MapLoadTime float64 `json:"map_load_time" yaml:"map_load_time"`
}

type MatchFoundData struct {
	Map         string  `json:"map" yaml:"map"`
	RaidID      string  `json:"raid_id" yaml:"raid_id"`
	QueueTime   float64 `json:"queue_time" yaml:"queue_time"`
	MapLoadTime float64 `json:"map_load_time" yaml:"map_load_time"`
}

type MatchingAbortedData struct {
	MapLoadTime float64 `json:"map_load_time" yaml:"map_load_time"`
	QueueTime   float64 `json:"queue_time" yaml:"queue_time"`
}

type RaidLoadedData struct {
	Map         string   `json:"map" yaml:"map"`
	RaidID      string   `json:"raid_id" yaml:"raid_id"`
	QueueTime   float64  `json:"queue_time" yaml:"queue_time"`
	MapLoadTime float64  `json:"map_load_time" yaml:"map_load_time"`
	RaidType    RaidType `json:"raid_type" yaml:"raid_type"`
}

type TaskModifiedData struct {
	TaskID string     `json:"task_id" yaml:"task_id"`
	Status TaskStatus `json:"status" yaml:"status"`
}

type TaskStartedData struct {
	TaskID string `json:"task_id" yaml:"task_id"`
}

type TaskFailedData struct {
	TaskID string `json:"task_id" yaml:"task_id"`
}

type TaskFinishedData struct {
	TaskID string `json:"task_id" yaml:"task_id"`
}

type FleaSoldData struct {
	Buyer         string         `json:"buyer" yaml:"buyer"`
	SoldItemID    string         `json:"sold_item_id" yaml:"sold_item_id"`
	SoldItemCount int            `json:"sold_item_count" yaml:"sold_item_count"`
	ReceivedItems map[string]int `json:"received_items" yaml:"received_items"`
}

type FleaOfferExpiredData struct {
	ItemID    string `json:"item_id" yaml:"item_id"`
	ItemCount int    `json:"item_count" yaml:"item_count"`
}

// ExceptionData wraps an error. Message duplicates Err.Error() for encoders.
type ExceptionData struct {
	Err     error  `json:"-" yaml:"-"`
	Message string `json:"error" yaml:"error"`
}

type DebugData struct {
	Text string `json:"text" yaml:"text"`
}

func (GameStartedData) EventType() Type      { return GameStarted }
func (RaidExitedData) EventType() Type       { return RaidExited }
func (GroupMatchInviteData) EventType() Type { return GroupMatchInvite }
func (GroupReadyData) EventType() Type       { return GroupReady }
func (GroupDisbandedData) EventType() Type   { return GroupDisbanded }
func (GroupUserLeaveData) EventType() Type   { return GroupUserLeave }
func (MatchingStartedData) EventType() Type  { return MatchingStarted }
func (MatchFoundData) EventType() Type       { return MatchFound }
func (MatchingAbortedData) EventType() Type  { return MatchingAborted }
func (RaidLoadedData) EventType() Type       { return RaidLoaded }
func (TaskModifiedData) EventType() Type     { return TaskModified }
func (TaskStartedData) EventType() Type      { return TaskStarted }
func (TaskFailedData) EventType() Type       { return TaskFailed }
func (TaskFinishedData) EventType() Type     { return TaskFinished }
func (FleaSoldData) EventType() Type         { return FleaSold }
func (FleaOfferExpiredData) EventType() Type { return FleaOfferExpired }
func (ExceptionData) EventType() Type        { return Exception }
func (DebugData) EventType() Type            { return Debug }

// NewException builds an Exception event for err.
func NewException(err error) ExceptionData {
	return ExceptionData{Err: err, Message: err.Error()}
}
