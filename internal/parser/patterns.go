package parser

import "regexp"

// Catalog markers. These substrings are matched against the message line
// verbatim and must not be altered.
const (
	MarkerUserMatchOver          = "Got notification | UserMatchOver"
	MarkerGroupInviteAccept      = "Got notification | GroupMatchInviteAccept"
	MarkerGroupInviteSend        = "Got notification | GroupMatchInviteSend"
	MarkerGroupUserLeave         = "Got notification | GroupMatchUserLeave"
	MarkerGroupWasRemoved        = "Got notification | GroupMatchWasRemoved"
	MarkerGroupRaidReady         = "Got notification | GroupMatchRaidReady"
	MarkerLocationLoaded         = "application|LocationLoaded"
	MarkerMatchingCompleted      = "application|MatchingCompleted"
	MarkerNetworkGameCreate      = "application|TRACE-NetworkGameCreate profileStatus"
	MarkerGameStarting           = "application|GameStarting"
	MarkerGameStarted            = "application|GameStarted"
	MarkerMatchingAborted        = "application|Network game matching aborted"
	MarkerMatchingCancelled      = "application|Network game matching cancelled"
	MarkerChatMessageReceived    = "Got notification | ChatMessageReceived"
	inviteAcceptNotificationType = "groupMatchInviteAccept"
)

// Chat message constants.
const (
	// SystemRewardType is the chat message type of flea market notifications.
	SystemRewardType = 4

	// FleaSoldTemplate is the template id of "your offer was sold".
	FleaSoldTemplate = "5bdabfb886f7743e152e867e 0"

	// FleaExpiredTemplate is the template id of "your offer expired".
	FleaExpiredTemplate = "5bdabfe486f7743e1665df6e 0"
)

var (
	// Matches: "LocationLoaded:2.5 real:5.25"
	// Captures: (1) real load time in seconds
	loadTimePattern = regexp.MustCompile(`LocationLoaded:[0-9.]+ real:([0-9.]+)`)

	// Matches: "MatchingCompleted:11.9 real:12.0"
	// Captures: (1) real queue time in seconds
	queueTimePattern = regexp.MustCompile(`MatchingCompleted:[0-9.]+ real:([0-9.]+)`)

	// Matches: "Location: Woods, Sid: ..."
	mapPattern = regexp.MustCompile(`Location: ([^,]+)`)

	// Matches: "shortId: AB12CD"
	raidIDPattern = regexp.MustCompile(`shortId: ([A-Z0-9]{6})`)
)

// onlineMarker is present in profileStatus lines for online raids.
const onlineMarker = "RaidMode: Online"
