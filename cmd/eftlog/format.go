package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eftlog/eftlog-go/pkg/eftlog"
	"github.com/eftlog/eftlog-go/pkg/eftlog/event"
)

// ValidFormats lists all valid output formats.
var ValidFormats = map[string]bool{
	"jsonl":  true,
	"pretty": true,
	"yaml":   true,
}

// formatNames is the sorted list of ValidFormats keys, for messages.
func formatNames() string {
	names := make([]string, 0, len(ValidFormats))
	for name := range ValidFormats {
		names = append(names, name)
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}

// OutputEvent writes an event in the specified format to the writer.
func OutputEvent(format string, ev eftlog.Event, out io.Writer) error {
	switch format {
	case "jsonl":
		return OutputJSON(ev, out)
	case "pretty":
		return OutputPretty(ev, out)
	case "yaml":
		return OutputYAML(ev, out)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// OutputJSON writes an event as JSON Lines format.
func OutputJSON(ev eftlog.Event, out io.Writer) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// OutputYAML writes an event as one document of a YAML stream.
func OutputYAML(ev eftlog.Event, out io.Writer) error {
	data, err := yaml.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(out, "---\n"); err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// OutputPretty writes an event in human-readable format.
func OutputPretty(ev eftlog.Event, out io.Writer) error {
	ts := ev.Time.Format("15:04:05")
	_, err := fmt.Fprintf(out, "[%s] %s\n", ts, describe(ev))
	return err
}

func describe(ev eftlog.Event) string {
	switch d := ev.Data.(type) {
	case event.GameStartedData:
		return fmt.Sprintf("> Game started (pid %d): %s", d.PID, d.SessionDir)
	case event.RaidExitedData:
		return fmt.Sprintf("< Left %s%s", d.Map, raidSuffix(d.RaidID))
	case event.GroupMatchInviteData:
		if d.Invite == event.InviteAccepted {
			return fmt.Sprintf("+ %s accepted your invite", player(d.Player))
		}
		return fmt.Sprintf("+ Joined group of %s", player(d.Player))
	case event.GroupReadyData:
		return fmt.Sprintf("+ %s is ready (%d items)", player(d.Player), len(d.Loadout.Items))
	case event.GroupDisbandedData:
		return "- Group disbanded"
	case event.GroupUserLeaveData:
		return fmt.Sprintf("- %s left the group", d.Nickname)
	case event.MatchingStartedData:
		return fmt.Sprintf("~ Matching started (map loaded in %.2fs)", d.MapLoadTime)
	case event.MatchFoundData:
		return fmt.Sprintf("~ Match found: %s%s after %.1fs", d.Map, raidSuffix(d.RaidID), d.QueueTime)
	case event.MatchingAbortedData:
		return "~ Matching aborted"
	case event.RaidLoadedData:
		return fmt.Sprintf("> Raid loaded: %s%s as %s", d.Map, raidSuffix(d.RaidID), d.RaidType)
	case event.TaskModifiedData:
		return fmt.Sprintf("* Task %s %s", d.TaskID, d.Status)
	case event.TaskStartedData:
		return fmt.Sprintf("* Task %s started", d.TaskID)
	case event.TaskFailedData:
		return fmt.Sprintf("* Task %s failed", d.TaskID)
	case event.TaskFinishedData:
		return fmt.Sprintf("* Task %s finished", d.TaskID)
	case event.FleaSoldData:
		s := fmt.Sprintf("$ %s bought %d x %s", d.Buyer, d.SoldItemCount, d.SoldItemID)
		if len(d.ReceivedItems) > 0 {
			s += ": " + formatCounts(d.ReceivedItems)
		}
		return s
	case event.FleaOfferExpiredData:
		return fmt.Sprintf("$ Offer expired: %d x %s", d.ItemCount, d.ItemID)
	case event.ExceptionData:
		return "! " + d.Message
	case event.DebugData:
		return ". " + d.Text
	default:
		return "* " + string(ev.Type)
	}
}

func player(p event.PlayerInfo) string {
	if p.Level > 0 {
		return fmt.Sprintf("%s (%d)", p.Nickname, p.Level)
	}
	return p.Nickname
}

func raidSuffix(id string) string {
	if id == "" {
		return ""
	}
	return " [" + id + "]"
}

// formatCounts formats item counts as sorted key=value pairs.
func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(counts))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", quoteIfNeeded(k), counts[k]))
	}
	return strings.Join(parts, " ")
}

// quoteIfNeeded quotes a value if it contains spaces, equals signs, quotes
// or control characters.
func quoteIfNeeded(v string) string {
	if v == "" {
		return `""`
	}
	if !strings.ContainsFunc(v, func(c rune) bool {
		return c == ' ' || c == '=' || c == '"' || c == '\\' || c < 0x20 || c == 0x7F
	}) {
		return v
	}
	return fmt.Sprintf("%q", v)
}
