package main

import (
	"fmt"
	"strings"

	"github.com/eftlog/eftlog-go/pkg/eftlog"
	"github.com/eftlog/eftlog-go/pkg/eftlog/event"
)

// ValidEventTypeNames returns a sorted list of valid event type names.
// Delegates to event.TypeNames() as the single source of truth.
func ValidEventTypeNames() []string {
	return event.TypeNames()
}

// NormalizeEventTypes converts CLI string values to eftlog.EventType slice.
// It handles case-insensitivity, whitespace trimming, and duplicate removal.
func NormalizeEventTypes(values []string) ([]eftlog.EventType, error) {
	if len(values) == 0 {
		return nil, nil
	}

	result := make([]eftlog.EventType, 0, len(values))
	seen := make(map[eftlog.EventType]struct{})

	for _, raw := range values {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			return nil, fmt.Errorf("empty event type provided (input: %q); valid types: %s", raw, strings.Join(ValidEventTypeNames(), ", "))
		}

		t, ok := event.ParseType(name)
		if !ok {
			return nil, fmt.Errorf("unknown event type %q (valid: %s)", raw, strings.Join(ValidEventTypeNames(), ", "))
		}

		if _, dup := seen[t]; dup {
			continue // ignore duplicates silently
		}
		seen[t] = struct{}{}
		result = append(result, t)
	}

	return result, nil
}

// RejectOverlap returns an error if any event type is in both includes and excludes.
func RejectOverlap(includes, excludes []eftlog.EventType) error {
	ex := make(map[eftlog.EventType]struct{}, len(excludes))
	for _, t := range excludes {
		ex[t] = struct{}{}
	}
	for _, t := range includes {
		if _, ok := ex[t]; ok {
			return fmt.Errorf("event type %q cannot be both included and excluded", t)
		}
	}
	return nil
}

// eventTypeFilters normalizes include and exclude flag values.
func eventTypeFilters(include, exclude []string) (includes, excludes []eftlog.EventType, err error) {
	if includes, err = NormalizeEventTypes(include); err != nil {
		return nil, nil, err
	}
	if excludes, err = NormalizeEventTypes(exclude); err != nil {
		return nil, nil, err
	}
	if err := RejectOverlap(includes, excludes); err != nil {
		return nil, nil, err
	}
	return includes, excludes, nil
}
