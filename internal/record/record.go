// Package record splits appended log text into timestamped message lines and
// their optional structured payloads.
package record

import (
	"regexp"
	"strings"
	"time"

	"github.com/valyala/fastjson"
)

// messagePattern matches the date prefix that starts every message line.
var messagePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// timestampLayouts are tried in order against the text before the first '|'.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.000 -07:00",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
}

// Record is one message line and the payload block that followed it.
type Record struct {
	// Message is the timestamped line, without line terminator.
	Message string

	// Payload is the decoded payload. It is never nil: an absent or
	// unparseable payload is an empty object.
	Payload *fastjson.Value

	// RawPayload is the payload text as it appeared in the file.
	RawPayload string

	// PayloadErr is set when RawPayload was present but could not be decoded.
	PayloadErr error
}

// IsMessageLine reports whether line starts a new record.
func IsMessageLine(line string) bool {
	return messagePattern.MatchString(line)
}

// New builds a Record, decoding rawPayload. Decoding failures leave an empty
// payload and set PayloadErr.
func New(message, rawPayload string) Record {
	r := Record{Message: message, RawPayload: rawPayload}
	if rawPayload != "" {
		v, err := fastjson.Parse(rawPayload)
		if err == nil {
			r.Payload = v
			return r
		}
		r.PayloadErr = err
	}
	r.Payload = emptyObject()
	return r
}

// emptyObject returns a fresh empty object. Values are not shared between
// records because fastjson unescapes object keys lazily on first access.
func emptyObject() *fastjson.Value {
	var a fastjson.Arena
	return a.NewObject()
}

// Time parses the timestamp prefix of the message line.
// Returns the zero time if the prefix is missing or unrecognized.
func (r Record) Time() time.Time {
	prefix, _, _ := strings.Cut(r.Message, "|")
	prefix = strings.TrimSpace(prefix)
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, prefix, time.Local); err == nil {
			return ts
		}
	}
	return time.Time{}
}
