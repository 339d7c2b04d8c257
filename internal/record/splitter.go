package record

import (
	"iter"
	"strings"

	"github.com/valyala/fastjson"
)

// Splitter turns appended text from one file into Records.
//
// Only complete lines are examined. A message line is held until the next
// non-blank line shows whether a payload follows it, so a record is never
// split differently depending on where chunk boundaries fall.
//
// A Splitter is not safe for concurrent use.
type Splitter struct {
	buf     string
	pending *pending
}

type pending struct {
	message   string
	payload   []string
	inPayload bool
	done      bool
}

// NewSplitter returns an empty Splitter.
func NewSplitter() *Splitter {
	return &Splitter{}
}

// Feed appends chunk to the buffer and returns the records that are now
// complete, in file order. If the caller stops iterating early the remaining
// records stay buffered and are returned by the next Feed or Flush.
func (s *Splitter) Feed(chunk string) iter.Seq[Record] {
	s.buf += chunk
	return s.drain
}

// Flush releases a message line still waiting to see whether a payload
// follows. It never releases a payload that has been opened but not closed;
// such a record ends when the next message line arrives.
func (s *Splitter) Flush() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for r := range s.drain {
			if !yield(r) {
				return
			}
		}
		if s.pending != nil && !s.pending.inPayload {
			r := New(s.pending.message, "")
			s.pending = nil
			yield(r)
		}
	}
}

// Buffered reports whether any text or pending record is retained.
func (s *Splitter) Buffered() bool {
	return s.buf != "" || s.pending != nil
}

// Reset discards all buffered state.
func (s *Splitter) Reset() {
	s.buf = ""
	s.pending = nil
}

func (s *Splitter) drain(yield func(Record) bool) {
	for {
		r, ok := s.next()
		if !ok {
			return
		}
		if !yield(r) {
			return
		}
	}
}

// next consumes buffered lines until one record is complete.
func (s *Splitter) next() (Record, bool) {
	for {
		if p := s.pending; p != nil && p.done {
			s.pending = nil
			return New(p.message, strings.Join(p.payload, "\n")), true
		}

		line, ok := s.line()
		if !ok {
			return Record{}, false
		}

		p := s.pending
		switch {
		case p == nil:
			if IsMessageLine(line) {
				s.pending = &pending{message: line}
			}

		case p.inPayload:
			if IsMessageLine(line) {
				// The payload never closed. Payload lines never start with a
				// date, so the record ends here with what was collected.
				s.pending = &pending{message: line}
				return New(p.message, strings.Join(p.payload, "\n")), true
			}
			p.payload = append(p.payload, line)
			if strings.HasPrefix(line, "}") {
				p.done = true
			}

		case strings.TrimSpace(line) == "":
			// blank lines may separate a message from its payload

		case strings.HasPrefix(line, "{"):
			p.inPayload = true
			p.payload = []string{line}
			p.done = closesOnSameLine(line)

		default:
			// Anything else ends the pending record without a payload.
			s.pending = nil
			if IsMessageLine(line) {
				s.pending = &pending{message: line}
			}
			return New(p.message, ""), true
		}
	}
}

// line pops the next complete line from the buffer, without its terminator.
func (s *Splitter) line() (string, bool) {
	i := strings.IndexByte(s.buf, '\n')
	if i < 0 {
		return "", false
	}
	line := s.buf[:i]
	s.buf = s.buf[i+1:]
	return strings.TrimSuffix(line, "\r"), true
}

// closesOnSameLine reports whether a payload opened by line also ends on it.
// A line like "{bad}" counts as closed; it decodes to an empty payload.
func closesOnSameLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 2 || !strings.HasSuffix(trimmed, "}") {
		return false
	}
	if fastjson.Validate(trimmed) == nil {
		return true
	}
	// An unbalanced line such as `{"a": {}` is the start of a longer block.
	return strings.Count(trimmed, "{") <= strings.Count(trimmed, "}")
}
