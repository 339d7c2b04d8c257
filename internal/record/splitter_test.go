package record

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = "2024-01-15 10:00:00.100 +01:00|0.14.0.0.28375|Info|application|LocationLoaded:2.5 real:5.25\n" +
	"2024-01-15 10:00:07.200 +01:00|0.14.0.0.28375|Info|notifications|Got notification | UserMatchOver\n" +
	"{\n" +
	"  \"type\": \"userMatchOver\",\n" +
	"  \"location\": \"Woods\",\n" +
	"  \"shortId\": \"AB12CD\"\n" +
	"}\n" +
	"\n" +
	"stray continuation line\n" +
	"2024-01-15 10:00:09.000 +01:00|0.14.0.0.28375|Info|notifications|Got notification | GroupMatchWasRemoved\n" +
	"\n" +
	"{\"type\":\"groupMatchWasRemoved\"}\n" +
	"2024-01-15 10:00:10.000 +01:00|0.14.0.0.28375|Info|application|GameStarted\n" +
	"2024-01-15 10:00:11.000 +01:00|0.14.0.0.28375|Info|application|tail line\n"

type flat struct {
	Message    string
	RawPayload string
}

func collect(seq func(func(Record) bool)) []flat {
	var out []flat
	for r := range seq {
		out = append(out, flat{r.Message, r.RawPayload})
	}
	return out
}

func TestSplitter_WholeText(t *testing.T) {
	s := NewSplitter()
	got := collect(s.Feed(sampleLog))

	require.Len(t, got, 4)
	assert.Contains(t, got[0].Message, "LocationLoaded")
	assert.Empty(t, got[0].RawPayload)
	assert.Contains(t, got[1].Message, "UserMatchOver")
	assert.Equal(t, "{\n  \"type\": \"userMatchOver\",\n  \"location\": \"Woods\",\n  \"shortId\": \"AB12CD\"\n}", got[1].RawPayload)
	assert.Contains(t, got[2].Message, "GroupMatchWasRemoved")
	assert.Equal(t, `{"type":"groupMatchWasRemoved"}`, got[2].RawPayload)
	assert.Contains(t, got[3].Message, "GameStarted")

	// The last message waits for the next line (or a flush).
	assert.True(t, s.Buffered())
	rest := collect(s.Flush())
	require.Len(t, rest, 1)
	assert.Contains(t, rest[0].Message, "tail line")
	assert.False(t, s.Buffered())
}

func TestSplitter_ChunkBoundaryInvariance(t *testing.T) {
	want := collect(NewSplitter().Feed(sampleLog))

	// Every single split point.
	for i := 0; i <= len(sampleLog); i++ {
		s := NewSplitter()
		got := collect(s.Feed(sampleLog[:i]))
		got = append(got, collect(s.Feed(sampleLog[i:]))...)
		if !slices.Equal(got, want) {
			t.Fatalf("split at %d: got %+v, want %+v", i, got, want)
		}
	}

	// Byte-at-a-time.
	s := NewSplitter()
	var got []flat
	for i := 0; i < len(sampleLog); i++ {
		got = append(got, collect(s.Feed(sampleLog[i:i+1]))...)
	}
	assert.Equal(t, want, got)
}

func TestSplitter_PartialPayloadRetained(t *testing.T) {
	s := NewSplitter()
	got := collect(s.Feed("2024-01-15 10:00:00.000|x|Got notification | GroupMatchUserLeave\n{\n  \"Nickname\": \"Bo"))
	assert.Empty(t, got)

	// Flushing must not release a half-read payload.
	assert.Empty(t, collect(s.Flush()))

	got = collect(s.Feed("b\"\n}\n"))
	require.Len(t, got, 1)
	assert.Equal(t, "Bob", string(nickname(t, got[0])))
}

func nickname(t *testing.T, f flat) []byte {
	t.Helper()
	r := New(f.Message, f.RawPayload)
	require.NoError(t, r.PayloadErr)
	return r.Payload.GetStringBytes("Nickname")
}

func TestSplitter_InvalidPayload(t *testing.T) {
	s := NewSplitter()
	var recs []Record
	for r := range s.Feed("2024-01-15 10:00:00.000|x|LocationLoaded:1 real:5.25\n{\n  not json\n}\n") {
		recs = append(recs, r)
	}
	require.Len(t, recs, 1)
	r := recs[0]
	assert.Error(t, r.PayloadErr)
	require.NotNil(t, r.Payload)
	obj, err := r.Payload.Object()
	require.NoError(t, err)
	assert.Equal(t, 0, obj.Len())
	assert.Contains(t, r.Message, "LocationLoaded")
}

func TestSplitter_MalformedOneLinePayload(t *testing.T) {
	s := NewSplitter()
	var recs []Record
	for r := range s.Feed("2024-01-15 10:00:00.000|x|Got notification | GroupMatchWasRemoved\n" +
		"{bad}\n" +
		"2024-01-15 10:00:01.000|x|application|LocationLoaded:1 real:5.25\n" +
		"2024-01-15 10:00:02.000|x|application|GameStarted\n") {
		recs = append(recs, r)
	}
	for r := range s.Flush() {
		recs = append(recs, r)
	}

	require.Len(t, recs, 3)
	assert.Equal(t, "{bad}", recs[0].RawPayload)
	assert.Error(t, recs[0].PayloadErr)
	assert.Contains(t, recs[1].Message, "LocationLoaded")
	assert.Contains(t, recs[2].Message, "GameStarted")
	assert.False(t, s.Buffered())
}

func TestSplitter_UnterminatedPayloadEndsAtNextMessage(t *testing.T) {
	s := NewSplitter()
	got := collect(s.Feed("2024-01-15 10:00:00.000|x|Got notification | UserMatchOver\n{\n  \"location\": \"Woods\",\n"))
	assert.Empty(t, got)
	assert.Empty(t, collect(s.Flush()))

	var recs []Record
	for r := range s.Feed("2024-01-15 10:00:01.000|x|application|LocationLoaded:1 real:5.25\n") {
		recs = append(recs, r)
	}
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Message, "UserMatchOver")
	assert.Equal(t, "{\n  \"location\": \"Woods\",", recs[0].RawPayload)
	assert.Error(t, recs[0].PayloadErr)

	got = collect(s.Feed("2024-01-15 10:00:02.000|x|application|MatchingCompleted:1 real:12.0\n"))
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "LocationLoaded")

	got = collect(s.Flush())
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "MatchingCompleted")
}

func TestSplitter_UnbalancedFirstLineContinues(t *testing.T) {
	s := NewSplitter()
	got := collect(s.Feed("2024-01-15 10:00:00.000|x\n{\"a\": {}\n\"b\": 1\n}\n"))
	require.Len(t, got, 1)
	assert.Equal(t, "{\"a\": {}\n\"b\": 1\n}", got[0].RawPayload)
}

func TestSplitter_CRLF(t *testing.T) {
	s := NewSplitter()
	got := collect(s.Feed("2024-01-15 10:00:00.000|a\r\n{\r\n\"k\": 1\r\n}\r\n"))
	require.Len(t, got, 1)
	assert.Equal(t, "2024-01-15 10:00:00.000|a", got[0].Message)
	assert.Equal(t, "{\n\"k\": 1\n}", got[0].RawPayload)
}

func TestSplitter_EarlyStopKeepsRemainder(t *testing.T) {
	s := NewSplitter()
	text := "2024-01-15 10:00:00.000|one\n2024-01-15 10:00:01.000|two\n2024-01-15 10:00:02.000|three\n2024-01-15 10:00:03.000|four\n"
	for r := range s.Feed(text) {
		assert.Contains(t, r.Message, "one")
		break
	}
	got := collect(s.Feed(""))
	require.Len(t, got, 2)
	assert.Contains(t, got[0].Message, "two")
	assert.Contains(t, got[1].Message, "three")
}

func TestSplitter_IgnoresLeadingGarbage(t *testing.T) {
	s := NewSplitter()
	got := collect(s.Feed("}\n{\n\"a\":1\n}\nnot a message\n2024-01-15 10:00:00.000|x\n"))
	assert.Empty(t, got)
	got = collect(s.Flush())
	require.Len(t, got, 1)
	assert.Equal(t, "2024-01-15 10:00:00.000|x", got[0].Message)
}

func TestSplitter_Reset(t *testing.T) {
	s := NewSplitter()
	collect(s.Feed("2024-01-15 10:00:00.000|x\n{\n"))
	require.True(t, s.Buffered())
	s.Reset()
	assert.False(t, s.Buffered())
	assert.Empty(t, collect(s.Flush()))
}

func TestRecord_Time(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    time.Time
	}{
		{
			name:    "with offset",
			message: "2024-01-15 10:00:00.123 +01:00|0.14|Info|application|GameStarted",
			want:    time.Date(2024, 1, 15, 9, 0, 0, 123e6, time.UTC),
		},
		{
			name:    "without offset",
			message: "2024-01-15 10:00:00.123|0.14|Info|application|GameStarted",
			want:    time.Date(2024, 1, 15, 10, 0, 0, 123e6, time.Local),
		},
		{
			name:    "unparseable",
			message: "2024-01-15 garbage|x",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Record{Message: tt.message}.Time()
			if !got.Equal(tt.want) {
				t.Errorf("Time() = %v, want %v", got, tt.want)
			}
		})
	}
}

func FuzzSplitter(f *testing.F) {
	f.Add(sampleLog, 7)
	f.Add("2024-01-15 x\n{\n", 3)
	f.Add("2024-01-15 x\n{bad}\n2024-01-15 y\n{\n\"a\":1,\n2024-01-15 z\n", 20)
	f.Add("", 0)

	f.Fuzz(func(t *testing.T, text string, cut int) {
		if cut < 0 || cut > len(text) {
			cut = len(text) / 2
		}
		want := collect(NewSplitter().Feed(text))
		s := NewSplitter()
		got := collect(s.Feed(text[:cut]))
		got = append(got, collect(s.Feed(text[cut:]))...)
		if !slices.Equal(got, want) {
			t.Fatalf("split at %d changed output", cut)
		}
	})
}
