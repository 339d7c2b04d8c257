package eftlog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/eftlog/eftlog-go/internal/logfinder"
	"github.com/eftlog/eftlog-go/internal/monitor"
	"github.com/eftlog/eftlog-go/internal/record"
)

// ParseDir replays one session folder and returns an iterator over events.
//
// dir may be a session folder or a logs directory, in which case its newest
// session folder is used. Records from the role files are merged by
// timestamp and run through a fresh session state, so the result is what a
// watcher attached from the start of the session would have emitted (minus
// GameStarted).
//
// The iterator yields (Event, error) pairs. When an error occurs:
//   - Folder and file errors: yields (Event{}, error) once and stops
//   - Record errors: yields an Exception event, or (Event{}, *RecordError)
//     and stops if WithParseStopOnError is set
//   - Context cancellation: yields (Event{}, ctx.Err()) and stops
//
// Example:
//
//	for ev, err := range eftlog.ParseDir(ctx, sessionDir) {
//	    if err != nil {
//	        log.Printf("error: %v", err)
//	        break
//	    }
//	    fmt.Printf("%s %s\n", ev.Time.Format(time.TimeOnly), ev.Type)
//	}
func ParseDir(ctx context.Context, dir string, opts ...ParseOption) iter.Seq2[Event, error] {
	if dir == "" {
		return func(yield func(Event, error) bool) {
			yield(Event{}, errors.New("eftlog: directory required"))
		}
	}

	cfg := applyParseOptions(opts)

	return func(yield func(Event, error) bool) {
		files, err := sessionFiles(dir, cfg.traces)
		if err != nil {
			yield(Event{}, err)
			return
		}
		cfg.logger.Debug("replaying session", "dir", dir, "files", len(files))
		replay(ctx, cfg, files, yield)
	}
}

// ParseFile replays a single log file.
// Events that depend on other role files (for example flea sales, which are
// only in the notifications log) are naturally absent.
func ParseFile(ctx context.Context, path string, opts ...ParseOption) iter.Seq2[Event, error] {
	if path == "" {
		return func(yield func(Event, error) bool) {
			yield(Event{}, errors.New("eftlog: path required"))
		}
	}

	cfg := applyParseOptions(opts)

	return func(yield func(Event, error) bool) {
		replay(ctx, cfg, []string{path}, yield)
	}
}

// sessionFiles returns the role files to replay for dir.
func sessionFiles(dir string, traces bool) ([]string, error) {
	files, err := logfinder.RoleFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("eftlog: %w", err)
	}
	if len(files) == 0 {
		session, err := logfinder.FindLatestSessionDir(dir)
		if err != nil {
			return nil, err
		}
		if files, err = logfinder.RoleFiles(session); err != nil {
			return nil, fmt.Errorf("eftlog: %w", err)
		}
	}

	return slices.DeleteFunc(files, func(path string) bool {
		role, ok := monitor.RoleOf(path)
		return !ok || (role == monitor.Traces && !traces)
	}), nil
}

// timedRecord caches the parsed timestamp used for merging.
type timedRecord struct {
	record.Record
	at time.Time
}

func replay(ctx context.Context, cfg *parseConfig, files []string, yield func(Event, error) bool) {
	var records []timedRecord
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			yield(Event{}, err)
			return
		}
		rs, err := readRecords(path)
		if err != nil {
			yield(Event{}, err)
			return
		}
		for _, r := range rs {
			records = append(records, timedRecord{Record: r, at: r.Time()})
		}
	}

	// Each file is already in order; a stable sort interleaves them.
	slices.SortStableFunc(records, func(a, b timedRecord) int {
		return a.at.Compare(b.at)
	})

	p := newPipeline(cfg.filter, cfg.includeRawLine, false, cfg.logger)
	p.reset(uuid.NewString())

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			yield(Event{}, err)
			return
		}

		evs, recErr := p.apply(r.Record)
		if recErr != nil && cfg.stopOnError {
			yield(Event{}, recErr)
			return
		}
		for _, ev := range evs {
			if !cfg.since.IsZero() && ev.Time.Before(cfg.since) {
				continue
			}
			if !cfg.until.IsZero() && !ev.Time.Before(cfg.until) {
				return // Past the time window, stop iteration
			}
			if !yield(ev, nil) {
				return // Consumer requested stop (break)
			}
		}
	}
}

// readRecords splits a whole file into records.
func readRecords(path string) ([]record.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var (
		out  []record.Record
		last string
		s    = record.NewSplitter()
		br   = bufio.NewReaderSize(file, 64*1024)
	)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			last = line
			for r := range s.Feed(line) {
				out = append(out, r)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	// A final line without terminator is still a complete line at EOF.
	if last != "" && last[len(last)-1] != '\n' {
		for r := range s.Feed("\n") {
			out = append(out, r)
		}
	}
	for r := range s.Flush() {
		out = append(out, r)
	}
	return out, nil
}
