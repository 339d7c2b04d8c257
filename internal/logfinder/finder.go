// Package logfinder locates the game's log directory, its per-launch session
// folders and the role log files inside them.
package logfinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// EnvLogsDir is the environment variable name for specifying the logs directory.
const EnvLogsDir = "EFTLOG_LOGSDIR"

// Sentinel errors.
var (
	ErrLogsDirNotFound = errors.New("logs directory not found")
	ErrNoSessionDir    = errors.New("no session directory found")
)

// RoleFilePattern matches the role log files of a session folder.
const RoleFilePattern = "*{application,notifications,traces}.log*"

// sessionDirPattern extracts the launch timestamp from a session folder name.
// Matches: "log_2024.01.15_10-00-00_0.14.0.0.28375"
var sessionDirPattern = regexp.MustCompile(`log_(\d+\.\d+\.\d+_\d+-\d+-\d+)`)

const sessionTimeLayout = "2006.01.02_15-04-05"

// FindLogsDir returns the game's logs directory.
//
// Priority:
//  1. explicit (if non-empty)
//  2. EFTLOG_LOGSDIR environment variable
//  3. the "Logs" folder next to exe (if non-empty)
//
// Returns ErrLogsDirNotFound if no valid directory is found.
// The returned path has symlinks resolved for consistency.
func FindLogsDir(explicit, exe string) (string, error) {
	if explicit != "" {
		if resolved := resolveDir(explicit); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %s is not a directory", ErrLogsDirNotFound, explicit)
	}

	if envDir := os.Getenv(EnvLogsDir); envDir != "" {
		if resolved := resolveDir(envDir); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %s environment variable points to invalid directory", ErrLogsDirNotFound, EnvLogsDir)
	}

	if exe != "" {
		dir := filepath.Join(filepath.Dir(exe), "Logs")
		if resolved := resolveDir(dir); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %s", ErrLogsDirNotFound, dir)
	}

	return "", ErrLogsDirNotFound
}

type sessionCandidate struct {
	name string
	ts   time.Time
	ok   bool
}

// FindLatestSessionDir returns the newest session folder in logsDir.
//
// Folders are ordered by the timestamp embedded in their name. Ties, and
// folders whose name carries no parseable timestamp, are ordered by name;
// unparseable folders rank below every parseable one.
//
// Returns ErrNoSessionDir if logsDir has no subdirectories.
func FindLatestSessionDir(logsDir string) (string, error) {
	entries, err := os.ReadDir(logsDir)
	if err != nil {
		return "", fmt.Errorf("reading logs directory: %w", err)
	}

	var candidates []sessionCandidate
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		c := sessionCandidate{name: e.Name()}
		c.ts, c.ok = SessionTime(c.name)
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return "", ErrNoSessionDir
	}

	latest := slices.MaxFunc(candidates, compareSessions)
	return filepath.Join(logsDir, latest.name), nil
}

func compareSessions(a, b sessionCandidate) int {
	switch {
	case a.ok && !b.ok:
		return 1
	case !a.ok && b.ok:
		return -1
	case a.ok && b.ok:
		if c := a.ts.Compare(b.ts); c != 0 {
			return c
		}
	}
	return strings.Compare(a.name, b.name)
}

// SessionTime parses the launch timestamp embedded in a session folder name.
func SessionTime(name string) (time.Time, bool) {
	m := sessionDirPattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(sessionTimeLayout, m[1], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// RoleFiles returns the role log files directly inside sessionDir, sorted by name.
func RoleFiles(sessionDir string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(sessionDir), RoleFilePattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("globbing role files: %w", err)
	}
	slices.Sort(matches)

	files := make([]string, len(matches))
	for i, m := range matches {
		files[i] = filepath.Join(sessionDir, filepath.FromSlash(m))
	}
	return files, nil
}

// IsRoleFile reports whether the base name of path looks like a role log file.
func IsRoleFile(path string) bool {
	ok, _ := doublestar.Match(RoleFilePattern, filepath.Base(path))
	return ok
}

// resolveDir resolves symlinks and validates the directory.
// Returns the resolved path if valid, empty string otherwise.
func resolveDir(dir string) string {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return ""
	}

	// Resolve symlinks (works with Windows Junctions in Go 1.20+)
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		// Fallback to original path if symlink resolution fails
		// (e.g., permission issues, broken links)
		resolved = dir
	}
	return resolved
}
