// Package procfind locates the running game process.
package procfind

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// DefaultName is the executable name of the game client, without extension.
const DefaultName = "EscapeFromTarkov"

// Process identifies one running instance of the game.
type Process struct {
	PID int32

	// Exe is the absolute path of the executable.
	Exe string

	// CreateTime is the process start time in milliseconds since the epoch.
	// Together with PID it distinguishes a restarted client from the old one.
	CreateTime int64
}

// Finder looks up processes by executable name.
type Finder struct {
	// Name is matched case-insensitively against the process name with any
	// ".exe" suffix removed.
	Name string
}

// New returns a Finder for the named executable.
func New(name string) *Finder {
	if name == "" {
		name = DefaultName
	}
	return &Finder{Name: name}
}

// Find returns the oldest running process with a matching name.
// Returns (nil, nil) when none is running.
func (f *Finder) Find(ctx context.Context) (*Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}

	var found []*Process
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || !f.matches(name) {
			continue
		}
		exe, err := p.ExeWithContext(ctx)
		if err != nil {
			// Exited between listing and inspection, or not accessible.
			continue
		}
		created, _ := p.CreateTimeWithContext(ctx)
		found = append(found, &Process{PID: p.Pid, Exe: exe, CreateTime: created})
	}
	if len(found) == 0 {
		return nil, nil
	}

	return slices.MinFunc(found, func(a, b *Process) int {
		if c := cmp.Compare(a.CreateTime, b.CreateTime); c != 0 {
			return c
		}
		return cmp.Compare(a.PID, b.PID)
	}), nil
}

// Running reports whether p is still alive. A reused PID with a different
// start time counts as not running.
func (f *Finder) Running(ctx context.Context, p *Process) (bool, error) {
	proc, err := process.NewProcessWithContext(ctx, p.PID)
	if errors.Is(err, process.ErrorProcessNotRunning) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("inspecting pid %d: %w", p.PID, err)
	}
	if p.CreateTime == 0 {
		return true, nil
	}
	created, err := proc.CreateTimeWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("inspecting pid %d: %w", p.PID, err)
	}
	return created == p.CreateTime, nil
}

func (f *Finder) matches(name string) bool {
	return name != "" && strings.EqualFold(trimExe(name), trimExe(f.Name))
}

func trimExe(name string) string {
	base := filepath.Base(name)
	if ext := filepath.Ext(base); strings.EqualFold(ext, ".exe") {
		base = base[:len(base)-len(ext)]
	}
	return base
}
