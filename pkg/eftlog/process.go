package eftlog

import (
	"context"

	"github.com/eftlog/eftlog-go/internal/procfind"
)

// Process identifies a running game client.
type Process struct {
	PID int32

	// Exe is the absolute path of the game executable. The logs directory
	// is its sibling "Logs" folder.
	Exe string

	// CreateTime is the process start time in milliseconds since the epoch.
	CreateTime int64
}

// ProcessFinder locates the game process.
type ProcessFinder interface {
	// Find returns the running game process, or (nil, nil) if there is none.
	Find(ctx context.Context) (*Process, error)

	// Running reports whether p is still the running game process.
	Running(ctx context.Context, p *Process) (bool, error)
}

// procFinder adapts procfind.Finder to ProcessFinder.
type procFinder struct {
	f *procfind.Finder
}

func newProcFinder(name string) *procFinder {
	return &procFinder{f: procfind.New(name)}
}

func (p *procFinder) Find(ctx context.Context) (*Process, error) {
	found, err := p.f.Find(ctx)
	if err != nil || found == nil {
		return nil, err
	}
	return &Process{PID: found.PID, Exe: found.Exe, CreateTime: found.CreateTime}, nil
}

func (p *procFinder) Running(ctx context.Context, proc *Process) (bool, error) {
	return p.f.Running(ctx, &procfind.Process{PID: proc.PID, Exe: proc.Exe, CreateTime: proc.CreateTime})
}
