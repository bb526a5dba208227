package overview

import (
	"github.com/1broseidon/winscale/internal/platform"
	"github.com/1broseidon/winscale/internal/tiling"
)

// Phase represents the current phase of the overview
type Phase int

const (
	// PhaseInactive means no session exists
	PhaseInactive Phase = iota
	// PhaseActivating means windows are animating into the grid
	PhaseActivating
	// PhaseActive means the grid is settled and accepting selection
	PhaseActive
	// PhaseDeactivating means windows are animating back to their real geometry
	PhaseDeactivating
	// PhaseFinalizing means the session is being torn down
	PhaseFinalizing
)

// String returns the string representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseInactive:
		return "inactive"
	case PhaseActivating:
		return "activating"
	case PhaseActive:
		return "active"
	case PhaseDeactivating:
		return "deactivating"
	case PhaseFinalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}

// Scope selects which windows take part in the overview.
type Scope int

const (
	ScopeCurrentWorkspace Scope = iota
	ScopeAllWorkspaces
)

// String returns the string representation of the scope
func (s Scope) String() string {
	switch s {
	case ScopeCurrentWorkspace:
		return "current-workspace"
	case ScopeAllWorkspaces:
		return "all-workspaces"
	default:
		return "unknown"
	}
}

// Cell is a grid position. Children share their parent's cell.
type Cell struct {
	Row int
	Col int
}

// Session holds the state of one overview on one output.
type Session struct {
	Phase  Phase
	Active bool
	Scope  Scope
	Grid   tiling.Grid

	InitialFocus     platform.WindowID
	CurrentFocus     platform.WindowID
	LastPressed      platform.WindowID // pending pointer selection, 0 if none
	LastButton       platform.Button   // button that pressed LastPressed
	InitialWorkspace platform.Workspace

	// InputReleasePending defers the ungrab until the key that ended the
	// session is released.
	InputReleasePending bool

	Entries map[platform.WindowID]*Entry

	// promoted tracks windows moved out of the minimized layer so they can
	// be minimized again when the session ends.
	promoted map[platform.WindowID]bool

	grabbed   bool
	activated bool
}

func newSession() Session {
	return Session{
		Entries:  make(map[platform.WindowID]*Entry),
		promoted: make(map[platform.WindowID]bool),
	}
}

// Reset returns the session to inactive. The scope is kept so that status
// reports the last one used.
func (s *Session) Reset() {
	scope := s.Scope
	*s = newSession()
	s.Scope = scope
}
