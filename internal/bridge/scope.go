package bridge

import (
	"strings"

	"github.com/robitlab/robit/internal/config"
)

// Scope is the workspace and room set the bridge may act on.
// Immutable after construction.
type Scope struct {
	WorkspaceID string
	Rooms       map[string]bool
}

// NewScope builds a scope from a workspace id and raw room ids. Room ids
// are trimmed and empties dropped; an empty result yields nil, the signal
// that the bridge must not start. Absence is the only failure mode.
func NewScope(workspaceID string, roomIDs []string) *Scope {
	rooms := make(map[string]bool, len(roomIDs))
	for _, room := range roomIDs {
		if room = strings.TrimSpace(room); room != "" {
			rooms[room] = true
		}
	}
	if len(rooms) == 0 {
		return nil
	}
	return &Scope{WorkspaceID: workspaceID, Rooms: rooms}
}

// ScopeFromConfig derives the scope from resolved configuration.
func ScopeFromConfig(cfg config.BridgeConfig) *Scope {
	return NewScope(cfg.WorkspaceID, cfg.RoomIDs)
}

// Contains reports whether the room is in scope.
func (s *Scope) Contains(roomID string) bool {
	return s != nil && s.Rooms[roomID]
}

// RoomIDs returns the scoped room ids (order unspecified).
func (s *Scope) RoomIDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.Rooms))
	for id := range s.Rooms {
		ids = append(ids, id)
	}
	return ids
}
