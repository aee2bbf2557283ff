package engine

import (
	"fmt"
	"sort"
	"strings"
)

// Action is one operation the planner may request in a room.
type Action struct {
	Name        string
	Description string
	// NeedsApproval actions produce an approval request instead of running.
	NeedsApproval bool
	// Run executes the action and returns the result text.
	Run func(args string) (string, error)
}

// Registry is the closed set of actions available to the planner.
type Registry struct {
	actions map[string]Action
}

// NewRegistry builds a registry from the given actions.
func NewRegistry(actions ...Action) (*Registry, error) {
	r := &Registry{actions: make(map[string]Action, len(actions))}
	for _, a := range actions {
		if a.Name == "" || a.Run == nil {
			return nil, fmt.Errorf("registry: action %q incomplete", a.Name)
		}
		if _, dup := r.actions[a.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate action %q", a.Name)
		}
		r.actions[a.Name] = a
	}
	return r, nil
}

// Lookup returns the named action.
func (r *Registry) Lookup(name string) (Action, bool) {
	a, ok := r.actions[name]
	return a, ok
}

// Names returns all action names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns the built-in action set.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		Action{
			Name:        "ping",
			Description: "liveness check",
			Run:         func(string) (string, error) { return "pong", nil },
		},
		Action{
			Name:        "echo",
			Description: "repeat the given text",
			Run: func(args string) (string, error) {
				if strings.TrimSpace(args) == "" {
					return "", fmt.Errorf("nothing to echo")
				}
				return args, nil
			},
		},
		Action{
			Name:          "announce",
			Description:   "post an announcement to the room",
			NeedsApproval: true,
			Run: func(args string) (string, error) {
				return "announcement: " + strings.TrimSpace(args), nil
			},
		},
	)
	if err != nil {
		panic(err) // static action set, cannot fail
	}
	return r
}
