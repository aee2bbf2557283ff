// Package engine implements the Robit decision engine: a rule planner over
// a closed action registry, an optional AI backend for addressed free-form
// asks, and a policy gate. The engine is single-threaded by contract — all
// calls must come from the bridge worker goroutine, so no locking exists.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/robitlab/robit/internal/providers"
	"github.com/robitlab/robit/pkg/protocol"
)

const defaultHistoryLimit = 50

// Engine turns inbound protocol events into response events.
type Engine struct {
	registry *Registry
	planner  *RulePlanner
	policy   Policy

	ai          providers.Provider
	aiLabel     string
	temperature float64

	historyLimit int
	// roomID → workspaceID, installed by RoomScope events.
	scope map[string]string
	// roomID → rolling conversation, bounded by historyLimit.
	histories map[string][]providers.Message
}

// New constructs the engine. The registry and planner are mandatory.
func New(registry *Registry, planner *RulePlanner, policy Policy) (*Engine, error) {
	if registry == nil || len(registry.actions) == 0 {
		return nil, fmt.Errorf("engine: registry is empty")
	}
	if planner == nil {
		return nil, fmt.Errorf("engine: planner is nil")
	}
	return &Engine{
		registry:     registry,
		planner:      planner,
		policy:       policy,
		historyLimit: defaultHistoryLimit,
		scope:        make(map[string]string),
		histories:    make(map[string][]providers.Message),
	}, nil
}

// SetAIBackend binds (or clears) the AI backend. The label is logged so
// operators can tell which backend family answered the bind.
func (e *Engine) SetAIBackend(p providers.Provider, label string) {
	e.ai = p
	e.temperature = 0
	e.aiLabel = label
	if p != nil {
		slog.Info("engine: AI backend bound", "backend", label)
	} else {
		slog.Info("engine: AI backend cleared", "backend", label)
	}
}

// SetAITemperature sets the sampling temperature forwarded to the backend.
func (e *Engine) SetAITemperature(t float64) { e.temperature = t }

// SetHistoryLimit bounds the per-room conversation window.
func (e *Engine) SetHistoryLimit(n int) {
	if n > 0 {
		e.historyLimit = n
	}
}

// Handle consumes one event and returns zero or more response events.
func (e *Engine) Handle(ev protocol.Event) []protocol.Event {
	switch {
	case ev.RoomScope != nil:
		e.applyScope(ev.RoomScope)
		return nil
	case ev.Message != nil:
		return e.handleMessage(ev)
	default:
		// Response bodies are engine output, never input.
		return nil
	}
}

func (e *Engine) applyScope(payload *protocol.RoomScopePayload) {
	if payload.Mode != protocol.ModeMerge {
		e.scope = make(map[string]string)
	}
	for _, ws := range payload.Workspaces {
		for _, room := range ws.Rooms {
			e.scope[room.RoomID] = ws.WorkspaceID
		}
	}
	slog.Info("engine: scope installed", "mode", payload.Mode, "rooms", len(e.scope))
}

func (e *Engine) handleMessage(ev protocol.Event) []protocol.Event {
	m := ev.Message
	if _, ok := e.scope[m.RoomID]; !ok {
		slog.Debug("engine: message outside installed scope", "room", m.RoomID, "event", ev.ID)
		return nil
	}

	contextOnly, _ := m.Metadata["context_only"].(bool)
	e.record(m.RoomID, historyRole(m, contextOnly), m.Text)
	if contextOnly {
		return nil
	}

	if !e.policy.WorkspaceAllowed(m.WorkspaceID) {
		return e.respond(m, protocol.KindError, "workspace not permitted by policy")
	}

	if plan, ok := e.planner.Plan(m.Text); ok {
		return e.execute(m, plan)
	}
	if e.planner.Addressed(m.Text) {
		return e.aiReply(m)
	}
	// Unaddressed chatter only feeds history.
	return nil
}

func (e *Engine) execute(m *protocol.MessagePayload, plan Plan) []protocol.Event {
	if plan.Action == "help" {
		return e.respond(m, protocol.KindActionResult, e.helpText())
	}

	action, ok := e.registry.Lookup(plan.Action)
	if !ok {
		return e.respond(m, protocol.KindError, fmt.Sprintf("unknown action %q", plan.Action))
	}
	if e.policy.RequiresApproval(action) {
		return e.respond(m, protocol.KindApprovalRequest,
			fmt.Sprintf("action %q needs approval: %s", action.Name, plan.Args))
	}

	result, err := action.Run(plan.Args)
	if err != nil {
		return e.respond(m, protocol.KindError, fmt.Sprintf("%s: %v", action.Name, err))
	}
	return e.respond(m, protocol.KindActionResult, result)
}

func (e *Engine) helpText() string {
	text := "available actions:"
	for _, name := range e.registry.Names() {
		a, _ := e.registry.Lookup(name)
		text += fmt.Sprintf("\n  %s — %s", a.Name, a.Description)
	}
	return text
}

// respond builds one response event and records it in room history.
func (e *Engine) respond(m *protocol.MessagePayload, kind, text string) []protocol.Event {
	e.record(m.RoomID, "assistant", text)
	return []protocol.Event{
		protocol.NewResponseEvent("resp-"+uuid.NewString(), protocol.ResponsePayload{
			RoomID:    m.RoomID,
			Kind:      kind,
			Text:      text,
			InReplyTo: m.MessageID,
		}),
	}
}

func (e *Engine) record(roomID, role, text string) {
	history := append(e.histories[roomID], providers.Message{Role: role, Content: text})
	if excess := len(history) - e.historyLimit; excess > 0 {
		history = history[excess:]
	}
	e.histories[roomID] = history
}

func historyRole(m *protocol.MessagePayload, contextOnly bool) string {
	if contextOnly {
		if role, _ := m.Metadata["role"].(string); role != "" {
			return role
		}
	}
	return "user"
}
