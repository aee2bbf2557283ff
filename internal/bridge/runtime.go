// Package bridge routes scoped chat-room messages into the Robit engine
// and relays engine responses back to the chat transport. One Runtime
// exists per process, owned by the composition root; a single worker
// goroutine owns the engine, so engine state needs no locks.
package bridge

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/robitlab/robit/internal/config"
	"github.com/robitlab/robit/internal/transport"
	"github.com/robitlab/robit/pkg/protocol"
)

// sourceMarker tags every submitted payload's metadata with its origin.
const sourceMarker = "robit-bridge"

// defaultContextWindow bounds context replay when config leaves it unset.
const defaultContextWindow = 50

// Handler consumes one protocol event and returns its response events.
// Satisfied by *engine.Engine; injectable for tests.
type Handler interface {
	Handle(ev protocol.Event) []protocol.Event
}

// EventFunc receives observational bridge events (submits, responses,
// lifecycle). Hooks must not block; they run on bridge goroutines.
type EventFunc func(name string, payload any)

// Options configures a Runtime.
type Options struct {
	Scope         *Scope // required; nil means the bridge must not start
	Tags          Tags   // zero value selects DefaultTags
	ContextWindow int
	AI            config.AIConfig
	Sink          transport.Sink // default LogSink
	Events        EventFunc      // optional observe hook

	// NewHandler overrides engine construction (tests). Default builds
	// the real engine and binds the configured AI backend.
	NewHandler func() (Handler, error)
}

// Runtime owns the mailbox, the active scope, and the per-room state
// shared with transport callers. Created at most once per process.
type Runtime struct {
	scope         *Scope
	tags          Tags
	contextWindow int
	sink          transport.Sink
	events        EventFunc
	newHandler    func() (Handler, error)

	mbox    *mailbox
	started atomic.Bool
	once    sync.Once
	done    chan struct{}

	mu                 sync.Mutex
	readyRooms         map[string]bool
	contextLoadedRooms map[string]bool
}

// New builds a Runtime from options. Returns nil when the scope is
// absent — every method on a nil Runtime is a silent no-op, which is the
// uninitialized-bridge contract.
func New(opts Options) *Runtime {
	if opts.Scope == nil {
		return nil
	}
	if opts.Tags == (Tags{}) {
		opts.Tags = DefaultTags()
	}
	if opts.ContextWindow <= 0 {
		opts.ContextWindow = defaultContextWindow
	}
	if opts.Sink == nil {
		opts.Sink = transport.LogSink{}
	}
	rt := &Runtime{
		scope:              opts.Scope,
		tags:               opts.Tags,
		contextWindow:      opts.ContextWindow,
		sink:               opts.Sink,
		events:             opts.Events,
		newHandler:         opts.NewHandler,
		mbox:               newMailbox(),
		done:               make(chan struct{}),
		readyRooms:         make(map[string]bool),
		contextLoadedRooms: make(map[string]bool),
	}
	if rt.newHandler == nil {
		ai := opts.AI
		window := opts.ContextWindow
		rt.newHandler = func() (Handler, error) { return buildEngine(ai, window) }
	}
	return rt
}

// NewFromConfig derives the scope from configuration and builds the
// Runtime, or logs and returns nil when no rooms are configured.
func NewFromConfig(cfg *config.Config, sink transport.Sink, events EventFunc) *Runtime {
	scope := ScopeFromConfig(cfg.Bridge)
	if scope == nil {
		slog.Warn("robit bridge not started: no rooms configured")
		return nil
	}
	tags := DefaultTags()
	if cfg.Bridge.MessagePrefix != "" {
		tags.Prefix = cfg.Bridge.MessagePrefix
	}
	if cfg.Bridge.LegacyPrefix != "" {
		tags.Legacy = cfg.Bridge.LegacyPrefix
	}
	return New(Options{
		Scope:         scope,
		Tags:          tags,
		ContextWindow: cfg.Bridge.ContextWindow,
		AI:            cfg.AI,
		Sink:          sink,
		Events:        events,
	})
}

// Start launches the worker goroutine. Idempotent; the second and later
// calls are silent no-ops.
func (rt *Runtime) Start() {
	if rt == nil {
		return
	}
	rt.once.Do(func() {
		rt.started.Store(true)
		go rt.worker()
	})
}

// Shutdown is deliberately a no-op: the bridge relies on process exit,
// and the worker stops only when the mailbox closes. Known limitation.
func (rt *Runtime) Shutdown() {}

// Close closes the mailbox; the worker drains queued events and stops.
// This is the Go analog of "all senders dropped". Used by tests and the
// daemon's exit path; submissions after Close are dropped and logged.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	rt.mbox.close()
	if rt.started.Load() {
		<-rt.done
	}
}

// Ready reports whether the runtime has been started.
func (rt *Runtime) Ready() bool { return rt != nil && rt.started.Load() }

// Scope returns the active scope.
func (rt *Runtime) Scope() *Scope {
	if rt == nil {
		return nil
	}
	return rt.scope
}

// Tags returns the active tag pair.
func (rt *Runtime) Tags() Tags {
	if rt == nil {
		return DefaultTags()
	}
	return rt.tags
}

// ContextWindowSize is the configured upper bound on prior messages
// replayed as context before live submission begins.
func (rt *Runtime) ContextWindowSize() int {
	if rt == nil {
		return 0
	}
	return rt.contextWindow
}

// SubmitMessage filters and enqueues one live chat message. Every
// rejection is a logged no-op — callers never branch on bridge internals.
func (rt *Runtime) SubmitMessage(roomID, messageID, senderID, text string) {
	if rt == nil || !rt.started.Load() {
		slog.Debug("robit runtime not ready; ignoring message", "message", messageID)
		return
	}
	if !rt.scope.Contains(roomID) {
		slog.Debug("robit ignored message: room not in scope", "message", messageID, "room", roomID)
		return
	}
	if rt.tags.IsRobitMessage(text) {
		slog.Debug("robit ignored message: already tagged", "message", messageID)
		return
	}

	ev := protocol.NewMessageEvent("msg-"+messageID, protocol.MessagePayload{
		MessageID:   messageID,
		RoomID:      roomID,
		WorkspaceID: rt.scope.WorkspaceID,
		SenderID:    senderID,
		Text:        text,
		EventKind:   "text",
		Metadata:    map[string]any{"source": sourceMarker},
	})
	slog.Info("robit submit", "room", roomID, "sender", senderID, "message", messageID)
	rt.emit("submit", map[string]any{
		"room": roomID, "sender": senderID, "message": messageID, "text": text,
	})
	if !rt.mbox.send(ev) {
		slog.Debug("robit worker stopped; message dropped", "message", messageID)
	}
}

// SubmitContextMessage enqueues a history message to seed the engine's
// context. Exempt from the self-tag check — replayed bridge output is
// legitimate history. Empty text is dropped.
func (rt *Runtime) SubmitContextMessage(roomID, messageID, senderID, text, role string) {
	if rt == nil || !rt.started.Load() {
		return
	}
	if !rt.scope.Contains(roomID) {
		return
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	ev := protocol.NewMessageEvent("ctx-msg-"+messageID, protocol.MessagePayload{
		MessageID:   "ctx-" + messageID,
		RoomID:      roomID,
		WorkspaceID: rt.scope.WorkspaceID,
		SenderID:    senderID,
		Text:        trimmed,
		EventKind:   "text",
		Metadata:    map[string]any{"source": sourceMarker, "context_only": true, "role": role},
	})
	if !rt.mbox.send(ev) {
		slog.Debug("robit worker stopped; context message dropped", "message", messageID)
	}
}

// MarkRoomReady records that a room's bridge-side setup is complete.
// Idempotent.
func (rt *Runtime) MarkRoomReady(roomID string) {
	if rt == nil {
		return
	}
	rt.mu.Lock()
	first := !rt.readyRooms[roomID]
	rt.readyRooms[roomID] = true
	rt.mu.Unlock()
	if first {
		slog.Info("robit room ready", "room", roomID)
	}
}

// RoomReady reports whether MarkRoomReady has been called for the room.
func (rt *Runtime) RoomReady(roomID string) bool {
	if rt == nil {
		return false
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.readyRooms[roomID]
}

// MarkContextLoaded records that historical context has been fed to the
// engine for the room. Idempotent.
func (rt *Runtime) MarkContextLoaded(roomID string) {
	if rt == nil {
		return
	}
	rt.mu.Lock()
	rt.contextLoadedRooms[roomID] = true
	rt.mu.Unlock()
}

// ContextLoaded reports whether the room's history replay is done.
func (rt *Runtime) ContextLoaded(roomID string) bool {
	if rt == nil {
		return false
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.contextLoadedRooms[roomID]
}

func (rt *Runtime) emit(name string, payload any) {
	if rt.events != nil {
		rt.events(name, payload)
	}
}
