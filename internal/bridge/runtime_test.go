package bridge

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/robitlab/robit/internal/transport"
	"github.com/robitlab/robit/pkg/protocol"
)

// recordingHandler captures every event the worker hands it and replies
// with canned responses.
type recordingHandler struct {
	mu        sync.Mutex
	events    []protocol.Event
	responses []protocol.Event
	notify    chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{notify: make(chan struct{}, 64)}
}

func (h *recordingHandler) Handle(ev protocol.Event) []protocol.Event {
	h.mu.Lock()
	h.events = append(h.events, ev)
	h.mu.Unlock()
	h.notify <- struct{}{}
	return h.responses
}

func (h *recordingHandler) seen() []protocol.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]protocol.Event, len(h.events))
	copy(out, h.events)
	return out
}

func (h *recordingHandler) wait(t *testing.T, n int) []protocol.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if evs := h.seen(); len(evs) >= n {
			return evs
		}
		select {
		case <-h.notify:
		case <-deadline:
			t.Fatalf("timed out waiting for %d events, have %d", n, len(h.seen()))
		}
	}
}

// memorySink records transport submissions.
type memorySink struct {
	mu   sync.Mutex
	reqs []transport.SendRequest
}

func (s *memorySink) Submit(req transport.SendRequest) {
	s.mu.Lock()
	s.reqs = append(s.reqs, req)
	s.mu.Unlock()
}

func (s *memorySink) all() []transport.SendRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]transport.SendRequest, len(s.reqs))
	copy(out, s.reqs)
	return out
}

func newTestRuntime(t *testing.T, h Handler, sink transport.Sink) *Runtime {
	t.Helper()
	rt := New(Options{
		Scope:      NewScope("W", []string{"!r1:example.org"}),
		Sink:       sink,
		NewHandler: func() (Handler, error) { return h, nil },
	})
	if rt == nil {
		t.Fatal("New returned nil for a valid scope")
	}
	return rt
}

func TestNew_NilScope(t *testing.T) {
	if rt := New(Options{}); rt != nil {
		t.Fatalf("New without scope = %+v, want nil", rt)
	}
}

func TestRuntime_NilNoOps(t *testing.T) {
	// Every method on a nil Runtime must be a safe no-op.
	var rt *Runtime
	rt.Start()
	rt.Shutdown()
	rt.Close()
	rt.SubmitMessage("!r:x", "m", "u", "hi")
	rt.SubmitContextMessage("!r:x", "m", "u", "hi", "user")
	rt.MarkRoomReady("!r:x")
	rt.MarkContextLoaded("!r:x")
	if rt.Ready() {
		t.Error("nil Ready() = true")
	}
	if rt.RoomReady("!r:x") {
		t.Error("nil RoomReady() = true")
	}
	if rt.ContextLoaded("!r:x") {
		t.Error("nil ContextLoaded() = true")
	}
	if rt.Scope() != nil {
		t.Error("nil Scope() != nil")
	}
	if rt.ContextWindowSize() != 0 {
		t.Error("nil ContextWindowSize() != 0")
	}
}

func TestRuntime_BootstrapAndSubmit(t *testing.T) {
	h := newRecordingHandler()
	rt := newTestRuntime(t, h, &memorySink{})
	rt.Start()
	defer rt.Close()

	rt.SubmitMessage("!r1:example.org", "$m1", "@user:example.org", "hello")

	evs := h.wait(t, 2)
	boot := evs[0]
	if boot.RoomScope == nil {
		t.Fatalf("first event is not a scope bootstrap: %+v", boot)
	}
	if boot.ID != "scope-boot" || boot.RoomScope.Mode != protocol.ModeReplace {
		t.Errorf("bootstrap = id %q mode %q", boot.ID, boot.RoomScope.Mode)
	}
	if len(boot.RoomScope.Workspaces) != 1 || boot.RoomScope.Workspaces[0].WorkspaceID != "W" {
		t.Errorf("bootstrap workspaces = %+v", boot.RoomScope.Workspaces)
	}

	msg := evs[1]
	if msg.Message == nil {
		t.Fatalf("second event is not a message: %+v", msg)
	}
	if msg.ID != "msg-$m1" {
		t.Errorf("event id = %q, want %q", msg.ID, "msg-$m1")
	}
	if msg.Message.RoomID != "!r1:example.org" || msg.Message.WorkspaceID != "W" {
		t.Errorf("payload = %+v", msg.Message)
	}
	if msg.Message.Text != "hello" || msg.Message.SenderID != "@user:example.org" {
		t.Errorf("payload = %+v", msg.Message)
	}
	if msg.SchemaVersion != protocol.SchemaVersion {
		t.Errorf("schema = %q", msg.SchemaVersion)
	}
}

func TestRuntime_SubmitFilters(t *testing.T) {
	tests := []struct {
		name string
		room string
		text string
	}{
		{"out of scope room", "!other:example.org", "hello"},
		{"self tagged", "!r1:example.org", "[Robit] hello"},
		{"self tagged legacy", "!r1:example.org", "[Robit-LEGACY] hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRecordingHandler()
			rt := newTestRuntime(t, h, &memorySink{})
			rt.Start()
			defer rt.Close()
			h.wait(t, 1) // bootstrap

			rt.SubmitMessage(tt.room, "$m1", "@u:x", tt.text)
			// An accepted message would land ahead of this probe.
			rt.SubmitMessage("!r1:example.org", "$probe", "@u:x", "probe")
			evs := h.wait(t, 2)
			if len(evs) != 2 {
				t.Fatalf("got %d events, want bootstrap + probe only", len(evs))
			}
			if evs[1].ID != "msg-$probe" {
				t.Errorf("filtered message leaked through: %q", evs[1].ID)
			}
		})
	}
}

func TestRuntime_SubmitBeforeStart(t *testing.T) {
	h := newRecordingHandler()
	rt := newTestRuntime(t, h, &memorySink{})

	rt.SubmitMessage("!r1:example.org", "$m1", "@u:x", "hello")
	if rt.Ready() {
		t.Error("Ready before Start = true")
	}

	rt.Start()
	defer rt.Close()
	h.wait(t, 1)
	rt.SubmitMessage("!r1:example.org", "$m2", "@u:x", "after start")
	evs := h.wait(t, 2)
	if evs[1].ID != "msg-$m2" {
		t.Errorf("pre-start submission was queued: %q", evs[1].ID)
	}
}

func TestRuntime_SubmitContextMessage(t *testing.T) {
	h := newRecordingHandler()
	rt := newTestRuntime(t, h, &memorySink{})
	rt.Start()
	defer rt.Close()
	h.wait(t, 1)

	// Tagged history must pass: replayed bridge output is legitimate.
	rt.SubmitContextMessage("!r1:example.org", "$h1", "@robit:x", "[Robit] earlier reply", "assistant")
	// Blank history is dropped.
	rt.SubmitContextMessage("!r1:example.org", "$h2", "@u:x", "   ", "user")
	rt.SubmitMessage("!r1:example.org", "$probe", "@u:x", "probe")

	evs := h.wait(t, 3)
	if len(evs) != 3 {
		t.Fatalf("got %d events, want 3", len(evs))
	}
	ctx := evs[1]
	if ctx.ID != "ctx-msg-$h1" {
		t.Errorf("context event id = %q, want %q", ctx.ID, "ctx-msg-$h1")
	}
	if ctx.Message.MessageID != "ctx-$h1" {
		t.Errorf("context message id = %q, want %q", ctx.Message.MessageID, "ctx-$h1")
	}
	if v, _ := ctx.Message.Metadata["context_only"].(bool); !v {
		t.Error("context_only metadata not set")
	}
	if role, _ := ctx.Message.Metadata["role"].(string); role != "assistant" {
		t.Errorf("role metadata = %q", role)
	}
	if evs[2].ID != "msg-$probe" {
		t.Errorf("blank context message leaked through: %q", evs[2].ID)
	}
}

func TestRuntime_RoomReadiness(t *testing.T) {
	h := newRecordingHandler()
	rt := newTestRuntime(t, h, &memorySink{})

	room := "!r1:example.org"
	if rt.RoomReady(room) || rt.ContextLoaded(room) {
		t.Fatal("room state set before marking")
	}
	rt.MarkRoomReady(room)
	rt.MarkRoomReady(room) // idempotent
	rt.MarkContextLoaded(room)
	rt.MarkContextLoaded(room)
	if !rt.RoomReady(room) {
		t.Error("RoomReady = false after MarkRoomReady")
	}
	if !rt.ContextLoaded(room) {
		t.Error("ContextLoaded = false after MarkContextLoaded")
	}
	if rt.RoomReady("!other:x") {
		t.Error("unmarked room reported ready")
	}
}

func TestRuntime_ResponsesReachSink(t *testing.T) {
	h := newRecordingHandler()
	h.responses = []protocol.Event{
		protocol.NewResponseEvent("resp-1", protocol.ResponsePayload{
			RoomID:    "!r1:example.org",
			Kind:      protocol.KindActionResult,
			Text:      "done",
			InReplyTo: "$m1",
		}),
	}
	sink := &memorySink{}
	rt := newTestRuntime(t, h, sink)
	rt.Start()
	rt.SubmitMessage("!r1:example.org", "$m1", "@u:x", "robit: ping")
	h.wait(t, 2)
	rt.Close()

	reqs := sink.all()
	if len(reqs) == 0 {
		t.Fatal("no send requests reached the sink")
	}
	last := reqs[len(reqs)-1]
	if last.Text != "[Robit] [result] done" {
		t.Errorf("sent text = %q, want %q", last.Text, "[Robit] [result] done")
	}
	if string(last.Room) != "!r1:example.org" {
		t.Errorf("sent room = %q", last.Room)
	}
	if string(last.InReplyTo) != "$m1" {
		t.Errorf("in_reply_to = %q, want %q", last.InReplyTo, "$m1")
	}
	if last.Threading != transport.ThreadMaybe {
		t.Errorf("threading = %v, want ThreadMaybe", last.Threading)
	}
}

func TestRuntime_CloseDrainsQueue(t *testing.T) {
	h := newRecordingHandler()
	rt := newTestRuntime(t, h, &memorySink{})
	rt.Start()
	for i := 0; i < 10; i++ {
		rt.SubmitMessage("!r1:example.org", "$m", "@u:x", "hello")
	}
	rt.Close()
	// bootstrap + 10 messages, all delivered before the worker stopped
	if got := len(h.seen()); got != 11 {
		t.Errorf("handler saw %d events, want 11", got)
	}
	// Post-close submissions drop silently.
	rt.SubmitMessage("!r1:example.org", "$late", "@u:x", "late")
	if got := len(h.seen()); got != 11 {
		t.Errorf("post-close submission reached the handler")
	}
}

func TestRuntime_HandlerConstructionFailure(t *testing.T) {
	rt := New(Options{
		Scope:      NewScope("W", []string{"!r1:example.org"}),
		NewHandler: func() (Handler, error) { return nil, errors.New("boom") },
	})
	rt.Start()
	// The worker closes the mailbox and exits; Close must not hang.
	done := make(chan struct{})
	go func() { rt.Close(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close hung after handler construction failure")
	}
}
