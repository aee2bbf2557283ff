package bridge

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/robitlab/robit/internal/config"
	"github.com/robitlab/robit/internal/engine"
	"github.com/robitlab/robit/pkg/protocol"
)

// buildEngine is the default handler factory: the real engine with the
// configured AI backend bound.
func buildEngine(ai config.AIConfig, contextWindow int) (Handler, error) {
	e, err := engine.New(engine.DefaultRegistry(), engine.NewRulePlanner(), engine.DefaultPolicy())
	if err != nil {
		return nil, err
	}
	e.SetHistoryLimit(contextWindow)
	configureBackend(e, ai)
	return e, nil
}

// worker is the single consumer goroutine. It owns the engine for its
// whole lifetime: construct, bind backend, bootstrap scope, then service
// the mailbox until it closes. Engine construction failure stops the
// worker; the Runtime stays up and all submissions become logged drops.
func (rt *Runtime) worker() {
	defer close(rt.done)

	handler, err := rt.newHandler()
	if err != nil {
		slog.Error("failed to start robit engine", "error", err)
		rt.mbox.close()
		return
	}

	slog.Info("robit engine started",
		"workspace", rt.scope.WorkspaceID, "rooms", len(rt.scope.Rooms))
	rt.emit("started", map[string]any{
		"workspace": rt.scope.WorkspaceID, "rooms": rt.scope.RoomIDs(),
	})

	// Bootstrap: install the scope. Responses are discarded — no
	// transport exists for them before the caller marks rooms ready.
	handler.Handle(rt.scopeEvent())

	disp := &dispatcher{tags: rt.tags, sink: rt.sink, events: rt.events}
	tracer := otel.Tracer("robit/bridge")

	for {
		ev, ok := rt.mbox.recv()
		if !ok {
			break
		}

		_, span := tracer.Start(context.Background(), "engine.handle")
		responses := handler.Handle(ev)
		for _, resp := range responses {
			disp.dispatch(resp)
		}
		span.SetAttributes(
			attribute.String("robit.event_id", ev.ID),
			attribute.Int("robit.responses", len(responses)),
		)
		span.End()
	}
	slog.Info("robit worker stopped")
	rt.emit("stopped", nil)
}

// scopeEvent synthesizes the one-shot RoomScope bootstrap event.
func (rt *Runtime) scopeEvent() protocol.Event {
	rooms := make([]protocol.RoomScopeItem, 0, len(rt.scope.Rooms))
	for roomID := range rt.scope.Rooms {
		rooms = append(rooms, protocol.RoomScopeItem{RoomID: roomID})
	}
	return protocol.NewRoomScopeEvent("scope-boot", protocol.RoomScopePayload{
		Mode: protocol.ModeReplace,
		Workspaces: []protocol.WorkspaceScope{{
			WorkspaceID: rt.scope.WorkspaceID,
			Rooms:       rooms,
		}},
	})
}
