package bridge

import (
	"log/slog"
	"strings"

	"github.com/robitlab/robit/internal/transport"
	"github.com/robitlab/robit/pkg/protocol"
)

// dispatcher reshapes engine responses into transport send requests.
type dispatcher struct {
	tags   Tags
	sink   transport.Sink
	events EventFunc
}

// dispatch hands one response event to the transport. Malformed room ids
// drop that single response; the loop continues.
func (d *dispatcher) dispatch(ev protocol.Event) {
	payload := ev.Response
	if payload == nil {
		return
	}

	roomID, err := transport.ParseRoomID(payload.RoomID)
	if err != nil {
		slog.Warn("response dropped: invalid room id", "room", payload.RoomID, "error", err)
		return
	}

	// Prefix + kind tag, unless the engine already tagged its output.
	text := payload.Text
	if !strings.HasPrefix(text, d.tags.Prefix) {
		text = d.tags.Prefix + kindTag(payload.Kind) + text
	}

	req := transport.SendRequest{
		Room:      roomID,
		Text:      text,
		Threading: transport.ThreadMaybe,
	}
	if eventID, err := transport.ParseEventID(payload.InReplyTo); err == nil {
		req.InReplyTo = eventID
	}

	slog.Info("robit response", "room", payload.RoomID, "kind", payload.Kind, "chars", len(text))
	d.emit("response", map[string]any{
		"room": payload.RoomID,
		"kind": payload.Kind,
		"text": text,
	})
	d.sink.Submit(req)
}

func (d *dispatcher) emit(name string, payload any) {
	if d.events != nil {
		d.events(name, payload)
	}
}
