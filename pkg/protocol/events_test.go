package protocol

import (
	"encoding/json"
	"testing"
)

func TestConstructorsSetSchemaVersion(t *testing.T) {
	if ev := NewMessageEvent("msg-1", MessagePayload{}); ev.SchemaVersion != SchemaVersion || ev.Message == nil {
		t.Errorf("NewMessageEvent = %+v", ev)
	}
	if ev := NewRoomScopeEvent("scope-1", RoomScopePayload{}); ev.SchemaVersion != SchemaVersion || ev.RoomScope == nil {
		t.Errorf("NewRoomScopeEvent = %+v", ev)
	}
	if ev := NewResponseEvent("resp-1", ResponsePayload{}); ev.SchemaVersion != SchemaVersion || ev.Response == nil {
		t.Errorf("NewResponseEvent = %+v", ev)
	}
}

func TestEventJSONShape(t *testing.T) {
	ev := NewMessageEvent("msg-1", MessagePayload{
		MessageID: "$m1",
		RoomID:    "!r:x",
		Text:      "hi",
	})
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["schema_version"] != SchemaVersion || raw["id"] != "msg-1" {
		t.Errorf("envelope = %v", raw)
	}
	// Only the one body set; empty optional fields stay off the wire.
	if _, ok := raw["room_scope"]; ok {
		t.Error("room_scope serialized on a message event")
	}
	if _, ok := raw["response"]; ok {
		t.Error("response serialized on a message event")
	}
	if _, ok := raw["timestamp"]; ok {
		t.Error("empty timestamp serialized")
	}
}
