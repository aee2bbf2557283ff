// Package protocol defines the versioned event envelope exchanged with the
// Robit decision engine. Every inbound message, scope update, and engine
// response travels as an Event with exactly one body set.
package protocol

import "time"

// SchemaVersion is stamped on every event produced by this module.
const SchemaVersion = "robit.v1"

// Response kinds produced by the engine.
const (
	KindApprovalRequest = "approval_request"
	KindActionResult    = "action_result"
	KindError           = "error"
	KindNeedInput       = "need_input"
)

// Scope update modes.
const (
	ModeReplace = "replace"
	ModeMerge   = "merge"
)

// Event is the engine envelope. Exactly one of Message, RoomScope, or
// Response is non-nil.
type Event struct {
	SchemaVersion string     `json:"schema_version"`
	ID            string     `json:"id"`
	Timestamp     *time.Time `json:"timestamp,omitempty"`

	Message   *MessagePayload   `json:"message,omitempty"`
	RoomScope *RoomScopePayload `json:"room_scope,omitempty"`
	Response  *ResponsePayload  `json:"response,omitempty"`
}

// MessagePayload carries one chat message into the engine.
type MessagePayload struct {
	MessageID   string         `json:"message_id"`
	RoomID      string         `json:"room_id"`
	WorkspaceID string         `json:"workspace_id"`
	SenderID    string         `json:"sender_id"`
	Text        string         `json:"text"`
	EventKind   string         `json:"event_kind,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// RoomScopePayload tells the engine which rooms it may act in.
type RoomScopePayload struct {
	Mode       string           `json:"mode,omitempty"` // ModeReplace or ModeMerge
	Workspaces []WorkspaceScope `json:"workspaces"`
}

// WorkspaceScope is one workspace entry in a scope update.
type WorkspaceScope struct {
	WorkspaceID string          `json:"workspace_id"`
	Name        string          `json:"name,omitempty"`
	Rooms       []RoomScopeItem `json:"rooms"`
}

// RoomScopeItem is one room entry in a workspace scope.
type RoomScopeItem struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name,omitempty"`
}

// ResponsePayload is one outgoing engine response.
type ResponsePayload struct {
	RoomID    string `json:"room_id"`
	Kind      string `json:"kind"` // Kind* constants, or free-form
	Text      string `json:"text"`
	InReplyTo string `json:"in_reply_to,omitempty"` // source event id
}

// NewMessageEvent wraps a message payload in a versioned envelope.
func NewMessageEvent(id string, payload MessagePayload) Event {
	return Event{SchemaVersion: SchemaVersion, ID: id, Message: &payload}
}

// NewRoomScopeEvent wraps a scope payload in a versioned envelope.
func NewRoomScopeEvent(id string, payload RoomScopePayload) Event {
	return Event{SchemaVersion: SchemaVersion, ID: id, RoomScope: &payload}
}

// NewResponseEvent wraps a response payload in a versioned envelope.
func NewResponseEvent(id string, payload ResponsePayload) Event {
	return Event{SchemaVersion: SchemaVersion, ID: id, Response: &payload}
}
