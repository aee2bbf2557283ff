// Package transport is the bridge's narrow edge onto the chat transport.
// The transport itself (sync, wire protocol, delivery retry) lives outside
// this module; the bridge only hands fully-formed send requests to a Sink.
package transport

import (
	"fmt"
	"strings"
)

// RoomID is a validated room identifier ("!localpart:server").
type RoomID string

// EventID is a validated event identifier ("$opaque").
type EventID string

func (r RoomID) String() string  { return string(r) }
func (e EventID) String() string { return string(e) }

// ParseRoomID validates the room id grammar.
func ParseRoomID(s string) (RoomID, error) {
	if !strings.HasPrefix(s, "!") {
		return "", fmt.Errorf("room id %q: missing '!' sigil", s)
	}
	rest := s[1:]
	idx := strings.Index(rest, ":")
	if idx <= 0 || idx == len(rest)-1 {
		return "", fmt.Errorf("room id %q: want '!localpart:server'", s)
	}
	return RoomID(s), nil
}

// ParseEventID validates the event id grammar.
func ParseEventID(s string) (EventID, error) {
	if !strings.HasPrefix(s, "$") || len(s) < 2 {
		return "", fmt.Errorf("event id %q: want '$opaque'", s)
	}
	return EventID(s), nil
}

// ThreadPolicy controls how a reply relates to an existing thread.
type ThreadPolicy int

const (
	// ThreadMaybe sends a threaded reply only if the target event already
	// participates in a thread; otherwise a flat reply.
	ThreadMaybe ThreadPolicy = iota
	// ThreadNever always sends a flat reply.
	ThreadNever
)

// SendRequest is one outgoing plain-text message.
type SendRequest struct {
	Room      RoomID
	Text      string
	InReplyTo EventID // empty = not a reply
	Threading ThreadPolicy
}

// Sink accepts send requests fire-and-forget. Implementations own
// delivery, retry, and backoff; callers never learn the outcome.
type Sink interface {
	Submit(req SendRequest)
}
