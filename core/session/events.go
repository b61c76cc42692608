package session

import (
	"github.com/google/uuid"

	"github.com/dmitrymomot/repocore/core/event"
)

// EventType is a session lifecycle transition.
type EventType int

const (
	// Created fires when a session is registered.
	Created EventType = iota + 1
	// Activated fires when the number of threads holding a session goes from 0 to 1.
	Activated
	// Passivated fires when the number of threads holding a session drops to 0.
	Passivated
	// Destroyed fires when a session is closed.
	Destroyed
)

func (t EventType) String() string {
	switch t {
	case Created:
		return "created"
	case Activated:
		return "activated"
	case Passivated:
		return "passivated"
	case Destroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Event is delivered to listeners on every lifecycle transition.
type Event struct {
	Type                EventType
	Session             *Session
	SessionID           uuid.UUID
	ConcurrentAccessors int
}

// Listener receives session lifecycle events.
type Listener = event.Handler[Event]

// ListenerFunc adapts a function to a Listener.
type ListenerFunc = event.HandlerFunc[Event]
