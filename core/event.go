package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind discriminates the three inbound event shapes the router
// understands.
type EventKind string

const (
	// EventAction is a button press carrying an explicit action token.
	EventAction EventKind = "action"
	// EventText is a free-text message.
	EventText EventKind = "text"
	// EventFile is a document upload carrying an opaque file reference.
	EventFile EventKind = "file"
)

// InboundEvent is one unit of work for the dispatch router. Exactly one of
// Token, Text or FileRef is meaningful depending on Kind.
type InboundEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      EventKind `json:"kind"`
	Token     Action    `json:"token,omitempty"`
	Text      string    `json:"text,omitempty"`
	FileRef   string    `json:"file_ref,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewActionEvent builds a button-press event.
func NewActionEvent(userID string, token Action) InboundEvent {
	return InboundEvent{
		ID:        NewID(),
		UserID:    userID,
		Kind:      EventAction,
		Token:     token,
		Timestamp: time.Now().UTC(),
	}
}

// NewTextEvent builds a free-text event.
func NewTextEvent(userID, text string) InboundEvent {
	return InboundEvent{
		ID:        NewID(),
		UserID:    userID,
		Kind:      EventText,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}

// NewFileEvent builds a file-upload event.
func NewFileEvent(userID, fileRef string) InboundEvent {
	return InboundEvent{
		ID:        NewID(),
		UserID:    userID,
		Kind:      EventFile,
		FileRef:   fileRef,
		Timestamp: time.Now().UTC(),
	}
}

// Reply is one outbound message produced while handling an event. The
// engine hands replies to the Messenger collaborator fire-and-forget.
type Reply struct {
	Text string `json:"text"`
}

// NewID generates a unique identifier for events.
func NewID() string { return uuid.NewString() }
