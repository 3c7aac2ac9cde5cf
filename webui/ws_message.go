// Package webui provides the HTTP and WebSocket surface the browser editor
// consumes. This file contains WebSocket message types and constants.
package webui

import (
	"encoding/json"
	"time"

	"inkwell/editor"
)

// Message type constants for WebSocket communication.
// These define the types of real-time updates sent to connected clients.
const (
	// MessageTypeStateUpdate indicates the editor context changed
	// (content, loading flag, or error).
	MessageTypeStateUpdate = "state_update"

	// MessageTypeStreamChar carries one character revealed by the
	// typewriter animator.
	MessageTypeStreamChar = "stream_char"

	// MessageTypeStreamDone indicates a streaming session completed.
	MessageTypeStreamDone = "stream_done"

	// MessageTypeCursorUpdate carries the cursor indicator position during
	// streaming.
	MessageTypeCursorUpdate = "cursor_update"

	// MessageTypeToolbarUpdate indicates the toolbar formatting state
	// changed.
	MessageTypeToolbarUpdate = "toolbar_update"

	// MessageTypeError indicates a server-side error message.
	MessageTypeError = "error"

	// MessageTypePing is a keep-alive message from the server.
	MessageTypePing = "ping"

	// MessageTypeInitial contains the initial state snapshot on connection.
	MessageTypeInitial = "initial"
)

// WSMessage is the base structure for all WebSocket messages. It uses a
// common envelope format with type-specific data in the Data field.
type WSMessage struct {
	// Type identifies the message kind (use MessageType* constants)
	Type string `json:"type"`

	// Timestamp is when the message was created
	Timestamp time.Time `json:"timestamp"`

	// Data contains the type-specific payload (decoded based on Type)
	Data interface{} `json:"data,omitempty"`
}

// NewWSMessage creates a new WebSocket message with the current timestamp.
func NewWSMessage(msgType string, data interface{}) WSMessage {
	return WSMessage{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// MarshalJSON serializes the message to JSON bytes.
func (m WSMessage) MarshalJSON() ([]byte, error) {
	type Alias WSMessage
	return json.Marshal(Alias(m))
}

// StreamCharData carries one revealed character.
type StreamCharData struct {
	// SessionID identifies the streaming session
	SessionID string `json:"session_id"`

	// Char is the revealed character
	Char string `json:"char"`
}

// StreamDoneData signals streaming completion.
type StreamDoneData struct {
	// SessionID identifies the completed streaming session
	SessionID string `json:"session_id"`

	// Model is the model that produced the streamed text
	Model string `json:"model,omitempty"`
}

// CursorUpdateData carries the indicator position, percentages of the
// editor bounds clamped to [5, 95].
type CursorUpdateData struct {
	SessionID string  `json:"session_id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// ErrorData contains error information sent to clients.
type ErrorData struct {
	// Kind is the error category from the continuation taxonomy
	Kind string `json:"kind"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Retryable indicates the UI should offer a retry action
	Retryable bool `json:"retryable"`
}

// InitialData contains the state snapshot sent on connection.
type InitialData struct {
	// State is the current editor context
	State editor.Context `json:"state"`

	// Toolbar is the current formatting state
	Toolbar editor.ToolbarState `json:"toolbar"`
}

// Helper functions for creating common messages

// NewStateUpdateMessage creates a state update message from an editor
// context snapshot.
func NewStateUpdateMessage(ctx editor.Context) WSMessage {
	return NewWSMessage(MessageTypeStateUpdate, ctx)
}

// NewStreamCharMessage creates a per-character reveal message.
func NewStreamCharMessage(sessionID, char string) WSMessage {
	return NewWSMessage(MessageTypeStreamChar, StreamCharData{SessionID: sessionID, Char: char})
}

// NewStreamDoneMessage creates a stream completion message.
func NewStreamDoneMessage(sessionID, model string) WSMessage {
	return NewWSMessage(MessageTypeStreamDone, StreamDoneData{SessionID: sessionID, Model: model})
}

// NewCursorUpdateMessage creates a cursor indicator message.
func NewCursorUpdateMessage(sessionID string, pos editor.CursorPos) WSMessage {
	return NewWSMessage(MessageTypeCursorUpdate, CursorUpdateData{
		SessionID: sessionID,
		X:         pos.XPercent,
		Y:         pos.YPercent,
	})
}

// NewToolbarUpdateMessage creates a toolbar state message.
func NewToolbarUpdateMessage(state editor.ToolbarState) WSMessage {
	return NewWSMessage(MessageTypeToolbarUpdate, state)
}

// NewErrorMessage creates an error message.
func NewErrorMessage(kind, message string, retryable bool) WSMessage {
	return NewWSMessage(MessageTypeError, ErrorData{Kind: kind, Message: message, Retryable: retryable})
}

// NewPingMessage creates a ping keep-alive message.
func NewPingMessage() WSMessage {
	return NewWSMessage(MessageTypePing, nil)
}

// NewInitialMessage creates the initial state snapshot message.
func NewInitialMessage(data InitialData) WSMessage {
	return NewWSMessage(MessageTypeInitial, data)
}
