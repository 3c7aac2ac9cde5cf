package editor

import (
	"strings"
	"sync"
)

// Context is the editor state owned exclusively by the machine. Error holds a
// display string only; classification happens in the llm package before the
// message reaches the machine.
type Context struct {
	Content   string `json:"content"`
	IsLoading bool   `json:"isLoading"`
	Error     string `json:"error,omitempty"`
}

// EventType names a state machine event.
type EventType string

const (
	// EventContinueWriting requests an AI continuation. Guarded: accepted
	// only in idle with non-empty trimmed content.
	EventContinueWriting EventType = "CONTINUE_WRITING"

	// EventContentUpdated replaces the content. Always accepted, in both
	// states; typing is never blocked, including mid-generation.
	EventContentUpdated EventType = "CONTENT_UPDATED"

	// EventAIResponse delivers a successful continuation. Accepted only
	// while loading.
	EventAIResponse EventType = "AI_RESPONSE"

	// EventError delivers a continuation failure. Accepted only while
	// loading.
	EventError EventType = "ERROR"

	// EventReset returns to the initial state from anywhere.
	EventReset EventType = "RESET"
)

// Event is a state machine input. Text carries the payload for
// CONTENT_UPDATED, AI_RESPONSE, and ERROR.
type Event struct {
	Type EventType
	Text string
}

// Listener observes applied transitions. Invoked synchronously, after the
// transition, with a snapshot of the new context.
type Listener func(Context)

// Machine is the two-state (idle/loading) editor state machine. Long-lived,
// one per editor session. Loading is true only between an accepted
// CONTINUE_WRITING and the matching AI_RESPONSE or ERROR, which is what
// limits each session to one generation in flight.
type Machine struct {
	mu        sync.Mutex
	ctx       Context
	listeners []Listener
}

// NewMachine creates a machine in the idle state with empty context.
func NewMachine() *Machine {
	return &Machine{}
}

// Snapshot returns a copy of the current context.
func (m *Machine) Snapshot() Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctx
}

// IsLoading reports whether a generation is in flight.
func (m *Machine) IsLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctx.IsLoading
}

// Subscribe registers a transition listener.
func (m *Machine) Subscribe(fn Listener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Dispatch applies an event and reports whether it was accepted. Rejected
// events (an unguarded CONTINUE_WRITING, a stray AI_RESPONSE in idle) leave
// the context untouched and notify nobody.
func (m *Machine) Dispatch(ev Event) bool {
	m.mu.Lock()

	applied := false
	switch ev.Type {
	case EventContinueWriting:
		if !m.ctx.IsLoading && strings.TrimSpace(m.ctx.Content) != "" {
			m.ctx.IsLoading = true
			m.ctx.Error = ""
			applied = true
		}

	case EventContentUpdated:
		m.ctx.Content = ev.Text
		applied = true

	case EventAIResponse:
		if m.ctx.IsLoading {
			m.ctx.Content = m.ctx.Content + " " + ev.Text
			m.ctx.IsLoading = false
			applied = true
		}

	case EventError:
		if m.ctx.IsLoading {
			m.ctx.Error = ev.Text
			m.ctx.IsLoading = false
			applied = true
		}

	case EventReset:
		m.ctx = Context{}
		applied = true
	}

	if !applied {
		m.mu.Unlock()
		return false
	}

	snapshot := m.ctx
	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
	return true
}
