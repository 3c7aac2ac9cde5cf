// Package webui provides the HTTP and WebSocket surface the browser editor
// consumes. This file contains the store managing editor sessions.
package webui

import (
	"errors"
	"sync"

	"inkwell/editor"
)

// ErrSessionNotFound is returned when a session ID is not in the store.
var ErrSessionNotFound = errors.New("editor session not found")

// SessionStore manages editor sessions with thread-safe operations. Each
// session owns its own document, state machine, and streamer; the store only
// tracks lifecycle.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*editor.Session
	factory  func() *editor.Session
}

// NewSessionStore creates a store producing sessions through factory. A nil
// factory produces plain sessions with default streaming timing.
func NewSessionStore(factory func() *editor.Session) *SessionStore {
	if factory == nil {
		factory = func() *editor.Session {
			return editor.NewSession(editor.SessionConfig{})
		}
	}
	return &SessionStore{
		sessions: make(map[string]*editor.Session),
		factory:  factory,
	}
}

// Create builds a new session and registers it.
func (s *SessionStore) Create() *editor.Session {
	session := s.factory()

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(id string) (*editor.Session, error) {
	s.mu.RLock()
	session, exists := s.sessions[id]
	s.mu.RUnlock()

	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Close closes a session and removes it from the store. Idempotent; closing
// an unknown ID does nothing.
func (s *SessionStore) Close(id string) {
	s.mu.Lock()
	session, exists := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if exists {
		session.Close()
	}
}

// CloseAll closes every session, used during shutdown.
func (s *SessionStore) CloseAll() {
	s.mu.Lock()
	sessions := make([]*editor.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.sessions = make(map[string]*editor.Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}

// Count returns the current number of sessions in the store.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
