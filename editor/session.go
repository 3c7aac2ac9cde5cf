package editor

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Session is the capability struct exposed at the UI boundary. It owns one
// document, one state machine, one streamer, and one reconciler; nothing
// else touches them. One AI generation may be in flight per session,
// enforced by the machine guard; a second trigger while loading is rejected,
// not queued.
type Session struct {
	// ID identifies the session in logs and the session store.
	ID string

	doc      Document
	machine  *Machine
	streamer *Streamer
	toolbar  *Reconciler

	mu           sync.Mutex
	streamCancel context.CancelFunc
	closed       bool
}

// SessionConfig configures a new session. A nil Document gets a fresh
// MemoryDocument.
type SessionConfig struct {
	Document Document
	Stream   StreamConfig
	FontSize string
}

// NewSession creates a session with a fresh state machine and a uuid
// identity. Document changes recompute the toolbar state synchronously.
func NewSession(cfg SessionConfig) *Session {
	doc := cfg.Document
	if doc == nil {
		doc = NewMemoryDocument()
	}

	s := &Session{
		ID:       uuid.New().String(),
		doc:      doc,
		machine:  NewMachine(),
		streamer: NewStreamer(doc, cfg.Stream),
		toolbar:  NewReconciler(doc, cfg.FontSize),
	}

	doc.OnChange(func() {
		s.toolbar.Reconcile()
	})

	return s
}

// Document returns the session's document.
func (s *Session) Document() Document {
	return s.doc
}

// Machine returns the session's state machine.
func (s *Session) Machine() *Machine {
	return s.machine
}

// GetContent returns the document text.
func (s *Session) GetContent() string {
	return s.doc.Text()
}

// SetContent replaces the document text and dispatches CONTENT_UPDATED.
func (s *Session) SetContent(text string) {
	s.doc.SetText(text)
	s.machine.Dispatch(Event{Type: EventContentUpdated, Text: text})
}

// AppendContent inserts text at the document end without animation and
// dispatches CONTENT_UPDATED with the resulting text.
func (s *Session) AppendContent(text string) error {
	if err := s.doc.InsertAt(s.doc.Length(), text); err != nil {
		return err
	}
	s.machine.Dispatch(Event{Type: EventContentUpdated, Text: s.doc.Text()})
	return nil
}

// StreamContent reveals text into the document through the typewriter
// animator. Blocks until the stream completes or is cancelled; Close aborts
// an in-progress stream.
func (s *Session) StreamContent(ctx context.Context, text string, onComplete func()) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	streamCtx, cancel := context.WithCancel(ctx)
	s.streamCancel = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.streamCancel = nil
		s.mu.Unlock()
	}()

	return s.streamer.Stream(streamCtx, text, onComplete)
}

// Focus moves the cursor to the document end.
func (s *Session) Focus() {
	end := s.doc.Length()
	s.doc.SetSelection(Selection{From: end, To: end})
}

// Toolbar recomputes and returns the toolbar state for the current
// selection.
func (s *Session) Toolbar() (ToolbarState, bool) {
	return s.toolbar.Reconcile()
}

// Close cancels any in-progress stream and tears down the document view.
// Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.streamCancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if md, ok := s.doc.(*MemoryDocument); ok {
		md.Close()
	}
}
