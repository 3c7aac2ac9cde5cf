// Package webui provides the HTTP and WebSocket surface the browser editor
// consumes. This file contains the Server wiring all web components together.
package webui

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"inkwell/core"
	"inkwell/editor"
	"inkwell/llm"
	"inkwell/logging"
)

//go:embed static/index.html
var indexHTML []byte

// Continuer produces AI continuations. Implemented by llm.Client; tests
// substitute a scripted fake.
type Continuer interface {
	ContinueWriting(ctx context.Context, req llm.ContinuationRequest) (*llm.ContinuationResponse, error)
}

// ServerConfig configures the Server.
type ServerConfig struct {
	// Host to bind to (default: "localhost")
	Host string

	// Port to listen on (default: 3000)
	Port int

	// ReadTimeout for HTTP requests (default: 30s)
	ReadTimeout time.Duration

	// WriteTimeout for HTTP responses (default: 30s)
	WriteTimeout time.Duration

	// IdleTimeout for keep-alive connections (default: 120s)
	IdleTimeout time.Duration

	// ShutdownTimeout for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration

	// AITimeout bounds one continuation cycle end to end (default: 60s)
	AITimeout time.Duration

	// Stream configures the typewriter animator for the editor session.
	Stream editor.StreamConfig

	// LogSkipPaths are paths excluded from request logging.
	LogSkipPaths []string
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "localhost",
		Port:            3000,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		AITimeout:       60 * time.Second,
		LogSkipPaths:    []string{"/health"},
	}
}

// Server is the HTTP server for the editor. It wires together:
//   - LoggingMiddleware for request logging with correlation IDs
//   - SessionStore owning the editor sessions
//   - WebSocketBroadcaster pushing editor events to the browser
//   - a Continuer producing AI continuations
//
// The server owns one primary editor session; every state transition of its
// machine is broadcast as a state_update message.
type Server struct {
	httpServer  *http.Server
	mux         *http.ServeMux
	config      ServerConfig
	logger      *logging.Logger
	loggingMw   *LoggingMiddleware
	broadcaster *WebSocketBroadcaster
	store       *SessionStore
	session     *editor.Session
	continuer   Continuer

	// streamMu guards the ID of the stream currently feeding OnChar and
	// OnCursor callbacks.
	streamMu sync.Mutex
	streamID string
}

// NewServer creates a Server with the given configuration and continuation
// client.
func NewServer(config ServerConfig, continuer Continuer, logger *logging.Logger) *Server {
	defaults := DefaultServerConfig()
	if config.Host == "" {
		config.Host = defaults.Host
	}
	if config.Port == 0 {
		config.Port = defaults.Port
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.IdleTimeout == 0 {
		config.IdleTimeout = defaults.IdleTimeout
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if config.AITimeout == 0 {
		config.AITimeout = defaults.AITimeout
	}
	if config.LogSkipPaths == nil {
		config.LogSkipPaths = defaults.LogSkipPaths
	}

	s := &Server{
		mux:         http.NewServeMux(),
		config:      config,
		logger:      logger,
		continuer:   continuer,
		broadcaster: NewWebSocketBroadcaster(BroadcasterConfig{Logger: logger}),
		loggingMw: NewLoggingMiddleware(LoggingMiddlewareConfig{
			Logger:    logger,
			SkipPaths: config.LogSkipPaths,
		}),
	}

	// The stream callbacks relay each revealed character and cursor
	// position to the browser.
	stream := config.Stream
	stream.OnChar = func(ch string) {
		s.broadcaster.BroadcastMessage(NewStreamCharMessage(s.currentStreamID(), ch))
	}
	stream.OnCursor = func(pos editor.CursorPos) {
		s.broadcaster.BroadcastMessage(NewCursorUpdateMessage(s.currentStreamID(), pos))
	}

	s.store = NewSessionStore(func() *editor.Session {
		return editor.NewSession(editor.SessionConfig{Stream: stream})
	})
	s.session = s.store.Create()

	s.session.Machine().Subscribe(func(ctx editor.Context) {
		s.broadcaster.BroadcastMessage(NewStateUpdateMessage(ctx))
	})

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.loggingMw.Handler(s.mux),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/editor", s.handleEditor)
	s.mux.HandleFunc("/api/editor/content", s.handleContent)
	s.mux.HandleFunc("/api/editor/continue", s.handleContinue)
	s.mux.HandleFunc("/api/editor/reset", s.handleReset)
	s.mux.HandleFunc("/api/editor/toolbar", s.handleToolbar)
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/", s.handleRoot)
}

// Start begins listening for HTTP requests and starts the WebSocket
// broadcaster. Blocks until the server is shut down.
func (s *Server) Start(ctx context.Context) error {
	go s.broadcaster.Start(ctx)

	if s.logger != nil {
		s.logger.Infow("editor server starting", "addr", s.httpServer.Addr)
	}

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, closing all editor sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.store.CloseAll()
	s.broadcaster.Close()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown error: %w", err)
	}
	if s.logger != nil {
		s.logger.Infow("editor server stopped")
	}
	return nil
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Broadcaster returns the WebSocket broadcaster.
func (s *Server) Broadcaster() *WebSocketBroadcaster {
	return s.broadcaster
}

// Session returns the primary editor session.
func (s *Server) Session() *editor.Session {
	return s.session
}

// Handler returns the full middleware-wrapped handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleEditor returns the current editor context.
func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.session.Machine().Snapshot())
}

// contentRequest is the body of POST /api/editor/content.
type contentRequest struct {
	Content string `json:"content"`
}

// handleContent applies a content update. Always accepted, in both states.
func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req contentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.session.SetContent(req.Content)
	writeJSON(w, http.StatusOK, s.session.Machine().Snapshot())
}

// handleContinue triggers an AI continuation. Rejected with 409 while a
// generation is already in flight and 400 when the content is empty; on
// acceptance the continuation runs asynchronously and its progress is
// streamed over WebSocket.
func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	machine := s.session.Machine()
	if machine.IsLoading() {
		writeError(w, http.StatusConflict, "a continuation is already in progress")
		return
	}

	content := machine.Snapshot().Content
	if !machine.Dispatch(editor.Event{Type: editor.EventContinueWriting}) {
		writeError(w, http.StatusBadRequest, "cannot continue writing from empty text")
		return
	}

	go s.runContinuation(content)

	writeJSON(w, http.StatusAccepted, machine.Snapshot())
}

// runContinuation executes one continuation cycle: the AI call, the
// typewriter stream into the document, and the closing machine transition.
func (s *Server) runContinuation(content string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.AITimeout)
	defer cancel()

	resp, err := s.continuer.ContinueWriting(ctx, llm.ContinuationRequest{Text: content})
	if err != nil {
		kind := string(core.KindOf(err))
		retryable := core.IsRetryable(err)
		if s.logger != nil {
			s.logger.Warnw("continuation failed", "kind", kind, "error", err.Error())
		}
		s.session.Machine().Dispatch(editor.Event{Type: editor.EventError, Text: err.Error()})
		s.broadcaster.BroadcastMessage(NewErrorMessage(kind, err.Error(), retryable))
		return
	}

	streamID := uuid.New().String()
	s.setStreamID(streamID)

	streamed := false
	streamErr := s.session.StreamContent(ctx, resp.Continuation, func() { streamed = true })
	s.setStreamID("")

	if streamErr != nil || !streamed {
		// The stream was cut short by shutdown or teardown. The machine
		// still has to leave loading.
		s.session.Machine().Dispatch(editor.Event{Type: editor.EventError, Text: "continuation interrupted"})
		return
	}

	s.session.Machine().Dispatch(editor.Event{Type: editor.EventAIResponse, Text: resp.Continuation})
	s.broadcaster.BroadcastMessage(NewStreamDoneMessage(streamID, resp.Model))

	if s.logger != nil {
		s.logger.Infow("continuation streamed",
			"model", resp.Model,
			"chars", len(resp.Continuation),
		)
	}
}

// handleReset clears the editor back to its initial state.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.session.Document().SetText("")
	s.session.Machine().Dispatch(editor.Event{Type: editor.EventReset})
	writeJSON(w, http.StatusOK, s.session.Machine().Snapshot())
}

// handleToolbar returns the toolbar formatting state for the current
// selection, broadcasting a toolbar_update when it changed.
func (s *Server) handleToolbar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	state, changed := s.session.Toolbar()
	if changed {
		s.broadcaster.BroadcastMessage(NewToolbarUpdateMessage(state))
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.broadcaster.HandleConnection(w, r, func() InitialData {
		toolbar, _ := s.session.Toolbar()
		return InitialData{
			State:   s.session.Machine().Snapshot(),
			Toolbar: toolbar,
		}
	})
}

func (s *Server) setStreamID(id string) {
	s.streamMu.Lock()
	s.streamID = id
	s.streamMu.Unlock()
}

func (s *Server) currentStreamID() string {
	s.streamMu.Lock()
	defer s.streamMu.Unlock()
	return s.streamID
}

// errorResponse is the JSON error body for API endpoints.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
