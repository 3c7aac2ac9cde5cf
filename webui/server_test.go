package webui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"inkwell/core"
	"inkwell/editor"
	"inkwell/llm"
)

// fakeContinuer is a scripted Continuer for handler tests.
type fakeContinuer struct {
	mu    sync.Mutex
	resp  *llm.ContinuationResponse
	err   error
	calls int
}

func (f *fakeContinuer) ContinueWriting(ctx context.Context, req llm.ContinuationRequest) (*llm.ContinuationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeContinuer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestServer(continuer Continuer) *Server {
	if continuer == nil {
		continuer = &fakeContinuer{resp: &llm.ContinuationResponse{Continuation: "generated", Model: "test-model"}}
	}
	return NewServer(ServerConfig{
		Stream: editor.StreamConfig{
			Sleep: func(ctx context.Context, d time.Duration) error { return ctx.Err() },
		},
	}, continuer, nil)
}

// waitIdle polls the machine until the loading flag drops.
func waitIdle(t *testing.T, s *Server) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !s.Session().Machine().IsLoading() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("machine still loading after deadline")
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(nil)
	rec := doRequest(s, http.MethodGet, "/health", "")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %q, want ok status", rec.Body.String())
	}
}

func TestHandleEditorReturnsContext(t *testing.T) {
	s := newTestServer(nil)
	s.Session().SetContent("draft")

	rec := doRequest(s, http.MethodGet, "/api/editor", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var ctx editor.Context
	if err := json.Unmarshal(rec.Body.Bytes(), &ctx); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ctx.Content != "draft" {
		t.Errorf("content = %q, want %q", ctx.Content, "draft")
	}
	if ctx.IsLoading {
		t.Error("isLoading = true, want false")
	}
}

func TestHandleContentUpdates(t *testing.T) {
	s := newTestServer(nil)

	rec := doRequest(s, http.MethodPost, "/api/editor/content", `{"content":"new text"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if got := s.Session().GetContent(); got != "new text" {
		t.Errorf("document = %q, want %q", got, "new text")
	}
	if got := s.Session().Machine().Snapshot().Content; got != "new text" {
		t.Errorf("machine content = %q, want %q", got, "new text")
	}
}

func TestHandleContentRejectsBadBody(t *testing.T) {
	s := newTestServer(nil)
	rec := doRequest(s, http.MethodPost, "/api/editor/content", "{not json")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleContinueEmptyContent(t *testing.T) {
	continuer := &fakeContinuer{}
	s := newTestServer(continuer)

	rec := doRequest(s, http.MethodPost, "/api/editor/continue", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for empty content", rec.Code)
	}
	if continuer.callCount() != 0 {
		t.Errorf("continuer called %d times, want 0", continuer.callCount())
	}
}

func TestHandleContinueSuccess(t *testing.T) {
	continuer := &fakeContinuer{resp: &llm.ContinuationResponse{Continuation: "and so it went.", Model: "test-model"}}
	s := newTestServer(continuer)
	s.Session().SetContent("The day began.")

	rec := doRequest(s, http.MethodPost, "/api/editor/continue", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	waitIdle(t, s)

	snap := s.Session().Machine().Snapshot()
	if want := "The day began. and so it went."; snap.Content != want {
		t.Errorf("machine content = %q, want %q", snap.Content, want)
	}
	if snap.Error != "" {
		t.Errorf("error = %q, want empty", snap.Error)
	}
	if got := s.Session().GetContent(); got != "The day began. and so it went." {
		t.Errorf("document = %q, want streamed continuation", got)
	}
	if continuer.callCount() != 1 {
		t.Errorf("continuer called %d times, want 1", continuer.callCount())
	}
}

func TestHandleContinueConflictWhileLoading(t *testing.T) {
	s := newTestServer(nil)
	s.Session().SetContent("text")
	// Force loading without running a continuation.
	s.Session().Machine().Dispatch(editor.Event{Type: editor.EventContinueWriting})

	rec := doRequest(s, http.MethodPost, "/api/editor/continue", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409 while loading", rec.Code)
	}
}

func TestHandleContinueFailureStoresError(t *testing.T) {
	continuer := &fakeContinuer{err: core.NewContinuationError(core.KindQuota, "Gemini quota exceeded or rate limited", nil)}
	s := newTestServer(continuer)
	s.Session().SetContent("text")

	rec := doRequest(s, http.MethodPost, "/api/editor/continue", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	waitIdle(t, s)

	snap := s.Session().Machine().Snapshot()
	if snap.Error == "" {
		t.Error("machine error empty after failed continuation")
	}
	if snap.Content != "text" {
		t.Errorf("content = %q, want unchanged %q", snap.Content, "text")
	}
}

func TestHandleReset(t *testing.T) {
	s := newTestServer(nil)
	s.Session().SetContent("something")

	rec := doRequest(s, http.MethodPost, "/api/editor/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if got := s.Session().Machine().Snapshot(); got != (editor.Context{}) {
		t.Errorf("machine context = %+v, want zero", got)
	}
	if got := s.Session().GetContent(); got != "" {
		t.Errorf("document = %q, want empty", got)
	}
}

func TestHandleToolbar(t *testing.T) {
	s := newTestServer(nil)
	s.Session().SetContent("hello")
	doc := s.Session().Document().(*editor.MemoryDocument)
	doc.ApplyMarks(0, 5, editor.Mark{Type: editor.MarkBold})
	doc.SetSelection(editor.Selection{From: 0, To: 5})

	rec := doRequest(s, http.MethodGet, "/api/editor/toolbar", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var state editor.ToolbarState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !state.Bold {
		t.Error("Bold = false for fully bold selection, want true")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(nil)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/editor"},
		{http.MethodGet, "/api/editor/content"},
		{http.MethodGet, "/api/editor/continue"},
		{http.MethodGet, "/api/editor/reset"},
		{http.MethodPost, "/api/editor/toolbar"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := doRequest(s, tt.method, tt.path, "")
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want 405", rec.Code)
			}
		})
	}
}

func TestHandleRootServesEditorPage(t *testing.T) {
	s := newTestServer(nil)

	rec := doRequest(s, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), "Inkwell") {
		t.Error("editor page body missing application markup")
	}

	rec = doRequest(s, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d for unknown path, want 404", rec.Code)
	}
}
