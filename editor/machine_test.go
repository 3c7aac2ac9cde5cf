package editor

import "testing"

func TestMachineContinueWritingGuard(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantAccept bool
	}{
		{name: "empty content", content: "", wantAccept: false},
		{name: "whitespace only", content: "   \n\t", wantAccept: false},
		{name: "real content", content: "Once upon a time", wantAccept: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine()
			m.Dispatch(Event{Type: EventContentUpdated, Text: tt.content})

			accepted := m.Dispatch(Event{Type: EventContinueWriting})
			if accepted != tt.wantAccept {
				t.Errorf("Dispatch(CONTINUE_WRITING) = %v, want %v", accepted, tt.wantAccept)
			}

			ctx := m.Snapshot()
			if ctx.IsLoading != tt.wantAccept {
				t.Errorf("IsLoading = %v, want %v", ctx.IsLoading, tt.wantAccept)
			}
			if ctx.Content != tt.content {
				t.Errorf("Content = %q, want unchanged %q", ctx.Content, tt.content)
			}
		})
	}
}

func TestMachineContinueWritingWhileLoadingIsNoOp(t *testing.T) {
	m := NewMachine()
	m.Dispatch(Event{Type: EventContentUpdated, Text: "text"})
	m.Dispatch(Event{Type: EventContinueWriting})

	if m.Dispatch(Event{Type: EventContinueWriting}) {
		t.Error("second CONTINUE_WRITING accepted while loading, want rejection")
	}
	if !m.IsLoading() {
		t.Error("IsLoading = false, want true (state unchanged)")
	}
}

func TestMachineContinueWritingClearsError(t *testing.T) {
	m := NewMachine()
	m.Dispatch(Event{Type: EventContentUpdated, Text: "text"})
	m.Dispatch(Event{Type: EventContinueWriting})
	m.Dispatch(Event{Type: EventError, Text: "it broke"})

	if got := m.Snapshot().Error; got != "it broke" {
		t.Fatalf("Error = %q, want %q", got, "it broke")
	}

	m.Dispatch(Event{Type: EventContinueWriting})
	if got := m.Snapshot().Error; got != "" {
		t.Errorf("Error = %q after new loading cycle, want cleared", got)
	}
}

func TestMachineContentUpdatedAcceptedInBothStates(t *testing.T) {
	m := NewMachine()

	if !m.Dispatch(Event{Type: EventContentUpdated, Text: "first"}) {
		t.Error("CONTENT_UPDATED rejected in idle")
	}
	m.Dispatch(Event{Type: EventContinueWriting})

	// Typing mid-generation is never blocked.
	if !m.Dispatch(Event{Type: EventContentUpdated, Text: "second"}) {
		t.Error("CONTENT_UPDATED rejected while loading")
	}
	ctx := m.Snapshot()
	if ctx.Content != "second" {
		t.Errorf("Content = %q, want %q", ctx.Content, "second")
	}
	if !ctx.IsLoading {
		t.Error("IsLoading = false, want true (CONTENT_UPDATED keeps state)")
	}
}

func TestMachineAIResponseAppendsWithSpace(t *testing.T) {
	m := NewMachine()
	m.Dispatch(Event{Type: EventContentUpdated, Text: "The story begins."})
	m.Dispatch(Event{Type: EventContinueWriting})

	if !m.Dispatch(Event{Type: EventAIResponse, Text: "It continues."}) {
		t.Fatal("AI_RESPONSE rejected while loading")
	}

	ctx := m.Snapshot()
	if want := "The story begins. It continues."; ctx.Content != want {
		t.Errorf("Content = %q, want %q", ctx.Content, want)
	}
	if ctx.IsLoading {
		t.Error("IsLoading = true after AI_RESPONSE, want false")
	}
}

func TestMachineAIResponseRejectedInIdle(t *testing.T) {
	m := NewMachine()
	m.Dispatch(Event{Type: EventContentUpdated, Text: "text"})

	if m.Dispatch(Event{Type: EventAIResponse, Text: "stray"}) {
		t.Error("AI_RESPONSE accepted in idle, want rejection")
	}
	if got := m.Snapshot().Content; got != "text" {
		t.Errorf("Content = %q, want unchanged %q", got, "text")
	}
}

func TestMachineErrorTransition(t *testing.T) {
	m := NewMachine()
	m.Dispatch(Event{Type: EventContentUpdated, Text: "text"})
	m.Dispatch(Event{Type: EventContinueWriting})

	if !m.Dispatch(Event{Type: EventError, Text: "Gemini is overloaded. Try again in a few seconds"}) {
		t.Fatal("ERROR rejected while loading")
	}

	ctx := m.Snapshot()
	if ctx.IsLoading {
		t.Error("IsLoading = true after ERROR, want false")
	}
	if ctx.Error == "" {
		t.Error("Error empty after ERROR event")
	}
	if ctx.Content != "text" {
		t.Errorf("Content = %q, want unchanged %q", ctx.Content, "text")
	}
}

func TestMachineResetFromAnyState(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *Machine)
	}{
		{
			name:  "from idle with content",
			setup: func(m *Machine) { m.Dispatch(Event{Type: EventContentUpdated, Text: "text"}) },
		},
		{
			name: "from loading",
			setup: func(m *Machine) {
				m.Dispatch(Event{Type: EventContentUpdated, Text: "text"})
				m.Dispatch(Event{Type: EventContinueWriting})
			},
		},
		{
			name: "with error",
			setup: func(m *Machine) {
				m.Dispatch(Event{Type: EventContentUpdated, Text: "text"})
				m.Dispatch(Event{Type: EventContinueWriting})
				m.Dispatch(Event{Type: EventError, Text: "boom"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine()
			tt.setup(m)

			if !m.Dispatch(Event{Type: EventReset}) {
				t.Fatal("RESET rejected")
			}

			got := m.Snapshot()
			if got != (Context{}) {
				t.Errorf("Snapshot() = %+v, want zero context", got)
			}
		})
	}
}

func TestMachineListenersObserveAppliedTransitionsOnly(t *testing.T) {
	m := NewMachine()

	var seen []Context
	m.Subscribe(func(ctx Context) { seen = append(seen, ctx) })

	m.Dispatch(Event{Type: EventContentUpdated, Text: "hello"})
	m.Dispatch(Event{Type: EventContinueWriting})
	// Rejected: already loading. Listeners must not fire.
	m.Dispatch(Event{Type: EventContinueWriting})
	m.Dispatch(Event{Type: EventAIResponse, Text: "world"})

	if len(seen) != 3 {
		t.Fatalf("listener fired %d times, want 3 (rejected events notify nobody)", len(seen))
	}
	if !seen[1].IsLoading {
		t.Error("second notification IsLoading = false, want true")
	}
	if want := "hello world"; seen[2].Content != want {
		t.Errorf("final notification Content = %q, want %q", seen[2].Content, want)
	}
}
