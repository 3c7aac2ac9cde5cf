package webui

import (
	"encoding/json"
	"testing"
	"time"

	"inkwell/editor"
)

func TestWSMessageEnvelope(t *testing.T) {
	msg := NewStateUpdateMessage(editor.Context{Content: "hello", IsLoading: true})

	if msg.Type != MessageTypeStateUpdate {
		t.Errorf("Type = %q, want %q", msg.Type, MessageTypeStateUpdate)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp is zero")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		Type      string    `json:"type"`
		Timestamp time.Time `json:"timestamp"`
		Data      struct {
			Content   string `json:"content"`
			IsLoading bool   `json:"isLoading"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Type != "state_update" {
		t.Errorf("type = %q, want state_update", decoded.Type)
	}
	if decoded.Data.Content != "hello" || !decoded.Data.IsLoading {
		t.Errorf("data = %+v, want content hello, loading", decoded.Data)
	}
}

func TestWSMessageConstructors(t *testing.T) {
	tests := []struct {
		name string
		msg  WSMessage
		want string
	}{
		{name: "stream char", msg: NewStreamCharMessage("s1", "a"), want: MessageTypeStreamChar},
		{name: "stream done", msg: NewStreamDoneMessage("s1", "gemini-pro"), want: MessageTypeStreamDone},
		{name: "cursor", msg: NewCursorUpdateMessage("s1", editor.CursorPos{XPercent: 42, YPercent: 7}), want: MessageTypeCursorUpdate},
		{name: "toolbar", msg: NewToolbarUpdateMessage(editor.ToolbarState{Bold: true}), want: MessageTypeToolbarUpdate},
		{name: "error", msg: NewErrorMessage("quota", "rate limited", true), want: MessageTypeError},
		{name: "ping", msg: NewPingMessage(), want: MessageTypePing},
		{name: "initial", msg: NewInitialMessage(InitialData{}), want: MessageTypeInitial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.msg.Type != tt.want {
				t.Errorf("Type = %q, want %q", tt.msg.Type, tt.want)
			}
			if _, err := json.Marshal(tt.msg); err != nil {
				t.Errorf("marshal: %v", err)
			}
		})
	}
}

func TestErrorMessageCarriesRetryability(t *testing.T) {
	msg := NewErrorMessage("service_unavailable", "Gemini is overloaded", true)

	data, ok := msg.Data.(ErrorData)
	if !ok {
		t.Fatalf("Data type = %T, want ErrorData", msg.Data)
	}
	if !data.Retryable {
		t.Error("Retryable = false, want true")
	}
	if data.Kind != "service_unavailable" {
		t.Errorf("Kind = %q, want service_unavailable", data.Kind)
	}
}
