package editor

import (
	"context"
	"strings"
	"testing"
	"time"
)

// instantSleep records requested delays without waiting.
type instantSleep struct {
	delays []time.Duration
}

func (s *instantSleep) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.delays = append(s.delays, d)
	return nil
}

func newTestStreamer(doc Document) (*Streamer, *instantSleep) {
	rec := &instantSleep{}
	return NewStreamer(doc, StreamConfig{Sleep: rec.sleep}), rec
}

func TestStreamIntoEmptyDocument(t *testing.T) {
	doc := NewMemoryDocument()
	s, _ := newTestStreamer(doc)

	completed := false
	if err := s.Stream(context.Background(), "Hello", func() { completed = true }); err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	if got := doc.Text(); got != "Hello" {
		t.Errorf("Text() = %q, want %q (no injected space on empty document)", got, "Hello")
	}
	if !completed {
		t.Error("onComplete not invoked on natural completion")
	}
}

func TestStreamWordBoundary(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		text    string
		want    string
	}{
		{name: "space inserted after word", initial: "Hi", text: "world", want: "Hi world"},
		{name: "space not doubled", initial: "Hi", text: " world", want: "Hi world"},
		{name: "no space after trailing space", initial: "Hi ", text: "world", want: "Hi world"},
		{name: "no space after newline", initial: "Hi\n", text: "world", want: "Hi\nworld"},
		{name: "leading newlines skip the space", initial: "Hi", text: "\n\nNew paragraph", want: "Hi\n\nNew paragraph"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewMemoryDocument()
			doc.SetText(tt.initial)
			s, _ := newTestStreamer(doc)

			if err := s.Stream(context.Background(), tt.text, nil); err != nil {
				t.Fatalf("Stream() error = %v", err)
			}
			if got := doc.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStreamDelaysByCharacterClass(t *testing.T) {
	doc := NewMemoryDocument()
	doc.SetText("x")
	s, rec := newTestStreamer(doc)

	// Boundary space + "a." gives one delay per revealed character.
	if err := s.Stream(context.Background(), "a.", nil); err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	want := []time.Duration{DelayWhitespace, DelayLetter, DelayPunctuation}
	if len(rec.delays) != len(want) {
		t.Fatalf("recorded %d delays, want %d: %v", len(rec.delays), len(want), rec.delays)
	}
	for i := range want {
		if rec.delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, rec.delays[i], want[i])
		}
	}
}

func TestStreamLeadingNewlinesInsertedAsOneOperation(t *testing.T) {
	doc := NewMemoryDocument()
	doc.SetText("end.")

	mutations := 0
	doc.OnChange(func() { mutations++ })

	s, rec := newTestStreamer(doc)
	if err := s.Stream(context.Background(), "\n\nab", nil); err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	if got := doc.Text(); got != "end.\n\nab" {
		t.Errorf("Text() = %q, want %q", got, "end.\n\nab")
	}
	// One insert for both newlines, then one per character.
	if mutations != 3 {
		t.Errorf("mutations = %d, want 3", mutations)
	}
	if rec.delays[0] != DelayNewlines {
		t.Errorf("first delay = %v, want newline pause %v", rec.delays[0], DelayNewlines)
	}
}

func TestStreamStopsWhenDocumentCloses(t *testing.T) {
	doc := NewMemoryDocument()
	s := NewStreamer(doc, StreamConfig{
		Sleep: func(ctx context.Context, d time.Duration) error { return nil },
		OnChar: func(ch string) {
			if ch == "c" {
				doc.Close()
			}
		},
	})

	completed := false
	if err := s.Stream(context.Background(), "abcdef", func() { completed = true }); err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	if completed {
		t.Error("onComplete invoked after document closed mid-stream")
	}
	if got := doc.Text(); got != "abc" {
		t.Errorf("Text() = %q, want %q (stopped at close)", got, "abc")
	}
}

func TestStreamStopsOnContextCancel(t *testing.T) {
	doc := NewMemoryDocument()
	ctx, cancel := context.WithCancel(context.Background())

	s := NewStreamer(doc, StreamConfig{
		Sleep: func(ctx context.Context, d time.Duration) error { return ctx.Err() },
		OnChar: func(ch string) {
			if ch == "b" {
				cancel()
			}
		},
	})

	completed := false
	err := s.Stream(ctx, "abcdef", func() { completed = true })

	if err != context.Canceled {
		t.Errorf("Stream() error = %v, want context.Canceled", err)
	}
	if completed {
		t.Error("onComplete invoked after cancellation")
	}
	if got := doc.Text(); len(got) >= 6 {
		t.Errorf("Text() = %q, want stream stopped before completion", got)
	}
}

func TestStreamCursorIndicatorClamped(t *testing.T) {
	// Enough existing text that the cursor sits past the 5% clamp floor.
	doc := NewMemoryDocument()
	doc.SetText(strings.Repeat("x", 59) + " ")
	var positions []CursorPos

	rec := &instantSleep{}
	s := NewStreamer(doc, StreamConfig{
		Sleep:    rec.sleep,
		OnCursor: func(pos CursorPos) { positions = append(positions, pos) },
	})

	if err := s.Stream(context.Background(), "ab", nil); err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	if len(positions) != 2 {
		t.Fatalf("got %d cursor updates, want 2", len(positions))
	}
	for i, p := range positions {
		if p.XPercent < 5 || p.XPercent > 95 || p.YPercent < 5 || p.YPercent > 95 {
			t.Errorf("position[%d] = %+v, want both axes within [5, 95]", i, p)
		}
	}
	// The second character sits further right than the first.
	if positions[1].XPercent <= positions[0].XPercent {
		t.Errorf("XPercent did not advance: %v then %v", positions[0].XPercent, positions[1].XPercent)
	}
}

func TestStreamIsNotIdempotent(t *testing.T) {
	doc := NewMemoryDocument()
	s, _ := newTestStreamer(doc)

	for i := 0; i < 2; i++ {
		if err := s.Stream(context.Background(), "ha", nil); err != nil {
			t.Fatalf("Stream() error = %v", err)
		}
	}

	if got := doc.Text(); got != "ha ha" {
		t.Errorf("Text() = %q, want %q (second stream appends again)", got, "ha ha")
	}
}
