package editor

import (
	"context"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Sleeper waits for the given duration or until ctx is done. Injectable so
// streaming tests run instantly.
type Sleeper func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CursorPos is a cursor-indicator position as percentages of the editor
// bounds, clamped to [5, 95] on both axes.
type CursorPos struct {
	XPercent float64 `json:"x"`
	YPercent float64 `json:"y"`
}

// Per-character reveal delays by character class.
const (
	DelayWhitespace  = 15 * time.Millisecond
	DelayPunctuation = 60 * time.Millisecond
	DelayLetter      = 40 * time.Millisecond
	DelayDefault     = 30 * time.Millisecond
	DelayNewlines    = 30 * time.Millisecond
)

// streamPunctuation is the set of characters that get the long pause.
const streamPunctuation = ".,!?;:"

// StreamConfig configures a Streamer. Zero-value durations fall back to the
// defaults above.
type StreamConfig struct {
	WhitespaceDelay  time.Duration
	PunctuationDelay time.Duration
	LetterDelay      time.Duration
	DefaultDelay     time.Duration
	NewlinePause     time.Duration

	// Sleep replaces the real clock in tests. Nil means real sleeping.
	Sleep Sleeper

	// OnChar observes each revealed character, in order.
	OnChar func(ch string)

	// OnCursor observes the indicator position after each reveal.
	OnCursor func(pos CursorPos)
}

func (c *StreamConfig) fillDefaults() {
	if c.WhitespaceDelay == 0 {
		c.WhitespaceDelay = DelayWhitespace
	}
	if c.PunctuationDelay == 0 {
		c.PunctuationDelay = DelayPunctuation
	}
	if c.LetterDelay == 0 {
		c.LetterDelay = DelayLetter
	}
	if c.DefaultDelay == 0 {
		c.DefaultDelay = DelayDefault
	}
	if c.NewlinePause == 0 {
		c.NewlinePause = DelayNewlines
	}
	if c.Sleep == nil {
		c.Sleep = defaultSleep
	}
}

// Streamer reveals generated text into a live document one character at a
// time, the typewriter effect. A stream is a transient, non-restartable
// sequence of document mutations; streaming the same text twice appends
// twice.
type Streamer struct {
	doc Document
	cfg StreamConfig
}

// NewStreamer creates a streamer writing into doc.
func NewStreamer(doc Document, cfg StreamConfig) *Streamer {
	cfg.fillDefaults()
	return &Streamer{doc: doc, cfg: cfg}
}

// Stream reveals text at the end of the document, then invokes onComplete.
//
// Word-boundary rule: one space is inserted before the text only when the
// text has no leading newlines, the document's last character is
// non-whitespace, and the text does not itself start with whitespace. This
// keeps "Hi" + " world" at "Hi world", never "Hi  world".
//
// If the document closes or ctx is cancelled mid-stream, Stream stops
// without invoking onComplete. Cancellation returns ctx.Err(); a closed
// document stops silently with a nil error.
func (s *Streamer) Stream(ctx context.Context, text string, onComplete func()) error {
	newlines := 0
	for newlines < len(text) && text[newlines] == '\n' {
		newlines++
	}
	rest := text[newlines:]

	if newlines == 0 && s.needsBoundarySpace(rest) {
		rest = " " + rest
	}

	if newlines > 0 {
		if s.doc.Closed() {
			return nil
		}
		if err := s.doc.InsertAt(s.doc.Length(), strings.Repeat("\n", newlines)); err != nil {
			return nil
		}
		if err := s.cfg.Sleep(ctx, s.cfg.NewlinePause); err != nil {
			return err
		}
	}

	for _, r := range rest {
		if s.doc.Closed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		end := s.doc.Length()
		s.doc.SetSelection(Selection{From: end, To: end})
		if err := s.doc.InsertAt(end, string(r)); err != nil {
			return nil
		}

		if s.cfg.OnChar != nil {
			s.cfg.OnChar(string(r))
		}
		if s.cfg.OnCursor != nil {
			s.cfg.OnCursor(s.indicatorPos(end + 1))
		}

		if err := s.cfg.Sleep(ctx, s.delayFor(r)); err != nil {
			return err
		}
	}

	if onComplete != nil {
		onComplete()
	}
	return nil
}

// needsBoundarySpace applies the word-boundary rule for text with no leading
// newlines.
func (s *Streamer) needsBoundarySpace(rest string) bool {
	if rest == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(rest)
	if unicode.IsSpace(first) {
		return false
	}
	last, ok := s.doc.LastChar()
	if !ok {
		return false
	}
	return !unicode.IsSpace(last)
}

// indicatorPos derives the cursor indicator position for the character at
// pos, as percentages of the editor bounds. Falls back to the selection rect
// when character coordinates are unavailable, and to center screen when both
// lookups fail.
func (s *Streamer) indicatorPos(pos int) CursorPos {
	bounds := s.doc.Bounds()

	if c, ok := s.doc.CharCoords(pos); ok {
		return clampPos(c.X, c.Y, bounds)
	}
	if r, ok := s.doc.SelectionRect(); ok {
		return clampPos(r.Left, r.Top, bounds)
	}
	return CursorPos{XPercent: 50, YPercent: 50}
}

func clampPos(x, y float64, bounds Rect) CursorPos {
	xp, yp := 50.0, 50.0
	if bounds.Width > 0 {
		xp = (x - bounds.Left) / bounds.Width * 100
	}
	if bounds.Height > 0 {
		yp = (y - bounds.Top) / bounds.Height * 100
	}
	return CursorPos{
		XPercent: clampFloat(xp, 5, 95),
		YPercent: clampFloat(yp, 5, 95),
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// delayFor selects the reveal delay by character class.
func (s *Streamer) delayFor(r rune) time.Duration {
	switch {
	case unicode.IsSpace(r):
		return s.cfg.WhitespaceDelay
	case strings.ContainsRune(streamPunctuation, r):
		return s.cfg.PunctuationDelay
	case unicode.IsLetter(r):
		return s.cfg.LetterDelay
	default:
		return s.cfg.DefaultDelay
	}
}
