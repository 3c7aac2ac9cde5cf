// Package editor implements the editor session: the document boundary, the
// idle/loading state machine, the character streaming animator, and the
// toolbar formatting reconciler.
package editor

import (
	"fmt"
	"sync"
	"unicode/utf8"
)

// MarkType identifies a formatting attribute attachable to document content.
type MarkType string

const (
	MarkBold      MarkType = "bold"
	MarkItalic    MarkType = "italic"
	MarkUnderline MarkType = "underline"
	MarkFontSize  MarkType = "fontSize"
)

// Mark is a formatting attribute. Value carries the font size for
// MarkFontSize and is empty for the boolean attributes.
type Mark struct {
	Type  MarkType `json:"type"`
	Value string   `json:"value,omitempty"`
}

// Span is a run of consecutive characters sharing the same mark set.
type Span struct {
	Text  string
	Marks []Mark
}

// HasMark reports whether the span carries a mark of the given type.
func (s Span) HasMark(t MarkType) bool {
	for _, m := range s.Marks {
		if m.Type == t {
			return true
		}
	}
	return false
}

// MarkValue returns the value of the given mark type, or "" when absent.
func (s Span) MarkValue(t MarkType) string {
	for _, m := range s.Marks {
		if m.Type == t {
			return m.Value
		}
	}
	return ""
}

// Selection is a half-open character range [From, To). A collapsed selection
// (From == To) is a bare cursor.
type Selection struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Collapsed reports whether the selection is a bare cursor.
func (s Selection) Collapsed() bool {
	return s.From == s.To
}

// Coords is an on-screen point in the editor's coordinate space.
type Coords struct {
	X float64
	Y float64
}

// Rect is an on-screen rectangle in the editor's coordinate space.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Document is the consumed capability boundary to the rich-text engine.
// The engine proper (schema, transactions, undo) lives outside this backend;
// MemoryDocument below is the implementation the server and the tests use.
type Document interface {
	// Length returns the number of characters in the document.
	Length() int

	// Text returns the full document text.
	Text() string

	// LastChar returns the final character, or ok=false on an empty document.
	LastChar() (rune, bool)

	// InsertAt inserts text at the given character position.
	InsertAt(pos int, text string) error

	// SetText replaces the whole document.
	SetText(text string)

	// Selection returns the current selection.
	Selection() Selection

	// SetSelection moves the selection, clamping it to the document.
	SetSelection(sel Selection)

	// MarksAt returns the marks attached at the character preceding pos,
	// which is what a cursor at pos would inherit when typing.
	MarksAt(pos int) []Mark

	// StoredMarks returns marks pending for the next typed character at a
	// collapsed cursor, and whether any are stored. Stored marks are distinct
	// from marks attached to existing content.
	StoredMarks() ([]Mark, bool)

	// SpansIn returns the mark-homogeneous runs covering [from, to).
	SpansIn(from, to int) []Span

	// CharCoords resolves the on-screen coordinates of the character at pos.
	// ok=false when the position cannot be resolved.
	CharCoords(pos int) (Coords, bool)

	// SelectionRect returns the bounding rectangle of the current selection,
	// the fallback when CharCoords is unavailable.
	SelectionRect() (Rect, bool)

	// Bounds returns the editor's bounding box.
	Bounds() Rect

	// Closed reports whether the document view has been torn down. Mutations
	// on a closed document are rejected.
	Closed() bool

	// OnChange registers a listener invoked synchronously after every applied
	// mutation.
	OnChange(fn func())
}

// cell is one character with its attached marks.
type cell struct {
	r     rune
	marks []Mark
}

// MemoryDocument is an in-memory Document with a deterministic fake layout:
// a fixed-width character grid inside Bounds, 80 columns per line. It is the
// document the HTTP server hands to each editor session.
type MemoryDocument struct {
	mu        sync.Mutex
	cells     []cell
	sel       Selection
	stored    []Mark
	hasStored bool
	closed    bool
	listeners []func()
	bounds    Rect
}

// Layout constants for the fake coordinate grid.
const (
	docColumns    = 80
	docCharWidth  = 9.0
	docLineHeight = 20.0
)

// NewMemoryDocument creates an empty document with an 800x600 bounding box.
func NewMemoryDocument() *MemoryDocument {
	return &MemoryDocument{
		bounds: Rect{Left: 0, Top: 0, Width: 800, Height: 600},
	}
}

func (d *MemoryDocument) Length() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cells)
}

func (d *MemoryDocument) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.textLocked()
}

func (d *MemoryDocument) textLocked() string {
	runes := make([]rune, len(d.cells))
	for i, c := range d.cells {
		runes[i] = c.r
	}
	return string(runes)
}

func (d *MemoryDocument) LastChar() (rune, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.cells) == 0 {
		return 0, false
	}
	return d.cells[len(d.cells)-1].r, true
}

func (d *MemoryDocument) InsertAt(pos int, text string) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return fmt.Errorf("document is closed")
	}
	if pos < 0 || pos > len(d.cells) {
		d.mu.Unlock()
		return fmt.Errorf("insert position %d out of range [0, %d]", pos, len(d.cells))
	}

	inserted := make([]cell, 0, utf8.RuneCountInString(text))
	for _, r := range text {
		inserted = append(inserted, cell{r: r})
	}

	d.cells = append(d.cells[:pos], append(inserted, d.cells[pos:]...)...)

	// A selection at or past the insertion point shifts right with the text.
	if d.sel.From >= pos {
		d.sel.From += len(inserted)
	}
	if d.sel.To >= pos {
		d.sel.To += len(inserted)
	}

	listeners := d.snapshotListeners()
	d.mu.Unlock()

	notify(listeners)
	return nil
}

func (d *MemoryDocument) SetText(text string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.cells = d.cells[:0]
	for _, r := range text {
		d.cells = append(d.cells, cell{r: r})
	}
	d.sel = Selection{From: len(d.cells), To: len(d.cells)}
	d.stored = nil
	d.hasStored = false

	listeners := d.snapshotListeners()
	d.mu.Unlock()

	notify(listeners)
}

func (d *MemoryDocument) Selection() Selection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sel
}

func (d *MemoryDocument) SetSelection(sel Selection) {
	d.mu.Lock()
	sel.From = clampInt(sel.From, 0, len(d.cells))
	sel.To = clampInt(sel.To, sel.From, len(d.cells))
	d.sel = sel
	// Moving the cursor discards pending stored marks.
	d.stored = nil
	d.hasStored = false
	d.mu.Unlock()
}

func (d *MemoryDocument) MarksAt(pos int) []Mark {
	d.mu.Lock()
	defer d.mu.Unlock()
	// Marks are inherited from the character before the cursor.
	idx := pos - 1
	if idx < 0 || idx >= len(d.cells) {
		return nil
	}
	return cloneMarks(d.cells[idx].marks)
}

func (d *MemoryDocument) StoredMarks() ([]Mark, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.hasStored {
		return nil, false
	}
	return cloneMarks(d.stored), true
}

// SetStoredMarks records marks pending for the next typed character.
func (d *MemoryDocument) SetStoredMarks(marks []Mark) {
	d.mu.Lock()
	d.stored = cloneMarks(marks)
	d.hasStored = true
	d.mu.Unlock()
}

// ClearStoredMarks discards any pending marks.
func (d *MemoryDocument) ClearStoredMarks() {
	d.mu.Lock()
	d.stored = nil
	d.hasStored = false
	d.mu.Unlock()
}

// ApplyMarks attaches a mark to every character in [from, to).
func (d *MemoryDocument) ApplyMarks(from, to int, marks ...Mark) {
	d.mu.Lock()
	from = clampInt(from, 0, len(d.cells))
	to = clampInt(to, from, len(d.cells))
	for i := from; i < to; i++ {
		for _, m := range marks {
			if !hasMarkType(d.cells[i].marks, m.Type) {
				d.cells[i].marks = append(d.cells[i].marks, m)
			}
		}
	}
	listeners := d.snapshotListeners()
	d.mu.Unlock()

	notify(listeners)
}

func (d *MemoryDocument) SpansIn(from, to int) []Span {
	d.mu.Lock()
	defer d.mu.Unlock()

	from = clampInt(from, 0, len(d.cells))
	to = clampInt(to, from, len(d.cells))

	var spans []Span
	for i := from; i < to; i++ {
		c := d.cells[i]
		if len(spans) > 0 && sameMarks(spans[len(spans)-1].Marks, c.marks) {
			spans[len(spans)-1].Text += string(c.r)
			continue
		}
		spans = append(spans, Span{Text: string(c.r), Marks: cloneMarks(c.marks)})
	}
	return spans
}

func (d *MemoryDocument) CharCoords(pos int) (Coords, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if pos < 0 || pos > len(d.cells) {
		return Coords{}, false
	}

	// Walk the text up to pos, wrapping the fake grid at docColumns and
	// breaking on newlines.
	col, line := 0, 0
	for i := 0; i < pos && i < len(d.cells); i++ {
		if d.cells[i].r == '\n' {
			col = 0
			line++
			continue
		}
		col++
		if col >= docColumns {
			col = 0
			line++
		}
	}

	return Coords{
		X: d.bounds.Left + float64(col)*docCharWidth,
		Y: d.bounds.Top + float64(line)*docLineHeight,
	}, true
}

func (d *MemoryDocument) SelectionRect() (Rect, bool) {
	d.mu.Lock()
	sel := d.sel
	d.mu.Unlock()

	from, ok := d.CharCoords(sel.From)
	if !ok {
		return Rect{}, false
	}
	return Rect{Left: from.X, Top: from.Y, Width: docCharWidth, Height: docLineHeight}, true
}

func (d *MemoryDocument) Bounds() Rect {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bounds
}

// Close tears the document view down. Subsequent mutations are rejected and
// an in-progress stream stops on its next iteration.
func (d *MemoryDocument) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}

func (d *MemoryDocument) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *MemoryDocument) OnChange(fn func()) {
	d.mu.Lock()
	d.listeners = append(d.listeners, fn)
	d.mu.Unlock()
}

func (d *MemoryDocument) snapshotListeners() []func() {
	out := make([]func(), len(d.listeners))
	copy(out, d.listeners)
	return out
}

func notify(listeners []func()) {
	for _, fn := range listeners {
		fn()
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func cloneMarks(marks []Mark) []Mark {
	if len(marks) == 0 {
		return nil
	}
	out := make([]Mark, len(marks))
	copy(out, marks)
	return out
}

func hasMarkType(marks []Mark, t MarkType) bool {
	for _, m := range marks {
		if m.Type == t {
			return true
		}
	}
	return false
}

func sameMarks(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
