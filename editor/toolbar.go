package editor

import "sync"

// DefaultFontSize is reported when no font size mark covers the selection.
const DefaultFontSize = "16px"

// ToolbarState is the UI-facing set of active formatting attributes for the
// current selection.
type ToolbarState struct {
	Bold      bool   `json:"bold"`
	Italic    bool   `json:"italic"`
	Underline bool   `json:"underline"`
	FontSize  string `json:"fontSize"`
}

// Reconciler derives ToolbarState from the document's selection and marks.
//
// Collapsed selection: the active set comes from stored marks when present
// (marks pending for the next typed character take precedence), otherwise
// from the marks at the cursor. Range selection: an attribute is active only
// when every character in [from, to) carries it; a single gap deactivates
// it. The font size is the first value encountered in the range.
//
// The reconciler keeps the last reported state and flags changes, so callers
// can skip redundant UI updates without any process-wide flag.
type Reconciler struct {
	doc         Document
	defaultSize string

	mu     sync.Mutex
	last   ToolbarState
	primed bool
}

// NewReconciler creates a reconciler for doc reporting defaultSize when no
// font size mark applies. An empty defaultSize means DefaultFontSize.
func NewReconciler(doc Document, defaultSize string) *Reconciler {
	if defaultSize == "" {
		defaultSize = DefaultFontSize
	}
	return &Reconciler{doc: doc, defaultSize: defaultSize}
}

// Reconcile recomputes the toolbar state for the current selection and
// reports whether it differs from the previously reported state. The first
// call always reports changed.
func (r *Reconciler) Reconcile() (ToolbarState, bool) {
	state := r.compute()

	r.mu.Lock()
	changed := !r.primed || state != r.last
	r.last = state
	r.primed = true
	r.mu.Unlock()

	return state, changed
}

// Last returns the most recently reported state.
func (r *Reconciler) Last() ToolbarState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *Reconciler) compute() ToolbarState {
	sel := r.doc.Selection()

	if sel.Collapsed() {
		marks, ok := r.doc.StoredMarks()
		if !ok {
			marks = r.doc.MarksAt(sel.From)
		}
		return r.stateFromMarks(marks)
	}

	return r.stateFromSpans(r.doc.SpansIn(sel.From, sel.To))
}

func (r *Reconciler) stateFromMarks(marks []Mark) ToolbarState {
	state := ToolbarState{FontSize: r.defaultSize}
	for _, m := range marks {
		switch m.Type {
		case MarkBold:
			state.Bold = true
		case MarkItalic:
			state.Italic = true
		case MarkUnderline:
			state.Underline = true
		case MarkFontSize:
			if m.Value != "" {
				state.FontSize = m.Value
			}
		}
	}
	return state
}

func (r *Reconciler) stateFromSpans(spans []Span) ToolbarState {
	state := ToolbarState{FontSize: r.defaultSize}
	if len(spans) == 0 {
		return state
	}

	// Intersection semantics: start from the first span and knock
	// attributes out as gaps appear.
	state.Bold = true
	state.Italic = true
	state.Underline = true

	sized := false
	for _, span := range spans {
		state.Bold = state.Bold && span.HasMark(MarkBold)
		state.Italic = state.Italic && span.HasMark(MarkItalic)
		state.Underline = state.Underline && span.HasMark(MarkUnderline)

		// First encountered font size wins, absence falls back to default.
		if !sized {
			if v := span.MarkValue(MarkFontSize); v != "" {
				state.FontSize = v
				sized = true
			}
		}
	}
	return state
}
