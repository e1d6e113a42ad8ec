package annotation

// History holds undo/redo stacks of full-collection snapshots. Snapshots
// are deep copies rather than diffs; per-image annotation counts are tens,
// so the memory cost buys a much simpler invariant: any stack entry is a
// complete, restorable state.
type History struct {
	undo [][]Annotation
	redo [][]Annotation
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// Snapshot pushes a deep copy of the pre-mutation state onto the undo
// stack and clears the redo stack (linear history).
func (h *History) Snapshot(state []Annotation) {
	h.undo = append(h.undo, cloneAll(state))
	h.redo = nil
}

// Undo exchanges the current state for the most recent snapshot. The
// second return is false when there is nothing to undo.
func (h *History) Undo(current []Annotation) ([]Annotation, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	top := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, cloneAll(current))
	return top, true
}

// Redo is the mirror of Undo.
func (h *History) Redo(current []Annotation) ([]Annotation, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	top := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, cloneAll(current))
	return top, true
}

// CanUndo reports whether an undo step is available.
func (h *History) CanUndo() bool {
	return len(h.undo) > 0
}

// CanRedo reports whether a redo step is available.
func (h *History) CanRedo() bool {
	return len(h.redo) > 0
}

// Reset drops both stacks, used on image navigation.
func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
}
