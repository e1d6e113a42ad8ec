package annotation

import (
	"testing"

	"github.com/splat1745/VsionLab/pkg/geometry"
)

func boxes(xs ...float64) []Annotation {
	out := make([]Annotation, len(xs))
	for i, x := range xs {
		out[i] = NewBox(1, geometry.NewRect(x, 0, 10, 10))
	}
	return out
}

func TestHistoryUndoRoundTrip(t *testing.T) {
	h := NewHistory()
	before := boxes(10)
	after := boxes(10, 20)

	h.Snapshot(before)
	restored, ok := h.Undo(after)
	if !ok {
		t.Fatal("Undo failed with one snapshot")
	}
	if len(restored) != 1 || restored[0].Box.X != 10 {
		t.Errorf("Undo restored %+v, want the pre-mutation state", restored)
	}

	redone, ok := h.Redo(restored)
	if !ok {
		t.Fatal("Redo failed after Undo")
	}
	if len(redone) != 2 || redone[1].Box.X != 20 {
		t.Errorf("Redo restored %+v, want the undone state exactly", redone)
	}
}

func TestHistoryNewSnapshotClearsRedo(t *testing.T) {
	h := NewHistory()
	h.Snapshot(boxes(10))
	if _, ok := h.Undo(boxes(10, 20)); !ok {
		t.Fatal("Undo failed")
	}
	if !h.CanRedo() {
		t.Fatal("CanRedo false after Undo")
	}

	h.Snapshot(boxes(10))
	if h.CanRedo() {
		t.Error("redo stack survived a new mutation")
	}
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory()
	if _, ok := h.Undo(nil); ok {
		t.Error("Undo succeeded on empty history")
	}
	if _, ok := h.Redo(nil); ok {
		t.Error("Redo succeeded on empty history")
	}
	if h.CanUndo() || h.CanRedo() {
		t.Error("empty history reports available steps")
	}
}

func TestHistorySnapshotIsIsolated(t *testing.T) {
	h := NewHistory()
	state := boxes(10)
	h.Snapshot(state)

	// Mutating the caller's slice after the snapshot must not leak in.
	state[0].Box.X = 999

	restored, _ := h.Undo(nil)
	if restored[0].Box.X != 10 {
		t.Errorf("snapshot aliased caller state: X = %v", restored[0].Box.X)
	}
}

func TestHistoryReset(t *testing.T) {
	h := NewHistory()
	h.Snapshot(boxes(10))
	h.Undo(boxes(10, 20))
	h.Reset()
	if h.CanUndo() || h.CanRedo() {
		t.Error("Reset left stack entries behind")
	}
}
