package editor

import (
	"errors"
	"testing"

	"github.com/splat1745/VsionLab/internal/annotation"
	"github.com/splat1745/VsionLab/internal/detect"
	"github.com/splat1745/VsionLab/pkg/geometry"
)

func testClasses() []annotation.Class {
	return []annotation.Class{
		{ID: 1, Name: "person", Color: "#FF0000"},
		{ID: 2, Name: "car", Color: "#00FF00"},
	}
}

func pt(x, y float64) geometry.Point2D {
	return geometry.Point2D{X: x, Y: y}
}

func newBoxSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(testClasses())
	s.SetTool(ToolBox)
	return s
}

func drawBox(t *testing.T, s *Session, from, to geometry.Point2D) {
	t.Helper()
	if err := s.PointerDown(from); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}
	s.PointerMove(to)
	s.PointerUp(to)
}

func TestDrawBoxCommits(t *testing.T) {
	s := newBoxSession(t)
	drawBox(t, s, pt(10, 10), pt(100, 80))

	if s.Store().Len() != 1 {
		t.Fatalf("store len = %d, want 1", s.Store().Len())
	}
	a, _ := s.Store().Get(0)
	want := geometry.NewRect(10, 10, 90, 70)
	if a.Box != want {
		t.Errorf("box = %+v, want %+v", a.Box, want)
	}
	if a.ClassID != 1 {
		t.Errorf("class = %d, want auto-selected first class", a.ClassID)
	}
	if s.Selected() != 0 {
		t.Errorf("selected = %d, want the new box", s.Selected())
	}
	if !s.History().CanUndo() {
		t.Error("draw left no history entry")
	}
	if s.State() != StateIdle {
		t.Errorf("state = %v, want idle after commit", s.State())
	}
}

func TestDrawBoxReversedCornersNormalize(t *testing.T) {
	s := newBoxSession(t)
	drawBox(t, s, pt(100, 80), pt(10, 10))

	a, _ := s.Store().Get(0)
	if a.Box != geometry.NewRect(10, 10, 90, 70) {
		t.Errorf("box = %+v", a.Box)
	}
}

func TestDrawBoxTooSmallDiscarded(t *testing.T) {
	s := newBoxSession(t)
	drawBox(t, s, pt(10, 10), pt(12, 12))

	if s.Store().Len() != 0 {
		t.Errorf("store len = %d, want discarded", s.Store().Len())
	}
	if s.History().CanUndo() {
		t.Error("discarded draw left a history entry")
	}
	// A thin sliver (wide but short) is also an accident.
	drawBox(t, s, pt(10, 10), pt(200, 13))
	if s.Store().Len() != 0 {
		t.Error("sliver box committed")
	}
}

func TestDrawRespectsViewportTransform(t *testing.T) {
	s := newBoxSession(t)
	s.Viewport().SetZoom(2.0)
	s.Viewport().Pan = pt(100, 50)

	// Screen (120, 70) -> image (10, 10); screen (300, 210) -> (100, 80).
	drawBox(t, s, pt(120, 70), pt(300, 210))

	a, _ := s.Store().Get(0)
	if a.Box != geometry.NewRect(10, 10, 90, 70) {
		t.Errorf("box = %+v, want image-space coordinates", a.Box)
	}
}

func TestDrawWithoutClasses(t *testing.T) {
	s := NewSession(nil)
	s.SetTool(ToolBox)
	err := s.PointerDown(pt(10, 10))
	if !errors.Is(err, ErrNoClassDefined) {
		t.Fatalf("err = %v, want ErrNoClassDefined", err)
	}
	if s.State() != StateIdle {
		t.Error("failed gesture changed state")
	}

	// Recoverable: adding classes makes the same gesture work.
	s.SetClasses(testClasses())
	drawBox(t, s, pt(10, 10), pt(60, 60))
	if s.Store().Len() != 1 {
		t.Error("draw still failing after classes were defined")
	}
}

func TestSelectTopmostOnOverlap(t *testing.T) {
	s := NewSession(testClasses())
	s.Store().Add(annotation.NewBox(1, geometry.NewRect(0, 0, 100, 100)))
	s.Store().Add(annotation.NewBox(2, geometry.NewRect(50, 50, 100, 100)))

	// (75, 75) is inside both; the later-drawn box wins.
	s.PointerDown(pt(75, 75))
	s.PointerUp(pt(75, 75))
	if s.Selected() != 1 {
		t.Errorf("selected = %d, want 1 (insertion order reversed)", s.Selected())
	}

	// (25, 25) is only inside the first.
	s.PointerDown(pt(25, 25))
	s.PointerUp(pt(25, 25))
	if s.Selected() != 0 {
		t.Errorf("selected = %d, want 0", s.Selected())
	}

	// Empty space clears the selection.
	s.PointerDown(pt(500, 500))
	s.PointerUp(pt(500, 500))
	if s.Selected() != -1 {
		t.Errorf("selected = %d, want -1", s.Selected())
	}
}

func TestDragMovesSelectedBox(t *testing.T) {
	s := NewSession(testClasses())
	s.Store().Add(annotation.NewBox(1, geometry.NewRect(100, 100, 50, 50)))

	// First click selects.
	s.PointerDown(pt(120, 120))
	s.PointerUp(pt(120, 120))
	if s.Selected() != 0 {
		t.Fatalf("selected = %d", s.Selected())
	}

	// Second press inside the selected box starts a drag.
	s.PointerDown(pt(120, 120))
	if s.State() != StateDragging {
		t.Fatalf("state = %v, want dragging", s.State())
	}
	s.PointerMove(pt(130, 125))
	s.PointerMove(pt(150, 140))
	s.PointerUp(pt(150, 140))

	a, _ := s.Store().Get(0)
	if a.Box != geometry.NewRect(130, 120, 50, 50) {
		t.Errorf("box = %+v, want translated by (+30, +20)", a.Box)
	}

	// One gesture, one undo step, even across multiple moves.
	if !s.History().CanUndo() {
		t.Fatal("drag left no history entry")
	}
	s.Undo()
	if s.History().CanUndo() {
		t.Error("drag pushed more than one snapshot")
	}
	a, _ = s.Store().Get(0)
	if a.Box != geometry.NewRect(100, 100, 50, 50) {
		t.Errorf("undo restored %+v", a.Box)
	}
}

func TestZeroMoveDragLeavesNoHistory(t *testing.T) {
	s := NewSession(testClasses())
	s.Store().Add(annotation.NewBox(1, geometry.NewRect(100, 100, 50, 50)))
	s.PointerDown(pt(120, 120))
	s.PointerUp(pt(120, 120))

	s.PointerDown(pt(120, 120))
	s.PointerUp(pt(120, 120))

	if s.History().CanUndo() {
		t.Error("zero-move drag pushed a snapshot")
	}
}

func TestResizeSoutheastGrowsInPlace(t *testing.T) {
	s := NewSession(testClasses())
	s.Store().Add(annotation.NewBox(1, geometry.NewRect(50, 50, 100, 100)))
	s.PointerDown(pt(75, 75))
	s.PointerUp(pt(75, 75))

	// SE handle sits at (150, 150).
	s.PointerDown(pt(150, 150))
	if s.State() != StateResizing {
		t.Fatalf("state = %v, want resizing", s.State())
	}
	s.PointerMove(pt(170, 170))
	s.PointerUp(pt(170, 170))

	a, _ := s.Store().Get(0)
	if a.Box != geometry.NewRect(50, 50, 120, 120) {
		t.Errorf("box = %+v, want 120x120 with origin unchanged", a.Box)
	}
}

func TestResizeNorthwestMovesOrigin(t *testing.T) {
	s := NewSession(testClasses())
	s.Store().Add(annotation.NewBox(1, geometry.NewRect(50, 50, 100, 100)))
	s.PointerDown(pt(75, 75))
	s.PointerUp(pt(75, 75))

	// NW handle sits at (50, 50).
	s.PointerDown(pt(50, 50))
	s.PointerMove(pt(70, 70))
	s.PointerUp(pt(70, 70))

	a, _ := s.Store().Get(0)
	if a.Box != geometry.NewRect(70, 70, 80, 80) {
		t.Errorf("box = %+v, want origin +20 and size -20", a.Box)
	}
}

func TestResizeClampsMinimumSize(t *testing.T) {
	s := NewSession(testClasses())
	s.Store().Add(annotation.NewBox(1, geometry.NewRect(50, 50, 40, 40)))
	s.PointerDown(pt(70, 70))
	s.PointerUp(pt(70, 70))

	// Drag the E handle far past the left edge.
	s.PointerDown(pt(90, 70))
	if s.State() != StateResizing {
		t.Fatalf("state = %v, want resizing", s.State())
	}
	s.PointerMove(pt(0, 70))
	s.PointerUp(pt(0, 70))

	a, _ := s.Store().Get(0)
	if a.Box.Width != minResizeSize {
		t.Errorf("width = %v, want clamped at %v", a.Box.Width, minResizeSize)
	}
	if a.Box.X != 50 {
		t.Errorf("x = %v, want the fixed edge unmoved", a.Box.X)
	}
}

func TestResizeLeftEdgeClampKeepsRightEdge(t *testing.T) {
	s := NewSession(testClasses())
	s.Store().Add(annotation.NewBox(1, geometry.NewRect(50, 50, 40, 40)))
	s.PointerDown(pt(70, 70))
	s.PointerUp(pt(70, 70))

	// Drag the W handle far past the right edge.
	s.PointerDown(pt(50, 70))
	s.PointerMove(pt(200, 70))
	s.PointerUp(pt(200, 70))

	a, _ := s.Store().Get(0)
	if a.Box.Width != minResizeSize {
		t.Errorf("width = %v, want clamped at %v", a.Box.Width, minResizeSize)
	}
	if right := a.Box.X + a.Box.Width; right != 90 {
		t.Errorf("right edge = %v, want fixed at 90", right)
	}
}

func TestPolygonLifecycle(t *testing.T) {
	s := NewSession(testClasses())
	s.SetTool(ToolPolygon)

	for _, p := range []geometry.Point2D{pt(10, 10), pt(100, 10)} {
		s.PointerDown(p)
		s.PointerUp(p)
	}

	// Two points cannot close; the buffer keeps accumulating.
	s.CompletePolygon()
	if s.Store().Len() != 0 {
		t.Fatal("two-point polygon committed")
	}
	if len(s.PolygonBuffer()) != 2 {
		t.Fatalf("buffer = %d points, want untouched", len(s.PolygonBuffer()))
	}

	s.PointerDown(pt(50, 100))
	s.PointerUp(pt(50, 100))
	s.CompletePolygon()

	if s.Store().Len() != 1 {
		t.Fatal("three-point polygon did not commit")
	}
	a, _ := s.Store().Get(0)
	if a.Kind != annotation.KindPolygon || len(a.Points) != 3 {
		t.Errorf("annotation = %+v", a)
	}
	if len(s.PolygonBuffer()) != 0 {
		t.Error("buffer not cleared after commit")
	}
	if s.Selected() != 0 {
		t.Errorf("selected = %d, want the new polygon", s.Selected())
	}
}

func TestPolygonDoubleClickDuplicate(t *testing.T) {
	s := NewSession(testClasses())
	s.SetTool(ToolPolygon)

	pts := []geometry.Point2D{pt(10, 10), pt(100, 10), pt(50, 100), pt(50, 100)}
	for _, p := range pts {
		s.PointerDown(p)
		s.PointerUp(p)
	}
	s.CompletePolygon()

	a, _ := s.Store().Get(0)
	if len(a.Points) != 3 {
		t.Errorf("points = %d, want duplicate final click dropped", len(a.Points))
	}
}

func TestEscapeDiscardsPolygon(t *testing.T) {
	s := NewSession(testClasses())
	s.SetTool(ToolPolygon)
	s.PointerDown(pt(10, 10))
	s.PointerUp(pt(10, 10))

	s.Escape()
	if len(s.PolygonBuffer()) != 0 {
		t.Error("Escape left buffer points")
	}
	if s.State() != StateIdle {
		t.Errorf("state = %v, want idle", s.State())
	}
	if s.History().CanUndo() {
		t.Error("discarding a draft touched history")
	}
}

func TestSwitchingToolDiscardsPolygon(t *testing.T) {
	s := NewSession(testClasses())
	s.SetTool(ToolPolygon)
	s.PointerDown(pt(10, 10))
	s.PointerUp(pt(10, 10))

	s.SetTool(ToolSelect)
	if len(s.PolygonBuffer()) != 0 {
		t.Error("tool switch kept the polygon buffer")
	}
}

func TestDeleteSelected(t *testing.T) {
	s := newBoxSession(t)
	drawBox(t, s, pt(10, 10), pt(100, 100))

	if !s.DeleteSelected() {
		t.Fatal("DeleteSelected failed with a selection")
	}
	if s.Store().Len() != 0 || s.Selected() != -1 {
		t.Errorf("len = %d selected = %d", s.Store().Len(), s.Selected())
	}

	// Undo brings the box back; deleting with no selection is a no-op.
	s.Undo()
	if s.Store().Len() != 1 {
		t.Error("undo did not restore the deleted box")
	}
	if s.DeleteSelected() {
		t.Error("DeleteSelected succeeded with no selection")
	}
}

func TestUndoClearsUnresolvableSelection(t *testing.T) {
	s := newBoxSession(t)
	drawBox(t, s, pt(10, 10), pt(100, 100))
	if s.Selected() != 0 {
		t.Fatal("setup: no selection")
	}

	s.Undo()
	if s.Selected() != -1 {
		t.Errorf("selected = %d, want cleared after undo emptied the store", s.Selected())
	}
}

func TestRedoRestoresExactState(t *testing.T) {
	s := newBoxSession(t)
	drawBox(t, s, pt(10, 10), pt(100, 100))
	drawBox(t, s, pt(200, 200), pt(300, 280))

	s.Undo()
	s.Undo()
	if s.Store().Len() != 0 {
		t.Fatalf("len = %d after undoing everything", s.Store().Len())
	}

	s.Redo()
	s.Redo()
	if s.Store().Len() != 2 {
		t.Fatalf("len = %d after redoing everything", s.Store().Len())
	}
	a, _ := s.Store().Get(1)
	if a.Box != geometry.NewRect(200, 200, 100, 80) {
		t.Errorf("redo restored %+v", a.Box)
	}

	// A new draw invalidates the redo branch.
	s.Undo()
	drawBox(t, s, pt(400, 400), pt(450, 450))
	if s.Redo() {
		t.Error("Redo succeeded after a new mutation")
	}
}

func TestImportDetectionsSingleUndoStep(t *testing.T) {
	s := NewSession(testClasses())
	dets := []detect.Detection{
		{ClassID: 1, X1: 10, Y1: 10, X2: 60, Y2: 60, Confidence: 0.9},
		{ClassID: 2, X1: 100, Y1: 100, X2: 150, Y2: 160, Confidence: 0.8},
		{ClassID: 42, X1: 200, Y1: 200, X2: 250, Y2: 250, Confidence: 0.7},
	}

	added, err := s.ImportDetections(dets)
	if err != nil {
		t.Fatalf("ImportDetections: %v", err)
	}
	if added != 3 || s.Store().Len() != 3 {
		t.Fatalf("added = %d len = %d", added, s.Store().Len())
	}

	// Unknown class 42 falls back to the first defined class.
	a, _ := s.Store().Get(2)
	if a.ClassID != 1 {
		t.Errorf("fallback class = %d, want 1", a.ClassID)
	}

	// The whole import is one undoable batch.
	s.Undo()
	if s.Store().Len() != 0 {
		t.Errorf("len = %d after undoing import, want 0", s.Store().Len())
	}
	if s.History().CanUndo() {
		t.Error("import pushed more than one snapshot")
	}
}

func TestImportDetectionsWithoutClasses(t *testing.T) {
	s := NewSession(nil)
	_, err := s.ImportDetections([]detect.Detection{
		{ClassID: 1, X1: 0, Y1: 0, X2: 10, Y2: 10, Confidence: 0.5},
	})
	if !errors.Is(err, ErrNoClassDefined) {
		t.Errorf("err = %v, want ErrNoClassDefined", err)
	}
	if s.Store().Len() != 0 || s.History().CanUndo() {
		t.Error("failed import mutated state")
	}
}

func TestImportEmptyDetections(t *testing.T) {
	s := NewSession(testClasses())
	added, err := s.ImportDetections(nil)
	if err != nil || added != 0 {
		t.Errorf("added = %d err = %v", added, err)
	}
	if s.History().CanUndo() {
		t.Error("empty import pushed a snapshot")
	}
}

func TestDisabledSessionIgnoresInput(t *testing.T) {
	s := newBoxSession(t)
	s.SetEnabled(false)

	if err := s.PointerDown(pt(10, 10)); err != nil {
		t.Fatalf("PointerDown while disabled: %v", err)
	}
	s.PointerMove(pt(100, 100))
	s.PointerUp(pt(100, 100))

	if s.Store().Len() != 0 || s.State() != StateIdle {
		t.Error("disabled session accepted a gesture")
	}
}

func TestDisableMidGestureResets(t *testing.T) {
	s := newBoxSession(t)
	s.PointerDown(pt(10, 10))
	if s.State() != StateDrawingBox {
		t.Fatalf("state = %v", s.State())
	}

	s.SetEnabled(false)
	if s.State() != StateIdle {
		t.Error("disable did not reset the in-flight gesture")
	}

	s.SetEnabled(true)
	s.PointerUp(pt(100, 100))
	if s.Store().Len() != 0 {
		t.Error("stale gesture committed after re-enable")
	}
}

func TestLoadAnnotationsResets(t *testing.T) {
	s := newBoxSession(t)
	drawBox(t, s, pt(10, 10), pt(100, 100))

	loaded := []annotation.Annotation{
		annotation.NewBox(2, geometry.NewRect(0, 0, 30, 30)),
	}
	s.LoadAnnotations(loaded)

	if s.Store().Len() != 1 {
		t.Fatalf("len = %d", s.Store().Len())
	}
	if s.Selected() != -1 {
		t.Error("selection survived a load")
	}
	if s.History().CanUndo() || s.History().CanRedo() {
		t.Error("history survived a load")
	}
}

func TestSelectClassByIndex(t *testing.T) {
	s := NewSession(testClasses())
	if !s.SelectClassByIndex(1) {
		t.Fatal("SelectClassByIndex(1) failed")
	}
	if c, _ := s.ActiveClass(); c.ID != 2 {
		t.Errorf("active class = %d, want 2", c.ID)
	}
	if s.SelectClassByIndex(5) {
		t.Error("out-of-range index accepted")
	}
}

func TestSetClassesKeepsResolvableActive(t *testing.T) {
	s := NewSession(testClasses())
	s.SelectClass(2)

	s.SetClasses([]annotation.Class{{ID: 2, Name: "car", Color: "#00FF00"}})
	if c, ok := s.ActiveClass(); !ok || c.ID != 2 {
		t.Error("active class lost despite still resolving")
	}

	s.SetClasses([]annotation.Class{{ID: 9, Name: "other", Color: "#0000FF"}})
	if _, ok := s.ActiveClass(); ok {
		t.Error("active class kept after it stopped resolving")
	}
}

func TestDraftBox(t *testing.T) {
	s := newBoxSession(t)
	if _, ok := s.DraftBox(); ok {
		t.Error("DraftBox valid while idle")
	}

	s.PointerDown(pt(10, 10))
	s.PointerMove(pt(50, 40))
	draft, ok := s.DraftBox()
	if !ok {
		t.Fatal("DraftBox invalid while drawing")
	}
	if draft != geometry.NewRect(10, 10, 40, 30) {
		t.Errorf("draft = %+v", draft)
	}
}
