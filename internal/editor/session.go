package editor

import (
	"errors"

	"github.com/splat1745/VsionLab/internal/annotation"
	"github.com/splat1745/VsionLab/internal/detect"
	"github.com/splat1745/VsionLab/pkg/geometry"
)

// Tool is the active interaction tool.
type Tool int

const (
	ToolSelect Tool = iota
	ToolBox
	ToolPolygon
)

// State is the interaction state machine's current state.
type State int

const (
	StateIdle State = iota
	StateDrawingBox
	StateDrawingPolygon
	StateDragging
	StateResizing
)

// Handle tags the resize handle being dragged. Corner handles move two
// edges, edge handles move one.
type Handle int

const (
	HandleNone Handle = iota
	HandleNW
	HandleN
	HandleNE
	HandleE
	HandleSE
	HandleS
	HandleSW
	HandleW
)

// Interaction thresholds, in image-pixel space.
const (
	// handleTolerance is the half-size of a handle's hit region.
	handleTolerance = 8.0
	// minCommitSize is the smallest box a draw gesture will commit;
	// anything smaller is treated as an accidental click.
	minCommitSize = 5.0
	// minResizeSize is the floor enforced while resizing.
	minResizeSize = 10.0
)

// ErrNoClassDefined signals that a draw gesture or import cannot proceed
// because the project has no classes. The condition is recoverable: the
// tool stays active and the gesture works once a class exists.
var ErrNoClassDefined = errors.New("no class defined")

// Session owns the complete editor state for one open image: the
// annotation store, history, viewport, tool, selection, and all transient
// gesture buffers. It is the single consumer of pointer/keyboard events
// and the single producer of store mutations. Everything is reset (not
// merged) when the app navigates to another image, by discarding the
// session and creating a fresh one.
type Session struct {
	store   *annotation.Store
	history *annotation.History
	classes []annotation.Class

	viewport Viewport
	tool     Tool
	state    State
	enabled  bool

	selected int // index into store, -1 = none
	classID  int // active class id, -1 = none

	// Transient gesture buffers, invalid outside the owning state.
	dragStart    geometry.Point2D
	cursor       geometry.Point2D
	lastPoint    geometry.Point2D
	activeHandle Handle
	polyBuffer   []geometry.Point2D

	// Snapshot captured at gesture start, pushed on first real mutation
	// so a zero-move drag leaves no history entry.
	pendingSnapshot []annotation.Annotation
}

// NewSession creates an editor session over an empty annotation set.
func NewSession(classes []annotation.Class) *Session {
	return &Session{
		store:    annotation.NewStore(),
		history:  annotation.NewHistory(),
		classes:  classes,
		viewport: NewViewport(),
		tool:     ToolSelect,
		enabled:  true,
		selected: -1,
		classID:  -1,
	}
}

// Store exposes the annotation store (renderer, persistence).
func (s *Session) Store() *annotation.Store { return s.store }

// History exposes the undo/redo stacks.
func (s *Session) History() *annotation.History { return s.history }

// Viewport returns a pointer to the session viewport for zoom/pan updates.
func (s *Session) Viewport() *Viewport { return &s.viewport }

// Tool returns the active tool.
func (s *Session) Tool() Tool { return s.tool }

// SetTool switches tools. Switching away from the polygon tool discards
// any in-progress polygon buffer.
func (s *Session) SetTool(t Tool) {
	if s.tool == ToolPolygon && t != ToolPolygon {
		s.polyBuffer = nil
		if s.state == StateDrawingPolygon {
			s.state = StateIdle
		}
	}
	s.tool = t
}

// SetEnabled locks or unlocks the drawing tools, used while an image load
// is in flight so geometry is never committed against the wrong image.
func (s *Session) SetEnabled(enabled bool) {
	s.enabled = enabled
	if !enabled {
		s.resetGesture()
	}
}

// Enabled reports whether the session accepts pointer input.
func (s *Session) Enabled() bool { return s.enabled }

// State returns the current interaction state.
func (s *Session) State() State { return s.state }

// Selected returns the selected annotation index, -1 for none.
func (s *Session) Selected() int { return s.selected }

// Classes returns the class definitions known to the session.
func (s *Session) Classes() []annotation.Class { return s.classes }

// SetClasses replaces the class set. The active class is kept when it
// still resolves, cleared otherwise.
func (s *Session) SetClasses(classes []annotation.Class) {
	s.classes = classes
	if _, ok := s.ClassByID(s.classID); !ok {
		s.classID = -1
	}
}

// ClassByID resolves a class id against the session's class set.
func (s *Session) ClassByID(id int) (annotation.Class, bool) {
	for _, c := range s.classes {
		if c.ID == id {
			return c, true
		}
	}
	return annotation.Class{}, false
}

// SelectClass makes the class with the given id active.
func (s *Session) SelectClass(id int) bool {
	if _, ok := s.ClassByID(id); !ok {
		return false
	}
	s.classID = id
	return true
}

// SelectClassByIndex maps a keyboard digit to the nth defined class.
func (s *Session) SelectClassByIndex(n int) bool {
	if n < 0 || n >= len(s.classes) {
		return false
	}
	s.classID = s.classes[n].ID
	return true
}

// ActiveClass returns the class new annotations will be tagged with.
func (s *Session) ActiveClass() (annotation.Class, bool) {
	return s.ClassByID(s.classID)
}

// ensureClass resolves the active class, auto-selecting the first defined
// class when none is active. ErrNoClassDefined when there are no classes.
func (s *Session) ensureClass() error {
	if _, ok := s.ClassByID(s.classID); ok {
		return nil
	}
	if len(s.classes) == 0 {
		return ErrNoClassDefined
	}
	s.classID = s.classes[0].ID
	return nil
}

// PointerDown feeds a pointer-down event in screen space.
func (s *Session) PointerDown(screen geometry.Point2D) error {
	if !s.enabled {
		return nil
	}
	p := s.viewport.ToImage(screen)
	s.cursor = p

	switch s.tool {
	case ToolBox:
		if err := s.ensureClass(); err != nil {
			return err
		}
		s.state = StateDrawingBox
		s.dragStart = p
		s.lastPoint = p

	case ToolPolygon:
		if err := s.ensureClass(); err != nil {
			return err
		}
		s.state = StateDrawingPolygon
		s.polyBuffer = append(s.polyBuffer, p)

	default: // ToolSelect
		s.pointerDownSelect(p)
	}
	return nil
}

// pointerDownSelect resolves a select-tool press: handles first, then the
// selected box's interior, then the whole collection top-to-bottom.
func (s *Session) pointerDownSelect(p geometry.Point2D) {
	if sel, ok := s.store.Get(s.selected); ok && sel.Kind == annotation.KindBox {
		if h := handleAt(sel.Box, p); h != HandleNone {
			s.state = StateResizing
			s.activeHandle = h
			s.lastPoint = p
			s.pendingSnapshot = s.store.Snapshot()
			return
		}
		if sel.Box.Contains(p) {
			s.state = StateDragging
			s.lastPoint = p
			s.pendingSnapshot = s.store.Snapshot()
			return
		}
	}

	// Later-drawn annotations take priority on overlap.
	all := s.store.All()
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Contains(p) {
			s.selected = i
			return
		}
	}
	s.selected = -1
}

// PointerMove feeds a pointer-move event in screen space.
func (s *Session) PointerMove(screen geometry.Point2D) {
	if !s.enabled {
		return
	}
	p := s.viewport.ToImage(screen)
	s.cursor = p

	switch s.state {
	case StateDragging:
		s.applyDrag(p)
	case StateResizing:
		s.applyResize(p)
	}
}

// PointerUp feeds a pointer-up event in screen space.
func (s *Session) PointerUp(screen geometry.Point2D) {
	if !s.enabled {
		return
	}
	p := s.viewport.ToImage(screen)
	s.cursor = p

	switch s.state {
	case StateDrawingBox:
		s.commitBox(p)
		s.state = StateIdle
	case StateDragging, StateResizing:
		s.state = StateIdle
		s.activeHandle = HandleNone
		s.pendingSnapshot = nil
	case StateDrawingPolygon:
		// Clicks accumulate points; the polygon stays in progress.
	default:
		s.state = StateIdle
	}
}

// commitBox finishes a box draw gesture. Boxes below the minimum size are
// discarded silently as accidental clicks.
func (s *Session) commitBox(p geometry.Point2D) {
	box := geometry.RectFromCorners(s.dragStart, p)
	if box.Width <= minCommitSize || box.Height <= minCommitSize {
		return
	}
	cls, ok := s.ActiveClass()
	if !ok {
		return
	}
	s.history.Snapshot(s.store.Snapshot())
	s.selected = s.store.Add(annotation.NewBox(cls.ID, box))
}

// applyDrag translates the selected box by the per-move delta. Polygons
// do not support whole-shape translation.
func (s *Session) applyDrag(p geometry.Point2D) {
	sel, ok := s.store.Get(s.selected)
	if !ok || sel.Kind != annotation.KindBox {
		s.state = StateIdle
		return
	}
	delta := p.Sub(s.lastPoint)
	s.lastPoint = p
	if delta.X == 0 && delta.Y == 0 {
		return
	}
	s.flushPendingSnapshot()
	sel.Box.X += delta.X
	sel.Box.Y += delta.Y
	s.store.Update(s.selected, sel)
}

// applyResize applies handle-specific edge edits, clamping width/height
// at the minimum by moving the trailing edge back instead of going
// negative.
func (s *Session) applyResize(p geometry.Point2D) {
	sel, ok := s.store.Get(s.selected)
	if !ok || sel.Kind != annotation.KindBox {
		s.state = StateIdle
		return
	}
	delta := p.Sub(s.lastPoint)
	s.lastPoint = p
	if delta.X == 0 && delta.Y == 0 {
		return
	}
	s.flushPendingSnapshot()
	sel.Box = resizeBox(sel.Box, s.activeHandle, delta)
	s.store.Update(s.selected, sel)
}

// flushPendingSnapshot pushes the gesture-start snapshot exactly once.
func (s *Session) flushPendingSnapshot() {
	if s.pendingSnapshot != nil {
		s.history.Snapshot(s.pendingSnapshot)
		s.pendingSnapshot = nil
	}
}

// CompletePolygon commits the in-progress polygon. Consecutive duplicate
// points (double-click artifacts) are ignored; fewer than three distinct
// points leaves the buffer accumulating.
func (s *Session) CompletePolygon() {
	pts := dedupePoints(s.polyBuffer)
	if len(pts) < 3 {
		return
	}
	cls, ok := s.ActiveClass()
	if !ok {
		return
	}
	s.history.Snapshot(s.store.Snapshot())
	s.selected = s.store.Add(annotation.NewPolygon(cls.ID, pts))
	s.polyBuffer = nil
	s.state = StateIdle
}

// Escape discards an in-progress polygon; otherwise it is a no-op.
func (s *Session) Escape() {
	if len(s.polyBuffer) > 0 {
		s.polyBuffer = nil
		if s.state == StateDrawingPolygon {
			s.state = StateIdle
		}
	}
}

// DeleteSelected removes the selected annotation as one undoable step.
func (s *Session) DeleteSelected() bool {
	if _, ok := s.store.Get(s.selected); !ok {
		return false
	}
	s.history.Snapshot(s.store.Snapshot())
	s.store.Remove(s.selected)
	s.selected = -1
	return true
}

// Undo restores the previous snapshot. Selection survives only when the
// index still resolves afterwards.
func (s *Session) Undo() bool {
	state, ok := s.history.Undo(s.store.Snapshot())
	if !ok {
		return false
	}
	s.store.Replace(state)
	s.clampSelection()
	return true
}

// Redo is the mirror of Undo.
func (s *Session) Redo() bool {
	state, ok := s.history.Redo(s.store.Snapshot())
	if !ok {
		return false
	}
	s.store.Replace(state)
	s.clampSelection()
	return true
}

func (s *Session) clampSelection() {
	if s.selected < 0 || s.selected >= s.store.Len() {
		s.selected = -1
	}
}

// ImportDetections appends machine detections through the same mutation
// path as manual drawing, batched under a single history snapshot so one
// undo reverts the whole import. Returns the number imported.
func (s *Session) ImportDetections(dets []detect.Detection) (int, error) {
	if len(dets) == 0 {
		return 0, nil
	}
	anns, err := detect.ToAnnotations(dets, s.classes)
	if err != nil {
		if errors.Is(err, detect.ErrNoClasses) {
			return 0, ErrNoClassDefined
		}
		return 0, err
	}
	s.history.Snapshot(s.store.Snapshot())
	for _, a := range anns {
		s.store.Add(a)
	}
	return len(anns), nil
}

// LoadAnnotations replaces the annotation set with a freshly loaded one
// and clears history and selection; used when an image's saved
// annotations arrive.
func (s *Session) LoadAnnotations(anns []annotation.Annotation) {
	s.store.Replace(anns)
	s.history.Reset()
	s.selected = -1
	s.resetGesture()
}

// PolygonBuffer returns the in-progress polygon points for rendering.
func (s *Session) PolygonBuffer() []geometry.Point2D {
	return s.polyBuffer
}

// DraftBox returns the in-progress box, valid while drawing one.
func (s *Session) DraftBox() (geometry.Rect, bool) {
	if s.state != StateDrawingBox {
		return geometry.Rect{}, false
	}
	return geometry.RectFromCorners(s.dragStart, s.cursor), true
}

// Cursor returns the last pointer position in image space.
func (s *Session) Cursor() geometry.Point2D { return s.cursor }

func (s *Session) resetGesture() {
	s.state = StateIdle
	s.activeHandle = HandleNone
	s.polyBuffer = nil
	s.pendingSnapshot = nil
}

// BoxHandles returns the 8 handle centers of a box in image space, in
// clockwise order starting at the north-west corner.
func BoxHandles(r geometry.Rect) [8]geometry.Point2D {
	x1, y1 := r.X, r.Y
	x2, y2 := r.X+r.Width, r.Y+r.Height
	mx, my := r.X+r.Width/2, r.Y+r.Height/2
	return [8]geometry.Point2D{
		{X: x1, Y: y1}, // nw
		{X: mx, Y: y1}, // n
		{X: x2, Y: y1}, // ne
		{X: x2, Y: my}, // e
		{X: x2, Y: y2}, // se
		{X: mx, Y: y2}, // s
		{X: x1, Y: y2}, // sw
		{X: x1, Y: my}, // w
	}
}

var handleOrder = [8]Handle{
	HandleNW, HandleN, HandleNE, HandleE, HandleSE, HandleS, HandleSW, HandleW,
}

// handleAt hit-tests the 8 resize handles of a box.
func handleAt(r geometry.Rect, p geometry.Point2D) Handle {
	for i, c := range BoxHandles(r) {
		if p.X >= c.X-handleTolerance && p.X <= c.X+handleTolerance &&
			p.Y >= c.Y-handleTolerance && p.Y <= c.Y+handleTolerance {
			return handleOrder[i]
		}
	}
	return HandleNone
}

// resizeBox applies a handle drag delta. Corner handles edit two edges,
// edge handles one. Width/height are clamped at minResizeSize by pulling
// the moving edge back, keeping the opposite edge fixed.
func resizeBox(r geometry.Rect, h Handle, delta geometry.Point2D) geometry.Rect {
	left := h == HandleNW || h == HandleW || h == HandleSW
	right := h == HandleNE || h == HandleE || h == HandleSE
	top := h == HandleNW || h == HandleN || h == HandleNE
	bottom := h == HandleSW || h == HandleS || h == HandleSE

	if left {
		r.X += delta.X
		r.Width -= delta.X
		if r.Width < minResizeSize {
			r.X -= minResizeSize - r.Width
			r.Width = minResizeSize
		}
	} else if right {
		r.Width += delta.X
		if r.Width < minResizeSize {
			r.Width = minResizeSize
		}
	}

	if top {
		r.Y += delta.Y
		r.Height -= delta.Y
		if r.Height < minResizeSize {
			r.Y -= minResizeSize - r.Height
			r.Height = minResizeSize
		}
	} else if bottom {
		r.Height += delta.Y
		if r.Height < minResizeSize {
			r.Height = minResizeSize
		}
	}

	return r
}

// dedupePoints removes consecutive near-duplicate points without
// modifying the input.
func dedupePoints(pts []geometry.Point2D) []geometry.Point2D {
	const eps = 1e-6
	out := make([]geometry.Point2D, 0, len(pts))
	for _, p := range pts {
		if n := len(out); n > 0 && p.Distance(out[n-1]) < eps {
			continue
		}
		out = append(out, p)
	}
	return out
}
