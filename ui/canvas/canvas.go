// Package canvas provides the annotation canvas with pan, zoom, and the
// pointer plumbing that drives the editing session.
package canvas

import (
	"image"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/splat1745/VsionLab/internal/editor"
	"github.com/splat1745/VsionLab/pkg/geometry"
)

const zoomStep = 1.25

// AnnotationCanvas displays the current image with its annotations drawn
// on top and routes pointer events into the editing session. Panning is
// the scroll container's job; zoom is applied through the session viewport.
type AnnotationCanvas struct {
	widget.BaseWidget

	session  *editor.Session
	renderer *editor.Renderer

	base image.Image

	raster  *fynecanvas.Raster
	scroll  *zoomScroll
	content *annotationContent
	imgSize fyne.Size

	fitToWindow    bool
	lastScrollSize fyne.Size

	onZoomChange func(zoom float64)
	onGestureErr func(err error)
	onChanged    func()
}

// zoomScroll wraps a scroll container but intercepts the wheel for zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *AnnotationCanvas
}

func newZoomScroll(content fyne.CanvasObject, canvas *AnnotationCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: canvas}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	// Wheel zooms, it never scrolls
	if ev.Scrolled.DY > 0 {
		zs.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		zs.canvas.ZoomOut()
	}
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

func (zs *zoomScroll) Offset() fyne.Position {
	return zs.scroll.Offset
}

func (zs *zoomScroll) Size() fyne.Size {
	return zs.scroll.Size()
}

func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
}

// annotationContent wraps the raster and feeds mouse events to the session.
type annotationContent struct {
	widget.BaseWidget
	canvas *AnnotationCanvas
	raster *fynecanvas.Raster
}

func newAnnotationContent(ac *AnnotationCanvas, raster *fynecanvas.Raster) *annotationContent {
	c := &annotationContent{canvas: ac, raster: raster}
	c.ExtendBaseWidget(c)
	return c
}

func (c *annotationContent) CreateRenderer() fyne.WidgetRenderer {
	return &annotationContentRenderer{content: c}
}

func (c *annotationContent) MinSize() fyne.Size {
	return c.raster.MinSize()
}

// contentPoint converts an event position (viewport-relative) into content
// coordinates by adding the scroll offset.
func (c *annotationContent) contentPoint(pos fyne.Position) geometry.Point2D {
	offset := c.canvas.scroll.Offset()
	return geometry.Point2D{
		X: float64(pos.X + offset.X),
		Y: float64(pos.Y + offset.Y),
	}
}

func (c *annotationContent) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	if err := c.canvas.session.PointerDown(c.contentPoint(ev.Position)); err != nil {
		if c.canvas.onGestureErr != nil {
			c.canvas.onGestureErr(err)
		}
		return
	}
	c.canvas.Refresh()
}

func (c *annotationContent) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	c.canvas.session.PointerUp(c.contentPoint(ev.Position))
	c.canvas.notifyChanged()
	c.canvas.Refresh()
}

func (c *annotationContent) MouseIn(ev *desktop.MouseEvent) {}

func (c *annotationContent) MouseMoved(ev *desktop.MouseEvent) {
	c.canvas.session.PointerMove(c.contentPoint(ev.Position))
	c.canvas.Refresh()
}

func (c *annotationContent) MouseOut() {}

// DoubleTapped completes an in-progress polygon.
func (c *annotationContent) DoubleTapped(ev *fyne.PointEvent) {
	c.canvas.session.CompletePolygon()
	c.canvas.notifyChanged()
	c.canvas.Refresh()
}

func (c *annotationContent) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		c.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		c.canvas.ZoomOut()
	}
}

type annotationContentRenderer struct {
	content *annotationContent
}

func (r *annotationContentRenderer) Layout(size fyne.Size) {
	r.content.raster.Resize(size)
}

func (r *annotationContentRenderer) MinSize() fyne.Size {
	return r.content.raster.MinSize()
}

func (r *annotationContentRenderer) Refresh() {
	r.content.raster.Refresh()
}

func (r *annotationContentRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.content.raster}
}

func (r *annotationContentRenderer) Destroy() {}

// NewAnnotationCanvas creates a canvas bound to the given session.
func NewAnnotationCanvas(session *editor.Session) *AnnotationCanvas {
	ac := &AnnotationCanvas{
		session:  session,
		renderer: editor.NewRenderer(),
		imgSize:  fyne.NewSize(400, 300),
	}

	ac.raster = fynecanvas.NewRaster(ac.draw)
	ac.raster.ScaleMode = fynecanvas.ImageScalePixels
	ac.raster.SetMinSize(ac.imgSize)

	ac.content = newAnnotationContent(ac, ac.raster)
	ac.scroll = newZoomScroll(ac.content, ac)

	ac.ExtendBaseWidget(ac)
	return ac
}

// Container returns the canvas container for embedding in layouts.
func (ac *AnnotationCanvas) Container() fyne.CanvasObject {
	return ac.scroll
}

// SetImage swaps the displayed image and resets the view.
func (ac *AnnotationCanvas) SetImage(img image.Image) {
	ac.base = img
	ac.updateContentSize()
}

// Image returns the displayed image.
func (ac *AnnotationCanvas) Image() image.Image {
	return ac.base
}

// SetZoom sets the zoom level through the session viewport, which clamps it.
func (ac *AnnotationCanvas) SetZoom(zoom float64) {
	vp := ac.session.Viewport()
	vp.SetZoom(zoom)
	ac.updateContentSize()

	if ac.onZoomChange != nil {
		ac.onZoomChange(vp.Zoom)
	}
}

// Zoom returns the current zoom level.
func (ac *AnnotationCanvas) Zoom() float64 {
	return ac.session.Viewport().Zoom
}

// ZoomIn increases the zoom level one step.
func (ac *AnnotationCanvas) ZoomIn() {
	ac.SetZoom(ac.Zoom() * zoomStep)
}

// ZoomOut decreases the zoom level one step.
func (ac *AnnotationCanvas) ZoomOut() {
	ac.SetZoom(ac.Zoom() / zoomStep)
}

// ActualSize resets zoom to 1:1.
func (ac *AnnotationCanvas) ActualSize() {
	ac.SetZoom(1.0)
}

// FitToWindow picks the zoom that fits the image in the visible area
// without upscaling past 1:1.
func (ac *AnnotationCanvas) FitToWindow() {
	if ac.base == nil {
		return
	}
	b := ac.base.Bounds()
	viewSize := ac.scroll.Size()
	if b.Dx() == 0 || b.Dy() == 0 || viewSize.Width <= 0 || viewSize.Height <= 0 {
		return
	}

	zoomX := float64(viewSize.Width) / float64(b.Dx())
	zoomY := float64(viewSize.Height) / float64(b.Dy())
	zoom := zoomX
	if zoomY < zoomX {
		zoom = zoomY
	}
	if zoom > 1.0 {
		zoom = 1.0
	}
	ac.SetZoom(zoom)
}

// GetFitToWindow returns the current fit-to-window state.
func (ac *AnnotationCanvas) GetFitToWindow() bool {
	return ac.fitToWindow
}

// SetFitToWindow enables or disables auto-fit on resize.
func (ac *AnnotationCanvas) SetFitToWindow(fit bool) {
	ac.fitToWindow = fit
	if fit {
		ac.FitToWindow()
	}
}

// OnZoomChange sets a callback for zoom changes.
func (ac *AnnotationCanvas) OnZoomChange(callback func(zoom float64)) {
	ac.onZoomChange = callback
}

// OnGestureError sets a callback for rejected gestures, such as drawing
// with no class defined.
func (ac *AnnotationCanvas) OnGestureError(callback func(err error)) {
	ac.onGestureErr = callback
}

// OnChanged sets a callback fired after a gesture that may have mutated
// the annotation set.
func (ac *AnnotationCanvas) OnChanged(callback func()) {
	ac.onChanged = callback
}

func (ac *AnnotationCanvas) notifyChanged() {
	if ac.onChanged != nil {
		ac.onChanged()
	}
}

// Refresh redraws the canvas.
func (ac *AnnotationCanvas) Refresh() {
	ac.raster.Refresh()
}

// updateContentSize resizes the content to the zoomed image size so the
// scroll container can pan over it.
func (ac *AnnotationCanvas) updateContentSize() {
	zoom := ac.Zoom()
	if ac.base == nil {
		ac.imgSize = fyne.NewSize(400, 300)
	} else {
		b := ac.base.Bounds()
		ac.imgSize = fyne.NewSize(
			float32(float64(b.Dx())*zoom),
			float32(float64(b.Dy())*zoom),
		)
	}

	ac.raster.SetMinSize(ac.imgSize)
	ac.raster.Resize(ac.imgSize)
	if ac.content != nil {
		ac.content.Resize(ac.imgSize)
		ac.content.Refresh()
	}
	ac.raster.Refresh()
	if ac.scroll != nil {
		ac.scroll.Refresh()
	}
}

// draw is the raster drawing function.
func (ac *AnnotationCanvas) draw(w, h int) image.Image {
	currentSize := fyne.NewSize(float32(w), float32(h))
	if ac.fitToWindow && currentSize != ac.lastScrollSize && w > 0 && h > 0 {
		ac.lastScrollSize = currentSize
		go func() {
			ac.FitToWindow()
		}()
	}
	return ac.renderer.Render(w, h, ac.base, ac.session)
}

func (ac *AnnotationCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(ac.scroll)
}
