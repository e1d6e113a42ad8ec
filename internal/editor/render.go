package editor

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/splat1745/VsionLab/internal/annotation"
	"github.com/splat1745/VsionLab/pkg/colorutil"
	"github.com/splat1745/VsionLab/pkg/geometry"
)

const (
	outlineThickness = 2
	fillAlpha        = 60
	handleSize       = 7 // on-screen square side in pixels
	chipHeight       = 14
	chipPadding      = 3
)

// Renderer redraws the full frame: base image under the viewport
// transform, committed annotations with class colors and label chips,
// resize handles on the selection, and the in-progress shape. Rendering
// reads the session but never mutates it; two renders over the same state
// produce identical output.
type Renderer struct{}

// NewRenderer creates a renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render draws a w x h frame for the given base image and session.
func (r *Renderer) Render(w, h int, base image.Image, sess *Session) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))

	// Dark backdrop with opaque alpha.
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i] = 24
		out.Pix[i+1] = 24
		out.Pix[i+2] = 24
		out.Pix[i+3] = 255
	}

	vp := sess.Viewport()
	if base != nil {
		drawBase(out, base, *vp)
	}

	selected := sess.Selected()
	for i, ann := range sess.Store().All() {
		col, label := r.classAppearance(sess, ann.ClassID)
		drawAnnotation(out, ann, *vp, col, label)
		if i == selected && ann.Kind == annotation.KindBox {
			drawHandles(out, ann.Box, *vp, col)
		}
	}

	r.drawInProgress(out, sess)
	return out
}

// classAppearance resolves the display color and label for a class id,
// falling back for dangling references so deleted classes never break the
// redraw.
func (r *Renderer) classAppearance(sess *Session, classID int) (color.RGBA, string) {
	if cls, ok := sess.ClassByID(classID); ok {
		if col, ok := colorutil.ParseHex(cls.Color); ok {
			return col, cls.Name
		}
		return colorutil.Fallback, cls.Name
	}
	return colorutil.Fallback, fmt.Sprintf("class %d", classID)
}

func (r *Renderer) drawInProgress(out *image.RGBA, sess *Session) {
	col := colorutil.Yellow
	if cls, ok := sess.ActiveClass(); ok {
		if c, ok := colorutil.ParseHex(cls.Color); ok {
			col = c
		}
	}
	vp := *sess.Viewport()

	if box, ok := sess.DraftBox(); ok {
		drawDashedRect(out, screenRect(box, vp), col)
	}

	if pts := sess.PolygonBuffer(); len(pts) > 0 {
		prev := vp.ToScreen(pts[0])
		drawSquare(out, int(prev.X), int(prev.Y), 3, col)
		for _, p := range pts[1:] {
			cur := vp.ToScreen(p)
			drawLine(out, int(prev.X), int(prev.Y), int(cur.X), int(cur.Y), col, outlineThickness)
			drawSquare(out, int(cur.X), int(cur.Y), 3, col)
			prev = cur
		}
		// Preview edge from the last committed point to the pointer.
		cur := vp.ToScreen(sess.Cursor())
		drawLine(out, int(prev.X), int(prev.Y), int(cur.X), int(cur.Y), col, 1)
	}
}

// drawBase samples the base image through the inverse viewport transform,
// nearest neighbor.
func drawBase(out *image.RGBA, base image.Image, vp Viewport) {
	bounds := out.Bounds()
	src := base.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			p := vp.ToImage(geometry.Point2D{X: float64(x), Y: float64(y)})
			sx := int(p.X) + src.Min.X
			sy := int(p.Y) + src.Min.Y
			if p.X < 0 || p.Y < 0 || sx >= src.Max.X || sy >= src.Max.Y {
				continue
			}
			out.Set(x, y, base.At(sx, sy))
		}
	}
}

func drawAnnotation(out *image.RGBA, ann annotation.Annotation, vp Viewport, col color.RGBA, label string) {
	switch ann.Kind {
	case annotation.KindPolygon:
		drawPolygonShape(out, ann.Points, vp, col)
	default:
		rect := screenRect(ann.Box, vp)
		fillRectAlpha(out, rect, colorutil.WithAlpha(col, fillAlpha))
		drawRectOutline(out, rect, col, outlineThickness)
	}
	// Label chip above the shape's top-left corner.
	tl := vp.ToScreen(ann.Bounds().TopLeft())
	drawLabelChip(out, label, int(tl.X), int(tl.Y), col)
}

func drawPolygonShape(out *image.RGBA, pts []geometry.Point2D, vp Viewport, col color.RGBA) {
	if len(pts) < 3 {
		return
	}
	screen := make([]geometry.Point2D, len(pts))
	for i, p := range pts {
		screen[i] = vp.ToScreen(p)
	}
	fillPolygonAlpha(out, screen, colorutil.WithAlpha(col, fillAlpha))
	n := len(screen)
	for i := 0; i < n; i++ {
		a := screen[i]
		b := screen[(i+1)%n]
		drawLine(out, int(a.X), int(a.Y), int(b.X), int(b.Y), col, outlineThickness)
	}
}

func drawHandles(out *image.RGBA, box geometry.Rect, vp Viewport, col color.RGBA) {
	for _, c := range BoxHandles(box) {
		p := vp.ToScreen(c)
		drawSquare(out, int(p.X), int(p.Y), handleSize/2, colorutil.White)
		drawSquareOutline(out, int(p.X), int(p.Y), handleSize/2, col)
	}
}

type screenRectangle struct {
	x1, y1, x2, y2 int
}

func screenRect(r geometry.Rect, vp Viewport) screenRectangle {
	tl := vp.ToScreen(r.TopLeft())
	br := vp.ToScreen(r.BottomRight())
	return screenRectangle{x1: int(tl.X), y1: int(tl.Y), x2: int(br.X), y2: int(br.Y)}
}

// drawRectOutline draws an axis-aligned rectangle outline with thickness.
func drawRectOutline(out *image.RGBA, r screenRectangle, col color.RGBA, thickness int) {
	bounds := out.Bounds()
	x1, x2 := clampSpan(r.x1, r.x2, bounds.Min.X, bounds.Max.X-1)
	y1, y2 := clampSpan(r.y1, r.y2, bounds.Min.Y, bounds.Max.Y-1)
	for t := 0; t < thickness; t++ {
		for x := x1; x <= x2; x++ {
			setIn(out, bounds, x, r.y1+t, col)
			setIn(out, bounds, x, r.y2-t, col)
		}
		for y := y1; y <= y2; y++ {
			setIn(out, bounds, r.x1+t, y, col)
			setIn(out, bounds, r.x2-t, y, col)
		}
	}
}

// drawDashedRect draws a 1px dashed outline, alternating 2-on 2-off.
func drawDashedRect(out *image.RGBA, r screenRectangle, col color.RGBA) {
	bounds := out.Bounds()
	x1, x2 := clampSpan(r.x1, r.x2, bounds.Min.X, bounds.Max.X-1)
	y1, y2 := clampSpan(r.y1, r.y2, bounds.Min.Y, bounds.Max.Y-1)
	for x := x1; x <= x2; x++ {
		if (x+r.y1)%4 < 2 {
			setIn(out, bounds, x, r.y1, col)
		}
		if (x+r.y2)%4 < 2 {
			setIn(out, bounds, x, r.y2, col)
		}
	}
	for y := y1; y <= y2; y++ {
		if (r.x1+y)%4 < 2 {
			setIn(out, bounds, r.x1, y, col)
		}
		if (r.x2+y)%4 < 2 {
			setIn(out, bounds, r.x2, y, col)
		}
	}
}

// fillRectAlpha blends a translucent fill over the rectangle interior.
func fillRectAlpha(out *image.RGBA, r screenRectangle, col color.RGBA) {
	bounds := out.Bounds()
	x1, x2 := clampSpan(r.x1, r.x2, bounds.Min.X, bounds.Max.X-1)
	y1, y2 := clampSpan(r.y1, r.y2, bounds.Min.Y, bounds.Max.Y-1)
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			blendIn(out, bounds, x, y, col)
		}
	}
}

// clampSpan trims an inclusive [lo, hi] run to [min, max]. A run entirely
// outside comes back empty (lo > hi), never pinned to the border.
func clampSpan(lo, hi, min, max int) (int, int) {
	if lo < min {
		lo = min
	}
	if hi > max {
		hi = max
	}
	return lo, hi
}

// fillPolygonAlpha scanline-fills a polygon with a translucent color. The
// scan range is trimmed to the frame first so annotations loaded with
// far-out-of-view coordinates cost nothing.
func fillPolygonAlpha(out *image.RGBA, pts []geometry.Point2D, col color.RGBA) {
	bounds := out.Bounds()
	box := geometry.BoundingBox(pts)
	minY, maxY := clampSpan(int(box.Y), int(box.Y+box.Height), bounds.Min.Y, bounds.Max.Y-1)
	n := len(pts)

	for y := minY; y <= maxY; y++ {
		fy := float64(y)
		var xs []float64
		for i := 0; i < n; i++ {
			p1 := pts[i]
			p2 := pts[(i+1)%n]
			if (p1.Y <= fy && p2.Y > fy) || (p2.Y <= fy && p1.Y > fy) {
				t := (fy - p1.Y) / (p2.Y - p1.Y)
				xs = append(xs, p1.X+t*(p2.X-p1.X))
			}
		}
		// Insertion sort; crossing counts are tiny.
		for i := 1; i < len(xs); i++ {
			for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
				xs[j], xs[j-1] = xs[j-1], xs[j]
			}
		}
		for i := 0; i+1 < len(xs); i += 2 {
			x1, x2 := clampSpan(int(xs[i]), int(xs[i+1]), bounds.Min.X, bounds.Max.X-1)
			for x := x1; x <= x2; x++ {
				blendIn(out, bounds, x, y, col)
			}
		}
	}
}

// clipSegment trims a segment to a rectangle (Liang-Barsky). Returns
// false when the segment misses the rectangle entirely.
func clipSegment(x1, y1, x2, y2, minX, minY, maxX, maxY float64) (float64, float64, float64, float64, bool) {
	dx := x2 - x1
	dy := y2 - y1
	t0, t1 := 0.0, 1.0
	p := [4]float64{-dx, dx, -dy, dy}
	q := [4]float64{x1 - minX, maxX - x1, y1 - minY, maxY - y1}
	for i := 0; i < 4; i++ {
		if p[i] == 0 {
			if q[i] < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q[i] / p[i]
		if p[i] < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			if r < t1 {
				t1 = r
			}
		}
	}
	return x1 + t0*dx, y1 + t0*dy, x1 + t1*dx, y1 + t1*dy, true
}

// drawLine draws a thick line using Bresenham's algorithm. Endpoints are
// clipped to the frame (padded by the thickness) first, so segments
// reaching far outside the view stay cheap.
func drawLine(out *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	bounds := out.Bounds()

	pad := float64(thickness + 1)
	cx1, cy1, cx2, cy2, ok := clipSegment(
		float64(x1), float64(y1), float64(x2), float64(y2),
		float64(bounds.Min.X)-pad, float64(bounds.Min.Y)-pad,
		float64(bounds.Max.X)+pad, float64(bounds.Max.Y)+pad,
	)
	if !ok {
		return
	}
	x1, y1, x2, y2 = int(cx1), int(cy1), int(cx2), int(cy2)

	dx := x2 - x1
	if dx < 0 {
		dx = -dx
	}
	dy := y2 - y1
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy
	for {
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				setIn(out, bounds, x1+s, y1+t, col)
			}
		}
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawSquare draws a filled square centered at (cx, cy).
func drawSquare(out *image.RGBA, cx, cy, half int, col color.RGBA) {
	bounds := out.Bounds()
	for y := cy - half; y <= cy+half; y++ {
		for x := cx - half; x <= cx+half; x++ {
			setIn(out, bounds, x, y, col)
		}
	}
}

func drawSquareOutline(out *image.RGBA, cx, cy, half int, col color.RGBA) {
	bounds := out.Bounds()
	for x := cx - half; x <= cx+half; x++ {
		setIn(out, bounds, x, cy-half, col)
		setIn(out, bounds, x, cy+half, col)
	}
	for y := cy - half; y <= cy+half; y++ {
		setIn(out, bounds, cx-half, y, col)
		setIn(out, bounds, cx+half, y, col)
	}
}

// drawLabelChip draws a filled chip with the class name just above the
// anchor point, clamped into the frame.
func drawLabelChip(out *image.RGBA, label string, x, y int, col color.RGBA) {
	if label == "" {
		return
	}
	face := basicfont.Face7x13
	textW := font.MeasureString(face, label).Ceil()

	chipW := textW + 2*chipPadding
	cx1 := x
	cy1 := y - chipHeight
	if cy1 < 0 {
		cy1 = y
	}
	if cx1 < 0 {
		cx1 = 0
	}
	if !image.Rect(cx1, cy1, cx1+chipW+1, cy1+chipHeight+1).Overlaps(out.Bounds()) {
		return
	}

	fillRectAlpha(out, screenRectangle{x1: cx1, y1: cy1, x2: cx1 + chipW, y2: cy1 + chipHeight}, col)

	d := font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(chipTextColor(col)),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(cx1 + chipPadding),
			Y: fixed.I(cy1 + chipHeight - chipPadding),
		},
	}
	d.DrawString(label)
}

// chipTextColor picks black or white for contrast against the chip fill.
func chipTextColor(c color.RGBA) color.RGBA {
	luma := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	if luma > 140 {
		return colorutil.Black
	}
	return colorutil.White
}

func setIn(out *image.RGBA, bounds image.Rectangle, x, y int, col color.RGBA) {
	if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
		out.SetRGBA(x, y, col)
	}
}

// blendIn source-over blends a translucent color onto the frame.
func blendIn(out *image.RGBA, bounds image.Rectangle, x, y int, col color.RGBA) {
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return
	}
	dst := out.RGBAAt(x, y)
	alpha := float64(col.A) / 255.0
	inv := 1 - alpha
	out.SetRGBA(x, y, color.RGBA{
		R: uint8(float64(col.R)*alpha + float64(dst.R)*inv),
		G: uint8(float64(col.G)*alpha + float64(dst.G)*inv),
		B: uint8(float64(col.B)*alpha + float64(dst.B)*inv),
		A: 255,
	})
}
