// Package editor implements the interactive annotation editor: the
// viewport transform, the pointer/keyboard state machine, and the
// renderer that redraws the frame after every state change.
package editor

import (
	"github.com/splat1745/VsionLab/pkg/geometry"
)

// Zoom clamp range. Requests outside the range silently clamp.
const (
	MinZoom = 0.1
	MaxZoom = 5.0
)

// Viewport maps between screen space (pointer/rendering surface pixels)
// and image space (intrinsic image pixels) given zoom and pan.
type Viewport struct {
	Zoom float64
	Pan  geometry.Point2D
}

// NewViewport returns a viewport at 100% with no pan.
func NewViewport() Viewport {
	return Viewport{Zoom: 1.0}
}

// SetZoom clamps factor to [MinZoom, MaxZoom] and applies it.
func (v *Viewport) SetZoom(factor float64) {
	if factor < MinZoom {
		factor = MinZoom
	}
	if factor > MaxZoom {
		factor = MaxZoom
	}
	v.Zoom = factor
}

// ToImage converts a screen-space point to image space.
func (v Viewport) ToImage(p geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{
		X: (p.X - v.Pan.X) / v.Zoom,
		Y: (p.Y - v.Pan.Y) / v.Zoom,
	}
}

// ToScreen converts an image-space point to screen space.
func (v Viewport) ToScreen(p geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{
		X: p.X*v.Zoom + v.Pan.X,
		Y: p.Y*v.Zoom + v.Pan.Y,
	}
}

// FitToContainer computes the zoom that fits the image inside the
// container, capped at 100% so small images are never blown up, and
// centers the pan offset. Degenerate sizes leave the viewport unchanged.
func (v *Viewport) FitToContainer(imageSize, containerSize geometry.Size) {
	if imageSize.Width <= 0 || imageSize.Height <= 0 ||
		containerSize.Width <= 0 || containerSize.Height <= 0 {
		return
	}

	zoom := containerSize.Width / imageSize.Width
	if zy := containerSize.Height / imageSize.Height; zy < zoom {
		zoom = zy
	}
	if zoom > 1.0 {
		zoom = 1.0
	}
	v.SetZoom(zoom)

	v.Pan = geometry.Point2D{
		X: (containerSize.Width - imageSize.Width*v.Zoom) / 2,
		Y: (containerSize.Height - imageSize.Height*v.Zoom) / 2,
	}
}

// Reset restores 100% zoom and zero pan, used on image switch.
func (v *Viewport) Reset() {
	v.Zoom = 1.0
	v.Pan = geometry.Point2D{}
}
