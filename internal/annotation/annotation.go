// Package annotation defines the editable annotation records for a single
// image: bounding boxes and polygons, the ordered store that holds them,
// and the snapshot history used for undo/redo.
package annotation

import (
	"encoding/json"
	"fmt"

	"github.com/splat1745/VsionLab/pkg/geometry"
)

// Kind discriminates the annotation shape variants.
type Kind int

const (
	KindBox Kind = iota
	KindPolygon
)

// Type strings as stored by the backend ("annotation_type" column).
const (
	TypeBox     = "bbox"
	TypePolygon = "polygon"
)

// Class is a project-scoped label definition. Color is a "#RRGGBB" string.
type Class struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Annotation is a tagged union over the shape kinds. Box is valid for
// KindBox, Points for KindPolygon. Coordinates are image-pixel space.
type Annotation struct {
	Kind    Kind
	ClassID int
	Box     geometry.Rect
	Points  []geometry.Point2D
}

// NewBox creates a bounding-box annotation.
func NewBox(classID int, box geometry.Rect) Annotation {
	return Annotation{Kind: KindBox, ClassID: classID, Box: box}
}

// NewPolygon creates a polygon annotation. The points are copied.
func NewPolygon(classID int, points []geometry.Point2D) Annotation {
	pts := make([]geometry.Point2D, len(points))
	copy(pts, points)
	return Annotation{Kind: KindPolygon, ClassID: classID, Points: pts}
}

// Clone returns a deep copy of the annotation.
func (a Annotation) Clone() Annotation {
	c := a
	if a.Points != nil {
		c.Points = make([]geometry.Point2D, len(a.Points))
		copy(c.Points, a.Points)
	}
	return c
}

// Bounds returns the axis-aligned bounding rectangle of the shape.
func (a Annotation) Bounds() geometry.Rect {
	switch a.Kind {
	case KindPolygon:
		return geometry.BoundingBox(a.Points)
	default:
		return a.Box
	}
}

// Contains reports whether the image-space point hits the shape.
func (a Annotation) Contains(p geometry.Point2D) bool {
	switch a.Kind {
	case KindPolygon:
		return geometry.PointInPolygon(p, a.Points)
	default:
		return a.Box.Contains(p)
	}
}

// TypeString returns the backend type string for the shape kind.
func (a Annotation) TypeString() string {
	if a.Kind == KindPolygon {
		return TypePolygon
	}
	return TypeBox
}

// boxData and polygonData match the backend's "data" payloads.
type boxData struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type polygonData struct {
	Points []geometry.Point2D `json:"points"`
}

// DataJSON encodes the shape payload ({x,y,width,height} or {points}).
func (a Annotation) DataJSON() ([]byte, error) {
	switch a.Kind {
	case KindPolygon:
		return json.Marshal(polygonData{Points: a.Points})
	default:
		return json.Marshal(boxData{X: a.Box.X, Y: a.Box.Y, Width: a.Box.Width, Height: a.Box.Height})
	}
}

// FromParts reassembles an annotation from its stored columns.
func FromParts(classID int, typ string, data []byte) (Annotation, error) {
	switch typ {
	case TypeBox:
		var d boxData
		if err := json.Unmarshal(data, &d); err != nil {
			return Annotation{}, fmt.Errorf("decode bbox data: %w", err)
		}
		return NewBox(classID, geometry.NewRect(d.X, d.Y, d.Width, d.Height)), nil
	case TypePolygon:
		var d polygonData
		if err := json.Unmarshal(data, &d); err != nil {
			return Annotation{}, fmt.Errorf("decode polygon data: %w", err)
		}
		return NewPolygon(classID, d.Points), nil
	default:
		return Annotation{}, fmt.Errorf("unknown annotation type %q", typ)
	}
}

// record is the wire shape shared with the backend.
type record struct {
	ClassID int             `json:"class_id"`
	Type    string          `json:"annotation_type"`
	Data    json.RawMessage `json:"data"`
}

// MarshalJSON encodes the annotation as
// {class_id, annotation_type, data: {...}}.
func (a Annotation) MarshalJSON() ([]byte, error) {
	data, err := a.DataJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(record{ClassID: a.ClassID, Type: a.TypeString(), Data: data})
}

// UnmarshalJSON decodes the backend wire shape.
func (a *Annotation) UnmarshalJSON(b []byte) error {
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	dec, err := FromParts(r.ClassID, r.Type, r.Data)
	if err != nil {
		return err
	}
	*a = dec
	return nil
}
