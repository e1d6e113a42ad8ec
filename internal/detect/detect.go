// Package detect provides object-detection types, the converter that turns
// raw detections into annotation records, and a gocv-backed YOLO detector.
package detect

import (
	"errors"
	"image"

	"github.com/splat1745/VsionLab/internal/annotation"
	"github.com/splat1745/VsionLab/pkg/geometry"
)

// ErrNoClasses is returned when detections cannot be imported because the
// project defines no classes to fall back to.
var ErrNoClasses = errors.New("no classes defined")

// Detection is a machine-generated candidate annotation. The box is in
// image-pixel corner form. Confidence is display-only once imported.
type Detection struct {
	ClassID    int     `json:"class_id"`
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence"`
}

// Rect returns the detection box as an x/y/w/h rectangle.
func (d Detection) Rect() geometry.Rect {
	return geometry.NewRect(d.X1, d.Y1, d.X2-d.X1, d.Y2-d.Y1)
}

// Detector runs inference on a single image. Implementations must be safe
// for sequential reuse; they are not required to be goroutine safe.
type Detector interface {
	Infer(img image.Image, confidence, iouThreshold float64) ([]Detection, error)
}

// ToAnnotations converts detections into bounding-box annotation records.
// A detection whose class id does not resolve against classes is assigned
// the first defined class. With no classes at all the import is refused.
func ToAnnotations(dets []Detection, classes []annotation.Class) ([]annotation.Annotation, error) {
	if len(classes) == 0 {
		return nil, ErrNoClasses
	}

	known := make(map[int]bool, len(classes))
	for _, c := range classes {
		known[c.ID] = true
	}
	fallback := classes[0].ID

	out := make([]annotation.Annotation, 0, len(dets))
	for _, d := range dets {
		classID := d.ClassID
		if !known[classID] {
			classID = fallback
		}
		out = append(out, annotation.NewBox(classID, d.Rect()))
	}
	return out, nil
}
