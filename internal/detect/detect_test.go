package detect

import (
	"errors"
	"testing"

	"github.com/splat1745/VsionLab/internal/annotation"
	"github.com/splat1745/VsionLab/pkg/geometry"
)

func TestDetectionRect(t *testing.T) {
	d := det(0, 10, 20, 110, 70, 0.9)
	if r := d.Rect(); r != geometry.NewRect(10, 20, 100, 50) {
		t.Errorf("Rect = %+v", r)
	}
}

func TestToAnnotations(t *testing.T) {
	classes := []annotation.Class{
		{ID: 1, Name: "person", Color: "#FF0000"},
		{ID: 2, Name: "car", Color: "#00FF00"},
	}
	dets := []Detection{
		det(2, 10, 10, 60, 60, 0.9),
		det(7, 100, 100, 150, 150, 0.8), // unknown class
	}

	anns, err := ToAnnotations(dets, classes)
	if err != nil {
		t.Fatal(err)
	}
	if len(anns) != 2 {
		t.Fatalf("len = %d", len(anns))
	}
	if anns[0].ClassID != 2 || anns[0].Kind != annotation.KindBox {
		t.Errorf("anns[0] = %+v", anns[0])
	}
	if anns[0].Box != geometry.NewRect(10, 10, 50, 50) {
		t.Errorf("box = %+v", anns[0].Box)
	}
	if anns[1].ClassID != 1 {
		t.Errorf("unknown class mapped to %d, want first class 1", anns[1].ClassID)
	}
}

func TestToAnnotationsNoClasses(t *testing.T) {
	_, err := ToAnnotations([]Detection{det(0, 0, 0, 10, 10, 0.5)}, nil)
	if !errors.Is(err, ErrNoClasses) {
		t.Errorf("err = %v, want ErrNoClasses", err)
	}
}

func TestToAnnotationsEmpty(t *testing.T) {
	classes := []annotation.Class{{ID: 1, Name: "person", Color: "#FF0000"}}
	anns, err := ToAnnotations(nil, classes)
	if err != nil || len(anns) != 0 {
		t.Errorf("anns = %v err = %v", anns, err)
	}
}
