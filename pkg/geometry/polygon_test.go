package geometry

import "testing"

func TestPointInPolygon(t *testing.T) {
	square := []Point2D{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
	}

	if !PointInPolygon(Point2D{X: 5, Y: 5}, square) {
		t.Error("center of square reported outside")
	}
	if PointInPolygon(Point2D{X: 15, Y: 5}, square) {
		t.Error("point right of square reported inside")
	}
	if PointInPolygon(Point2D{X: -1, Y: -1}, square) {
		t.Error("point below-left of square reported inside")
	}
}

func TestPointInPolygonConcave(t *testing.T) {
	// L shape: the notch at the top right is outside.
	l := []Point2D{
		{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 8},
		{X: 8, Y: 8}, {X: 8, Y: 12}, {X: 0, Y: 12},
	}

	if !PointInPolygon(Point2D{X: 2, Y: 6}, l) {
		t.Error("point in vertical arm reported outside")
	}
	if PointInPolygon(Point2D{X: 6, Y: 4}, l) {
		t.Error("point in notch reported inside")
	}
}

func TestPointInPolygonDegenerate(t *testing.T) {
	if PointInPolygon(Point2D{X: 1, Y: 1}, []Point2D{{X: 0, Y: 0}, {X: 2, Y: 2}}) {
		t.Error("two-point polygon should contain nothing")
	}
	if PointInPolygon(Point2D{X: 1, Y: 1}, nil) {
		t.Error("empty polygon should contain nothing")
	}
}
