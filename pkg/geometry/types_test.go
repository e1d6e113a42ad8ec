package geometry

import (
	"math"
	"testing"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestRectFromCornersNormalizes(t *testing.T) {
	r := RectFromCorners(Point2D{X: 100, Y: 80}, Point2D{X: 10, Y: 20})
	if !almostEqual(r.X, 10) || !almostEqual(r.Y, 20) {
		t.Errorf("origin = (%v, %v), want (10, 20)", r.X, r.Y)
	}
	if !almostEqual(r.Width, 90) || !almostEqual(r.Height, 60) {
		t.Errorf("size = (%v, %v), want (90, 60)", r.Width, r.Height)
	}
}

func TestRectContains(t *testing.T) {
	r := NewRect(10, 10, 50, 30)
	cases := []struct {
		p    Point2D
		want bool
	}{
		{Point2D{X: 10, Y: 10}, true},
		{Point2D{X: 60, Y: 40}, true},
		{Point2D{X: 35, Y: 25}, true},
		{Point2D{X: 9.99, Y: 25}, false},
		{Point2D{X: 35, Y: 40.01}, false},
	}
	for _, tc := range cases {
		if got := r.Contains(tc.p); got != tc.want {
			t.Errorf("Contains(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestRectIntersection(t *testing.T) {
	a := NewRect(0, 0, 100, 100)
	b := NewRect(50, 50, 100, 100)
	got := a.Intersection(b)
	want := NewRect(50, 50, 50, 50)
	if got != want {
		t.Errorf("Intersection = %+v, want %+v", got, want)
	}

	c := NewRect(200, 200, 10, 10)
	if empty := a.Intersection(c); empty.Area() != 0 {
		t.Errorf("disjoint intersection area = %v, want 0", empty.Area())
	}
	if a.Intersects(c) {
		t.Error("Intersects reported true for disjoint rects")
	}
}

func TestBoundingBox(t *testing.T) {
	pts := []Point2D{{X: 30, Y: 5}, {X: 10, Y: 25}, {X: 50, Y: 15}}
	r := BoundingBox(pts)
	if !almostEqual(r.X, 10) || !almostEqual(r.Y, 5) ||
		!almostEqual(r.Width, 40) || !almostEqual(r.Height, 20) {
		t.Errorf("BoundingBox = %+v", r)
	}
}

func TestCentroid(t *testing.T) {
	pts := []Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	c := Centroid(pts)
	if !almostEqual(c.X, 5) || !almostEqual(c.Y, 5) {
		t.Errorf("Centroid = %+v, want (5, 5)", c)
	}
}

func TestPointDistance(t *testing.T) {
	d := Point2D{X: 0, Y: 0}.Distance(Point2D{X: 3, Y: 4})
	if !almostEqual(d, 5) {
		t.Errorf("Distance = %v, want 5", d)
	}
}
