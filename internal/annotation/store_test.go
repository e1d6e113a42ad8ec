package annotation

import (
	"testing"

	"github.com/splat1745/VsionLab/pkg/geometry"
)

func TestStoreAddGetIsolated(t *testing.T) {
	s := NewStore()
	idx := s.Add(NewBox(1, geometry.NewRect(10, 10, 50, 50)))
	if idx != 0 {
		t.Fatalf("Add returned %d, want 0", idx)
	}

	got, ok := s.Get(0)
	if !ok {
		t.Fatal("Get(0) missing")
	}

	// Mutating the returned copy must not affect the store.
	got.Box.X = 999
	again, _ := s.Get(0)
	if again.Box.X != 10 {
		t.Errorf("store mutated through Get copy: X = %v", again.Box.X)
	}
}

func TestStoreUpdateOutOfRange(t *testing.T) {
	s := NewStore()
	s.Add(NewBox(1, geometry.NewRect(0, 0, 20, 20)))

	if s.Update(5, NewBox(1, geometry.NewRect(1, 1, 1, 1))) {
		t.Error("Update out of range succeeded")
	}
	if s.Update(-1, NewBox(1, geometry.NewRect(1, 1, 1, 1))) {
		t.Error("Update(-1) succeeded")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestStoreRemoveShiftsIndices(t *testing.T) {
	s := NewStore()
	s.Add(NewBox(1, geometry.NewRect(0, 0, 10, 10)))
	s.Add(NewBox(2, geometry.NewRect(20, 0, 10, 10)))
	s.Add(NewBox(3, geometry.NewRect(40, 0, 10, 10)))

	if !s.Remove(1) {
		t.Fatal("Remove(1) failed")
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	got, _ := s.Get(1)
	if got.ClassID != 3 {
		t.Errorf("index 1 class = %d, want 3 after shift", got.ClassID)
	}
}

func TestStoreSnapshotIsDeepCopy(t *testing.T) {
	s := NewStore()
	s.Add(NewPolygon(1, []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 10}}))

	snap := s.Snapshot()
	snap[0].Points[0].X = 999

	got, _ := s.Get(0)
	if got.Points[0].X != 0 {
		t.Errorf("snapshot shares point storage with store: X = %v", got.Points[0].X)
	}
}

func TestStoreReplace(t *testing.T) {
	s := NewStore()
	s.Add(NewBox(1, geometry.NewRect(0, 0, 10, 10)))

	next := []Annotation{
		NewBox(2, geometry.NewRect(1, 1, 5, 5)),
		NewBox(3, geometry.NewRect(2, 2, 5, 5)),
	}
	s.Replace(next)

	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	// Replace must copy, not alias.
	next[0].Box.X = 999
	got, _ := s.Get(0)
	if got.Box.X != 1 {
		t.Errorf("Replace aliased caller slice: X = %v", got.Box.X)
	}
}
