package annotation

// Store is the ordered in-memory collection of annotations for the
// currently open image. Indices are stable identities until a removal or
// a history restore. The store never snapshots itself; callers decide
// when a logical user action begins and push to History first.
type Store struct {
	items []Annotation
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Add appends an annotation and returns its index.
func (s *Store) Add(a Annotation) int {
	s.items = append(s.items, a.Clone())
	return len(s.items) - 1
}

// Update replaces the annotation at index. Out-of-range updates are no-ops.
func (s *Store) Update(index int, a Annotation) bool {
	if index < 0 || index >= len(s.items) {
		return false
	}
	s.items[index] = a.Clone()
	return true
}

// Remove deletes the annotation at index, shifting later indices down.
func (s *Store) Remove(index int) bool {
	if index < 0 || index >= len(s.items) {
		return false
	}
	s.items = append(s.items[:index], s.items[index+1:]...)
	return true
}

// Get returns the annotation at index.
func (s *Store) Get(index int) (Annotation, bool) {
	if index < 0 || index >= len(s.items) {
		return Annotation{}, false
	}
	return s.items[index].Clone(), true
}

// All returns a deep copy of the collection in insertion order.
func (s *Store) All() []Annotation {
	return cloneAll(s.items)
}

// Len returns the number of annotations.
func (s *Store) Len() int {
	return len(s.items)
}

// Replace swaps the whole collection, used by history restores and when
// loading a saved annotation set. The input is copied.
func (s *Store) Replace(items []Annotation) {
	s.items = cloneAll(items)
}

// Snapshot returns a deep copy suitable for pushing onto the history.
func (s *Store) Snapshot() []Annotation {
	return cloneAll(s.items)
}

func cloneAll(items []Annotation) []Annotation {
	out := make([]Annotation, len(items))
	for i, a := range items {
		out[i] = a.Clone()
	}
	return out
}
