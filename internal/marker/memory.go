package marker

// InMemoryMarker is the engine's default Marker: an append-only slice
// retained for the run's lifetime and returned verbatim in the result.
type InMemoryMarker struct {
	marks []Mark
}

// NewInMemoryMarker returns an empty in-memory Marker.
func NewInMemoryMarker() *InMemoryMarker {
	return &InMemoryMarker{}
}

func (m *InMemoryMarker) Mark(mark Mark) error {
	m.marks = append(m.marks, mark)
	return nil
}

func (m *InMemoryMarker) Marks() ([]Mark, error) {
	out := make([]Mark, len(m.marks))
	copy(out, m.marks)

	return out, nil
}

var _ Marker = (*InMemoryMarker)(nil)
