package log

// InMemoryLog is the engine's default Log: an append-only slice retained
// for the run's lifetime and returned verbatim in the result. A run that
// needs durable logs supplies its own Log (e.g. a DuckDB-backed one in
// internal/writer) instead of this default.
type InMemoryLog struct {
	entries []Entry
}

// NewInMemoryLog returns an empty in-memory Log.
func NewInMemoryLog() *InMemoryLog {
	return &InMemoryLog{}
}

func (l *InMemoryLog) Log(entry Entry) error {
	l.entries = append(l.entries, entry)
	return nil
}

func (l *InMemoryLog) Entries() ([]Entry, error) {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)

	return out, nil
}

var _ Log = (*InMemoryLog)(nil)
