package manifest

import (
	"iter"
	"maps"
	"slices"
	"strconv"
)

// Manifest is a versioned table of assets keyed by logical path.
//
// A Manifest is not safe for concurrent use; callers coordinate access.
type Manifest struct {
	Version uint32
	Name    string

	files map[string]Entry
}

// New returns an empty manifest for the given version. An empty name
// defaults to the decimal form of the version number.
func New(version uint32, name string) *Manifest {
	if name == "" {
		name = strconv.FormatUint(uint64(version), 10)
	}
	return &Manifest{
		Version: version,
		Name:    name,
		files:   make(map[string]Entry),
	}
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.files)
}

// Get returns the entry for path.
func (m *Manifest) Get(path string) (Entry, bool) {
	e, ok := m.files[path]
	return e, ok
}

// Set records the entry for path, replacing any previous one.
func (m *Manifest) Set(path string, e Entry) {
	if m.files == nil {
		m.files = make(map[string]Entry)
	}
	m.files[path] = e
}

// Take removes and returns the entry for path.
func (m *Manifest) Take(path string) (Entry, bool) {
	e, ok := m.files[path]
	if ok {
		delete(m.files, path)
	}
	return e, ok
}

// Paths returns all paths in sorted order.
func (m *Manifest) Paths() []string {
	return slices.Sorted(maps.Keys(m.files))
}

// All iterates over entries in sorted path order.
func (m *Manifest) All() iter.Seq2[string, Entry] {
	return func(yield func(string, Entry) bool) {
		for _, p := range m.Paths() {
			if !yield(p, m.files[p]) {
				return
			}
		}
	}
}
