// Package placement reads the placement index that assigns assets to
// destination archives.
//
// The index is produced by an external tool and is never modified here.
// It is FlatBuffers-encoded (see internal/fb/placement.fbs) and maps:
//
//   - archive id to the archive's declared path
//   - path fingerprint to (archive id, category)
//
// A category whose low byte is nonzero means the asset is stored compressed.
package placement

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/meigma/patchkit/internal/fb"
)

// ErrMalformed is returned when index data cannot be decoded or is
// internally inconsistent.
var ErrMalformed = errors.New("placement: malformed index")

// minIndexSize is the smallest buffer holding a root offset and a vtable.
const minIndexSize = 8

// Archive is a destination archive.
type Archive struct {
	ID   uint32
	Path string
}

// Placement locates one asset.
type Placement struct {
	Archive  uint32
	Category uint32
}

// Compressed reports whether the asset is stored compressed in its archive.
func (p Placement) Compressed() bool {
	return p.Category&0xFF != 0
}

// Index is a decoded placement index.
type Index struct {
	archives   map[uint32]Archive
	placements map[uint32]Placement
}

// LoadFile reads and decodes the index stored at path.
func LoadFile(path string) (*Index, error) {
	data, err := os.ReadFile(path) //nolint:gosec // index path is operator supplied
	if err != nil {
		return nil, err
	}
	idx, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return idx, nil
}

// Load decodes index data.
func Load(data []byte) (idx *Index, err error) {
	if len(data) < minIndexSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformed, len(data))
	}
	// Accessors index straight into the buffer; corrupt offsets panic.
	defer func() {
		if r := recover(); r != nil {
			idx, err = nil, fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()
	return decode(fb.GetRootAsIndex(data, 0))
}

func decode(root *fb.Index) (*Index, error) {
	idx := &Index{
		archives:   make(map[uint32]Archive, root.ArchivesLength()),
		placements: make(map[uint32]Placement, root.PlacementsLength()),
	}

	var a fb.Archive
	for i := range root.ArchivesLength() {
		if !root.Archives(&a, i) {
			return nil, fmt.Errorf("%w: archive %d unreadable", ErrMalformed, i)
		}
		id := a.Id()
		if _, dup := idx.archives[id]; dup {
			return nil, fmt.Errorf("%w: duplicate archive id %d", ErrMalformed, id)
		}
		path := string(a.Path())
		if path == "" {
			return nil, fmt.Errorf("%w: archive %d has no path", ErrMalformed, id)
		}
		idx.archives[id] = Archive{ID: id, Path: path}
	}

	var p fb.Placement
	for i := range root.PlacementsLength() {
		if !root.Placements(&p, i) {
			return nil, fmt.Errorf("%w: placement %d unreadable", ErrMalformed, i)
		}
		fp := p.Fingerprint()
		if _, dup := idx.placements[fp]; dup {
			return nil, fmt.Errorf("%w: duplicate fingerprint %08x", ErrMalformed, fp)
		}
		archive := p.Archive()
		if _, ok := idx.archives[archive]; !ok {
			return nil, fmt.Errorf("%w: fingerprint %08x references unknown archive %d", ErrMalformed, fp, archive)
		}
		idx.placements[fp] = Placement{Archive: archive, Category: p.Category()}
	}
	return idx, nil
}

// Lookup returns the placement of the asset with fingerprint fp.
func (x *Index) Lookup(fp uint32) (Placement, bool) {
	p, ok := x.placements[fp]
	return p, ok
}

// Archive returns the archive with the given id.
func (x *Index) Archive(id uint32) (Archive, bool) {
	a, ok := x.archives[id]
	return a, ok
}

// Archives returns all archives ordered by id.
func (x *Index) Archives() []Archive {
	out := make([]Archive, 0, len(x.archives))
	for _, a := range x.archives {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b Archive) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Len returns the number of placed assets.
func (x *Index) Len() int {
	return len(x.placements)
}
