package archive

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Reader gives access to the entries of a finalized archive.
type Reader struct {
	f       *os.File
	entries []Entry
	byFP    map[uint32]int
}

// Open opens the archive at path and reads its directory.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path) //nolint:gosec // archive path is operator supplied
	if err != nil {
		return nil, err
	}
	r, err := newReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

func newReader(f *os.File) (*Reader, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size < headerSize+trailerSize {
		return nil, fmt.Errorf("%w: too small", ErrCorrupt)
	}

	var header [headerSize]byte
	if _, err := f.ReadAt(header[:], 0); err != nil {
		return nil, err
	}
	if string(header[:4]) != magic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if v := binary.LittleEndian.Uint32(header[4:]); v != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}

	var trailer [trailerSize]byte
	if _, err := f.ReadAt(trailer[:], size-trailerSize); err != nil {
		return nil, err
	}
	if string(trailer[16:]) != magic {
		return nil, fmt.Errorf("%w: bad trailer", ErrCorrupt)
	}
	dirOff := binary.LittleEndian.Uint64(trailer[0:])
	dirLen := binary.LittleEndian.Uint64(trailer[8:])
	//nolint:gosec // size is positive
	if dirOff < headerSize || dirOff+dirLen != uint64(size-trailerSize) {
		return nil, fmt.Errorf("%w: directory extent out of range", ErrCorrupt)
	}

	data := make([]byte, dirLen)
	if _, err := f.ReadAt(data, int64(dirOff)); err != nil { //nolint:gosec // range checked above
		return nil, err
	}
	var dir []dirEntry
	if err := decMode.Unmarshal(data, &dir); err != nil {
		return nil, fmt.Errorf("%w: directory: %w", ErrCorrupt, err)
	}

	r := &Reader{f: f, entries: make([]Entry, 0, len(dir)), byFP: make(map[uint32]int, len(dir))}
	for _, d := range dir {
		e, err := fromDir(d)
		if err != nil {
			return nil, err
		}
		if e.Offset < headerSize || e.Offset+e.Size > dirOff {
			return nil, fmt.Errorf("%w: entry %08x out of range", ErrCorrupt, e.Fingerprint)
		}
		r.byFP[e.Fingerprint] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r, nil
}

// Entries returns the directory in fingerprint order.
func (r *Reader) Entries() []Entry {
	return r.entries
}

// Lookup returns the entry for fingerprint fp.
func (r *Reader) Lookup(fp uint32) (Entry, bool) {
	i, ok := r.byFP[fp]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Payload returns a reader over the stored bytes of e.
func (r *Reader) Payload(e Entry) io.Reader {
	return io.NewSectionReader(r.f, int64(e.Offset), int64(e.Size)) //nolint:gosec // extents validated on open
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}
