package archive

import (
	"cmp"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/meigma/patchkit/internal/file"
	"github.com/meigma/patchkit/manifest"
)

// Writer streams entries into a new archive file.
// A Writer is not safe for concurrent use.
type Writer struct {
	f       *os.File
	path    string
	off     uint64
	entries []Entry
	seen    map[uint32]struct{}
	buf     []byte
	done    bool
}

// Create creates the archive at path, truncating any existing file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path) //nolint:gosec // archive path comes from the placement index
	if err != nil {
		return nil, err
	}
	var header [headerSize]byte
	copy(header[:4], magic)
	binary.LittleEndian.PutUint32(header[4:], version)
	if _, err := f.Write(header[:]); err != nil {
		f.Close()
		return nil, err
	}
	return &Writer{
		f:    f,
		path: path,
		off:  headerSize,
		seen: make(map[uint32]struct{}),
		buf:  make([]byte, file.DefaultBufferSize),
	}, nil
}

// Path returns the archive location.
func (w *Writer) Path() string {
	return w.path
}

// Len returns the number of entries put so far.
func (w *Writer) Len() int {
	return len(w.entries)
}

// Put appends the payload read from r. The payload must be exactly
// compressed.Size bytes when isCompressed is set and raw.Size bytes
// otherwise.
//
// Entries are keyed by fingerprint only; a second Put of the same
// fingerprint returns ErrDuplicate.
func (w *Writer) Put(ctx context.Context, fp uint32, r io.Reader, raw, compressed manifest.Meta, isCompressed bool) error {
	if w.done {
		return ErrFinalized
	}
	if _, dup := w.seen[fp]; dup {
		return fmt.Errorf("%w: %08x in %s", ErrDuplicate, fp, w.path)
	}
	want := raw.Size
	if isCompressed {
		want = compressed.Size
	}
	n, err := file.CopyWithContext(ctx, w.f, io.LimitReader(r, int64(want)+1), w.buf) //nolint:gosec // sizes fit in int64
	if err != nil {
		return fmt.Errorf("write %08x to %s: %w", fp, w.path, err)
	}
	if n != want {
		return fmt.Errorf("%w: %08x in %s: want %d bytes, got %d", ErrSizeMismatch, fp, w.path, want, n)
	}
	w.entries = append(w.entries, Entry{
		Fingerprint:  fp,
		Raw:          raw,
		Compressed:   compressed,
		IsCompressed: isCompressed,
		Offset:       w.off,
		Size:         n,
	})
	w.seen[fp] = struct{}{}
	w.off += n
	return nil
}

// Finalize writes the directory and trailer and closes the file.
func (w *Writer) Finalize() error {
	if w.done {
		return ErrFinalized
	}
	w.done = true

	slices.SortFunc(w.entries, func(a, b Entry) int { return cmp.Compare(a.Fingerprint, b.Fingerprint) })
	dir := make([]dirEntry, len(w.entries))
	for i, e := range w.entries {
		dir[i] = toDir(e)
	}
	data, err := encMode.Marshal(dir)
	if err != nil {
		w.f.Close()
		return fmt.Errorf("encode directory of %s: %w", w.path, err)
	}

	var trailer [trailerSize]byte
	binary.LittleEndian.PutUint64(trailer[0:], w.off)
	binary.LittleEndian.PutUint64(trailer[8:], uint64(len(data)))
	copy(trailer[16:], magic)

	if _, err := w.f.Write(data); err != nil {
		w.f.Close()
		return err
	}
	if _, err := w.f.Write(trailer[:]); err != nil {
		w.f.Close()
		return err
	}
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// Abort closes the archive without finalizing it and removes the file.
func (w *Writer) Abort() error {
	if !w.done {
		w.done = true
		w.f.Close()
	}
	if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
