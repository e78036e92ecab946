package quickcheck

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// File is the persisted quickcheck index for one session.
//
// Open loads the prior records and truncates the file in place; Close writes
// the refreshed records back to the same location.
type File struct {
	f     *os.File
	prior *Index
	next  *Index

	closeOnce sync.Once
	closeErr  error
}

// Open opens (creating if needed) the index at path, loads its records and
// truncates it.
func Open(path string) (*File, error) {
	//nolint:gosec // quickcheck path is derived from configuration
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	prior, err := Load(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, err
	}
	return &File{f: f, prior: prior, next: NewIndex()}, nil
}

// Prior returns the records loaded at open. Records are consumed with Take
// as their paths are revisited.
func (qf *File) Prior() *Index {
	return qf.prior
}

// Record appends a refreshed record for this session.
func (qf *File) Record(rec Record) {
	qf.next.Add(rec)
}

// Forget drops path from both the prior and refreshed records.
func (qf *File) Forget(path string) bool {
	_, inPrior := qf.prior.Take(path)
	_, inNext := qf.next.Take(path)
	return inPrior || inNext
}

// CarryForward moves every prior record not consumed this session into the
// refreshed set. Refreshed records win over prior ones.
func (qf *File) CarryForward() int {
	n := 0
	for _, rec := range qf.prior.Records() {
		qf.prior.Take(rec.Path)
		if qf.next.Has(rec.Path) {
			continue
		}
		qf.next.Add(rec)
		n++
	}
	return n
}

// Len returns the number of refreshed records.
func (qf *File) Len() int {
	return qf.next.Len()
}

// Close writes the refreshed records and closes the file.
func (qf *File) Close() error {
	qf.closeOnce.Do(func() {
		_, err := qf.next.WriteTo(qf.f)
		if err == nil {
			err = qf.f.Sync()
		}
		if cerr := qf.f.Close(); err == nil {
			err = cerr
		}
		qf.closeErr = err
	})
	return qf.closeErr
}
