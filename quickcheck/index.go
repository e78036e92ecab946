package quickcheck

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/meigma/patchkit/internal/fingerprint"
)

// Index holds records bucketed by path fingerprint.
//
// Fingerprints may collide, so lookups always compare the stored path.
// Index is safe for concurrent use.
type Index struct {
	mu      sync.Mutex
	buckets map[uint32][]Record
	n       int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{buckets: make(map[uint32][]Record)}
}

// Load reads persisted records from r.
func Load(r io.Reader) (*Index, error) {
	idx := NewIndex()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		rec, ok, err := ParseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if ok {
			idx.Add(rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return idx, nil
}

// Len returns the number of records.
func (x *Index) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.n
}

// Add stores rec, replacing any record with the same path.
func (x *Index) Add(rec Record) {
	fp := fingerprint.Of(rec.Path)
	x.mu.Lock()
	defer x.mu.Unlock()
	bucket := x.buckets[fp]
	for i := range bucket {
		if bucket[i].Path == rec.Path {
			bucket[i] = rec
			return
		}
	}
	x.buckets[fp] = append(bucket, rec)
	x.n++
}

// Has reports whether a record for path exists.
func (x *Index) Has(path string) bool {
	fp := fingerprint.Of(path)
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, rec := range x.buckets[fp] {
		if rec.Path == path {
			return true
		}
	}
	return false
}

// Take removes and returns the record for path.
func (x *Index) Take(path string) (Record, bool) {
	fp := fingerprint.Of(path)
	x.mu.Lock()
	defer x.mu.Unlock()
	bucket := x.buckets[fp]
	for i := range bucket {
		if bucket[i].Path != path {
			continue
		}
		rec := bucket[i]
		bucket = slices.Delete(bucket, i, i+1)
		if len(bucket) == 0 {
			delete(x.buckets, fp)
		} else {
			x.buckets[fp] = bucket
		}
		x.n--
		return rec, true
	}
	return Record{}, false
}

// Records returns a snapshot of all records sorted by path.
func (x *Index) Records() []Record {
	x.mu.Lock()
	out := make([]Record, 0, x.n)
	for _, bucket := range x.buckets {
		out = append(out, bucket...)
	}
	x.mu.Unlock()
	slices.SortFunc(out, func(a, b Record) int { return strings.Compare(a.Path, b.Path) })
	return out
}

// WriteTo writes all records in sorted path order.
func (x *Index) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, rec := range x.Records() {
		c, err := bw.WriteString(rec.Line() + "\n")
		n += int64(c)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}
