package manifest

import (
	"fmt"
	"strings"

	"github.com/opencontainers/go-digest"
)

// Entry is the manifest record of a single asset.
type Entry struct {
	Raw        Meta
	Compressed Meta
	LineSum    digest.Digest
}

// NewEntry builds an entry for path and computes its line checksum.
func NewEntry(path string, raw, compressed Meta) Entry {
	return Entry{
		Raw:        raw,
		Compressed: compressed,
		LineSum:    LineSum(path, raw, compressed),
	}
}

// LineSum computes the checksum stored at the end of a manifest line.
func LineSum(path string, raw, compressed Meta) digest.Digest {
	return digest.FromString(path + "," + raw.String() + "," + compressed.String())
}

// Verify reports whether the entry's line checksum matches its fields.
func (e Entry) Verify(path string) bool {
	return e.LineSum == LineSum(path, e.Raw, e.Compressed)
}

// Line returns the text form of the entry keyed by path.
func (e Entry) Line(path string) string {
	return path + "," + e.Raw.String() + "," + e.Compressed.String() + "," + e.LineSum.String()
}

// ParseLine parses a "[files]" line into its path and entry.
//
// The trailing five fields never contain commas, so the path is everything
// before them and may contain commas itself.
func ParseLine(line string) (string, Entry, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 6 {
		return "", Entry{}, fmt.Errorf("%w: want 6 fields, got %d in %q", ErrMalformed, len(fields), line)
	}
	n := len(fields) - 5
	path := strings.Join(fields[:n], ",")
	fields = fields[n-1:]
	if path == "" {
		return "", Entry{}, fmt.Errorf("%w: empty path in %q", ErrMalformed, line)
	}
	raw, err := parseFields(fields[1], fields[2])
	if err != nil {
		return "", Entry{}, err
	}
	compressed, err := parseFields(fields[3], fields[4])
	if err != nil {
		return "", Entry{}, err
	}
	sum, err := digest.Parse(strings.TrimSpace(fields[5]))
	if err != nil {
		return "", Entry{}, fmt.Errorf("%w: line checksum %q: %w", ErrMalformed, fields[5], err)
	}
	e := Entry{Raw: raw, Compressed: compressed, LineSum: sum}
	if !e.Verify(path) {
		return "", Entry{}, fmt.Errorf("%w: %s", ErrChecksum, path)
	}
	return path, e, nil
}
