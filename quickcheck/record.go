// Package quickcheck implements the side index that lets the cache skip
// digesting files whose modification time has not changed.
//
// The persisted form is one record per line:
//
//	<path>,<mtime>,<size>,<hash>
//
// where mtime is seconds since the Unix epoch as a decimal number, or empty
// when unknown. Records whose mtime does not parse are dropped on load.
package quickcheck

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/patchkit/manifest"
)

// ErrMalformed is returned when a persisted record cannot be parsed.
var ErrMalformed = errors.New("quickcheck: malformed record")

// Record is the last known state of one file.
type Record struct {
	Path       string
	ModTime    float64
	HasModTime bool
	Meta       manifest.Meta
}

// ModTime returns the modification time of info as seconds since the Unix
// epoch. It reports false when info is nil or the time predates the epoch.
func ModTime(info fs.FileInfo) (float64, bool) {
	if info == nil {
		return 0, false
	}
	t := info.ModTime()
	if t.IsZero() || t.Before(time.Unix(0, 0)) {
		return 0, false
	}
	return float64(t.UnixNano()) / float64(time.Second), true
}

// Fresh reports whether the record can be trusted for a file observed with
// the given modification time. A missing time on either side never matches.
func (r Record) Fresh(modTime float64, ok bool) bool {
	return ok && r.HasModTime && r.ModTime == modTime
}

// Line returns the persisted text form of r without a trailing newline.
func (r Record) Line() string {
	var b strings.Builder
	b.WriteString(r.Path)
	b.WriteByte(',')
	if r.HasModTime {
		b.WriteString(strconv.FormatFloat(r.ModTime, 'f', -1, 64))
	}
	b.WriteByte(',')
	b.WriteString(strconv.FormatUint(r.Meta.Size, 10))
	b.WriteByte(',')
	b.WriteString(r.Meta.Hash.String())
	return b.String()
}

// ParseRecord parses one persisted line. It returns ok == false for records
// that must be discarded because their modification time is unusable.
// The path is everything before the last three fields.
func ParseRecord(line string) (rec Record, ok bool, err error) {
	fields := strings.Split(line, ",")
	if len(fields) < 4 {
		return Record{}, false, fmt.Errorf("%w: want 4 fields, got %d in %q", ErrMalformed, len(fields), line)
	}
	n := len(fields) - 3
	path := strings.Join(fields[:n], ",")
	fields = fields[n-1:]
	modTime, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return Record{}, false, nil
	}
	size, err := strconv.ParseUint(strings.TrimSpace(fields[2]), 10, 64)
	if err != nil {
		return Record{}, false, fmt.Errorf("%w: size %q", ErrMalformed, fields[2])
	}
	hash, err := digest.Parse(strings.TrimSpace(fields[3]))
	if err != nil {
		return Record{}, false, fmt.Errorf("%w: hash %q: %w", ErrMalformed, fields[3], err)
	}
	return Record{
		Path:       path,
		ModTime:    modTime,
		HasModTime: true,
		Meta:       manifest.Meta{Size: size, Hash: hash},
	}, true, nil
}
