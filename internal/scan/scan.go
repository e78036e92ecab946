// Package scan enumerates candidate files for a cache session, either by
// walking the project tree or by reading an explicit list of paths.
package scan

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/meigma/patchkit/internal/pathutil"
)

// Record is one candidate file.
type Record struct {
	// Path is the logical path: prefix-qualified, slash separated.
	Path string
	// Real is the location on disk.
	Real string
	// Info is the file metadata, or nil when it could not be read.
	Info fs.FileInfo
	// Missing is set for listed files that do not exist.
	Missing bool
}

// Scanner produces Records for a project rooted at Root whose logical
// paths start with Prefix.
type Scanner struct {
	Root   string
	Prefix string
	// Relative means listed paths are already relative to Root and carry
	// no prefix to strip.
	Relative bool
	Logger   *slog.Logger
}

func (s *Scanner) log() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

// Walk calls fn for every regular file under Root, in lexical order.
// Entries whose metadata cannot be read are still yielded with a nil Info.
func (s *Scanner) Walk(ctx context.Context, fn func(Record) error) error {
	info, err := os.Stat(s.Root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", s.Root)
	}
	return filepath.WalkDir(s.Root, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if p == s.Root {
				return walkErr
			}
			s.log().Error("failed to read", "path", p, "error", walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(s.Root, p)
		if err != nil {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			s.log().Debug("failed to get file metadata", "path", p, "error", err)
			fi = nil
		}
		return fn(Record{
			Path: pathutil.Join(s.Prefix, filepath.ToSlash(rel)),
			Real: p,
			Info: fi,
		})
	})
}

// List reads one path per line from r and calls fn for each. Listed files
// that no longer exist are yielded with Missing set. Lines lacking the
// expected prefix are skipped with a warning.
func (s *Scanner) List(ctx context.Context, r io.Reader, fn func(Record) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := pathutil.Normalize(sc.Text())
		if line == "" {
			continue
		}
		rec, ok := s.resolve(line)
		if !ok {
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return sc.Err()
}

func (s *Scanner) resolve(line string) (Record, bool) {
	rel := line
	if !s.Relative {
		stripped, ok := pathutil.StripPrefix(s.Prefix, line)
		if !ok {
			s.log().Warn("missing prefix", "prefix", s.Prefix, "path", line)
			return Record{}, false
		}
		rel = strings.TrimSpace(stripped)
	}
	rel = pathutil.Clean(rel)
	rec := Record{
		Path: pathutil.Join(s.Prefix, rel),
		Real: filepath.Join(s.Root, filepath.FromSlash(rel)),
	}
	info, err := os.Stat(rec.Real)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		rec.Missing = true
	case err != nil:
		s.log().Debug("failed to get file metadata", "path", rec.Real, "error", err)
	case info.IsDir():
		s.log().Warn("listed path is a directory", "path", line)
		return Record{}, false
	default:
		rec.Info = info
	}
	return rec, true
}
