package patchkit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/meigma/patchkit/compress"
	"github.com/meigma/patchkit/internal/file"
	"github.com/meigma/patchkit/internal/match"
	"github.com/meigma/patchkit/internal/pool"
	"github.com/meigma/patchkit/internal/scan"
	"github.com/meigma/patchkit/manifest"
	"github.com/meigma/patchkit/quickcheck"
	"github.com/meigma/patchkit/store"
)

// packGlob excludes archives unless CacheWithIncludePK is set.
const packGlob = "**/*.pk"

// Cache brings the store, manifest and quickcheck index of p up to date with
// its source files.
//
// Files that cannot be hashed or compressed are logged, counted in
// Stats.Dropped and left out of the new manifest; they do not fail the run.
// Errors that prevent the run from starting or its state from being saved
// wrap ErrSetup.
func Cache(ctx context.Context, p Project, opts ...CacheOption) (*Stats, error) {
	cfg := cacheConfig{
		version: DefaultVersion,
		workers: runtime.GOMAXPROCS(0),
		codec:   compress.Default,
		stdin:   os.Stdin,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s, err := openSession(p, cfg)
	if err != nil {
		return nil, err
	}
	return s.run(ctx)
}

// session holds the state of one cache run.
type session struct {
	project Project
	cfg     cacheConfig
	matcher *match.Matcher
	store   *store.Store
	scanner *scan.Scanner
	qc      *quickcheck.File
	list    io.ReadCloser

	// mu guards prev and next.
	mu   sync.Mutex
	prev *manifest.Manifest
	next *manifest.Manifest

	stats counters
	done  atomic.Int64
}

func openSession(p Project, cfg cacheConfig) (*session, error) {
	s := &session{project: p, cfg: cfg}

	exclude := slices.Clone(p.Exclude)
	if !cfg.includePK {
		exclude = append(exclude, packGlob)
	}
	m, err := match.Compile(p.Include, exclude)
	if err != nil {
		return nil, setupError("project %s: %w", p.Name, err)
	}
	s.matcher = m

	s.store, err = store.New(p.StoreDir, store.WithCodec(cfg.codec), store.WithLogger(cfg.logger))
	if err != nil {
		return nil, setupError("open store %s: %w", p.StoreDir, err)
	}

	prev, err := manifest.LoadOrEmpty(p.ManifestPath)
	if err != nil {
		return nil, setupError("load manifest %s: %w", p.ManifestPath, err)
	}
	if prev == nil {
		prev = manifest.New(0, "")
	} else {
		s.log().Info("loaded previous manifest", "version", prev.Version, "name", prev.Name, "files", prev.Len())
	}
	s.prev = prev
	s.next = manifest.New(cfg.version, cfg.name)

	s.scanner = &scan.Scanner{
		Root:     p.Root,
		Prefix:   p.Prefix,
		Relative: cfg.relative,
		Logger:   cfg.logger,
	}
	switch cfg.fileList {
	case "":
	case "-":
		s.list = io.NopCloser(cfg.stdin)
	default:
		f, err := os.Open(cfg.fileList)
		if err != nil {
			return nil, setupError("open file list: %w", err)
		}
		s.list = f
	}

	// The quickcheck file is truncated on open, so it goes last.
	if err := os.MkdirAll(filepath.Dir(p.QuickCheckPath), 0o755); err != nil {
		s.closeList()
		return nil, setupError("create quickcheck dir: %w", err)
	}
	s.qc, err = quickcheck.Open(p.QuickCheckPath)
	if err != nil {
		s.closeList()
		return nil, setupError("open quickcheck: %w", err)
	}
	return s, nil
}

func (s *session) log() *slog.Logger {
	if s.cfg.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.cfg.logger
}

func (s *session) closeList() {
	if s.list != nil {
		s.list.Close()
	}
}

func (s *session) run(ctx context.Context) (*Stats, error) {
	defer s.closeList()

	workers, err := pool.New(s.cfg.workers)
	if err != nil {
		s.qc.Close()
		return nil, setupError("create worker pool: %w", err)
	}

	s.log().Info("scanning", "root", s.project.Root, "prefix", s.project.Prefix)
	visit := func(rec scan.Record) error {
		return s.visit(ctx, workers, rec)
	}
	if s.list != nil {
		err = s.scanner.List(ctx, s.list, visit)
	} else {
		err = s.scanner.Walk(ctx, visit)
	}
	workers.Wait()
	workers.Release()
	if err != nil {
		s.qc.Close()
		return nil, setupError("scan %s: %w", s.project.Root, err)
	}

	if s.list != nil {
		for path, e := range s.prev.All() {
			s.next.Set(path, e)
		}
		if n := s.qc.CarryForward(); n > 0 {
			s.log().Debug("carried forward unlisted files", "count", n)
		}
	} else {
		for _, path := range s.prev.Paths() {
			s.log().Info("file removed", "path", path)
			s.stats.removed.Add(1)
		}
	}

	if err := s.next.Save(s.project.ManifestPath); err != nil {
		s.qc.Close()
		return nil, setupError("write manifest: %w", err)
	}
	if err := s.qc.Close(); err != nil {
		return nil, setupError("write quickcheck %s: %w", s.project.QuickCheckPath, err)
	}

	stats := s.stats.snapshot()
	s.log().Info("cache complete", "manifest", s.project.ManifestPath, "stats", stats)
	return stats, nil
}

// visit dispatches one scanned file. It runs on the scanning goroutine.
func (s *session) visit(ctx context.Context, workers pool.Pool, rec scan.Record) error {
	if rec.Missing {
		s.purge(rec.Path)
		return nil
	}
	if !s.matcher.Accepts(rec.Path) {
		s.stats.ignored.Add(1)
		return nil
	}
	s.stats.total.Add(1)
	return workers.Submit(func() {
		s.apply(s.process(ctx, rec))
	})
}

// purge forgets a listed file that no longer exists.
func (s *session) purge(path string) {
	s.log().Warn("listed file not found", "path", path)
	if s.qc.Forget(path) {
		s.log().Debug("removed from quickcheck", "path", path)
	}
	s.mu.Lock()
	_, known := s.prev.Take(path)
	s.mu.Unlock()
	if known {
		s.log().Info("removed from manifest", "path", path)
		s.stats.removed.Add(1)
	}
}

type outcomeKind uint8

const (
	outcomeDropped outcomeKind = iota
	outcomeReused
	outcomeDeduplicated
	outcomeCompressed
)

// outcome is the result of processing one file. Nothing is recorded for a
// dropped file.
type outcome struct {
	kind       outcomeKind
	path       string
	entry      manifest.Entry
	record     quickcheck.Record
	quickCheck bool
	digested   bool
	updated    bool
}

// process decides the manifest entry for rec. Its only side effects are
// consuming rec's prior quickcheck record and manifest entry, and storing
// new content.
func (s *session) process(ctx context.Context, rec scan.Record) outcome {
	out := outcome{path: rec.Path}

	mtime, hasTime := quickcheck.ModTime(rec.Info)
	var raw manifest.Meta
	if prior, ok := s.qc.Prior().Take(rec.Path); ok && prior.Fresh(mtime, hasTime) {
		raw = prior.Meta
		out.quickCheck = true
	} else {
		size, d, err := file.DigestFile(ctx, rec.Real)
		if err != nil {
			s.log().Error("failed to check file", "path", rec.Real, "error", err)
			return out
		}
		raw = manifest.Meta{Size: size, Hash: d}
		out.digested = true
	}
	out.record = quickcheck.Record{Path: rec.Path, ModTime: mtime, HasModTime: hasTime, Meta: raw}

	s.mu.Lock()
	old, known := s.prev.Take(rec.Path)
	s.mu.Unlock()
	if known && old.Raw.Equal(raw) {
		out.kind = outcomeReused
		out.entry = old
		return out
	}
	if known {
		out.updated = true
		s.log().Debug("file updated", "path", rec.Path, "from", old.Raw.Hash, "to", raw.Hash)
	}

	res, err := s.store.Ensure(ctx, raw, rec.Real)
	if err != nil {
		s.log().Error("failed to store file", "path", rec.Real, "error", err)
		return out
	}
	out.kind = outcomeDeduplicated
	if res.Created {
		out.kind = outcomeCompressed
	}
	out.entry = manifest.NewEntry(rec.Path, raw, res.Compressed)
	return out
}

// apply records an outcome in the session state.
func (s *session) apply(out outcome) {
	if out.quickCheck {
		s.stats.quickCheck.Add(1)
	}
	if out.digested {
		s.stats.digested.Add(1)
	}
	if out.updated {
		s.stats.updated.Add(1)
	}

	switch out.kind {
	case outcomeDropped:
		s.stats.dropped.Add(1)
	case outcomeReused:
		s.stats.reused.Add(1)
	case outcomeDeduplicated:
		s.stats.deduplicated.Add(1)
	case outcomeCompressed:
		s.stats.compressed.Add(1)
	}
	if out.kind != outcomeDropped {
		s.mu.Lock()
		s.next.Set(out.path, out.entry)
		s.mu.Unlock()
		s.qc.Record(out.record)
	}

	if s.cfg.progress != nil {
		s.cfg.progress(ProgressEvent{
			Stage:     StageScanning,
			Path:      out.path,
			FilesDone: int(s.done.Add(1)),
		})
	}
}
