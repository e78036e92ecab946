package patchkit

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"runtime"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/patchkit/archive"
	"github.com/meigma/patchkit/compress"
	"github.com/meigma/patchkit/internal/fingerprint"
	"github.com/meigma/patchkit/internal/match"
	"github.com/meigma/patchkit/internal/pathutil"
	"github.com/meigma/patchkit/manifest"
	"github.com/meigma/patchkit/placement"
	"github.com/meigma/patchkit/store"
)

// Pack writes the archives of t selected by the filter glob.
//
// Every manifest entry placed by the placement index in a selected archive
// is streamed into it, from the store when the placement marks it
// compressed and from the project tree otherwise. Archives are replaced
// wholesale; archives that are not selected are left untouched.
//
// Any failure aborts the run, removes every archive it opened and returns
// an error wrapping ErrPack.
func Pack(ctx context.Context, t PackTarget, opts ...PackOption) (*PackStats, error) {
	cfg := packConfig{
		filter:  "**",
		workers: runtime.GOMAXPROCS(0),
		codec:   compress.Default,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	pk := &packer{target: t, cfg: cfg, fingerprint: fingerprint.Of}
	if err := pk.open(); err != nil {
		return nil, err
	}
	return pk.run(ctx)
}

type packItem struct {
	path       string
	fp         uint32
	entry      manifest.Entry
	compressed bool
}

// packer holds the state of one pack run.
type packer struct {
	target      PackTarget
	cfg         packConfig
	store       *store.Store
	mf          *manifest.Manifest
	index       *placement.Index
	filter      match.Glob
	fingerprint func(path string) uint32

	// dest maps selected archive ids to their files.
	dest map[uint32]string

	packed atomic.Int64
	bytes  atomic.Uint64
}

func (pk *packer) log() *slog.Logger {
	if pk.cfg.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return pk.cfg.logger
}

func (pk *packer) open() error {
	var err error
	pk.filter, err = match.CompileGlob(pk.cfg.filter)
	if err != nil {
		return packError("filter: %w", err)
	}

	pk.log().Info("loading manifest", "path", pk.target.ManifestPath)
	pk.mf, err = manifest.Load(pk.target.ManifestPath)
	if err != nil {
		return packError("load manifest: %w", err)
	}
	pk.log().Debug("manifest loaded", "files", pk.mf.Len())

	pk.log().Info("loading placement index", "path", pk.target.PlacementPath)
	pk.index, err = placement.LoadFile(pk.target.PlacementPath)
	if err != nil {
		return packError("load placement index %s: %w", pk.target.PlacementPath, err)
	}
	pk.log().Info("placement index loaded", "files", pk.index.Len())

	pk.store, err = store.New(pk.target.StoreDir, store.WithCodec(pk.cfg.codec), store.WithLogger(pk.cfg.logger))
	if err != nil {
		return packError("open store %s: %w", pk.target.StoreDir, err)
	}

	pk.dest = make(map[uint32]string)
	for _, a := range pk.index.Archives() {
		if !pk.filter.Match(a.Path) {
			continue
		}
		dst, ok := pathutil.Resolve(pk.target.Root, pk.target.Prefix, a.Path)
		if !ok {
			return packError("archive %d path %q lacks prefix %q", a.ID, a.Path, pk.target.Prefix)
		}
		pk.dest[a.ID] = dst
	}
	return nil
}

// plan groups the manifest entries by selected archive.
//
// The placement index and the archive directory are keyed by fingerprint
// alone, so two placed paths sharing one cannot be packed and fail the run
// before any archive is opened.
func (pk *packer) plan(stats *PackStats) (map[uint32][]packItem, error) {
	jobs := make(map[uint32][]packItem)
	placed := make(map[uint32]string)
	for path, e := range pk.mf.All() {
		fp := pk.fingerprint(path)
		pl, ok := pk.index.Lookup(fp)
		if !ok {
			stats.Loose++
			continue
		}
		if _, selected := pk.dest[pl.Archive]; !selected {
			stats.Skipped++
			continue
		}
		if other, dup := placed[fp]; dup {
			pk.log().Error("fingerprint collision", "path", path, "other", other, "fingerprint", fp)
			return nil, fmt.Errorf("%w: %s and %s share fingerprint %08x", archive.ErrDuplicate, other, path, fp)
		}
		placed[fp] = path
		pk.log().Debug("placing file", "path", path, "archive", pl.Archive)
		jobs[pl.Archive] = append(jobs[pl.Archive], packItem{
			path:       path,
			fp:         fp,
			entry:      e,
			compressed: pl.Compressed(),
		})
	}
	return jobs, nil
}

func (pk *packer) run(ctx context.Context) (*PackStats, error) {
	stats := &PackStats{}
	jobs, err := pk.plan(stats)
	if err != nil {
		return nil, packError("%w", err)
	}
	total := 0
	for _, items := range jobs {
		total += len(items)
	}

	reg := archive.NewRegistry(func(id uint32) (string, error) {
		dst, ok := pk.dest[id]
		if !ok {
			return "", fmt.Errorf("archive %d is not selected", id)
		}
		return dst, nil
	}, archive.WithRegistryLogger(pk.cfg.logger))

	g, gctx := errgroup.WithContext(ctx)
	if pk.cfg.workers > 0 {
		g.SetLimit(pk.cfg.workers)
	}
	for _, id := range slices.Sorted(maps.Keys(jobs)) {
		items := jobs[id]
		g.Go(func() error {
			return pk.build(gctx, reg, id, items, total)
		})
	}
	if err := g.Wait(); err != nil {
		reg.Abort()
		return nil, packError("%w", err)
	}
	if err := reg.FinalizeAll(); err != nil {
		reg.Abort()
		return nil, packError("%w", err)
	}

	stats.Archives = len(reg.Opened())
	stats.Packed = int(pk.packed.Load())
	stats.Bytes = pk.bytes.Load()
	pk.log().Info("pack complete", "stats", stats)
	return stats, nil
}

// build streams items into archive id.
func (pk *packer) build(ctx context.Context, reg *archive.Registry, id uint32, items []packItem, total int) error {
	w, err := reg.GetOrOpen(id)
	if err != nil {
		return err
	}
	slices.SortFunc(items, func(a, b packItem) int { return cmp.Compare(a.path, b.path) })
	for _, it := range items {
		n, err := pk.put(ctx, w, it)
		if err != nil {
			return err
		}
		pk.bytes.Add(n)
		done := pk.packed.Add(1)
		if pk.cfg.progress != nil {
			pk.cfg.progress(ProgressEvent{
				Stage:      StagePacking,
				Path:       it.path,
				FilesDone:  int(done),
				FilesTotal: total,
			})
		}
	}
	return nil
}

func (pk *packer) put(ctx context.Context, w *archive.Writer, it packItem) (uint64, error) {
	src, err := pk.source(it)
	if err != nil {
		return 0, fmt.Errorf("open source of %s: %w", it.path, err)
	}
	defer src.Close()

	if err := w.Put(ctx, it.fp, src, it.entry.Raw, it.entry.Compressed, it.compressed); err != nil {
		return 0, fmt.Errorf("pack %s: %w", it.path, err)
	}
	if it.compressed {
		return it.entry.Compressed.Size, nil
	}
	return it.entry.Raw.Size, nil
}

// source opens the bytes to store for it: the store artifact for compressed
// placements, the project file otherwise.
func (pk *packer) source(it packItem) (io.ReadCloser, error) {
	if it.compressed {
		return pk.store.Open(it.entry.Raw.Hash)
	}
	p, ok := pathutil.Resolve(pk.target.Root, pk.target.Prefix, it.path)
	if !ok {
		return nil, fmt.Errorf("path lacks prefix %q", pk.target.Prefix)
	}
	return os.Open(p) //nolint:gosec // path comes from the manifest
}
