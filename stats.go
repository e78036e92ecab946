package patchkit

import (
	"log/slog"
	"sync/atomic"
)

// Stats summarizes a cache run.
type Stats struct {
	// QuickCheck counts files whose digest was taken from the quickcheck index.
	QuickCheck int
	// Digested counts files that were hashed.
	Digested int
	// Compressed counts artifacts written to the store.
	Compressed int
	// Deduplicated counts new or changed files whose content was already stored.
	Deduplicated int
	// Reused counts files whose prior manifest entry was kept unchanged.
	Reused int
	// Updated counts known files whose content changed.
	Updated int
	// Total counts files that passed the include and exclude globs.
	Total int
	// Ignored counts files rejected by the globs.
	Ignored int
	// Dropped counts files left out of the manifest because of an error.
	Dropped int
	// Removed counts previously known files that are gone.
	Removed int
}

// LogValue implements slog.LogValuer.
func (s *Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("total", s.Total),
		slog.Int("ignored", s.Ignored),
		slog.Int("quickcheck", s.QuickCheck),
		slog.Int("digested", s.Digested),
		slog.Int("compressed", s.Compressed),
		slog.Int("deduplicated", s.Deduplicated),
		slog.Int("reused", s.Reused),
		slog.Int("updated", s.Updated),
		slog.Int("dropped", s.Dropped),
		slog.Int("removed", s.Removed),
	)
}

// counters is the concurrent accumulator behind Stats.
type counters struct {
	quickCheck, digested, compressed, deduplicated, reused atomic.Int64
	updated, total, ignored, dropped, removed              atomic.Int64
}

func (c *counters) snapshot() *Stats {
	return &Stats{
		QuickCheck:   int(c.quickCheck.Load()),
		Digested:     int(c.digested.Load()),
		Compressed:   int(c.compressed.Load()),
		Deduplicated: int(c.deduplicated.Load()),
		Reused:       int(c.reused.Load()),
		Updated:      int(c.updated.Load()),
		Total:        int(c.total.Load()),
		Ignored:      int(c.ignored.Load()),
		Dropped:      int(c.dropped.Load()),
		Removed:      int(c.removed.Load()),
	}
}

// PackStats summarizes a pack run.
type PackStats struct {
	// Archives counts archives written.
	Archives int
	// Packed counts entries written into archives.
	Packed int
	// Bytes counts payload bytes written into archives.
	Bytes uint64
	// Loose counts manifest entries the placement index does not place.
	Loose int
	// Skipped counts entries placed in archives the filter did not select.
	Skipped int
}

// LogValue implements slog.LogValuer.
func (s *PackStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("archives", s.Archives),
		slog.Int("packed", s.Packed),
		slog.Uint64("bytes", s.Bytes),
		slog.Int("loose", s.Loose),
		slog.Int("skipped", s.Skipped),
	)
}
