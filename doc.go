// Package patchkit incrementally caches a game asset tree as a
// content-addressed compressed store and assembles distribution archives
// from it.
//
// A cache run walks the project tree (or an explicit file list), skips
// re-hashing files whose modification time is unchanged, compresses each
// unique content digest at most once and writes a versioned manifest of
// every asset's raw and compressed metadata:
//
//	stats, err := patchkit.Cache(ctx, project,
//	    patchkit.CacheWithVersion(42, "release"),
//	    patchkit.CacheWithLogger(logger),
//	)
//
// A pack run reads the manifest and a placement index and streams the
// selected assets into archives:
//
//	stats, err := patchkit.Pack(ctx, project.PackTarget(),
//	    patchkit.PackWithFilter("**/main.pk"),
//	)
//
// Per-file failures during a cache run are logged and counted in
// [Stats.Dropped]; they never fail the run. Setup failures wrap [ErrSetup].
// Any failure during a pack run wraps [ErrPack] and removes the archives the
// run had opened.
package patchkit
