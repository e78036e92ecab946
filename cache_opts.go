package patchkit

import (
	"io"
	"log/slog"

	"github.com/meigma/patchkit/compress"
)

// DefaultVersion is the manifest version number used when
// CacheWithVersion is not given.
const DefaultVersion uint32 = 1

// CacheOption configures a Cache run.
type CacheOption func(*cacheConfig)

type cacheConfig struct {
	version   uint32
	name      string
	fileList  string
	stdin     io.Reader
	relative  bool
	includePK bool
	workers   int
	codec     compress.Codec
	logger    *slog.Logger
	progress  ProgressFunc
}

// CacheWithVersion sets the version number and label written to the
// manifest. An empty label defaults to the decimal version number.
func CacheWithVersion(number uint32, label string) CacheOption {
	return func(cfg *cacheConfig) {
		cfg.version = number
		cfg.name = label
	}
}

// CacheWithFileList restricts the run to the paths listed one per line in
// the file at path, or on standard input when path is "-".
//
// Listed files that no longer exist are removed from the manifest and the
// quickcheck index. Known files that are not listed are carried forward
// unchanged.
func CacheWithFileList(path string) CacheOption {
	return func(cfg *cacheConfig) {
		cfg.fileList = path
	}
}

// CacheWithStdin sets the reader used for a "-" file list.
// Defaults to os.Stdin.
func CacheWithStdin(r io.Reader) CacheOption {
	return func(cfg *cacheConfig) {
		cfg.stdin = r
	}
}

// CacheWithRelative treats listed paths as relative to the project root
// rather than prefixed logical paths.
func CacheWithRelative(relative bool) CacheOption {
	return func(cfg *cacheConfig) {
		cfg.relative = relative
	}
}

// CacheWithIncludePK caches .pk files found in the project tree. By default
// they are excluded, since they are usually the output of an earlier pack.
func CacheWithIncludePK(include bool) CacheOption {
	return func(cfg *cacheConfig) {
		cfg.includePK = include
	}
}

// CacheWithWorkers sets the number of files processed concurrently.
// Values of one or less process files sequentially.
// Defaults to GOMAXPROCS.
func CacheWithWorkers(n int) CacheOption {
	return func(cfg *cacheConfig) {
		cfg.workers = n
	}
}

// CacheWithCodec sets the compressor used for new store artifacts.
// Defaults to compress.Default.
func CacheWithCodec(c compress.Codec) CacheOption {
	return func(cfg *cacheConfig) {
		cfg.codec = c
	}
}

// CacheWithLogger sets the logger for the run.
// If not set, logging is disabled.
func CacheWithLogger(logger *slog.Logger) CacheOption {
	return func(cfg *cacheConfig) {
		cfg.logger = logger
	}
}

// CacheWithProgress sets a callback invoked after each file is processed.
// The callback may be invoked concurrently and must be safe for concurrent use.
func CacheWithProgress(fn ProgressFunc) CacheOption {
	return func(cfg *cacheConfig) {
		cfg.progress = fn
	}
}
