package patchkit

import (
	"log/slog"

	"github.com/meigma/patchkit/compress"
)

// PackOption configures a Pack run.
type PackOption func(*packConfig)

type packConfig struct {
	filter   string
	workers  int
	codec    compress.Codec
	logger   *slog.Logger
	progress ProgressFunc
}

// PackWithFilter selects the archives to build by matching their declared
// paths against a glob in which "*" also matches "/", so "*main*" selects
// every archive whose path contains "main". Defaults to "**".
func PackWithFilter(glob string) PackOption {
	return func(cfg *packConfig) {
		cfg.filter = glob
	}
}

// PackWithWorkers sets the number of archives built concurrently.
// Defaults to GOMAXPROCS.
func PackWithWorkers(n int) PackOption {
	return func(cfg *packConfig) {
		cfg.workers = n
	}
}

// PackWithCodec sets the codec the store was built with.
// Defaults to compress.Default.
func PackWithCodec(c compress.Codec) PackOption {
	return func(cfg *packConfig) {
		cfg.codec = c
	}
}

// PackWithLogger sets the logger for the run.
// If not set, logging is disabled.
func PackWithLogger(logger *slog.Logger) PackOption {
	return func(cfg *packConfig) {
		cfg.logger = logger
	}
}

// PackWithProgress sets a callback invoked after each entry is written.
// The callback may be invoked concurrently and must be safe for concurrent use.
func PackWithProgress(fn ProgressFunc) PackOption {
	return func(cfg *packConfig) {
		cfg.progress = fn
	}
}
