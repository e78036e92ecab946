// Package store implements the content-addressed store of compressed
// artifacts.
//
// An artifact's location is a pure function of the raw content digest:
//
//	<dir>/<h0>/<h1>/<hex><ext>
//
// where h0 and h1 are the first hex characters of the digest and ext is the
// codec's extension. Identical content reached through different logical
// paths therefore shares one artifact and is compressed at most once.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/singleflight"

	"github.com/meigma/patchkit/compress"
	"github.com/meigma/patchkit/internal/file"
	"github.com/meigma/patchkit/internal/write"
	"github.com/meigma/patchkit/manifest"
)

const (
	defaultShardDepth = 2
	defaultDirPerm    = 0o755
	defaultMemoSize   = 4096
)

var (
	// ErrInvalidDigest is returned for digests that cannot address an artifact.
	ErrInvalidDigest = errors.New("store: invalid digest")

	// ErrSourceChanged is returned when the source no longer matches the raw
	// metadata it was expected to have.
	ErrSourceChanged = write.ErrSizeChanged
)

// Store is a content-addressed directory of compressed artifacts.
// It is safe for concurrent use.
type Store struct {
	dir        string
	shardDepth int
	dirPerm    os.FileMode
	codec      compress.Codec
	logger     *slog.Logger
	memoSize   int

	claims singleflight.Group
	memo   *lru.Cache[digest.Digest, manifest.Meta]

	compressions atomic.Int64
}

// Option configures a Store.
type Option func(*Store)

// WithShardDepth sets how many single hex character directory levels
// precede the artifact file. Use 0 to disable sharding. Defaults to 2.
func WithShardDepth(n int) Option {
	return func(s *Store) {
		s.shardDepth = n
	}
}

// WithDirPerm sets the permissions for created directories.
func WithDirPerm(mode os.FileMode) Option {
	return func(s *Store) {
		s.dirPerm = mode
	}
}

// WithCodec sets the compressor. Defaults to compress.Default.
func WithCodec(c compress.Codec) Option {
	return func(s *Store) {
		s.codec = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithMemoSize sets how many compressed metadata records are remembered
// in memory. Defaults to 4096.
func WithMemoSize(n int) Option {
	return func(s *Store) {
		s.memoSize = n
	}
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("store dir is empty")
	}
	s := &Store{
		dir:        dir,
		shardDepth: defaultShardDepth,
		dirPerm:    defaultDirPerm,
		codec:      compress.Default,
		memoSize:   defaultMemoSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.shardDepth < 0 {
		return nil, errors.New("shard depth must be >= 0")
	}
	if s.codec == nil {
		return nil, errors.New("codec is nil")
	}
	memo, err := lru.New[digest.Digest, manifest.Meta](max(s.memoSize, 1))
	if err != nil {
		return nil, err
	}
	s.memo = memo
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Codec returns the codec artifacts are written with.
func (s *Store) Codec() compress.Codec {
	return s.codec
}

// Compressions returns how many artifacts this store has written.
func (s *Store) Compressions() int64 {
	return s.compressions.Load()
}

func (s *Store) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}

// Path returns the artifact location for the raw digest d.
func (s *Store) Path(d digest.Digest) (string, error) {
	if err := d.Validate(); err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidDigest, d, err)
	}
	hexHash := d.Encoded()
	parts := make([]string, 0, s.shardDepth+2)
	parts = append(parts, s.dir)
	for i := 0; i < s.shardDepth && i < len(hexHash); i++ {
		parts = append(parts, hexHash[i:i+1])
	}
	parts = append(parts, hexHash+s.codec.Ext())
	return filepath.Join(parts...), nil
}

// Open opens the artifact for raw digest d.
func (s *Store) Open(d digest.Digest) (*os.File, error) {
	path, err := s.Path(d)
	if err != nil {
		return nil, err
	}
	return os.Open(path) //nolint:gosec // path is derived from a digest
}

// Lookup returns the compressed metadata of the artifact for raw digest d,
// reporting false when no artifact exists.
func (s *Store) Lookup(ctx context.Context, d digest.Digest) (manifest.Meta, bool, error) {
	if meta, ok := s.memo.Get(d); ok {
		return meta, true, nil
	}
	path, err := s.Path(d)
	if err != nil {
		return manifest.Meta{}, false, err
	}
	size, sum, err := file.DigestFile(ctx, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return manifest.Meta{}, false, nil
		}
		return manifest.Meta{}, false, err
	}
	meta := manifest.Meta{Size: size, Hash: sum}
	s.memo.Add(d, meta)
	return meta, true, nil
}

// Result describes the outcome of Ensure.
type Result struct {
	// Compressed is the metadata of the stored artifact.
	Compressed manifest.Meta
	// Created is true when this call compressed the artifact. It is false
	// when the content had already been stored, including when a concurrent
	// caller compressed it.
	Created bool
}

// Ensure makes sure an artifact for content described by raw exists,
// compressing src into the store on a miss.
//
// Concurrent calls for the same digest share one claim, so the compressor
// runs at most once per unique digest.
func (s *Store) Ensure(ctx context.Context, raw manifest.Meta, src string) (Result, error) {
	executed := false
	v, err, _ := s.claims.Do(raw.Hash.String(), func() (any, error) {
		executed = true
		return s.ensure(ctx, raw, src)
	})
	if err != nil {
		return Result{}, err
	}
	res, _ := v.(Result) //nolint:errcheck // type assertion always succeeds when err is nil
	res.Created = res.Created && executed
	return res, nil
}

func (s *Store) ensure(ctx context.Context, raw manifest.Meta, src string) (Result, error) {
	if meta, ok, err := s.Lookup(ctx, raw.Hash); err != nil {
		return Result{}, err
	} else if ok {
		return Result{Compressed: meta}, nil
	}

	path, err := s.Path(raw.Hash)
	if err != nil {
		return Result{}, err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return Result{}, fmt.Errorf("create dir %s: %w", dir, err)
	}

	s.log().Debug("compressing", "src", src, "dst", path, "codec", s.codec.Name())
	meta, err := s.compressTo(ctx, raw, src, dir, path)
	if err != nil {
		return Result{}, fmt.Errorf("compress %s to %s: %w", src, path, err)
	}
	s.memo.Add(raw.Hash, meta)
	s.compressions.Add(1)
	return Result{Compressed: meta, Created: true}, nil
}

func (s *Store) compressTo(ctx context.Context, raw manifest.Meta, src, dir, path string) (manifest.Meta, error) {
	in, err := os.Open(src) //nolint:gosec // src comes from the scanned project tree
	if err != nil {
		return manifest.Meta{}, err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(dir, "artifact-*")
	if err != nil {
		return manifest.Meta{}, err
	}
	tmpPath := tmp.Name()
	fail := func(err error) (manifest.Meta, error) {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return manifest.Meta{}, err
	}

	meta, err := write.Compressed(ctx, in, tmp, s.codec, nil, raw.Size)
	if err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return manifest.Meta{}, err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return manifest.Meta{}, err
	}
	return meta, nil
}
