package archive

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// Resolver maps an archive id to the file it is written to.
type Resolver func(id uint32) (string, error)

// Registry hands out one Writer per archive id for the duration of a pack
// run. It is safe for concurrent use; each returned Writer is not.
type Registry struct {
	mu      sync.Mutex
	resolve Resolver
	writers map[uint32]*Writer
	logger  *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger for archive lifecycle events.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(resolve Resolver, opts ...RegistryOption) *Registry {
	r := &Registry{
		resolve: resolve,
		writers: make(map[uint32]*Writer),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.New(slog.DiscardHandler)
}

// GetOrOpen returns the writer for id, creating the archive on first use.
// Missing parent directories are created and an existing file is replaced.
func (r *Registry) GetOrOpen(id uint32) (*Writer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.writers[id]; ok {
		return w, nil
	}
	path, err := r.resolve(id)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("replace archive %s: %w", path, err)
	}
	w, err := Create(path)
	if err != nil {
		return nil, fmt.Errorf("create archive %d: %w", id, err)
	}
	r.log().Debug("archive opened", "id", id, "path", path)
	r.writers[id] = w
	return w, nil
}

// Opened returns the ids of all archives opened so far, in ascending order.
func (r *Registry) Opened() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uint32, 0, len(r.writers))
	for id := range r.writers {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, cmp.Compare[uint32])
	return ids
}

// FinalizeAll finalizes every opened archive in id order. Every archive is
// attempted; the returned error joins all failures.
func (r *Registry) FinalizeAll() error {
	var errs []error
	for _, id := range r.Opened() {
		w := r.writer(id)
		if err := w.Finalize(); err != nil {
			errs = append(errs, fmt.Errorf("finalize archive %d: %w", id, err))
			continue
		}
		r.log().Info("archive written", "id", id, "path", w.Path(), "entries", w.Len())
	}
	return errors.Join(errs...)
}

// Abort closes and removes every opened archive.
func (r *Registry) Abort() {
	for _, id := range r.Opened() {
		w := r.writer(id)
		if err := w.Abort(); err != nil {
			r.log().Warn("failed to remove partial archive", "path", w.Path(), "error", err)
		}
	}
}

func (r *Registry) writer(id uint32) *Writer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writers[id]
}
