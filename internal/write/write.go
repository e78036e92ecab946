// Package write streams source files through a compression codec.
package write

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/patchkit/compress"
	"github.com/meigma/patchkit/internal/file"
	"github.com/meigma/patchkit/manifest"
)

// ErrSizeChanged is returned when the source does not have the expected size.
var ErrSizeChanged = errors.New("source size changed during compression")

// Compressed streams src through codec into w and returns the size and
// digest of the compressed bytes.
//
// Exactly expectedSize bytes must be read from src. The buf is used for
// copying; nil selects a default-sized buffer.
func Compressed(ctx context.Context, src io.Reader, w io.Writer, codec compress.Codec, buf []byte, expectedSize uint64) (manifest.Meta, error) {
	digester := digest.Canonical.Digester()
	cw := &file.CountingWriter{W: io.MultiWriter(w, digester.Hash())}
	//nolint:gosec // reading one byte past the expected size detects growth
	cr := &file.CountingReader{R: io.LimitReader(src, int64(expectedSize)+1)}

	// Stream: src → codec → countingWriter(w + digester)
	enc, err := codec.NewWriter(cw)
	if err != nil {
		return manifest.Meta{}, fmt.Errorf("create %s encoder: %w", codec.Name(), err)
	}
	if _, err := file.CopyWithContext(ctx, enc, cr, buf); err != nil {
		enc.Close()
		return manifest.Meta{}, err
	}
	if err := enc.Close(); err != nil {
		return manifest.Meta{}, fmt.Errorf("close %s encoder: %w", codec.Name(), err)
	}

	if cr.N != expectedSize {
		return manifest.Meta{}, fmt.Errorf("%w: expected %d bytes, read %d", ErrSizeChanged, expectedSize, cr.N)
	}
	return manifest.Meta{Size: cw.N, Hash: digester.Digest()}, nil
}
