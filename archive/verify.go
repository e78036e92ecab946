package archive

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/meigma/patchkit/compress"
	"github.com/meigma/patchkit/internal/file"
)

// ErrVerify is returned when an entry's payload does not match its metadata.
var ErrVerify = errors.New("archive: entry verification failed")

// Verify checks the stored payload of e against its metadata. Payloads
// stored compressed are also decoded with codec and checked against the raw
// metadata.
func (r *Reader) Verify(ctx context.Context, e Entry, codec compress.Codec) error {
	stored := e.Raw
	if e.IsCompressed {
		stored = e.Compressed
	}
	if e.Size != stored.Size {
		return fmt.Errorf("%w: %08x: stored %d bytes, metadata says %d", ErrVerify, e.Fingerprint, e.Size, stored.Size)
	}
	if _, sum, err := file.Digest(ctx, r.Payload(e)); err != nil {
		return err
	} else if sum != stored.Hash {
		return fmt.Errorf("%w: %08x: payload digest %s, want %s", ErrVerify, e.Fingerprint, sum, stored.Hash)
	}
	if !e.IsCompressed {
		return nil
	}

	dec, err := codec.NewReader(r.Payload(e))
	if err != nil {
		return err
	}
	defer dec.Close()
	//nolint:gosec // reading one byte past the raw size detects overflow
	n, sum, err := file.Digest(ctx, io.LimitReader(dec, int64(e.Raw.Size)+1))
	if err != nil {
		return fmt.Errorf("%w: %08x: decode: %w", ErrVerify, e.Fingerprint, err)
	}
	if n != e.Raw.Size || sum != e.Raw.Hash {
		return fmt.Errorf("%w: %08x: decoded %d bytes with digest %s, want %s", ErrVerify, e.Fingerprint, n, sum, e.Raw)
	}
	return nil
}
