package file

import (
	"context"
	_ "crypto/sha256" // registers the canonical digest algorithm
	"fmt"
	"io"
	"os"

	"github.com/opencontainers/go-digest"
)

// Digest streams r through the canonical digest algorithm and returns the
// number of bytes consumed together with the digest.
func Digest(ctx context.Context, r io.Reader) (uint64, digest.Digest, error) {
	digester := digest.Canonical.Digester()
	n, err := CopyWithContext(ctx, digester.Hash(), r, nil)
	if err != nil {
		return 0, "", err
	}
	return n, digester.Digest(), nil
}

// DigestFile computes the size and canonical digest of the file at path.
func DigestFile(ctx context.Context, path string) (uint64, digest.Digest, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the scanned project tree
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	n, d, err := Digest(ctx, f)
	if err != nil {
		return 0, "", fmt.Errorf("digest %s: %w", path, err)
	}
	return n, d, nil
}
