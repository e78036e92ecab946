// Package fingerprint computes the short path checksum used as a lookup key
// by the quickcheck index and the placement index.
package fingerprint

import "github.com/cespare/xxhash/v2"

// Of returns the 32-bit fingerprint of a logical path.
//
// Fingerprints are not unique; callers that need correctness keep the path
// string next to the fingerprint.
func Of(path string) uint32 {
	h := xxhash.Sum64String(path)
	return uint32(h>>32) ^ uint32(h) //nolint:gosec // intentional fold to 32 bits
}
