// Package archive writes and reads distribution archives.
//
// Layout:
//
//	"PKAR" | version u32 | payload ... | directory | dir offset u64 | dir length u64 | "PKAR"
//
// Integers are little-endian. The directory is a CBOR array with one record
// per entry, sorted by fingerprint, carrying the raw and compressed metadata
// of the asset and the extent of its payload.
package archive

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/opencontainers/go-digest"

	"github.com/meigma/patchkit/manifest"
)

const (
	magic       = "PKAR"
	version     = uint32(1)
	headerSize  = 8
	trailerSize = 20
)

var (
	// ErrFinalized is returned when writing to or finalizing an archive that
	// has already been finalized.
	ErrFinalized = errors.New("archive: already finalized")

	// ErrDuplicate is returned when a fingerprint is put twice.
	ErrDuplicate = errors.New("archive: duplicate fingerprint")

	// ErrSizeMismatch is returned when a payload does not have the size its
	// metadata declares.
	ErrSizeMismatch = errors.New("archive: payload size mismatch")

	// ErrCorrupt is returned when an archive cannot be read.
	ErrCorrupt = errors.New("archive: corrupt")
)

// Entry describes one stored asset.
type Entry struct {
	Fingerprint  uint32
	Raw          manifest.Meta
	Compressed   manifest.Meta
	IsCompressed bool
	Offset       uint64
	Size         uint64
}

type dirEntry struct {
	Fingerprint  uint32 `cbor:"1,keyasint"`
	RawSize      uint64 `cbor:"2,keyasint"`
	RawHash      string `cbor:"3,keyasint"`
	CompSize     uint64 `cbor:"4,keyasint"`
	CompHash     string `cbor:"5,keyasint"`
	IsCompressed bool   `cbor:"6,keyasint"`
	Offset       uint64 `cbor:"7,keyasint"`
	Size         uint64 `cbor:"8,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("archive: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("archive: CBOR decoder initialization failed: " + err.Error())
	}
}

func toDir(e Entry) dirEntry {
	return dirEntry{
		Fingerprint:  e.Fingerprint,
		RawSize:      e.Raw.Size,
		RawHash:      e.Raw.Hash.String(),
		CompSize:     e.Compressed.Size,
		CompHash:     e.Compressed.Hash.String(),
		IsCompressed: e.IsCompressed,
		Offset:       e.Offset,
		Size:         e.Size,
	}
}

func fromDir(d dirEntry) (Entry, error) {
	raw, err := parseHash(d.RawHash)
	if err != nil {
		return Entry{}, err
	}
	comp, err := parseHash(d.CompHash)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Fingerprint:  d.Fingerprint,
		Raw:          manifest.Meta{Size: d.RawSize, Hash: raw},
		Compressed:   manifest.Meta{Size: d.CompSize, Hash: comp},
		IsCompressed: d.IsCompressed,
		Offset:       d.Offset,
		Size:         d.Size,
	}, nil
}

func parseHash(s string) (digest.Digest, error) {
	if s == "" {
		return "", nil
	}
	d, err := digest.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: hash %q: %w", ErrCorrupt, s, err)
	}
	return d, nil
}
