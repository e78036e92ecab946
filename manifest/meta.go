package manifest

import (
	_ "crypto/sha256" // registers the canonical digest algorithm
	"fmt"
	"strconv"
	"strings"

	"github.com/opencontainers/go-digest"
)

// Meta is the size and content digest of a byte stream.
type Meta struct {
	Size uint64
	Hash digest.Digest
}

// Equal reports whether both metas describe the same content.
func (m Meta) Equal(other Meta) bool {
	return m.Size == other.Size && m.Hash == other.Hash
}

// IsZero reports whether m carries no metadata.
func (m Meta) IsZero() bool {
	return m.Size == 0 && m.Hash == ""
}

// String returns the text form "<size>,<hash>".
func (m Meta) String() string {
	return strconv.FormatUint(m.Size, 10) + "," + m.Hash.String()
}

// ParseMeta parses the "<size>,<hash>" text form.
func ParseMeta(s string) (Meta, error) {
	sizeText, hashText, ok := strings.Cut(s, ",")
	if !ok {
		return Meta{}, fmt.Errorf("%w: meta %q", ErrMalformed, s)
	}
	return parseFields(sizeText, hashText)
}

func parseFields(sizeText, hashText string) (Meta, error) {
	size, err := strconv.ParseUint(strings.TrimSpace(sizeText), 10, 64)
	if err != nil {
		return Meta{}, fmt.Errorf("%w: size %q", ErrMalformed, sizeText)
	}
	hash, err := digest.Parse(strings.TrimSpace(hashText))
	if err != nil {
		return Meta{}, fmt.Errorf("%w: hash %q: %w", ErrMalformed, hashText, err)
	}
	return Meta{Size: size, Hash: hash}, nil
}
