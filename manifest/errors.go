package manifest

import "errors"

var (
	// ErrMalformed is returned when manifest text cannot be parsed.
	ErrMalformed = errors.New("manifest: malformed")

	// ErrChecksum is returned when a line checksum does not match its entry.
	ErrChecksum = errors.New("manifest: line checksum mismatch")
)
