package patchkit

import (
	"errors"
	"fmt"
)

var (
	// ErrSetup is wrapped by every error that aborts a cache run, such as an
	// invalid glob pattern or an unreadable manifest.
	ErrSetup = errors.New("patchkit: setup failed")

	// ErrPack is wrapped by every error that aborts a pack run.
	ErrPack = errors.New("patchkit: pack failed")
)

func setupError(format string, args ...any) error {
	return fmt.Errorf("%w: %w", ErrSetup, fmt.Errorf(format, args...))
}

func packError(format string, args ...any) error {
	return fmt.Errorf("%w: %w", ErrPack, fmt.Errorf(format, args...))
}
