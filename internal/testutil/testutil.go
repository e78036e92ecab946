// Package testutil provides fixtures for tests that operate on project trees.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// ModTime is the modification time stamped on files written by WriteFile.
var ModTime = time.Unix(1_700_000_000, 0)

// WriteFile writes content to the slash path rel under root, creating parent
// directories, and stamps it with ModTime. It returns the file location.
func WriteFile(tb testing.TB, root, rel, content string) string {
	tb.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(tb, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(tb, os.WriteFile(p, []byte(content), 0o644))
	Touch(tb, p, ModTime)
	return p
}

// WriteTree writes every file of files, keyed by slash path, under root.
func WriteTree(tb testing.TB, root string, files map[string]string) {
	tb.Helper()
	for rel, content := range files {
		WriteFile(tb, root, rel, content)
	}
}

// Touch sets the access and modification times of path.
func Touch(tb testing.TB, path string, at time.Time) {
	tb.Helper()
	require.NoError(tb, os.Chtimes(path, at, at))
}
