// Package pathutil provides path manipulation for slash-separated logical paths.
package pathutil

import (
	"path"
	"path/filepath"
	"strings"
)

// Normalize trims surrounding whitespace and converts backslashes to the
// logical separator.
func Normalize(p string) string {
	return strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
}

// Join prefixes a root-relative slash path. An empty prefix leaves rel as is.
func Join(prefix, rel string) string {
	if prefix == "" {
		return rel
	}
	return path.Join(prefix, rel)
}

// StripPrefix removes prefix and its separator from p. It reports false when
// p does not start with prefix. An empty prefix matches every path.
func StripPrefix(prefix, p string) (string, bool) {
	if prefix == "" {
		return p, true
	}
	rest, ok := strings.CutPrefix(p, prefix+"/")
	if !ok {
		return "", false
	}
	return rest, true
}

// Clean cleans a root-relative slash path so it cannot climb above the root.
func Clean(rel string) string {
	return strings.TrimPrefix(path.Clean("/"+rel), "/")
}

// Resolve maps a logical path to its location under root. It reports false
// when p does not carry prefix.
func Resolve(root, prefix, p string) (string, bool) {
	rel, ok := StripPrefix(prefix, p)
	if !ok {
		return "", false
	}
	return filepath.Join(root, filepath.FromSlash(Clean(rel))), true
}
