// Package match compiles include/exclude glob sets into a single path
// predicate.
//
// Patterns are matched against whole slash-separated logical paths and no
// character is treated as a separator: "*" and "?" cross "/". A "**/"
// component may also match no directories at all, so "**/*.pk" accepts
// "main.pk" and "a/**/b" accepts "a/b".
package match

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// ErrBadPattern is returned for globs that do not compile.
var ErrBadPattern = errors.New("match: bad pattern")

// Matcher decides whether a logical path participates in a session.
type Matcher struct {
	include []Glob
	exclude []Glob
}

// Compile validates the patterns once. An empty include set matches every
// path.
func Compile(include, exclude []string) (*Matcher, error) {
	inc, err := compileAll(include)
	if err != nil {
		return nil, err
	}
	exc, err := compileAll(exclude)
	if err != nil {
		return nil, err
	}
	return &Matcher{include: inc, exclude: exc}, nil
}

func compileAll(patterns []string) ([]Glob, error) {
	out := make([]Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := CompileGlob(p)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// Accepts reports whether path matches an include pattern and no exclude
// pattern.
func (m *Matcher) Accepts(path string) bool {
	if len(m.include) > 0 && !matchesAny(m.include, path) {
		return false
	}
	return !matchesAny(m.exclude, path)
}

func matchesAny(globs []Glob, path string) bool {
	for _, g := range globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// Glob is a single compiled pattern.
type Glob struct {
	pattern string
	forms   []glob.Glob
}

// CompileGlob validates and compiles pattern.
func CompileGlob(pattern string) (Glob, error) {
	g := Glob{pattern: pattern}
	for _, v := range variants(pattern) {
		c, err := glob.Compile(v)
		if err != nil {
			return Glob{}, fmt.Errorf("%w: %q: %w", ErrBadPattern, pattern, err)
		}
		g.forms = append(g.forms, c)
	}
	return g, nil
}

// variants expands every "**/" component into the pattern with and without
// it, since the compiled form needs the literal separator that follows.
func variants(p string) []string {
	out := []string{p}
	if rest, ok := strings.CutPrefix(p, "**/"); ok {
		out = append(out, variants(rest)...)
	}
	for i := 0; ; {
		j := strings.Index(p[i:], "/**/")
		if j < 0 {
			break
		}
		j += i
		out = append(out, variants(p[:j]+p[j+3:])...)
		i = j + 1
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Match reports whether path matches the glob.
func (g Glob) Match(path string) bool {
	for _, c := range g.forms {
		if c.Match(path) {
			return true
		}
	}
	return false
}

// String returns the pattern.
func (g Glob) String() string {
	return g.pattern
}
