package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccepts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		include []string
		exclude []string
		path    string
		want    bool
	}{
		{"empty include matches all", nil, nil, "client/res/a.txt", true},
		{"include hit", []string{"client/res/**"}, nil, "client/res/sub/a.txt", true},
		{"include miss", []string{"client/res/**"}, nil, "client/code/a.lua", false},
		{"exclude wins", nil, []string{"**/*.pk"}, "client/res/pack/a.pk", false},
		{"exclude miss", nil, []string{"**/*.pk"}, "client/res/a.txt", true},
		{"both", []string{"**/*.txt"}, []string{"**/tmp/**"}, "client/tmp/a.txt", false},
		{"star crosses directories", []string{"client/*.lua"}, nil, "client/code/ui/a.lua", true},
		{"exclude star crosses directories", nil, []string{"*.tmp"}, "client/x/y.tmp", false},
		{"leading globstar matches top level", nil, []string{"**/*.pk"}, "main.pk", false},
		{"interior globstar matches no directories", []string{"client/**/a.txt"}, nil, "client/a.txt", true},
		{"alternatives", []string{"**/*.{txt,lua}"}, nil, "client/a.lua", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := Compile(tt.include, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Accepts(tt.path))
		})
	}
}

func TestCompileBadPattern(t *testing.T) {
	t.Parallel()

	_, err := Compile([]string{"[a-"}, nil)
	require.ErrorIs(t, err, ErrBadPattern)
	_, err = Compile(nil, []string{"[!"})
	require.ErrorIs(t, err, ErrBadPattern)
	_, err = CompileGlob("[")
	require.ErrorIs(t, err, ErrBadPattern)
}

func TestGlob(t *testing.T) {
	t.Parallel()

	g, err := CompileGlob("**/main*.pk")
	require.NoError(t, err)
	assert.True(t, g.Match("client/res/pack/main.pk"))
	assert.False(t, g.Match("client/res/pack/other.pk"))
	assert.Equal(t, "**/main*.pk", g.String())
}

func TestGlobContainsFilter(t *testing.T) {
	t.Parallel()

	g, err := CompileGlob("*main*")
	require.NoError(t, err)
	assert.True(t, g.Match("client/res/pack/main.pk"))
	assert.True(t, g.Match("client/res/pack/main_ui.pk"))
	assert.False(t, g.Match("client/res/pack/other.pk"))
}

func TestVariants(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"**/*.pk", "*.pk"}, variants("**/*.pk"))
	assert.Equal(t, []string{"a/**/b", "a/b"}, variants("a/**/b"))
	assert.Equal(t, []string{"a/**/b/**/c", "a/**/b/c", "a/b/**/c", "a/b/c"}, variants("a/**/b/**/c"))
	assert.Equal(t, []string{"client/*"}, variants("client/*"))
}
