package manifest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMeta(content string) Meta {
	return Meta{Size: uint64(len(content)), Hash: digest.FromString(content)}
}

func sampleManifest() *Manifest {
	m := New(7, "seven")
	m.Set("client/res/b.txt", NewEntry("client/res/b.txt", testMeta("bbb"), testMeta("b-z")))
	m.Set("client/res/a.txt", NewEntry("client/res/a.txt", testMeta("hello"), testMeta("h-z")))
	m.Set("client/res/sub/c.bin", NewEntry("client/res/sub/c.bin", testMeta(""), testMeta("c-z")))
	return m
}

func TestNewDefaultName(t *testing.T) {
	t.Parallel()

	m := New(12, "")
	assert.Equal(t, "12", m.Name)
	assert.Equal(t, 0, m.Len())
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	m := sampleManifest()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)

	got, err := Parse(&buf)
	require.NoError(t, err)

	assert.Equal(t, m.Version, got.Version)
	assert.Equal(t, m.Name, got.Name)
	require.Equal(t, m.Paths(), got.Paths())
	for path, want := range m.All() {
		e, ok := got.Get(path)
		require.True(t, ok, "missing %s", path)
		assert.Equal(t, want, e)
	}
}

func TestRoundTripCommaPath(t *testing.T) {
	t.Parallel()

	const path = "client/res/a,b,c.txt"
	m := New(1, "")
	m.Set(path, NewEntry(path, testMeta("hello"), testMeta("h-z")))
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)

	got, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, got.Paths())
	e, ok := got.Get(path)
	require.True(t, ok)
	assert.True(t, e.Verify(path))
	assert.True(t, testMeta("hello").Equal(e.Raw))
}

func TestWriteSorted(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	_, err := sampleManifest().WriteTo(&buf)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "[version]", lines[0])
	assert.Equal(t, "7 seven", lines[1])
	assert.Equal(t, "[files]", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "client/res/a.txt,5,sha256:"))
	assert.True(t, strings.HasPrefix(lines[4], "client/res/b.txt,"))
	assert.True(t, strings.HasPrefix(lines[5], "client/res/sub/c.bin,0,"))
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	good := NewEntry("a", testMeta("x"), testMeta("y")).Line("a")
	tampered := strings.Replace(good, "a,1,", "b,1,", 1)

	tests := []struct {
		name  string
		input string
		err   error
	}{
		{"missing version", "[files]\n" + good + "\n", ErrMalformed},
		{"bad version", "[version]\nx name\n", ErrMalformed},
		{"unknown section", "[version]\n1 a\n[other]\n", ErrMalformed},
		{"orphan line", good + "\n", ErrMalformed},
		{"short line", "[version]\n1 a\n[files]\na,1\n", ErrMalformed},
		{"bad hash", "[version]\n1 a\n[files]\na,1,nothash,1,nothash,nothash\n", ErrMalformed},
		{"checksum", "[version]\n1 a\n[files]\n" + tampered + "\n", ErrChecksum},
		{"duplicate", "[version]\n1 a\n[files]\n" + good + "\n" + good + "\n", ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(strings.NewReader(tt.input))
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestTake(t *testing.T) {
	t.Parallel()

	m := sampleManifest()
	e, ok := m.Take("client/res/a.txt")
	require.True(t, ok)
	assert.True(t, e.Verify("client/res/a.txt"))
	assert.False(t, e.Verify("client/res/b.txt"))

	_, ok = m.Take("client/res/a.txt")
	assert.False(t, ok)
	assert.Equal(t, 2, m.Len())
}

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trunk.txt")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	m := sampleManifest()
	require.NoError(t, m.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.Paths(), got.Paths())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestLoadOrEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m, err := LoadOrEmpty(filepath.Join(dir, "missing.txt"))
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = LoadOrEmpty(dir)
	require.NoError(t, err)
	assert.Nil(t, m)

	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o600))
	_, err = LoadOrEmpty(bad)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestParseMeta(t *testing.T) {
	t.Parallel()

	want := testMeta("hello")
	got, err := ParseMeta(want.String())
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	_, err = ParseMeta("12")
	require.ErrorIs(t, err, ErrMalformed)
	assert.True(t, Meta{}.IsZero())
}
