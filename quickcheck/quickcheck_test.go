package quickcheck

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/patchkit/manifest"
)

func rec(path string, mtime float64, content string) Record {
	return Record{
		Path:       path,
		ModTime:    mtime,
		HasModTime: true,
		Meta:       manifest.Meta{Size: uint64(len(content)), Hash: digest.FromString(content)},
	}
}

func TestRecordLineRoundTrip(t *testing.T) {
	t.Parallel()

	want := rec("client/a.txt", 1700000000.123456, "hello")
	got, ok, err := ParseRecord(want.Line())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestRecordLineCommaPath(t *testing.T) {
	t.Parallel()

	want := rec("client/a,b,c.txt", 1700000000, "hello")
	got, ok, err := ParseRecord(want.Line())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	x := NewIndex()
	x.Add(want)
	var buf strings.Builder
	_, err = x.WriteTo(&buf)
	require.NoError(t, err)
	loaded, err := Load(strings.NewReader(buf.String()))
	require.NoError(t, err)
	r, ok := loaded.Take("client/a,b,c.txt")
	require.True(t, ok)
	assert.Equal(t, want, r)
}

func TestParseRecordDropsMissingTime(t *testing.T) {
	t.Parallel()

	r := rec("a", 0, "x")
	r.HasModTime = false
	line := r.Line()
	assert.Contains(t, line, "a,,1,sha256:")

	_, ok, err := ParseRecord(line)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = ParseRecord("a,yesterday,1," + digest.FromString("x").String())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseRecordMalformed(t *testing.T) {
	t.Parallel()

	for _, line := range []string{
		"a,1,2",
		"a,1,big," + digest.FromString("x").String(),
		"a,1,1,nothash",
	} {
		_, _, err := ParseRecord(line)
		require.ErrorIs(t, err, ErrMalformed, line)
	}
}

func TestFresh(t *testing.T) {
	t.Parallel()

	r := rec("a", 100.5, "x")
	assert.True(t, r.Fresh(100.5, true))
	assert.False(t, r.Fresh(100.5, false))
	assert.False(t, r.Fresh(101, true))

	r.HasModTime = false
	assert.False(t, r.Fresh(0, true))
}

type fakeInfo struct {
	os.FileInfo
	mod time.Time
}

func (f fakeInfo) ModTime() time.Time { return f.mod }

func TestModTime(t *testing.T) {
	t.Parallel()

	_, ok := ModTime(nil)
	assert.False(t, ok)

	_, ok = ModTime(fakeInfo{mod: time.Unix(-10, 0)})
	assert.False(t, ok)

	secs, ok := ModTime(fakeInfo{mod: time.Unix(1700000000, 500_000_000)})
	require.True(t, ok)
	assert.InDelta(t, 1700000000.5, secs, 1e-6)
}

func TestIndexTakeConsumes(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	idx.Add(rec("a", 1, "x"))
	idx.Add(rec("b", 2, "y"))
	idx.Add(rec("a", 3, "z"))
	assert.Equal(t, 2, idx.Len())

	got, ok := idx.Take("a")
	require.True(t, ok)
	assert.InDelta(t, 3.0, got.ModTime, 0)

	_, ok = idx.Take("a")
	assert.False(t, ok)
	assert.Equal(t, 1, idx.Len())
}

func TestLoadWriteRoundTrip(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	idx.Add(rec("z", 5, "zz"))
	idx.Add(rec("a", 1, "aa"))
	var b strings.Builder
	_, err := idx.WriteTo(&b)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "a,1,2,"))

	got, err := Load(strings.NewReader(b.String() + "dropped,,1," + digest.FromString("q").String() + "\n"))
	require.NoError(t, err)
	assert.Equal(t, idx.Records(), got.Records())
}

func TestFileReloadTruncateRewrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "client.quickcheck.txt")
	seed := rec("a", 1, "aa").Line() + "\n" + rec("b", 2, "bb").Line() + "\n"
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	qf, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 2, qf.Prior().Len())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size(), "file should be truncated after load")

	_, ok := qf.Prior().Take("a")
	require.True(t, ok)
	qf.Record(rec("a", 10, "aa"))
	require.NoError(t, qf.Close())
	require.NoError(t, qf.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, rec("a", 10, "aa").Line()+"\n", string(data))
}

func TestFileCarryForward(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "qc.txt")
	seed := rec("a", 1, "aa").Line() + "\n" + rec("b", 2, "bb").Line() + "\n"
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	qf, err := Open(path)
	require.NoError(t, err)
	qf.Prior().Take("a")
	qf.Record(rec("a", 10, "aa"))
	assert.Equal(t, 1, qf.CarryForward())
	require.NoError(t, qf.Close())

	reloaded, err := Open(path)
	require.NoError(t, err)
	defer reloaded.Close()
	recs := reloaded.Prior().Records()
	require.Len(t, recs, 2)
	assert.InDelta(t, 10.0, recs[0].ModTime, 0)
	assert.Equal(t, "b", recs[1].Path)
}

func TestFileForget(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "qc.txt")
	require.NoError(t, os.WriteFile(path, []byte(rec("gone", 1, "g").Line()+"\n"), 0o600))

	qf, err := Open(path)
	require.NoError(t, err)
	assert.True(t, qf.Forget("gone"))
	assert.False(t, qf.Forget("gone"))
	assert.Zero(t, qf.CarryForward())
	require.NoError(t, qf.Close())
}

func TestOpenMalformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "qc.txt")
	require.NoError(t, os.WriteFile(path, []byte("a,1,x,y\n"), 0o600))
	_, err := Open(path)
	require.ErrorIs(t, err, ErrMalformed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,1,x,y\n", string(data), "malformed file must not be truncated")
}
