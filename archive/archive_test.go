package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/patchkit/compress"
	"github.com/meigma/patchkit/internal/write"
	"github.com/meigma/patchkit/manifest"
)

func meta(s string) manifest.Meta {
	return manifest.Meta{Size: uint64(len(s)), Hash: digest.FromString(s)}
}

func TestWriteRead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "a.pk")

	w, err := Create(path)
	require.NoError(t, err)

	require.NoError(t, w.Put(ctx, 0x20, strings.NewReader("second raw"), meta("second raw"), meta("zz"), false))
	require.NoError(t, w.Put(ctx, 0x10, strings.NewReader("zz"), meta("first raw!"), meta("zz"), true))
	assert.Equal(t, 2, w.Len())
	require.NoError(t, w.Finalize())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	entries := r.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, uint32(0x10), entries[0].Fingerprint)
	assert.Equal(t, uint32(0x20), entries[1].Fingerprint)

	e, ok := r.Lookup(0x10)
	require.True(t, ok)
	assert.True(t, e.IsCompressed)
	assert.Equal(t, meta("first raw!"), e.Raw)
	assert.Equal(t, meta("zz"), e.Compressed)
	got, err := io.ReadAll(r.Payload(e))
	require.NoError(t, err)
	assert.Equal(t, "zz", string(got))

	e, ok = r.Lookup(0x20)
	require.True(t, ok)
	assert.False(t, e.IsCompressed)
	got, err = io.ReadAll(r.Payload(e))
	require.NoError(t, err)
	assert.Equal(t, "second raw", string(got))

	_, ok = r.Lookup(0x30)
	assert.False(t, ok)
}

func TestEmptyArchive(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "empty.pk")
	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.Finalize())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Empty(t, r.Entries())
}

func TestWriterErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w, err := Create(filepath.Join(t.TempDir(), "a.pk"))
	require.NoError(t, err)

	require.NoError(t, w.Put(ctx, 1, strings.NewReader("abc"), meta("abc"), manifest.Meta{}, false))
	err = w.Put(ctx, 1, strings.NewReader("abc"), meta("abc"), manifest.Meta{}, false)
	require.ErrorIs(t, err, ErrDuplicate)

	err = w.Put(ctx, 2, strings.NewReader("ab"), meta("abc"), manifest.Meta{}, false)
	require.ErrorIs(t, err, ErrSizeMismatch)
	err = w.Put(ctx, 3, strings.NewReader("abcd"), meta("abc"), manifest.Meta{}, false)
	require.ErrorIs(t, err, ErrSizeMismatch)

	require.NoError(t, w.Finalize())
	require.ErrorIs(t, w.Finalize(), ErrFinalized)
	require.ErrorIs(t, w.Put(ctx, 4, strings.NewReader("x"), meta("x"), manifest.Meta{}, false), ErrFinalized)
}

func TestOpenCorrupt(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	path := filepath.Join(dir, "good.pk")
	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.Put(context.Background(), 1, strings.NewReader("abc"), meta("abc"), manifest.Meta{}, false))
	require.NoError(t, w.Finalize())
	good, err := os.ReadFile(path)
	require.NoError(t, err)

	badMagic := bytes.Clone(good)
	copy(badMagic, "NOPE")
	badTrailer := bytes.Clone(good)
	copy(badTrailer[len(badTrailer)-4:], "NOPE")
	badOffset := bytes.Clone(good)
	badOffset[len(badOffset)-trailerSize] ^= 0xFF

	tests := []struct {
		name string
		data []byte
	}{
		{"short", []byte("PKAR")},
		{"bad magic", badMagic},
		{"bad trailer", badTrailer},
		{"bad directory offset", badOffset},
		{"truncated", good[:len(good)-1]},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := filepath.Join(dir, strings.ReplaceAll(tc.name, " ", "_")+".pk")
			require.NoError(t, os.WriteFile(p, tc.data, 0o644))
			_, err := Open(p)
			require.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	root := t.TempDir()
	resolve := func(id uint32) (string, error) {
		return filepath.Join(root, "out", fmt.Sprintf("pack%d.pk", id)), nil
	}

	// Existing file is replaced.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "out"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "out", "pack2.pk"), []byte("stale"), 0o644))

	reg := NewRegistry(resolve)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.GetOrOpen(uint32(i%2) + 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, []uint32{1, 2}, reg.Opened())

	w, err := reg.GetOrOpen(2)
	require.NoError(t, err)
	require.NoError(t, w.Put(ctx, 7, strings.NewReader("seven"), meta("seven"), manifest.Meta{}, false))
	require.NoError(t, reg.FinalizeAll())

	r, err := Open(filepath.Join(root, "out", "pack2.pk"))
	require.NoError(t, err)
	defer r.Close()
	require.Len(t, r.Entries(), 1)

	r1, err := Open(filepath.Join(root, "out", "pack1.pk"))
	require.NoError(t, err)
	defer r1.Close()
	assert.Empty(t, r1.Entries())

	// A second finalize reports every archive.
	err = reg.FinalizeAll()
	require.ErrorIs(t, err, ErrFinalized)
}

func TestRegistryAbort(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	reg := NewRegistry(func(id uint32) (string, error) {
		return filepath.Join(root, fmt.Sprintf("%d.pk", id)), nil
	})
	_, err := reg.GetOrOpen(5)
	require.NoError(t, err)
	reg.Abort()
	assert.NoFileExists(t, filepath.Join(root, "5.pk"))
}

func TestRegistryResolveError(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(func(uint32) (string, error) { return "", os.ErrNotExist })
	_, err := reg.GetOrOpen(1)
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, reg.Opened())
}

func TestVerify(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "v.pk")
	content := strings.Repeat("texture ", 512)

	var packed bytes.Buffer
	comp, err := write.Compressed(ctx, strings.NewReader(content), &packed, compress.Default, nil, uint64(len(content)))
	require.NoError(t, err)

	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.Put(ctx, 1, bytes.NewReader(packed.Bytes()), meta(content), comp, true))
	require.NoError(t, w.Put(ctx, 2, strings.NewReader("raw"), meta("raw"), manifest.Meta{}, false))
	// Right size, wrong digest.
	require.NoError(t, w.Put(ctx, 3, strings.NewReader("bad"), meta("bag"), manifest.Meta{}, false))
	// Compressed digest matches but the raw metadata does not.
	require.NoError(t, w.Put(ctx, 4, bytes.NewReader(packed.Bytes()), meta("something else"), comp, true))
	require.NoError(t, w.Finalize())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	for fp, wantErr := range map[uint32]bool{1: false, 2: false, 3: true, 4: true} {
		e, ok := r.Lookup(fp)
		require.True(t, ok)
		err := r.Verify(ctx, e, compress.Default)
		if wantErr {
			require.ErrorIs(t, err, ErrVerify, "entry %d", fp)
		} else {
			require.NoError(t, err, "entry %d", fp)
		}
	}
}
