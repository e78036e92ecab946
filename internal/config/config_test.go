package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
[project.client]
include = ["**/*.txt"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	dir := filepath.Dir(path)

	p, err := cfg.Project("")
	require.NoError(t, err)
	assert.Equal(t, "client", p.Name)
	assert.Equal(t, filepath.Join(dir, "src", "client"), p.Root)
	assert.Equal(t, "client", p.Prefix)
	assert.Equal(t, []string{"**/*.txt"}, p.Include)
	assert.Empty(t, p.Exclude)
	assert.Equal(t, filepath.Join(dir, "cache", "client"), p.StoreDir)
	assert.Equal(t, filepath.Join(dir, "cache", "client", "trunk.txt"), p.ManifestPath)
	assert.Equal(t, filepath.Join(dir, "cache", "client", "primary.pki"), p.PlacementPath)
	assert.Equal(t, filepath.Join(dir, "cache", "client.quickcheck.txt"), p.QuickCheckPath)
}

func TestLoadExplicit(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
[general]
src = "sources"

[project.client]
dir = "game/client"
exclude = ["**/*.tmp"]
cache = "out/cache"
key = "live"
pki = "versions"
manifest = "release"
prefix = "client/res"

[project.server]
dir = "server"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	dir := filepath.Dir(path)
	assert.Equal(t, []string{"client", "server"}, cfg.Names())

	p, err := cfg.Project("Client")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sources", "game", "client"), p.Root)
	assert.Equal(t, "client/res", p.Prefix)
	assert.Equal(t, []string{"**/*.tmp"}, p.Exclude)
	assert.Equal(t, filepath.Join(dir, "out", "cache", "live"), p.StoreDir)
	assert.Equal(t, filepath.Join(dir, "out", "cache", "live", "release.txt"), p.ManifestPath)
	assert.Equal(t, filepath.Join(dir, "out", "cache", "live", "versions.pki"), p.PlacementPath)
	assert.Equal(t, filepath.Join(dir, "out", "cache", "client.quickcheck.txt"), p.QuickCheckPath)

	target := p.PackTarget()
	assert.Equal(t, p.Root, target.Root)
	assert.Equal(t, p.PlacementPath, target.PlacementPath)
}

func TestProjectSelection(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, "[project.a]\ndir = \"a\"\n[project.b]\ndir = \"b\"\n"))
	require.NoError(t, err)

	_, err = cfg.Project("")
	require.ErrorIs(t, err, ErrAmbiguousProject)
	_, err = cfg.Project("c")
	require.ErrorIs(t, err, ErrUnknownProject)
	p, err := cfg.Project("b")
	require.NoError(t, err)
	assert.Equal(t, "b", p.Name)

	empty, err := Load(writeConfig(t, "[general]\nsrc = \"x\"\n"))
	require.NoError(t, err)
	_, err = empty.Project("")
	require.ErrorIs(t, err, ErrNoProject)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "[project.client\n"))
	require.Error(t, err)
}
