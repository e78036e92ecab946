package patchkit

// Project locates the sources and cache state of one asset tree.
type Project struct {
	// Name identifies the project in logs and names the quickcheck file.
	Name string

	// Root is the directory holding the project sources.
	Root string

	// Prefix is prepended to root-relative paths to form logical paths.
	Prefix string

	// Include and Exclude are globs over whole logical paths, where "*"
	// also matches "/". An empty Include matches everything.
	Include []string
	Exclude []string

	// StoreDir is the content-addressed store directory.
	StoreDir string

	// ManifestPath is the manifest file inside StoreDir.
	ManifestPath string

	// QuickCheckPath is the quickcheck index file.
	QuickCheckPath string

	// PlacementPath is the placement index consumed by Pack.
	PlacementPath string
}

// PackTarget returns the inputs of a pack run over this project.
func (p Project) PackTarget() PackTarget {
	return PackTarget{
		Root:          p.Root,
		Prefix:        p.Prefix,
		StoreDir:      p.StoreDir,
		ManifestPath:  p.ManifestPath,
		PlacementPath: p.PlacementPath,
	}
}

// PackTarget locates the inputs and output root of a pack run.
type PackTarget struct {
	Root          string
	Prefix        string
	StoreDir      string
	ManifestPath  string
	PlacementPath string
}
