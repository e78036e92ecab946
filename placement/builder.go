package placement

import (
	"os"
	"slices"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/meigma/patchkit/internal/fb"
)

// Builder assembles index data. It exists for fixtures and tooling that
// need to produce an index; the cache and packer only read them.
type Builder struct {
	archives   []Archive
	placements []placed
}

type placed struct {
	fingerprint uint32
	Placement
}

// AddArchive declares an archive.
func (b *Builder) AddArchive(id uint32, path string) *Builder {
	b.archives = append(b.archives, Archive{ID: id, Path: path})
	return b
}

// Place assigns the asset with fingerprint fp to an archive.
func (b *Builder) Place(fp, archive, category uint32) *Builder {
	b.placements = append(b.placements, placed{fingerprint: fp, Placement: Placement{Archive: archive, Category: category}})
	return b
}

// Bytes encodes the index.
func (b *Builder) Bytes() []byte {
	builder := flatbuffers.NewBuilder(1024)

	archiveOffsets := make([]flatbuffers.UOffsetT, len(b.archives))
	for i, a := range b.archives {
		path := builder.CreateString(a.Path)
		fb.ArchiveStart(builder)
		fb.ArchiveAddId(builder, a.ID)
		fb.ArchiveAddPath(builder, path)
		archiveOffsets[i] = fb.ArchiveEnd(builder)
	}
	placementOffsets := make([]flatbuffers.UOffsetT, len(b.placements))
	for i, p := range b.placements {
		fb.PlacementStart(builder)
		fb.PlacementAddFingerprint(builder, p.fingerprint)
		fb.PlacementAddArchive(builder, p.Archive)
		fb.PlacementAddCategory(builder, p.Category)
		placementOffsets[i] = fb.PlacementEnd(builder)
	}

	fb.IndexStartArchivesVector(builder, len(archiveOffsets))
	for _, off := range slices.Backward(archiveOffsets) {
		builder.PrependUOffsetT(off)
	}
	archives := builder.EndVector(len(archiveOffsets))

	fb.IndexStartPlacementsVector(builder, len(placementOffsets))
	for _, off := range slices.Backward(placementOffsets) {
		builder.PrependUOffsetT(off)
	}
	placements := builder.EndVector(len(placementOffsets))

	fb.IndexStart(builder)
	fb.IndexAddArchives(builder, archives)
	fb.IndexAddPlacements(builder, placements)
	builder.Finish(fb.IndexEnd(builder))
	return builder.FinishedBytes()
}

// WriteFile encodes the index to path.
func (b *Builder) WriteFile(path string) error {
	return os.WriteFile(path, b.Bytes(), 0o644) //nolint:gosec // index files are not secret
}
