package patchkit

// ProgressEvent represents a progress update during a cache or pack run.
type ProgressEvent struct {
	// Stage identifies the current phase of the run.
	Stage ProgressStage

	// Path is the logical path of the file just processed.
	Path string

	// FilesDone is the number of files completed.
	FilesDone int

	// FilesTotal is the total number of files.
	// Zero indicates the total is unknown (e.g., while scanning).
	FilesTotal int
}

// ProgressStage identifies the current phase of a run.
type ProgressStage uint8

const (
	// StageScanning indicates files are being checked and cached.
	StageScanning ProgressStage = iota

	// StagePacking indicates files are being written into archives.
	StagePacking
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageScanning:
		return "scanning"
	case StagePacking:
		return "packing"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates.
// Implementations must be safe for concurrent calls.
type ProgressFunc func(ProgressEvent)
