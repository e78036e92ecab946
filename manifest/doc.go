// Package manifest implements the versioned manifest of cached assets.
//
// A manifest maps logical paths to the raw and compressed metadata of each
// asset. It is persisted as text:
//
//	[version]
//	<version-number> <version-name>
//	[files]
//	<path>,<raw-size>,<raw-hash>,<compressed-size>,<compressed-hash>,<line-checksum>
//
// The line checksum is the digest of everything before it on the line and
// detects corruption of persisted state. Entries are always written in
// sorted path order so the output is deterministic.
package manifest
