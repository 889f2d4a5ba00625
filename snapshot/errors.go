package snapshot

import "errors"

var (
	// ErrChecksumMismatch is returned when a payload does not match the
	// CRC32C recorded in its manifest.
	ErrChecksumMismatch = errors.New("snapshot: checksum mismatch")

	// ErrCorruptManifest is returned when a manifest blob cannot be decoded.
	ErrCorruptManifest = errors.New("snapshot: corrupt manifest")

	// ErrInvalidName is returned for empty names or names with a leading or
	// trailing slash.
	ErrInvalidName = errors.New("snapshot: invalid name")
)
