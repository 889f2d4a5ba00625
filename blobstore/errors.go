package blobstore

import "errors"

var (
	// ErrClosed is returned when writing to a closed blob.
	ErrClosed = errors.New("blobstore: blob is closed")

	// ErrInvalidOffset is returned for negative read offsets.
	ErrInvalidOffset = errors.New("blobstore: invalid offset")

	// ErrInvalidName is returned for names that escape the store root.
	ErrInvalidName = errors.New("blobstore: invalid blob name")
)
