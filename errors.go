package growablebitmap

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds is matched by every *ErrIndexOutOfBounds.
	ErrOutOfBounds = errors.New("index out of bounds")

	// ErrAllocationFailed is matched by every *ErrAllocation.
	ErrAllocationFailed = errors.New("allocation failed")

	// ErrInvalidFormat is matched by every *ErrFormat.
	ErrInvalidFormat = errors.New("invalid bitmap format")
)

// ErrIndexOutOfBounds indicates a read or clear past the current length.
//
// It satisfies errors.Is(err, ErrOutOfBounds).
type ErrIndexOutOfBounds struct {
	Index uint64
	Len   uint64
}

func (e *ErrIndexOutOfBounds) Error() string {
	return fmt.Sprintf("index out of bounds: index %d, len %d", e.Index, e.Len)
}

func (e *ErrIndexOutOfBounds) Unwrap() error { return ErrOutOfBounds }

// ErrAllocation indicates that growth could not obtain the storage needed to
// make Index addressable.
//
// It satisfies errors.Is(err, ErrAllocationFailed). The original underlying
// error (if any), e.g. resource.ErrMemoryLimitExceeded, is reachable through
// errors.Is / errors.As as well.
type ErrAllocation struct {
	Index  uint64
	Blocks uint64 // blocks that would have been appended
	cause  error
}

func (e *ErrAllocation) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("allocation failed: %d blocks for index %d: %v", e.Blocks, e.Index, e.cause)
	}
	return fmt.Sprintf("allocation failed: %d blocks for index %d", e.Blocks, e.Index)
}

func (e *ErrAllocation) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrAllocationFailed}
	}
	return []error{ErrAllocationFailed, e.cause}
}

// ErrFormat indicates persisted bitmap data that cannot be restored.
//
// It satisfies errors.Is(err, ErrInvalidFormat).
type ErrFormat struct {
	Reason string
	cause  error
}

func (e *ErrFormat) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("invalid bitmap format: %s: %v", e.Reason, e.cause)
	}
	return "invalid bitmap format: " + e.Reason
}

func (e *ErrFormat) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrInvalidFormat}
	}
	return []error{ErrInvalidFormat, e.cause}
}

func formatError(cause error, format string, args ...any) *ErrFormat {
	return &ErrFormat{Reason: fmt.Sprintf(format, args...), cause: cause}
}
