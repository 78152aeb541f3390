package slapcodec

import "github.com/pkg/errors"

// Sentinel errors forming the complete error taxonomy raised by this
// package. Callers should compare against these with errors.Is; internal
// code wraps them with github.com/pkg/errors to attach call-site context
// without losing the sentinel identity.
var (
	// ErrArgumentNull indicates a required buffer or handle is missing.
	ErrArgumentNull = errors.New("slapcodec: argument is nil")

	// ErrInvalidDimensions indicates W or H violates the multiple-of-32
	// constraint (the same for encoder and decoder).
	ErrInvalidDimensions = errors.New("slapcodec: invalid dimensions")

	// ErrAllocationFailed indicates a memory allocation failed; the
	// operation that raised it is a no-op.
	ErrAllocationFailed = errors.New("slapcodec: allocation failed")

	// ErrStillCoderFailed indicates the underlying still coder returned an
	// error. The stream is considered corrupt from that point forward.
	ErrStillCoderFailed = errors.New("slapcodec: still coder failed")

	// ErrFileError indicates an I/O call failed (open, read, write, seek,
	// rename, delete).
	ErrFileError = errors.New("slapcodec: file error")

	// ErrEndOfStream indicates a reader was asked for a frame index
	// outside [0, frame_count). It is returned on every such call; the
	// reader keeps no end-of-stream state and does not treat the first
	// call past the end differently from later ones.
	ErrEndOfStream = errors.New("slapcodec: end of stream")

	// ErrGeneric is a fallback for internal invariant violations that
	// should be unreachable given valid API usage, mirroring
	// slapError_Generic from the original taxonomy.
	ErrGeneric = errors.New("slapcodec: generic failure")
)
