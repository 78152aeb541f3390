// Package slapcodec implements the core of a stereoscopic (left eye stacked
// above right eye) video codec: a differential pre-transform that exploits left/right-eye
// and temporal redundancy ahead of an external still-image compressor, an
// encode/decode pipeline that drives that compressor in parallel via a
// worker pool, and a seekable binary container format.
//
// The still-image compressor itself is deliberately not part of this
// package; callers supply one by implementing StillCoder.
package slapcodec
