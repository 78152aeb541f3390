// Package container implements the binary pre-header and per-frame index
// codec for the on-disk stream format: an 8-word little-endian pre-header,
// followed by a fixed-size index record per frame, followed by a flat data
// section of concatenated proxy and sub-frame payloads.
package container

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// SubBufferCount is the number of sub-buffers (stripes) a residual frame
// is split into for parallel still-coding. The container format's
// per-frame record size is derived from it so a future build raising it
// needs no format change, only different stripe-partitioning logic in the
// encoder/decoder (per Open Question 4 of the originating design).
const SubBufferCount = 1

// FlagStereo marks bit 0 of the pre-header's mode-flags word.
const FlagStereo uint64 = 1 << 0

// PreHeaderWords is the fixed word count of the pre-header.
const PreHeaderWords = 8

// PreHeaderBytes is PreHeaderWords * 8.
const PreHeaderBytes = PreHeaderWords * 8

// PerFrameWords is the per-frame index record size: 4 fixed fields
// (proxy_offset, proxy_size, full_offset, full_size) plus 2 words per
// sub-buffer (relative_offset, size).
const PerFrameWords = 4 + 2*SubBufferCount

// Pre-header word indices.
const (
	idxIndexWordCount = 0
	idxFrameCount     = 1
	idxWidth          = 2
	idxHeight         = 3
	idxIStep          = 4
	idxModeFlags      = 5
	// indices 6, 7 reserved, must be zero.
)

// PreHeader is the file's fixed 8-word header.
type PreHeader struct {
	IndexWordCount uint64
	FrameCount     uint64
	Width          uint64
	Height         uint64
	IStep          uint64
	ModeFlags      uint64
}

// Stereo reports whether FlagStereo is set in ModeFlags.
func (h PreHeader) Stereo() bool { return h.ModeFlags&FlagStereo != 0 }

// Encode writes h to an 8-word (64-byte) little-endian buffer.
func (h PreHeader) Encode(dst []byte) error {
	if len(dst) < PreHeaderBytes {
		return errors.New("container: pre-header buffer too small")
	}
	binary.LittleEndian.PutUint64(dst[0:8], h.IndexWordCount)
	binary.LittleEndian.PutUint64(dst[8:16], h.FrameCount)
	binary.LittleEndian.PutUint64(dst[16:24], h.Width)
	binary.LittleEndian.PutUint64(dst[24:32], h.Height)
	binary.LittleEndian.PutUint64(dst[32:40], h.IStep)
	binary.LittleEndian.PutUint64(dst[40:48], h.ModeFlags)
	binary.LittleEndian.PutUint64(dst[48:56], 0)
	binary.LittleEndian.PutUint64(dst[56:64], 0)
	return nil
}

// DecodePreHeader parses an 8-word (64-byte) little-endian buffer.
func DecodePreHeader(src []byte) (PreHeader, error) {
	if len(src) < PreHeaderBytes {
		return PreHeader{}, errors.New("container: pre-header buffer too small")
	}
	words := make([]uint64, PreHeaderWords)
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(src[i*8 : i*8+8])
	}
	return PreHeader{
		IndexWordCount: words[idxIndexWordCount],
		FrameCount:     words[idxFrameCount],
		Width:          words[idxWidth],
		Height:         words[idxHeight],
		IStep:          words[idxIStep],
		ModeFlags:      words[idxModeFlags],
	}, nil
}

// IndexRecord is one frame's entry in the index.
type IndexRecord struct {
	ProxyOffset uint64
	ProxySize   uint64
	FullOffset  uint64
	FullSize    uint64
	// SubOffsets/SubSizes each have SubBufferCount entries.
	SubOffsets [SubBufferCount]uint64
	SubSizes   [SubBufferCount]uint64
}

// Encode writes r to a PerFrameWords*8 byte little-endian buffer.
func (r IndexRecord) Encode(dst []byte) error {
	if len(dst) < PerFrameWords*8 {
		return errors.New("container: index record buffer too small")
	}
	binary.LittleEndian.PutUint64(dst[0:8], r.ProxyOffset)
	binary.LittleEndian.PutUint64(dst[8:16], r.ProxySize)
	binary.LittleEndian.PutUint64(dst[16:24], r.FullOffset)
	binary.LittleEndian.PutUint64(dst[24:32], r.FullSize)
	for k := 0; k < SubBufferCount; k++ {
		off := 32 + k*16
		binary.LittleEndian.PutUint64(dst[off:off+8], r.SubOffsets[k])
		binary.LittleEndian.PutUint64(dst[off+8:off+16], r.SubSizes[k])
	}
	return nil
}

// DecodeIndexRecord parses a PerFrameWords*8 byte little-endian buffer.
func DecodeIndexRecord(src []byte) (IndexRecord, error) {
	if len(src) < PerFrameWords*8 {
		return IndexRecord{}, errors.New("container: index record buffer too small")
	}
	var r IndexRecord
	r.ProxyOffset = binary.LittleEndian.Uint64(src[0:8])
	r.ProxySize = binary.LittleEndian.Uint64(src[8:16])
	r.FullOffset = binary.LittleEndian.Uint64(src[16:24])
	r.FullSize = binary.LittleEndian.Uint64(src[24:32])
	for k := 0; k < SubBufferCount; k++ {
		off := 32 + k*16
		r.SubOffsets[k] = binary.LittleEndian.Uint64(src[off : off+8])
		r.SubSizes[k] = binary.LittleEndian.Uint64(src[off+8 : off+16])
	}
	return r, nil
}
