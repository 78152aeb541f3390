package slapcodec

import (
	"github.com/pkg/errors"

	"github.com/rainerzufalldererste/slapcodec/internal/container"
	"github.com/rainerzufalldererste/slapcodec/internal/logging"
	"github.com/rainerzufalldererste/slapcodec/internal/pixelops"
)

// DecoderConfig configures a new Decoder.
type DecoderConfig struct {
	Width, Height int
	Stereo        bool
	IStep         int

	// StillDecoders constructs the still-decoder handles this Decoder
	// holds for the lifetime of the stream: one per sub-buffer, plus one
	// dedicated proxy decoder.
	StillDecoders StillCoderFactory

	Log logging.Logger
}

// Decoder is the mirror of Encoder: it decompresses sub-frames and applies
// the inverse residual transform to reproduce the encoder's reference
// frame bit-for-bit.
type Decoder struct {
	geo pixelops.Geometry

	iStep      int
	frameIndex int

	lastFrame []byte

	proxyDecoder StillCoder
	subDecoders  [container.SubBufferCount]StillCoder

	log logging.Logger
}

// NewDecoder constructs a Decoder, eagerly acquiring every still-decoder
// handle it will hold for the stream's lifetime.
func NewDecoder(cfg DecoderConfig) (*Decoder, error) {
	if cfg.StillDecoders == nil {
		return nil, errors.Wrap(ErrArgumentNull, "DecoderConfig.StillDecoders")
	}
	if err := validateDimensions(cfg.Width, cfg.Height, DecodeDimensionMultiple); err != nil {
		return nil, err
	}

	iStep := cfg.IStep
	if iStep <= 0 {
		iStep = DefaultIStep
	}

	log := cfg.Log
	if log == nil {
		log = logging.Noop
	}

	d := &Decoder{
		geo:   pixelops.Geometry{W: cfg.Width, H: cfg.Height, Stereo: cfg.Stereo},
		iStep: iStep,
		log:   log,
	}

	var err error
	d.proxyDecoder, err = cfg.StillDecoders()
	if err != nil {
		log.Error("decoder: proxy still-decoder construction failed", "error", err)
		return nil, errors.Wrap(ErrStillCoderFailed, err.Error())
	}
	for k := 0; k < container.SubBufferCount; k++ {
		if d.subDecoders[k], err = cfg.StillDecoders(); err != nil {
			log.Error("decoder: sub-decoder construction failed", "sub_buffer", k, "error", err)
			return nil, errors.Wrap(ErrStillCoderFailed, err.Error())
		}
	}

	return d, nil
}

// Kind returns the frame kind at the decoder's current frame index.
func (d *Decoder) Kind() FrameKind {
	return d.KindAt(d.frameIndex)
}

// KindAt returns the frame kind the I-frame cadence assigns to a given
// frame index.
func (d *Decoder) KindAt(index int) FrameKind {
	if index%d.iStep == 0 {
		return KindI
	}
	return KindP
}

// FrameIndex returns the index of the frame that will be processed by the
// next DecodeSubFrame/Finalize pair.
func (d *Decoder) FrameIndex() int { return d.frameIndex }

// Geometry returns the decoder's frame geometry.
func (d *Decoder) Geometry() pixelops.Geometry { return d.geo }

// ProxyGeometry returns the geometry of the low-resolution proxy this
// decoder expects per frame.
func (d *Decoder) ProxyGeometry() pixelops.Geometry { return pixelops.ProxyGeometry(d.geo) }

// LastFrame returns the decoder's current reference frame. Callers must
// not retain or mutate the returned slice across subsequent calls.
func (d *Decoder) LastFrame() []byte { return d.lastFrame }

// DecodeSubFrame decompresses the k-th sub-frame's compressed bytes into
// the corresponding offset of yuvDst, using the same stripe geometry
// convention as the encoder. With SubBufferCount == 1 the single stripe is
// the entire residual frame.
func (d *Decoder) DecodeSubFrame(compressed []byte, k int, yuvDst []byte) error {
	if k < 0 || k >= container.SubBufferCount {
		return errors.Wrapf(ErrGeneric, "DecodeSubFrame: k=%d out of range", k)
	}
	if err := d.subDecoders[k].DecompressYUV420(compressed, d.geo.W, d.geo.H, yuvDst); err != nil {
		d.log.Error("decoder: sub-frame decompression failed", "frame_index", d.frameIndex, "sub_buffer", k, "error", err)
		return errors.Wrap(ErrStillCoderFailed, err.Error())
	}
	return nil
}

// Finalize applies the inverse residual transform to yuvDst (which must
// already hold the decompressed sub-frame data written by DecodeSubFrame)
// based on the current frame's kind, then advances the frame index.
func (d *Decoder) Finalize(yuvDst []byte) error {
	switch d.Kind() {
	case KindI:
		if d.lastFrame == nil {
			d.lastFrame = make([]byte, d.geo.FrameSize())
		}
		pixelops.ReconstructI(yuvDst, d.geo, d.lastFrame)
	case KindP:
		if d.lastFrame == nil {
			return errors.Wrap(ErrGeneric, "Finalize: P-frame with no reference frame")
		}
		pixelops.ReconstructP(yuvDst, d.lastFrame, d.geo)
	}
	d.frameIndex++
	return nil
}

// DecodeProxy decompresses a proxy payload as a self-contained YUV 4:2:0
// still at the proxy dimensions; no inverse transform is required since
// the proxy is never differentially coded.
func (d *Decoder) DecodeProxy(compressed []byte, dst []byte) error {
	pg := d.ProxyGeometry()
	if err := d.proxyDecoder.DecompressYUV420(compressed, pg.W, pg.H, dst); err != nil {
		d.log.Error("decoder: proxy decompression failed", "frame_index", d.frameIndex, "error", err)
		return errors.Wrap(ErrStillCoderFailed, err.Error())
	}
	return nil
}

// Close releases every still-decoder handle the decoder holds.
func (d *Decoder) Close() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	record(d.proxyDecoder.Close())
	for k := 0; k < container.SubBufferCount; k++ {
		record(d.subDecoders[k].Close())
	}
	return firstErr
}
