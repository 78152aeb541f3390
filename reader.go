package slapcodec

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/rainerzufalldererste/slapcodec/internal/container"
	"github.com/rainerzufalldererste/slapcodec/internal/logging"
	"github.com/rainerzufalldererste/slapcodec/internal/pixelops"
	"github.com/rainerzufalldererste/slapcodec/internal/workerpool"
)

// ContainerReader provides seekable, frame-indexed read access to a file
// written by ContainerWriter.
type ContainerReader struct {
	file     *os.File
	dataBase int64

	pre     container.PreHeader
	records []container.IndexRecord

	decoder *Decoder
	pool    *workerpool.Pool
	log     logging.Logger

	fullBuf  []byte
	proxyBuf []byte

	cur int // one past the frame most recently loaded by ReadFull/ReadProxy; DecodeFull/DecodeProxy operate on cur-1
}

// OpenContainerReader opens name, reads the pre-header and full index into
// memory, and constructs a Decoder from the pre-header's resolution/flags
// using still-decoder handles produced by factory.
func OpenContainerReader(name string, factory StillCoderFactory, pool *workerpool.Pool, log logging.Logger) (*ContainerReader, error) {
	if pool == nil {
		return nil, errors.Wrap(ErrArgumentNull, "OpenContainerReader: pool")
	}
	if factory == nil {
		return nil, errors.Wrap(ErrArgumentNull, "OpenContainerReader: factory")
	}
	if log == nil {
		log = logging.Noop
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(ErrFileError, err.Error())
	}

	var preBuf [container.PreHeaderBytes]byte
	if _, err := io.ReadFull(f, preBuf[:]); err != nil {
		f.Close()
		return nil, errors.Wrap(ErrFileError, err.Error())
	}
	pre, err := container.DecodePreHeader(preBuf[:])
	if err != nil {
		f.Close()
		return nil, errors.Wrap(ErrGeneric, err.Error())
	}

	indexBytes := make([]byte, pre.IndexWordCount*8)
	if _, err := io.ReadFull(f, indexBytes); err != nil {
		f.Close()
		return nil, errors.Wrap(ErrFileError, err.Error())
	}

	recordBytes := container.PerFrameWords * 8
	records := make([]container.IndexRecord, pre.FrameCount)
	for i := range records {
		off := i * recordBytes
		if off+recordBytes > len(indexBytes) {
			f.Close()
			return nil, errors.Wrap(ErrGeneric, "OpenContainerReader: index shorter than frame_count implies")
		}
		rec, err := container.DecodeIndexRecord(indexBytes[off : off+recordBytes])
		if err != nil {
			log.Error("container reader: corrupt index record", "frame_index", i, "error", err)
			f.Close()
			return nil, errors.Wrap(ErrGeneric, err.Error())
		}
		records[i] = rec
	}

	dataBase, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(ErrFileError, err.Error())
	}

	dec, err := NewDecoder(DecoderConfig{
		Width:         int(pre.Width),
		Height:        int(pre.Height),
		Stereo:        pre.Stereo(),
		IStep:         int(pre.IStep),
		StillDecoders: factory,
		Log:           log,
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	return &ContainerReader{
		file:     f,
		dataBase: dataBase,
		pre:      pre,
		records:  records,
		decoder:  dec,
		pool:     pool,
		log:      log,
	}, nil
}

// GetResolution returns the stream's full-frame dimensions.
func (r *ContainerReader) GetResolution() (w, h int) {
	return int(r.pre.Width), int(r.pre.Height)
}

// GetProxyResolution returns the stream's proxy dimensions.
func (r *ContainerReader) GetProxyResolution() (w, h int) {
	pg := pixelops.ProxyGeometry(r.decoder.Geometry())
	return pg.W, pg.H
}

// FrameCount returns the number of frames recorded in the index.
func (r *ContainerReader) FrameCount() int { return len(r.records) }

func (r *ContainerReader) checkIndex(i int) error {
	if i < 0 || i >= len(r.records) {
		return errors.Wrap(ErrEndOfStream, "frame index out of range")
	}
	return nil
}

// ReadFull reads frame i's full (non-proxy) payload into an internal,
// growable, never-shrinking buffer and returns it. The returned slice is
// only valid until the next ReadFull call.
func (r *ContainerReader) ReadFull(i int) ([]byte, error) {
	if err := r.checkIndex(i); err != nil {
		return nil, err
	}
	rec := r.records[i]
	if cap(r.fullBuf) < int(rec.FullSize) {
		r.fullBuf = make([]byte, rec.FullSize)
	}
	r.fullBuf = r.fullBuf[:rec.FullSize]

	if _, err := r.file.ReadAt(r.fullBuf, r.dataBase+int64(rec.FullOffset)); err != nil {
		r.log.Error("container reader: full-frame read failed", "frame_index", i, "error", err)
		return nil, errors.Wrap(ErrFileError, err.Error())
	}
	r.cur = i + 1
	return r.fullBuf, nil
}

// ReadProxy reads frame i's proxy payload into an internal, growable,
// never-shrinking buffer and returns it. The returned slice is only valid
// until the next ReadProxy call.
func (r *ContainerReader) ReadProxy(i int) ([]byte, error) {
	if err := r.checkIndex(i); err != nil {
		return nil, err
	}
	rec := r.records[i]
	if cap(r.proxyBuf) < int(rec.ProxySize) {
		r.proxyBuf = make([]byte, rec.ProxySize)
	}
	r.proxyBuf = r.proxyBuf[:rec.ProxySize]

	if _, err := r.file.ReadAt(r.proxyBuf, r.dataBase+int64(rec.ProxyOffset)); err != nil {
		r.log.Error("container reader: proxy read failed", "frame_index", i, "error", err)
		return nil, errors.Wrap(ErrFileError, err.Error())
	}
	r.cur = i + 1
	return r.proxyBuf, nil
}

// DecodeFull decodes the full payload most recently loaded by ReadFull:
// it slices that buffer by the per-sub-buffer offsets of frame cur-1 (the
// frame most recently passed to ReadFull or ReadProxy), dispatches each
// sub-buffer's decompression across the worker pool, and applies the
// inverse differential transform.
func (r *ContainerReader) DecodeFull() ([]byte, error) {
	if r.cur == 0 {
		return nil, errors.Wrap(ErrGeneric, "DecodeFull: no frame loaded via ReadFull")
	}
	rec := r.records[r.cur-1]

	geo := r.decoder.Geometry()
	dst := make([]byte, geo.FrameSize())

	tasks := make([]*workerpool.Task, container.SubBufferCount)
	for k := 0; k < container.SubBufferCount; k++ {
		k := k
		off := rec.SubOffsets[k]
		size := rec.SubSizes[k]
		sub := r.fullBuf[off : off+size]
		tasks[k] = r.pool.Enqueue(func() (any, error) {
			return nil, r.decoder.DecodeSubFrame(sub, k, dst)
		})
	}
	for _, t := range tasks {
		if _, err := t.Join(); err != nil {
			return nil, err
		}
	}

	if err := r.decoder.Finalize(dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// DecodeProxy decompresses the proxy payload most recently loaded by
// ReadProxy as a self-contained YUV 4:2:0 still; no inverse transform is
// applied.
func (r *ContainerReader) DecodeProxy() ([]byte, error) {
	if r.cur == 0 {
		return nil, errors.Wrap(ErrGeneric, "DecodeProxy: no frame loaded via ReadProxy")
	}
	pg := pixelops.ProxyGeometry(r.decoder.Geometry())
	dst := make([]byte, pg.FrameSize())
	if err := r.decoder.DecodeProxy(r.proxyBuf, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// Close releases the decoder's still-coder handles and the underlying
// file descriptor.
func (r *ContainerReader) Close() error {
	err := r.decoder.Close()
	if cerr := r.file.Close(); cerr != nil && err == nil {
		err = errors.Wrap(ErrFileError, cerr.Error())
	}
	return err
}
