package slapcodec

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/rainerzufalldererste/slapcodec/internal/bufpool"
	"github.com/rainerzufalldererste/slapcodec/internal/container"
	"github.com/rainerzufalldererste/slapcodec/internal/logging"
	"github.com/rainerzufalldererste/slapcodec/internal/workerpool"
)

// HeaderStageBytes bounds the in-memory write buffer fronting the header
// sidecar file, mirroring the original implementation's fixed 1024-word
// staging buffer that is flushed whenever a write would overflow it.
const HeaderStageBytes = 1024 * 8

// FinalizeCopyChunkSize bounds the memory used while concatenating the
// data sidecar into the final output file during Finalize.
const FinalizeCopyChunkSize = 64 * 1024 * 1024

// ContainerWriter incrementally builds a stream: an Encoder applies the
// differential pre-transform per frame while a pair of sidecar files
// accumulate the header/index and the payload bytes respectively; Finalize
// merges them into a single self-describing file.
type ContainerWriter struct {
	name string

	rawPath    string
	headerPath string

	rawFile    *os.File
	headerFile *os.File
	headerW    *bufio.Writer

	mainPos         uint64
	headerWordCount uint64
	framesWritten   uint64

	encoder *Encoder
	pool    *workerpool.Pool
	log     logging.Logger
}

// NewContainerWriter opens "<name>.raw" and "<name>.header", constructs the
// Encoder described by cfg, and writes the placeholder 8-word pre-header
// (index length and frame count are unknown until Finalize).
func NewContainerWriter(name string, cfg EncoderConfig, pool *workerpool.Pool, log logging.Logger) (*ContainerWriter, error) {
	if pool == nil {
		return nil, errors.Wrap(ErrArgumentNull, "NewContainerWriter: pool")
	}
	if log == nil {
		log = logging.Noop
	}

	cfg.Log = log

	enc, err := NewEncoder(cfg)
	if err != nil {
		return nil, err
	}

	rawPath := name + ".raw"
	headerPath := name + ".header"

	rawFile, err := os.Create(rawPath)
	if err != nil {
		log.Error("container writer: failed to create data sidecar", "path", rawPath, "error", err)
		return nil, errors.Wrap(ErrFileError, err.Error())
	}
	headerFile, err := os.Create(headerPath)
	if err != nil {
		log.Error("container writer: failed to create header sidecar", "path", headerPath, "error", err)
		rawFile.Close()
		return nil, errors.Wrap(ErrFileError, err.Error())
	}

	w := &ContainerWriter{
		name:       name,
		rawPath:    rawPath,
		headerPath: headerPath,
		rawFile:    rawFile,
		headerFile: headerFile,
		headerW:    bufio.NewWriterSize(headerFile, HeaderStageBytes),
		encoder:    enc,
		pool:       pool,
		log:        log,
	}

	modeFlags := uint64(0)
	if cfg.Stereo {
		modeFlags |= container.FlagStereo
	}
	pre := container.PreHeader{
		IndexWordCount: 0,
		FrameCount:     0,
		Width:          uint64(cfg.Width),
		Height:         uint64(cfg.Height),
		IStep:          uint64(enc.iStep),
		ModeFlags:      modeFlags,
	}
	var buf [container.PreHeaderBytes]byte
	if err := pre.Encode(buf[:]); err != nil {
		w.abort()
		return nil, errors.Wrap(ErrGeneric, err.Error())
	}
	if _, err := w.headerW.Write(buf[:]); err != nil {
		w.abort()
		return nil, errors.Wrap(ErrFileError, err.Error())
	}
	w.headerWordCount += container.PreHeaderWords

	return w, nil
}

// AddFrame encodes src (a full-resolution planar YUV 4:2:0 frame, mutated
// in place by the differential pre-transform) as the next frame of the
// stream.
func (w *ContainerWriter) AddFrame(src []byte) error {
	if src == nil {
		return errors.Wrap(ErrArgumentNull, "AddFrame")
	}

	pg := w.encoder.ProxyGeometry()

	proxyBuf := bufpool.Get(pg.FrameSize())
	defer bufpool.Put(proxyBuf)

	if err := w.encoder.BeginFrame(src, proxyBuf); err != nil {
		return err
	}

	proxyCompressed, err := w.encoder.EncodeProxy(proxyBuf)
	if err != nil {
		return err
	}

	rec := container.IndexRecord{
		ProxyOffset: w.mainPos,
		ProxySize:   uint64(len(proxyCompressed)),
	}
	if _, err := w.rawFile.Write(proxyCompressed); err != nil {
		return errors.Wrap(ErrFileError, err.Error())
	}
	w.mainPos += uint64(len(proxyCompressed))

	rec.FullOffset = w.mainPos

	tasks := make([]*workerpool.Task, container.SubBufferCount)
	for k := 0; k < container.SubBufferCount; k++ {
		k := k
		tasks[k] = w.pool.Enqueue(func() (any, error) {
			return w.encoder.EncodeSubFrame(src, k)
		})
	}

	subData := make([][]byte, container.SubBufferCount)
	var relOffset uint64
	for k, t := range tasks {
		res, err := t.Join()
		if err != nil {
			w.log.Warn("container writer: worker pool task failed", "frame_index", w.framesWritten, "sub_buffer", k, "error", err)
			return err
		}
		data := res.([]byte)
		subData[k] = data
		rec.SubOffsets[k] = relOffset
		rec.SubSizes[k] = uint64(len(data))
		relOffset += uint64(len(data))
	}
	rec.FullSize = relOffset

	for k := 0; k < container.SubBufferCount; k++ {
		if _, err := w.rawFile.Write(subData[k]); err != nil {
			return errors.Wrap(ErrFileError, err.Error())
		}
		w.mainPos += uint64(len(subData[k]))
	}

	recTasks := make([]*workerpool.Task, container.SubBufferCount)
	for k := 0; k < container.SubBufferCount; k++ {
		k := k
		recTasks[k] = w.pool.Enqueue(func() (any, error) {
			return nil, w.encoder.ReconstructSubFrame(src, k, subData[k])
		})
	}
	for _, t := range recTasks {
		if _, err := t.Join(); err != nil {
			return err
		}
	}

	if err := w.encoder.EndFrame(src); err != nil {
		return err
	}

	var recBuf [container.PerFrameWords * 8]byte
	if err := rec.Encode(recBuf[:]); err != nil {
		return errors.Wrap(ErrGeneric, err.Error())
	}
	if _, err := w.headerW.Write(recBuf[:]); err != nil {
		return errors.Wrap(ErrFileError, err.Error())
	}
	w.headerWordCount += uint64(container.PerFrameWords)
	w.framesWritten++

	return nil
}

// Finalize flushes and closes the sidecars, patches and prepends the
// header, and concatenates the accumulated payload bytes into a single
// output file named exactly `name` (the path passed to
// NewContainerWriter). On success the sidecars are deleted.
func (w *ContainerWriter) Finalize() error {
	w.log.Info("container writer: finalizing", "frames_written", w.framesWritten, "name", w.name)
	if err := w.headerW.Flush(); err != nil {
		return errors.Wrap(ErrFileError, err.Error())
	}
	if err := w.headerFile.Close(); err != nil {
		return errors.Wrap(ErrFileError, err.Error())
	}
	if err := w.rawFile.Close(); err != nil {
		return errors.Wrap(ErrFileError, err.Error())
	}

	headerBytes, err := os.ReadFile(w.headerPath)
	if err != nil {
		return errors.Wrap(ErrFileError, err.Error())
	}

	indexWordCount := w.headerWordCount - container.PreHeaderWords
	pre, err := container.DecodePreHeader(headerBytes)
	if err != nil {
		return errors.Wrap(ErrGeneric, err.Error())
	}
	pre.IndexWordCount = indexWordCount
	pre.FrameCount = w.framesWritten
	if err := pre.Encode(headerBytes[:container.PreHeaderBytes]); err != nil {
		return errors.Wrap(ErrGeneric, err.Error())
	}

	outFile, err := os.Create(w.name)
	if err != nil {
		return errors.Wrap(ErrFileError, err.Error())
	}
	defer outFile.Close()

	if _, err := outFile.Write(headerBytes); err != nil {
		return errors.Wrap(ErrFileError, err.Error())
	}

	rawIn, err := os.Open(w.rawPath)
	if err != nil {
		return errors.Wrap(ErrFileError, err.Error())
	}
	defer rawIn.Close()

	chunk := bufpool.Get(FinalizeCopyChunkSize)
	defer bufpool.Put(chunk)
	if _, err := io.CopyBuffer(outFile, rawIn, chunk); err != nil {
		return errors.Wrap(ErrFileError, err.Error())
	}

	if err := os.Remove(w.rawPath); err != nil {
		return errors.Wrap(ErrFileError, err.Error())
	}
	if err := os.Remove(w.headerPath); err != nil {
		return errors.Wrap(ErrFileError, err.Error())
	}

	return w.encoder.Close()
}

// abort closes the sidecar handles without attempting to finalize, used
// when construction fails partway through.
func (w *ContainerWriter) abort() {
	w.headerFile.Close()
	w.rawFile.Close()
}

// Close releases the encoder's still-coder handles and any open sidecar
// file descriptors without finalizing. A writer that failed mid-AddFrame
// is destructible via Close but not Finalize-able, per the error handling
// design: the caller is responsible for discarding the partial sidecars.
func (w *ContainerWriter) Close() error {
	w.headerW.Flush()
	w.headerFile.Close()
	w.rawFile.Close()
	return w.encoder.Close()
}
