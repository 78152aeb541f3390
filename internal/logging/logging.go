// Package logging provides the leveled, structured logger used throughout
// slapcodec's components. The interface shape (message plus alternating
// key/value pairs) follows the conventions of the calling tooling this
// codec is meant to be embedded in.
package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the structured logging interface accepted by Encoder, Decoder,
// ContainerWriter and ContainerReader. Implementations must be safe for
// concurrent use: sub-frame tasks running on the worker pool may log
// simultaneously.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// noop discards everything. It is the default used when a nil Logger is
// passed to a constructor.
type noop struct{}

func (noop) Debug(string, ...any) {}
func (noop) Info(string, ...any)  {}
func (noop) Warn(string, ...any)  {}
func (noop) Error(string, ...any) {}

// Noop is the shared no-op Logger instance.
var Noop Logger = noop{}

// zapLogger adapts a zap.SugaredLogger to the Logger interface.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (z *zapLogger) Debug(msg string, kv ...any) { z.s.Debugw(msg, kv...) }
func (z *zapLogger) Info(msg string, kv ...any)  { z.s.Infow(msg, kv...) }
func (z *zapLogger) Warn(msg string, kv ...any)  { z.s.Warnw(msg, kv...) }
func (z *zapLogger) Error(msg string, kv ...any) { z.s.Errorw(msg, kv...) }

// FileConfig configures rotation for the on-disk log sink, mirroring the
// lumberjack.Logger fields used to size log rotation elsewhere in this
// codebase's surrounding tooling.
type FileConfig struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds a Logger that writes JSON-structured entries to w (if
// non-nil) and additionally to a rotating file sink described by file (if
// file.Filename is non-empty).
func New(w io.Writer, file *FileConfig) Logger {
	writers := make([]io.Writer, 0, 2)
	if w != nil {
		writers = append(writers, w)
	}
	if file != nil && file.Filename != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   file.Filename,
			MaxSize:    file.MaxSizeMB,
			MaxBackups: file.MaxBackups,
			MaxAge:     file.MaxAgeDays,
		})
	}
	if len(writers) == 0 {
		return Noop
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(io.MultiWriter(writers...)),
		zapcore.DebugLevel,
	)

	return &zapLogger{s: zap.New(core).Sugar()}
}
