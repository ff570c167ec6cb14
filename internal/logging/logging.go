// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package logging builds the zap logger behind elgas.Logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Thermoquad/elcorstat/pkg/elgas"
)

// Options configures the zap-based logger.
type Options struct {
	// Level is debug, info, warn or error. Empty means warn.
	Level string
	// Debug forces the debug level.
	Debug bool

	// LogFile is the path to a rotated log file. If empty, logs go to
	// Writer only.
	LogFile string
	// MaxSize is the size in megabytes before rotation (lumberjack default 100).
	MaxSize int
	// MaxBackups is the number of old files to keep. Zero keeps all.
	MaxBackups int
	// MaxAge is the number of days to keep old files. Zero keeps them forever.
	MaxAge int
	// Compress gzips rotated files.
	Compress bool

	// Writer receives logs in addition to LogFile. Defaults to stderr; stdout
	// carries command output.
	Writer io.Writer
	// Quiet suppresses Writer when LogFile is set.
	Quiet bool
}

// Logger adapts zap.SugaredLogger to elgas.Logger
type Logger struct {
	s    *zap.SugaredLogger
	file *lumberjack.Logger
}

var _ elgas.Logger = (*Logger)(nil)

// NewZapLogger creates a JSON logger with ISO8601 timestamps
func NewZapLogger(opts Options) (*Logger, error) {
	level := zapcore.WarnLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = parsed
	}
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	var syncers []zapcore.WriteSyncer
	var lj *lumberjack.Logger
	if opts.LogFile != "" {
		lj = &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAge,
			Compress:   opts.Compress,
		}
		syncers = append(syncers, zapcore.AddSync(lj))
	}
	if opts.LogFile == "" || !opts.Quiet {
		syncers = append(syncers, zapcore.AddSync(writer))
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(syncers...), level)
	return &Logger{s: zap.New(core).Sugar(), file: lj}, nil
}

// Named returns a child logger tagged with a component name
func (l *Logger) Named(name string) *Logger {
	return &Logger{s: l.s.Named(name), file: l.file}
}

func (l *Logger) Debug(msg string, kv ...interface{}) {
	l.s.Debugw(msg, kv...)
}

func (l *Logger) Info(msg string, kv ...interface{}) {
	l.s.Infow(msg, kv...)
}

func (l *Logger) Warn(msg string, kv ...interface{}) {
	l.s.Warnw(msg, kv...)
}

func (l *Logger) Error(msg string, kv ...interface{}) {
	l.s.Errorw(msg, kv...)
}

// Close flushes buffered entries and closes the log file
func (l *Logger) Close() error {
	// Sync on a terminal stderr returns EINVAL; nothing is buffered there
	_ = l.s.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
