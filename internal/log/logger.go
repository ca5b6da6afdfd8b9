// SPDX-License-Identifier: MIT

// Package log is the engine-wide leveled logging facade. It wraps a zap
// logger behind package-level functions so callers never carry a logger
// handle through the analysis hot paths. Init may be called once at
// startup; before that a sane default (info, stderr) is active.
package log

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.RWMutex
	sugar  *zap.SugaredLogger
	atomic = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

func init() {
	sugar = build(nil).Sugar()
}

// ParseLevel converts a string (case-insensitive) to a zap level.
// Returns InfoLevel and false if the string is not recognized.
func ParseLevel(levelStr string) (zapcore.Level, bool) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zapcore.DebugLevel, true
	case "info":
		return zapcore.InfoLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

// Init configures the global logger. level is parsed with ParseLevel;
// file, when non-empty, adds a rotating JSON sink alongside stderr.
func Init(level, file string) {
	lvl, _ := ParseLevel(level)
	atomic.SetLevel(lvl)

	var rotor *lumberjack.Logger
	if file != "" {
		rotor = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		}
	}

	mu.Lock()
	sugar = build(rotor).Sugar()
	mu.Unlock()
}

func build(rotor *lumberjack.Logger) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.RFC3339TimeEncoder
	encCfg.EncodeLevel = zapcore.LowercaseLevelEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(os.Stderr),
		atomic,
	)

	core := consoleCore
	if rotor != nil {
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(rotor),
			atomic,
		)
		core = zapcore.NewTee(consoleCore, fileCore)
	}

	return zap.New(core, zap.AddCallerSkip(1))
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Sync flushes any buffered log entries. Call on shutdown.
func Sync() {
	_ = get().Sync()
}

func Debugf(format string, v ...any) { get().Debugf(format, v...) }
func Infof(format string, v ...any)  { get().Infof(format, v...) }
func Warnf(format string, v ...any)  { get().Warnf(format, v...) }
func Errorf(format string, v ...any) { get().Errorf(format, v...) }

// Fatalf logs and exits the process. Fatal messages ignore the level gate.
func Fatalf(format string, v ...any) { get().Fatalf(format, v...) }
