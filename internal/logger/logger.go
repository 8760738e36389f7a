// Package logger provides leveled diagnostic logging for the CLI.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the logging level
type Level int

const (
	// LevelOff disables all logging
	LevelOff Level = iota
	// LevelInfo shows basic progress information
	LevelInfo
	// LevelDebug shows detailed debugging information
	LevelDebug
)

var (
	currentLevel = LevelOff
	sugar        = zap.NewNop().Sugar()
)

// SetLevel sets the global logging level and rebuilds the stderr logger.
func SetLevel(level Level) {
	currentLevel = level
	if level == LevelOff {
		sugar = zap.NewNop().Sugar()
		return
	}
	zapLevel := zapcore.InfoLevel
	if level >= LevelDebug {
		zapLevel = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		zap.NewAtomicLevelAt(zapLevel),
	)
	sugar = zap.New(core).Sugar()
}

// SetLogger replaces the backing logger, keeping the current level.
func SetLogger(l *zap.Logger) {
	sugar = l.Sugar()
}

// GetLevel returns the current logging level
func GetLevel() Level {
	return currentLevel
}

// IsVerbose returns true if verbose logging is enabled
func IsVerbose() bool {
	return currentLevel >= LevelInfo
}

// IsDebug returns true if debug logging is enabled
func IsDebug() bool {
	return currentLevel >= LevelDebug
}

// Info logs an informational message (shown with --verbose)
func Info(format string, args ...interface{}) {
	if currentLevel >= LevelInfo {
		sugar.Infof(format, args...)
	}
}

// Debug logs a debug message (shown with --debug)
func Debug(format string, args ...interface{}) {
	if currentLevel >= LevelDebug {
		sugar.Debugf(format, args...)
	}
}

// Sync flushes buffered log entries.
func Sync() {
	_ = sugar.Sync()
}
