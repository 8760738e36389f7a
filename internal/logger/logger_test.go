package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevels(t *testing.T) {
	defer SetLevel(LevelOff)

	SetLevel(LevelOff)
	if IsVerbose() || IsDebug() {
		t.Error("LevelOff should disable verbose and debug")
	}
	SetLevel(LevelInfo)
	if !IsVerbose() || IsDebug() {
		t.Error("LevelInfo should enable verbose only")
	}
	SetLevel(LevelDebug)
	if !IsVerbose() || !IsDebug() {
		t.Error("LevelDebug should enable both")
	}
	if GetLevel() != LevelDebug {
		t.Errorf("GetLevel() = %v, want LevelDebug", GetLevel())
	}
}

func TestGatingByLevel(t *testing.T) {
	defer SetLevel(LevelOff)

	core, logs := observer.New(zapcore.DebugLevel)
	SetLevel(LevelInfo)
	SetLogger(zap.New(core))

	Info("scanned %d dirs", 3)
	Debug("hidden %s", "detail")
	Info("checked %d archives", 2)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}
	if entries[0].Message != "scanned 3 dirs" {
		t.Errorf("first message = %q", entries[0].Message)
	}
	if entries[1].Message != "checked 2 archives" || entries[1].Level != zapcore.InfoLevel {
		t.Errorf("second entry = %+v", entries[1])
	}
}
