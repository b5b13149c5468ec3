package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/BrandonDHaskell/huella/internal/logger"
)

func TestNew_DevDefaultsToDebug(t *testing.T) {
	lg, err := logger.New(logger.Config{Dev: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if !lg.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug level enabled in dev mode")
	}
}

func TestNew_ProdDefaultsToInfo(t *testing.T) {
	lg, err := logger.New(logger.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if lg.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug level disabled in prod mode")
	}
	if !lg.Core().Enabled(zapcore.InfoLevel) {
		t.Error("expected info level enabled in prod mode")
	}
}

func TestNew_ExplicitLevel(t *testing.T) {
	lg, err := logger.New(logger.Config{Level: "error"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if lg.Core().Enabled(zapcore.WarnLevel) {
		t.Error("expected warn disabled at error level")
	}
}

func TestNew_FileOutputCreatesLink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "huella.log")

	lg, err := logger.New(logger.Config{Level: "info", File: path, MaxAgeDays: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	lg.Info("hello")
	_ = lg.Sync()

	if _, err := os.Lstat(path); err != nil {
		t.Fatalf("expected log link at %s: %v", path, err)
	}
}
