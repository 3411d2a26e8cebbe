package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(99).String())
}

func TestDefaultLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewDefaultLogger(LevelWarn, buf)

	logger.Debug("decoded %d dex files", 3)
	logger.Info("uploaded profile")
	assert.Empty(t, buf.String())

	logger.Warn("retrying upload")
	logger.Error("decode failed")

	output := buf.String()
	assert.Contains(t, output, "[WARN] retrying upload")
	assert.Contains(t, output, "[ERROR] decode failed")
}

func TestDefaultLogger_Formatting(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewDefaultLogger(LevelDebug, buf)

	logger.Info("imported %s for %s", "base.prof", "com.example.app")

	assert.Contains(t, buf.String(), "[INFO] imported base.prof for com.example.app")
}

func TestNewDefaultLogger_NilOutput(t *testing.T) {
	logger := NewDefaultLogger(LevelError, nil)
	assert.NotNil(t, logger.output)
}

func TestNullLogger(t *testing.T) {
	var logger Logger = &NullLogger{}

	// All methods must be safe no-ops.
	logger.Debug("msg")
	logger.Info("msg %d", 1)
	logger.Warn("msg")
	logger.Error("msg")
}
