package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsableBeforeInit(t *testing.T) {
	// packages log during tests without calling Init first; the default
	// logger must already be live at package load
	assert.NotNil(t, log)
	assert.NotPanics(t, func() {
		Info("logger ready")
	})
}

func TestInit(t *testing.T) {
	Init()
	assert.NotNil(t, log)
}

func TestInfo(t *testing.T) {
	var buf bytes.Buffer
	log = New(NewJSONHandler(&buf, nil))

	Info("settlement recorded", "session_id", 42)

	output := buf.String()
	assert.Contains(t, output, "settlement recorded")
	assert.Contains(t, output, "session_id")
}

func TestError(t *testing.T) {
	var buf bytes.Buffer
	log = New(NewJSONHandler(&buf, nil))

	Error("charge failed")

	assert.Contains(t, buf.String(), "charge failed")
}

func TestDebug(t *testing.T) {
	var buf bytes.Buffer
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	log = New(NewJSONHandler(&buf, opts))

	Debug("hold released")

	assert.Contains(t, buf.String(), "hold released")
}

func TestInfof(t *testing.T) {
	var buf bytes.Buffer
	log = New(NewJSONHandler(&buf, nil))

	Infof("wallet %d credited", 7)

	assert.Contains(t, buf.String(), "wallet 7 credited")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log = New(NewJSONHandler(&buf, nil))

	logger := WithError(assert.AnError)
	logger.Info("verification rejected")

	output := buf.String()
	assert.Contains(t, output, "verification rejected")
	assert.Contains(t, output, "error")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	log = New(NewJSONHandler(&buf, nil))

	logger := WithFields(map[string]interface{}{
		"order_id": "abc-123",
		"amount":   5000,
	})
	logger.Info("topup verified")

	output := buf.String()
	assert.Contains(t, output, "topup verified")
	assert.Contains(t, output, "order_id")
	assert.Contains(t, output, "abc-123")
}
