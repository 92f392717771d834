package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "json")

	logger.Warn("Oracle request failed", "oracle", "pyth", "error", errors.New("timeout"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "Oracle request failed", entry["message"])
	assert.Equal(t, "pyth", entry["oracle"])
	assert.Equal(t, "timeout", entry["error"])
}

func TestLogger_WithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "json").With("component", "feed")

	logger.Info("ready")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "feed", entry["component"])
}

func TestLogger_OddFieldsIgnored(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "json")

	logger.Info("odd", "dangling")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, ok := entry["dangling"]
	assert.False(t, ok)
}

func TestNoopLogger(t *testing.T) {
	logger := NewNoopLogger()
	assert.NotPanics(t, func() {
		logger.Debug("x")
		logger.Error("y", "k", 1)
	})
}
