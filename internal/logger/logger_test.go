package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("warn", "json", &buf)
	require.NoError(t, err)

	l.Info("skipped")
	l.Warn("graph saved", zap.String("flow_id", "f1"))
	require.NoError(t, l.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "graph saved", entry["message"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "f1", entry["flow_id"])
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	_, err := New("info", "xml", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New("loud", "json", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestL_BeforeInitIsUsable(t *testing.T) {
	assert.NotPanics(t, func() { L().Info("nothing") })
}
