package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("warn", "json", &buf)
	t.Cleanup(func() { defaultLogger = nil })

	Info("hidden %d", 1)
	Warn("shown %s", "here")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "shown here", entry["message"])
}

func TestTextFormatIsNotJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("debug", "text", &buf)
	t.Cleanup(func() { defaultLogger = nil })

	Debug("cleaned shape %dx%d", 10, 4)

	out := buf.String()
	assert.Contains(t, out, "cleaned shape 10x4")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestUninitializedLoggerIsSilent(t *testing.T) {
	defaultLogger = nil
	assert.NotPanics(t, func() {
		Info("nothing")
		Error("nothing")
	})
}
