package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]zerolog.Level{
		"":      zerolog.InfoLevel,
		"DEBUG": zerolog.DebugLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewWritesJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := Component(New(zerolog.InfoLevel, &buf), "detect")
	l.Debug().Msg("hidden")
	l.Info().Str("handle", "jack").Msg("analysis_ok")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "analysis_ok", entry["message"])
	assert.Equal(t, "detect", entry["component"])
	assert.Equal(t, "jack", entry["handle"])
	assert.Contains(t, entry, "time")
}
