package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "production", "warn")

	log.Info().Msg("dropped")
	log.Warn().Str("user", "42").Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "kept", entry["message"])
	require.Equal(t, "42", entry["user"])
	require.Equal(t, "podium", entry["service"])
}

func TestNewWithWriter_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "production", "loud")

	require.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestMaskSecret(t *testing.T) {
	require.Equal(t, "<none>", MaskSecret("  "))
	require.Equal(t, "***", MaskSecret("abc"))
	require.Equal(t, "AIzaSy...", MaskSecret("AIzaSyD-very-secret"))
}
