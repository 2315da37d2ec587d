package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: "debug", Format: "json", Output: &buf})

	l.Info().Str("component", "test").Int64("patient_id", 7).Msg("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "test", entry["component"])
	assert.EqualValues(t, 7, entry["patient_id"])
	assert.NotEmpty(t, entry["time"])
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: "warn", Output: &buf})

	l.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	l.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNewLogger_InstallsGlobal(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&Config{Output: &buf})

	log.Info().Msg("global")
	assert.Contains(t, buf.String(), "global")

	buf.Reset()
	log.Ctx(context.Background()).Info().Msg("from context")
	assert.Contains(t, buf.String(), "from context")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))
}
