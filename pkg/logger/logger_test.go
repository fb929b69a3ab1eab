package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.Info().Str("shop_id", "s-42").Msg("wallet credited")

	var output map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &output)
	require.NoError(t, err, "logger output should be valid JSON")

	assert.Equal(t, "wallet credited", output["message"])
	assert.Equal(t, "s-42", output["shop_id"])
	assert.Equal(t, "info", output["level"])
	assert.Contains(t, output, "time")
}

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		debugShown bool
		infoShown  bool
	}{
		{"debug level passes debug", "debug", true, true},
		{"info level filters debug", "info", false, true},
		{"error level filters info", "error", false, false},
		{"unknown level defaults to info", "banana", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithWriter(tt.level, &buf)

			log.Debug().Msg("reserve attempt")
			assert.Equal(t, tt.debugShown, buf.Len() > 0)

			buf.Reset()
			log.Info().Msg("withdrawal approved")
			assert.Equal(t, tt.infoShown, buf.Len() > 0)
		})
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := WithComponent(NewWithWriter("info", &buf), "callback")

	log.Info().Msg("reconciled")

	var output map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &output))
	assert.Equal(t, "callback", output["component"])
}

func TestNew_PrettyMode(t *testing.T) {
	// Pretty mode writes to stdout; just make sure construction works.
	log := New("info", true)
	log.Info().Msg("pretty mode test")
}
