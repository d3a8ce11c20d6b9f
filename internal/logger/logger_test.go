package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, New("development").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New("production").GetLevel())
}

func TestNew_WritesFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")
	log := New("production", FileSink{Path: path, MaxSizeMB: 1, MaxBackups: 1})

	log.Info().Str("contract_id", "42").Msg("sweep finished")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"contract_id":"42"`)
	assert.Contains(t, string(data), `"message":"sweep finished"`)
}
