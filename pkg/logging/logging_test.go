// pkg/logging/logging_test.go
package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskora.log")

	require.NoError(t, Configure("info", "json", path))
	log.Info().Str("component", "test").Msg("file logging check")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"file logging check"`)
	assert.Contains(t, string(data), `"component":"test"`)
}

func TestConfigureAppliesLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskora.log")

	require.NoError(t, Configure("warn", "json", path))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	log.Debug().Msg("should be filtered")
	log.Warn().Msg("should appear")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "should be filtered")
	assert.Contains(t, string(data), "should appear")
}

func TestConfigureRejectsUnwritableFile(t *testing.T) {
	err := Configure("info", "json", filepath.Join(t.TempDir(), "missing", "taskora.log"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open log file")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, zerolog.TraceLevel, parseLogLevel("TRACE"))
	assert.Equal(t, zerolog.ErrorLevel, parseLogLevel(""))
	assert.Equal(t, zerolog.ErrorLevel, parseLogLevel("bogus"))
}
