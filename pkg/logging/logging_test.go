package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLevels(t *testing.T) {
	tests := []struct {
		verbosity int
		wantLevel zerolog.Level
	}{
		{0, zerolog.WarnLevel},
		{1, zerolog.InfoLevel},
		{2, zerolog.DebugLevel},
		{3, zerolog.TraceLevel},
		{5, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		logPath := filepath.Join(t.TempDir(), "logs", "nirvanamm.log")
		Setup(Options{Verbosity: tt.verbosity, Console: &bytes.Buffer{}, LogFile: logPath})

		assert.Equal(t, tt.wantLevel, zerolog.GlobalLevel(), "verbosity %d", tt.verbosity)
		_, err := os.Stat(logPath)
		assert.NoError(t, err, "log file should exist at %s", logPath)
	}
}

func TestSetupWritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "nirvanamm.log")
	Setup(Options{Verbosity: 1, Console: &console, LogFile: logPath})

	logger := GetLogger("apply")
	logger.Info().Str("guid", "core").Msg("Applying mod")

	assert.Contains(t, console.String(), "Applying mod")
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"apply"`)
	assert.Contains(t, string(data), `"guid":"core"`)
}

func TestSetupUnwritableLogFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	var console bytes.Buffer
	Setup(Options{Console: &console, LogFile: filepath.Join(blocker, "nirvanamm.log")})
	assert.Contains(t, console.String(), "Logging to console only")
}

func TestLogFilePath(t *testing.T) {
	t.Setenv(EnvLogFile, "/custom/nirvanamm.log")
	assert.Equal(t, "/custom/nirvanamm.log", LogFilePath())

	t.Setenv(EnvLogFile, "")
	assert.Equal(t, "nirvanamm.log", filepath.Base(LogFilePath()))
}

func TestLogOperationStart(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	log.Logger = zerolog.New(&buf)

	done := LogOperationStart(GetLogger("origin"), "prepare origin")
	done()

	out := buf.String()
	assert.Contains(t, out, "Operation started")
	assert.Contains(t, out, "Operation completed")
	assert.Contains(t, out, `"operation":"prepare origin"`)
	assert.Contains(t, out, `"component":"origin"`)
}
