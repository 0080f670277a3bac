package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1-driverstats-go/log"
	"github.com/mpapenbr/f1-driverstats-go/pkg/config"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, log.WarnLevel, ParseLogLevel("warn", log.InfoLevel))
	assert.Equal(t, log.InfoLevel, ParseLogLevel("nonsense", log.InfoLevel))
}

func TestSetupLoggerUsesLogConfig(t *testing.T) {
	oldDefault := log.Default()
	t.Cleanup(func() { log.ResetDefault(oldDefault) })
	old := []string{config.LogConfig, config.LogLevel, config.LogFormat, config.SQLLogLevel}
	t.Cleanup(func() {
		config.LogConfig, config.LogLevel, config.LogFormat, config.SQLLogLevel =
			old[0], old[1], old[2], old[3]
	})

	file := filepath.Join(t.TempDir(), "log.yml")
	require.NoError(t, os.WriteFile(file, []byte("level: warn\nformat: text\n"), 0o600))
	config.LogConfig, config.LogLevel, config.LogFormat, config.SQLLogLevel =
		file, "debug", "json", "error"

	logger, sqlLogger, err := SetupLogger()
	require.NoError(t, err)
	assert.Equal(t, log.WarnLevel, logger.Level())
	assert.Equal(t, log.ErrorLevel, sqlLogger.Level())
	assert.Same(t, logger, log.Default())
}

func TestWaitForRequiredServicesNothingToWaitFor(t *testing.T) {
	require.NoError(t, WaitForRequiredServices(t.Context(), "", ""))
}
