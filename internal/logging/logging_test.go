package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ksred/papertrade-api/internal/config"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreGlobals(t *testing.T) {
	level, logger := zerolog.GlobalLevel(), zlog.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(level)
		zlog.Logger = logger
	})
}

func TestNewLoggerWritesJSONFile(t *testing.T) {
	restoreGlobals(t)
	path := filepath.Join(t.TempDir(), "logs", "papertrade.log")

	logger := NewLogger(config.LogConfig{
		Level:      "debug",
		File:       true,
		FilePath:   path,
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
	})
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	logger.Info().Str("symbol", "INFY").Msg("trade executed")
	zlog.Debug().Msg("from global")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"symbol":"INFY"`)
	assert.Contains(t, string(raw), `"message":"trade executed"`)
	assert.Contains(t, string(raw), `"message":"from global"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("loud"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, parseLevel("error"))
}
