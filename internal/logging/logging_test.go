package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/eday-ledger/internal/config"
)

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, closer, err := New(config.LoggingConfig{Level: tt.level, Output: "stderr"})
			require.NoError(t, err)
			defer closer.Close()
			require.Equal(t, tt.want, logger.GetLevel())
		})
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eday.log")

	logger, closer, err := New(config.LoggingConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Info().Str("service", "test").Msg("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), `"message":"hello"`))
	require.True(t, strings.Contains(string(data), `"service":"test"`))
}

func TestNew_BadPath(t *testing.T) {
	_, _, err := New(config.LoggingConfig{Output: filepath.Join(t.TempDir(), "missing", "eday.log")})
	require.Error(t, err)
}
