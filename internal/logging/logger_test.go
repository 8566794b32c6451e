package logging

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
		"off":     zerolog.Disabled,
	}
	for in, want := range tests {
		require.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestComponentAddsField(t *testing.T) {
	defer Init(DefaultConfig())

	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})

	log := Component("timer")
	log.Info().Msg("hello")

	require.Contains(t, buf.String(), `"component":"timer"`)
	require.Contains(t, buf.String(), `"message":"hello"`)
}

func TestInitFile(t *testing.T) {
	defer Init(DefaultConfig())

	path := filepath.Join(t.TempDir(), "logs", "pomo.log")
	closer, err := InitFile("info", path)
	require.NoError(t, err)
	Logger.Info().Msg("written")
	require.NoError(t, closer.Close())
	require.FileExists(t, path)
}
