package output

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestFromFlags(t *testing.T) {
	tests := []struct {
		verbose, quiet, debug bool
		want                  LogLevel
		err                   bool
	}{
		{false, false, false, LogNormal, false},
		{true, false, false, LogVerbose, false},
		{false, true, false, LogQuiet, false},
		{true, false, true, LogDebug, false},
		{true, true, false, LogQuiet, true},
		{false, true, true, LogQuiet, true},
	}
	for _, tt := range tests {
		got, err := FromFlags(tt.verbose, tt.quiet, tt.debug)
		if tt.err {
			require.ErrorIs(t, err, ErrConflictingFlags)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}
}

func TestZerologLevels(t *testing.T) {
	require.Equal(t, zerolog.ErrorLevel, LogQuiet.Zerolog())
	require.Equal(t, zerolog.InfoLevel, LogNormal.Zerolog())
	require.Equal(t, zerolog.DebugLevel, LogVerbose.Zerolog())
	require.Equal(t, zerolog.TraceLevel, LogDebug.Zerolog())
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(LogQuiet, &buf)
	log.Info().Msg("hidden")
	require.Empty(t, buf.String())

	log.Error().Msg("shown")
	require.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("Verbose")
	require.NoError(t, err)
	require.Equal(t, LogVerbose, l)

	l, err = ParseLevel("")
	require.NoError(t, err)
	require.Equal(t, LogNormal, l)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(LogQuiet, &buf).Resultf("done %d\n", 1)
	require.Empty(t, buf.String())

	p := NewPrinter(LogNormal, &buf)
	p.Resultf("done %d\n", 2)
	p.Verbosef("detail\n")
	require.Equal(t, "done 2\n", buf.String())
}
