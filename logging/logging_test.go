package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNewInvalidLevel(t *testing.T) {
	_, _, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	logger, closer, err := New(Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Info().Msg("hello")
	logger.Debug().Msg("hidden")
	require.NoError(t, closer.Close())
}

func TestStartEnd(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Format: "json"}, &buf)

	err := StartEnd(logger, "select", func() error { return nil })
	require.NoError(t, err)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "START", lines[0]["message"])
	assert.Equal(t, "select", lines[0]["func"])
	assert.Equal(t, "END", lines[1]["message"])
	assert.Contains(t, lines[1], "elapsed")
}

func TestStartEndError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Format: "json"}, &buf)
	boom := errors.New("boom")

	err := StartEnd(logger, "select", func() error { return boom })
	assert.ErrorIs(t, err, boom)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "boom", lines[1]["error"])
}
