package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]log.Lvl{
		"debug":   log.DEBUG,
		"INFO":    log.INFO,
		"warning": log.WARN,
		"error":   log.ERROR,
		"off":     log.OFF,
		"":        log.INFO,
		"bogus":   log.INFO,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewWithOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf, "festival", "info", "json")

	l.Infoj(log.JSON{"event": "started"})
	l.Debug("hidden")

	out := strings.TrimSpace(buf.String())
	require.NotEmpty(t, out)
	assert.Equal(t, 1, strings.Count(out, "\n")+1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "festival", rec["prefix"])
	assert.Equal(t, "started", rec["event"])
}
