package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf})

	log.With("host", "localhost").Info("Installing module", "module", "requests")

	out := buf.String()
	assert.Contains(t, out, "Installing module")
	assert.Contains(t, out, "host=localhost")
	assert.Contains(t, out, "module=requests")
}

func TestLoggerDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Output: &buf}).Debug("hidden")
	assert.Empty(t, buf.String())

	New(Options{Output: &buf, Debug: true}).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestFieldsOddArgs(t *testing.T) {
	f := fields([]interface{}{"a", 1, "dangling"})
	assert.Equal(t, 1, f["a"])
	assert.Equal(t, "dangling", f["!BADKEY"])
}
