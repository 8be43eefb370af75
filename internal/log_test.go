package internal

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	level, ok := ParseLogLevel("debug")
	assert.True(t, ok)
	assert.Equal(t, LogLevelDebug, level)

	_, ok = ParseLogLevel("verbose")
	assert.False(t, ok)
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogLevelWarn).WithOutput(log.New(&buf, "", 0))

	logger.Info("hidden")
	logger.Warn("shown %d", 1)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[WARN] shown 1")
}

func TestLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(LogLevelInfo).WithOutput(log.New(&buf, "", 0))

	base.Component("DataReader").Info("loaded %d rows", 3)

	assert.Equal(t, "[INFO] [DataReader] loaded 3 rows\n", buf.String())
}
