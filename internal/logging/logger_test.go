package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	log, err := New(DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestNewRejectsBadLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "shouting"
	_, err := New(cfg)
	require.Error(t, err)
}

func TestChildLoggers(t *testing.T) {
	log := NewNop()

	script := log.WithScript("boot.js")
	require.NotNil(t, script)
	assert.NotPanics(t, func() { script.Debug("compiled") })

	worker := log.WithWorker("w-1")
	require.NotNil(t, worker)
	assert.NotPanics(t, func() { worker.Warn("replaced") })
}
