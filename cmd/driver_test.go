package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptsHaveSynopses(t *testing.T) {
	require.NotEmpty(t, scripts)
	for name, sc := range scripts {
		assert.Equal(t, name, sc.Name, "registration key matches the script name")
		assert.NotEmpty(t, sc.Synopsis, "%s needs a synopsis", name)
		assert.NotEmpty(t, sc.Source, "%s needs source text", name)
		assert.NotNil(t, sc.Run, "%s needs a run function", name)
	}
}

func TestScriptsReplay(t *testing.T) {
	// The diagnostics script provokes errors on purpose; every other script
	// must analyze cleanly.
	for name, sc := range scripts {
		d, err := NewDriver(DriverConfig{LogLevel: "silent"})
		require.NoError(t, err)

		ok := d.Run(sc)
		if name == "diagnostics" {
			assert.False(t, ok, "the diagnostics script must report errors")
			assert.Positive(t, d.Engine.ErrorCount())
		} else {
			assert.True(t, ok, "script %s must analyze cleanly", name)
		}
	}
}

func TestInvalidLogLevelRejected(t *testing.T) {
	_, err := NewDriver(DriverConfig{LogLevel: "chatty"})
	assert.Error(t, err)
}
