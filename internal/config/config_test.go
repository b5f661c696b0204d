package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig(t *testing.T) {
	t.Run("new config creation", func(t *testing.T) {
		flags := ConfigFlags{
			Version: true,
			Timeout: 30 * time.Second,
		}
		cfg := NewConfig(Config{Flags: flags})

		assert.Equal(t, true, cfg.Flags.Version)
		assert.Equal(t, 30*time.Second, cfg.Flags.Timeout)
	})

	t.Run("get config flags", func(t *testing.T) {
		flags := ConfigFlags{
			Output:    OutputModeJSON,
			AddonPath: "/addons/uv_island_alignment_tool",
		}
		cfg := Config{Flags: flags}

		result := cfg.GetConfigFlags()
		assert.Equal(t, OutputModeJSON, result.Output)
		assert.Equal(t, "/addons/uv_island_alignment_tool", result.AddonPath)
	})

	t.Run("config flags default values", func(t *testing.T) {
		var flags ConfigFlags
		cfg := Config{Flags: flags}

		result := cfg.GetConfigFlags()
		assert.Equal(t, false, result.Version)
		assert.Equal(t, time.Duration(0), result.Timeout)
		assert.Equal(t, "auto", result.Color.String())
		assert.Equal(t, "plain", result.Output.String())
	})
}

func TestColorMode(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"always", false},
		{"auto", false},
		{"never", false},
		{"sometimes", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			var c ColorMode
			err := c.Set(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, ColorMode(""), c)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.value, c.String())
		})
	}

	var nilMode *ColorMode
	assert.Equal(t, "auto", nilMode.String())
	assert.Equal(t, "string", nilMode.Type())
}

func TestOutputMode(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"rich", false},
		{"plain", false},
		{"json", false},
		{"yaml", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			var o OutputMode
			err := o.Set(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "invalid output mode")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.value, o.String())
		})
	}

	var nilMode *OutputMode
	assert.Equal(t, "plain", nilMode.String())
	assert.Equal(t, "string", nilMode.Type())
}
