package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gen2brain/alsaout/convert"
	"github.com/gen2brain/alsaout/internal/config"
	"github.com/gen2brain/alsaout/resample"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestDefaults(t *testing.T) {
	c, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "hw:0,0", c.Device)
	assert.Equal(t, "Master", c.Mixer1)
	assert.Equal(t, "PCM", c.Mixer2)
	assert.True(t, c.Resample)
	assert.True(t, c.ChangeChannels)
	assert.Equal(t, convert.PrecisionFloat, c.Precision)
	assert.Equal(t, resample.Options{Backend: resample.Basic, Method: resample.Linear, Quality: 5}, c.Resampler)
	assert.Equal(t, "info", c.LogLevel)
	assert.Empty(t, c.LogFile)

	opts := c.ConvertOptions()
	assert.True(t, opts.Resample)
	assert.Equal(t, c.Resampler, opts.Resampler)

	sink := c.SinkOptions()
	assert.Equal(t, "hw:0,0", sink.Device)
	assert.Equal(t, "PCM", sink.Mixer2)
}

func TestMissingFileKeepsDefaults(t *testing.T) {
	c, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "hw:0,0", c.Device)
}

func TestFile(t *testing.T) {
	path := writeFile(t, "alsaout.yaml", `
device: hw:Loopback,0
mixer1: Headphone
resample: false
precision: s16
loglevel: debug
resampler:
  backend: HQ
  quality: 9
channels:
  change: false
`)

	c, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "hw:Loopback,0", c.Device)
	assert.Equal(t, "Headphone", c.Mixer1)
	assert.Equal(t, "PCM", c.Mixer2)
	assert.False(t, c.Resample)
	assert.False(t, c.ChangeChannels)
	assert.Equal(t, convert.PrecisionS16, c.Precision)
	assert.Equal(t, resample.HighQuality, c.Resampler.Backend)
	assert.Equal(t, 9, c.Resampler.Quality)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("ALSAOUT_DEVICE", "hw:1,0")
	t.Setenv("ALSAOUT_RESAMPLER_BACKEND", "lowlatency")

	path := writeFile(t, "alsaout.toml", "device = \"hw:2,0\"\n")

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hw:1,0", c.Device)
	assert.Equal(t, resample.LowLatency, c.Resampler.Backend)
}

func TestInvalid(t *testing.T) {
	tests := map[string]string{
		"backend":   "resampler:\n  backend: sox\n",
		"method":    "resampler:\n  method: sinc\n",
		"quality":   "resampler:\n  backend: hq\n  quality: 12\n",
		"precision": "precision: double\n",
		"loglevel":  "loglevel: trace\n",
		"device":    "device: \"\"\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, "alsaout.yaml", content))
			assert.ErrorIs(t, err, config.ErrInvalid)
		})
	}

	t.Run("malformed", func(t *testing.T) {
		_, err := config.Load(writeFile(t, "alsaout.yaml", "device: [unterminated\n"))
		assert.ErrorIs(t, err, config.ErrInvalid)
	})
}
