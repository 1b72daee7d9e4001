// Package config loads the player configuration with viper.
//
// Values come from defaults, an optional config file and ALSAOUT_* environment variables,
// in increasing priority. Nested keys map to environment names with "." replaced by "_",
// e.g. resampler.backend is ALSAOUT_RESAMPLER_BACKEND.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/gen2brain/alsaout"
	"github.com/gen2brain/alsaout/convert"
	"github.com/gen2brain/alsaout/resample"
)

// ErrInvalid is returned for configuration values that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "ALSAOUT"

var logLevels = []string{"none", "error", "warn", "info", "debug"}

// Config is the typed player configuration.
type Config struct {
	Device string
	Mixer1 string
	Mixer2 string

	Resample       bool
	ChangeChannels bool
	Precision      convert.Precision
	Resampler      resample.Options

	LogLevel string
	LogFile  string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("device", "hw:0,0")
	v.SetDefault("mixer1", "Master")
	v.SetDefault("mixer2", "PCM")
	v.SetDefault("resample", true)
	v.SetDefault("resampler.backend", string(resample.Basic))
	v.SetDefault("resampler.method", string(resample.Linear))
	v.SetDefault("resampler.quality", 5)
	v.SetDefault("channels.change", true)
	v.SetDefault("precision", "float")
	v.SetDefault("loglevel", "info")
	v.SetDefault("logfile", "")
}

// Load reads the configuration. An empty path or a missing file leaves the defaults and
// environment in effect.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("%w: reading %s: %w", ErrInvalid, path, err)
			}

			slog.Info("no config file found", "configFilePath", path)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	precision, err := convert.ParsePrecision(v.GetString("precision"))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	c := Config{
		Device:         v.GetString("device"),
		Mixer1:         v.GetString("mixer1"),
		Mixer2:         v.GetString("mixer2"),
		Resample:       v.GetBool("resample"),
		ChangeChannels: v.GetBool("channels.change"),
		Precision:      precision,
		Resampler: resample.Options{
			Backend: resample.Backend(strings.ToLower(v.GetString("resampler.backend"))),
			Method:  resample.Method(strings.ToLower(v.GetString("resampler.method"))),
			Quality: v.GetInt("resampler.quality"),
		},
		LogLevel: strings.ToLower(v.GetString("loglevel")),
		LogFile:  v.GetString("logfile"),
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// Validate checks values that Load cannot type-check.
func (c Config) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("%w: empty device name", ErrInvalid)
	}

	if err := c.Resampler.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.LogLevel)
	}

	return nil
}

// ConvertOptions returns the conversion session options.
func (c Config) ConvertOptions() convert.Options {
	return convert.Options{
		Resample:       c.Resample,
		ChangeChannels: c.ChangeChannels,
		Precision:      c.Precision,
		Resampler:      c.Resampler,
	}
}

// SinkOptions returns the sink device and mixer names.
func (c Config) SinkOptions() alsaout.Options {
	return alsaout.Options{
		Device: c.Device,
		Mixer1: c.Mixer1,
		Mixer2: c.Mixer2,
	}
}
