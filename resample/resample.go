// Package resample converts interleaved float32 audio between sample rates.
//
// Every backend keeps the frames it still needs for interpolation and emits them on
// the next call, so feeding a stream in arbitrary chunks never drops or reorders input.
// Output is delayed by a few frames relative to the input.
package resample

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownBackend is returned for backend or method names that are not implemented.
var ErrUnknownBackend = errors.New("unknown resampler backend")

// Backend selects a rate conversion algorithm.
type Backend string

const (
	// Basic interpolates between neighbouring frames (see Method).
	Basic Backend = "basic"
	// LowLatency uses Catmull-Rom cubic interpolation with a low-pass stage when downsampling.
	LowLatency Backend = "lowlatency"
	// HighQuality uses a windowed-sinc resampler (speex port).
	HighQuality Backend = "hq"
)

// Method selects the interpolation of the Basic backend.
type Method string

const (
	Linear        Method = "linear"
	ZeroOrderHold Method = "zoh"
)

// Options configures New.
type Options struct {
	Backend Backend
	Method  Method
	// Quality is the HighQuality backend quality, 0 (fastest) to 10 (best).
	Quality int
}

// DefaultOptions returns the linear Basic backend.
func DefaultOptions() Options {
	return Options{Backend: Basic, Method: Linear, Quality: 5}
}

// Validate checks the backend, method and quality values.
func (o Options) Validate() error {
	switch Backend(strings.ToLower(string(o.Backend))) {
	case Basic:
		switch Method(strings.ToLower(string(o.Method))) {
		case Linear, ZeroOrderHold, "":
		default:
			return fmt.Errorf("%w: method %q", ErrUnknownBackend, o.Method)
		}
	case LowLatency:
	case HighQuality:
		if o.Quality < 0 || o.Quality > 10 {
			return fmt.Errorf("%w: quality %d out of range 0..10", ErrUnknownBackend, o.Quality)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, o.Backend)
	}

	return nil
}

// Resampler converts a stream of interleaved frames from one rate to another.
type Resampler interface {
	// Process consumes every frame in in and returns the frames that became available.
	// The returned slice is owned by the resampler and valid until the next call.
	// len(in) must be a multiple of the channel count.
	Process(in []float32) []float32
	// Reset discards buffered frames, as after a seek.
	Reset()
	Close() error
}

// New creates a resampler for interleaved frames of the given channel count.
func New(opts Options, channels, fromRate, toRate int) (Resampler, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if channels <= 0 || fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid resampler parameters: %d channels, %d Hz to %d Hz", channels, fromRate, toRate)
	}

	switch Backend(strings.ToLower(string(opts.Backend))) {
	case Basic:
		if Method(strings.ToLower(string(opts.Method))) == ZeroOrderHold {
			return newWindow(channels, fromRate, toRate, 1, zeroOrderHold, false), nil
		}

		return newWindow(channels, fromRate, toRate, 1, linear, false), nil
	case LowLatency:
		return newWindow(channels, fromRate, toRate, 3, cubic, fromRate > toRate), nil
	default:
		return newSpeex(channels, fromRate, toRate, opts.Quality), nil
	}
}
