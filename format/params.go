package format

import (
	"fmt"
	"slices"
)

// StreamParams describes an interleaved PCM stream.
type StreamParams struct {
	Channels int
	Rate     int
	Format   SampleFormat
}

// Validate checks that p can describe a stream.
func (p StreamParams) Validate() error {
	if p.Channels <= 0 {
		return fmt.Errorf("%w: %d channels", ErrInvalid, p.Channels)
	}

	if p.Rate <= 0 {
		return fmt.Errorf("%w: rate %d", ErrInvalid, p.Rate)
	}

	return p.Format.Validate()
}

// Equal reports whether both descriptions are identical after normalization.
func (p StreamParams) Equal(o StreamParams) bool {
	return p.Channels == o.Channels && p.Rate == o.Rate && p.Format.Normalize() == o.Format.Normalize()
}

// FrameSize returns the size of one frame in bytes.
func (p StreamParams) FrameSize() int {
	return p.Channels * p.Format.Bytes()
}

// BytesPerSecond returns the data rate of the stream.
func (p StreamParams) BytesPerSecond() int {
	return p.FrameSize() * p.Rate
}

// String returns e.g. "S16_LE 2ch 44100Hz".
func (p StreamParams) String() string {
	return fmt.Sprintf("%v %dch %dHz", p.Format, p.Channels, p.Rate)
}

// Caps is the set of stream parameters an output device accepts.
type Caps struct {
	MinChannels int
	MaxChannels int
	MinRate     int
	MaxRate     int
	Formats     []SampleFormat
}

// SupportsFormat reports whether f is in the accepted formats.
func (c Caps) SupportsFormat(f SampleFormat) bool {
	return slices.Contains(c.Formats, f.Normalize())
}

// SupportsChannels reports whether n channels are accepted.
func (c Caps) SupportsChannels(n int) bool {
	return n >= c.MinChannels && n <= c.MaxChannels
}

// ClampRate returns the supported rate closest to rate.
func (c Caps) ClampRate(rate int) int {
	return max(c.MinRate, min(c.MaxRate, rate))
}

// String returns a multi-line human-readable summary.
func (c Caps) String() string {
	names := make([]string, len(c.Formats))
	for i, f := range c.Formats {
		names[i] = f.String()
	}

	return fmt.Sprintf("channels: %d-%d\nrates:    %d-%d Hz\nformats:  %v\n",
		c.MinChannels, c.MaxChannels, c.MinRate, c.MaxRate, names)
}
