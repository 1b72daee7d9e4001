// Package convert turns interleaved PCM from one StreamParams into another.
//
// A Converter runs a fixed sequence of stages and skips any stage that would be a no-op:
//
//  1. swap the input to native byte order
//  2. narrow by shifting when only the bit width shrinks at the same rate
//  3. promote to the working precision (float32 or int16)
//  4. resample
//  5. demote to the target encoding, rounding and clamping
//  6. remap channels (mono to stereo, 5.1 to stereo)
//  7. swap to the target byte order
package convert

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gen2brain/alsaout/format"
	"github.com/gen2brain/alsaout/resample"
)

// ErrUnsupportedConversion is returned by New for parameter pairs the pipeline cannot join.
var ErrUnsupportedConversion = errors.New("unsupported conversion")

// Precision is the intermediate representation used while converting.
type Precision int

const (
	// PrecisionFloat works in float32 samples in [-1, 1].
	PrecisionFloat Precision = iota
	// PrecisionS16 works in 16-bit integers. Resampling still runs in float32.
	PrecisionS16
)

func (p Precision) String() string {
	switch p {
	case PrecisionFloat:
		return "float"
	case PrecisionS16:
		return "s16"
	default:
		return fmt.Sprintf("Precision(%d)", int(p))
	}
}

// ParsePrecision parses "float" or "s16".
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(s) {
	case "float", "":
		return PrecisionFloat, nil
	case "s16":
		return PrecisionS16, nil
	default:
		return 0, fmt.Errorf("%w: precision %q", ErrUnsupportedConversion, s)
	}
}

// Options controls which conversions New permits.
type Options struct {
	// Resample permits sample rate changes.
	Resample bool
	// ChangeChannels permits mono to stereo and 5.1 to stereo.
	ChangeChannels bool
	Precision      Precision
	// Resampler selects the rate conversion back-end. The zero value means resample.DefaultOptions.
	Resampler resample.Options
}

// DefaultOptions permits every supported conversion with float precision and the basic resampler.
func DefaultOptions() Options {
	return Options{
		Resample:       true,
		ChangeChannels: true,
		Precision:      PrecisionFloat,
		Resampler:      resample.DefaultOptions(),
	}
}

type remap int

const (
	remapNone remap = iota
	remapMono
	remapDownmix
)

// Converter is one conversion session. It is not safe for concurrent use.
type Converter struct {
	from, to  format.StreamParams
	precision Precision
	rs        resample.Resampler

	narrow  bool
	promote bool
	remap   remap

	native   []byte
	narrowed []byte
	encoded  []byte
	remapped []byte
	out      []byte
	f32      []float32
	s16      []int16
}

// New creates a conversion session from one stream description to another.
func New(from, to format.StreamParams, opts Options) (*Converter, error) {
	if err := from.Validate(); err != nil {
		return nil, fmt.Errorf("%w: source: %w", ErrUnsupportedConversion, err)
	}

	if err := to.Validate(); err != nil {
		return nil, fmt.Errorf("%w: target: %w", ErrUnsupportedConversion, err)
	}

	from.Format = from.Format.Normalize()
	to.Format = to.Format.Normalize()

	if from.Equal(to) {
		return nil, fmt.Errorf("%w: %v needs no conversion", ErrUnsupportedConversion, from)
	}

	if opts.Precision != PrecisionFloat && opts.Precision != PrecisionS16 {
		return nil, fmt.Errorf("%w: precision %v", ErrUnsupportedConversion, opts.Precision)
	}

	c := &Converter{from: from, to: to, precision: opts.Precision}

	if from.Channels != to.Channels {
		if !opts.ChangeChannels {
			return nil, fmt.Errorf("%w: channel count change %d to %d is disabled", ErrUnsupportedConversion, from.Channels, to.Channels)
		}

		switch {
		case from.Channels == 1 && to.Channels == 2:
			c.remap = remapMono
		case from.Channels == 6 && to.Channels == 2:
			c.remap = remapDownmix
		default:
			return nil, fmt.Errorf("%w: %d to %d channels", ErrUnsupportedConversion, from.Channels, to.Channels)
		}
	}

	if from.Rate != to.Rate {
		if !opts.Resample {
			return nil, fmt.Errorf("%w: resampling %d Hz to %d Hz is disabled", ErrUnsupportedConversion, from.Rate, to.Rate)
		}

		ro := opts.Resampler
		if ro.Backend == "" {
			ro = resample.DefaultOptions()
		}

		// Resampling runs before the channel remap, on the source layout.
		rs, err := resample.New(ro, from.Channels, from.Rate, to.Rate)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedConversion, err)
		}

		c.rs = rs
	}

	cur, tgt := from.Format.Native(), to.Format.Native()

	c.narrow = c.rs == nil && canNarrow(cur, tgt)
	if c.narrow {
		cur = tgt
	}

	c.promote = c.rs != nil ||
		(cur != tgt && (cur.IsFloat() || tgt.IsFloat() || cur.Bits() != tgt.Bits()))

	return c, nil
}

// canNarrow reports whether from shrinks to to by a plain shift.
func canNarrow(from, to format.SampleFormat) bool {
	switch from.Width {
	case format.Width32:
		return to.Width == format.Width24Packed || to.Width == format.Width16 || to.Width == format.Width24
	case format.Width24, format.Width24Packed:
		return to.Width == format.Width16
	}

	return false
}

// From returns the source stream description.
func (c *Converter) From() format.StreamParams {
	return c.from
}

// To returns the target stream description.
func (c *Converter) To() format.StreamParams {
	return c.to
}

// Convert converts whole source frames. The input is not modified. The returned slice is owned
// by the converter and valid until the next call. Resampling may return fewer frames than the
// ratio implies and emits the remainder on later calls.
//
// Convert panics if buf is not a whole number of source frames.
func (c *Converter) Convert(buf []byte) []byte {
	if fs := c.from.FrameSize(); len(buf)%fs != 0 {
		panic(fmt.Sprintf("convert: %d bytes is not a whole number of %d-byte frames", len(buf), fs))
	}

	data, owned := buf, false
	cur := c.from.Format
	tgt := c.to.Format.Native()

	if !cur.IsNative() {
		c.native = grow(c.native, len(data))
		Swap(c.native, data, cur)
		data, owned = c.native, true
		cur = cur.Native()
	}

	if c.narrow {
		c.narrowed = grow(c.narrowed, len(data)/cur.Bytes()*tgt.Bytes())
		Narrow(c.narrowed, data, cur, tgt)
		data, owned = c.narrowed, true
		cur = tgt
	}

	switch {
	case c.promote:
		data = c.transcode(data, cur, tgt)
		owned = true
		cur = tgt
	case cur != tgt:
		c.encoded = grow(c.encoded, len(data)/cur.Bytes()*tgt.Bytes())
		Recode(c.encoded, data, cur, tgt)
		data, owned = c.encoded, true
		cur = tgt
	}

	switch c.remap {
	case remapMono:
		c.remapped = grow(c.remapped, len(data)*2)
		MonoToStereo(c.remapped, data, cur)
		data, owned = c.remapped, true
	case remapDownmix:
		c.remapped = grow(c.remapped, len(data)/3)
		Downmix51(c.remapped, data, cur)
		data, owned = c.remapped, true
	}

	if !c.to.Format.IsNative() {
		if !owned {
			c.out = grow(c.out, len(data))
			Swap(c.out, data, cur)

			return c.out
		}

		Swap(data, data, cur)
	}

	if !owned {
		c.out = append(c.out[:0], data...)

		return c.out
	}

	return data
}

// transcode decodes native src to the working precision, resamples and encodes native tgt.
func (c *Converter) transcode(src []byte, cur, tgt format.SampleFormat) []byte {
	n := len(src) / cur.Bytes()

	if c.precision == PrecisionS16 {
		c.s16 = growInt16(c.s16, n)
		ToS16(c.s16, src, cur)
		samples := c.s16

		if c.rs != nil {
			c.f32 = growFloat32(c.f32, n)
			for i, v := range samples {
				c.f32[i] = float32(v) / 32768
			}

			res := c.rs.Process(c.f32)
			c.s16 = growInt16(c.s16, len(res))
			for i, v := range res {
				c.s16[i] = int16(quantize(float64(v), 32768))
			}

			samples = c.s16
		}

		c.encoded = grow(c.encoded, len(samples)*tgt.Bytes())
		FromS16(c.encoded, samples, tgt)

		return c.encoded
	}

	c.f32 = growFloat32(c.f32, n)
	ToFloat(c.f32, src, cur)
	samples := c.f32

	if c.rs != nil {
		samples = c.rs.Process(samples)
	}

	c.encoded = grow(c.encoded, len(samples)*tgt.Bytes())
	FromFloat(c.encoded, samples, tgt)

	return c.encoded
}

// Reset discards resampler carry-over, as after a seek.
func (c *Converter) Reset() {
	if c.rs != nil {
		c.rs.Reset()
	}
}

// Close releases the resampler.
func (c *Converter) Close() error {
	if c.rs == nil {
		return nil
	}

	err := c.rs.Close()
	c.rs = nil

	return err
}

func grow(b []byte, n int) []byte {
	if cap(b) < n {
		return make([]byte, n)
	}

	return b[:n]
}

func growFloat32(b []float32, n int) []float32 {
	if cap(b) < n {
		return make([]float32, n)
	}

	return b[:n]
}

func growInt16(b []int16, n int) []int16 {
	if cap(b) < n {
		return make([]int16, n)
	}

	return b[:n]
}
