package resample

import (
	"fmt"

	"github.com/oov/audio/resampler"
)

// speex wraps the planar speex port, converting to and from interleaved frames.
type speex struct {
	channels int
	fromRate int
	toRate   int
	quality  int

	r   *resampler.Resampler
	in  [][]float32
	res [][]float32
	out []float32
}

func newSpeex(channels, fromRate, toRate, quality int) *speex {
	s := &speex{
		channels: channels,
		fromRate: fromRate,
		toRate:   toRate,
		quality:  quality,
		r:        resampler.New(channels, fromRate, toRate, quality),
		in:       make([][]float32, channels),
		res:      make([][]float32, channels),
	}

	return s
}

func (s *speex) Process(in []float32) []float32 {
	if len(in)%s.channels != 0 {
		panic(fmt.Sprintf("resample: %d samples is not a whole number of %d-channel frames", len(in), s.channels))
	}

	frames := len(in) / s.channels

	// Decode to planar, the speex state is per channel.
	for c := 0; c < s.channels; c++ {
		s.in[c] = grow(s.in[c], frames)
		for i := 0; i < frames; i++ {
			s.in[c][i] = in[i*s.channels+c]
		}
	}

	estimate := frames*s.toRate/s.fromRate + 64

	written := -1
	for c := 0; c < s.channels; c++ {
		n := s.processChannel(c, frames, estimate)
		if written < 0 || n < written {
			written = n
		}
	}

	s.out = grow(s.out, written*s.channels)
	for i := 0; i < written; i++ {
		for c := 0; c < s.channels; c++ {
			s.out[i*s.channels+c] = s.res[c][i]
		}
	}

	return s.out
}

// processChannel feeds all frames of channel c, growing the output until the input is consumed.
func (s *speex) processChannel(c, frames, estimate int) int {
	s.res[c] = grow(s.res[c], estimate)

	read, written := 0, 0
	for read < frames {
		if written == len(s.res[c]) {
			s.res[c] = append(s.res[c], make([]float32, len(s.res[c])+64)...)
		}

		rd, wr := s.r.ProcessFloat32(c, s.in[c][read:frames], s.res[c][written:])
		read += int(rd)
		written += int(wr)

		if rd == 0 && wr == 0 {
			s.res[c] = append(s.res[c], make([]float32, 64)...)
		}
	}

	return written
}

func (s *speex) Reset() {
	s.r = resampler.New(s.channels, s.fromRate, s.toRate, s.quality)
}

func (s *speex) Close() error {
	s.r = nil

	return nil
}

// grow returns b resized to n elements, reusing its storage when possible.
func grow(b []float32, n int) []float32 {
	if cap(b) < n {
		return make([]float32, n)
	}

	return b[:n]
}
