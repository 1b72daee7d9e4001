package decoder

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"

	"github.com/gen2brain/alsaout/format"
)

// intSource is the part of the go-audio WAV and AIFF decoders used for sample data.
type intSource interface {
	PCMBuffer(buf *audio.IntBuffer) (int, error)
}

// intStream reads integer samples from a go-audio decoder and packs them as params.Format.
// 32-bit samples keep their bit pattern, so float data passes through unchanged.
type intStream struct {
	src    intSource
	params format.StreamParams
	buf    *audio.IntBuffer

	// Samples left before the end of the data chunk, negative when unbounded.
	remain int64
}

func newIntStream(src intSource, params format.StreamParams) *intStream {
	return &intStream{
		src:    src,
		params: params,
		remain: -1,
		buf: &audio.IntBuffer{
			Format: &audio.Format{NumChannels: params.Channels, SampleRate: params.Rate},
		},
	}
}

func (s *intStream) decode(dst []byte) (int, format.StreamParams, error) {
	frames := len(dst) / s.params.FrameSize()
	if frames == 0 {
		return 0, s.params, io.ErrShortBuffer
	}

	samples := frames * s.params.Channels
	if s.remain >= 0 {
		samples = int(min(int64(samples), s.remain))
		samples -= samples % s.params.Channels
	}

	if samples == 0 {
		return 0, s.params, io.EOF
	}

	if cap(s.buf.Data) < samples {
		s.buf.Data = make([]int, samples)
	}

	s.buf.Data = s.buf.Data[:samples]

	n, err := s.src.PCMBuffer(s.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, s.params, fmt.Errorf("decode: %w", err)
	}

	n -= n % s.params.Channels
	if n <= 0 {
		return 0, s.params, io.EOF
	}

	if s.remain >= 0 {
		s.remain -= int64(n)
	}

	putInts(dst, s.buf.Data[:n], s.params.Format)

	return n * s.params.Format.Bytes(), s.params, nil
}
