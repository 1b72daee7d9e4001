package decoder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/jfreymuth/oggvorbis"

	"github.com/gen2brain/alsaout/format"
)

func init() {
	Register(".ogg", OpenVorbis)
	Register(".oga", OpenVorbis)
}

type vorbisDecoder struct {
	file   *os.File
	dec    *oggvorbis.Reader
	params format.StreamParams
	buf    []float32

	duration int
	bitrate  int
}

// OpenVorbis opens an Ogg Vorbis file. Samples are delivered as native float.
func OpenVorbis(path string) (Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	dec, err := oggvorbis.NewReader(f)
	if err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	d := &vorbisDecoder{
		file:   f,
		dec:    dec,
		params: format.StreamParams{Channels: dec.Channels(), Rate: dec.SampleRate(), Format: format.Float},
	}

	if err := d.params.Validate(); err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	if n := dec.Length(); n > 0 {
		seconds := float64(n) / float64(d.params.Rate)
		d.duration = int(seconds)
		d.bitrate = estimateBitrate(fileSize(f), seconds)
	}

	return d, nil
}

func (d *vorbisDecoder) Decode(buf []byte) (int, format.StreamParams, error) {
	samples := len(buf) / d.params.FrameSize() * d.params.Channels
	if samples == 0 {
		return 0, d.params, io.ErrShortBuffer
	}

	if cap(d.buf) < samples {
		d.buf = make([]float32, samples)
	}

	n, err := d.dec.Read(d.buf[:samples])
	n -= n % d.params.Channels

	if n <= 0 {
		if err == nil || errors.Is(err, io.EOF) {
			return 0, d.params, io.EOF
		}

		return 0, d.params, fmt.Errorf("decode: %w", err)
	}

	for i, v := range d.buf[:n] {
		binary.NativeEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}

	return n * 4, d.params, nil
}

func (d *vorbisDecoder) Seek(seconds int) (int, error) {
	pos := int64(max(seconds, 0)) * int64(d.params.Rate)
	if n := d.dec.Length(); n > 0 {
		pos = min(pos, n)
	}

	if err := d.dec.SetPosition(pos); err != nil {
		return -1, fmt.Errorf("seek: %w", err)
	}

	return int(pos / int64(d.params.Rate)), nil
}

func (d *vorbisDecoder) Duration() int { return d.duration }
func (d *vorbisDecoder) Bitrate() int  { return d.bitrate }
func (d *vorbisDecoder) Close() error  { return d.file.Close() }
