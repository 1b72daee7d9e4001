package decoder

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"

	"github.com/gen2brain/alsaout/format"
)

func init() {
	Register(".mp3", OpenMP3)
}

// go-mp3 always produces 16-bit little-endian stereo.
const mp3FrameSize = 4

type mp3Decoder struct {
	file   *os.File
	dec    *mp3.Decoder
	params format.StreamParams

	duration int
	bitrate  int
}

// OpenMP3 opens an MPEG-1/2 Layer III file.
func OpenMP3(path string) (Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	d := &mp3Decoder{
		file:   f,
		dec:    dec,
		params: format.StreamParams{Channels: 2, Rate: dec.SampleRate(), Format: format.S16LE},
	}

	if n := dec.Length(); n > 0 {
		seconds := float64(n/mp3FrameSize) / float64(d.params.Rate)
		d.duration = int(seconds)
		d.bitrate = estimateBitrate(fileSize(f), seconds)
	}

	return d, nil
}

func (d *mp3Decoder) Decode(buf []byte) (int, format.StreamParams, error) {
	buf = buf[:len(buf)-len(buf)%mp3FrameSize]
	if len(buf) == 0 {
		return 0, d.params, io.ErrShortBuffer
	}

	n, err := io.ReadFull(d.dec, buf)
	n -= n % mp3FrameSize

	switch {
	case n > 0:
		return n, d.params, nil
	case err == nil, errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return 0, d.params, io.EOF
	default:
		return 0, d.params, fmt.Errorf("decode: %w", err)
	}
}

func (d *mp3Decoder) Seek(seconds int) (int, error) {
	offset := int64(max(seconds, 0)) * int64(d.params.Rate) * mp3FrameSize
	if n := d.dec.Length(); n > 0 {
		offset = min(offset, n-n%mp3FrameSize)
	}

	pos, err := d.dec.Seek(offset, io.SeekStart)
	if err != nil {
		return -1, fmt.Errorf("seek: %w", err)
	}

	return int(pos / mp3FrameSize / int64(d.params.Rate)), nil
}

func (d *mp3Decoder) Duration() int { return d.duration }
func (d *mp3Decoder) Bitrate() int  { return d.bitrate }
func (d *mp3Decoder) Close() error  { return d.file.Close() }
