package decoder

import (
	"fmt"
	"os"

	"github.com/go-audio/aiff"

	"github.com/gen2brain/alsaout/format"
)

func init() {
	Register(".aiff", OpenAIFF)
	Register(".aif", OpenAIFF)
}

type aiffDecoder struct {
	file *os.File
	*intStream

	duration int
	bitrate  int
}

// OpenAIFF opens an uncompressed AIFF file. Samples are signed, delivered in machine byte order.
func OpenAIFF(path string) (Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	dec := aiff.NewDecoder(f)
	if !dec.IsValidFile() {
		_ = f.Close()

		return nil, fmt.Errorf("%w: not an AIFF file", ErrInvalidFile)
	}

	dec.ReadInfo()

	af := dec.Format()
	if af == nil {
		_ = f.Close()

		return nil, fmt.Errorf("%w: AIFF file has no COMM chunk", ErrInvalidFile)
	}

	sf, err := intFormat(int(dec.BitDepth), true)
	if err != nil {
		_ = f.Close()

		return nil, err
	}

	params := format.StreamParams{Channels: af.NumChannels, Rate: af.SampleRate, Format: sf}
	if err := params.Validate(); err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	d := &aiffDecoder{
		file:      f,
		intStream: newIntStream(dec, params),
		bitrate:   params.Rate * params.Channels * int(dec.BitDepth) / 1000,
	}

	if dur, err := dec.Duration(); err == nil {
		d.duration = int(dur.Seconds())
	}

	return d, nil
}

func (d *aiffDecoder) Decode(buf []byte) (int, format.StreamParams, error) {
	return d.decode(buf)
}

func (d *aiffDecoder) Seek(int) (int, error) {
	return -1, ErrNotSeekable
}

func (d *aiffDecoder) Duration() int { return d.duration }
func (d *aiffDecoder) Bitrate() int  { return d.bitrate }
func (d *aiffDecoder) Close() error  { return d.file.Close() }
