package decoder

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"

	"github.com/gen2brain/alsaout/format"
)

// WAVE_FORMAT_IEEE_FLOAT
const wavFormatFloat = 3

func init() {
	Register(".wav", OpenWAV)
}

type wavDecoder struct {
	file *os.File
	dec  *wav.Decoder
	*intStream

	// Offset of the sample data in the file and its size in bytes.
	dataStart int64
	dataSize  int64
	// Bytes per frame in the file.
	blockAlign int64

	duration int
	bitrate  int
}

// OpenWAV opens a RIFF WAVE file with integer or IEEE float samples.
// 24-bit samples are delivered in a 4-byte container.
func OpenWAV(path string) (Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	d, err := newWAVDecoder(f)
	if err != nil {
		_ = f.Close()

		return nil, err
	}

	return d, nil
}

func newWAVDecoder(f *os.File) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a WAV file", ErrInvalidFile)
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	var (
		sf  format.SampleFormat
		err error
	)

	bits := int(dec.BitDepth)
	switch {
	case dec.WavAudioFormat == wavFormatFloat && bits == 32:
		sf = format.Float
	case dec.WavAudioFormat == wavFormatFloat:
		return nil, fmt.Errorf("%w: %d-bit float samples", ErrInvalidFile, bits)
	default:
		// 8-bit WAV is unsigned, everything wider is signed.
		sf, err = intFormat(bits, bits > 8)
		if err != nil {
			return nil, err
		}
	}

	params := format.StreamParams{Channels: int(dec.NumChans), Rate: int(dec.SampleRate), Format: sf}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	start, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	d := &wavDecoder{
		file:       f,
		dec:        dec,
		intStream:  newIntStream(dec, params),
		dataStart:  start,
		dataSize:   int64(dec.PCMSize),
		blockAlign: int64(params.Channels * ((bits + 7) / 8)),
		bitrate:    int(dec.AvgBytesPerSec) * 8 / 1000,
	}

	frames := d.dataSize / d.blockAlign
	d.remain = frames * int64(params.Channels)
	d.duration = int(frames / int64(params.Rate))

	return d, nil
}

func (d *wavDecoder) Decode(buf []byte) (int, format.StreamParams, error) {
	return d.decode(buf)
}

// Seek positions the file at a frame boundary inside the data chunk.
func (d *wavDecoder) Seek(seconds int) (int, error) {
	frames := d.dataSize / d.blockAlign
	frame := min(int64(max(seconds, 0))*int64(d.params.Rate), frames)

	if _, err := d.file.Seek(d.dataStart+frame*d.blockAlign, io.SeekStart); err != nil {
		return -1, fmt.Errorf("seek: %w", err)
	}

	d.remain = (frames - frame) * int64(d.params.Channels)

	return int(frame / int64(d.params.Rate)), nil
}

func (d *wavDecoder) Duration() int { return d.duration }
func (d *wavDecoder) Bitrate() int  { return d.bitrate }
func (d *wavDecoder) Close() error  { return d.file.Close() }
