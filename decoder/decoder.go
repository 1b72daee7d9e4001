// Package decoder turns audio files into interleaved PCM for the sink.
//
// Each plugin wraps one codec library and registers itself under the file extensions it reads.
// Decode fills a byte buffer with whole frames and reports the stream parameters of the data it
// produced, which may change between calls.
package decoder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gen2brain/alsaout/format"
)

var (
	// ErrUnsupported is returned by Open for files no plugin reads.
	ErrUnsupported = errors.New("unsupported file type")
	// ErrNotSeekable is returned by Seek on streams that cannot seek.
	ErrNotSeekable = errors.New("stream is not seekable")
	// ErrInvalidFile is returned when a plugin rejects a file's contents.
	ErrInvalidFile = errors.New("invalid audio file")
)

// Decoder is an open audio stream.
type Decoder interface {
	// Decode fills buf with whole frames and returns the number of bytes written together with
	// the parameters of that data. At the end of the stream it returns 0 and io.EOF.
	Decode(buf []byte) (int, format.StreamParams, error)
	// Seek moves to the given position in seconds and returns the position reached,
	// or -1 and an error.
	Seek(seconds int) (int, error)
	// Duration returns the stream length in seconds, 0 when unknown.
	Duration() int
	// Bitrate returns the average bitrate in kbps, 0 when unknown.
	Bitrate() int
	Close() error
}

// OpenFunc opens a file for decoding.
type OpenFunc func(path string) (Decoder, error)

var registry = map[string]OpenFunc{}

// Register makes open available for files with the extension ext, e.g. ".wav".
func Register(ext string, open OpenFunc) {
	registry[strings.ToLower(ext)] = open
}

// Extensions returns the registered file extensions, sorted.
func Extensions() []string {
	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}

	slices.Sort(exts)

	return exts
}

// Open opens path with the plugin registered for its extension.
func Open(path string) (Decoder, error) {
	ext := strings.ToLower(filepath.Ext(path))

	open, ok := registry[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}

	d, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("can't open %s: %w", path, err)
	}

	return d, nil
}

func fileSize(f *os.File) int64 {
	st, err := f.Stat()
	if err != nil {
		return 0
	}

	return st.Size()
}

// estimateBitrate returns the average bitrate in kbps of size bytes played over seconds.
func estimateBitrate(size int64, seconds float64) int {
	if size <= 0 || seconds <= 0 {
		return 0
	}

	return int(float64(size) * 8 / seconds / 1000)
}

// putInts packs integer samples as f in machine byte order.
func putInts(dst []byte, src []int, f format.SampleFormat) {
	n := f.Bytes()
	for i, v := range src {
		b := dst[i*n:]

		switch n {
		case 1:
			b[0] = byte(v)
		case 2:
			binary.NativeEndian.PutUint16(b, uint16(int16(v)))
		default:
			binary.NativeEndian.PutUint32(b, uint32(int32(v)))
		}
	}
}

// intFormat returns the machine-order sample format holding bitDepth-bit integers.
func intFormat(bitDepth int, signed bool) (format.SampleFormat, error) {
	var w format.Width

	switch bitDepth {
	case 8:
		w = format.Width8
	case 16:
		w = format.Width16
	case 24:
		w = format.Width24
	case 32:
		w = format.Width32
	default:
		return format.SampleFormat{}, fmt.Errorf("%w: %d-bit samples", ErrInvalidFile, bitDepth)
	}

	return format.New(w, signed, format.NativeOrder)
}
