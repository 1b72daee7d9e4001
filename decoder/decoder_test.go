package decoder

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gen2brain/alsaout/format"
)

func intBuffer(rate, bits, channels int, data []int) *audio.IntBuffer {
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: bits,
	}
}

func writeWAV(t *testing.T, path string, rate, bits, channels int, data []int) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, rate, bits, channels, 1)
	require.NoError(t, enc.Write(intBuffer(rate, bits, channels, data)))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
}

func writeAIFF(t *testing.T, path string, rate, bits, channels int, data []int) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)

	enc := aiff.NewEncoder(f, rate, bits, channels)
	require.NoError(t, enc.Write(intBuffer(rate, bits, channels, data)))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
}

// decodeAll reads d to the end with an odd-sized buffer.
func decodeAll(t *testing.T, d Decoder, want format.StreamParams) []byte {
	t.Helper()

	var out []byte

	buf := make([]byte, 1001)
	for {
		n, params, err := d.Decode(buf)
		if errors.Is(err, io.EOF) {
			require.Zero(t, n)

			return out
		}

		require.NoError(t, err)
		require.Positive(t, n)
		require.Zero(t, n%want.FrameSize(), "partial frame")
		require.True(t, want.Equal(params), params.String())

		out = append(out, buf[:n]...)
	}
}

func s16Bytes(data []int) []byte {
	out := make([]byte, 2*len(data))
	for i, v := range data {
		binary.NativeEndian.PutUint16(out[2*i:], uint16(int16(v)))
	}

	return out
}

func s32Bytes(data []int) []byte {
	out := make([]byte, 4*len(data))
	for i, v := range data {
		binary.NativeEndian.PutUint32(out[4*i:], uint32(int32(v)))
	}

	return out
}

func stereoRamp(frames int) []int {
	data := make([]int, 2*frames)
	for i := range data {
		if i%2 == 0 {
			data[i] = int(int16(i * 7))
		} else {
			data[i] = -(i % 1000)
		}
	}

	return data
}

func TestWAV(t *testing.T) {
	dir := t.TempDir()

	t.Run("16-bit stereo", func(t *testing.T) {
		path := filepath.Join(dir, "s16.wav")
		data := stereoRamp(16000)
		writeWAV(t, path, 8000, 16, 2, data)

		d, err := Open(path)
		require.NoError(t, err)
		defer d.Close()

		assert.Equal(t, 2, d.Duration())
		assert.Equal(t, 256, d.Bitrate())

		want := format.StreamParams{Channels: 2, Rate: 8000, Format: format.S16}
		assert.Equal(t, s16Bytes(data), decodeAll(t, d, want))
	})

	t.Run("24-bit mono", func(t *testing.T) {
		path := filepath.Join(dir, "s24.wav")
		data := []int{-8388608, 8388607, -1, 0, 12345, -54321}
		writeWAV(t, path, 44100, 24, 1, data)

		d, err := Open(path)
		require.NoError(t, err)
		defer d.Close()

		want := format.StreamParams{Channels: 1, Rate: 44100, Format: format.S24}
		assert.Equal(t, s32Bytes(data), decodeAll(t, d, want))
	})

	t.Run("seek", func(t *testing.T) {
		path := filepath.Join(dir, "seek.wav")
		data := stereoRamp(16000)
		writeWAV(t, path, 8000, 16, 2, data)

		d, err := Open(path)
		require.NoError(t, err)
		defer d.Close()

		pos, err := d.Seek(1)
		require.NoError(t, err)
		assert.Equal(t, 1, pos)

		want := format.StreamParams{Channels: 2, Rate: 8000, Format: format.S16}
		assert.Equal(t, s16Bytes(data[16000:]), decodeAll(t, d, want))

		pos, err = d.Seek(10)
		require.NoError(t, err)
		assert.Equal(t, 2, pos)

		n, _, err := d.Decode(make([]byte, 64))
		assert.Zero(t, n)
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("short buffer", func(t *testing.T) {
		path := filepath.Join(dir, "short.wav")
		writeWAV(t, path, 8000, 16, 2, stereoRamp(10))

		d, err := Open(path)
		require.NoError(t, err)
		defer d.Close()

		_, _, err = d.Decode(make([]byte, 3))
		assert.ErrorIs(t, err, io.ErrShortBuffer)
	})
}

func TestAIFF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s16.AIF")
	data := stereoRamp(8000)
	writeAIFF(t, path, 8000, 16, 2, data)

	d, err := Open(path)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, 1, d.Duration())
	assert.Equal(t, 256, d.Bitrate())

	pos, err := d.Seek(0)
	assert.Equal(t, -1, pos)
	assert.ErrorIs(t, err, ErrNotSeekable)

	want := format.StreamParams{Channels: 2, Rate: 8000, Format: format.S16}
	assert.Equal(t, s16Bytes(data), decodeAll(t, d, want))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	t.Run("extensions", func(t *testing.T) {
		assert.Equal(t, []string{".aif", ".aiff", ".mp3", ".oga", ".ogg", ".wav"}, Extensions())
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := Open(filepath.Join(dir, "track.flac"))
		assert.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := Open(filepath.Join(dir, "missing.wav"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	for _, name := range []string{"junk.wav", "junk.aiff", "junk.ogg"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte("this is not audio at all, just some text"), 0o644))

			_, err := Open(path)
			assert.ErrorIs(t, err, ErrInvalidFile)
		})
	}
}
