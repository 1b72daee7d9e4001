package format_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gen2brain/alsaout/format"
)

func TestNewNormalizes(t *testing.T) {
	other := format.BigEndian
	if format.NativeOrder == format.BigEndian {
		other = format.LittleEndian
	}

	f, err := format.New(format.Width8, false, other)
	require.NoError(t, err)
	assert.Equal(t, format.NativeOrder, f.Order, "1-byte formats carry the native order")
	assert.Equal(t, format.U8, f)

	_, err = format.New(format.WidthFloat, false, format.LittleEndian)
	assert.ErrorIs(t, err, format.ErrInvalid)

	_, err = format.New(format.WidthInvalid, true, format.LittleEndian)
	assert.ErrorIs(t, err, format.ErrInvalid)

	assert.Error(t, format.SampleFormat{Width: format.Width8, Order: other}.Validate())
}

func TestSizes(t *testing.T) {
	testCases := []struct {
		f     format.SampleFormat
		bytes int
		bits  int
	}{
		{format.S8, 1, 8},
		{format.U16BE, 2, 16},
		{format.S24LE, 4, 24},
		{format.U24_3BE, 3, 24},
		{format.S32LE, 4, 32},
		{format.FloatBE, 4, 32},
		{format.SampleFormat{}, 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.f.String(), func(t *testing.T) {
			assert.Equal(t, tc.bytes, tc.f.Bytes())
			assert.Equal(t, tc.bits, tc.f.Bits())
		})
	}
}

func TestNames(t *testing.T) {
	testCases := map[string]format.SampleFormat{
		"S8":       format.S8,
		"U8":       format.U8,
		"S16_LE":   format.S16LE,
		"U16_BE":   format.U16BE,
		"S24_LE":   format.S24LE,
		"U24_BE":   format.U24BE,
		"S24_3LE":  format.S24_3LE,
		"U24_3BE":  format.U24_3BE,
		"S32_BE":   format.S32BE,
		"FLOAT_LE": format.FloatLE,
		"FLOAT_BE": format.FloatBE,
	}

	for name, f := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, name, f.String())

			parsed, err := format.Parse(name)
			require.NoError(t, err)
			assert.Equal(t, f, parsed)
		})
	}

	parsed, err := format.Parse("s16")
	require.NoError(t, err)
	assert.Equal(t, format.S16, parsed)

	parsed, err = format.Parse("float")
	require.NoError(t, err)
	assert.Equal(t, format.Float, parsed)

	for _, bad := range []string{"", "X16", "S12_LE", "S", "FLOAT64"} {
		_, err := format.Parse(bad)
		assert.ErrorIs(t, err, format.ErrInvalid, "Parse(%q)", bad)
	}

	assert.Equal(t, "INVALID", format.SampleFormat{}.String())
}

func TestSilence(t *testing.T) {
	testCases := []struct {
		f    format.SampleFormat
		want []byte
	}{
		{format.S16LE, []byte{0, 0}},
		{format.FloatBE, []byte{0, 0, 0, 0}},
		{format.U8, []byte{0x80}},
		{format.U16LE, []byte{0x00, 0x80}},
		{format.U16BE, []byte{0x80, 0x00}},
		{format.U24LE, []byte{0x00, 0x00, 0x80, 0x00}},
		{format.U24BE, []byte{0x00, 0x80, 0x00, 0x00}},
		{format.U24_3LE, []byte{0x00, 0x00, 0x80}},
		{format.U24_3BE, []byte{0x80, 0x00, 0x00}},
		{format.U32BE, []byte{0x80, 0x00, 0x00, 0x00}},
	}

	for _, tc := range testCases {
		t.Run(tc.f.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.f.Silence())

			buf := make([]byte, 3*len(tc.want))
			tc.f.FillSilence(buf)
			assert.Equal(t, append(append(append([]byte{}, tc.want...), tc.want...), tc.want...), buf)
		})
	}

	assert.Panics(t, func() { format.S16LE.FillSilence(make([]byte, 3)) })
	assert.Panics(t, func() { format.SampleFormat{}.FillSilence(make([]byte, 4)) })
}

func TestStreamParams(t *testing.T) {
	p := format.StreamParams{Channels: 2, Rate: 44100, Format: format.S16LE}
	require.NoError(t, p.Validate())
	assert.Equal(t, 4, p.FrameSize())
	assert.Equal(t, 176400, p.BytesPerSecond())
	assert.Equal(t, "S16_LE 2ch 44100Hz", p.String())

	q := p
	assert.True(t, p.Equal(q))
	q.Rate = 48000
	assert.False(t, p.Equal(q))

	assert.Error(t, format.StreamParams{Channels: 0, Rate: 44100, Format: format.S16LE}.Validate())
	assert.Error(t, format.StreamParams{Channels: 2, Rate: 0, Format: format.S16LE}.Validate())
	assert.Error(t, format.StreamParams{Channels: 2, Rate: 44100}.Validate())
}

func TestCaps(t *testing.T) {
	caps := format.Caps{
		MinChannels: 2,
		MaxChannels: 8,
		MinRate:     8000,
		MaxRate:     96000,
		Formats:     []format.SampleFormat{format.S16, format.S32},
	}

	assert.True(t, caps.SupportsFormat(format.S16))
	assert.False(t, caps.SupportsFormat(format.Float))
	assert.True(t, caps.SupportsChannels(2))
	assert.False(t, caps.SupportsChannels(1))
	assert.Equal(t, 8000, caps.ClampRate(4000))
	assert.Equal(t, 96000, caps.ClampRate(192000))
	assert.Equal(t, 44100, caps.ClampRate(44100))
	assert.Contains(t, caps.String(), "8000-96000")
}
