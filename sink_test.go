package alsaout

import (
	"bytes"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gen2brain/alsaout/format"
)

type writeResult struct {
	frames int
	err    error
}

// fakeDevice accepts whole writes unless a scripted result is queued.
type fakeDevice struct {
	frameSize int
	period    int
	buffer    int
	rate      int

	results  []writeResult
	recovers []error

	attempts int
	writes   [][]byte
	waits    []int
	delay    int
	delayErr error
	dropped  int
	prepared int
	closed   int
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	d.attempts++

	frames := len(p) / d.frameSize
	if len(d.results) > 0 {
		r := d.results[0]
		d.results = d.results[1:]

		if r.err != nil {
			return 0, r.err
		}

		frames = r.frames
	}

	if frames > 0 {
		d.writes = append(d.writes, bytes.Clone(p[:frames*d.frameSize]))
	}

	return frames, nil
}

func (d *fakeDevice) Recover(err error) error {
	if len(d.recovers) == 0 {
		return err
	}

	r := d.recovers[0]
	d.recovers = d.recovers[1:]

	return r
}

func (d *fakeDevice) Wait(timeoutMs int) (bool, error) {
	d.waits = append(d.waits, timeoutMs)

	return true, nil
}

func (d *fakeDevice) Delay() (int, error) { return d.delay, d.delayErr }
func (d *fakeDevice) Drop() error         { d.dropped++; return nil }
func (d *fakeDevice) Prepare() error      { d.prepared++; return nil }
func (d *fakeDevice) Close() error        { d.closed++; return nil }
func (d *fakeDevice) PeriodSize() int     { return d.period }
func (d *fakeDevice) BufferSize() int     { return d.buffer }
func (d *fakeDevice) Rate() int           { return d.rate }

var stereo16 = format.StreamParams{Channels: 2, Rate: 44100, Format: format.S16LE}

// newTestSink returns an open sink on a device with 1024-frame periods.
func newTestSink(t *testing.T, params format.StreamParams) (*Sink, *fakeDevice) {
	t.Helper()

	dev := &fakeDevice{frameSize: params.FrameSize(), period: 1024, buffer: 4096, rate: params.Rate}

	s := NewSink(Options{
		Device: "hw:9,0",
		Open: func(name string, p format.StreamParams) (Device, error) {
			assert.Equal(t, "hw:9,0", name)

			return dev, nil
		},
	})
	s.sleep = func(time.Duration) {}

	require.NoError(t, s.Open(params))

	return s, dev
}

func TestPlayPeriodBoundary(t *testing.T) {
	s, dev := newTestSink(t, stereo16)

	n, err := s.Play(make([]byte, 4095))
	require.NoError(t, err)
	assert.Equal(t, 4095, n)
	assert.Empty(t, dev.writes)
	assert.Equal(t, 4095, s.fill)

	n, err = s.Play([]byte{1})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, dev.writes, 1)
	assert.Len(t, dev.writes[0], 4096)
	assert.Zero(t, s.fill)
}

func TestPlayKeepsOrderAcrossCalls(t *testing.T) {
	s, dev := newTestSink(t, stereo16)

	data := make([]byte, 3*4096+100)
	for i := range data {
		data[i] = byte(i)
	}

	for _, chunk := range [][]byte{data[:10], data[10:5000], data[5000:]} {
		_, err := s.Play(chunk)
		require.NoError(t, err)
	}

	require.Len(t, dev.writes, 3)
	assert.Equal(t, data[:3*4096], bytes.Join(dev.writes, nil))
	assert.Equal(t, 100, s.fill)
	assert.Equal(t, data[3*4096:], s.buf[:s.fill])
}

func TestPlayLargerThanBuffer(t *testing.T) {
	s, dev := newTestSink(t, stereo16)

	n, err := s.Play(make([]byte, 2*bufferCapacity+8))
	require.NoError(t, err)
	assert.Equal(t, 2*bufferCapacity+8, n)
	assert.Len(t, dev.writes, 2*bufferCapacity/4096)
	assert.Equal(t, 8, s.fill)
}

func TestPlayZeroWriteIsRetried(t *testing.T) {
	s, dev := newTestSink(t, stereo16)
	dev.results = []writeResult{{frames: 0}, {frames: 0}}

	_, err := s.Play(make([]byte, 4096))
	require.NoError(t, err)
	assert.Equal(t, 3, dev.attempts)
	assert.Len(t, dev.writes, 1)
	assert.Zero(t, s.fill)
}

func TestPlayPartialWrite(t *testing.T) {
	s, dev := newTestSink(t, stereo16)
	dev.results = []writeResult{{frames: 512}}

	_, err := s.Play(make([]byte, 4096))
	require.NoError(t, err)
	require.Len(t, dev.writes, 1)
	assert.Len(t, dev.writes[0], 2048)
	assert.Equal(t, 2048, s.fill)

	_, err = s.Play(make([]byte, 2048))
	require.NoError(t, err)
	assert.Len(t, dev.writes, 2)
	assert.Zero(t, s.fill)
}

func TestPlayRecovery(t *testing.T) {
	t.Run("underrun", func(t *testing.T) {
		s, dev := newTestSink(t, stereo16)
		dev.results = []writeResult{{err: syscall.EPIPE}}
		dev.recovers = []error{nil}

		_, err := s.Play(make([]byte, 4096))
		require.NoError(t, err)
		assert.Len(t, dev.writes, 1)
		assert.Empty(t, dev.waits)
	})

	t.Run("try again", func(t *testing.T) {
		s, dev := newTestSink(t, stereo16)
		dev.results = []writeResult{{err: syscall.EAGAIN}, {err: syscall.EAGAIN}}

		_, err := s.Play(make([]byte, 4096))
		require.NoError(t, err)
		assert.Equal(t, []int{waitTimeoutMs, waitTimeoutMs}, dev.waits)
		assert.Len(t, dev.writes, 1)
		assert.Equal(t, StateOpen, s.State())
	})

	t.Run("hardware fault", func(t *testing.T) {
		s, dev := newTestSink(t, stereo16)
		dev.results = []writeResult{{err: syscall.EIO}}

		n, err := s.Play(make([]byte, 5000))
		assert.ErrorIs(t, err, ErrHardwareFault)
		assert.ErrorIs(t, err, syscall.EIO)
		assert.Equal(t, 5000, n)
		assert.Equal(t, StateFailed, s.State())

		_, err = s.Play(make([]byte, 4))
		assert.ErrorIs(t, err, ErrHardwareFault)
		assert.Zero(t, s.BufferFill())

		require.NoError(t, s.Close())
		assert.Empty(t, dev.writes, "a failed stream is not drained")
		assert.Equal(t, 1, dev.closed)
		assert.Equal(t, StateClosed, s.State())
	})
}

func TestCloseDrainsWithSilence(t *testing.T) {
	tests := []struct {
		name    string
		params  format.StreamParams
		silence byte
	}{
		{"signed", stereo16, 0x00},
		{"unsigned", format.StreamParams{Channels: 2, Rate: 8000, Format: format.U8}, 0x80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, dev := newTestSink(t, tt.params)
			dev.delay = 2205

			var slept time.Duration
			s.sleep = func(d time.Duration) { slept = d }

			data := bytes.Repeat([]byte{0x11}, 101)
			_, err := s.Play(data)
			require.NoError(t, err)

			require.NoError(t, s.Close())

			periodBytes := 1024 * tt.params.FrameSize()
			require.Len(t, dev.writes, 1, "exactly one final period")
			out := dev.writes[0]
			require.Len(t, out, periodBytes)

			// The trailing partial frame is dropped before padding.
			whole := 101 - 101%tt.params.FrameSize()
			assert.Equal(t, data[:whole], out[:whole])
			assert.Equal(t, bytes.Repeat([]byte{tt.silence}, periodBytes-whole), out[whole:])

			assert.Equal(t, time.Duration(2205)*time.Second/time.Duration(tt.params.Rate), slept)
			assert.Equal(t, 1, dev.closed)
			assert.Equal(t, StateClosed, s.State())
			assert.Zero(t, s.Rate())
		})
	}

	t.Run("empty", func(t *testing.T) {
		s, dev := newTestSink(t, stereo16)
		dev.delay = -3

		slept := false
		s.sleep = func(time.Duration) { slept = true }

		require.NoError(t, s.Close())
		assert.Empty(t, dev.writes)
		assert.False(t, slept)
		assert.NoError(t, s.Close(), "closing twice is a no-op")
		assert.Equal(t, 1, dev.closed)
	})
}

func TestBufferFill(t *testing.T) {
	s, dev := newTestSink(t, stereo16)

	dev.delay = 100
	assert.Equal(t, 400, s.BufferFill())

	dev.delay = -5
	assert.Zero(t, s.BufferFill(), "negative delay after an underrun")

	dev.delay, dev.delayErr = 100, errors.New("delay failed")
	assert.Zero(t, s.BufferFill())
}

func TestReset(t *testing.T) {
	s, dev := newTestSink(t, stereo16)

	_, err := s.Play(make([]byte, 1000))
	require.NoError(t, err)

	prepared := dev.prepared
	require.NoError(t, s.Reset())
	assert.Zero(t, s.fill)
	assert.Equal(t, 1, dev.dropped)
	assert.Equal(t, prepared+1, dev.prepared)

	require.NoError(t, s.Close())
	assert.Empty(t, dev.writes, "nothing left to drain after a reset")
}

func TestOpen(t *testing.T) {
	t.Run("negotiated rate", func(t *testing.T) {
		dev := &fakeDevice{frameSize: 4, period: 1024, buffer: 4096, rate: 48000}
		s := NewSink(Options{Open: func(string, format.StreamParams) (Device, error) { return dev, nil }})

		require.NoError(t, s.Open(stereo16))
		assert.Equal(t, 48000, s.Rate())
		assert.Equal(t, 48000, s.Params().Rate)
		assert.Equal(t, StateOpen, s.State())

		assert.Panics(t, func() { _ = s.Open(stereo16) })
	})

	t.Run("period equals buffer", func(t *testing.T) {
		dev := &fakeDevice{frameSize: 4, period: 4096, buffer: 4096, rate: 44100}
		s := NewSink(Options{Open: func(string, format.StreamParams) (Device, error) { return dev, nil }})

		assert.ErrorIs(t, s.Open(stereo16), ErrDevice)
		assert.Equal(t, 1, dev.closed)
		assert.Equal(t, StateClosed, s.State())
	})

	t.Run("device error", func(t *testing.T) {
		s := NewSink(Options{Open: func(string, format.StreamParams) (Device, error) { return nil, syscall.EBUSY }})

		err := s.Open(stereo16)
		assert.ErrorIs(t, err, ErrDevice)
		assert.ErrorIs(t, err, syscall.EBUSY)
	})

	t.Run("configuration", func(t *testing.T) {
		opened := false
		s := NewSink(Options{Open: func(string, format.StreamParams) (Device, error) { opened = true; return nil, nil }})

		assert.ErrorIs(t, s.Open(format.StreamParams{Channels: 2, Rate: 44100}), ErrConfiguration)
		assert.ErrorIs(t, s.Open(format.StreamParams{Channels: 0, Rate: 44100, Format: format.S16LE}), ErrConfiguration)
		assert.False(t, opened)
	})
}

func TestClosedSink(t *testing.T) {
	s := NewSink(Options{})

	_, err := s.Play([]byte{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, s.Reset(), ErrNotOpen)
	assert.Zero(t, s.BufferFill())
	assert.Zero(t, s.Rate())
	assert.NoError(t, s.Close())

	assert.Equal(t, 100, s.ReadMixer())
	s.SetMixer(20)
	s.ToggleMixerChannel()
	assert.Empty(t, s.MixerChannelName())
}

func TestInit(t *testing.T) {
	want := format.Caps{MinChannels: 1, MaxChannels: 2, MinRate: 8000, MaxRate: 192000, Formats: []format.SampleFormat{format.S16}}

	elem := &fakeElement{name: "Master", rmax: 100, raw: 40}
	s := NewSink(Options{Device: "hw:1,0", Mixer1: "Master"})
	s.queryCaps = func(name string) (format.Caps, error) {
		assert.Equal(t, "hw:1,0", name)

		return want, nil
	}
	s.openMixer = func(device, name1, name2 string) *MixerController {
		assert.Equal(t, "hw:1,0", device)
		assert.Equal(t, "Master", name1)

		c, err := NewMixerChannel(name1, elem)
		require.NoError(t, err)

		return NewMixerController(c, nil, nil, nil)
	}

	caps, err := s.Init()
	require.NoError(t, err)
	assert.Equal(t, want, caps)
	assert.Equal(t, "Master", s.MixerChannelName())
	assert.Equal(t, 40, s.ReadMixer())

	s.SetMixer(75)
	assert.Equal(t, 75, elem.raw)
	assert.NoError(t, s.Shutdown())

	s.queryCaps = func(string) (format.Caps, error) { return format.Caps{}, ErrDevice }
	_, err = s.Init()
	assert.ErrorIs(t, err, ErrDevice)
}
