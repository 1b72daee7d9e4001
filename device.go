package alsaout

import (
	"errors"
	"fmt"

	"github.com/gen2brain/alsaout/alsa"
	"github.com/gen2brain/alsaout/format"
)

// Upper bound of the negotiated hardware buffer, in microseconds.
const maxBufferTime = 300000

// Device is an open, prepared playback stream.
type Device interface {
	// Write makes one attempt to write whole frames and returns the number of frames accepted.
	Write(p []byte) (int, error)
	// Recover tries to bring the stream back after a failed Write. It returns nil when the
	// write can be retried, an EAGAIN error when the device has no space yet, or the fault.
	Recover(err error) error
	// Wait blocks until the device can accept data or the timeout expires.
	Wait(timeoutMs int) (bool, error)
	// Delay returns the frames queued ahead of a frame written now. It is negative after an underrun.
	Delay() (int, error)
	Drop() error
	Prepare() error
	Close() error

	PeriodSize() int
	BufferSize() int
	Rate() int
}

// OpenFunc opens the named device for the given stream parameters.
type OpenFunc func(name string, params format.StreamParams) (Device, error)

var formatMap = []struct {
	pcm alsa.PcmFormat
	f   format.SampleFormat
}{
	{alsa.SNDRV_PCM_FORMAT_S8, format.S8},
	{alsa.SNDRV_PCM_FORMAT_U8, format.U8},
	{alsa.SNDRV_PCM_FORMAT_S16_LE, format.S16LE},
	{alsa.SNDRV_PCM_FORMAT_S16_BE, format.S16BE},
	{alsa.SNDRV_PCM_FORMAT_U16_LE, format.U16LE},
	{alsa.SNDRV_PCM_FORMAT_U16_BE, format.U16BE},
	{alsa.SNDRV_PCM_FORMAT_S24_LE, format.S24LE},
	{alsa.SNDRV_PCM_FORMAT_S24_BE, format.S24BE},
	{alsa.SNDRV_PCM_FORMAT_U24_LE, format.U24LE},
	{alsa.SNDRV_PCM_FORMAT_U24_BE, format.U24BE},
	{alsa.SNDRV_PCM_FORMAT_S32_LE, format.S32LE},
	{alsa.SNDRV_PCM_FORMAT_S32_BE, format.S32BE},
	{alsa.SNDRV_PCM_FORMAT_U32_LE, format.U32LE},
	{alsa.SNDRV_PCM_FORMAT_U32_BE, format.U32BE},
	{alsa.SNDRV_PCM_FORMAT_FLOAT_LE, format.FloatLE},
	{alsa.SNDRV_PCM_FORMAT_FLOAT_BE, format.FloatBE},
	{alsa.SNDRV_PCM_FORMAT_S24_3LE, format.S24_3LE},
	{alsa.SNDRV_PCM_FORMAT_S24_3BE, format.S24_3BE},
	{alsa.SNDRV_PCM_FORMAT_U24_3LE, format.U24_3LE},
	{alsa.SNDRV_PCM_FORMAT_U24_3BE, format.U24_3BE},
}

// PcmFormat returns the ALSA format code of f.
func PcmFormat(f format.SampleFormat) (alsa.PcmFormat, bool) {
	f = f.Normalize()
	for _, m := range formatMap {
		if m.f == f {
			return m.pcm, true
		}
	}

	return alsa.SNDRV_PCM_FORMAT_INVALID, false
}

// SampleFormat returns the sample format of an ALSA format code.
func SampleFormat(pcm alsa.PcmFormat) (format.SampleFormat, bool) {
	for _, m := range formatMap {
		if m.pcm == pcm {
			return m.f, true
		}
	}

	return format.SampleFormat{}, false
}

// alsaDevice adapts an *alsa.PCM to Device.
type alsaDevice struct {
	pcm *alsa.PCM
}

func (d *alsaDevice) Write(p []byte) (int, error)      { return d.pcm.WriteI(p) }
func (d *alsaDevice) Recover(err error) error          { return d.pcm.Recover(err) }
func (d *alsaDevice) Wait(timeoutMs int) (bool, error) { return d.pcm.Wait(timeoutMs) }
func (d *alsaDevice) Delay() (int, error)              { return d.pcm.Delay() }
func (d *alsaDevice) Drop() error                      { return d.pcm.Drop() }
func (d *alsaDevice) Prepare() error                   { return d.pcm.Prepare() }
func (d *alsaDevice) Close() error                     { return d.pcm.Close() }
func (d *alsaDevice) PeriodSize() int                  { return int(d.pcm.PeriodSize()) }
func (d *alsaDevice) BufferSize() int                  { return int(d.pcm.BufferSize()) }
func (d *alsaDevice) Rate() int                        { return int(d.pcm.Rate()) }

// OpenALSA opens a hardware playback device in non-blocking interleaved mode.
// The rate is clamped to the device range, the buffer time is at most 300 ms and
// the period time a quarter of it.
func OpenALSA(name string, params format.StreamParams) (Device, error) {
	pcmFormat, ok := PcmFormat(params.Format)
	if !ok {
		return nil, fmt.Errorf("%w: format %v has no ALSA equivalent", ErrConfiguration, params.Format)
	}

	card, device, err := alsa.ParseName(name)
	if err != nil {
		return nil, err
	}

	refined, err := alsa.PcmParamsGetRefined(card, device, &alsa.Config{
		Format:   pcmFormat,
		Channels: uint32(params.Channels),
	})
	if err != nil {
		return nil, fmt.Errorf("device %s does not support %v with %d channels: %w", name, params.Format, params.Channels, err)
	}

	rateMin, _ := refined.RangeMin(alsa.SNDRV_PCM_HW_PARAM_RATE)
	rateMax, _ := refined.RangeMax(alsa.SNDRV_PCM_HW_PARAM_RATE)
	rate := max(rateMin, min(rateMax, uint32(params.Rate)))

	bufferTime, err := refined.RangeMax(alsa.SNDRV_PCM_HW_PARAM_BUFFER_TIME)
	if err != nil || bufferTime == 0 {
		return nil, errors.New("can't get the maximum buffer time")
	}

	bufferTime = min(bufferTime, maxBufferTime)

	pcm, err := alsa.PcmOpen(card, device, alsa.PCM_OUT|alsa.PCM_NONBLOCK, &alsa.Config{
		Channels:   uint32(params.Channels),
		Rate:       rate,
		Format:     pcmFormat,
		PeriodTime: bufferTime / 4,
		BufferTime: bufferTime,
	})
	if err != nil {
		return nil, err
	}

	if err := pcm.Prepare(); err != nil {
		_ = pcm.Close()

		return nil, err
	}

	return &alsaDevice{pcm: pcm}, nil
}

// QueryCaps returns what the named device accepts for interleaved playback. Only sample formats
// in machine byte order are listed.
func QueryCaps(name string) (format.Caps, error) {
	card, device, err := alsa.ParseName(name)
	if err != nil {
		return format.Caps{}, fmt.Errorf("%w: %w", ErrDevice, err)
	}

	params, err := alsa.PcmParamsGetRefined(card, device, nil)
	if err != nil {
		return format.Caps{}, fmt.Errorf("%w: %w", ErrDevice, err)
	}

	var caps format.Caps

	values := []struct {
		param alsa.PcmParam
		min   *int
		max   *int
	}{
		{alsa.SNDRV_PCM_HW_PARAM_CHANNELS, &caps.MinChannels, &caps.MaxChannels},
		{alsa.SNDRV_PCM_HW_PARAM_RATE, &caps.MinRate, &caps.MaxRate},
	}

	for _, v := range values {
		lo, err := params.RangeMin(v.param)
		if err != nil {
			return format.Caps{}, fmt.Errorf("%w: %w", ErrDevice, err)
		}

		hi, err := params.RangeMax(v.param)
		if err != nil {
			return format.Caps{}, fmt.Errorf("%w: %w", ErrDevice, err)
		}

		*v.min, *v.max = int(lo), int(hi)
	}

	caps.Formats = capsFormats(params.Formats())
	if len(caps.Formats) == 0 {
		return format.Caps{}, fmt.Errorf("%w: no supported sample formats", ErrDevice)
	}

	return caps, nil
}

func capsFormats(codes []alsa.PcmFormat) []format.SampleFormat {
	var formats []format.SampleFormat
	for _, code := range codes {
		if f, ok := SampleFormat(code); ok && f.IsNative() {
			formats = append(formats, f)
		}
	}

	return formats
}
