// Package alsaout is the playback sink of a console music player.
//
// A Sink negotiates a hardware stream, accumulates converted PCM and writes it to the
// device one period at a time, recovering from underruns. It also carries a two-channel
// hardware volume controller. All methods are meant to be called from a single
// playback goroutine.
package alsaout

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sys/unix"

	"github.com/gen2brain/alsaout/format"
)

const (
	// Capacity of the accumulation buffer in bytes.
	bufferCapacity = 512 * 1024
	// Longest wait for device space after a write returned EAGAIN.
	waitTimeoutMs = 500
)

// State is the lifecycle state of a Sink.
type State int

const (
	StateClosed State = iota
	StateOpen
	// StateFailed is entered after an unrecoverable write error. Only Close leaves it.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateFailed:
		return "FAILED"
	default:
		return "CLOSED"
	}
}

// Options configures a Sink.
type Options struct {
	// Device is the hardware device name, "hw:C,D", "hw:CARDNAME,D" or "default".
	Device string
	// Mixer1 and Mixer2 are the volume control names. Either may be empty.
	Mixer1 string
	Mixer2 string
	// Open opens the playback device. Nil means OpenALSA.
	Open OpenFunc
}

// Sink delivers interleaved PCM to a playback device.
type Sink struct {
	opts      Options
	open      OpenFunc
	queryCaps func(name string) (format.Caps, error)
	openMixer func(device, name1, name2 string) *MixerController
	sleep     func(time.Duration)

	state       State
	dev         Device
	params      format.StreamParams
	frameSize   int
	periodBytes int
	buf         []byte
	fill        int

	mixer *MixerController
}

// NewSink returns a closed sink with an inert mixer. Call Init to open the mixer.
func NewSink(opts Options) *Sink {
	s := &Sink{
		opts:      opts,
		open:      opts.Open,
		queryCaps: QueryCaps,
		openMixer: OpenMixer,
		sleep:     time.Sleep,
		mixer:     NewMixerController(nil, nil, nil, nil),
	}

	if s.open == nil {
		s.open = OpenALSA
	}

	return s
}

// Init opens the mixer and returns the device capabilities.
// A missing mixer is not an error; the volume controls become inert.
func (s *Sink) Init() (format.Caps, error) {
	slog.Info("initialising device", "device", s.opts.Device)

	if err := s.mixer.Close(); err != nil {
		slog.Warn("can't close mixer", "err", err)
	}

	s.mixer = s.openMixer(s.opts.Device, s.opts.Mixer1, s.opts.Mixer2)

	caps, err := s.queryCaps(s.opts.Device)
	if err != nil {
		return format.Caps{}, err
	}

	slog.Debug("device capabilities", "device", s.opts.Device, "channels", fmt.Sprintf("%d-%d", caps.MinChannels, caps.MaxChannels),
		"rates", fmt.Sprintf("%d-%d", caps.MinRate, caps.MaxRate), "formats", len(caps.Formats))

	return caps, nil
}

// Shutdown releases the mixer. The sink must be closed.
func (s *Sink) Shutdown() error {
	return s.mixer.Close()
}

// Open negotiates a stream with the device. The device may pick another rate, see Rate.
// Opening a sink that is not closed panics.
func (s *Sink) Open(params format.StreamParams) error {
	if s.state != StateClosed {
		panic(fmt.Sprintf("alsaout: Open on a sink in state %v", s.state))
	}

	if err := params.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	if _, ok := PcmFormat(params.Format); !ok {
		return fmt.Errorf("%w: format %v is not supported", ErrConfiguration, params.Format)
	}

	dev, err := s.open(s.opts.Device, params)
	if err != nil {
		if errors.Is(err, ErrConfiguration) {
			return err
		}

		return fmt.Errorf("%w: can't open %s: %w", ErrDevice, s.opts.Device, err)
	}

	period, buffer := dev.PeriodSize(), dev.BufferSize()
	if period <= 0 || period == buffer {
		_ = dev.Close()

		return fmt.Errorf("%w: can't use period equal to buffer size (%d frames)", ErrDevice, buffer)
	}

	s.dev = dev
	s.params = params
	s.params.Format = params.Format.Normalize()
	s.params.Rate = dev.Rate()
	s.frameSize = params.FrameSize()
	s.periodBytes = period * s.frameSize
	s.buf = make([]byte, max(bufferCapacity, 2*s.periodBytes))
	s.fill = 0
	s.state = StateOpen

	slog.Info("device opened", "device", s.opts.Device, "params", s.params.String(),
		"periodFrames", period, "bufferFrames", buffer)

	return nil
}

// Play buffers p and writes every whole period to the device. It returns the number of
// bytes accepted. A zero-frame write and EAGAIN are retried; any other unrecoverable write
// error aborts the stream with ErrHardwareFault.
func (s *Sink) Play(p []byte) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	accepted := 0
	for len(p) > 0 {
		n := copy(s.buf[s.fill:], p)
		s.fill += n
		accepted += n
		p = p[n:]

		if err := s.writePeriods(); err != nil {
			return accepted, err
		}
	}

	return accepted, nil
}

// writePeriods writes whole periods from the head of the buffer and moves the rest to the head.
func (s *Sink) writePeriods() error {
	off := 0
	defer func() {
		copy(s.buf, s.buf[off:s.fill])
		s.fill -= off
	}()

	for s.fill-off >= s.periodBytes {
		frames, err := s.dev.Write(s.buf[off : off+s.periodBytes])
		if err == nil {
			if frames == 0 {
				slog.Debug("device accepted no frames, retrying")

				continue
			}

			off += frames * s.frameSize

			continue
		}

		recErr := s.dev.Recover(err)
		switch {
		case recErr == nil:
			slog.Debug("recovered from write error", "err", err)
		case errors.Is(recErr, unix.EAGAIN):
			if _, waitErr := s.dev.Wait(waitTimeoutMs); waitErr != nil {
				slog.Debug("wait for device failed", "err", waitErr)
			}
		default:
			s.state = StateFailed
			slog.Error("can't recover from write error", "err", recErr)

			return fmt.Errorf("%w: %w", ErrHardwareFault, recErr)
		}
	}

	return nil
}

// BufferFill returns the estimated number of bytes queued in the device and not yet played.
func (s *Sink) BufferFill() int {
	if s.state != StateOpen {
		return 0
	}

	delay, err := s.dev.Delay()
	if err != nil {
		slog.Debug("can't get delay", "err", err)

		return 0
	}

	return max(delay, 0) * s.frameSize
}

// Reset drops everything queued in the device and in the sink buffer, as for a seek.
func (s *Sink) Reset() error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	s.fill = 0

	if err := s.dev.Drop(); err != nil {
		return fmt.Errorf("%w: can't drop: %w", ErrDevice, err)
	}

	if err := s.dev.Prepare(); err != nil {
		return fmt.Errorf("%w: can't prepare: %w", ErrDevice, err)
	}

	return nil
}

// Close pads buffered audio to a whole period with silence, writes it, waits for the device
// to play what it has queued and releases the device. Closing a closed sink does nothing.
func (s *Sink) Close() error {
	if s.state == StateClosed {
		return nil
	}

	var err error
	if s.state == StateOpen {
		err = s.drain()
	}

	if closeErr := s.dev.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("%w: %w", ErrDevice, closeErr))
	}

	s.dev = nil
	s.buf = nil
	s.fill = 0
	s.state = StateClosed

	slog.Info("device closed", "device", s.opts.Device)

	return err
}

// drain emits the buffered tail and sleeps for the device delay instead of draining
// through the driver.
func (s *Sink) drain() error {
	s.fill -= s.fill % s.frameSize

	if s.fill > 0 {
		s.params.Format.FillSilence(s.buf[s.fill:s.periodBytes])
		s.fill = s.periodBytes

		if err := s.writePeriods(); err != nil {
			return err
		}
	}

	delay, err := s.dev.Delay()
	if err != nil {
		slog.Debug("can't get delay", "err", err)

		return nil
	}

	if delay > 0 {
		wait := time.Duration(delay) * time.Second / time.Duration(s.params.Rate)
		slog.Debug("waiting for the device to play queued audio", "frames", delay, "wait", wait)
		s.sleep(wait)
	}

	return nil
}

// Rate returns the negotiated sample rate, 0 when closed.
func (s *Sink) Rate() int {
	if s.state == StateClosed {
		return 0
	}

	return s.params.Rate
}

// Params returns the negotiated stream parameters.
func (s *Sink) Params() format.StreamParams {
	return s.params
}

// State returns the lifecycle state.
func (s *Sink) State() State {
	return s.state
}

// ReadMixer returns the volume of the current mixer channel in percent.
func (s *Sink) ReadMixer() int {
	return s.mixer.Read()
}

// SetMixer sets the volume of the current mixer channel in percent.
func (s *Sink) SetMixer(percent int) {
	s.mixer.Set(percent)
}

// ToggleMixerChannel switches between the two mixer channels.
func (s *Sink) ToggleMixerChannel() {
	s.mixer.Toggle()
}

// MixerChannelName returns the name of the current mixer channel.
func (s *Sink) MixerChannelName() string {
	return s.mixer.ChannelName()
}

func (s *Sink) checkOpen() error {
	switch s.state {
	case StateClosed:
		return ErrNotOpen
	case StateFailed:
		return fmt.Errorf("%w: stream aborted", ErrHardwareFault)
	default:
		return nil
	}
}
