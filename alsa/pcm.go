package alsa

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Config encapsulates the hardware and software parameters of a playback stream.
// PeriodTime and BufferTime are requested bounds in microseconds. The driver picks the smallest
// period not below PeriodTime and the largest buffer not above BufferTime, and the negotiated
// sizes are written back into PeriodSize and PeriodCount.
type Config struct {
	Channels       uint32
	Rate           uint32
	Format         PcmFormat
	PeriodTime     uint32
	BufferTime     uint32
	PeriodSize     uint32
	PeriodCount    uint32
	StartThreshold uint32
	StopThreshold  uint32
	AvailMin       uint32
}

// PCM represents an open ALSA playback PCM device handle.
type PCM struct {
	file        *os.File
	config      Config
	flags       PcmFlag
	bufferSize  uint32 // In frames
	syncPointer *sndPcmSyncPtr
	boundary    sndPcmUframesT
	xruns       int
}

// ParseName resolves a device name of the form "hw:C,D" into card and device numbers.
// C may be a card index or the card id listed in /proc/asound/cards; "default" is hw:0,0.
func ParseName(name string) (card, device uint, err error) {
	if name == "default" {
		return 0, 0, nil
	}

	if !strings.HasPrefix(name, "hw:") {
		return 0, 0, fmt.Errorf("invalid PCM name format %q: missing 'hw:' prefix", name)
	}

	parts := strings.Split(strings.TrimPrefix(name, "hw:"), ",")
	if len(parts) > 2 || parts[0] == "" {
		return 0, 0, fmt.Errorf("invalid PCM name format %q: expected 'hw:card,device'", name)
	}

	if c, convErr := strconv.ParseUint(parts[0], 10, 32); convErr == nil {
		card = uint(c)
	} else {
		id, lookupErr := CardByID(parts[0])
		if lookupErr != nil {
			return 0, 0, fmt.Errorf("resolving card %q: %w", parts[0], lookupErr)
		}

		card = uint(id)
	}

	if len(parts) == 2 {
		d, convErr := strconv.ParseUint(parts[1], 10, 32)
		if convErr != nil {
			return 0, 0, fmt.Errorf("invalid device number '%s': %w", parts[1], convErr)
		}

		device = uint(d)
	}

	return card, device, nil
}

// PcmOpenByName opens a playback PCM by its name, see ParseName.
func PcmOpenByName(name string, flags PcmFlag, config *Config) (*PCM, error) {
	card, device, err := ParseName(name)
	if err != nil {
		return nil, err
	}

	return PcmOpen(card, device, flags, config)
}

// PcmOpen opens an ALSA playback PCM device and configures it according to the provided parameters.
// Note: This implementation does not support the ALSA plugin architecture and will only open direct hardware PCM devices (e.g., /dev/snd/pcmC0D0p).
func PcmOpen(card, device uint, flags PcmFlag, config *Config) (*PCM, error) {
	path := pcmPath(card, device)

	// Always open non-blocking to avoid getting stuck
	// if the device is in use, then clear the flag if blocking I/O was requested.
	file, err := os.OpenFile(path, os.O_RDWR|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open PCM device %s: %w", path, err)
	}

	if (flags & PCM_NONBLOCK) == 0 {
		currentFlags, err := unix.FcntlInt(file.Fd(), unix.F_GETFL, 0)
		if err != nil {
			_ = file.Close()

			return nil, fmt.Errorf("fcntl F_GETFL for %s failed: %w", path, err)
		}
		if _, err = unix.FcntlInt(file.Fd(), unix.F_SETFL, currentFlags&^syscall.O_NONBLOCK); err != nil {
			_ = file.Close()

			return nil, fmt.Errorf("failed to set blocking mode on %s: %w", path, err)
		}
	}

	var info sndPcmInfo
	if err := ioctl(file.Fd(), SNDRV_PCM_IOCTL_INFO, uintptr(unsafe.Pointer(&info))); err != nil {
		_ = file.Close()

		return nil, fmt.Errorf("ioctl INFO failed: %w", err)
	}

	pcm := &PCM{
		file:        file,
		flags:       flags,
		syncPointer: &sndPcmSyncPtr{},
	}

	if err := pcm.SetConfig(config); err != nil {
		_ = pcm.Close()

		return nil, fmt.Errorf("failed to set PCM config: %w", err)
	}

	return pcm, nil
}

func pcmPath(card, device uint) string {
	return fmt.Sprintf("/dev/snd/pcmC%dD%dp", card, device)
}

// IsReady checks if the PCM handle is valid.
func (p *PCM) IsReady() bool {
	return p != nil && p.file != nil
}

// Close closes the PCM device handle and releases all associated resources.
func (p *PCM) Close() error {
	if !p.IsReady() {
		return nil
	}

	err := p.file.Close()
	p.bufferSize = 0
	p.file = nil
	p.syncPointer = nil

	return err
}

// Config returns a copy of the PCM's current configuration.
func (p *PCM) Config() Config {
	return p.config
}

// BufferSize returns the PCM's total buffer size in frames.
func (p *PCM) BufferSize() uint32 {
	return p.bufferSize
}

// PeriodSize returns the number of frames per period.
func (p *PCM) PeriodSize() uint32 {
	return p.config.PeriodSize
}

// PeriodCount returns the number of periods in the buffer.
func (p *PCM) PeriodCount() uint32 {
	return p.config.PeriodCount
}

// Channels returns the number of channels for the PCM stream.
func (p *PCM) Channels() uint32 {
	return p.config.Channels
}

// Rate returns the sample rate of the PCM stream in Hz.
func (p *PCM) Rate() uint32 {
	return p.config.Rate
}

// Format returns the sample format of the PCM stream.
func (p *PCM) Format() PcmFormat {
	return p.config.Format
}

// Xruns returns the number of buffer underruns that have been recovered.
func (p *PCM) Xruns() int {
	return p.xruns
}

// FrameSize returns the size of a single frame in bytes.
// A frame contains one sample for each channel.
func (p *PCM) FrameSize() uint32 {
	return p.config.Channels * (PcmFormatToBits(p.config.Format) / 8)
}

// PeriodTime returns the duration of a single period.
func (p *PCM) PeriodTime() time.Duration {
	rate := p.Rate()
	if rate == 0 {
		return 0
	}

	ns := (1e9 * float64(p.PeriodSize())) / float64(rate)

	return time.Duration(ns)
}

// SetConfig sets the hardware and software parameters for the PCM device.
// This function should be called before the stream is started.
func (p *PCM) SetConfig(config *Config) error {
	if config == nil {
		config = &Config{
			Channels:   2,
			Rate:       48000,
			Format:     SNDRV_PCM_FORMAT_S16_LE,
			PeriodTime: 75000,
			BufferTime: 300000,
		}
	}

	p.config = *config

	hwParams := &sndPcmHwParams{}
	paramInit(hwParams)

	paramSetMask(hwParams, SNDRV_PCM_HW_PARAM_ACCESS, SNDRV_PCM_ACCESS_RW_INTERLEAVED)
	paramSetMask(hwParams, SNDRV_PCM_HW_PARAM_FORMAT, uint32(config.Format))
	paramSetInt(hwParams, SNDRV_PCM_HW_PARAM_CHANNELS, config.Channels)
	paramSetInt(hwParams, SNDRV_PCM_HW_PARAM_RATE, config.Rate)

	if config.PeriodTime > 0 {
		paramSetMin(hwParams, SNDRV_PCM_HW_PARAM_PERIOD_TIME, config.PeriodTime)
	}

	if config.BufferTime > 0 {
		paramSetMax(hwParams, SNDRV_PCM_HW_PARAM_BUFFER_TIME, config.BufferTime)
	}

	if config.PeriodSize > 0 {
		paramSetMin(hwParams, SNDRV_PCM_HW_PARAM_PERIOD_SIZE, config.PeriodSize)
	}

	if config.PeriodCount > 0 {
		paramSetInt(hwParams, SNDRV_PCM_HW_PARAM_PERIODS, config.PeriodCount)
	}

	if err := ioctl(p.file.Fd(), SNDRV_PCM_IOCTL_HW_PARAMS, uintptr(unsafe.Pointer(hwParams))); err != nil {
		return fmt.Errorf("ioctl HW_PARAMS failed: %w", err)
	}

	// Update our config with the refined parameters from the driver.
	p.config.PeriodSize = paramGetInt(hwParams, SNDRV_PCM_HW_PARAM_PERIOD_SIZE)
	p.config.PeriodCount = paramGetInt(hwParams, SNDRV_PCM_HW_PARAM_PERIODS)
	p.config.PeriodTime = paramGetInt(hwParams, SNDRV_PCM_HW_PARAM_PERIOD_TIME)
	p.config.BufferTime = paramGetInt(hwParams, SNDRV_PCM_HW_PARAM_BUFFER_TIME)
	p.config.Channels = paramGetInt(hwParams, SNDRV_PCM_HW_PARAM_CHANNELS)
	p.config.Rate = paramGetInt(hwParams, SNDRV_PCM_HW_PARAM_RATE)
	p.bufferSize = paramGetInt(hwParams, SNDRV_PCM_HW_PARAM_BUFFER_SIZE)

	if p.config.Channels == 0 || p.config.Rate == 0 || p.config.PeriodSize == 0 || p.bufferSize == 0 {
		return fmt.Errorf("driver finalized invalid PCM configuration (Channels=%d, Rate=%d, PeriodSize=%d, BufferSize=%d)",
			p.config.Channels, p.config.Rate, p.config.PeriodSize, p.bufferSize)
	}

	swParams := &sndPcmSwParams{}
	swParams.TstampMode = 1 // SNDRV_PCM_TSTAMP_ENABLE
	swParams.PeriodStep = 1

	if p.config.AvailMin == 0 {
		p.config.AvailMin = p.config.PeriodSize
	}
	swParams.AvailMin = sndPcmUframesT(p.config.AvailMin)

	if p.config.StartThreshold == 0 {
		p.config.StartThreshold = p.config.PeriodSize
	}
	swParams.StartThreshold = sndPcmUframesT(p.config.StartThreshold)

	if p.config.StopThreshold == 0 {
		p.config.StopThreshold = p.bufferSize
	}
	swParams.StopThreshold = sndPcmUframesT(p.config.StopThreshold)

	swParams.XferAlign = 1

	if err := ioctl(p.file.Fd(), SNDRV_PCM_IOCTL_SW_PARAMS, uintptr(unsafe.Pointer(swParams))); err != nil {
		return fmt.Errorf("ioctl SW_PARAMS (write) failed: %w", err)
	}

	p.boundary = swParams.Boundary

	return nil
}

// Prepare readies the PCM device for I/O operations.
// This is typically used to recover from an XRUN.
func (p *PCM) Prepare() error {
	if err := ioctl(p.file.Fd(), SNDRV_PCM_IOCTL_PREPARE, 0); err != nil {
		return fmt.Errorf("ioctl PREPARE failed: %w", err)
	}

	return nil
}

// Drop abruptly stops the PCM stream, discarding any pending frames.
// The stream is left in the SETUP state and must be prepared again before writing.
func (p *PCM) Drop() error {
	if err := ioctl(p.file.Fd(), SNDRV_PCM_IOCTL_DROP, 0); err != nil {
		return fmt.Errorf("ioctl DROP failed: %w", err)
	}

	return nil
}

// Resume resumes a suspended PCM stream (system suspend, when state is SNDRV_PCM_STATE_SUSPENDED).
func (p *PCM) Resume() error {
	if err := ioctl(p.file.Fd(), SNDRV_PCM_IOCTL_RESUME, 0); err != nil {
		return fmt.Errorf("ioctl RESUME failed: %w", err)
	}

	return nil
}

// Delay returns the current delay for the PCM stream in frames.
// The delay is the time from now until a frame written now is audible and may be negative after an underrun.
func (p *PCM) Delay() (int, error) {
	if !p.IsReady() {
		return 0, fmt.Errorf("PCM handle is not valid")
	}

	var delay sndPcmSframesT
	if err := ioctl(p.file.Fd(), SNDRV_PCM_IOCTL_DELAY, uintptr(unsafe.Pointer(&delay))); err != nil {
		return 0, fmt.Errorf("ioctl DELAY failed: %w", err)
	}

	return int(delay), nil
}

// Wait waits for the PCM to become ready for I/O or until a timeout occurs.
// Returns true if the device is ready, false on timeout.
func (p *PCM) Wait(timeoutMs int) (bool, error) {
	if !p.IsReady() {
		return false, fmt.Errorf("PCM handle not ready")
	}

	pfd := []unix.PollFd{
		{
			Fd:     int32(p.file.Fd()),
			Events: unix.POLLOUT | unix.POLLERR | unix.POLLNVAL,
		},
	}

	var n int
	var err error

	// Loop to handle EINTR (interrupted system call)
	for {
		n, err = unix.Poll(pfd, timeoutMs)
		if !errors.Is(err, syscall.EINTR) {
			break
		}
	}

	if err != nil {
		return false, err
	}

	if n == 0 {
		return false, nil
	}

	revents := pfd[0].Revents
	if (revents & (unix.POLLERR | unix.POLLNVAL)) != 0 {
		switch p.State() {
		case SNDRV_PCM_STATE_XRUN:
			return false, fmt.Errorf("stream xrun: %w", syscall.EPIPE)
		case SNDRV_PCM_STATE_SUSPENDED:
			return false, fmt.Errorf("stream suspended: %w", syscall.ESTRPIPE)
		case SNDRV_PCM_STATE_DISCONNECTED:
			return false, fmt.Errorf("device disconnected: %w", syscall.ENODEV)
		default:
			return false, fmt.Errorf("input/output error: %w", syscall.EIO)
		}
	}

	return true, nil
}

// State returns the current state of the PCM stream as reported by the SYNC_PTR ioctl.
func (p *PCM) State() PcmState {
	if err := p.syncPtr(SNDRV_PCM_SYNC_PTR_HWSYNC | SNDRV_PCM_SYNC_PTR_APPL | SNDRV_PCM_SYNC_PTR_AVAIL_MIN); err != nil {
		return SNDRV_PCM_STATE_DISCONNECTED
	}

	return PcmState(p.syncPointer.S.State)
}

// Recover brings the stream back into a writable state after a failed write.
// EPIPE (underrun) prepares the stream again, ESTRPIPE (suspend) resumes it or prepares it when
// the driver cannot resume. Any other error, including EAGAIN, is returned unchanged.
func (p *PCM) Recover(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, syscall.EPIPE):
		if (p.flags & PCM_NORESTART) != 0 {
			return fmt.Errorf("underrun with PCM_NORESTART: %w", err)
		}

		p.xruns++
		if prepErr := p.Prepare(); prepErr != nil {
			return fmt.Errorf("recovery from underrun failed: %w", prepErr)
		}

		return nil
	case errors.Is(err, syscall.ESTRPIPE):
		for {
			resErr := p.Resume()
			if errors.Is(resErr, syscall.EAGAIN) {
				time.Sleep(time.Second)

				continue
			}

			if resErr == nil {
				return nil
			}

			break
		}

		if prepErr := p.Prepare(); prepErr != nil {
			return fmt.Errorf("recovery from suspend failed: %w", prepErr)
		}

		return nil
	default:
		return err
	}
}

// syncPtr synchronizes the application and hardware pointers with the kernel.
func (p *PCM) syncPtr(flags uint32) error {
	if !p.IsReady() || p.syncPointer == nil {
		return fmt.Errorf("sync pointer not initialized")
	}

	p.syncPointer.Flags = flags

	return ioctl(p.file.Fd(), SNDRV_PCM_IOCTL_SYNC_PTR, uintptr(unsafe.Pointer(p.syncPointer)))
}

// PcmFormatToBits returns the number of bits per sample for a given format.
// This reflects the space occupied in memory, so 24-bit formats in 32-bit containers return 32.
func PcmFormatToBits(f PcmFormat) uint32 {
	switch f {
	case SNDRV_PCM_FORMAT_S32_LE, SNDRV_PCM_FORMAT_S32_BE, SNDRV_PCM_FORMAT_U32_LE, SNDRV_PCM_FORMAT_U32_BE,
		SNDRV_PCM_FORMAT_FLOAT_LE, SNDRV_PCM_FORMAT_FLOAT_BE,
		SNDRV_PCM_FORMAT_S24_LE, SNDRV_PCM_FORMAT_S24_BE, SNDRV_PCM_FORMAT_U24_LE, SNDRV_PCM_FORMAT_U24_BE:
		return 32
	case SNDRV_PCM_FORMAT_S24_3LE, SNDRV_PCM_FORMAT_S24_3BE, SNDRV_PCM_FORMAT_U24_3LE, SNDRV_PCM_FORMAT_U24_3BE:
		return 24
	case SNDRV_PCM_FORMAT_S16_LE, SNDRV_PCM_FORMAT_S16_BE, SNDRV_PCM_FORMAT_U16_LE, SNDRV_PCM_FORMAT_U16_BE:
		return 16
	case SNDRV_PCM_FORMAT_S8, SNDRV_PCM_FORMAT_U8:
		return 8
	default:
		return 0
	}
}

// PcmBytesToFrames converts a number of bytes to the corresponding number of frames.
func PcmBytesToFrames(p *PCM, bytes uint32) uint32 {
	if p == nil {
		return 0
	}

	frameSize := p.FrameSize()
	if frameSize == 0 {
		return 0
	}

	return bytes / frameSize
}
