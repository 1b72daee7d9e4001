package alsa

import (
	"fmt"
	"runtime"
	"unsafe"
)

// WriteI makes one attempt to transfer interleaved frames from data to the playback device.
// It returns the number of frames the driver accepted, which may be less than len(data)/FrameSize().
// Errors are returned as the raw errno (wrapped), so callers can pass them to Recover.
func (p *PCM) WriteI(data []byte) (int, error) {
	if !p.IsReady() {
		return 0, fmt.Errorf("PCM handle is not valid")
	}

	frames := PcmBytesToFrames(p, uint32(len(data)))
	if frames == 0 {
		return 0, nil
	}

	defer runtime.KeepAlive(data)

	if p.State() == SNDRV_PCM_STATE_SETUP {
		if err := p.Prepare(); err != nil {
			return 0, err
		}
	}

	xfer := sndXferi{
		Frames: sndPcmUframesT(frames),
		Buf:    uintptr(unsafe.Pointer(&data[0])),
	}

	if err := ioctl(p.file.Fd(), SNDRV_PCM_IOCTL_WRITEI_FRAMES, uintptr(unsafe.Pointer(&xfer))); err != nil {
		return 0, fmt.Errorf("ioctl WRITEI_FRAMES failed: %w", err)
	}

	return int(xfer.Result), nil
}
