//go:build linux && (386 || arm)

package alsa

// sndPcmUframesT is an unsigned long in the ALSA headers.
// On 32-bit architectures, this is a 32-bit unsigned integer.
type sndPcmUframesT = uint32

// sndPcmSframesT is a signed long in the ALSA headers.
type sndPcmSframesT = int32

// clong is a type alias for the C `long` type on 32-bit systems.
type clong = int32

// kernelTimespec is the 32-bit struct timespec used by the legacy 32-bit ABI.
type kernelTimespec struct {
	Sec  int32
	Nsec int32
}

// sndXferi is for interleaved read/write operations.
type sndXferi struct {
	Result sndPcmSframesT
	Buf    uintptr
	Frames sndPcmUframesT
}

// sndPcmHwParams contains hardware parameters for a PCM device.
type sndPcmHwParams struct {
	Flags     uint32
	Masks     [3]sndMask
	Mres      [5]sndMask
	Intervals [12]sndInterval
	Ires      [9]sndInterval
	Rmask     uint32
	Cmask     uint32
	Info      uint32
	Msbits    uint32
	RateNum   uint32
	RateDen   uint32
	FifoSize  sndPcmUframesT
	Reserved  [64]byte
}

// sndPcmMmapStatus mirrors the status half of the SYNC_PTR structure.
type sndPcmMmapStatus struct {
	State          int32 // PcmState
	Pad1           int32
	HwPtr          sndPcmUframesT
	Tstamp         kernelTimespec
	SuspendedState int32 // PcmState
	AudioTstamp    kernelTimespec
}

// sndPcmMmapControl mirrors the control half of the SYNC_PTR structure.
type sndPcmMmapControl struct {
	ApplPtr  sndPcmUframesT
	AvailMin sndPcmUframesT
}

// sndCtlElemValue holds the value of a control element.
type sndCtlElemValue struct {
	Id sndCtlElemId
	// This represents the `unsigned int indirect:1;` field from the C struct.
	_ [4]byte
	// Represents a C union. The largest member on 32-bit is 'long long Value[64]' (512 bytes).
	Value    [512]byte
	Reserved [128]byte
}

// sndCtlElemList is used to enumerate control elements.
type sndCtlElemList struct {
	Offset   uint32
	Space    uint32
	Used     uint32
	Count    uint32
	Pids     uintptr // *sndCtlElemId
	Reserved [50]byte
}

// sndPcmSyncPtr is used to synchronize hardware and application pointers via ioctl.
// This definition is for 32-bit systems.
type sndPcmSyncPtr struct {
	Flags uint32
	S     struct {
		sndPcmMmapStatus
		_ [36]byte // Padding to make the union 64 bytes
	}
	C struct {
		sndPcmMmapControl
		_ [56]byte // Padding to make the union 64 bytes
	}
}

// sndPcmSwParams contains software parameters for a PCM device for 32-bit systems.
type sndPcmSwParams struct {
	TstampMode       uint32
	PeriodStep       uint32
	SleepMin         uint32
	AvailMin         sndPcmUframesT
	XferAlign        sndPcmUframesT
	StartThreshold   sndPcmUframesT
	StopThreshold    sndPcmUframesT
	SilenceThreshold sndPcmUframesT
	SilenceSize      sndPcmUframesT
	Boundary         sndPcmUframesT
	Reserved         [64]byte
}
