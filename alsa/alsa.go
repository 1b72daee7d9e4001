// Package alsa provides pure-Go access to ALSA playback PCM and control devices through the kernel ioctl interface.
// It does not go through alsa-lib, so only direct hardware devices (/dev/snd/pcmC*D*p, /dev/snd/controlC*) are supported.
package alsa

// PcmFormat defines the sample format for a PCM stream.
// These values correspond to the SNDRV_PCM_FORMAT_* constants in the ALSA kernel headers.
type PcmFormat int32

const (
	SNDRV_PCM_FORMAT_INVALID  PcmFormat = -1
	SNDRV_PCM_FORMAT_S8       PcmFormat = 0
	SNDRV_PCM_FORMAT_U8       PcmFormat = 1
	SNDRV_PCM_FORMAT_S16_LE   PcmFormat = 2
	SNDRV_PCM_FORMAT_S16_BE   PcmFormat = 3
	SNDRV_PCM_FORMAT_U16_LE   PcmFormat = 4
	SNDRV_PCM_FORMAT_U16_BE   PcmFormat = 5
	SNDRV_PCM_FORMAT_S24_LE   PcmFormat = 6
	SNDRV_PCM_FORMAT_S24_BE   PcmFormat = 7
	SNDRV_PCM_FORMAT_U24_LE   PcmFormat = 8
	SNDRV_PCM_FORMAT_U24_BE   PcmFormat = 9
	SNDRV_PCM_FORMAT_S32_LE   PcmFormat = 10
	SNDRV_PCM_FORMAT_S32_BE   PcmFormat = 11
	SNDRV_PCM_FORMAT_U32_LE   PcmFormat = 12
	SNDRV_PCM_FORMAT_U32_BE   PcmFormat = 13
	SNDRV_PCM_FORMAT_FLOAT_LE PcmFormat = 14
	SNDRV_PCM_FORMAT_FLOAT_BE PcmFormat = 15
	SNDRV_PCM_FORMAT_S24_3LE  PcmFormat = 32
	SNDRV_PCM_FORMAT_S24_3BE  PcmFormat = 33
	SNDRV_PCM_FORMAT_U24_3LE  PcmFormat = 34
	SNDRV_PCM_FORMAT_U24_3BE  PcmFormat = 35
)

// PcmState defines the current state of a PCM stream.
// These values correspond to the SNDRV_PCM_STATE_* constants.
type PcmState int32

const (
	SNDRV_PCM_STATE_OPEN         PcmState = 0 // Stream is open.
	SNDRV_PCM_STATE_SETUP        PcmState = 1 // Stream has a setup.
	SNDRV_PCM_STATE_PREPARED     PcmState = 2 // Stream is ready to start.
	SNDRV_PCM_STATE_RUNNING      PcmState = 3 // Stream is running.
	SNDRV_PCM_STATE_XRUN         PcmState = 4 // Stream reached an underrun.
	SNDRV_PCM_STATE_DRAINING     PcmState = 5 // Stream is draining.
	SNDRV_PCM_STATE_PAUSED       PcmState = 6 // Stream is paused.
	SNDRV_PCM_STATE_SUSPENDED    PcmState = 7 // Hardware is suspended.
	SNDRV_PCM_STATE_DISCONNECTED PcmState = 8 // Hardware is disconnected.
)

// PcmStateNames provides human-readable names for PCM states.
var PcmStateNames = map[PcmState]string{
	SNDRV_PCM_STATE_OPEN:         "OPEN",
	SNDRV_PCM_STATE_SETUP:        "SETUP",
	SNDRV_PCM_STATE_PREPARED:     "PREPARED",
	SNDRV_PCM_STATE_RUNNING:      "RUNNING",
	SNDRV_PCM_STATE_XRUN:         "XRUN",
	SNDRV_PCM_STATE_DRAINING:     "DRAINING",
	SNDRV_PCM_STATE_PAUSED:       "PAUSED",
	SNDRV_PCM_STATE_SUSPENDED:    "SUSPENDED",
	SNDRV_PCM_STATE_DISCONNECTED: "DISCONNECTED",
}

// PcmFlag defines flags for opening a PCM stream.
type PcmFlag uint32

const (
	// PCM_OUT specifies a playback stream.
	PCM_OUT PcmFlag = 0
	// PCM_NONBLOCK specifies that I/O operations should not block.
	PCM_NONBLOCK PcmFlag = 0x00000010
	// PCM_NORESTART specifies that Write should not recover the stream after an underrun.
	PCM_NORESTART PcmFlag = 0x00000002
)

// MixerCtlType defines the value type of mixer control.
type MixerCtlType int32

const (
	SNDRV_CTL_ELEM_TYPE_NONE       MixerCtlType = 0
	SNDRV_CTL_ELEM_TYPE_BOOLEAN    MixerCtlType = 1
	SNDRV_CTL_ELEM_TYPE_INTEGER    MixerCtlType = 2
	SNDRV_CTL_ELEM_TYPE_ENUMERATED MixerCtlType = 3
	SNDRV_CTL_ELEM_TYPE_BYTES      MixerCtlType = 4
	SNDRV_CTL_ELEM_TYPE_IEC958     MixerCtlType = 5
	SNDRV_CTL_ELEM_TYPE_INTEGER64  MixerCtlType = 6
	SNDRV_CTL_ELEM_TYPE_UNKNOWN    MixerCtlType = -1
)

var mixerCtlTypeNames = map[MixerCtlType]string{
	SNDRV_CTL_ELEM_TYPE_NONE:       "NONE",
	SNDRV_CTL_ELEM_TYPE_BOOLEAN:    "BOOL",
	SNDRV_CTL_ELEM_TYPE_INTEGER:    "INT",
	SNDRV_CTL_ELEM_TYPE_ENUMERATED: "ENUM",
	SNDRV_CTL_ELEM_TYPE_BYTES:      "BYTE",
	SNDRV_CTL_ELEM_TYPE_IEC958:     "IEC958",
	SNDRV_CTL_ELEM_TYPE_INTEGER64:  "INT64",
}

// CtlAccessFlag defines the access permissions for a mixer control.
type CtlAccessFlag uint32

const (
	// If set, the control is readable.
	SNDRV_CTL_ELEM_ACCESS_READ CtlAccessFlag = 1 << 0
	// If set, the control is writable.
	SNDRV_CTL_ELEM_ACCESS_WRITE CtlAccessFlag = 1 << 1
	// If set, the control exposes TLV metadata (dB information) for reading.
	SNDRV_CTL_ELEM_ACCESS_TLV_READ CtlAccessFlag = 1 << 4
)

// TLV types describing the dB mapping of an integer control.
const (
	SNDRV_CTL_TLVT_CONTAINER      = 0
	SNDRV_CTL_TLVT_DB_SCALE       = 1
	SNDRV_CTL_TLVT_DB_LINEAR      = 2
	SNDRV_CTL_TLVT_DB_RANGE       = 3
	SNDRV_CTL_TLVT_DB_MINMAX      = 4
	SNDRV_CTL_TLVT_DB_MINMAX_MUTE = 5

	// SNDRV_CTL_TLVD_DB_SCALE_MUTE is the mute bit inside the DB_SCALE step word.
	SNDRV_CTL_TLVD_DB_SCALE_MUTE = 0x10000
	// SNDRV_CTL_TLVD_DB_GAIN_MUTE is the dB value reported for a muted minimum.
	SNDRV_CTL_TLVD_DB_GAIN_MUTE = -9999999
)

// Constants for the bitfields within snd_interval.flags to match C enum.
const (
	SNDRV_PCM_INTERVAL_OPENMIN = 1 << 0
	SNDRV_PCM_INTERVAL_OPENMAX = 1 << 1
	SNDRV_PCM_INTERVAL_INTEGER = 1 << 2
	SNDRV_PCM_INTERVAL_EMPTY   = 1 << 3
)

const (
	SNDRV_PCM_SYNC_PTR_HWSYNC    = 1 << 0
	SNDRV_PCM_SYNC_PTR_APPL      = 1 << 1
	SNDRV_PCM_SYNC_PTR_AVAIL_MIN = 1 << 2
)

// PcmAccess defines the type of PCM access.
type PcmAccess int32

const (
	SNDRV_PCM_ACCESS_MMAP_INTERLEAVED    = 0
	SNDRV_PCM_ACCESS_MMAP_NONINTERLEAVED = 1
	SNDRV_PCM_ACCESS_MMAP_COMPLEX        = 2
	SNDRV_PCM_ACCESS_RW_INTERLEAVED      = 3
	SNDRV_PCM_ACCESS_RW_NONINTERLEAVED   = 4
)

// MixerEventType defines the type of event generated by the mixer.
type MixerEventType uint32

const (
	SNDRV_CTL_EVENT_ELEM = 0

	// Indicates that a control element's value has changed.
	SNDRV_CTL_EVENT_MASK_VALUE MixerEventType = 1 << 0
	// Indicates that a control element's metadata (e.g., range) has changed.
	SNDRV_CTL_EVENT_MASK_INFO MixerEventType = 1 << 1
	// Indicates that a control element has been added.
	SNDRV_CTL_EVENT_MASK_ADD MixerEventType = 1 << 2
	// Indicates a control element has been removed.
	SNDRV_CTL_EVENT_MASK_REMOVE MixerEventType = 1 << 3
)

// MixerEvent represents a notification from the ALSA control interface.
type MixerEvent struct {
	Type      MixerEventType
	ControlID uint32 // The numid of the control that changed.
}

// PcmParam identifies a hardware parameter for a PCM device.
// These values correspond to the SNDRV_PCM_HW_PARAM_* constants.
type PcmParam int

const (
	SNDRV_PCM_HW_PARAM_ACCESS       PcmParam = 0
	SNDRV_PCM_HW_PARAM_FORMAT       PcmParam = 1
	SNDRV_PCM_HW_PARAM_SUBFORMAT    PcmParam = 2
	SNDRV_PCM_HW_PARAM_SAMPLE_BITS  PcmParam = 8
	SNDRV_PCM_HW_PARAM_FRAME_BITS   PcmParam = 9
	SNDRV_PCM_HW_PARAM_CHANNELS     PcmParam = 10
	SNDRV_PCM_HW_PARAM_RATE         PcmParam = 11
	SNDRV_PCM_HW_PARAM_PERIOD_TIME  PcmParam = 12
	SNDRV_PCM_HW_PARAM_PERIOD_SIZE  PcmParam = 13
	SNDRV_PCM_HW_PARAM_PERIOD_BYTES PcmParam = 14
	SNDRV_PCM_HW_PARAM_PERIODS      PcmParam = 15
	SNDRV_PCM_HW_PARAM_BUFFER_TIME  PcmParam = 16
	SNDRV_PCM_HW_PARAM_BUFFER_SIZE  PcmParam = 17
	SNDRV_PCM_HW_PARAM_BUFFER_BYTES PcmParam = 18
	SNDRV_PCM_HW_PARAM_TICK_TIME    PcmParam = 19

	paramFirstMask     = SNDRV_PCM_HW_PARAM_ACCESS
	paramLastMask      = SNDRV_PCM_HW_PARAM_SUBFORMAT
	paramFirstInterval = SNDRV_PCM_HW_PARAM_SAMPLE_BITS
	paramLastInterval  = SNDRV_PCM_HW_PARAM_TICK_TIME
)

// PcmParamMask represents a bitmask for a PCM hardware parameter.
// It allows checking which specific capabilities (e.g., formats) are supported.
type PcmParamMask struct {
	bits [8]uint32 // Corresponds to sndMask->bits
}

// Test checks if a specific bit in the mask is set.
func (m *PcmParamMask) Test(bit uint) bool {
	if bit >= 256 { // SNDRV_MASK_MAX
		return false
	}

	element := bit >> 5             // bit / 32
	mask := uint32(1 << (bit & 31)) // bit % 32

	return (m.bits[element] & mask) != 0
}

// PcmParamFormatNames provides human-readable names for PCM formats.
var PcmParamFormatNames = map[PcmFormat]string{
	SNDRV_PCM_FORMAT_S8:       "S8",
	SNDRV_PCM_FORMAT_U8:       "U8",
	SNDRV_PCM_FORMAT_S16_LE:   "S16_LE",
	SNDRV_PCM_FORMAT_S16_BE:   "S16_BE",
	SNDRV_PCM_FORMAT_U16_LE:   "U16_LE",
	SNDRV_PCM_FORMAT_U16_BE:   "U16_BE",
	SNDRV_PCM_FORMAT_S24_LE:   "S24_LE",
	SNDRV_PCM_FORMAT_S24_BE:   "S24_BE",
	SNDRV_PCM_FORMAT_U24_LE:   "U24_LE",
	SNDRV_PCM_FORMAT_U24_BE:   "U24_BE",
	SNDRV_PCM_FORMAT_S32_LE:   "S32_LE",
	SNDRV_PCM_FORMAT_S32_BE:   "S32_BE",
	SNDRV_PCM_FORMAT_U32_LE:   "U32_LE",
	SNDRV_PCM_FORMAT_U32_BE:   "U32_BE",
	SNDRV_PCM_FORMAT_FLOAT_LE: "FLOAT_LE",
	SNDRV_PCM_FORMAT_FLOAT_BE: "FLOAT_BE",
	SNDRV_PCM_FORMAT_S24_3LE:  "S24_3LE",
	SNDRV_PCM_FORMAT_S24_3BE:  "S24_3BE",
	SNDRV_PCM_FORMAT_U24_3LE:  "U24_3LE",
	SNDRV_PCM_FORMAT_U24_3BE:  "U24_3BE",
}

// PcmParamAccessNames provides human-readable names for PCM access types.
// The index corresponds to the SNDRV_PCM_ACCESS_* value.
var PcmParamAccessNames = []string{
	"MMAP_INTERLEAVED",
	"MMAP_NONINTERLEAVED",
	"MMAP_COMPLEX",
	"RW_INTERLEAVED",
	"RW_NONINTERLEAVED",
}
