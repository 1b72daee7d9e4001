package alsa

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"syscall"
	"unsafe"
)

// PcmParams holds a refined hardware parameter space of a playback PCM device.
type PcmParams struct {
	params *sndPcmHwParams
}

// PcmParamsGetRefined queries the hardware parameters for a given playback PCM device to discover its range of capabilities.
// This function initializes the parameters, applies the constraints from config (Format unless it is
// SNDRV_PCM_FORMAT_INVALID, Channels and Rate when non-zero), and then uses the SNDRV_PCM_IOCTL_HW_REFINE ioctl to ask the kernel to restrict
// the ranges to what the hardware actually supports. Access is always restricted to RW_INTERLEAVED.
func PcmParamsGetRefined(card, device uint, config *Config) (*PcmParams, error) {
	path := pcmPath(card, device)

	// Use O_NONBLOCK on open to avoid getting stuck
	file, err := os.OpenFile(path, os.O_RDWR|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open PCM device %s for query: %w", path, err)
	}
	defer file.Close()

	hwParams := &sndPcmHwParams{}
	paramInit(hwParams)
	paramSetMask(hwParams, SNDRV_PCM_HW_PARAM_ACCESS, SNDRV_PCM_ACCESS_RW_INTERLEAVED)

	if config != nil {
		if config.Format != SNDRV_PCM_FORMAT_INVALID {
			paramSetMask(hwParams, SNDRV_PCM_HW_PARAM_FORMAT, uint32(config.Format))
		}

		if config.Channels > 0 {
			paramSetInt(hwParams, SNDRV_PCM_HW_PARAM_CHANNELS, config.Channels)
		}

		if config.Rate > 0 {
			paramSetInt(hwParams, SNDRV_PCM_HW_PARAM_RATE, config.Rate)
		}
	}

	if err := ioctl(file.Fd(), SNDRV_PCM_IOCTL_HW_REFINE, uintptr(unsafe.Pointer(hwParams))); err != nil {
		return nil, fmt.Errorf("ioctl HW_REFINE failed: %w", err)
	}

	return &PcmParams{params: hwParams}, nil
}

// RangeMin returns the minimum value for an interval parameter.
func (pp *PcmParams) RangeMin(param PcmParam) (uint32, error) {
	if pp == nil || pp.params == nil {
		return 0, fmt.Errorf("params not initialized")
	}

	if param < paramFirstInterval || param > paramLastInterval {
		return 0, fmt.Errorf("parameter %v is not an interval type", param)
	}

	return pp.params.Intervals[param-paramFirstInterval].MinVal, nil
}

// RangeMax returns the maximum value for an interval parameter.
func (pp *PcmParams) RangeMax(param PcmParam) (uint32, error) {
	if pp == nil || pp.params == nil {
		return 0, fmt.Errorf("params not initialized")
	}

	if param < paramFirstInterval || param > paramLastInterval {
		return 0, fmt.Errorf("parameter %v is not an interval type", param)
	}

	return pp.params.Intervals[param-paramFirstInterval].MaxVal, nil
}

// Mask returns the bitmask for a mask-type parameter.
func (pp *PcmParams) Mask(param PcmParam) (*PcmParamMask, error) {
	if pp == nil || pp.params == nil {
		return nil, fmt.Errorf("params not initialized")
	}

	if param < paramFirstMask || param > paramLastMask {
		return nil, fmt.Errorf("parameter %v is not a mask type", param)
	}

	maskPtr := &pp.params.Masks[param-paramFirstMask]

	return (*PcmParamMask)(unsafe.Pointer(maskPtr)), nil
}

// FormatIsSupported checks if a given PCM format is supported.
func (pp *PcmParams) FormatIsSupported(format PcmFormat) bool {
	mask, err := pp.Mask(SNDRV_PCM_HW_PARAM_FORMAT)
	if err != nil {
		return false
	}

	return mask.Test(uint(format))
}

// Formats returns the supported sample formats in ascending order of their ALSA value.
func (pp *PcmParams) Formats() []PcmFormat {
	mask, err := pp.Mask(SNDRV_PCM_HW_PARAM_FORMAT)
	if err != nil {
		return nil
	}

	var keys []int
	for k := range PcmParamFormatNames {
		keys = append(keys, int(k))
	}

	sort.Ints(keys)

	var formats []PcmFormat
	for _, k := range keys {
		if mask.Test(uint(k)) {
			formats = append(formats, PcmFormat(k))
		}
	}

	return formats
}

// String returns a human-readable representation of the PCM device's capabilities.
func (pp *PcmParams) String() string {
	if pp == nil || pp.params == nil {
		return "<nil>"
	}

	var b strings.Builder

	// Helper to print masks using a string slice for names
	printMaskSlice := func(name string, param PcmParam, names []string) {
		mask, err := pp.Mask(param)
		if err != nil {
			return
		}

		var supported []string
		for i, n := range names {
			if i < len(names) && len(n) > 0 && mask.Test(uint(i)) {
				supported = append(supported, n)
			}
		}

		if len(supported) > 0 {
			b.WriteString(fmt.Sprintf("%12s: %s\n", name, strings.Join(supported, ", ")))
		}
	}

	// Helper to print format masks using the map
	printFormatMask := func() {
		mask, err := pp.Mask(SNDRV_PCM_HW_PARAM_FORMAT)
		if err != nil {
			return
		}

		var supported []string

		// Sort keys for consistent output
		var keys []int
		for k := range PcmParamFormatNames {
			keys = append(keys, int(k))
		}

		sort.Ints(keys)

		for _, k := range keys {
			f := PcmFormat(k)
			if name, ok := PcmParamFormatNames[f]; ok && mask.Test(uint(f)) {
				supported = append(supported, name)
			}
		}

		if len(supported) > 0 {
			b.WriteString(fmt.Sprintf("%12s: %s\n", "Format", strings.Join(supported, ", ")))
		}
	}

	// Helper to print interval parameters
	printInterval := func(name string, param PcmParam, unit string) {
		rangeMin, errMin := pp.RangeMin(param)
		rangeMax, errMax := pp.RangeMax(param)

		if errMin != nil || errMax != nil {
			return
		}

		if rangeMax == 0 || rangeMax == ^uint32(0) { // Don't print meaningless ranges
			return
		}

		b.WriteString(fmt.Sprintf("%12s: min=%-6d max=%-6d %s\n", name, rangeMin, rangeMax, unit))
	}

	b.WriteString("PCM device capabilities:\n")
	printMaskSlice("Access", SNDRV_PCM_HW_PARAM_ACCESS, PcmParamAccessNames)
	printFormatMask()
	printInterval("Rate", SNDRV_PCM_HW_PARAM_RATE, "Hz")
	printInterval("Channels", SNDRV_PCM_HW_PARAM_CHANNELS, "")
	printInterval("Sample bits", SNDRV_PCM_HW_PARAM_SAMPLE_BITS, "")
	printInterval("Period size", SNDRV_PCM_HW_PARAM_PERIOD_SIZE, "frames")
	printInterval("Periods", SNDRV_PCM_HW_PARAM_PERIODS, "")
	printInterval("Buffer time", SNDRV_PCM_HW_PARAM_BUFFER_TIME, "us")

	return b.String()
}

// paramInit initializes a sndPcmHwParams struct to allow all possible values.
func paramInit(p *sndPcmHwParams) {
	// Initialize all masks (including reserved) to all-ones.
	for n := range p.Masks {
		for i := range p.Masks[n].Bits {
			p.Masks[n].Bits[i] = ^uint32(0)
		}
	}

	for n := range p.Mres {
		for i := range p.Mres[n].Bits {
			p.Mres[n].Bits[i] = ^uint32(0)
		}
	}

	// Initialize all intervals (including reserved) to the full range.
	for n := range p.Intervals {
		p.Intervals[n].MinVal = 0
		p.Intervals[n].MaxVal = ^uint32(0)
		p.Intervals[n].Flags = 0
	}

	for n := range p.Ires {
		p.Ires[n].MinVal = 0
		p.Ires[n].MaxVal = ^uint32(0)
		p.Ires[n].Flags = 0
	}

	p.Rmask = ^uint32(0)
	p.Info = ^uint32(0)
}

func paramSetMask(p *sndPcmHwParams, param PcmParam, bit uint32) {
	// The first 3 params are masks
	if param < paramFirstMask || param > paramLastMask {
		return
	}

	mask := &p.Masks[param-paramFirstMask]
	for i := range mask.Bits {
		mask.Bits[i] = 0
	}

	if bit >= 256 { // SNDRV_MASK_MAX
		return
	}

	mask.Bits[bit>>5] |= 1 << (bit & 31)
}

func paramSetInt(p *sndPcmHwParams, param PcmParam, val uint32) {
	if param < paramFirstInterval || param > paramLastInterval {
		return
	}

	// The interval array index is the parameter value minus the value of the first interval param.
	interval := &p.Intervals[param-paramFirstInterval]
	interval.MinVal = val
	interval.MaxVal = val
	interval.Flags = SNDRV_PCM_INTERVAL_INTEGER
}

func paramSetMin(p *sndPcmHwParams, param PcmParam, val uint32) {
	if param < paramFirstInterval || param > paramLastInterval {
		return
	}

	interval := &p.Intervals[param-paramFirstInterval]
	interval.MinVal = val
}

func paramSetMax(p *sndPcmHwParams, param PcmParam, val uint32) {
	if param < paramFirstInterval || param > paramLastInterval {
		return
	}

	interval := &p.Intervals[param-paramFirstInterval]
	interval.MaxVal = val
}

func paramGetInt(p *sndPcmHwParams, param PcmParam) uint32 {
	if param < paramFirstInterval || param > paramLastInterval {
		return 0
	}

	// The interval array index is the parameter value minus the value of the first interval param.
	interval := &p.Intervals[param-paramFirstInterval]

	// Read the MinVal of the interval.
	// The driver finalizes the configuration by narrowing the interval.
	return interval.MinVal
}
