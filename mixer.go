package alsaout

import (
	"fmt"
	"io"
	"log/slog"
	"math"
)

// Law maps hardware volume values to a 0..100 scale.
type Law int

const (
	// LawLinear scales raw control values linearly.
	LawLinear Law = iota
	// LawPerceptual scales gains in hundredths of a dB logarithmically.
	LawPerceptual
)

func (l Law) String() string {
	if l == LawPerceptual {
		return "perceptual"
	}

	return "linear"
}

// A control whose dB range spans at least this many hundredths of a dB uses LawPerceptual.
const perceptualMinRange = 2400

// Element is one hardware volume control.
type Element interface {
	Name() string
	// Range returns the raw value range.
	Range() (minVal, maxVal int, err error)
	// DBRange returns the gain range in hundredths of a dB. It fails for controls without dB information.
	DBRange() (minDB, maxDB int, err error)
	// Volume returns the raw value averaged over the control's channels.
	Volume() (int, error)
	// SetVolume writes a raw value to every channel.
	SetVolume(raw int) error
	// VolumeDB returns the gain averaged over the control's channels.
	VolumeDB() (int, error)
	// SetVolumeDB sets every channel to the raw value closest to a gain.
	SetVolumeDB(db int) error
}

// EventSource reports pending control change events without blocking.
type EventSource interface {
	DrainEvents() (int, error)
}

// MixerChannel is a volume control together with its scale law.
// For LawPerceptual the bounds and the cached value are in hundredths of a dB.
type MixerChannel struct {
	name  string
	elem  Element
	law   Law
	min   int
	max   int
	floor float64

	raw     int
	percent int
}

// NewMixerChannel inspects elem and picks its scale law. It fails when the control has
// no usable range or cannot be read.
func NewMixerChannel(name string, elem Element) (*MixerChannel, error) {
	rmin, rmax, err := elem.Range()
	if err != nil {
		return nil, fmt.Errorf("mixer %s: %w", name, err)
	}

	c := &MixerChannel{name: name, elem: elem, law: LawLinear, min: rmin, max: rmax}

	if dmin, dmax, err := elem.DBRange(); err == nil && dmin < dmax && dmax-dmin >= perceptualMinRange {
		c.law = LawPerceptual
		c.min, c.max = dmin, dmax
		c.floor = math.Pow(10, float64(dmin-dmax)/6000)
	} else if rmin >= rmax {
		return nil, fmt.Errorf("mixer %s has no usable volume range", name)
	}

	raw, err := c.read()
	if err != nil {
		return nil, fmt.Errorf("mixer %s: %w", name, err)
	}

	c.raw = raw
	c.percent = c.Scale(raw)

	if c.law == LawPerceptual {
		slog.Info("opened mixer", "name", name, "law", c.law, "minDB", c.min, "maxDB", c.max, "floor", c.floor)
	} else {
		slog.Info("opened mixer", "name", name, "law", c.law, "min", c.min, "max", c.max)
	}

	return c, nil
}

// Name returns the configured control name.
func (c *MixerChannel) Name() string { return c.name }

// Law returns the scale law in use.
func (c *MixerChannel) Law() Law { return c.law }

// Bounds returns the scale bounds, raw values or hundredths of a dB depending on the law.
func (c *MixerChannel) Bounds() (minVal, maxVal int) { return c.min, c.max }

// Scale converts a value in the channel's units to a percentage in 0..100.
func (c *MixerChannel) Scale(v int) int {
	var p float64
	if c.law == LawPerceptual {
		p = (math.Pow(10, float64(v-c.max)/6000) - c.floor) * 100 / (1 - c.floor)
	} else {
		p = float64(v-c.min) * 100 / float64(c.max-c.min)
	}

	return max(0, min(100, int(math.Round(p))))
}

// Unscale is the inverse of Scale: it converts a percentage to the channel's units.
func (c *MixerChannel) Unscale(percent int) int {
	p := float64(max(0, min(100, percent)))

	if c.law == LawPerceptual {
		return int(math.RoundToEven(6000*math.Log10(p*(1-c.floor)/100+c.floor) + float64(c.max)))
	}

	return int(math.RoundToEven(p*float64(c.max-c.min)/100 + float64(c.min)))
}

func (c *MixerChannel) read() (int, error) {
	if c.law == LawPerceptual {
		return c.elem.VolumeDB()
	}

	return c.elem.Volume()
}

func (c *MixerChannel) write(v int) error {
	if c.law == LawPerceptual {
		return c.elem.SetVolumeDB(v)
	}

	return c.elem.SetVolume(v)
}

// MixerController drives up to two volume controls, one of which is current.
// A controller without usable channels is inert: it reads 100 and ignores writes.
type MixerController struct {
	channels [2]*MixerChannel
	current  *MixerChannel
	events   EventSource
	closer   io.Closer
}

// NewMixerController builds a controller from the usable channels among first and second.
// Either may be nil. events and closer may be nil.
func NewMixerController(first, second *MixerChannel, events EventSource, closer io.Closer) *MixerController {
	m := &MixerController{channels: [2]*MixerChannel{first, second}, events: events, closer: closer}

	m.current = first
	if m.current == nil {
		m.current = second
	}

	return m
}

// Read returns the current channel's volume in percent.
func (m *MixerController) Read() int {
	c := m.current
	if c == nil {
		return 100
	}

	m.drainEvents()

	v, err := c.read()
	if err != nil {
		slog.Warn("can't read mixer", "name", c.name, "err", err)

		return c.percent
	}

	if v != c.raw {
		c.raw = v
		c.percent = c.Scale(v)
		slog.Info("mixer volume changed", "name", c.name, "percent", c.percent, "value", v)
	}

	return c.percent
}

// Set writes a volume in percent to the current channel, then reads back what the hardware applied.
func (m *MixerController) Set(percent int) {
	c := m.current
	if c == nil {
		return
	}

	target := c.Unscale(percent)
	slog.Debug("setting mixer", "name", c.name, "value", target, "percent", percent)

	if err := c.write(target); err != nil {
		slog.Error("can't set mixer", "name", c.name, "err", err)

		return
	}

	v, err := c.read()
	if err != nil {
		slog.Warn("can't read mixer", "name", c.name, "err", err)

		return
	}

	c.raw = v
	c.percent = c.Scale(v)

	if v != target {
		slog.Debug("mixer value adjusted by hardware", "name", c.name, "intended", target, "got", v)
	}
}

// Toggle makes the other channel current when both channels are usable.
func (m *MixerController) Toggle() {
	if m.channels[0] == nil || m.channels[1] == nil {
		return
	}

	if m.current == m.channels[0] {
		m.current = m.channels[1]
	} else {
		m.current = m.channels[0]
	}
}

// ChannelName returns the name of the current channel, or "" when inert.
func (m *MixerController) ChannelName() string {
	if m.current == nil {
		return ""
	}

	return m.current.name
}

// Current returns the current channel, or nil when inert.
func (m *MixerController) Current() *MixerChannel {
	return m.current
}

// Close releases the underlying mixer device.
func (m *MixerController) Close() error {
	m.channels = [2]*MixerChannel{}
	m.current = nil

	if m.closer == nil {
		return nil
	}

	err := m.closer.Close()
	m.closer = nil

	return err
}

func (m *MixerController) drainEvents() {
	if m.events == nil {
		return
	}

	n, err := m.events.DrainEvents()
	if err != nil {
		slog.Debug("can't read mixer events", "err", err)

		return
	}

	if n > 0 {
		slog.Debug("mixer events", "count", n)
	}
}
