package alsaout

import (
	"fmt"
	"log/slog"

	"github.com/gen2brain/alsaout/alsa"
)

// alsaElement adapts an INTEGER mixer control to Element.
type alsaElement struct {
	ctl *alsa.MixerCtl
}

// findElement looks up "<name> Playback Volume", then name itself.
func findElement(m *alsa.Mixer, name string) (*alsaElement, error) {
	for _, ctlName := range []string{name + " Playback Volume", name} {
		ctl, err := m.CtlByName(ctlName)
		if err != nil {
			continue
		}

		if ctl.Type() != alsa.SNDRV_CTL_ELEM_TYPE_INTEGER || !ctl.IsWritable() {
			return nil, fmt.Errorf("mixer %s has no playback volume", name)
		}

		return &alsaElement{ctl: ctl}, nil
	}

	return nil, fmt.Errorf("can't find mixer %s", name)
}

func (e *alsaElement) Name() string { return e.ctl.Name() }

func (e *alsaElement) Range() (int, int, error) {
	lo, err := e.ctl.RangeMin()
	if err != nil {
		return 0, 0, err
	}

	hi, err := e.ctl.RangeMax()
	if err != nil {
		return 0, 0, err
	}

	return lo, hi, nil
}

func (e *alsaElement) DBRange() (int, int, error) {
	if !e.ctl.HasDB() {
		return 0, 0, fmt.Errorf("control '%s' has no dB information", e.ctl.Name())
	}

	return e.ctl.DBRange()
}

func (e *alsaElement) Volume() (int, error) {
	values, err := e.ctl.Values()
	if err != nil {
		return 0, err
	}

	return average(values)
}

func (e *alsaElement) SetVolume(raw int) error {
	return e.ctl.SetAll(raw)
}

func (e *alsaElement) VolumeDB() (int, error) {
	values, err := e.ctl.Values()
	if err != nil {
		return 0, err
	}

	for i, v := range values {
		if values[i], err = e.ctl.ToDB(v); err != nil {
			return 0, err
		}
	}

	return average(values)
}

func (e *alsaElement) SetVolumeDB(db int) error {
	raw, err := e.ctl.FromDB(db)
	if err != nil {
		return err
	}

	return e.ctl.SetAll(raw)
}

func average(values []int) (int, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("mixer has no channels")
	}

	sum := 0
	for _, v := range values {
		sum += v
	}

	return sum / len(values), nil
}

// OpenMixer opens the control device of the card behind device and sets up the named controls.
// Failures are logged and leave the affected channel out. If neither control is usable the
// returned controller is inert.
func OpenMixer(device, name1, name2 string) *MixerController {
	card, _, err := alsa.ParseName(device)
	if err != nil {
		slog.Error("can't open mixer", "device", device, "err", err)

		return NewMixerController(nil, nil, nil, nil)
	}

	m, err := alsa.MixerOpen(card)
	if err != nil {
		slog.Error("can't open mixer", "device", device, "err", err)

		return NewMixerController(nil, nil, nil, nil)
	}

	var events EventSource
	if err := m.SubscribeEvents(true); err != nil {
		slog.Warn("can't subscribe to mixer events", "err", err)
	} else {
		events = m
	}

	var channels [2]*MixerChannel
	for i, name := range []string{name1, name2} {
		if name == "" {
			continue
		}

		elem, err := findElement(m, name)
		if err != nil {
			slog.Error("can't open mixer channel", "err", err)

			continue
		}

		c, err := NewMixerChannel(name, elem)
		if err != nil {
			slog.Error("can't open mixer channel", "err", err)

			continue
		}

		channels[i] = c
	}

	if channels[0] == nil && channels[1] == nil {
		_ = m.Close()

		return NewMixerController(nil, nil, nil, nil)
	}

	return NewMixerController(channels[0], channels[1], events, m)
}
