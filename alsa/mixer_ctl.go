package alsa

import (
	"fmt"
	"math"
	"unsafe"
)

// Name returns the name of the control.
func (ctl *MixerCtl) Name() string {
	return cString(ctl.info.Id.Name[:])
}

// ID returns the numeric ID (numid) of the control.
func (ctl *MixerCtl) ID() uint32 {
	return ctl.info.Id.Numid
}

// Type returns the data type of the control's value.
func (ctl *MixerCtl) Type() MixerCtlType {
	return MixerCtlType(ctl.info.Typ)
}

// TypeString returns a string representation of the control's data type.
func (ctl *MixerCtl) TypeString() string {
	if name, ok := mixerCtlTypeNames[ctl.Type()]; ok {
		return name
	}

	return "UNKNOWN"
}

// IsWritable reports whether the control accepts writes.
func (ctl *MixerCtl) IsWritable() bool {
	return (ctl.info.Access & uint32(SNDRV_CTL_ELEM_ACCESS_WRITE)) != 0
}

// NumValues returns the number of values (channels) of the control.
func (ctl *MixerCtl) NumValues() uint32 {
	return ctl.info.Count
}

// RangeMin returns the minimum raw value of an INTEGER or BOOLEAN control.
func (ctl *MixerCtl) RangeMin() (int, error) {
	switch ctl.Type() {
	case SNDRV_CTL_ELEM_TYPE_INTEGER:
		return int(ctl.integerInfo().Min), nil
	case SNDRV_CTL_ELEM_TYPE_BOOLEAN:
		return 0, nil
	default:
		return 0, fmt.Errorf("control '%s' of type %s has no range", ctl.Name(), ctl.TypeString())
	}
}

// RangeMax returns the maximum raw value of an INTEGER or BOOLEAN control.
func (ctl *MixerCtl) RangeMax() (int, error) {
	switch ctl.Type() {
	case SNDRV_CTL_ELEM_TYPE_INTEGER:
		return int(ctl.integerInfo().Max), nil
	case SNDRV_CTL_ELEM_TYPE_BOOLEAN:
		return 1, nil
	default:
		return 0, fmt.Errorf("control '%s' of type %s has no range", ctl.Name(), ctl.TypeString())
	}
}

// Value returns the raw value at index id of an INTEGER or BOOLEAN control.
func (ctl *MixerCtl) Value(id uint) (int, error) {
	values, err := ctl.Values()
	if err != nil {
		return 0, err
	}

	if id >= uint(len(values)) {
		return 0, fmt.Errorf("value index %d out of bounds for control '%s' (count %d)", id, ctl.Name(), len(values))
	}

	return values[id], nil
}

// Values returns all raw values of an INTEGER or BOOLEAN control.
func (ctl *MixerCtl) Values() ([]int, error) {
	if err := ctl.checkNumeric(); err != nil {
		return nil, err
	}

	var value sndCtlElemValue
	value.Id.Numid = ctl.ID()

	if err := ioctl(ctl.mixer.file.Fd(), SNDRV_CTL_IOCTL_ELEM_READ, uintptr(unsafe.Pointer(&value))); err != nil {
		return nil, fmt.Errorf("ioctl ELEM_READ failed for '%s': %w", ctl.Name(), err)
	}

	longs := (*[128]clong)(unsafe.Pointer(&value.Value[0]))

	count := int(ctl.NumValues())
	if count > len(longs) {
		count = len(longs)
	}

	values := make([]int, count)
	for i := range values {
		values[i] = int(longs[i])
	}

	return values, nil
}

// SetValue writes the raw value at index id, leaving the other values unchanged.
func (ctl *MixerCtl) SetValue(id uint, val int) error {
	values, err := ctl.Values()
	if err != nil {
		return err
	}

	if id >= uint(len(values)) {
		return fmt.Errorf("value index %d out of bounds for control '%s' (count %d)", id, ctl.Name(), len(values))
	}

	values[id] = val

	return ctl.SetValues(values)
}

// SetAll writes the same raw value to every channel of the control.
func (ctl *MixerCtl) SetAll(val int) error {
	values := make([]int, ctl.NumValues())
	for i := range values {
		values[i] = val
	}

	return ctl.SetValues(values)
}

// SetValues writes raw values to an INTEGER or BOOLEAN control.
// Values are clamped to the control's range.
func (ctl *MixerCtl) SetValues(values []int) error {
	if err := ctl.checkNumeric(); err != nil {
		return err
	}

	if !ctl.IsWritable() {
		return fmt.Errorf("control '%s' is not writable", ctl.Name())
	}

	minVal, _ := ctl.RangeMin()
	maxVal, _ := ctl.RangeMax()

	var value sndCtlElemValue
	value.Id.Numid = ctl.ID()

	longs := (*[128]clong)(unsafe.Pointer(&value.Value[0]))
	for i, v := range values {
		if i >= len(longs) {
			break
		}

		longs[i] = clong(max(minVal, min(maxVal, v)))
	}

	if err := ioctl(ctl.mixer.file.Fd(), SNDRV_CTL_IOCTL_ELEM_WRITE, uintptr(unsafe.Pointer(&value))); err != nil {
		return fmt.Errorf("ioctl ELEM_WRITE failed for '%s': %w", ctl.Name(), err)
	}

	return nil
}

// Percent returns the value at index id as a percentage of the control's linear range.
func (ctl *MixerCtl) Percent(id uint) (int, error) {
	minVal, err := ctl.RangeMin()
	if err != nil {
		return 0, err
	}

	maxVal, _ := ctl.RangeMax()
	if maxVal <= minVal {
		return 0, fmt.Errorf("control '%s' has an empty range", ctl.Name())
	}

	val, err := ctl.Value(id)
	if err != nil {
		return 0, err
	}

	return (val - minVal) * 100 / (maxVal - minVal), nil
}

// SetPercent sets the value at index id to a percentage of the control's linear range.
func (ctl *MixerCtl) SetPercent(id uint, percent int) error {
	minVal, err := ctl.RangeMin()
	if err != nil {
		return err
	}

	maxVal, _ := ctl.RangeMax()
	percent = max(0, min(100, percent))

	return ctl.SetValue(id, minVal+int(math.Round(float64(percent*(maxVal-minVal))/100)))
}

// HasDB reports whether the control publishes dB metadata.
func (ctl *MixerCtl) HasDB() bool {
	return ctl.Type() == SNDRV_CTL_ELEM_TYPE_INTEGER && (ctl.info.Access&uint32(SNDRV_CTL_ELEM_ACCESS_TLV_READ)) != 0
}

// DBRange returns the control's gain range in hundredths of a dB.
func (ctl *MixerCtl) DBRange() (minDB, maxDB int, err error) {
	tlv, err := ctl.readTlv()
	if err != nil {
		return 0, 0, err
	}

	rmin, _ := ctl.RangeMin()
	rmax, _ := ctl.RangeMax()

	return tlvDBRange(tlv, rmin, rmax)
}

// ToDB converts a raw value of the control to hundredths of a dB.
func (ctl *MixerCtl) ToDB(raw int) (int, error) {
	tlv, err := ctl.readTlv()
	if err != nil {
		return 0, err
	}

	rmin, _ := ctl.RangeMin()
	rmax, _ := ctl.RangeMax()

	return tlvToDB(tlv, rmin, rmax, raw)
}

// FromDB converts a gain in hundredths of a dB to the closest raw value of the control.
func (ctl *MixerCtl) FromDB(db int) (int, error) {
	tlv, err := ctl.readTlv()
	if err != nil {
		return 0, err
	}

	rmin, _ := ctl.RangeMin()
	rmax, _ := ctl.RangeMax()

	return tlvFromDB(tlv, rmin, rmax, db)
}

// readTlv fetches and caches the control's TLV dB description.
func (ctl *MixerCtl) readTlv() ([]uint32, error) {
	if ctl.tlv != nil {
		return ctl.tlv, nil
	}

	if !ctl.HasDB() {
		return nil, fmt.Errorf("control '%s' has no dB information", ctl.Name())
	}

	const words = 256 // header plus payload

	buf := make([]uint32, words)
	buf[0] = ctl.ID()
	buf[1] = (words - 2) * 4

	if err := ioctl(ctl.mixer.file.Fd(), SNDRV_CTL_IOCTL_TLV_READ, uintptr(unsafe.Pointer(&buf[0]))); err != nil {
		return nil, fmt.Errorf("ioctl TLV_READ failed for '%s': %w", ctl.Name(), err)
	}

	tlv := buf[2:]
	if len(tlv) < 2 || int(tlv[1]/4)+2 > len(tlv) {
		return nil, fmt.Errorf("malformed TLV data for '%s'", ctl.Name())
	}

	ctl.tlv = tlv[:2+tlv[1]/4]

	return ctl.tlv, nil
}

func (ctl *MixerCtl) integerInfo() integer {
	return *(*integer)(unsafe.Pointer(&ctl.info.Value[0]))
}

func (ctl *MixerCtl) checkNumeric() error {
	switch ctl.Type() {
	case SNDRV_CTL_ELEM_TYPE_INTEGER, SNDRV_CTL_ELEM_TYPE_BOOLEAN:
		return nil
	default:
		return fmt.Errorf("control '%s' of type %s is not numeric", ctl.Name(), ctl.TypeString())
	}
}
