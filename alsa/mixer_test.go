package alsa_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gen2brain/alsaout/alsa"
)

// To run these tests, the 'snd-dummy' kernel module must be loaded:
//
// sudo modprobe snd-dummy
//
// This creates virtual dummy sound cards that allow testing controls.

// TestMixerHardware runs all hardware-related tests sequentially to avoid race conditions.
func TestMixerHardware(t *testing.T) {
	requireDummy(t)

	t.Run("OpenAndClose", testMixerOpenAndClose)
	t.Run("ControlLookup", testMixerControlLookup)
	t.Run("IntegerValues", testMixerIntegerValues)
	t.Run("DecibelRange", testMixerDecibelRange)
	t.Run("Events", testMixerEvents)
}

func testMixerOpenAndClose(t *testing.T) {
	_, err := alsa.MixerOpen(1000)
	assert.Error(t, err, "opening a non-existent card should fail")

	m, err := alsa.MixerOpen(uint(dummyCard))
	require.NoError(t, err)
	assert.NotEmpty(t, m.Name())
	assert.Greater(t, m.NumCtls(), 0)

	require.NoError(t, m.Close())
	assert.NoError(t, m.Close(), "closing twice should be a no-op")
	assert.NoError(t, (*alsa.Mixer)(nil).Close())
}

func testMixerControlLookup(t *testing.T) {
	m, err := alsa.MixerOpen(uint(dummyCard))
	require.NoError(t, err)
	defer m.Close()

	ctl, err := m.CtlByName("Master Volume")
	require.NoError(t, err)
	assert.Equal(t, "Master Volume", ctl.Name())
	assert.Equal(t, alsa.SNDRV_CTL_ELEM_TYPE_INTEGER, ctl.Type())
	assert.Equal(t, "INT", ctl.TypeString())
	assert.True(t, ctl.IsWritable())

	byID, err := m.Ctl(ctl.ID())
	require.NoError(t, err)
	assert.Same(t, ctl, byID)

	_, err = m.CtlByName("No Such Control")
	assert.Error(t, err)

	_, err = m.CtlByNameAndIndex("Master Volume", 99)
	assert.Error(t, err)
}

func testMixerIntegerValues(t *testing.T) {
	m, err := alsa.MixerOpen(uint(dummyCard))
	require.NoError(t, err)
	defer m.Close()

	ctl, err := m.CtlByName("Master Volume")
	require.NoError(t, err)

	original, err := ctl.Values()
	require.NoError(t, err)
	defer func() {
		if err := ctl.SetValues(original); err != nil {
			t.Logf("Warning: failed to restore original value for control '%s': %v", ctl.Name(), err)
		}
	}()

	minVal, err := ctl.RangeMin()
	require.NoError(t, err)
	maxVal, err := ctl.RangeMax()
	require.NoError(t, err)
	require.Greater(t, maxVal, minVal)

	require.NoError(t, ctl.SetAll(maxVal))
	values, err := ctl.Values()
	require.NoError(t, err)
	for _, v := range values {
		assert.Equal(t, maxVal, v)
	}

	pct, err := ctl.Percent(0)
	require.NoError(t, err)
	assert.Equal(t, 100, pct)

	require.NoError(t, ctl.SetPercent(0, 0))
	v, err := ctl.Value(0)
	require.NoError(t, err)
	assert.Equal(t, minVal, v)

	require.NoError(t, ctl.SetValue(0, maxVal+1000))
	v, _ = ctl.Value(0)
	assert.Equal(t, maxVal, v, "writes should be clamped to the range")

	_, err = ctl.Value(uint(ctl.NumValues()))
	assert.Error(t, err, "out-of-bounds index should fail")
}

func testMixerDecibelRange(t *testing.T) {
	m, err := alsa.MixerOpen(uint(dummyCard))
	require.NoError(t, err)
	defer m.Close()

	ctl, err := m.CtlByName("Master Volume")
	require.NoError(t, err)

	if !ctl.HasDB() {
		t.Skip("control has no dB information")
	}

	minDB, maxDB, err := ctl.DBRange()
	require.NoError(t, err)
	assert.Less(t, minDB, maxDB)

	rmax, _ := ctl.RangeMax()
	db, err := ctl.ToDB(rmax)
	require.NoError(t, err)
	assert.Equal(t, maxDB, db)

	raw, err := ctl.FromDB(maxDB)
	require.NoError(t, err)
	assert.Equal(t, rmax, raw)
}

func testMixerEvents(t *testing.T) {
	m, err := alsa.MixerOpen(uint(dummyCard))
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.SubscribeEvents(true))
	defer func() { _ = m.SubscribeEvents(false) }()

	_, err = m.DrainEvents()
	require.NoError(t, err)

	ctl, err := m.CtlByName("Master Volume")
	require.NoError(t, err)

	original, err := ctl.Values()
	require.NoError(t, err)
	defer func() { _ = ctl.SetValues(original) }()

	minVal, _ := ctl.RangeMin()
	maxVal, _ := ctl.RangeMax()

	target := minVal
	if original[0] == minVal {
		target = maxVal
	}
	require.NoError(t, ctl.SetAll(target))

	pending, err := m.WaitEvent(1000)
	require.NoError(t, err)
	require.True(t, pending, "a value change should raise an event")

	ev, err := m.ReadEvent()
	require.NoError(t, err)
	assert.NotZero(t, ev.Type&alsa.SNDRV_CTL_EVENT_MASK_VALUE)
	assert.Equal(t, ctl.ID(), ev.ControlID)

	_, err = m.DrainEvents()
	require.NoError(t, err)

	pending, err = m.WaitEvent(0)
	require.NoError(t, err)
	assert.False(t, pending)
}
