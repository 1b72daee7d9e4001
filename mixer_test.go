package alsaout

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeElement stores raw values for the linear law and gains for the perceptual law.
// Writes are clamped and truncated to a multiple of step when step is set.
type fakeElement struct {
	name         string
	rmin, rmax   int
	dbmin, dbmax int
	hasDB        bool
	step         int

	raw int
	db  int

	readErr  error
	writeErr error
	writes   []int
}

func (e *fakeElement) Name() string { return e.name }

func (e *fakeElement) Range() (int, int, error) { return e.rmin, e.rmax, nil }

func (e *fakeElement) DBRange() (int, int, error) {
	if !e.hasDB {
		return 0, 0, errors.New("no dB information")
	}

	return e.dbmin, e.dbmax, nil
}

func (e *fakeElement) Volume() (int, error)   { return e.raw, e.readErr }
func (e *fakeElement) VolumeDB() (int, error) { return e.db, e.readErr }

func (e *fakeElement) quantize(v, lo, hi int) int {
	v = max(lo, min(hi, v))
	if e.step > 0 {
		v -= v % e.step
	}

	return v
}

func (e *fakeElement) SetVolume(raw int) error {
	if e.writeErr != nil {
		return e.writeErr
	}

	e.writes = append(e.writes, raw)
	e.raw = e.quantize(raw, e.rmin, e.rmax)

	return nil
}

func (e *fakeElement) SetVolumeDB(db int) error {
	if e.writeErr != nil {
		return e.writeErr
	}

	e.writes = append(e.writes, db)
	e.db = e.quantize(db, e.dbmin, e.dbmax)

	return nil
}

type fakeEvents struct {
	pending int
	calls   int
}

func (f *fakeEvents) DrainEvents() (int, error) {
	f.calls++
	n := f.pending
	f.pending = 0

	return n, nil
}

type fakeCloser struct{ closed int }

func (f *fakeCloser) Close() error { f.closed++; return nil }

func linearChannel(t *testing.T, name string, lo, hi, raw int) (*MixerChannel, *fakeElement) {
	t.Helper()

	e := &fakeElement{name: name, rmin: lo, rmax: hi, raw: raw}
	c, err := NewMixerChannel(name, e)
	require.NoError(t, err)
	require.Equal(t, LawLinear, c.Law())

	return c, e
}

func perceptualChannel(t *testing.T, name string, dbmin, dbmax, db int) (*MixerChannel, *fakeElement) {
	t.Helper()

	e := &fakeElement{name: name, rmin: 0, rmax: 255, hasDB: true, dbmin: dbmin, dbmax: dbmax, db: db}
	c, err := NewMixerChannel(name, e)
	require.NoError(t, err)
	require.Equal(t, LawPerceptual, c.Law())

	return c, e
}

func TestScaleInverse(t *testing.T) {
	var channels []*MixerChannel

	for _, r := range [][2]int{{0, 87}, {0, 255}, {-50, 31}, {0, 65536}, {0, 100}} {
		c, _ := linearChannel(t, fmt.Sprintf("linear %d..%d", r[0], r[1]), r[0], r[1], r[0])
		channels = append(channels, c)
	}

	for _, r := range [][2]int{{-10239, 0}, {-6000, 400}, {-2400, 0}, {-9999, -1200}} {
		c, _ := perceptualChannel(t, fmt.Sprintf("dB %d..%d", r[0], r[1]), r[0], r[1], r[1])
		channels = append(channels, c)
	}

	for _, c := range channels {
		t.Run(c.Name(), func(t *testing.T) {
			lo, hi := c.Bounds()
			assert.Equal(t, lo, c.Unscale(0))
			assert.Equal(t, hi, c.Unscale(100))
			assert.Equal(t, 0, c.Scale(lo))
			assert.Equal(t, 100, c.Scale(hi))

			for p := 0; p <= 100; p++ {
				u := c.Unscale(p)
				require.GreaterOrEqual(t, u, lo)
				require.LessOrEqual(t, u, hi)
				require.Equal(t, u, c.Unscale(c.Scale(u)), "percent %d", p)
			}

			assert.Equal(t, c.Unscale(0), c.Unscale(-20))
			assert.Equal(t, c.Unscale(100), c.Unscale(150))
			assert.Equal(t, 0, c.Scale(lo-1000))
			assert.Equal(t, 100, c.Scale(hi+1000))
		})
	}
}

func TestPerceptualScale(t *testing.T) {
	c, _ := perceptualChannel(t, "Master", -6000, 0, 0)

	// floor = 10^-1, so -600 cdB is (10^-0.1 - 0.1) / 0.9.
	assert.Equal(t, 77, c.Scale(-600))
	assert.Equal(t, 50, c.Scale(c.Unscale(50)))
	assert.Less(t, c.Unscale(50), -1500, "half volume is well below the linear midpoint")
}

func TestLawSelection(t *testing.T) {
	tests := []struct {
		name string
		elem *fakeElement
		law  Law
		err  bool
	}{
		{"no dB", &fakeElement{rmin: 0, rmax: 31}, LawLinear, false},
		{"narrow dB range", &fakeElement{rmin: 0, rmax: 31, hasDB: true, dbmin: -2399, dbmax: 0}, LawLinear, false},
		{"threshold dB range", &fakeElement{rmin: 0, rmax: 31, hasDB: true, dbmin: -2400, dbmax: 0}, LawPerceptual, false},
		{"inverted dB range", &fakeElement{rmin: 0, rmax: 31, hasDB: true, dbmin: 0, dbmax: -4800}, LawLinear, false},
		{"degenerate raw range", &fakeElement{rmin: 5, rmax: 5}, 0, true},
		{"degenerate raw range with dB", &fakeElement{rmin: 5, rmax: 5, hasDB: true, dbmin: -9000, dbmax: 0}, LawPerceptual, false},
		{"unreadable", &fakeElement{rmin: 0, rmax: 31, readErr: errors.New("EIO")}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewMixerChannel("Master", tt.elem)
			if tt.err {
				assert.Error(t, err)
				assert.Nil(t, c)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.law, c.Law())
		})
	}
}

func TestSetReportsHardwareValue(t *testing.T) {
	t.Run("linear", func(t *testing.T) {
		c, e := linearChannel(t, "Master", 0, 255, 0)
		e.step = 10
		m := NewMixerController(c, nil, nil, nil)

		m.Set(50)
		assert.Equal(t, []int{128}, e.writes)
		assert.Equal(t, 120, e.raw)
		assert.Equal(t, 47, m.Read())
	})

	t.Run("perceptual", func(t *testing.T) {
		c, e := perceptualChannel(t, "Master", -6000, 0, 0)
		e.step = 100
		m := NewMixerController(c, nil, nil, nil)

		m.Set(50)
		require.Len(t, e.writes, 1)
		assert.Equal(t, c.Unscale(50), e.writes[0])
		assert.Zero(t, e.db%100)
		assert.Equal(t, c.Scale(e.db), m.Read())
	})

	t.Run("write error", func(t *testing.T) {
		c, e := linearChannel(t, "Master", 0, 100, 30)
		m := NewMixerController(c, nil, nil, nil)

		e.writeErr = errors.New("EPERM")
		m.Set(80)
		assert.Equal(t, 30, m.Read())
	})
}

func TestReadDetectsChanges(t *testing.T) {
	c, e := linearChannel(t, "Master", 0, 100, 30)
	events := &fakeEvents{}
	m := NewMixerController(c, nil, events, nil)

	assert.Equal(t, 30, m.Read())
	assert.Equal(t, 1, events.calls)

	e.raw = 60
	events.pending = 1
	assert.Equal(t, 60, m.Read())
	assert.Equal(t, 2, events.calls)
	assert.Zero(t, events.pending)

	e.readErr = errors.New("EIO")
	e.raw = 90
	assert.Equal(t, 60, m.Read(), "a failed read reports the last known value")
}

func TestToggle(t *testing.T) {
	master, masterElem := linearChannel(t, "Master", 0, 100, 10)
	pcm, pcmElem := linearChannel(t, "PCM", 0, 100, 90)

	m := NewMixerController(master, pcm, nil, nil)
	assert.Equal(t, "Master", m.ChannelName())
	assert.Equal(t, 10, m.Read())

	m.Toggle()
	assert.Equal(t, "PCM", m.ChannelName())
	assert.Equal(t, 90, m.Read())

	m.Set(40)
	assert.Equal(t, 40, pcmElem.raw)
	assert.Equal(t, 10, masterElem.raw)

	m.Toggle()
	assert.Same(t, master, m.Current())

	t.Run("single channel", func(t *testing.T) {
		m := NewMixerController(nil, pcm, nil, nil)
		assert.Equal(t, "PCM", m.ChannelName())
		m.Toggle()
		assert.Equal(t, "PCM", m.ChannelName())
	})
}

func TestInertController(t *testing.T) {
	closer := &fakeCloser{}
	m := NewMixerController(nil, nil, nil, closer)

	assert.Equal(t, 100, m.Read())
	m.Set(10)
	m.Toggle()
	assert.Equal(t, 100, m.Read())
	assert.Empty(t, m.ChannelName())
	assert.Nil(t, m.Current())

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Equal(t, 1, closer.closed)
}
