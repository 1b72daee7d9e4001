package resample

import "fmt"

// interpolator computes one output sample of channel c at fractional position frac
// past frame j of the interleaved window work.
type interpolator func(work []float32, j, c, channels int, frac float32) float32

func zeroOrderHold(work []float32, j, c, channels int, _ float32) float32 {
	return work[j*channels+c]
}

func linear(work []float32, j, c, channels int, frac float32) float32 {
	a := work[j*channels+c]
	b := work[(j+1)*channels+c]

	return a + (b-a)*frac
}

// cubic is Catmull-Rom interpolation between work[j+1] and work[j+2].
func cubic(work []float32, j, c, channels int, frac float32) float32 {
	y0 := work[j*channels+c]
	y1 := work[(j+1)*channels+c]
	y2 := work[(j+2)*channels+c]
	y3 := work[(j+3)*channels+c]

	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2

	return ((a0*frac+a1)*frac+a2)*frac + y1
}

// window resamples with an exact rational position: output frame k sits at input
// position k*from/to, tracked as the numerator num over the denominator to.
// The last taps frames of every call are kept and prepended to the next one.
type window struct {
	channels int
	from, to int64
	taps     int
	interp   interpolator

	num     int64
	history []float32
	work    []float32
	out     []float32

	// One-pole low-pass applied to incoming frames when downsampling.
	filter      bool
	filterAlpha float32
	filterState []float32
}

func newWindow(channels, fromRate, toRate, taps int, interp interpolator, filter bool) *window {
	return &window{
		channels:    channels,
		from:        int64(fromRate),
		to:          int64(toRate),
		taps:        taps,
		interp:      interp,
		history:     make([]float32, taps*channels),
		filter:      filter,
		filterAlpha: 0.5,
		filterState: make([]float32, channels),
	}
}

func (w *window) Process(in []float32) []float32 {
	if len(in)%w.channels != 0 {
		panic(fmt.Sprintf("resample: %d samples is not a whole number of %d-channel frames", len(in), w.channels))
	}

	frames := int64(len(in) / w.channels)

	w.work = append(w.work[:0], w.history...)
	start := len(w.work)
	w.work = append(w.work, in...)

	if w.filter {
		for i := start; i < len(w.work); i += w.channels {
			for c := 0; c < w.channels; c++ {
				v := w.filterAlpha*w.work[i+c] + (1-w.filterAlpha)*w.filterState[c]
				w.work[i+c] = v
				w.filterState[c] = v
			}
		}
	}

	limit := frames * w.to
	w.out = w.out[:0]

	for w.num < limit {
		j := int(w.num / w.to)
		frac := float32(w.num%w.to) / float32(w.to)

		for c := 0; c < w.channels; c++ {
			w.out = append(w.out, w.interp(w.work, j, c, w.channels, frac))
		}

		w.num += w.from
	}

	w.num -= limit
	copy(w.history, w.work[len(w.work)-len(w.history):])

	return w.out
}

func (w *window) Reset() {
	w.num = 0
	clear(w.history)
	clear(w.filterState)
}

func (w *window) Close() error {
	w.history, w.work, w.out = nil, nil, nil

	return nil
}
