package resample_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gen2brain/alsaout/resample"
)

var backends = map[string]resample.Options{
	"linear":     {Backend: resample.Basic, Method: resample.Linear},
	"zoh":        {Backend: resample.Basic, Method: resample.ZeroOrderHold},
	"lowlatency": {Backend: resample.LowLatency},
}

func sine(frames, channels, rate int, freq float64) []float32 {
	out := make([]float32, frames*channels)
	for i := 0; i < frames; i++ {
		v := float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
		for c := 0; c < channels; c++ {
			out[i*channels+c] = v
		}
	}

	return out
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, resample.DefaultOptions().Validate())
	assert.NoError(t, resample.Options{Backend: "HQ", Quality: 10}.Validate())
	assert.NoError(t, resample.Options{Backend: "Basic", Method: "ZOH"}.Validate())

	assert.ErrorIs(t, resample.Options{Backend: "sox"}.Validate(), resample.ErrUnknownBackend)
	assert.ErrorIs(t, resample.Options{Backend: resample.Basic, Method: "sinc"}.Validate(), resample.ErrUnknownBackend)
	assert.ErrorIs(t, resample.Options{Backend: resample.HighQuality, Quality: 11}.Validate(), resample.ErrUnknownBackend)

	_, err := resample.New(resample.Options{Backend: "nope"}, 2, 44100, 48000)
	assert.ErrorIs(t, err, resample.ErrUnknownBackend)

	_, err = resample.New(resample.DefaultOptions(), 0, 44100, 48000)
	assert.Error(t, err)
}

// TestFrameAccounting feeds uneven chunks and checks that the cumulative output
// is ceil(input * to / from) after every call.
func TestFrameAccounting(t *testing.T) {
	rates := [][2]int{{44100, 48000}, {48000, 44100}, {22050, 44100}, {96000, 8000}, {44100, 44100}}
	chunks := []int{1, 7, 100, 441, 0, 1024, 3}

	for name, opts := range backends {
		for _, rate := range rates {
			t.Run(name, func(t *testing.T) {
				const channels = 2

				r, err := resample.New(opts, channels, rate[0], rate[1])
				require.NoError(t, err)
				defer r.Close()

				fed, produced := 0, 0
				for i := 0; i < 20; i++ {
					n := chunks[i%len(chunks)]
					out := r.Process(sine(n, channels, rate[0], 440))
					require.Zero(t, len(out)%channels)

					fed += n
					produced += len(out) / channels

					want := (fed*rate[1] + rate[0] - 1) / rate[0]
					require.Equal(t, want, produced, "after %d input frames", fed)
				}
			})
		}
	}
}

func TestIdentityRate(t *testing.T) {
	in := sine(256, 1, 48000, 1000)

	for name, opts := range backends {
		t.Run(name, func(t *testing.T) {
			r, err := resample.New(opts, 1, 48000, 48000)
			require.NoError(t, err)

			out := r.Process(in)
			require.Len(t, out, len(in))

			// Equal rates reproduce the input delayed by the window history.
			delay := 1
			if name == "lowlatency" {
				delay = 2
			}

			for i := delay; i < len(in); i++ {
				assert.InDelta(t, in[i-delay], out[i], 1e-6)
			}
		})
	}
}

func TestLinearInterpolates(t *testing.T) {
	r, err := resample.New(resample.Options{Backend: resample.Basic, Method: resample.Linear}, 1, 1, 2)
	require.NoError(t, err)

	out := r.Process([]float32{1, 3, 5})
	// Positions 0, 0.5, 1, 1.5, 2, 2.5 over the zero history frame followed by the input.
	assert.Equal(t, []float32{0, 0.5, 1, 2, 3, 4}, out)

	out = r.Process([]float32{7})
	assert.Equal(t, []float32{5, 6}, out)
}

func TestReset(t *testing.T) {
	r, err := resample.New(resample.Options{Backend: resample.Basic, Method: resample.ZeroOrderHold}, 1, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, []float32{0, 1}, r.Process([]float32{1, 2}))
	r.Reset()
	assert.Equal(t, []float32{0, 3}, r.Process([]float32{3, 4}))
}

func TestHighQuality(t *testing.T) {
	const (
		from     = 44100
		to       = 48000
		channels = 2
		chunk    = 1000
		calls    = 50
	)

	for _, quality := range []int{0, 5, 10} {
		t.Run(fmt.Sprintf("quality %d", quality), func(t *testing.T) {
			r, err := resample.New(resample.Options{Backend: resample.HighQuality, Quality: quality}, channels, from, to)
			require.NoError(t, err)
			defer r.Close()

			fed, produced := 0, 0
			var last []float32
			for i := 0; i < calls; i++ {
				out := r.Process(sine(chunk, channels, from, 440))
				require.Zero(t, len(out)%channels)

				fed += chunk
				produced += len(out) / channels
				last = out

				require.Equal(t, (fed*to+from-1)/from, produced, "after %d input frames", fed)
			}

			assert.Equal(t, 54422, produced)

			for i := 0; i+1 < len(last); i += channels {
				assert.Equal(t, last[i], last[i+1], "identical channels stay identical")
			}
		})
	}
}

func TestPanicsOnPartialFrame(t *testing.T) {
	for name, opts := range backends {
		t.Run(name, func(t *testing.T) {
			r, err := resample.New(opts, 2, 44100, 48000)
			require.NoError(t, err)
			assert.Panics(t, func() { r.Process([]float32{1, 2, 3}) })
		})
	}
}
