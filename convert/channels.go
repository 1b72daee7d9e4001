package convert

import (
	"encoding/binary"
	"math"

	"github.com/gen2brain/alsaout/format"
)

// 5.1 source channel order.
const (
	frontLeft = iota
	frontRight
	center
	lfe
	rearLeft
	rearRight
)

// Dolby Pro Logic style downmix matrix.
var (
	downmixLeft  = [6]float64{frontLeft: 1.0, frontRight: 0, center: 0.707, lfe: 0.707, rearLeft: -0.8165, rearRight: -0.5774}
	downmixRight = [6]float64{frontLeft: 0, frontRight: 1.0, center: 0.707, lfe: 0.707, rearLeft: 0.5774, rearRight: 0.8165}
)

const downmixNorm = 0.2626

// MonoToStereo duplicates every sample of f in src to both channels of dst.
// dst must hold 2*len(src) bytes.
func MonoToStereo(dst, src []byte, f format.SampleFormat) {
	n := checkSamples(src, f)
	size := f.Bytes()

	for i := 0; i < n; i++ {
		s := src[i*size : (i+1)*size]
		copy(dst[2*i*size:], s)
		copy(dst[(2*i+1)*size:], s)
	}
}

// Downmix51 folds native-endian 6-channel frames of f in src to stereo frames in dst,
// which must hold len(src)/3 bytes. Fixed-point results are rounded and clamped to f's range.
func Downmix51(dst, src []byte, f format.SampleFormat) {
	n := checkSamples(src, f)
	if n%6 != 0 {
		panic("convert: downmix input is not a whole number of 6-channel frames")
	}

	size := f.Bytes()
	var in [6]float64

	for frame := 0; frame < n/6; frame++ {
		base := frame * 6 * size
		for c := range in {
			in[c] = readValue(src[base+c*size:], f)
		}

		var left, right float64
		for c := range in {
			left += downmixLeft[c] * in[c] * downmixNorm
			right += downmixRight[c] * in[c] * downmixNorm
		}

		out := frame * 2 * size
		writeValue(dst[out:], f, left)
		writeValue(dst[out+size:], f, right)
	}
}

// readValue returns a sample as float64 in the units of its own encoding.
func readValue(b []byte, f format.SampleFormat) float64 {
	if f.IsFloat() {
		return float64(math.Float32frombits(binary.NativeEndian.Uint32(b)))
	}

	return float64(sampleInt(b, f))
}

func writeValue(b []byte, f format.SampleFormat, v float64) {
	if f.IsFloat() {
		binary.NativeEndian.PutUint32(b, math.Float32bits(float32(v)))

		return
	}

	putSampleInt(b, f, clampCode(v, fullScale(f)))
}
