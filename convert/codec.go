package convert

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gen2brain/alsaout/format"
)

// All codec functions take and produce samples in native byte order.

// sampleInt reads one fixed-point sample as a signed value in [-2^(bits-1), 2^(bits-1)-1].
// Unsigned encodings are re-centered by flipping the top bit.
func sampleInt(b []byte, f format.SampleFormat) int32 {
	switch f.Width {
	case format.Width8:
		u := b[0]
		if !f.Signed {
			u ^= 0x80
		}

		return int32(int8(u))
	case format.Width16:
		u := binary.NativeEndian.Uint16(b)
		if !f.Signed {
			u ^= 0x8000
		}

		return int32(int16(u))
	case format.Width24:
		u := binary.NativeEndian.Uint32(b) & 0xffffff
		if !f.Signed {
			u ^= 0x800000
		}

		return int32(u<<8) >> 8
	case format.Width24Packed:
		var u uint32
		if format.NativeOrder == format.LittleEndian {
			u = uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
		} else {
			u = uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
		}

		if !f.Signed {
			u ^= 0x800000
		}

		return int32(u<<8) >> 8
	case format.Width32:
		u := binary.NativeEndian.Uint32(b)
		if !f.Signed {
			u ^= 0x80000000
		}

		return int32(u)
	default:
		panic(fmt.Sprintf("convert: %v is not a fixed-point format", f))
	}
}

// putSampleInt writes a signed value in the range of f's bits as one sample of f.
func putSampleInt(b []byte, f format.SampleFormat, v int32) {
	switch f.Width {
	case format.Width8:
		u := uint8(v)
		if !f.Signed {
			u ^= 0x80
		}

		b[0] = u
	case format.Width16:
		u := uint16(v)
		if !f.Signed {
			u ^= 0x8000
		}

		binary.NativeEndian.PutUint16(b, u)
	case format.Width24:
		u := uint32(v)
		if !f.Signed {
			u = (u ^ 0x800000) & 0xffffff
		}

		binary.NativeEndian.PutUint32(b, u)
	case format.Width24Packed:
		u := uint32(v)
		if !f.Signed {
			u ^= 0x800000
		}

		if format.NativeOrder == format.LittleEndian {
			b[0], b[1], b[2] = byte(u), byte(u>>8), byte(u>>16)
		} else {
			b[0], b[1], b[2] = byte(u>>16), byte(u>>8), byte(u)
		}
	case format.Width32:
		u := uint32(v)
		if !f.Signed {
			u ^= 0x80000000
		}

		binary.NativeEndian.PutUint32(b, u)
	default:
		panic(fmt.Sprintf("convert: %v is not a fixed-point format", f))
	}
}

// fullScale returns 2^(bits-1) for a fixed-point format.
func fullScale(f format.SampleFormat) float64 {
	return float64(uint64(1) << (f.Bits() - 1))
}

// quantize rounds x*scale to the nearest integer code and clamps it to [-scale, scale-1].
func quantize(x, scale float64) int32 {
	return clampCode(x*scale, scale)
}

// clampCode rounds v to the nearest integer and clamps it to [-scale, scale-1]. NaN maps to 0.
func clampCode(v, scale float64) int32 {
	if math.IsNaN(v) {
		return 0
	}

	v = math.Round(v)
	if v >= scale {
		return int32(scale - 1)
	}

	if v < -scale {
		return int32(-scale)
	}

	return int32(v)
}

func checkSamples(src []byte, f format.SampleFormat) int {
	size := f.Bytes()
	if size == 0 {
		panic(fmt.Sprintf("convert: invalid sample format %v", f))
	}

	if len(src)%size != 0 {
		panic(fmt.Sprintf("convert: %d bytes is not a whole number of %v samples", len(src), f))
	}

	return len(src) / size
}

// ToFloat decodes native-endian samples of f into dst, which must hold len(src)/f.Bytes() values.
// Fixed-point codes map to v / 2^(bits-1).
func ToFloat(dst []float32, src []byte, f format.SampleFormat) {
	n := checkSamples(src, f)
	size := f.Bytes()

	if f.IsFloat() {
		for i := 0; i < n; i++ {
			dst[i] = math.Float32frombits(binary.NativeEndian.Uint32(src[i*4:]))
		}

		return
	}

	scale := fullScale(f)
	for i := 0; i < n; i++ {
		dst[i] = float32(float64(sampleInt(src[i*size:], f)) / scale)
	}
}

// FromFloat encodes samples into native-endian f, dst must hold len(src)*f.Bytes() bytes.
// Values are rounded to the nearest code and clamped to the representable range.
func FromFloat(dst []byte, src []float32, f format.SampleFormat) {
	if f.Bytes() == 0 {
		panic(fmt.Sprintf("convert: invalid sample format %v", f))
	}

	size := f.Bytes()

	if f.IsFloat() {
		for i, v := range src {
			binary.NativeEndian.PutUint32(dst[i*4:], math.Float32bits(v))
		}

		return
	}

	scale := fullScale(f)
	for i, v := range src {
		putSampleInt(dst[i*size:], f, quantize(float64(v), scale))
	}
}

// ToS16 decodes native-endian samples of f into 16-bit working precision.
// Wider formats keep their top 16 bits and 8-bit formats are shifted up.
func ToS16(dst []int16, src []byte, f format.SampleFormat) {
	n := checkSamples(src, f)
	size := f.Bytes()

	if f.IsFloat() {
		for i := 0; i < n; i++ {
			v := math.Float32frombits(binary.NativeEndian.Uint32(src[i*4:]))
			dst[i] = int16(quantize(float64(v), 32768))
		}

		return
	}

	shift := f.Bits() - 16
	for i := 0; i < n; i++ {
		v := sampleInt(src[i*size:], f)
		if shift >= 0 {
			dst[i] = int16(v >> shift)
		} else {
			dst[i] = int16(v << -shift)
		}
	}
}

// FromS16 encodes 16-bit working samples into native-endian f.
// Wider formats are filled by shifting, except that the 16-bit maximum becomes the maximum of f.
func FromS16(dst []byte, src []int16, f format.SampleFormat) {
	if f.Bytes() == 0 {
		panic(fmt.Sprintf("convert: invalid sample format %v", f))
	}

	size := f.Bytes()

	if f.IsFloat() {
		for i, v := range src {
			binary.NativeEndian.PutUint32(dst[i*4:], math.Float32bits(float32(v)/32768))
		}

		return
	}

	shift := f.Bits() - 16
	for i, v := range src {
		w := int32(v)
		switch {
		case shift > 0 && v == math.MaxInt16:
			w = w<<shift | (1<<shift - 1)
		case shift >= 0:
			w <<= shift
		default:
			w >>= -shift
		}

		putSampleInt(dst[i*size:], f, w)
	}
}

// Narrow converts native-endian fixed-point samples to a format with fewer significant bits
// (or the same bits in another container) by shifting, without an intermediate precision.
func Narrow(dst, src []byte, from, to format.SampleFormat) {
	if from.IsFloat() || to.IsFloat() {
		panic(fmt.Sprintf("convert: narrowing %v to %v needs a fixed-point pair", from, to))
	}

	n := checkSamples(src, from)
	shift := from.Bits() - to.Bits()
	if shift < 0 {
		panic(fmt.Sprintf("convert: %v to %v widens", from, to))
	}

	inSize, outSize := from.Bytes(), to.Bytes()
	for i := 0; i < n; i++ {
		putSampleInt(dst[i*outSize:], to, sampleInt(src[i*inSize:], from)>>shift)
	}
}

// Recode converts between two fixed-point formats with the same significant bits,
// such as a signedness change or 24-bit container repacking.
func Recode(dst, src []byte, from, to format.SampleFormat) {
	Narrow(dst, src, from, to)
}
