// Package format describes interleaved PCM sample encodings and stream parameters.
package format

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is returned for sample formats and stream parameters that cannot describe real audio.
var ErrInvalid = errors.New("invalid format")

// Width is the bit-width category of a sample.
type Width uint8

const (
	WidthInvalid Width = iota
	Width8
	Width16
	// Width24 is a 24-bit sample stored low-aligned in a 4-byte container.
	Width24
	// Width24Packed is a 24-bit sample stored in exactly 3 bytes.
	Width24Packed
	Width32
	// WidthFloat is a 32-bit IEEE-754 sample in [-1, 1].
	WidthFloat
)

// ByteOrder is the byte order of multi-byte samples.
type ByteOrder uint8

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

// NativeOrder is the byte order of the running machine.
var NativeOrder = nativeOrder()

func nativeOrder() ByteOrder {
	if binary.NativeEndian.Uint16([]byte{1, 0}) == 1 {
		return LittleEndian
	}

	return BigEndian
}

// String returns "LE" or "BE".
func (o ByteOrder) String() string {
	if o == BigEndian {
		return "BE"
	}

	return "LE"
}

// Binary returns the encoding/binary order matching o.
func (o ByteOrder) Binary() binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// SampleFormat is one sample encoding. Order is only meaningful for multi-byte widths
// and is normalized to NativeOrder otherwise.
type SampleFormat struct {
	Width  Width
	Signed bool
	Order  ByteOrder
}

// Common formats.
var (
	S8      = SampleFormat{Width: Width8, Signed: true, Order: NativeOrder}
	U8      = SampleFormat{Width: Width8, Signed: false, Order: NativeOrder}
	S16LE   = SampleFormat{Width: Width16, Signed: true, Order: LittleEndian}
	S16BE   = SampleFormat{Width: Width16, Signed: true, Order: BigEndian}
	U16LE   = SampleFormat{Width: Width16, Signed: false, Order: LittleEndian}
	U16BE   = SampleFormat{Width: Width16, Signed: false, Order: BigEndian}
	S24LE   = SampleFormat{Width: Width24, Signed: true, Order: LittleEndian}
	S24BE   = SampleFormat{Width: Width24, Signed: true, Order: BigEndian}
	U24LE   = SampleFormat{Width: Width24, Signed: false, Order: LittleEndian}
	U24BE   = SampleFormat{Width: Width24, Signed: false, Order: BigEndian}
	S24_3LE = SampleFormat{Width: Width24Packed, Signed: true, Order: LittleEndian}
	S24_3BE = SampleFormat{Width: Width24Packed, Signed: true, Order: BigEndian}
	U24_3LE = SampleFormat{Width: Width24Packed, Signed: false, Order: LittleEndian}
	U24_3BE = SampleFormat{Width: Width24Packed, Signed: false, Order: BigEndian}
	S32LE   = SampleFormat{Width: Width32, Signed: true, Order: LittleEndian}
	S32BE   = SampleFormat{Width: Width32, Signed: true, Order: BigEndian}
	U32LE   = SampleFormat{Width: Width32, Signed: false, Order: LittleEndian}
	U32BE   = SampleFormat{Width: Width32, Signed: false, Order: BigEndian}
	FloatLE = SampleFormat{Width: WidthFloat, Signed: true, Order: LittleEndian}
	FloatBE = SampleFormat{Width: WidthFloat, Signed: true, Order: BigEndian}
)

// Native-endian shorthands.
var (
	S16   = SampleFormat{Width: Width16, Signed: true, Order: NativeOrder}
	S24   = SampleFormat{Width: Width24, Signed: true, Order: NativeOrder}
	S24_3 = SampleFormat{Width: Width24Packed, Signed: true, Order: NativeOrder}
	S32   = SampleFormat{Width: Width32, Signed: true, Order: NativeOrder}
	Float = SampleFormat{Width: WidthFloat, Signed: true, Order: NativeOrder}
)

// New builds a validated, normalized SampleFormat.
func New(width Width, signed bool, order ByteOrder) (SampleFormat, error) {
	f := SampleFormat{Width: width, Signed: signed, Order: order}.Normalize()
	if err := f.Validate(); err != nil {
		return SampleFormat{}, err
	}

	return f, nil
}

// Normalize returns f with the byte order of 1-byte formats set to NativeOrder.
func (f SampleFormat) Normalize() SampleFormat {
	if f.Width == Width8 {
		f.Order = NativeOrder
	}

	return f
}

// Validate reports whether f is a well-formed format.
func (f SampleFormat) Validate() error {
	switch f.Width {
	case Width8, Width16, Width24, Width24Packed, Width32:
	case WidthFloat:
		if !f.Signed {
			return fmt.Errorf("%w: unsigned float", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: width %d", ErrInvalid, f.Width)
	}

	if f.Order != LittleEndian && f.Order != BigEndian {
		return fmt.Errorf("%w: byte order %d", ErrInvalid, f.Order)
	}

	if f.Width == Width8 && f.Order != NativeOrder {
		return fmt.Errorf("%w: byte order set on a 1-byte format", ErrInvalid)
	}

	return nil
}

// Valid is Validate() == nil.
func (f SampleFormat) Valid() bool {
	return f.Validate() == nil
}

// Bytes returns the storage size of one sample.
func (f SampleFormat) Bytes() int {
	switch f.Width {
	case Width8:
		return 1
	case Width16:
		return 2
	case Width24Packed:
		return 3
	case Width24, Width32, WidthFloat:
		return 4
	default:
		return 0
	}
}

// Bits returns the number of significant bits of one sample.
func (f SampleFormat) Bits() int {
	switch f.Width {
	case Width8:
		return 8
	case Width16:
		return 16
	case Width24, Width24Packed:
		return 24
	case Width32, WidthFloat:
		return 32
	default:
		return 0
	}
}

// IsFloat reports whether f is the float format.
func (f SampleFormat) IsFloat() bool {
	return f.Width == WidthFloat
}

// IsNative reports whether samples of f are in the machine byte order.
func (f SampleFormat) IsNative() bool {
	return f.Bytes() <= 1 || f.Order == NativeOrder
}

// WithOrder returns f in byte order o.
func (f SampleFormat) WithOrder(o ByteOrder) SampleFormat {
	f.Order = o

	return f.Normalize()
}

// Native returns f in the machine byte order.
func (f SampleFormat) Native() SampleFormat {
	return f.WithOrder(NativeOrder)
}

// WithSign returns f with the given signedness.
func (f SampleFormat) WithSign(signed bool) SampleFormat {
	f.Signed = signed

	return f
}

// String returns the ALSA-style name, e.g. "S16_LE", "U8", "S24_3BE" or "FLOAT_LE".
func (f SampleFormat) String() string {
	if !f.Valid() {
		return "INVALID"
	}

	if f.Width == WidthFloat {
		return "FLOAT_" + f.Order.String()
	}

	sign := "U"
	if f.Signed {
		sign = "S"
	}

	switch f.Width {
	case Width8:
		return sign + "8"
	case Width24Packed:
		return sign + "24_3" + f.Order.String()
	default:
		return fmt.Sprintf("%s%d_%s", sign, f.Bits(), f.Order)
	}
}

// Parse reads a format name as printed by String. Names without a byte order suffix
// ("S16", "FLOAT", "S24_3") are taken as native-endian. Parsing is case-insensitive.
func Parse(name string) (SampleFormat, error) {
	s := strings.ToUpper(strings.TrimSpace(name))

	order := NativeOrder
	switch {
	case strings.HasSuffix(s, "_LE"):
		order, s = LittleEndian, strings.TrimSuffix(s, "_LE")
	case strings.HasSuffix(s, "_BE"):
		order, s = BigEndian, strings.TrimSuffix(s, "_BE")
	case strings.HasSuffix(s, "_3LE"):
		order, s = LittleEndian, strings.TrimSuffix(s, "LE")
	case strings.HasSuffix(s, "_3BE"):
		order, s = BigEndian, strings.TrimSuffix(s, "BE")
	}

	if s == "FLOAT" {
		return New(WidthFloat, true, order)
	}

	if len(s) < 2 || (s[0] != 'S' && s[0] != 'U') {
		return SampleFormat{}, fmt.Errorf("%w: unknown format name %q", ErrInvalid, name)
	}

	signed := s[0] == 'S'

	var width Width
	switch s[1:] {
	case "8":
		width = Width8
	case "16":
		width = Width16
	case "24":
		width = Width24
	case "24_3":
		width = Width24Packed
	case "32":
		width = Width32
	default:
		return SampleFormat{}, fmt.Errorf("%w: unknown format name %q", ErrInvalid, name)
	}

	return New(width, signed, order)
}

// Silence returns the encoding of one silent sample in f.
// Signed and float formats are all-zero; unsigned formats are the midpoint code.
func (f SampleFormat) Silence() []byte {
	b := make([]byte, f.Bytes())
	if f.Signed {
		return b
	}

	// The midpoint sets only the most significant bit of the significant bits.
	switch f.Width {
	case Width8:
		b[0] = 0x80
	case Width16:
		f.Order.Binary().PutUint16(b, 0x8000)
	case Width24:
		f.Order.Binary().PutUint32(b, 0x800000)
	case Width24Packed:
		if f.Order == BigEndian {
			b[0] = 0x80
		} else {
			b[2] = 0x80
		}
	case Width32:
		f.Order.Binary().PutUint32(b, 0x80000000)
	}

	return b
}

// FillSilence overwrites buf with silent samples of f. len(buf) must be a multiple of f.Bytes().
func (f SampleFormat) FillSilence(buf []byte) {
	pattern := f.Silence()
	if len(pattern) == 0 {
		panic(fmt.Sprintf("format: silence for invalid format %v", f))
	}

	if len(buf)%len(pattern) != 0 {
		panic(fmt.Sprintf("format: %d bytes is not a whole number of %v samples", len(buf), f))
	}

	for i := 0; i < len(buf); i += len(pattern) {
		copy(buf[i:], pattern)
	}
}
