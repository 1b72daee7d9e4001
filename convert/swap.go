package convert

import (
	"fmt"

	"github.com/gen2brain/alsaout/format"
)

// Swap reverses the byte order of every sample of f in src and stores the result in dst.
// dst and src may be the same slice. One-byte formats are copied unchanged.
func Swap(dst, src []byte, f format.SampleFormat) {
	size := f.Bytes()
	checkSamples(src, f)

	if len(dst) < len(src) {
		panic(fmt.Sprintf("convert: swap destination holds %d of %d bytes", len(dst), len(src)))
	}

	switch size {
	case 1:
		copy(dst, src)
	case 2:
		for i := 0; i+1 < len(src); i += 2 {
			dst[i], dst[i+1] = src[i+1], src[i]
		}
	case 3:
		for i := 0; i+2 < len(src); i += 3 {
			dst[i], dst[i+1], dst[i+2] = src[i+2], src[i+1], src[i]
		}
	case 4:
		for i := 0; i+3 < len(src); i += 4 {
			dst[i], dst[i+1], dst[i+2], dst[i+3] = src[i+3], src[i+2], src[i+1], src[i]
		}
	}
}
