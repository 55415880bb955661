// Package bitpack implements fixed-width integer stores backing categorical
// columns, packing unsigned integers at 2, 4 and 8 bits per value into byte
// buffers, and at 16 and 32 bits into natural-width buffers.
package bitpack

import "fmt"

// Format describes the bit width at which values of an Array are stored.
type Format int

const (
	Uint2 Format = iota
	Uint4
	Uint8
	Uint16
	Uint32
)

// MaxValue returns the largest value an Array of the format accepts: the
// full width for Uint2 to Uint16, and the largest int32 for Uint32, since
// values are read back as int32.
func (f Format) MaxValue() int {
	switch f {
	case Uint2:
		return 3
	case Uint4:
		return 15
	case Uint8:
		return 255
	case Uint16:
		return 65535
	default:
		return 1<<31 - 1
	}
}

// BitWidth returns the number of bits occupied by one value.
func (f Format) BitWidth() int {
	switch f {
	case Uint2:
		return 2
	case Uint4:
		return 4
	case Uint8:
		return 8
	case Uint16:
		return 16
	default:
		return 32
	}
}

func (f Format) String() string {
	switch f {
	case Uint2:
		return "UINT2"
	case Uint4:
		return "UINT4"
	case Uint8:
		return "UINT8"
	case Uint16:
		return "UINT16"
	case Uint32:
		return "UINT32"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatFor returns the narrowest format able to hold maxValue.
func FormatFor(maxValue int) Format {
	switch {
	case maxValue <= 3:
		return Uint2
	case maxValue <= 15:
		return Uint4
	case maxValue <= 255:
		return Uint8
	case maxValue <= 65535:
		return Uint16
	default:
		return Uint32
	}
}

// Array is a logical sequence of unsigned integers stored at a fixed bit
// width. The logical size may be smaller than the capacity of the backing
// buffer; reads and writes address logical indexes only.
type Array struct {
	format Format
	size   int
	bytes  []byte
	words  []uint16
	ints   []uint32
}

// Make returns an Array of the given logical size with a zeroed backing
// buffer sized for the format.
func Make(format Format, size int) Array {
	a := Array{format: format, size: size}
	switch format {
	case Uint2:
		a.bytes = make([]byte, (size+3)/4)
	case Uint4:
		a.bytes = make([]byte, (size+1)/2)
	case Uint8:
		a.bytes = make([]byte, size)
	case Uint16:
		a.words = make([]uint16, size)
	default:
		a.ints = make([]uint32, size)
	}
	return a
}

// MakeFromBytes wraps an existing packed byte buffer holding size logical
// values at a byte-packed format (Uint2, Uint4 or Uint8). The buffer may be
// longer than strictly required; trailing bits are ignored.
func MakeFromBytes(format Format, buffer []byte, size int) Array {
	switch format {
	case Uint2, Uint4, Uint8:
	default:
		panic("bitpack: " + format.String() + " is not a byte-packed format")
	}
	return Array{format: format, size: size, bytes: buffer}
}

// MakeFromUint16 wraps an existing uint16 buffer.
func MakeFromUint16(buffer []uint16, size int) Array {
	return Array{format: Uint16, size: size, words: buffer}
}

// MakeFromUint32 wraps an existing uint32 buffer.
func MakeFromUint32(buffer []uint32, size int) Array {
	return Array{format: Uint32, size: size, ints: buffer}
}

func (a *Array) Format() Format { return a.format }

func (a *Array) Len() int { return a.size }

// Index reads the value at logical index i. The index must be within
// [0, Len).
func (a *Array) Index(i int) int {
	if i < 0 || i >= a.size {
		panic(fmt.Sprintf("bitpack: index out of range [%d] with length %d", i, a.size))
	}
	switch a.format {
	case Uint2:
		shift := uint(i&3) << 1
		return int((a.bytes[i>>2] >> shift) & 3)
	case Uint4:
		shift := uint(i&1) << 2
		return int((a.bytes[i>>1] >> shift) & 15)
	case Uint8:
		return int(a.bytes[i])
	case Uint16:
		return int(a.words[i])
	default:
		return int(a.ints[i])
	}
}

// Set writes v at logical index i. The value must fit the format's width.
func (a *Array) Set(i, v int) {
	if i < 0 || i >= a.size {
		panic(fmt.Sprintf("bitpack: index out of range [%d] with length %d", i, a.size))
	}
	if v < 0 || v > a.format.MaxValue() {
		panic(fmt.Sprintf("bitpack: value %d does not fit %s", v, a.format))
	}
	switch a.format {
	case Uint2:
		shift := uint(i&3) << 1
		b := &a.bytes[i>>2]
		*b = (*b &^ (3 << shift)) | (byte(v) << shift)
	case Uint4:
		shift := uint(i&1) << 2
		b := &a.bytes[i>>1]
		*b = (*b &^ (15 << shift)) | (byte(v) << shift)
	case Uint8:
		a.bytes[i] = byte(v)
	case Uint16:
		a.words[i] = uint16(v)
	default:
		a.ints[i] = uint32(v)
	}
}

// Fill copies values into dst starting at logical index start, returning
// the number of values copied. The loops are specialized per format to keep
// the hot path free of per-value format dispatch.
func (a *Array) Fill(dst []int32, start int) int {
	if start < 0 {
		panic(fmt.Sprintf("bitpack: negative start index %d", start))
	}
	if start >= a.size {
		return 0
	}
	n := a.size - start
	if n > len(dst) {
		n = len(dst)
	}
	switch a.format {
	case Uint2:
		for j := 0; j < n; j++ {
			i := start + j
			dst[j] = int32((a.bytes[i>>2] >> (uint(i&3) << 1)) & 3)
		}
	case Uint4:
		for j := 0; j < n; j++ {
			i := start + j
			dst[j] = int32((a.bytes[i>>1] >> (uint(i&1) << 2)) & 15)
		}
	case Uint8:
		for j := 0; j < n; j++ {
			dst[j] = int32(a.bytes[start+j])
		}
	case Uint16:
		for j := 0; j < n; j++ {
			dst[j] = int32(a.words[start+j])
		}
	default:
		for j := 0; j < n; j++ {
			dst[j] = int32(a.ints[start+j])
		}
	}
	return n
}

// AppendTo appends all logical values of a to dst and returns the extended
// slice.
func (a *Array) AppendTo(dst []int32) []int32 {
	for i := 0; i < a.size; i++ {
		dst = append(dst, int32(a.Index(i)))
	}
	return dst
}
