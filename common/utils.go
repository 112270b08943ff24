package common

import "encoding/binary"

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// AlignUp rounds v up to the next multiple of alignment. An alignment of 0 returns v unchanged.
//
// Parameters:
//   - v: the value to round
//   - alignment: the required multiple
//
// Returns:
//   - uint32: the smallest multiple of alignment that is >= v
func AlignUp(v, alignment uint32) uint32 {
	if alignment == 0 {
		return v
	}
	return (v + alignment - 1) / alignment * alignment
}

// SPIRVWords converts a little-endian SPIR-V byte stream into 32-bit words.
// Trailing bytes that do not form a full word are ignored.
//
// Parameters:
//   - b: the SPIR-V binary as bytes
//
// Returns:
//   - []uint32: the SPIR-V binary as words
func SPIRVWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words
}
