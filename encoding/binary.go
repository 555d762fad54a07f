// Package encoding provides the big-endian byte accessors shared by every
// layer of the ROM engine. Pointer-table entries, room metadata headers,
// entity field storage, and the loading tables are all big-endian, matching
// the console's native word order.
package encoding

import (
	"encoding/binary"
)

// Read16 reads a big-endian uint16 from b at the given offset.
func Read16(b []byte, offset int) uint16 {
	return binary.BigEndian.Uint16(b[offset:])
}

// Read32 reads a big-endian uint32 from b at the given offset.
func Read32(b []byte, offset int) uint32 {
	return binary.BigEndian.Uint32(b[offset:])
}

// Write16 writes a big-endian uint16 into b at the given offset.
func Write16(b []byte, offset int, v uint16) {
	binary.BigEndian.PutUint16(b[offset:], v)
}

// Write32 writes a big-endian uint32 into b at the given offset.
func Write32(b []byte, offset int, v uint32) {
	binary.BigEndian.PutUint32(b[offset:], v)
}

// SubArray returns a copy of input[startIdx:endIdx+1] (inclusive end, matching
// the ROM layer's habit of describing segments by their last valid byte).
func SubArray(input []byte, startIdx, endIdx int) []byte {
	size := endIdx - startIdx + 1
	output := make([]byte, size)
	copy(output, input[startIdx:endIdx+1])
	return output
}

// SubArrayFromStart returns a copy of input[startIdx:].
func SubArrayFromStart(input []byte, startIdx int) []byte {
	return SubArray(input, startIdx, len(input)-1)
}

// Pad4 rounds n up to the next multiple of 4.
func Pad4(n int) int {
	return (n + 3) &^ 3
}

// PadAlign rounds n up to the next multiple of align.
func PadAlign(n, align int) int {
	return (n + align - 1) / align * align
}

// PadSlice returns b with zero bytes appended so its length is a multiple
// of align.
func PadSlice(b []byte, align int) []byte {
	padded := PadAlign(len(b), align)
	if padded == len(b) {
		return append([]byte(nil), b...)
	}
	out := make([]byte, padded)
	copy(out, b)
	return out
}
