// Package codec implements the game's proprietary LZ77/RLE payload codec.
//
// Decompress and Compress are pure byte-string to byte-string transforms:
// no I/O, no global state, no knowledge of the ROM's pointer table or the
// on-disk word-flip framing (that lives one layer up, in filetable; see
// that package's doc comment for why).
package codec

import (
	"bytes"
	"errors"
	"fmt"
)

// Error sentinels, matching spec's codec error taxonomy.
var (
	// ErrTruncated is returned when an opcode's back-reference or literal
	// copy would read past the end of the input.
	ErrTruncated = errors.New("codec: truncated input")
	// ErrBadOpcode is returned for an opcode byte the decoder doesn't
	// recognize. Given the opcode ranges in use, this should never occur on
	// a valid stream; it is reserved for future codec extensions.
	ErrBadOpcode = errors.New("codec: unrecognized opcode")
	// ErrMismatch is returned when decompression disagrees with supplied
	// validation bytes, or when Compress's internal round-trip self-check
	// fails.
	ErrMismatch = errors.New("codec: decompressed output does not match")
)

// Decompress expands a compressed byte stream (without the 4-byte container
// length header and without word-flip framing, both are FileTable concerns).
// If validation is non-nil, the accumulated output is checked to
// be a prefix of validation after every opcode; a mismatch aborts
// immediately with ErrMismatch.
func Decompress(feed []byte, validation []byte) ([]byte, error) {
	var out []byte
	pos := 0

	checkPrefix := func() error {
		if validation == nil {
			return nil
		}
		if len(out) > len(validation) || !bytes.Equal(out, validation[:len(out)]) {
			return ErrMismatch
		}
		return nil
	}

	for pos < len(feed) {
		opcode := feed[pos]
		pos++

		switch {
		case opcode == 0x00 && pos >= len(feed):
			// Terminal opcode with no trailing byte: emit two zero bytes and stop.
			out = append(out, 0x00, 0x00)
			if err := checkPrefix(); err != nil {
				return nil, err
			}
			return out, nil

		case opcode == 0xFF:
			if pos >= len(feed) {
				return nil, fmt.Errorf("%w: missing RLE_C length byte", ErrTruncated)
			}
			length := int(feed[pos]) + 2
			pos++
			out = append(out, make([]byte, length)...)

		case opcode >= 0x80 && opcode <= 0xBF:
			length := int(opcode & 0x7F)
			if pos+length > len(feed) {
				return nil, fmt.Errorf("%w: raw copy of %d bytes", ErrTruncated, length)
			}
			out = append(out, feed[pos:pos+length]...)
			pos += length

		case opcode >= 0xC0 && opcode <= 0xDF:
			if pos >= len(feed) {
				return nil, fmt.Errorf("%w: missing RLE_A fill byte", ErrTruncated)
			}
			fill := feed[pos]
			pos++
			length := int(opcode&0x1F) + 2
			run := bytes.Repeat([]byte{fill}, length)
			out = append(out, run...)

		case opcode >= 0xE0: // 0xE0..0xFE (0xFF already handled above)
			length := int(opcode&0x1F) + 2
			out = append(out, make([]byte, length)...)

		case opcode <= 0x7F:
			if pos >= len(feed) {
				return nil, fmt.Errorf("%w: missing back-reference low byte", ErrTruncated)
			}
			lo := feed[pos]
			pos++
			length := int(opcode>>2) + 2
			lookback := (int(opcode&0x03) << 8) | int(lo)

			if lookback == 0 {
				// A zero lookback emits a single zero byte, whatever the length.
				out = append(out, 0x00)
				break
			}
			if lookback > len(out) {
				return nil, fmt.Errorf("%w: back-reference of %d exceeds %d decoded bytes", ErrTruncated, lookback, len(out))
			}
			segment := append([]byte(nil), out[len(out)-lookback:]...)
			if len(segment) > length {
				segment = segment[:length]
			}
			for len(segment) < length {
				segment = append(segment, segment...)
			}
			segment = segment[:length]
			out = append(out, segment...)

		default:
			return nil, ErrBadOpcode
		}

		if err := checkPrefix(); err != nil {
			return nil, err
		}
	}

	return out, nil
}
