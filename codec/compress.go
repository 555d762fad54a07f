package codec

import "fmt"

// Mode opcodes, named the way the decoder's ranges are named in spec.
const (
	modeWindowCopy = 0x00
	modeRawCopy    = 0x80
	modeRLEWriteA  = 0xC0
	modeRLEWriteC  = 0xFF
)

const (
	windowSize = 0x3FF
	copySize   = 0x21  // max WINDOW_COPY / RLE_A chunk length
	rleSize    = 0x101 // max forward-run length
)

// Compress encodes src using the greedy two-window scheme from spec: at
// each position it prefers the longest back-window match, falls back to a
// forward run-length match, and otherwise buffers a raw literal. The
// 4-byte container length header is prepended but the payload is NOT
// word-flipped (that framing is applied by filetable, once, at write time).
//
// Compress self-checks its own output by decompressing it and comparing
// against src; this is the "fatal if violated" self-check spec requires in
// place of matching any particular reference encoder byte-for-byte.
func Compress(src []byte) ([]byte, error) {
	out := make([]byte, 0, len(src)+len(src)/8+16)
	out = append(out, 0x00, 0x00, 0x00, 0x00) // placeholder length header

	n := len(src)
	pos := 0
	lastCopy := 0

	flushRaw := func(upTo int) {
		for upTo > lastCopy {
			chunk := upTo - lastCopy
			if chunk > 0x1F {
				chunk = 0x1F
			}
			out = append(out, byte(modeRawCopy|chunk))
			out = append(out, src[lastCopy:lastCopy+chunk]...)
			lastCopy += chunk
		}
	}

	for pos < n {
		copyMax := min(copySize, n-1-pos)
		rleMax := min(rleSize, n-1-pos)

		matchPos, matchLen := windowSearch(src, pos, copyMax)
		runLen, runVal := forwardRun(src, pos, rleMax)

		useWindow := matchLen >= 3
		useRLE := !useWindow && (runLen >= 3 || (runLen >= 2 && runVal == 0))

		if !useWindow && !useRLE {
			// No mode chosen at this position: extend the pending raw
			// literal run by one byte, flushing if it has grown too large
			// or we're one byte from the end.
			pos++
			if pos-lastCopy >= 0x1F || pos+1 >= n {
				flushRaw(pos)
			}
			continue
		}

		flushRaw(pos)

		if useWindow {
			lookback := pos - matchPos
			hi := byte(modeWindowCopy) | byte((lookback>>8)&0x03) | byte(((matchLen-2)&0x1F)<<2)
			out = append(out, hi, byte(lookback&0xFF))
			pos += matchLen
			lastCopy = pos
			continue
		}

		// RLE mode.
		if runVal != 0 {
			left := runLen
			for left > 0 {
				if left < 2 {
					// Underflow guard: a 1-byte remainder can't be encoded
					// as an RLE run, so it's dumped as a raw literal.
					out = append(out, byte(modeRawCopy|left))
					out = append(out, src[pos+runLen-left:pos+runLen]...)
					left = 0
					break
				}
				chunk := min(left, copySize)
				out = append(out, byte(modeRLEWriteA|((chunk-2)&0x1F)), runVal)
				left -= chunk
			}
		} else if runLen <= 0x20 {
			out = append(out, byte(0xE0|((runLen-2)&0x1F)))
		} else {
			out = append(out, modeRLEWriteC, byte(runLen-2))
		}
		pos += runLen
		lastCopy = pos
	}
	flushRaw(n)

	total := len(out)
	if total > 0xFFFFFF {
		return nil, fmt.Errorf("codec: compressed container of %d bytes exceeds 24-bit length field", total)
	}
	out[0] = 0x00
	out[1] = byte(total >> 16)
	out[2] = byte(total >> 8)
	out[3] = byte(total)

	decoded, err := Decompress(out[4:], src)
	if err != nil {
		return nil, fmt.Errorf("%w: round-trip self-check failed to decode: %v", ErrMismatch, err)
	}
	if !bytesEqual(decoded, src) {
		return nil, fmt.Errorf("%w: round-trip self-check produced different bytes", ErrMismatch)
	}
	return out, nil
}

// windowSearch finds the longest prefix match of src[pos:pos+maxLen] within
// the preceding windowSize bytes, breaking ties toward the latest (highest)
// starting position. O(window * maxLen) in the worst case; spec explicitly
// permits any search algorithm as long as the round-trip property holds, and
// documents that complexity bound here since some rooms compress
// multi-megabyte payloads.
func windowSearch(src []byte, pos, maxLen int) (matchPos, matchLen int) {
	if maxLen < 1 {
		return -1, 0
	}
	lo := pos - windowSize
	if lo < 0 {
		lo = 0
	}
	bestPos, bestLen := -1, 0
	for start := pos - 1; start >= lo; start-- {
		l := 0
		for l < maxLen && src[start+l] == src[pos+l] {
			l++
		}
		if l > bestLen {
			bestPos, bestLen = start, l
		}
	}
	return bestPos, bestLen
}

// forwardRun returns the length and value of the run of identical bytes
// starting at pos, capped at maxLen.
func forwardRun(src []byte, pos, maxLen int) (length int, value byte) {
	if maxLen < 1 {
		return 0, 0
	}
	value = src[pos]
	for length < maxLen && src[pos+length] == value {
		length++
	}
	return length, value
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
