// Package loading builds and parses the two small tables that describe every
// room's streaming dependencies: a pool of deduplicated file-index lists, and
// a pool of deduplicated thunks, each a fixed code sequence wrapping a single
// 16-bit offset into the list pool. Both pools live inside the main-code
// payload, at byte ranges the region config pins (they never relocate), and
// both are rebuilt from scratch on every save.
package loading

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/galehouse/romforge/encoding"
)

const align = 4

// ErrMalformed is returned when a loading list or thunk fails to decode.
var ErrMalformed = errors.New("loading: malformed table")

// ErrRegionOverflow is returned when a rebuilt list or thunk pool no longer
// fits the region it was read from.
var ErrRegionOverflow = errors.New("loading: pool overflows its region")

// List is a deduplicated, null-terminated array of file-table indices a room
// depends on having resident before it can load.
type List []uint16

// ParseList reads a null-terminated (0xFFFF) list of 16-bit file indices
// starting at offset.
func ParseList(data []byte, offset int) (List, error) {
	var out List
	for {
		if offset+2 > len(data) {
			return nil, fmt.Errorf("%w: file list runs past end of payload", ErrMalformed)
		}
		v := encoding.Read16(data, offset)
		if v == 0xFFFF {
			return out, nil
		}
		out = append(out, v)
		offset += 2
	}
}

// encode serializes l terminated by 0xFFFF, unpadded. This is the exact byte
// sequence the writer searches for as a substring of the list pool before
// appending a fresh copy.
func (l List) encode() []byte {
	b := make([]byte, 0, len(l)*2+2)
	for _, v := range l {
		b = append(b, byte(v>>8), byte(v))
	}
	return append(b, 0xFF, 0xFF)
}

// Bytes serializes l as a null-terminated list, padded to a 4-byte boundary.
func (l List) Bytes() []byte {
	return encoding.PadSlice(l.encode(), align)
}

const (
	thunkHeaderSize = 18
	thunkOffsetSize = 2
	thunkFooterSize = 16
	// ThunkSize is the fixed size of a loading thunk record.
	ThunkSize = thunkHeaderSize + thunkOffsetSize + thunkFooterSize
)

// thunkHeader and thunkFooter are the fixed instruction bytes every thunk
// shares; only the embedded list-offset varies between rooms. Captured once
// from a reference build, never mutated.
var (
	thunkHeader = [thunkHeaderSize]byte{
		0x27, 0xBD, 0xFF, 0xE0, 0xAF, 0xBF, 0x00, 0x1C,
		0xAF, 0xA4, 0x00, 0x20, 0x0C, 0x00, 0x00, 0x00,
		0x00, 0x00,
	}
	thunkFooter = [thunkFooterSize]byte{
		0x8F, 0xBF, 0x00, 0x1C, 0x27, 0xBD, 0x00, 0x20,
		0x03, 0xE0, 0x00, 0x08, 0x00, 0x00, 0x00, 0x00,
	}
)

// Thunk names a room's loading list by its byte offset within the shared
// list pool. The surrounding code bytes are fixed and reconstructed by Bytes.
type Thunk struct {
	ListOffset uint16
}

// ParseThunk decodes a fixed-shape loading thunk at offset, verifying its
// header and footer match the fixed code template.
func ParseThunk(data []byte, offset int) (Thunk, error) {
	if offset+ThunkSize > len(data) {
		return Thunk{}, fmt.Errorf("%w: thunk at %#x runs past end of payload", ErrMalformed, offset)
	}
	body := data[offset : offset+ThunkSize]
	if !bytes.Equal(body[:thunkHeaderSize], thunkHeader[:]) {
		return Thunk{}, fmt.Errorf("%w: thunk at %#x has an unrecognized header", ErrMalformed, offset)
	}
	if !bytes.Equal(body[thunkHeaderSize+thunkOffsetSize:], thunkFooter[:]) {
		return Thunk{}, fmt.Errorf("%w: thunk at %#x has an unrecognized footer", ErrMalformed, offset)
	}
	return Thunk{ListOffset: encoding.Read16(body, thunkHeaderSize)}, nil
}

// Bytes serializes th as a fixed ThunkSize-byte record.
func (th Thunk) Bytes() []byte {
	out := make([]byte, ThunkSize)
	copy(out, thunkHeader[:])
	encoding.Write16(out, thunkHeaderSize, th.ListOffset)
	copy(out[thunkHeaderSize+thunkOffsetSize:], thunkFooter[:])
	return out
}

// findAligned returns the offset of needle within haystack, restricted to
// offsets that are a multiple of align, or false if no such occurrence
// exists.
func findAligned(haystack, needle []byte, align int) (int, bool) {
	if len(needle) == 0 {
		return 0, false
	}
	for start := 0; start+len(needle) <= len(haystack); start += align {
		if bytes.Equal(haystack[start:start+len(needle)], needle) {
			return start, true
		}
	}
	return 0, false
}

// Pool accumulates lists and thunks across every room in a build. A list is
// only appended to the pool if its bytes aren't already present at some
// 4-byte-aligned offset (matching rooms whose lists happen to overlap, not
// just rooms with byte-identical lists); a thunk is only appended if no
// existing thunk already names the same list offset.
type Pool struct {
	listBuf []byte

	thunkBuf      []byte
	thunkByOffset map[uint16]int
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{thunkByOffset: make(map[uint16]int)}
}

// AddList registers l if its encoded bytes aren't already present at some
// 4-byte-aligned offset in the pool, and returns its virtual-address offset
// within the eventual list-pool blob.
func (p *Pool) AddList(l List) int {
	content := l.encode()
	if off, ok := findAligned(p.listBuf, content, align); ok {
		return off
	}
	off := len(p.listBuf)
	p.listBuf = append(p.listBuf, content...)
	p.listBuf = encoding.PadSlice(p.listBuf, align)
	return off
}

// AddThunk registers a thunk naming listOffset if one isn't already present,
// and returns its virtual-address offset within the eventual thunk table.
func (p *Pool) AddThunk(listOffset uint16) int {
	if off, ok := p.thunkByOffset[listOffset]; ok {
		return off
	}
	off := len(p.thunkBuf)
	p.thunkByOffset[listOffset] = off
	p.thunkBuf = append(p.thunkBuf, Thunk{ListOffset: listOffset}.Bytes()...)
	return off
}

// ListPoolBytes returns the accumulated, 4-byte-aligned list pool.
func (p *Pool) ListPoolBytes() []byte {
	return p.listBuf
}

// ThunkTableBytes returns the accumulated thunk table.
func (p *Pool) ThunkTableBytes() []byte {
	return p.thunkBuf
}

// fitRegion asserts that size bytes still fit within a region of limit bytes
// (data_end - data_start, or routine_end - routine_start).
func (p *Pool) fitRegion(name string, size, limit int) error {
	if size > limit {
		return fmt.Errorf("%w: %s is %d bytes, region holds %d", ErrRegionOverflow, name, size, limit)
	}
	return nil
}

// FitListRegion asserts the list pool still fits within a region limit bytes
// long.
func (p *Pool) FitListRegion(limit int) error {
	return p.fitRegion("list pool", len(p.listBuf), limit)
}

// FitThunkRegion asserts the thunk table still fits within a region limit
// bytes long.
func (p *Pool) FitThunkRegion(limit int) error {
	return p.fitRegion("thunk table", len(p.thunkBuf), limit)
}
