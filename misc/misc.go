// Package misc reads and writes the misc-data overlay: a six-section
// pointer-of-pointers table embedded in the room-data payload (the file
// table's distinguished RoomDataFileIndex), giving every room a small
// per-room record of loading/rendering fields that live outside its own
// room payload.
//
// The root table holds six 4-byte pointers, one per section, each spaced
// 24 bytes apart regardless of whether every slot is populated. Each
// section is itself a flat array of fixed-stride records, one per room,
// indexed by a category-relative row computed from the room's warp index.
package misc

import (
	"errors"
	"fmt"

	"github.com/galehouse/romforge/encoding"
)

const (
	sectionCount  = 6
	rootStride    = 24
	numCategories = 6
)

// RootOffset is the byte offset of the root table within the misc-data
// host payload; the overlay occupies that payload from its very first byte.
const RootOffset = 0

// sectionStride is the per-record byte width of each of the six sections,
// in root-table order.
var sectionStride = [sectionCount]int{20, 8, 8, 4, 4, 2}

// ErrIllegalEdit is returned for a write a category/section combination does
// not support; notably, section 6 (index 5, the 2-byte section) never
// accepts writes for category 0 or category 3 rooms.
var ErrIllegalEdit = errors.New("misc: illegal edit for this category/section")

// categoryBounds maps a warp index range to the category (0-5) used to pick
// a room's row within each section. Ranges are inclusive of Low, exclusive
// of High.
type categoryBounds struct{ Low, High int }

var warpCategoryRanges = [numCategories]categoryBounds{
	{0x000, 0x040},
	{0x040, 0x080},
	{0x080, 0x0C0},
	{0x0C0, 0x100},
	{0x100, 0x140},
	{0x140, 0x180},
}

// CategoryOf returns the category (0-5) a warp index belongs to.
func CategoryOf(warpIndex int) (int, error) {
	cat, _, err := RowOf(warpIndex)
	return cat, err
}

// RowOf returns both the category a warp index belongs to and its
// category-relative row: the remainder of the warp index within that
// category's range, used to index every section's per-room record.
func RowOf(warpIndex int) (category, row int, err error) {
	for i, r := range warpCategoryRanges {
		if warpIndex >= r.Low && warpIndex < r.High {
			return i, warpIndex - r.Low, nil
		}
	}
	return 0, 0, fmt.Errorf("misc: warp index %d is outside every category range", warpIndex)
}

// Overlay is the parsed misc-data overlay: the raw section bytes, held
// mutable so field reads/writes apply directly.
type Overlay struct {
	payloadLen int
	rootOffset int

	sectionOffset [sectionCount]int
	sections      [sectionCount][]byte // each a flat, row-major array of stride-sized records
	rows          [sectionCount]int
}

// Parse reads the overlay out of a room-data payload, given the byte offset
// of its root table.
func Parse(payload []byte, rootOffset int) (*Overlay, error) {
	ov := &Overlay{payloadLen: len(payload), rootOffset: rootOffset}
	for i := 0; i < sectionCount; i++ {
		rootEntry := rootOffset + i*rootStride
		if rootEntry+4 > len(payload) {
			return nil, fmt.Errorf("misc: root entry %d at %#x exceeds payload length %d", i, rootEntry, len(payload))
		}
		sectionOffset := int(encoding.Read32(payload, rootEntry))
		rowCount := int(encoding.Read16(payload, rootEntry+4))
		size := rowCount * sectionStride[i]
		if sectionOffset+size > len(payload) {
			return nil, fmt.Errorf("misc: section %d [%#x,%#x) exceeds payload length %d", i, sectionOffset, sectionOffset+size, len(payload))
		}
		ov.sections[i] = append([]byte(nil), payload[sectionOffset:sectionOffset+size]...)
		ov.sectionOffset[i] = sectionOffset
		ov.rows[i] = rowCount
	}
	return ov, nil
}

// Bytes reassembles the full room-data payload with every section's current
// (possibly edited) contents written back at its original offset. The root
// table and every byte outside the six sections is copied unchanged from
// the payload Parse was given.
func (ov *Overlay) Bytes(original []byte) []byte {
	out := append([]byte(nil), original...)
	if len(out) < ov.payloadLen {
		grown := make([]byte, ov.payloadLen)
		copy(grown, out)
		out = grown
	}
	for i := 0; i < sectionCount; i++ {
		copy(out[ov.sectionOffset[i]:], ov.sections[i])
	}
	return out
}

func (ov *Overlay) rowOffset(section, row int) (int, error) {
	if section < 0 || section >= sectionCount {
		return 0, fmt.Errorf("misc: section %d out of range", section)
	}
	if row < 0 || row >= ov.rows[section] {
		return 0, fmt.Errorf("misc: row %d out of range for section %d (%d rows)", row, section, ov.rows[section])
	}
	return row * sectionStride[section], nil
}

// Read32 reads a big-endian uint32 field at byteOffset within a section row.
func (ov *Overlay) Read32(section, row, byteOffset int) (uint32, error) {
	off, err := ov.rowOffset(section, row)
	if err != nil {
		return 0, err
	}
	return encoding.Read32(ov.sections[section], off+byteOffset), nil
}

// Read16 reads a big-endian uint16 field at byteOffset within a section row.
func (ov *Overlay) Read16(section, row, byteOffset int) (uint16, error) {
	off, err := ov.rowOffset(section, row)
	if err != nil {
		return 0, err
	}
	return encoding.Read16(ov.sections[section], off+byteOffset), nil
}

// Write32 writes a big-endian uint32 field at byteOffset within a section
// row, rejecting edits to section index 5 for category 0 or category 3.
func (ov *Overlay) Write32(section, row, category int, byteOffset int, value uint32) error {
	if section == 5 && (category == 0 || category == 3) {
		return fmt.Errorf("%w: section %d category %d", ErrIllegalEdit, section, category)
	}
	off, err := ov.rowOffset(section, row)
	if err != nil {
		return err
	}
	encoding.Write32(ov.sections[section], off+byteOffset, value)
	return nil
}

// Write16 writes a big-endian uint16 field, with the same section-5
// category restriction as Write32.
func (ov *Overlay) Write16(section, row, category int, byteOffset int, value uint16) error {
	if section == 5 && (category == 0 || category == 3) {
		return fmt.Errorf("%w: section %d category %d", ErrIllegalEdit, section, category)
	}
	off, err := ov.rowOffset(section, row)
	if err != nil {
		return err
	}
	encoding.Write16(ov.sections[section], off+byteOffset, value)
	return nil
}

// RoomFields is a per-room view into the overlay: the section 0 record
// (stride 20: graphics1, graphics2, three loading-unknown words), the four
// loading-file indices in section 2, and the BSP, BGM and skybox fields in
// sections 1, 3 and 4.
type RoomFields struct {
	Graphics1, Graphics2     uint32
	LoadingUnknown           [3]uint16
	LoadingFiles             [4]uint16
	BSPPlaneData, BSPTree    uint32
	BGM                      uint16
	SkyboxIndex              uint16
}

// Room reads the full per-room field view for a given row.
func (ov *Overlay) Room(row int) (RoomFields, error) {
	var f RoomFields
	var err error
	if f.Graphics1, err = ov.Read32(0, row, 0); err != nil {
		return f, err
	}
	if f.Graphics2, err = ov.Read32(0, row, 4); err != nil {
		return f, err
	}
	for i := 0; i < 3; i++ {
		v, err := ov.Read16(0, row, 8+i*2)
		if err != nil {
			return f, err
		}
		f.LoadingUnknown[i] = v
	}
	if f.BSPPlaneData, err = ov.Read32(1, row, 0); err != nil {
		return f, err
	}
	if f.BSPTree, err = ov.Read32(1, row, 4); err != nil {
		return f, err
	}
	for i := 0; i < 4; i++ {
		v, err := ov.Read16(2, row, i*2)
		if err != nil {
			return f, err
		}
		f.LoadingFiles[i] = v
	}
	if f.BGM, err = ov.Read16(3, row, 0); err != nil {
		return f, err
	}
	if f.SkyboxIndex, err = ov.Read16(4, row, 0); err != nil {
		return f, err
	}
	return f, nil
}
