// Package filetable owns the ROM's pointer-addressed payload table: one
// 32-bit big-endian entry per file, a high-bit compressed flag, and a raw
// offset in the low 31 bits. It is the one layer that knows about the
// on-disk word-flip framing (a byte-pair swap applied to a file's entire
// compressed container, length header included); codec never sees it and
// never needs to.
package filetable

import (
	"errors"
	"fmt"

	"github.com/galehouse/romforge/codec"
	"github.com/galehouse/romforge/encoding"
	"github.com/galehouse/romforge/freespace"
	"github.com/galehouse/romforge/region"
)

var (
	// ErrOutOfRange is returned for a file index outside [0, FileCount).
	ErrOutOfRange = errors.New("filetable: index out of range")
	// ErrPointerOrder is returned when the pointer table's raw offsets are
	// not in ascending order, a load-time invariant of the original image.
	ErrPointerOrder = errors.New("filetable: pointer table is not in ascending order")
	// ErrPinnedOverflow is returned when a file pinned to an exact address
	// (region.Config.ForceOldPointerStart/End) no longer fits at that
	// address after a save-time resize.
	ErrPinnedOverflow = errors.New("filetable: pinned file no longer fits at its original address")
)

const compressedFlag = uint32(1) << 31

// entry is one parsed pointer-table slot.
type entry struct {
	rawOffset  int
	compressed bool
}

// FileTable is the in-memory view of a ROM image's payload table. It lazily
// decompresses files on first access and defers all re-encoding and
// reallocation to Save.
type FileTable struct {
	cfg *region.Config
	rom []byte

	entries []entry

	// decoded caches a file's decompressed bytes once read.
	decoded map[int][]byte
	// dirty holds the replacement decompressed bytes for files SetData has
	// touched; Save recompresses exactly these on write.
	dirty map[int][]byte
}

// New parses the pointer table out of rom and returns a FileTable. rom is
// retained, not copied; callers should not mutate it while a FileTable is in
// use except through SetData/Save.
func New(cfg *region.Config, rom []byte) (*FileTable, error) {
	ft := &FileTable{
		cfg:     cfg,
		rom:     rom,
		entries: make([]entry, cfg.FileCount),
		decoded: make(map[int][]byte),
		dirty:   make(map[int][]byte),
	}

	lastOffset := -1
	for i := 0; i < cfg.FileCount; i++ {
		off := cfg.PointerTableOffset + i*4
		if off+4 > len(rom) {
			return nil, fmt.Errorf("filetable: pointer table entry %d extends past end of ROM", i)
		}
		raw := encoding.Read32(rom, off)
		e := entry{
			rawOffset:  int(raw &^ compressedFlag),
			compressed: raw&compressedFlag != 0,
		}
		ft.entries[i] = e

		if cfg.IsRomSplitSentinel(i) {
			continue
		}
		if e.rawOffset < lastOffset {
			return nil, fmt.Errorf("%w: entry %d at %#x precedes entry at %#x", ErrPointerOrder, i, e.rawOffset, lastOffset)
		}
		lastOffset = e.rawOffset
	}
	return ft, nil
}

// Count returns the number of file-table entries.
func (ft *FileTable) Count() int { return len(ft.entries) }

// IsCompressed reports whether file i is stored compressed on disk.
func (ft *FileTable) IsCompressed(i int) (bool, error) {
	if i < 0 || i >= len(ft.entries) {
		return false, fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	return ft.entries[i].compressed, nil
}

// IterRooms returns the file-table indices that hold room payloads, in
// ascending order.
func (ft *FileTable) IterRooms() []int {
	var out []int
	for i := ft.cfg.RoomIndexStart; i <= ft.cfg.RoomIndexEnd; i++ {
		out = append(out, i)
	}
	return out
}

// wordFlip swaps each consecutive byte pair in place on a copy of b. It is
// its own inverse, and applies to an entire container (length header
// included), never to a codec payload in isolation.
func wordFlip(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	for i := 0; i+1 < len(out); i += 2 {
		out[i], out[i+1] = out[i+1], out[i]
	}
	return out
}

// rawContainer returns the raw, still word-flipped bytes a file occupies on
// disk, using the next ascending entry (or, for the last indices, the
// region's ExpectedDataEnd) to bound an uncompressed file's length.
func (ft *FileTable) rawContainer(i int) ([]byte, error) {
	e := ft.entries[i]
	start := e.rawOffset
	end := ft.cfg.ExpectedDataEnd
	for j := i + 1; j < len(ft.entries); j++ {
		if ft.cfg.IsRomSplitSentinel(j) {
			continue
		}
		end = ft.entries[j].rawOffset
		break
	}
	if start > len(ft.rom) || end > len(ft.rom) || end < start {
		return nil, fmt.Errorf("filetable: file %d span [%#x, %#x) is invalid for a %d byte ROM", i, start, end, len(ft.rom))
	}
	return ft.rom[start:end], nil
}

// OccupiedRanges returns the [start, end) byte span every non-sentinel file
// currently occupies on disk, keyed by file index. The orchestrator uses
// this at load time to mark the free-space tracker's initial state, since a
// freshly constructed FreeSpace otherwise assumes its whole range is free.
func (ft *FileTable) OccupiedRanges() (map[int][2]int, error) {
	out := make(map[int][2]int, len(ft.entries))
	for i := range ft.entries {
		if ft.cfg.IsRomSplitSentinel(i) {
			continue
		}
		container, err := ft.rawContainer(i)
		if err != nil {
			return nil, err
		}
		e := ft.entries[i]
		out[i] = [2]int{e.rawOffset, e.rawOffset + len(container)}
	}
	return out, nil
}

// Decompressed returns file i's decompressed, logical bytes: its own pending
// edit if SetData has been called, otherwise the cached or freshly decoded
// on-disk contents.
func (ft *FileTable) Decompressed(i int) ([]byte, error) {
	if i < 0 || i >= len(ft.entries) {
		return nil, fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	if d, ok := ft.dirty[i]; ok {
		return d, nil
	}
	if d, ok := ft.decoded[i]; ok {
		return d, nil
	}
	if ft.cfg.IsRomSplitSentinel(i) {
		ft.decoded[i] = nil
		return nil, nil
	}

	container, err := ft.rawContainer(i)
	if err != nil {
		return nil, err
	}
	unflipped := wordFlip(container)

	e := ft.entries[i]
	if !e.compressed {
		data := append([]byte(nil), unflipped...)
		ft.decoded[i] = data
		return data, nil
	}
	if len(unflipped) < 4 {
		return nil, fmt.Errorf("filetable: file %d is marked compressed but has no length header", i)
	}
	length := int(unflipped[1])<<16 | int(unflipped[2])<<8 | int(unflipped[3])
	if length < 4 || length > len(unflipped) {
		return nil, fmt.Errorf("filetable: file %d declares container length %d outside [4,%d]", i, length, len(unflipped))
	}
	data, err := codec.Decompress(unflipped[4:length], nil)
	if err != nil {
		return nil, fmt.Errorf("filetable: file %d failed to decompress: %w", i, err)
	}
	ft.decoded[i] = data
	return data, nil
}

// SetData replaces file i's logical, decompressed contents. The change is
// not written back to the ROM's pointer table or payload area until Save.
func (ft *FileTable) SetData(i int, data []byte) error {
	if i < 0 || i >= len(ft.entries) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	if ft.cfg.IsRomSplitSentinel(i) {
		return fmt.Errorf("filetable: index %d is a RomSplit sentinel and carries no payload", i)
	}
	cp := append([]byte(nil), data...)
	ft.dirty[i] = cp
	return nil
}

// Save recompresses every file SetData has touched, reallocates its space
// via fs, rewrites the pointer table, and returns the updated ROM image. It
// leaves ft's original rom slice untouched on any error.
//
// The sequence: deallocate every non-sentinel file's current extent,
// recompress and assemble each dirty file's container (compressed files get
// a 4-byte length header and 16-byte alignment padding; no container, the
// room-data payload included, is padded back to the length of its previous
// allocation), allocate space for each
// file in ascending index order (pinned indices force-allocate to their
// original address), write the container and patch the pointer entry
// (preserving the compressed-flag bit), and finally assert the rewritten
// table is still in ascending pointer order.
func (ft *FileTable) Save(fs *freespace.FreeSpace) ([]byte, error) {
	out := append([]byte(nil), ft.rom...)

	type span struct{ start, end int }
	spans := make([]span, len(ft.entries))
	for i, e := range ft.entries {
		if ft.cfg.IsRomSplitSentinel(i) {
			continue
		}
		container, err := ft.rawContainer(i)
		if err != nil {
			return nil, err
		}
		spans[i] = span{start: e.rawOffset, end: e.rawOffset + len(container)}
		if err := fs.Deallocate(spans[i].start, spans[i].end); err != nil {
			return nil, fmt.Errorf("filetable: deallocating file %d: %w", i, err)
		}
	}

	newOffsets := make([]int, len(ft.entries))
	newCompressed := make([]bool, len(ft.entries))
	minStart := 0

	for i := 0; i < len(ft.entries); i++ {
		if ft.cfg.IsRomSplitSentinel(i) {
			continue
		}

		container, wasCompressed, err := ft.assembleContainer(i)
		if err != nil {
			return nil, err
		}

		length := len(container)
		if ft.cfg.IsForceOldPointer(i) {
			if err := fs.ForceAllocate(spans[i].start, length); err != nil {
				return nil, fmt.Errorf("%w: file %d: %v", ErrPinnedOverflow, i, err)
			}
			newOffsets[i] = spans[i].start
		} else {
			r := freespace.OldRom
			if ft.cfg.InRomSplitRange(i) {
				r = freespace.NewRom
			}
			addr, err := fs.AllocateAfter(length, r, minStart)
			if err != nil {
				return nil, fmt.Errorf("filetable: allocating file %d (%d bytes): %w", i, length, err)
			}
			newOffsets[i] = addr
		}
		minStart = newOffsets[i] + length
		newCompressed[i] = wasCompressed

		flipped := wordFlip(container)
		out = growTo(out, newOffsets[i]+length)
		copy(out[newOffsets[i]:newOffsets[i]+length], flipped)
	}

	lastOffset := -1
	for i := 0; i < len(ft.entries); i++ {
		if ft.cfg.IsRomSplitSentinel(i) {
			entryOff := ft.cfg.PointerTableOffset + i*4
			encoding.Write32(out, entryOff, uint32(ft.entries[i].rawOffset))
			continue
		}
		if newOffsets[i] < lastOffset {
			return nil, fmt.Errorf("%w: file %d now at %#x, precedes %#x", ErrPointerOrder, i, newOffsets[i], lastOffset)
		}
		lastOffset = newOffsets[i]

		raw := uint32(newOffsets[i])
		if newCompressed[i] {
			raw |= compressedFlag
		}
		entryOff := ft.cfg.PointerTableOffset + i*4
		encoding.Write32(out, entryOff, raw)
	}

	return out, nil
}

// assembleContainer builds the on-disk (not yet word-flipped) bytes for
// file i, recompressing it if it was dirty and originally stored
// compressed, or leaving it raw otherwise. It reports whether the result is
// compressed.
func (ft *FileTable) assembleContainer(i int) ([]byte, bool, error) {
	e := ft.entries[i]
	data, isDirty := ft.dirty[i]
	if !isDirty {
		container, err := ft.rawContainer(i)
		if err != nil {
			return nil, false, err
		}
		return append([]byte(nil), container...), e.compressed, nil
	}

	if !e.compressed {
		return encoding.PadSlice(data, 16), false, nil
	}
	container, err := codec.Compress(data)
	if err != nil {
		return nil, false, fmt.Errorf("filetable: recompressing file %d: %w", i, err)
	}
	return encoding.PadSlice(container, 16), true, nil
}

func growTo(b []byte, n int) []byte {
	if len(b) >= n {
		return b
	}
	grown := make([]byte, n)
	copy(grown, b)
	return grown
}
