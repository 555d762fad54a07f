// Package freespace tracks the allocatable byte ranges within a ROM image's
// expansion area and hands out contiguous blocks to the file table on save.
//
// A FreeSpace holds a sorted, coalesced list of disjoint [Start, End) ranges.
// It has no knowledge of payload contents, pointers, or compression; it only
// answers "is there room, and where."
package freespace

import (
	"errors"
	"fmt"
	"sort"

	"github.com/galehouse/romforge/region"
)

// Region constrains an allocation to one side of a ROM build's OldRom/NewRom
// boundary (see region.Config.NewRomStart), or allows either.
type Region int

const (
	// Any permits allocation anywhere in the tracked space.
	Any Region = iota
	// OldRom restricts allocation to addresses below the build's NewRomStart.
	OldRom
	// NewRom restricts allocation to addresses at or above NewRomStart.
	NewRom
)

var (
	// ErrNoSpace is returned when no free range satisfies a request.
	ErrNoSpace = errors.New("freespace: no range satisfies the request")
	// ErrOverlap is returned when a force-allocated range is not entirely
	// free.
	ErrOverlap = errors.New("freespace: range overlaps existing allocation state")
)

// block is one free [Start, End) range.
type block struct {
	Start, End int
}

// FreeSpace tracks free byte ranges over a single ROM region's expansion
// area. Not safe for concurrent use; callers serialize access the same way
// the file table does (see orchestrator's single-goroutine save sequence).
type FreeSpace struct {
	cfg    *region.Config
	blocks []block // sorted ascending by Start, never adjacent or overlapping
}

// New returns a FreeSpace with a single free range spanning the region's
// entire configured free-space bounds.
func New(cfg *region.Config) *FreeSpace {
	return &FreeSpace{
		cfg: cfg,
		blocks: []block{
			{Start: cfg.FreeSpaceStart, End: cfg.FreeSpaceEnd},
		},
	}
}

func (fs *FreeSpace) regionOK(start int, r Region) bool {
	switch r {
	case OldRom:
		return !fs.cfg.IsNewRom(start)
	case NewRom:
		return fs.cfg.IsNewRom(start)
	default:
		return true
	}
}

// Allocate finds the lowest-addressed free range of at least length bytes
// satisfying the region constraint, carves length bytes off its start, and
// returns that start address.
func (fs *FreeSpace) Allocate(length int, r Region) (int, error) {
	return fs.AllocateAfter(length, r, 0)
}

// AllocateAfter is Allocate constrained to addresses >= minStart. The file
// table uses this to guarantee pointer-table entries stay in ascending
// address order as it reallocates files index by index: each file's space
// is taken no earlier than the previous file's.
func (fs *FreeSpace) AllocateAfter(length int, r Region, minStart int) (int, error) {
	if length <= 0 {
		return 0, fmt.Errorf("freespace: allocate requires a positive length, got %d", length)
	}
	for i, b := range fs.blocks {
		start := b.Start
		if start < minStart {
			start = minStart
		}
		if b.End-start < length {
			continue
		}
		if !fs.regionOK(start, r) {
			continue
		}
		if start == b.Start {
			if b.End-b.Start == length {
				fs.blocks = append(fs.blocks[:i], fs.blocks[i+1:]...)
			} else {
				fs.blocks[i].Start += length
			}
		} else {
			// minStart falls inside this block: split off [b.Start, start).
			before := block{Start: b.Start, End: start}
			after := block{Start: start + length, End: b.End}
			replacement := make([]block, 0, 2)
			replacement = append(replacement, before)
			if after.Start < after.End {
				replacement = append(replacement, after)
			}
			fs.blocks = append(fs.blocks[:i], append(replacement, fs.blocks[i+1:]...)...)
		}
		return start, nil
	}
	return 0, fmt.Errorf("%w: %d bytes (region %d, after %#x)", ErrNoSpace, length, r, minStart)
}

// ForceAllocate carves out the exact [start, start+length) range, failing if
// any byte of it is not currently free. Used for pinned sub-ranges (the
// file table's FORCE_OLD_POINTER indices) that must land at a specific
// address rather than wherever Allocate would place them.
func (fs *FreeSpace) ForceAllocate(start, length int) error {
	if length <= 0 {
		return fmt.Errorf("freespace: force-allocate requires a positive length, got %d", length)
	}
	end := start + length
	for i, b := range fs.blocks {
		if start >= b.Start && end <= b.End {
			before := block{Start: b.Start, End: start}
			after := block{Start: end, End: b.End}
			replacement := make([]block, 0, 2)
			if before.Start < before.End {
				replacement = append(replacement, before)
			}
			if after.Start < after.End {
				replacement = append(replacement, after)
			}
			fs.blocks = append(fs.blocks[:i], append(replacement, fs.blocks[i+1:]...)...)
			return nil
		}
	}
	return fmt.Errorf("%w: [%#x, %#x) is not entirely free", ErrOverlap, start, end)
}

// Deallocate returns [start, end) to the free pool, merging with any
// adjacent or overlapping free ranges.
func (fs *FreeSpace) Deallocate(start, end int) error {
	if end <= start {
		return fmt.Errorf("freespace: deallocate requires end > start, got [%#x, %#x)", start, end)
	}
	fs.blocks = append(fs.blocks, block{Start: start, End: end})
	fs.coalesce()
	return nil
}

// coalesce sorts blocks by start and merges adjacent/overlapping entries.
func (fs *FreeSpace) coalesce() {
	sort.Slice(fs.blocks, func(i, j int) bool { return fs.blocks[i].Start < fs.blocks[j].Start })
	merged := fs.blocks[:0]
	for _, b := range fs.blocks {
		if len(merged) > 0 && b.Start <= merged[len(merged)-1].End {
			if b.End > merged[len(merged)-1].End {
				merged[len(merged)-1].End = b.End
			}
			continue
		}
		merged = append(merged, b)
	}
	fs.blocks = merged
}

// Coalesce re-sorts and merges the tracked ranges. Deallocate already
// coalesces after every call; this is exposed for callers (tests,
// diagnostics) that want to assert the invariant holds after a batch of
// direct block manipulation.
func (fs *FreeSpace) Coalesce() {
	fs.coalesce()
}

// Ranges returns a copy of the tracked free ranges, in ascending order, as
// (start, end) pairs. Intended for diagnostics and tests.
func (fs *FreeSpace) Ranges() [][2]int {
	out := make([][2]int, len(fs.blocks))
	for i, b := range fs.blocks {
		out[i] = [2]int{b.Start, b.End}
	}
	return out
}

// TotalFree returns the sum of all tracked free range sizes.
func (fs *FreeSpace) TotalFree() int {
	total := 0
	for _, b := range fs.blocks {
		total += b.End - b.Start
	}
	return total
}
