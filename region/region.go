// Package region holds the per-ROM-region constants the rest of the engine
// is parameterized over: free-space bounds, the pointer table location, the
// RAM bias used to translate virtual addresses, and the small set of
// entities whose node identifiers differ between the two supported builds
// of the game.
//
// These values are configuration, not code: every other package takes a
// *Config and never hardcodes an address.
package region

// Config holds the fixed addresses and index ranges for one supported ROM
// build. The two package-level values (US, JP) are the only Configs a
// caller should need; they differ only in the addresses and ranges below,
// matching spec's note that the two regions "differ only in these constants
// and in a node-identifier remapping for three known entities."
type Config struct {
	Name string

	// PointerTableOffset is the raw file offset of the first FilePointerTable entry.
	PointerTableOffset int
	// FileCount is the number of entries (N) in the pointer table.
	FileCount int

	// FreeSpaceStart/FreeSpaceEnd bound the allocatable region at load time.
	FreeSpaceStart int
	FreeSpaceEnd   int
	// NewRomStart is the boundary within [FreeSpaceStart, FreeSpaceEnd)
	// below which an address is considered part of the original ROM image
	// (OldRom) and at or above which it is considered expansion space
	// appended past the original image (NewRom).
	NewRomStart int
	// ExpectedDataEnd is the raw offset at which the last payload is expected
	// to end; used only as a load-time sanity check.
	ExpectedDataEnd int

	// RAMBias is added to a raw file offset to produce a virtual address.
	RAMBias int
	// LoadingBankMask masks a virtual address down to the 16-bit offset
	// embedded in a loading thunk.
	LoadingBankMask uint32

	// RomSplitLowIndex/RomSplitHighIndex are the two sentinel pointer-table
	// indices that bound the new-ROM region (exclusive of the sentinels
	// themselves).
	RomSplitLowIndex  int
	RomSplitHighIndex int

	// RoomIndexStart/RoomIndexEnd bound the contiguous range of file-table
	// indices that are room payloads (inclusive).
	RoomIndexStart int
	RoomIndexEnd   int

	// RoomDataFileIndex is the distinguished payload holding the misc overlay.
	RoomDataFileIndex int
	// MainCodeFileIndex is the distinguished, never-relocated payload holding
	// the loading lists and thunks.
	MainCodeFileIndex int

	// ForceOldPointerStart/ForceOldPointerEnd bound the pinned sub-range of
	// indices that must round-trip to their exact original file offset.
	ForceOldPointerStart int
	ForceOldPointerEnd   int

	// LoadingRoutineStart/LoadingRoutineEnd bound the pinned sub-region of
	// MainCodeFileIndex's payload the per-room loading thunks occupy.
	// LoadingDataStart/LoadingDataEnd bound the sub-region the per-room
	// loading lists occupy. The loading-table writer zeroes and rebuilds
	// only these two spans on save, leaving the rest of the main-code
	// payload untouched.
	LoadingRoutineStart int
	LoadingRoutineEnd   int
	LoadingDataStart    int
	LoadingDataEnd      int

	// NodeRemap maps an entity node identifier in the source-region schema
	// to this region's equivalent identifier, for the handful of entities
	// whose identifiers were renumbered during localization.
	NodeRemap map[uint16]uint16
}

// InRomSplitRange reports whether index falls strictly between the two
// RomSplit sentinels (i.e. is a "new-ROM" index).
func (c *Config) InRomSplitRange(index int) bool {
	return index > c.RomSplitLowIndex && index < c.RomSplitHighIndex
}

// IsRomSplitSentinel reports whether index is one of the two sentinel
// entries themselves; sentinels are never written and carry no payload.
func (c *Config) IsRomSplitSentinel(index int) bool {
	return index == c.RomSplitLowIndex || index == c.RomSplitHighIndex
}

// IsRoomIndex reports whether index falls inside the contiguous room range.
func (c *Config) IsRoomIndex(index int) bool {
	return index >= c.RoomIndexStart && index <= c.RoomIndexEnd
}

// IsForceOldPointer reports whether index is pinned to its original offset.
func (c *Config) IsForceOldPointer(index int) bool {
	return index >= c.ForceOldPointerStart && index <= c.ForceOldPointerEnd
}

// IsNewRom reports whether a raw offset falls in the expansion space
// appended past the original ROM image.
func (c *Config) IsNewRom(rawOffset int) bool {
	return rawOffset >= c.NewRomStart
}

// VirtualAddress converts a raw file offset to the virtual address space
// pointers inside payloads are expressed in.
func (c *Config) VirtualAddress(rawOffset int) uint32 {
	return uint32(rawOffset + c.RAMBias)
}

// RawOffset converts a virtual address back to a raw file offset.
func (c *Config) RawOffset(virtual uint32) int {
	return int(virtual) - c.RAMBias
}

// US is the source-region build's configuration.
var US = &Config{
	Name:                 "US",
	PointerTableOffset:   0x7C000,
	FileCount:            1303,
	FreeSpaceStart:       0x1200000,
	FreeSpaceEnd:         0x1FC0000,
	NewRomStart:          0x1800000,
	ExpectedDataEnd:      0x1FC0000,
	RAMBias:              0x80200000,
	LoadingBankMask:      0x0000FFFF,
	RomSplitLowIndex:     1165,
	RomSplitHighIndex:    1167,
	RoomIndexStart:       0x336,
	RoomIndexEnd:         0x482,
	RoomDataFileIndex:    3,
	MainCodeFileIndex:    2,
	ForceOldPointerStart: 0,
	ForceOldPointerEnd:   11,
	LoadingRoutineStart:  0,
	LoadingRoutineEnd:    0x1800,
	LoadingDataStart:     0x1800,
	LoadingDataEnd:       0x2800,
	NodeRemap: map[uint16]uint16{
		0x1A1: 0x1A1,
		0x2F0: 0x2F0,
		0x30C: 0x30C,
	},
}

// JP is the localized-region build's configuration. It shares the US
// layout except for the addresses that moved because of the localization
// patch and three entities renumbered during translation.
var JP = &Config{
	Name:                 "JP",
	PointerTableOffset:   0x7C000,
	FileCount:            1303,
	FreeSpaceStart:       0x11F0000,
	FreeSpaceEnd:         0x1FB0000,
	NewRomStart:          0x17F0000,
	ExpectedDataEnd:      0x1FB0000,
	RAMBias:              0x80200000,
	LoadingBankMask:      0x0000FFFF,
	RomSplitLowIndex:     1165,
	RomSplitHighIndex:    1167,
	RoomIndexStart:       0x336,
	RoomIndexEnd:         0x482,
	RoomDataFileIndex:    3,
	MainCodeFileIndex:    2,
	ForceOldPointerStart: 0,
	ForceOldPointerEnd:   11,
	LoadingRoutineStart:  0,
	LoadingRoutineEnd:    0x1800,
	LoadingDataStart:     0x1800,
	LoadingDataEnd:       0x2800,
	NodeRemap: map[uint16]uint16{
		0x1A1: 0x1B4,
		0x2F0: 0x305,
		0x30C: 0x31E,
	},
}

// ByName resolves a region by its external name ("us" or "jp", case folded
// by the caller), for CLI and config wiring.
func ByName(name string) (*Config, bool) {
	switch name {
	case "us", "US":
		return US, true
	case "jp", "JP":
		return JP, true
	default:
		return nil, false
	}
}
