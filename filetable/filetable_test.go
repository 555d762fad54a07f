package filetable

import (
	"testing"

	"github.com/galehouse/romforge/codec"
	"github.com/galehouse/romforge/encoding"
	"github.com/galehouse/romforge/freespace"
	"github.com/galehouse/romforge/region"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTestRom lays out a pointer table with 4 entries: two raw files and
// two RomSplit sentinels, each entry's payload word-flipped on disk the way
// the real ROM stores it.
func buildTestRom(t *testing.T) (*region.Config, []byte) {
	t.Helper()

	cfg := &region.Config{
		Name:                 "TEST",
		PointerTableOffset:   0x100,
		FileCount:            4,
		FreeSpaceStart:       0x200,
		FreeSpaceEnd:         0x400,
		NewRomStart:          0x300,
		ExpectedDataEnd:      0x200,
		RAMBias:              0x1000,
		RomSplitLowIndex:     2,
		RomSplitHighIndex:    3,
		RoomIndexStart:       0,
		RoomIndexEnd:         0,
		ForceOldPointerStart: -1,
		ForceOldPointerEnd:   -1,
	}

	rom := make([]byte, 0x200)
	file0 := wordFlip([]byte{0xAA, 0xBB, 0xCC, 0xDD})
	file1 := wordFlip([]byte{0x11, 0x22})
	copy(rom[0x180:], file0)
	copy(rom[0x184:], file1)

	encoding.Write32(rom, 0x100, 0x180) // file 0, uncompressed, 4 bytes
	encoding.Write32(rom, 0x104, 0x184) // file 1, uncompressed, 2 bytes
	encoding.Write32(rom, 0x108, 0)     // sentinel
	encoding.Write32(rom, 0x10C, 0)     // sentinel
	cfg.ExpectedDataEnd = 0x186

	return cfg, rom
}

func TestNewParsesEntries(t *testing.T) {
	cfg, rom := buildTestRom(t)
	ft, err := New(cfg, rom)
	require.NoError(t, err)
	assert.Equal(t, 4, ft.Count())
}

func TestDecompressedUncompressed(t *testing.T) {
	cfg, rom := buildTestRom(t)
	ft, err := New(cfg, rom)
	require.NoError(t, err)

	data, err := ft.Decompressed(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, data)

	data, err = ft.Decompressed(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x11, 0x22}, data)
}

func TestDecompressedSentinelIsNil(t *testing.T) {
	cfg, rom := buildTestRom(t)
	ft, err := New(cfg, rom)
	require.NoError(t, err)

	data, err := ft.Decompressed(2)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestDecompressedOutOfRange(t *testing.T) {
	cfg, rom := buildTestRom(t)
	ft, err := New(cfg, rom)
	require.NoError(t, err)

	_, err = ft.Decompressed(99)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestPointerOrderViolation(t *testing.T) {
	cfg, rom := buildTestRom(t)
	encoding.Write32(rom, 0x104, 0x10) // now precedes file 0
	_, err := New(cfg, rom)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPointerOrder)
}

func TestSetDataAndSaveRoundTrip(t *testing.T) {
	cfg, rom := buildTestRom(t)
	ft, err := New(cfg, rom)
	require.NoError(t, err)

	require.NoError(t, ft.SetData(0, []byte{1, 2, 3, 4, 5, 6, 7}))

	fs := freespace.New(cfg)
	out, err := ft.Save(fs)
	require.NoError(t, err)

	ft2, err := New(cfg, out)
	require.NoError(t, err)
	data, err := ft2.Decompressed(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7}, data)

	data1, err := ft2.Decompressed(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x11, 0x22}, data1)
}

func TestSaveRecompressesCompressedFile(t *testing.T) {
	cfg := &region.Config{
		Name:                 "TEST",
		PointerTableOffset:   0x100,
		FileCount:            1,
		FreeSpaceStart:       0x200,
		FreeSpaceEnd:         0x400,
		NewRomStart:          0x300,
		RAMBias:              0x1000,
		RomSplitLowIndex:     -1,
		RomSplitHighIndex:    -1,
		ForceOldPointerStart: -1,
		ForceOldPointerEnd:   -1,
	}

	payload := []byte{0x07, 0x07, 0x07, 0x07, 0x07, 0x07, 0x07, 0x07}
	compressed, err := codec.Compress(payload)
	require.NoError(t, err)
	padded := encoding.PadSlice(compressed, 16)
	flipped := wordFlip(padded)

	start := 0x100 + 4*cfg.FileCount
	rom := make([]byte, start+len(flipped))
	copy(rom[start:], flipped)
	encoding.Write32(rom, 0x100, uint32(start)|compressedFlag)
	cfg.ExpectedDataEnd = start + len(flipped)

	ft, err := New(cfg, rom)
	require.NoError(t, err)
	data, err := ft.Decompressed(0)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	newPayload := []byte{0x09, 0x09, 0x09}
	require.NoError(t, ft.SetData(0, newPayload))

	fs := freespace.New(cfg)
	out, err := ft.Save(fs)
	require.NoError(t, err)

	ft2, err := New(cfg, out)
	require.NoError(t, err)
	compressedFlagSet, err := ft2.IsCompressed(0)
	require.NoError(t, err)
	assert.True(t, compressedFlagSet)

	got, err := ft2.Decompressed(0)
	require.NoError(t, err)
	assert.Equal(t, newPayload, got)
}

func TestSaveAllocatesNewRomIndexAboveSplit(t *testing.T) {
	// Index 0 is an old-ROM file; index 1 and 3 are the RomSplit sentinels;
	// index 2 falls strictly between them and is therefore a new-ROM index.
	cfg := &region.Config{
		Name:                 "TEST",
		PointerTableOffset:   0x100,
		FileCount:            4,
		FreeSpaceStart:       0x200,
		FreeSpaceEnd:         0x400,
		NewRomStart:          0x200,
		RAMBias:              0x1000,
		RomSplitLowIndex:     1,
		RomSplitHighIndex:    3,
		ForceOldPointerStart: -1,
		ForceOldPointerEnd:   -1,
	}

	rom := make([]byte, 0x200)
	file0 := wordFlip([]byte{0xAA, 0xBB})
	file2 := wordFlip([]byte{0xCC, 0xDD})
	copy(rom[0x180:], file0)
	copy(rom[0x182:], file2)
	encoding.Write32(rom, 0x100, 0x180) // file 0, old-ROM
	encoding.Write32(rom, 0x104, 0)     // sentinel
	encoding.Write32(rom, 0x108, 0x182) // file 2, new-ROM
	encoding.Write32(rom, 0x10C, 0)     // sentinel
	cfg.ExpectedDataEnd = 0x184

	ft, err := New(cfg, rom)
	require.NoError(t, err)
	require.NoError(t, ft.SetData(2, []byte{1, 2, 3, 4}))

	fs := freespace.New(cfg)
	out, err := ft.Save(fs)
	require.NoError(t, err)

	ft2, err := New(cfg, out)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ft2.entries[2].rawOffset, cfg.NewRomStart)
	assert.Less(t, ft2.entries[0].rawOffset, cfg.NewRomStart)
}

func TestIterRooms(t *testing.T) {
	cfg := &region.Config{RoomIndexStart: 5, RoomIndexEnd: 8}
	ft := &FileTable{cfg: cfg}
	assert.Equal(t, []int{5, 6, 7, 8}, ft.IterRooms())
}
