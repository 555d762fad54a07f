package orchestrator

import (
	"testing"

	"github.com/galehouse/romforge/encoding"
	"github.com/galehouse/romforge/entity"
	"github.com/galehouse/romforge/loading"
	"github.com/galehouse/romforge/region"
	"github.com/galehouse/romforge/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordFlip mirrors filetable's unexported helper; kept as an independent
// fixture here since this test builds a raw ROM image from scratch.
func wordFlip(b []byte) []byte {
	out := append([]byte(nil), b...)
	for i := 0; i+1 < len(out); i += 2 {
		out[i], out[i+1] = out[i+1], out[i]
	}
	return out
}

func buildMiscPayload() []byte {
	payload := make([]byte, 256)
	rootOffset := 0
	offset := rootOffset + 6*24
	rows := 1
	strides := [6]int{20, 8, 8, 4, 4, 2}
	for i := 0; i < 6; i++ {
		size := rows * strides[i]
		encoding.Write32(payload, rootOffset+i*24, uint32(offset))
		encoding.Write16(payload, rootOffset+i*24+4, uint16(rows))
		offset += size
	}
	return payload
}

func buildRoomBytes(fileIndex int) []byte {
	def := make(entity.Definition, entity.DefinitionSize)
	def[0], def[1] = 0x01, 0x00

	r := &room.Room{
		FileIndex:   fileIndex,
		Definitions: []entity.Definition{def},
		GroupsX:     1,
		GroupsZ:     1,
		GroupsY:     1,
		Groups: []room.Group{
			{X: -1, Y: -1, Z: -1},
			{X: 0, Z: 0, Y: 0},
		},
	}
	data, err := r.Serialize()
	if err != nil {
		panic(err)
	}
	return data
}

func buildTestRom(t *testing.T) (*region.Config, []byte) {
	t.Helper()

	misc := buildMiscPayload()
	mainCode := make([]byte, 128)
	mainCode[100] = 0xAB // marks untouched game code outside the loading regions
	roomBytes := buildRoomBytes(2)

	file0Off := 0x20000
	file1Off := file0Off + len(misc)
	file2Off := file1Off + len(mainCode)
	dataEnd := file2Off + len(roomBytes)

	cfg := &region.Config{
		Name:                 "TEST",
		PointerTableOffset:   0x10000,
		FileCount:            3,
		FreeSpaceStart:       0x20000,
		FreeSpaceEnd:         0x200000,
		NewRomStart:          0x180000,
		ExpectedDataEnd:      dataEnd,
		RAMBias:              0x1000,
		RomSplitLowIndex:     -1,
		RomSplitHighIndex:    -1,
		RoomIndexStart:       2,
		RoomIndexEnd:         2,
		RoomDataFileIndex:    0,
		MainCodeFileIndex:    1,
		ForceOldPointerStart: -1,
		ForceOldPointerEnd:   -1,
		LoadingRoutineStart:  0,
		LoadingRoutineEnd:    36,
		LoadingDataStart:     36,
		LoadingDataEnd:       64,
	}

	rom := make([]byte, 0x210000)
	copy(rom[file0Off:], wordFlip(misc))
	copy(rom[file1Off:], wordFlip(mainCode))
	copy(rom[file2Off:], wordFlip(roomBytes))

	encoding.Write32(rom, cfg.PointerTableOffset, uint32(file0Off))
	encoding.Write32(rom, cfg.PointerTableOffset+4, uint32(file1Off))
	encoding.Write32(rom, cfg.PointerTableOffset+8, uint32(file2Off))

	return cfg, rom
}

func TestLoadParsesMiscAndRoom(t *testing.T) {
	cfg, rom := buildTestRom(t)
	eng, err := Load(cfg, entity.Schema{}, rom)
	require.NoError(t, err)

	r, err := eng.Room(2)
	require.NoError(t, err)
	assert.Equal(t, 2, r.FileIndex)
	require.Len(t, r.Definitions, 1)

	fields, err := eng.Misc().Room(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), fields.Graphics1)
}

func TestSaveRoundTrip(t *testing.T) {
	cfg, rom := buildTestRom(t)
	eng, err := Load(cfg, entity.Schema{}, rom)
	require.NoError(t, err)

	r, err := eng.Room(2)
	require.NoError(t, err)
	def := make(entity.Definition, entity.DefinitionSize)
	def[0], def[1] = 0x02, 0x00
	r.Definitions = append(r.Definitions, def)

	require.NoError(t, eng.Misc().Write16(3, 0, 1, 0, 55))

	require.NoError(t, eng.SetRoom(r, loading.List{7}, loading.Thunk{}))

	out, err := eng.Save()
	require.NoError(t, err)

	eng2, err := Load(cfg, entity.Schema{}, out)
	require.NoError(t, err)
	r2, err := eng2.Room(2)
	require.NoError(t, err)
	assert.Len(t, r2.Definitions, 2)

	fields, err := eng2.Misc().Room(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(55), fields.BGM)
}

func TestSavePreservesMainCodeOutsideLoadingRegions(t *testing.T) {
	cfg, rom := buildTestRom(t)
	eng, err := Load(cfg, entity.Schema{}, rom)
	require.NoError(t, err)

	r, err := eng.Room(2)
	require.NoError(t, err)
	require.NoError(t, eng.SetRoom(r, loading.List{7}, loading.Thunk{}))

	out, err := eng.Save()
	require.NoError(t, err)

	eng2, err := Load(cfg, entity.Schema{}, out)
	require.NoError(t, err)
	mainCode, err := eng2.FileTable().Decompressed(cfg.MainCodeFileIndex)
	require.NoError(t, err)
	require.Greater(t, len(mainCode), 100)
	assert.Equal(t, byte(0xAB), mainCode[100])
}
