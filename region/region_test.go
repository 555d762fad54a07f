package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	cfg, ok := ByName("us")
	require.True(t, ok)
	assert.Equal(t, US, cfg)

	cfg, ok = ByName("jp")
	require.True(t, ok)
	assert.Equal(t, JP, cfg)

	_, ok = ByName("eu")
	assert.False(t, ok)
}

func TestInRomSplitRange(t *testing.T) {
	cfg := US
	assert.False(t, cfg.InRomSplitRange(cfg.RomSplitLowIndex))
	assert.False(t, cfg.InRomSplitRange(cfg.RomSplitHighIndex))
	assert.True(t, cfg.InRomSplitRange(cfg.RomSplitLowIndex+1))
}

func TestIsRomSplitSentinel(t *testing.T) {
	cfg := US
	assert.True(t, cfg.IsRomSplitSentinel(cfg.RomSplitLowIndex))
	assert.True(t, cfg.IsRomSplitSentinel(cfg.RomSplitHighIndex))
	assert.False(t, cfg.IsRomSplitSentinel(cfg.RomSplitLowIndex+1))
}

func TestIsRoomIndex(t *testing.T) {
	cfg := US
	assert.True(t, cfg.IsRoomIndex(cfg.RoomIndexStart))
	assert.True(t, cfg.IsRoomIndex(cfg.RoomIndexEnd))
	assert.False(t, cfg.IsRoomIndex(cfg.RoomIndexStart-1))
	assert.False(t, cfg.IsRoomIndex(cfg.RoomIndexEnd+1))
}

func TestVirtualAddressRoundTrip(t *testing.T) {
	cfg := US
	for _, raw := range []int{0, 0x1000, 0x1FC0000} {
		virt := cfg.VirtualAddress(raw)
		assert.Equal(t, raw, cfg.RawOffset(virt))
	}
}

func TestIsNewRom(t *testing.T) {
	cfg := US
	assert.False(t, cfg.IsNewRom(cfg.NewRomStart-1))
	assert.True(t, cfg.IsNewRom(cfg.NewRomStart))
}

func TestNodeRemapDiffersBetweenRegions(t *testing.T) {
	for id, usID := range US.NodeRemap {
		jpID, ok := JP.NodeRemap[id]
		require.True(t, ok, "JP should remap the same source ids as US")
		assert.Equal(t, id, usID, "US remap table is the identity")
		if id == 0x1A1 {
			assert.NotEqual(t, usID, jpID, "JP must renumber this entity")
		}
	}
}
