package misc

import (
	"testing"

	"github.com/galehouse/romforge/encoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPayload(t *testing.T) []byte {
	t.Helper()
	payload := make([]byte, 0x400)
	rootOffset := 0x10

	sectionData := [sectionCount][]byte{}
	offset := rootOffset + sectionCount*rootStride
	rows := 2
	for i := 0; i < sectionCount; i++ {
		size := rows * sectionStride[i]
		sectionData[i] = payload[offset : offset+size]
		encoding.Write32(payload, rootOffset+i*rootStride, uint32(offset))
		encoding.Write16(payload, rootOffset+i*rootStride+4, uint16(rows))
		offset += size
	}

	encoding.Write32(sectionData[0], 0, 0xAABBCCDD) // graphics1, row 0
	encoding.Write32(sectionData[0], 4, 0x11223344) // graphics2, row 0
	encoding.Write16(sectionData[3], 0, 7)          // bgm, row 0

	return payload
}

func TestParseAndReadRoomFields(t *testing.T) {
	payload := buildPayload(t)
	ov, err := Parse(payload, 0x10)
	require.NoError(t, err)

	f, err := ov.Room(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xAABBCCDD), f.Graphics1)
	assert.Equal(t, uint32(0x11223344), f.Graphics2)
	assert.Equal(t, uint16(7), f.BGM)
}

func TestWriteField(t *testing.T) {
	payload := buildPayload(t)
	ov, err := Parse(payload, 0x10)
	require.NoError(t, err)

	require.NoError(t, ov.Write16(3, 1, 1, 0, 42))
	f, err := ov.Room(1)
	require.NoError(t, err)
	assert.Equal(t, uint16(42), f.BGM)
}

func TestIllegalEditRejected(t *testing.T) {
	payload := buildPayload(t)
	ov, err := Parse(payload, 0x10)
	require.NoError(t, err)

	err = ov.Write16(5, 0, 0, 0, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIllegalEdit)

	err = ov.Write16(5, 0, 3, 0, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIllegalEdit)

	err = ov.Write16(5, 0, 1, 0, 1)
	require.NoError(t, err)
}

func TestCategoryOf(t *testing.T) {
	cat, err := CategoryOf(0x050)
	require.NoError(t, err)
	assert.Equal(t, 1, cat)

	_, err = CategoryOf(0x200)
	require.Error(t, err)
}

func TestBytesRoundTrip(t *testing.T) {
	payload := buildPayload(t)
	ov, err := Parse(payload, 0x10)
	require.NoError(t, err)

	require.NoError(t, ov.Write16(3, 0, 1, 0, 99))
	out := ov.Bytes(payload)
	require.Equal(t, len(payload), len(out))

	reparsed, err := Parse(out, 0x10)
	require.NoError(t, err)
	f, err := reparsed.Room(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(99), f.BGM)
}

func TestRowOutOfRange(t *testing.T) {
	payload := buildPayload(t)
	ov, err := Parse(payload, 0x10)
	require.NoError(t, err)

	_, err = ov.Room(5)
	require.Error(t, err)
}
