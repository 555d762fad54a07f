package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDeterministic(t *testing.T) {
	rom := make([]byte, regionEnd+0x100)
	for i := range rom {
		rom[i] = byte(i * 7)
	}
	v1, err := Compute(rom)
	require.NoError(t, err)
	v2, err := Compute(rom)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestComputeChangesWithContent(t *testing.T) {
	rom := make([]byte, regionEnd+0x100)
	v1, err := Compute(rom)
	require.NoError(t, err)

	rom[regionStart] = 0xFF
	v2, err := Compute(rom)
	require.NoError(t, err)

	assert.NotEqual(t, v1, v2)
}

func TestComputeTooShort(t *testing.T) {
	_, err := Compute(make([]byte, 0x100))
	require.Error(t, err)
}

func TestApplyWritesChecksum(t *testing.T) {
	rom := make([]byte, regionEnd+0x100)
	require.NoError(t, Apply(rom))

	want, err := Compute(rom)
	require.NoError(t, err)

	got := uint64(0)
	for _, b := range rom[writeOffset : writeOffset+8] {
		got = got<<8 | uint64(b)
	}
	assert.Equal(t, want, got)
}
