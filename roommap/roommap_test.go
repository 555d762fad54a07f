package roommap

import (
	"strings"
	"testing"

	"github.com/galehouse/romforge/entity"
	"github.com/galehouse/romforge/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoom() *room.Room {
	inst := make(entity.Instance, entity.InstanceSize)
	inst[0], inst[1] = 0x00, 0x42

	return &room.Room{
		FileIndex: 1,
		GroupsX:   2,
		GroupsZ:   2,
		GroupsY:   1,
		Groups: []room.Group{
			{X: -1, Y: -1, Z: -1},
			{X: 0, Z: 0, Y: 0, Instances: []entity.Instance{inst}},
			{X: 1, Z: 0, Y: 0},
			{X: 0, Z: 1, Y: 0},
			{X: 1, Z: 1, Y: 0},
		},
	}
}

func TestRenderSVGIncludesOccupiedCell(t *testing.T) {
	r := testRoom()
	svg := RenderSVG(r, Options{})
	assert.True(t, strings.Contains(svg, "<svg"))
	assert.True(t, strings.Contains(svg, "rgb(200,225,255)")) // occupied cell fill
	assert.True(t, strings.Contains(svg, "0x42"))
}

func TestRenderSVGEmptyRoomStillProducesValidDocument(t *testing.T) {
	r := &room.Room{GroupsX: 1, GroupsZ: 1, GroupsY: 1, Groups: []room.Group{{X: -1, Y: -1, Z: -1}}}
	svg := RenderSVG(r, Options{})
	assert.True(t, strings.HasPrefix(strings.TrimSpace(svg), "<?xml"))
}

func TestRenderPNGProducesImage(t *testing.T) {
	r := testRoom()
	img, err := RenderPNG(r, Options{})
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
	assert.Greater(t, img.Bounds().Dy(), 0)
}
