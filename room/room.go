// Package room parses and serializes a room payload: a 28-byte metadata
// header, a dense definitions segment, a spawn-group-organized instances
// segment, a spawn-group grid, and a 28-byte footer. It builds on entity for
// record-level field access and knows nothing about compression, the
// pointer table, or which file-table index a room lives at beyond the
// self-referential FileIndex the header itself carries.
package room

import (
	"errors"
	"fmt"

	"github.com/galehouse/romforge/encoding"
	"github.com/galehouse/romforge/entity"
)

const (
	headerSize = 28
	footerSize = 28

	headerMarker   = 0x0800
	instanceMarker = 0x0800

	// footerCountsOffset is where the three 16-bit group counts live within
	// the 28-byte footer. The other 22 bytes are opaque and must round-trip
	// unchanged.
	footerCountsOffset = 20

	// gridCellSize is the width of one spawn-group grid cell: a 0x0800
	// marker followed by a little-endian 16-bit offset, or all zero if the
	// cell has no instances.
	gridCellSize = 4
	gridMarker   = 0x0800
)

// ErrInvariantViolated is returned for any structural check a parsed room
// fails: header markers, reserved-zero fields, self-reference, or the
// dense-index requirement on definitions.
var ErrInvariantViolated = errors.New("room: invariant violated")

// Group is one spawn group: either a cell in the (X, Z, Y) grid, or the
// synthetic group (X = Z = Y = -1) that always occupies instance-segment
// offset 0 and holds instances not assigned to any grid cell.
type Group struct {
	X, Z, Y   int
	Instances []entity.Instance
}

// IsSynthetic reports whether g is the (-1, -1, -1) synthetic group.
func (g Group) IsSynthetic() bool {
	return g.X == -1 && g.Y == -1 && g.Z == -1
}

// Room is the parsed form of a room payload.
type Room struct {
	FileIndex   int
	Definitions []entity.Definition
	Groups      []Group // Groups[0] is always the synthetic group

	GroupsX, GroupsZ, GroupsY int

	// Footer is the raw 28-byte footer as read from the ROM, including the
	// bytes outside the group-count fields. Serialize overwrites only the
	// count fields and re-emits the rest verbatim, so a room round-trips
	// even when those bytes carry data this package doesn't interpret.
	Footer []byte

	// ThunkAddress is the virtual address of this room's loading thunk, as
	// last recorded by the loading-table writer. Zero until a save cycle
	// populates it.
	ThunkAddress uint32
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func gridIndex(groupsX, groupsZ, x, z, y int) int {
	return x + z*groupsX + y*groupsX*groupsZ
}

// Parse decodes a room payload. fileIndex is the file table index the
// payload was read from, checked against the header's self-reference.
func Parse(data []byte, fileIndex int) (*Room, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: payload of %d bytes shorter than header", ErrInvariantViolated, len(data))
	}

	marker1 := encoding.Read16(data, 0)
	marker2 := encoding.Read16(data, 2)
	thunkAddress := encoding.Read32(data, 4)
	headerFileIndex := encoding.Read16(data, 8)
	reserved2 := encoding.Read16(data, 10)
	definitionsCount := int(encoding.Read16(data, 12))
	instancesOffset := int(encoding.Read16(data, 14))
	footerOffset := int(encoding.Read32(data, 16))
	endingOffset := int(encoding.Read32(data, 20))

	if marker1 != headerMarker || marker2 != headerMarker {
		return nil, fmt.Errorf("%w: header markers %#x/%#x != %#x", ErrInvariantViolated, marker1, marker2, headerMarker)
	}
	if reserved2 != 0 {
		return nil, fmt.Errorf("%w: header reserved field is non-zero", ErrInvariantViolated)
	}
	if int(headerFileIndex) != fileIndex {
		return nil, fmt.Errorf("%w: header self-reference %d != file index %d", ErrInvariantViolated, headerFileIndex, fileIndex)
	}
	if endingOffset != footerOffset+footerSize {
		return nil, fmt.Errorf("%w: ending offset %#x != footer offset %#x + %d", ErrInvariantViolated, endingOffset, footerOffset, footerSize)
	}
	if endingOffset > len(data) {
		return nil, fmt.Errorf("%w: ending offset %#x exceeds payload length %d", ErrInvariantViolated, endingOffset, len(data))
	}

	defsStart := headerSize
	defsEnd := defsStart + definitionsCount*entity.DefinitionSize
	if defsEnd > instancesOffset {
		return nil, fmt.Errorf("%w: definitions segment [%#x,%#x) overruns instances offset %#x", ErrInvariantViolated, defsStart, defsEnd, instancesOffset)
	}
	defs := make([]entity.Definition, definitionsCount)
	for i := 0; i < definitionsCount; i++ {
		defs[i] = append(entity.Definition(nil), data[defsStart+i*entity.DefinitionSize:defsStart+(i+1)*entity.DefinitionSize]...)
	}

	footer := append([]byte(nil), data[footerOffset:footerOffset+footerSize]...)
	groupsX := int(encoding.Read16(footer, footerCountsOffset))
	groupsZ := int(encoding.Read16(footer, footerCountsOffset+2))
	groupsY := int(encoding.Read16(footer, footerCountsOffset+4))

	// The spawn-group grid follows the footer, starting at ending_offset.
	gridStart := endingOffset
	gridSize := groupsX * groupsZ * groupsY * gridCellSize
	if gridStart+gridSize > len(data) {
		return nil, fmt.Errorf("%w: spawn-group grid [%#x,%#x) exceeds payload length %d", ErrInvariantViolated, gridStart, gridStart+gridSize, len(data))
	}

	instancesBase := instancesOffset

	parseInstancesAt := func(off int) ([]entity.Instance, error) {
		var out []entity.Instance
		for {
			if off+entity.InstanceSize > len(data) {
				return nil, fmt.Errorf("%w: instance list runs past end of payload", ErrInvariantViolated)
			}
			rec := data[off : off+entity.InstanceSize]
			if isZero(rec) {
				return out, nil
			}
			marker := encoding.Read16(data, off+12)
			if marker != instanceMarker {
				return nil, fmt.Errorf("%w: instance at %#x has marker %#x != %#x", ErrInvariantViolated, off, marker, instanceMarker)
			}
			out = append(out, append(entity.Instance(nil), rec...))
			off += entity.InstanceSize
		}
	}

	synthetic, err := parseInstancesAt(instancesBase)
	if err != nil {
		return nil, err
	}
	groups := []Group{{X: -1, Y: -1, Z: -1, Instances: synthetic}}

	for y := 0; y < groupsY; y++ {
		for z := 0; z < groupsZ; z++ {
			for x := 0; x < groupsX; x++ {
				cellOff := gridStart + gridIndex(groupsX, groupsZ, x, z, y)*gridCellSize
				cell := data[cellOff : cellOff+gridCellSize]
				if isZero(cell) {
					groups = append(groups, Group{X: x, Z: z, Y: y})
					continue
				}
				marker := encoding.Read16(cell, 0)
				if marker != gridMarker {
					return nil, fmt.Errorf("%w: grid cell at %#x has marker %#x != %#x", ErrInvariantViolated, cellOff, marker, gridMarker)
				}
				relToDefs := int(cell[2]) | int(cell[3])<<8
				instances, err := parseInstancesAt(defsStart + relToDefs)
				if err != nil {
					return nil, err
				}
				groups = append(groups, Group{X: x, Z: z, Y: y, Instances: instances})
			}
		}
	}

	return &Room{
		FileIndex:    fileIndex,
		Definitions:  defs,
		Groups:       groups,
		GroupsX:      groupsX,
		GroupsZ:      groupsZ,
		GroupsY:      groupsY,
		Footer:       footer,
		ThunkAddress: thunkAddress,
	}, nil
}

// validateInstance enforces the two checks Serialize treats as fatal: the
// instance's marker field is well-formed, and its definition_index (byte 14,
// undefined unless the low nibble is zero) names one of the room's dense
// 0..numDefs-1 definitions.
func validateInstance(inst entity.Instance, numDefs int) error {
	marker := encoding.Read16(inst, 12)
	if marker != instanceMarker {
		return fmt.Errorf("%w: instance has marker %#x != %#x", ErrInvariantViolated, marker, instanceMarker)
	}
	idx, ok := inst.DefinitionIndex()
	if !ok {
		return fmt.Errorf("%w: instance byte 14 low nibble is non-zero, definition_index is undefined", ErrInvariantViolated)
	}
	if idx >= numDefs {
		return fmt.Errorf("%w: instance references definition %d, room only has %d", ErrInvariantViolated, idx, numDefs)
	}
	return nil
}

// Serialize encodes r back into a room payload, recomputing every offset
// from its current contents. Definitions are written in slice order, and the
// synthetic group is always written first at instances-segment offset 0,
// matching Parse's layout. Every instance's definition_index is checked
// against the definitions slice; r.Footer is preserved byte-for-byte outside
// the three group-count fields.
func (r *Room) Serialize() ([]byte, error) {
	if len(r.Groups) == 0 || !r.Groups[0].IsSynthetic() {
		return nil, fmt.Errorf("%w: Groups[0] must be the synthetic (-1,-1,-1) group", ErrInvariantViolated)
	}

	defsStart := headerSize
	defsEnd := defsStart + len(r.Definitions)*entity.DefinitionSize
	instancesOffset := defsEnd
	if instancesOffset > 0xFFFF {
		return nil, fmt.Errorf("room: instances offset %#x exceeds 16 bits", instancesOffset)
	}
	definitionsLength := instancesOffset - defsStart

	var instances []byte
	cellOffset := make([]int, len(r.Groups))
	for i, g := range r.Groups {
		cellOffset[i] = len(instances)
		for _, inst := range g.Instances {
			if err := validateInstance(inst, len(r.Definitions)); err != nil {
				return nil, err
			}
			instances = append(instances, inst...)
		}
		instances = append(instances, make([]byte, entity.InstanceSize)...)
	}

	grid := make([]byte, r.GroupsX*r.GroupsZ*r.GroupsY*gridCellSize)
	for i, g := range r.Groups {
		if g.IsSynthetic() {
			continue
		}
		if len(g.Instances) == 0 {
			continue
		}
		idx := gridIndex(r.GroupsX, r.GroupsZ, g.X, g.Z, g.Y)
		cell := grid[idx*gridCellSize : idx*gridCellSize+gridCellSize]
		encoding.Write16(cell, 0, gridMarker)
		relToDefs := cellOffset[i] + definitionsLength
		cell[2] = byte(relToDefs)
		cell[3] = byte(relToDefs >> 8)
	}

	footerOffset := instancesOffset + len(instances)
	footer := append([]byte(nil), r.Footer...)
	if len(footer) != footerSize {
		footer = make([]byte, footerSize)
	}
	encoding.Write16(footer, footerCountsOffset, uint16(r.GroupsX))
	encoding.Write16(footer, footerCountsOffset+2, uint16(r.GroupsZ))
	encoding.Write16(footer, footerCountsOffset+4, uint16(r.GroupsY))

	endingOffset := footerOffset + footerSize
	gridStart := endingOffset

	out := make([]byte, gridStart+len(grid))
	encoding.Write16(out, 0, headerMarker)
	encoding.Write16(out, 2, headerMarker)
	encoding.Write32(out, 4, r.ThunkAddress)
	encoding.Write16(out, 8, uint16(r.FileIndex))
	encoding.Write16(out, 10, 0)
	encoding.Write16(out, 12, uint16(len(r.Definitions)))
	encoding.Write16(out, 14, uint16(instancesOffset))
	encoding.Write32(out, 16, uint32(footerOffset))
	encoding.Write32(out, 20, uint32(endingOffset))

	for i, d := range r.Definitions {
		copy(out[defsStart+i*entity.DefinitionSize:], d)
	}
	copy(out[instancesOffset:], instances)
	copy(out[footerOffset:], footer)
	copy(out[gridStart:], grid)

	return out, nil
}
