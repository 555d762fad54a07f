// Package textdump implements the line-based hand-editing format spec.md §6
// describes: one block per room, its metadata/misc/loading-list directives
// as `!`-prefixed lines, its definitions and spawn groups as hex-byte
// records under `# DEFINITIONS` / `# INSTANCES` comment headers, and its
// footer as a final line of hex bytes. Parse is whitespace- and
// comment-tolerant, matching the original tool's dictionary load/dump
// routines this format is carried forward from.
package textdump

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/galehouse/romforge/entity"
	"github.com/galehouse/romforge/loading"
	"github.com/galehouse/romforge/misc"
	"github.com/galehouse/romforge/room"
)

// ErrMalformed is returned when a dump fails to parse.
var ErrMalformed = errors.New("textdump: malformed dump")

// GroupText is one spawn group's coordinates and raw instance records.
type GroupText struct {
	X, Z, Y   int
	Instances [][]byte
}

// IsSynthetic reports whether g is the (-1,-1,-1) ungrouped spawn group.
func (g GroupText) IsSynthetic() bool {
	return g.X == -1 && g.Z == -1 && g.Y == -1
}

// RoomText is the parsed or to-be-emitted form of one `ROOM XXX:` block.
type RoomText struct {
	WarpIndex int

	Meta map[string]uint32
	Misc map[string][]uint32
	Load []uint16

	Definitions [][]byte
	Groups      []GroupText
	Footer      []byte
}

// FromRoom builds a RoomText from a parsed Room, its misc-overlay fields,
// and its loading dependency list, for Write to emit.
func FromRoom(warpIndex int, r *room.Room, fields misc.RoomFields, deps loading.List) RoomText {
	rt := RoomText{
		WarpIndex: warpIndex,
		Meta: map[string]uint32{
			"groups_x":      uint32(r.GroupsX),
			"groups_z":      uint32(r.GroupsZ),
			"groups_y":      uint32(r.GroupsY),
			"thunk_address": r.ThunkAddress,
		},
		Misc: map[string][]uint32{
			"graphics1":      {fields.Graphics1},
			"graphics2":      {fields.Graphics2},
			"loading_unknown": {uint32(fields.LoadingUnknown[0]), uint32(fields.LoadingUnknown[1]), uint32(fields.LoadingUnknown[2])},
			"loading_files":  {uint32(fields.LoadingFiles[0]), uint32(fields.LoadingFiles[1]), uint32(fields.LoadingFiles[2]), uint32(fields.LoadingFiles[3])},
			"bsp_plane_data": {fields.BSPPlaneData},
			"bsp_tree":       {fields.BSPTree},
			"bgm":            {uint32(fields.BGM)},
			"skybox_index":   {uint32(fields.SkyboxIndex)},
		},
	}
	for _, d := range r.Definitions {
		rt.Definitions = append(rt.Definitions, append([]byte(nil), d...))
	}
	for _, g := range r.Groups {
		gt := GroupText{X: g.X, Z: g.Z, Y: g.Y}
		for _, inst := range g.Instances {
			gt.Instances = append(gt.Instances, append([]byte(nil), inst...))
		}
		rt.Groups = append(rt.Groups, gt)
	}
	for _, v := range deps {
		rt.Load = append(rt.Load, v)
	}
	rt.Footer = append([]byte(nil), r.Footer...)
	return rt
}

// ToRoom reconstructs a Room from rt for the given file index. It trusts
// rt's byte records at face value; Room.Serialize/Parse still enforce the
// structural invariants (dense definitions, synthetic group first) when the
// result is later round-tripped.
func (rt RoomText) ToRoom(fileIndex int) (*room.Room, error) {
	r := &room.Room{
		FileIndex:    fileIndex,
		GroupsX:      int(rt.Meta["groups_x"]),
		GroupsZ:      int(rt.Meta["groups_z"]),
		GroupsY:      int(rt.Meta["groups_y"]),
		ThunkAddress: rt.Meta["thunk_address"],
		Footer:       append([]byte(nil), rt.Footer...),
	}
	for _, d := range rt.Definitions {
		if len(d) != entity.DefinitionSize {
			return nil, fmt.Errorf("%w: definition is %d bytes, want %d", ErrMalformed, len(d), entity.DefinitionSize)
		}
		r.Definitions = append(r.Definitions, append(entity.Definition(nil), d...))
	}
	for _, g := range rt.Groups {
		group := room.Group{X: g.X, Z: g.Z, Y: g.Y}
		for _, inst := range g.Instances {
			if len(inst) != entity.InstanceSize {
				return nil, fmt.Errorf("%w: instance is %d bytes, want %d", ErrMalformed, len(inst), entity.InstanceSize)
			}
			group.Instances = append(group.Instances, append(entity.Instance(nil), inst...))
		}
		r.Groups = append(r.Groups, group)
	}
	return r, nil
}

// LoadingList returns rt's loading dependency list.
func (rt RoomText) LoadingList() loading.List {
	return loading.List(append([]uint16(nil), rt.Load...))
}

// Write emits rt in the textdump format.
func Write(w io.Writer, rt RoomText) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ROOM %03X:\n", rt.WarpIndex)

	for _, k := range sortedKeys(rt.Meta) {
		fmt.Fprintf(bw, "  !meta %s %X\n", k, rt.Meta[k])
	}
	for _, k := range sortedKeys(rt.Misc) {
		vals := rt.Misc[k]
		hexes := make([]string, len(vals))
		for i, v := range vals {
			hexes[i] = fmt.Sprintf("%X", v)
		}
		fmt.Fprintf(bw, "  !misc %s %s\n", k, strings.Join(hexes, ","))
	}
	if len(rt.Load) > 0 {
		hexes := make([]string, len(rt.Load))
		for i, v := range rt.Load {
			hexes[i] = fmt.Sprintf("%X", v)
		}
		fmt.Fprintf(bw, "  !load %s\n", strings.Join(hexes, " "))
	}

	fmt.Fprintln(bw, "  # DEFINITIONS")
	for i, d := range rt.Definitions {
		fmt.Fprintf(bw, "  %03X: %s\n", i, hexPairs(d))
	}

	fmt.Fprintln(bw, "  # INSTANCES")
	for _, g := range rt.Groups {
		fmt.Fprintf(bw, "  +GROUP %02X,%02X,%02X\n", g.X&0xFF, g.Z&0xFF, g.Y&0xFF)
		for i, inst := range g.Instances {
			fmt.Fprintf(bw, "  +%02X: %s\n", i, hexPairs(inst))
		}
	}

	fmt.Fprintln(bw, "  # FOOTER")
	fmt.Fprintf(bw, "  %s\n", hexPairs(rt.Footer))

	return bw.Flush()
}

func hexPairs(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, " ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// section tracks which record block a parser is currently inside.
type section int

const (
	sectionNone section = iota
	sectionDefinitions
	sectionInstances
	sectionFooter
)

// Parse reads a single-room dump from r. Blank lines, full-line comments
// (`#`), and `@ field: value` annotation lines (informational only; the
// preceding hex-byte line already carries the canonical data) are ignored.
func Parse(r io.Reader) (RoomText, error) {
	var rt RoomText
	rt.Meta = map[string]uint32{}
	rt.Misc = map[string][]uint32{}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	sect := sectionNone
	var curGroup *GroupText
	sawHeader := false

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "@") {
			continue
		}
		if strings.HasPrefix(line, "#") {
			switch {
			case strings.Contains(line, "DEFINITIONS"):
				sect = sectionDefinitions
			case strings.Contains(line, "INSTANCES"):
				sect = sectionInstances
			case strings.Contains(line, "FOOTER"):
				sect = sectionFooter
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "ROOM "):
			idxStr := strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(line, "ROOM ")), ":")
			idx, err := strconv.ParseInt(idxStr, 16, 32)
			if err != nil {
				return rt, fmt.Errorf("%w: bad room header %q: %v", ErrMalformed, line, err)
			}
			rt.WarpIndex = int(idx)
			sawHeader = true

		case strings.HasPrefix(line, "!meta "):
			fields := strings.Fields(strings.TrimPrefix(line, "!meta "))
			if len(fields) != 2 {
				return rt, fmt.Errorf("%w: malformed !meta line %q", ErrMalformed, line)
			}
			v, err := strconv.ParseUint(fields[1], 16, 32)
			if err != nil {
				return rt, fmt.Errorf("%w: !meta %s value %q: %v", ErrMalformed, fields[0], fields[1], err)
			}
			rt.Meta[fields[0]] = uint32(v)

		case strings.HasPrefix(line, "!misc "):
			fields := strings.SplitN(strings.TrimPrefix(line, "!misc "), " ", 2)
			if len(fields) != 2 {
				return rt, fmt.Errorf("%w: malformed !misc line %q", ErrMalformed, line)
			}
			var vals []uint32
			for _, tok := range strings.Split(fields[1], ",") {
				v, err := strconv.ParseUint(strings.TrimSpace(tok), 16, 32)
				if err != nil {
					return rt, fmt.Errorf("%w: !misc %s value %q: %v", ErrMalformed, fields[0], tok, err)
				}
				vals = append(vals, uint32(v))
			}
			rt.Misc[fields[0]] = vals

		case strings.HasPrefix(line, "!load "):
			for _, tok := range strings.Fields(strings.TrimPrefix(line, "!load ")) {
				v, err := strconv.ParseUint(tok, 16, 16)
				if err != nil {
					return rt, fmt.Errorf("%w: !load value %q: %v", ErrMalformed, tok, err)
				}
				rt.Load = append(rt.Load, uint16(v))
			}

		case strings.HasPrefix(line, "+GROUP "):
			coords := strings.Split(strings.TrimPrefix(line, "+GROUP "), ",")
			if len(coords) != 3 {
				return rt, fmt.Errorf("%w: malformed +GROUP line %q", ErrMalformed, line)
			}
			x, err1 := strconv.ParseInt(coords[0], 16, 32)
			z, err2 := strconv.ParseInt(coords[1], 16, 32)
			y, err3 := strconv.ParseInt(coords[2], 16, 32)
			if err1 != nil || err2 != nil || err3 != nil {
				return rt, fmt.Errorf("%w: malformed +GROUP coordinates %q", ErrMalformed, line)
			}
			rt.Groups = append(rt.Groups, GroupText{X: int(int8(x)), Z: int(int8(z)), Y: int(int8(y))})
			curGroup = &rt.Groups[len(rt.Groups)-1]

		case strings.HasPrefix(line, "+"):
			body := line[strings.Index(line, ":")+1:]
			b, err := parseHexPairs(body)
			if err != nil {
				return rt, fmt.Errorf("%w: malformed instance line %q: %v", ErrMalformed, line, err)
			}
			if curGroup == nil {
				return rt, fmt.Errorf("%w: instance record before any +GROUP line", ErrMalformed)
			}
			curGroup.Instances = append(curGroup.Instances, b)

		default:
			colon := strings.Index(line, ":")
			switch sect {
			case sectionDefinitions:
				if colon < 0 {
					return rt, fmt.Errorf("%w: malformed definition line %q", ErrMalformed, line)
				}
				b, err := parseHexPairs(line[colon+1:])
				if err != nil {
					return rt, fmt.Errorf("%w: malformed definition line %q: %v", ErrMalformed, line, err)
				}
				rt.Definitions = append(rt.Definitions, b)
			case sectionFooter:
				b, err := parseHexPairs(line)
				if err != nil {
					return rt, fmt.Errorf("%w: malformed footer line %q: %v", ErrMalformed, line, err)
				}
				rt.Footer = append(rt.Footer, b...)
			default:
				return rt, fmt.Errorf("%w: unrecognized line %q", ErrMalformed, line)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return rt, fmt.Errorf("textdump: reading dump: %w", err)
	}
	if !sawHeader {
		return rt, fmt.Errorf("%w: missing ROOM header", ErrMalformed)
	}
	return rt, nil
}

func parseHexPairs(s string) ([]byte, error) {
	fields := strings.Fields(s)
	out := make([]byte, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}
	return out, nil
}
