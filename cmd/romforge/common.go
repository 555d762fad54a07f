package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/galehouse/romforge/entity"
	"github.com/galehouse/romforge/orchestrator"
	"github.com/galehouse/romforge/region"
)

// regionOptions is embedded by every subcommand that needs to resolve a ROM
// region and optional entity schema before loading.
type regionOptions struct {
	Region string `long:"region" description:"ROM region (us or jp)" default:"us"`
	Schema string `long:"schema" description:"Path to an entity_structures.yaml schema file (optional)"`
}

func (o regionOptions) resolveConfig() (*region.Config, error) {
	cfg, ok := region.ByName(o.Region)
	if !ok {
		return nil, fmt.Errorf("unrecognized region %q (want us or jp)", o.Region)
	}
	return cfg, nil
}

func (o regionOptions) loadSchema() (entity.Schema, error) {
	if o.Schema == "" {
		return entity.Schema{}, nil
	}
	data, err := os.ReadFile(o.Schema)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", o.Schema, err)
	}
	return entity.Load(data)
}

func loadEngine(romPath string, opts regionOptions) (*orchestrator.Engine, []byte, error) {
	cfg, err := opts.resolveConfig()
	if err != nil {
		return nil, nil, err
	}
	schema, err := opts.loadSchema()
	if err != nil {
		return nil, nil, err
	}
	rom, err := os.ReadFile(romPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading ROM %s: %w", romPath, err)
	}
	eng, err := orchestrator.Load(cfg, schema, rom)
	if err != nil {
		return nil, nil, fmt.Errorf("loading ROM: %w", err)
	}
	return eng, rom, nil
}

// parseWarpIndex accepts either a bare hex string ("1a2") or a "0x"-prefixed
// one.
func parseWarpIndex(s string) (int, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseInt(digits, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid warp index %q: %w", s, err)
	}
	return int(v), nil
}

// loadRoomIndex parses a room_indexes.txt file: one "<warp_hex>
// <file_index_hex> [name]" record per line, blank lines and '#' comments
// ignored, mapping a warp index to its file-table index.
func loadRoomIndex(path string) (map[int]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading room index %s: %w", path, err)
	}
	defer f.Close()

	out := make(map[int]int)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("room index %s: malformed line %q", path, line)
		}
		warp, err := strconv.ParseInt(fields[0], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("room index %s: bad warp index %q: %w", path, fields[0], err)
		}
		fileIndex, err := strconv.ParseInt(fields[1], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("room index %s: bad file index %q: %w", path, fields[1], err)
		}
		out[int(warp)] = int(fileIndex)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("room index %s: %w", path, err)
	}
	return out, nil
}

// resolveFileIndex maps a warp index to a file-table index, via an explicit
// room_indexes.txt if provided, falling back to treating the warp index as
// the file index directly (true for regions where the two ranges coincide).
func resolveFileIndex(warpIndex int, roomIndexPath string) (int, error) {
	if roomIndexPath == "" {
		return warpIndex, nil
	}
	idx, err := loadRoomIndex(roomIndexPath)
	if err != nil {
		return 0, err
	}
	fileIndex, ok := idx[warpIndex]
	if !ok {
		return 0, fmt.Errorf("warp index %#x has no entry in %s", warpIndex, roomIndexPath)
	}
	return fileIndex, nil
}
