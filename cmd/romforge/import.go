package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/galehouse/romforge/loading"
	"github.com/galehouse/romforge/textdump"
)

type importCommand struct {
	regionOptions
	RoomIndexFile string `long:"room-index" description:"Path to room_indexes.txt (optional)"`
	Output        string `short:"o" long:"output" description:"Output ROM path" required:"true"`
	Args          struct {
		ROM  string `positional-arg-name:"rom" description:"ROM image to read" required:"true"`
		Dump string `positional-arg-name:"dump" description:"Text dump to apply" required:"true"`
	} `positional-args:"yes"`
}

// Execute applies a single room's text dump (definitions, spawn groups, and
// loading dependency list) and writes a new ROM. Misc-overlay field edits
// in the dump are not replayed: textdump's !misc directives are read into
// RoomText.Misc and are not written to the ROM.
func (c *importCommand) Execute(args []string) error {
	dumpBytes, err := os.ReadFile(c.Args.Dump)
	if err != nil {
		return fmt.Errorf("reading dump %s: %w", c.Args.Dump, err)
	}
	rt, err := textdump.Parse(bytes.NewReader(dumpBytes))
	if err != nil {
		return fmt.Errorf("parsing dump %s: %w", c.Args.Dump, err)
	}

	fileIndex, err := resolveFileIndex(rt.WarpIndex, c.RoomIndexFile)
	if err != nil {
		return err
	}

	eng, _, err := loadEngine(c.Args.ROM, c.regionOptions)
	if err != nil {
		return err
	}

	r, err := rt.ToRoom(fileIndex)
	if err != nil {
		return fmt.Errorf("reconstructing room %#x: %w", rt.WarpIndex, err)
	}

	if err := eng.SetRoom(r, rt.LoadingList(), loading.Thunk{}); err != nil {
		return fmt.Errorf("staging room %#x: %w", rt.WarpIndex, err)
	}

	out, err := eng.Save()
	if err != nil {
		return fmt.Errorf("saving ROM: %w", err)
	}

	if err := os.WriteFile(c.Output, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", c.Output, err)
	}
	return nil
}

func addImportCommand(parser *flags.Parser) {
	_, err := parser.AddCommand("import",
		"Apply a text dump and save a new ROM",
		"Parses a text dump produced by export, reconstructs the room it\n"+
			"describes, and writes a new ROM with that room's data, loading\n"+
			"dependency list, and checksum updated.",
		&importCommand{})
	if err != nil {
		panic(err)
	}
}
