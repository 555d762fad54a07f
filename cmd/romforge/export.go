package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/galehouse/romforge/loading"
	"github.com/galehouse/romforge/misc"
	"github.com/galehouse/romforge/textdump"
)

type exportCommand struct {
	regionOptions
	Room          string `long:"room" description:"Warp index (hex)" required:"true"`
	RoomIndexFile string `long:"room-index" description:"Path to room_indexes.txt (optional)"`
	Output        string `short:"o" long:"output" description:"Output path (default: stdout)"`
	Args          struct {
		ROM string `positional-arg-name:"rom" description:"ROM image to read" required:"true"`
	} `positional-args:"yes"`
}

func (c *exportCommand) Execute(args []string) error {
	warpIndex, err := parseWarpIndex(c.Room)
	if err != nil {
		return err
	}
	fileIndex, err := resolveFileIndex(warpIndex, c.RoomIndexFile)
	if err != nil {
		return err
	}

	eng, _, err := loadEngine(c.Args.ROM, c.regionOptions)
	if err != nil {
		return err
	}

	r, err := eng.Room(fileIndex)
	if err != nil {
		return fmt.Errorf("reading room %#x (file %d): %w", warpIndex, fileIndex, err)
	}

	_, row, err := misc.RowOf(warpIndex)
	if err != nil {
		return err
	}
	fields, err := eng.Misc().Room(row)
	if err != nil {
		return fmt.Errorf("reading misc fields for row %d: %w", row, err)
	}

	rt := textdump.FromRoom(warpIndex, r, fields, loading.List{})

	out := os.Stdout
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", c.Output, err)
		}
		defer f.Close()
		out = f
	}
	return textdump.Write(out, rt)
}

func addExportCommand(parser *flags.Parser) {
	_, err := parser.AddCommand("export",
		"Write one room as a text dump",
		"Renders a room's definitions, spawn groups, and misc-overlay fields\n"+
			"in the hand-editable text dump format.",
		&exportCommand{})
	if err != nil {
		panic(err)
	}
}
