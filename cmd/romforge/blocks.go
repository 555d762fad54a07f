package main

import (
	"fmt"

	"github.com/jessevdk/go-flags"
)

type blocksCommand struct {
	regionOptions
	Room          string `long:"room" description:"Warp index (hex)" required:"true"`
	RoomIndexFile string `long:"room-index" description:"Path to room_indexes.txt (optional; defaults to warp index == file index)"`
	Args          struct {
		ROM string `positional-arg-name:"rom" description:"ROM image to read" required:"true"`
	} `positional-args:"yes"`
}

func (c *blocksCommand) Execute(args []string) error {
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

	fmt.Printf("Room %#x (file %d): %d definitions, %d groups (%dx%dx%d grid), thunk=%#x\n",
		warpIndex, fileIndex, len(r.Definitions), len(r.Groups), r.GroupsX, r.GroupsZ, r.GroupsY, r.ThunkAddress)
	for i, d := range r.Definitions {
		fmt.Printf("  def[%d]: actor=%#04x %x\n", i, d.ActorID(), []byte(d))
	}
	for _, g := range r.Groups {
		if g.IsSynthetic() {
			fmt.Printf("  ungrouped: %d instances\n", len(g.Instances))
		} else {
			fmt.Printf("  group (%d,%d,%d): %d instances\n", g.X, g.Z, g.Y, len(g.Instances))
		}
		for i, inst := range g.Instances {
			fmt.Printf("    inst[%d]: %x\n", i, []byte(inst))
		}
	}
	fmt.Printf("  footer: %x\n", r.Footer)
	return nil
}

func addBlocksCommand(parser *flags.Parser) {
	_, err := parser.AddCommand("blocks",
		"Dump one room's header/definitions/instances/footer",
		"Reads a single room payload and prints its definitions and spawn\n"+
			"groups in a human-readable summary.",
		&blocksCommand{})
	if err != nil {
		panic(err)
	}
}
