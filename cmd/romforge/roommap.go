package main

import (
	"fmt"

	"github.com/jessevdk/go-flags"

	"github.com/galehouse/romforge/roommap"
)

type roommapCommand struct {
	regionOptions
	Room          string `long:"room" description:"Warp index (hex)" required:"true"`
	RoomIndexFile string `long:"room-index" description:"Path to room_indexes.txt (optional)"`
	Output        string `short:"o" long:"output" description:"Output PNG path" required:"true"`
	Y             int    `long:"y" description:"Which Y grid layer to render" default:"0"`
	CellSize      int    `long:"cell-size" description:"Pixels per grid cell" default:"32"`
	Args          struct {
		ROM string `positional-arg-name:"rom" description:"ROM image to read" required:"true"`
	} `positional-args:"yes"`
}

func (c *roommapCommand) Execute(args []string) error {
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

	return roommap.SavePNG(c.Output, r, roommap.Options{Y: c.Y, CellSize: c.CellSize})
}

func addRoommapCommand(parser *flags.Parser) {
	_, err := parser.AddCommand("roommap",
		"Render one room's spawn-group grid to a PNG",
		"Debug aid: renders a room's spawn-group occupancy grid and one marker\n"+
			"per entity instance (placed by its index within the cell, not by its\n"+
			"stored position) for one Y layer to a PNG file.",
		&roommapCommand{})
	if err != nil {
		panic(err)
	}
}
