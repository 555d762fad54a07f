package main

import (
	"fmt"

	"github.com/jessevdk/go-flags"
)

type loadCommand struct {
	regionOptions
	Args struct {
		ROM string `positional-arg-name:"rom" description:"ROM image to read" required:"true"`
	} `positional-args:"yes"`
}

func (c *loadCommand) Execute(args []string) error {
	eng, rom, err := loadEngine(c.Args.ROM, c.regionOptions)
	if err != nil {
		return err
	}

	fmt.Printf("ROM: %s (%d bytes), region %s\n", c.Args.ROM, len(rom), c.Region)
	fmt.Printf("Files: %d\n", eng.FileTable().Count())
	return nil
}

func addLoadCommand(parser *flags.Parser) {
	_, err := parser.AddCommand("load",
		"Parse a ROM and report a summary",
		"Parses the pointer table and misc-data overlay, reporting basic\n"+
			"counts so you can confirm a region's constants are correct before\n"+
			"running any edit commands against it.",
		&loadCommand{})
	if err != nil {
		panic(err)
	}
}
