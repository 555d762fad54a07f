package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/galehouse/romforge/checksum"
)

type checksumCommand struct {
	Apply bool   `long:"apply" description:"Write the recomputed checksum back into the ROM"`
	Args  struct {
		ROM string `positional-arg-name:"rom" description:"ROM image to read" required:"true"`
	} `positional-args:"yes"`
}

func (c *checksumCommand) Execute(args []string) error {
	rom, err := os.ReadFile(c.Args.ROM)
	if err != nil {
		return fmt.Errorf("reading ROM %s: %w", c.Args.ROM, err)
	}

	value, err := checksum.Compute(rom)
	if err != nil {
		return err
	}
	fmt.Printf("checksum: %#016x\n", value)

	if c.Apply {
		if err := checksum.Apply(rom); err != nil {
			return err
		}
		if err := os.WriteFile(c.Args.ROM, rom, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", c.Args.ROM, err)
		}
		fmt.Printf("wrote checksum to %s\n", c.Args.ROM)
	}
	return nil
}

func addChecksumCommand(parser *flags.Parser) {
	_, err := parser.AddCommand("checksum",
		"Recompute and report the cartridge checksum",
		"Computes the cartridge boot checksum over a ROM image and reports it;\n"+
			"with --apply, writes the recomputed value back into the image.",
		&checksumCommand{})
	if err != nil {
		panic(err)
	}
}
