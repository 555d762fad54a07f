// Command romforge is a CLI for inspecting and rewriting ROM images through
// the orchestrator's load/edit/save cycle.
//
// Usage:
//
//	romforge <command> [options]
//
// Commands:
//
//	load      Parse a ROM and report a summary
//	blocks    Dump one room's header/definitions/instances/footer
//	export    Write one room as a text dump
//	import    Apply a text dump and save a new ROM
//	checksum  Recompute and report the cartridge checksum
//	roommap   Render one room's spawn-group grid to a PNG
package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

var version = "dev"

type globalOptions struct {
	Version func() `short:"V" long:"version" description:"Print version and exit"`
}

func main() {
	var globals globalOptions
	globals.Version = func() {
		fmt.Printf("romforge %s\n", version)
		os.Exit(0)
	}

	parser := flags.NewParser(&globals, flags.Default)
	parser.Name = "romforge"
	parser.LongDescription = "A toolkit for rewriting fifth-generation 3D action-adventure ROM images"

	addLoadCommand(parser)
	addBlocksCommand(parser)
	addExportCommand(parser)
	addImportCommand(parser)
	addChecksumCommand(parser)
	addRoommapCommand(parser)

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
			if flagsErr.Type == flags.ErrCommandRequired {
				parser.WriteHelp(os.Stderr)
				os.Exit(1)
			}
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
