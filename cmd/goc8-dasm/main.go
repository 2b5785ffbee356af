// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/lassandro/goc8/pkg/disassembler"
	"github.com/lassandro/goc8/pkg/machine"
)

var helpvar bool
var outvar string

const usage = "goc8-dasm [-out outfile] filename"

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.StringVar(
		&outvar, "out", "",
		"Specifies an output file instead of printing to stdout",
	)
	flag.Parse()
}

func goc8_dasm() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	var rom []byte

	if stat, _ := os.Stdin.Stat(); stat.Mode()&os.ModeCharDevice == 0 {
		var err error
		rom, err = io.ReadAll(os.Stdin)

		if err != nil {
			log.Println(err)
			return 1
		}
	} else {
		if len(args) != 1 {
			log.Println(usage)
			return 1
		}

		file, err := os.Open(args[0])

		if err != nil {
			log.Println(err)
			return 1
		}

		rom, err = io.ReadAll(file)
		file.Close()

		if err != nil {
			log.Println(err)
			return 1
		}
	}

	if int64(len(rom)) > machine.MaxROMSize {
		log.Printf(
			"ROM size %d exceeds program memory (%d bytes)",
			len(rom),
			machine.MaxROMSize,
		)
		return 1
	}

	var out io.Writer = os.Stdout

	if outvar != "" {
		file, err := os.Create(outvar)

		if err != nil {
			log.Println(err)
			return 1
		}

		defer file.Close()
		out = file
	}

	if err := disassembler.Disassemble(rom, out); err != nil {
		log.Println(err)
		return 1
	}

	return 0
}

func main() {
	os.Exit(goc8_dasm())
}
