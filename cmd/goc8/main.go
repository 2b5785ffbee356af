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
	"encoding/gob"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/retroenv/retrogolib/log"

	"github.com/lassandro/goc8/pkg/assembler"
	"github.com/lassandro/goc8/pkg/debugger"
	"github.com/lassandro/goc8/pkg/machine"
)

var helpvar bool
var debugvar bool
var termvar bool
var mutevar bool
var scalevar int
var clockvar int
var shouldexit bool

var logger *log.Logger

const usage = "goc8 [-debug] [-term] [-scale #] [-clock #] [-mute] filename"

// The machine refresh rate. Timers decrement at this rate and the display
// and keypad are serviced once per tick.
const frameRate = 60

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&debugvar, "debug", false, "Runs the machine in a debug CLI")
	flag.BoolVar(
		&termvar, "term", false,
		"Renders to the terminal instead of an SDL window",
	)
	flag.BoolVar(&mutevar, "mute", false, "Disables the beeper")
	flag.IntVar(&scalevar, "scale", 16, "Pixel scale of the SDL window")
	flag.IntVar(
		&clockvar, "clock", 700,
		"Interpreter clock rate in instructions per second",
	)
	flag.Parse()
}

func createLogger(debug bool) *log.Logger {
	cfg := log.DefaultConfig()

	if debug {
		cfg.Level = log.DebugLevel
	}

	return log.NewWithConfig(cfg)
}

// A host owns the display, beeper and keypad on behalf of the machine.
type host interface {
	// Poll refreshes the keypad state. Returns false when the user asked
	// to quit.
	Poll(st *machine.MachineState) bool

	Render(st *machine.MachineState) error
	Beep()
	Close()
}

func run(mc *machine.Machine, h host) int {
	steps := clockvar / frameRate

	if steps < 1 {
		steps = 1
	}

	ticker := time.NewTicker(time.Second / frameRate)
	defer ticker.Stop()

	for !shouldexit {
		<-ticker.C

		if !h.Poll(&mc.State) {
			break
		}

		for i := 0; i < steps; i++ {
			if err := mc.Step(); err != nil {
				logger.Error("Execution halted", log.Err(err))
				return 5
			}
		}

		mc.TickTimers()

		if mc.State.DrawFlag {
			if err := h.Render(&mc.State); err != nil {
				logger.Error("Render failed", log.Err(err))
				return 1
			}

			mc.State.DrawFlag = false
		}

		if mc.State.SoundFlag {
			if !mutevar {
				h.Beep()
			}

			mc.State.SoundFlag = false
		}
	}

	return 0
}

func goc8() int {
	logger = createLogger(debugvar)

	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	if len(args) != 1 {
		logger.Error(usage)
		return 1
	}

	file, err := os.Open(args[0])

	if err != nil {
		logger.Error("Error opening ROM", log.Err(err))
		return 1
	}

	defer file.Close()

	var mc machine.Machine
	mc.Reset()

	if debugvar {
		var dbg debugger.Debugger
		dbg.HandleBreak = handleBreak
		dbg.HandleRead = handleRead
		dbg.HandleWrite = handleWrite
		dbg.Binary = file
		mc.Debugger = &dbg

		filename := filepath.Dir(args[0]) + "/" + strings.ReplaceAll(
			filepath.Base(args[0]), filepath.Ext(args[0]), ".c8db",
		)

		if file, err := os.Open(filename); err == nil {
			var symtable assembler.SymTable

			if err := gob.NewDecoder(file).Decode(&symtable); err == nil {
				dbg.SymTable = &symtable
			} else {
				logger.Error("Error loading symbol file", log.Err(err))
			}

			file.Close()
		} else {
			logger.Debug("No symbol file", log.String("path", filename))
		}

		if dbg.SymTable != nil && dbg.SymTable.Source != "" {
			if file, err := os.Open(dbg.SymTable.Source); err == nil {
				dbg.Source = file
				defer file.Close()
			} else {
				logger.Error("Error loading source file", log.Err(err))
			}
		}

		c := make(chan os.Signal, 1)
		defer close(c)

		signal.Notify(c, os.Interrupt)
		go func() {
			for _ = range c {
				fmt.Println()
				dbg.Break = true
			}
		}()
	}

	if err := mc.LoadROM(file); err != nil {
		logger.Error("Error loading ROM", log.Err(err))
		return 1
	}

	var h host

	if termvar {
		h, err = newTermHost()
	} else {
		h, err = newSDLHost(scalevar)
	}

	if err != nil {
		logger.Error("Error opening display", log.Err(err))
		return 1
	}

	defer h.Close()

	if debugvar {
		debugREPL(mc.Debugger.(*debugger.Debugger), &mc)
	}

	return run(&mc, h)
}

func main() {
	os.Exit(goc8())
}
