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

package machine

import (
	"fmt"
	"math/rand"
)

// MachineState is the whole machine as one value: memory, registers, stack,
// framebuffer, keypad and timers. It is owned by the host loop and mutated in
// place by the Machine operations.
type MachineState struct {
	Memory [MemorySize]byte

	// V0-VF. VF is the flag register and is clobbered by arithmetic, shift
	// and draw instructions.
	Registers [NumRegisters]byte

	Index   uint16
	Program uint16

	// The last instruction word fetched
	Opcode uint16

	Stack    [NumStackLevels]uint16
	StackPtr byte

	// One byte per pixel, row-major, origin top-left
	Pixels [NumPixels]byte

	Keys [NumKeys]bool

	DelayTimer byte
	SoundTimer byte

	// DrawFlag and SoundFlag signal the host to render the framebuffer and
	// to play a tone. The host clears them after consuming.
	DrawFlag  bool
	SoundFlag bool
}

type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

type Machine struct {
	State    MachineState
	Debugger MachineDebugger

	// Rand feeds the RND instruction. Reset seeds it from the clock unless
	// the caller has already injected a source.
	Rand *rand.Rand
}

// UnknownOpcodeError reports an instruction word that decodes to no
// operation. It is unrecoverable: the session must not continue stepping.
type UnknownOpcodeError struct {
	Opcode uint16
	Addr   uint16
}

func (err *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("Unknown opcode %#04x at %#04x", err.Opcode, err.Addr)
}

// OversizedROMError reports a ROM image too large for the program space.
type OversizedROMError struct {
	Size int64
}

func (err *OversizedROMError) Error() string {
	return fmt.Sprintf(
		"ROM size %d exceeds program memory (%d bytes)", err.Size, MaxROMSize,
	)
}
