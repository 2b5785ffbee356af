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

// Package disassembler turns CHIP-8 instruction words back into the assembly
// syntax accepted by pkg/assembler.
package disassembler

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"

	"github.com/lassandro/goc8/pkg/encoding"
	"github.com/lassandro/goc8/pkg/machine"
)

// Decode looks up the opcode table entry matching the given instruction
// word. The table is bucketed by the high nibble, entries match on their
// mask/value pairs.
func Decode(word uint16) (chip8.Opcode, bool) {
	firstNibble := (word & 0xF000) >> 12

	for _, op := range chip8.Opcodes[int(firstNibble)] {
		if op.Info.Mask&word == op.Info.Value {
			return op, true
		}
	}

	return chip8.Opcode{}, false
}

// Format renders an instruction word as an assembly statement. Returns the
// empty string for words that decode to no known instruction.
func Format(word uint16) string {
	op, ok := Decode(word)

	if !ok || op.Instruction == nil {
		return ""
	}

	name := strings.ToUpper(op.Instruction.Name)

	if params := formatParams(op.Instruction, word); params != "" {
		return name + " " + params
	}

	return name
}

func formatParams(ins *chip8.Instruction, word uint16) string {
	x := encoding.OpcodeX(word)
	y := encoding.OpcodeY(word)

	switch ins {
	case chip8.Jp:
		if word&0xF000 == 0xB000 {
			return fmt.Sprintf("V0, x%03X", encoding.OpcodeNNN(word))
		}

		return fmt.Sprintf("x%03X", encoding.OpcodeNNN(word))

	case chip8.Call:
		return fmt.Sprintf("x%03X", encoding.OpcodeNNN(word))

	case chip8.Se, chip8.Sne:
		switch word & 0xF000 {
		case machine.OP_SEKK, machine.OP_SNEKK:
			return fmt.Sprintf("V%X, x%02X", x, encoding.OpcodeKK(word))
		default:
			return fmt.Sprintf("V%X, V%X", x, y)
		}

	case chip8.Ld:
		switch word & 0xF000 {
		case machine.OP_LDKK:
			return fmt.Sprintf("V%X, x%02X", x, encoding.OpcodeKK(word))
		case machine.OP_ALU:
			return fmt.Sprintf("V%X, V%X", x, y)
		case machine.OP_LDI:
			return fmt.Sprintf("I, x%03X", encoding.OpcodeNNN(word))
		case machine.OP_MISC:
			switch encoding.OpcodeKK(word) {
			case 0x07:
				return fmt.Sprintf("V%X, DT", x)
			case 0x0A:
				return fmt.Sprintf("V%X, K", x)
			case 0x15:
				return fmt.Sprintf("DT, V%X", x)
			case 0x18:
				return fmt.Sprintf("ST, V%X", x)
			case 0x29:
				return fmt.Sprintf("F, V%X", x)
			case 0x33:
				return fmt.Sprintf("B, V%X", x)
			case 0x55:
				return fmt.Sprintf("[I], V%X", x)
			case 0x65:
				return fmt.Sprintf("V%X, [I]", x)
			}
		}

	case chip8.Add:
		switch word & 0xF000 {
		case machine.OP_ADDKK:
			return fmt.Sprintf("V%X, x%02X", x, encoding.OpcodeKK(word))
		case machine.OP_ALU:
			return fmt.Sprintf("V%X, V%X", x, y)
		case machine.OP_MISC:
			return fmt.Sprintf("I, V%X", x)
		}

	case chip8.Or, chip8.And, chip8.Xor, chip8.Sub, chip8.Subn:
		return fmt.Sprintf("V%X, V%X", x, y)

	case chip8.Shr, chip8.Shl, chip8.Skp, chip8.Sknp:
		return fmt.Sprintf("V%X", x)

	case chip8.Rnd:
		return fmt.Sprintf("V%X, x%02X", x, encoding.OpcodeKK(word))

	case chip8.Drw:
		return fmt.Sprintf("V%X, V%X, x%X", x, y, encoding.OpcodeN(word))
	}

	return ""
}

// Disassemble writes a listing of the given ROM image to w, one statement
// per line with the memory address and raw word. Words that decode to no
// known instruction are emitted as data directives so the listing can be
// fed back through the assembler.
func Disassemble(rom []byte, w io.Writer) error {
	buf := bufio.NewWriter(w)

	for i := 0; i < len(rom); i += 2 {
		addr := machine.ProgramStart + uint16(i)

		if i+1 >= len(rom) {
			fmt.Fprintf(
				buf, "x%03X  %02X    .BYTE x%02X\n", addr, rom[i], rom[i],
			)

			break
		}

		word := uint16(rom[i])<<8 | uint16(rom[i+1])

		if text := Format(word); text != "" {
			fmt.Fprintf(buf, "x%03X  %04X  %s\n", addr, word, text)
		} else {
			fmt.Fprintf(buf, "x%03X  %04X  .WORD x%04X\n", addr, word, word)
		}
	}

	return buf.Flush()
}
