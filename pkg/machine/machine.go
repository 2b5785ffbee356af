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
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/lassandro/goc8/pkg/encoding"
)

func (mc *MachineState) Reset() {
	mc.Program = ProgramStart
	mc.Opcode = 0
	mc.Index = 0
	mc.StackPtr = 0
	mc.DrawFlag = false
	mc.SoundFlag = false

	for i, _ := range mc.Pixels {
		mc.Pixels[i] = 0
	}

	for i, _ := range mc.Stack {
		mc.Stack[i] = 0
	}

	for i, _ := range mc.Registers {
		mc.Registers[i] = 0
	}

	for i, _ := range mc.Keys {
		mc.Keys[i] = false
	}

	for i, _ := range mc.Memory {
		mc.Memory[i] = 0
	}

	for i, glyph := range fontset {
		mc.Memory[i] = glyph
	}

	mc.DelayTimer = 0
	mc.SoundTimer = 0
}

// Reset restores the power-on state and seeds the RND source unless one has
// been injected already.
func (mc *Machine) Reset() {
	mc.State.Reset()

	if mc.Rand == nil {
		mc.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
}

// LoadROM copies a program image verbatim into memory at the program start
// address. Images larger than the program space are refused and the machine
// is left untouched.
func (mc *Machine) LoadROM(reader io.Reader) error {
	rom, err := io.ReadAll(reader)

	if err != nil {
		return err
	}

	if size := int64(len(rom)); size > MaxROMSize {
		return &OversizedROMError{size}
	}

	copy(mc.State.Memory[ProgramStart:], rom)

	return nil
}

func (mc *Machine) LoadROMFile(path string) error {
	file, err := os.Open(path)

	if err != nil {
		return err
	}

	defer file.Close()

	return mc.LoadROM(file)
}

func (mc *Machine) read(addr uint16) byte {
	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return mc.State.Memory[addr&(MemorySize-1)]
}

func (mc *Machine) write(addr uint16, value byte) {
	mc.State.Memory[addr&(MemorySize-1)] = value

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}
}

// Step fetches, decodes and executes exactly one instruction. Every
// operation either advances the program counter itself or, for the key-wait
// instruction, leaves it alone so the same instruction spins on the next
// call. An instruction word that decodes to nothing returns
// *UnknownOpcodeError and the session must not continue.
func (mc *Machine) Step() error {
	st := &mc.State

	// Instruction words are two consecutive big-endian bytes
	st.Opcode = uint16(mc.read(st.Program))<<8 | uint16(mc.read(st.Program+1))

	switch st.Opcode & 0xF000 {
	// 00E0 | Clear the screen
	// 00EE | Return from subroutine
	// ---- [ the rest of the 0x0 family is the historic machine-code escape ]
	case OP_SYS:
		switch st.Opcode & 0x0FFF {
		case 0x00E0:
			for i, _ := range st.Pixels {
				st.Pixels[i] = 0
			}

			st.DrawFlag = true
			st.Program += 2

		case 0x00EE:
			st.StackPtr--
			st.Program = st.Stack[st.StackPtr]
			st.Program += 2

		default:
			return &UnknownOpcodeError{st.Opcode, st.Program}
		}

	// 1NNN | Jump to NNN
	case OP_JP:
		st.Program = encoding.OpcodeNNN(st.Opcode)

	// 2NNN | Call subroutine at NNN
	case OP_CALL:
		st.Stack[st.StackPtr] = st.Program
		st.StackPtr++
		st.Program = encoding.OpcodeNNN(st.Opcode)

	// 3XKK | Skip next instruction if VX == KK
	case OP_SEKK:
		if st.Registers[encoding.OpcodeX(st.Opcode)] == encoding.OpcodeKK(st.Opcode) {
			st.Program += 4
		} else {
			st.Program += 2
		}

	// 4XKK | Skip next instruction if VX != KK
	case OP_SNEKK:
		if st.Registers[encoding.OpcodeX(st.Opcode)] != encoding.OpcodeKK(st.Opcode) {
			st.Program += 4
		} else {
			st.Program += 2
		}

	// 5XY0 | Skip next instruction if VX == VY
	case OP_SE:
		if st.Registers[encoding.OpcodeX(st.Opcode)] == st.Registers[encoding.OpcodeY(st.Opcode)] {
			st.Program += 4
		} else {
			st.Program += 2
		}

	// 6XKK | Set VX to KK
	case OP_LDKK:
		st.Registers[encoding.OpcodeX(st.Opcode)] = encoding.OpcodeKK(st.Opcode)
		st.Program += 2

	// 7XKK | Add KK to VX, wrapping at 256, flag untouched
	case OP_ADDKK:
		st.Registers[encoding.OpcodeX(st.Opcode)] += encoding.OpcodeKK(st.Opcode)
		st.Program += 2

	// 8XY0 | VX = VY
	// 8XY1 | VX |= VY
	// 8XY2 | VX &= VY
	// 8XY3 | VX ^= VY
	// 8XY4 | VX += VY          VF = carry
	// 8XY5 | VX -= VY          VF = !borrow
	// 8XY6 | VX >>= 1          VF = bit shifted out
	// 8XY7 | VX = VY - VX      VF = !borrow
	// 8XYE | VX <<= 1          VF = bit shifted out
	case OP_ALU:
		x := encoding.OpcodeX(st.Opcode)
		y := encoding.OpcodeY(st.Opcode)

		switch st.Opcode & 0x000F {
		case 0x0:
			st.Registers[x] = st.Registers[y]

		case 0x1:
			st.Registers[x] |= st.Registers[y]

		case 0x2:
			st.Registers[x] &= st.Registers[y]

		case 0x3:
			st.Registers[x] ^= st.Registers[y]

		case 0x4:
			sum := uint16(st.Registers[x]) + uint16(st.Registers[y])
			st.Registers[x] = byte(sum)

			if sum > 0xFF {
				st.Registers[FlagRegister] = 1
			} else {
				st.Registers[FlagRegister] = 0
			}

		case 0x5:
			borrow := st.Registers[y] > st.Registers[x]
			st.Registers[x] -= st.Registers[y]

			if borrow {
				st.Registers[FlagRegister] = 0
			} else {
				st.Registers[FlagRegister] = 1
			}

		case 0x6:
			low := st.Registers[x] & 0x1
			st.Registers[x] >>= 1
			st.Registers[FlagRegister] = low

		case 0x7:
			borrow := st.Registers[x] > st.Registers[y]
			st.Registers[x] = st.Registers[y] - st.Registers[x]

			if borrow {
				st.Registers[FlagRegister] = 0
			} else {
				st.Registers[FlagRegister] = 1
			}

		case 0xE:
			high := st.Registers[x] >> 7
			st.Registers[x] <<= 1
			st.Registers[FlagRegister] = high

		default:
			return &UnknownOpcodeError{st.Opcode, st.Program}
		}

		st.Program += 2

	// 9XY0 | Skip next instruction if VX != VY
	case OP_SNE:
		if st.Registers[encoding.OpcodeX(st.Opcode)] != st.Registers[encoding.OpcodeY(st.Opcode)] {
			st.Program += 4
		} else {
			st.Program += 2
		}

	// ANNN | Set the index register to NNN
	case OP_LDI:
		st.Index = encoding.OpcodeNNN(st.Opcode)
		st.Program += 2

	// BNNN | Jump to NNN + V0
	case OP_JPV0:
		st.Program = encoding.OpcodeNNN(st.Opcode) + uint16(st.Registers[0])

	// CXKK | VX = random byte AND KK
	case OP_RND:
		st.Registers[encoding.OpcodeX(st.Opcode)] =
			byte(mc.Rand.Intn(0x100)) & encoding.OpcodeKK(st.Opcode)
		st.Program += 2

	// DXYN | Draw an 8xN sprite from the index register at (VX, VY)
	//
	// Each sprite byte is one row of 8 horizontally packed bits. Set bits
	// XOR into the framebuffer; a pixel flipping from set to clear raises
	// the collision flag. Pixels falling outside the screen are skipped,
	// never wrapped.
	case OP_DRW:
		xpos := uint16(st.Registers[encoding.OpcodeX(st.Opcode)])
		ypos := uint16(st.Registers[encoding.OpcodeY(st.Opcode)])
		height := uint16(encoding.OpcodeN(st.Opcode))

		st.Registers[FlagRegister] = 0

		for row := uint16(0); row < height; row++ {
			if ypos+row >= ScreenHeight {
				continue
			}

			rowdata := mc.read(st.Index + row)

			for column := uint16(0); column < 8; column++ {
				if xpos+column >= ScreenWidth {
					continue
				}

				if rowdata&(0x80>>column) == 0 {
					continue
				}

				pixel := (ypos+row)*ScreenWidth + (xpos + column)

				if st.Pixels[pixel] == 1 {
					st.Registers[FlagRegister] = 1
				}

				st.Pixels[pixel] ^= 1
			}
		}

		st.DrawFlag = true
		st.Program += 2

	// EX9E | Skip next instruction if the key in VX is pressed
	// EXA1 | Skip next instruction if the key in VX is not pressed
	case OP_KEY:
		switch st.Opcode & 0x00FF {
		case 0x9E:
			if st.Keys[st.Registers[encoding.OpcodeX(st.Opcode)]&0xF] {
				st.Program += 4
			} else {
				st.Program += 2
			}

		case 0xA1:
			if !st.Keys[st.Registers[encoding.OpcodeX(st.Opcode)]&0xF] {
				st.Program += 4
			} else {
				st.Program += 2
			}

		default:
			return &UnknownOpcodeError{st.Opcode, st.Program}
		}

	// FX07 | VX = delay timer
	// FX0A | Wait for a keypress, store it in VX
	// FX15 | Delay timer = VX
	// FX18 | Sound timer = VX
	// FX1E | Index += VX
	// FX29 | Index = glyph address for the digit in VX
	// FX33 | Store BCD of VX at index, index+1, index+2
	// FX55 | Store V0..VX to memory from the index register
	// FX65 | Load V0..VX from memory at the index register
	case OP_MISC:
		x := encoding.OpcodeX(st.Opcode)

		switch st.Opcode & 0x00FF {
		case 0x07:
			st.Registers[x] = st.DelayTimer
			st.Program += 2

		case 0x0A:
			// The program counter stays put until a key is observed, so
			// this same instruction spins on every host frame. The host
			// must keep refreshing the keypad and calling Step for the
			// wait to resolve.
			for key, down := range st.Keys {
				if down {
					st.Registers[x] = byte(key)
					st.Program += 2
					break
				}
			}

		case 0x15:
			st.DelayTimer = st.Registers[x]
			st.Program += 2

		case 0x18:
			st.SoundTimer = st.Registers[x]
			st.Program += 2

		case 0x1E:
			st.Index += uint16(st.Registers[x])
			st.Program += 2

		case 0x29:
			st.Index = uint16(st.Registers[x]) * GlyphSize
			st.Program += 2

		case 0x33:
			mc.write(st.Index, st.Registers[x]/100)
			mc.write(st.Index+1, (st.Registers[x]/10)%10)
			mc.write(st.Index+2, st.Registers[x]%10)
			st.Program += 2

		case 0x55:
			for r := byte(0); r <= x; r++ {
				mc.write(st.Index+uint16(r), st.Registers[r])
			}

			st.Program += 2

		case 0x65:
			for r := byte(0); r <= x; r++ {
				st.Registers[r] = mc.read(st.Index + uint16(r))
			}

			st.Program += 2

		default:
			return &UnknownOpcodeError{st.Opcode, st.Program}
		}
	}

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return nil
}

// TickTimers decrements both timers. The host calls this at a fixed 60Hz
// cadence, independent of the instruction step rate. The sound flag raises
// on the sound timer's edge from 1 to 0 and stays raised until the host
// consumes it.
func (mc *Machine) TickTimers() {
	st := &mc.State

	if st.DelayTimer > 0 {
		st.DelayTimer--
	}

	if st.SoundTimer > 0 {
		if st.SoundTimer == 1 {
			st.SoundFlag = true
		}

		st.SoundTimer--
	}
}
