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

const (
	MemorySize   uint16 = 4096
	ProgramStart uint16 = 0x200

	// The largest ROM image that fits between the program start and the end
	// of memory
	MaxROMSize = int64(MemorySize - ProgramStart)
)

const (
	NumRegisters   = 16
	NumStackLevels = 16
	NumKeys        = 16

	// VF doubles as the carry, borrow and collision flag
	FlagRegister = 0xF
)

const (
	ScreenWidth  = 64
	ScreenHeight = 32
	NumPixels    = ScreenWidth * ScreenHeight
)

const (
	FontsetSize = 0x50
	GlyphSize   = 5
)

// Opcode families, selected by the high nibble of the instruction word. The
// 0x0, 0x8, 0xE and 0xF families decode further on their low nibbles/bytes.
const (
	OP_SYS   uint16 = 0x0000
	OP_JP           = 0x1000
	OP_CALL         = 0x2000
	OP_SEKK         = 0x3000
	OP_SNEKK        = 0x4000
	OP_SE           = 0x5000
	OP_LDKK         = 0x6000
	OP_ADDKK        = 0x7000
	OP_ALU          = 0x8000
	OP_SNE          = 0x9000
	OP_LDI          = 0xA000
	OP_JPV0         = 0xB000
	OP_RND          = 0xC000
	OP_DRW          = 0xD000
	OP_KEY          = 0xE000
	OP_MISC         = 0xF000
)

// Each glyph is 4 pixels wide and 5 rows tall, one row per byte. The table
// lives at the bottom of memory, below the program space.
var fontset = [FontsetSize]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Fontset returns a copy of the built-in glyph table.
func Fontset() [FontsetSize]byte {
	return fontset
}
