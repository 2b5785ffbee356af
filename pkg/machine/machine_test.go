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

package machine_test

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/lassandro/goc8/pkg/machine"
)

type testMachineState struct {
	Registers  [16]byte
	Program    uint16
	Index      uint16
	Stack      [16]uint16
	StackPtr   byte
	DelayTimer byte
	SoundTimer byte
	DrawFlag   bool
	SoundFlag  bool
	Keys       [16]bool

	// Instructions places big-endian words, Memory single bytes. Expected
	// memory is the input overlaid with Output.Memory. Expected pixels are
	// the input pixels unchanged, unless Output.Pixels is non-nil, in which
	// case it lists every lit pixel.
	Instructions map[uint16]uint16
	Memory       map[uint16]byte
	Pixels       map[int]byte
}

type testCase struct {
	Name    string
	Steps   uint
	WantErr bool
	Input   testMachineState
	Output  testMachineState
}

func testMachineSuccess(t *testing.T, test *testCase) {
	var mc machine.Machine

	mc.Rand = rand.New(rand.NewSource(1))
	mc.Reset()

	if test.Input.Program == 0 {
		test.Input.Program = machine.ProgramStart
	}

	mc.State.Registers = test.Input.Registers
	mc.State.Program = test.Input.Program
	mc.State.Index = test.Input.Index
	mc.State.Stack = test.Input.Stack
	mc.State.StackPtr = test.Input.StackPtr
	mc.State.DelayTimer = test.Input.DelayTimer
	mc.State.SoundTimer = test.Input.SoundTimer
	mc.State.Keys = test.Input.Keys

	for addr, value := range test.Input.Memory {
		mc.State.Memory[addr] = value
	}

	for addr, word := range test.Input.Instructions {
		mc.State.Memory[addr] = byte(word >> 8)
		mc.State.Memory[addr+1] = byte(word & 0xFF)
	}

	for pixel, value := range test.Input.Pixels {
		mc.State.Pixels[pixel] = value
	}

	if test.Steps == 0 {
		test.Steps = 1
	}

	var stepErr error

	for i := uint(0); i < test.Steps; i++ {
		if stepErr = mc.Step(); stepErr != nil {
			break
		}
	}

	if test.WantErr {
		if stepErr == nil {
			t.Fatal("Expected an unknown opcode error, have nil")
		}

		var unknown *machine.UnknownOpcodeError

		if !errors.As(stepErr, &unknown) {
			t.Fatalf("Expected *UnknownOpcodeError, have %T", stepErr)
		}

		return
	} else if stepErr != nil {
		t.Fatal(stepErr)
	}

	for i := 0; i < machine.NumRegisters; i++ {
		want := test.Output.Registers[i]
		have := mc.State.Registers[i]
		if have != want {
			t.Errorf(
				"Register mismatch"+
					"\nwant:%#02x (test.Output.Registers[%d])\nhave:%#02x",
				want,
				i,
				have,
			)
		}
	}

	if mc.State.Program != test.Output.Program {
		t.Errorf(
			"Program counter mismatch"+
				"\nwant:%#04x (test.Output.Program)\nhave:%#04x",
			test.Output.Program,
			mc.State.Program,
		)
	}

	if mc.State.Index != test.Output.Index {
		t.Errorf(
			"Index register mismatch"+
				"\nwant:%#04x (test.Output.Index)\nhave:%#04x",
			test.Output.Index,
			mc.State.Index,
		)
	}

	if mc.State.StackPtr != test.Output.StackPtr {
		t.Errorf(
			"Stack pointer mismatch"+
				"\nwant:%d (test.Output.StackPtr)\nhave:%d",
			test.Output.StackPtr,
			mc.State.StackPtr,
		)
	}

	if mc.State.Stack != test.Output.Stack {
		t.Errorf(
			"Stack mismatch"+
				"\nwant:%#04x (test.Output.Stack)\nhave:%#04x",
			test.Output.Stack,
			mc.State.Stack,
		)
	}

	if mc.State.DelayTimer != test.Output.DelayTimer {
		t.Errorf(
			"Delay timer mismatch"+
				"\nwant:%d (test.Output.DelayTimer)\nhave:%d",
			test.Output.DelayTimer,
			mc.State.DelayTimer,
		)
	}

	if mc.State.SoundTimer != test.Output.SoundTimer {
		t.Errorf(
			"Sound timer mismatch"+
				"\nwant:%d (test.Output.SoundTimer)\nhave:%d",
			test.Output.SoundTimer,
			mc.State.SoundTimer,
		)
	}

	if mc.State.DrawFlag != test.Output.DrawFlag {
		t.Errorf(
			"Draw flag mismatch"+
				"\nwant:%v (test.Output.DrawFlag)\nhave:%v",
			test.Output.DrawFlag,
			mc.State.DrawFlag,
		)
	}

	if mc.State.SoundFlag != test.Output.SoundFlag {
		t.Errorf(
			"Sound flag mismatch"+
				"\nwant:%v (test.Output.SoundFlag)\nhave:%v",
			test.Output.SoundFlag,
			mc.State.SoundFlag,
		)
	}

	var wantMemory [machine.MemorySize]byte

	fontset := machine.Fontset()
	copy(wantMemory[:], fontset[:])

	for addr, value := range test.Input.Memory {
		wantMemory[addr] = value
	}

	for addr, word := range test.Input.Instructions {
		wantMemory[addr] = byte(word >> 8)
		wantMemory[addr+1] = byte(word & 0xFF)
	}

	for addr, value := range test.Output.Memory {
		wantMemory[addr] = value
	}

	for i, value := range mc.State.Memory {
		if value != wantMemory[i] {
			t.Fatalf(
				"Memory value mismatch at %#04x"+
					"\nwant:%#02x\nhave:%#02x",
				i,
				wantMemory[i],
				value,
			)
		}
	}

	var wantPixels [machine.NumPixels]byte

	if test.Output.Pixels != nil {
		for pixel, value := range test.Output.Pixels {
			wantPixels[pixel] = value
		}
	} else {
		for pixel, value := range test.Input.Pixels {
			wantPixels[pixel] = value
		}
	}

	for i, value := range mc.State.Pixels {
		if value != wantPixels[i] {
			t.Fatalf(
				"Pixel mismatch at (%d, %d)"+
					"\nwant:%d\nhave:%d",
				i%machine.ScreenWidth,
				i/machine.ScreenWidth,
				wantPixels[i],
				value,
			)
		}
	}
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				testMachineSuccess(t, &test)
			})
		}
	})
}

func TestReset(t *testing.T) {
	var mc machine.Machine

	// Dirty every part of the state so Reset has something to undo
	for i, _ := range mc.State.Memory {
		mc.State.Memory[i] = 0xAA
	}
	for i, _ := range mc.State.Pixels {
		mc.State.Pixels[i] = 1
	}
	for i, _ := range mc.State.Registers {
		mc.State.Registers[i] = 0xBB
	}
	for i, _ := range mc.State.Stack {
		mc.State.Stack[i] = 0xCCCC
	}
	for i, _ := range mc.State.Keys {
		mc.State.Keys[i] = true
	}
	mc.State.Program = 0xFFE
	mc.State.Index = 0x123
	mc.State.StackPtr = 15
	mc.State.DelayTimer = 42
	mc.State.SoundTimer = 42
	mc.State.DrawFlag = true
	mc.State.SoundFlag = true

	mc.Reset()

	if mc.State.Program != machine.ProgramStart {
		t.Errorf(
			"Program counter mismatch\nwant:%#04x\nhave:%#04x",
			machine.ProgramStart,
			mc.State.Program,
		)
	}

	if mc.State.Index != 0 || mc.State.StackPtr != 0 {
		t.Error("Index or stack pointer not cleared")
	}

	if mc.State.DelayTimer != 0 || mc.State.SoundTimer != 0 {
		t.Error("Timers not cleared")
	}

	if mc.State.DrawFlag || mc.State.SoundFlag {
		t.Error("Flags not cleared")
	}

	fontset := machine.Fontset()

	for i := uint16(0); i < machine.MemorySize; i++ {
		want := byte(0)

		if i < machine.FontsetSize {
			want = fontset[i]
		}

		if mc.State.Memory[i] != want {
			t.Fatalf(
				"Memory mismatch at %#04x\nwant:%#02x\nhave:%#02x",
				i,
				want,
				mc.State.Memory[i],
			)
		}
	}

	for i, pixel := range mc.State.Pixels {
		if pixel != 0 {
			t.Fatalf("Pixel %d not cleared", i)
		}
	}

	for i, register := range mc.State.Registers {
		if register != 0 {
			t.Fatalf("Register V%X not cleared", i)
		}
	}

	for i, value := range mc.State.Stack {
		if value != 0 {
			t.Fatalf("Stack level %d not cleared", i)
		}
	}

	for i, key := range mc.State.Keys {
		if key {
			t.Fatalf("Key %#x not cleared", i)
		}
	}

	if mc.Rand == nil {
		t.Error("Random source not seeded")
	}

	// Reset must be a full reset when called again
	mc.State.Memory[0x300] = 0xFF
	mc.Reset()

	if mc.State.Memory[0x300] != 0 {
		t.Error("Second Reset did not clear memory")
	}
}

func TestLoadROM(t *testing.T) {
	var mc machine.Machine
	mc.Reset()

	t.Run("Oversized", func(t *testing.T) {
		rom := bytes.Repeat([]byte{0xFF}, int(machine.MaxROMSize)+1)

		err := mc.LoadROM(bytes.NewReader(rom))

		if err == nil {
			t.Fatal("Expected an oversized ROM error, have nil")
		}

		var oversized *machine.OversizedROMError

		if !errors.As(err, &oversized) {
			t.Fatalf("Expected *OversizedROMError, have %T", err)
		}

		for i := machine.ProgramStart; i < machine.MemorySize; i++ {
			if mc.State.Memory[i] != 0 {
				t.Fatalf("Memory mutated at %#04x by a failed load", i)
			}
		}
	})

	t.Run("MaxSize", func(t *testing.T) {
		rom := make([]byte, machine.MaxROMSize)
		rom[0] = 0x12
		rom[len(rom)-1] = 0x34

		if err := mc.LoadROM(bytes.NewReader(rom)); err != nil {
			t.Fatal(err)
		}

		if mc.State.Memory[machine.ProgramStart] != 0x12 {
			t.Error("First ROM byte not at the program start address")
		}

		if mc.State.Memory[machine.MemorySize-1] != 0x34 {
			t.Error("Last ROM byte not at the end of memory")
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		if err := mc.LoadROMFile("testdata/no-such-rom.ch8"); err == nil {
			t.Fatal("Expected an error for a missing file, have nil")
		}
	})
}

// 00E0 | Clear the screen
// 00EE | Return from subroutine
func TestSys(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "CLS",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x00E0},
				Pixels:       map[int]byte{0: 1, 63: 1, 2047: 1},
			},
			Output: testMachineState{
				Program:  0x202,
				DrawFlag: true,
				Pixels:   map[int]byte{},
			},
		},
		{
			Name: "RET",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x00EE},
				Stack:        [16]uint16{0: 0x0400},
				StackPtr:     1,
			},
			Output: testMachineState{
				Program: 0x402,
				Stack:   [16]uint16{0: 0x0400},
			},
		},
	})

	t.Run("Fail", func(t *testing.T) {
		testMachineSuccess(t, &testCase{
			Name:    "Unknown",
			WantErr: true,
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x0123},
			},
		})
	})
}

// 1NNN | Jump to NNN
// 2NNN | Call subroutine at NNN
func TestJumpCall(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "JP",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x1404},
			},
			Output: testMachineState{
				Program: 0x404,
			},
		},
		{
			Name: "CALL",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x2404},
			},
			Output: testMachineState{
				Program:  0x404,
				Stack:    [16]uint16{0: 0x0200},
				StackPtr: 1,
			},
		},
		{
			Name:  "CALL and RET",
			Steps: 2,
			Input: testMachineState{
				Instructions: map[uint16]uint16{
					0x200: 0x2404,
					0x404: 0x00EE,
				},
			},
			Output: testMachineState{
				Program: 0x202,
				Stack:   [16]uint16{0: 0x0200},
			},
		},
	})
}

// 3XKK | Skip next instruction if VX == KK
// 4XKK | Skip next instruction if VX != KK
// 5XY0 | Skip next instruction if VX == VY
// 9XY0 | Skip next instruction if VX != VY
func TestSkips(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "SE imm taken",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x3142},
				Registers:    [16]byte{1: 0x42},
			},
			Output: testMachineState{
				Program:   0x204,
				Registers: [16]byte{1: 0x42},
			},
		},
		{
			Name: "SE imm not taken",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x3142},
				Registers:    [16]byte{1: 0x43},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 0x43},
			},
		},
		{
			Name: "SNE imm taken",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x4142},
				Registers:    [16]byte{1: 0x43},
			},
			Output: testMachineState{
				Program:   0x204,
				Registers: [16]byte{1: 0x43},
			},
		},
		{
			Name: "SNE imm not taken",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x4142},
				Registers:    [16]byte{1: 0x42},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 0x42},
			},
		},
		{
			Name: "SE reg taken",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x5120},
				Registers:    [16]byte{1: 0x42, 2: 0x42},
			},
			Output: testMachineState{
				Program:   0x204,
				Registers: [16]byte{1: 0x42, 2: 0x42},
			},
		},
		{
			Name: "SE reg not taken",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x5120},
				Registers:    [16]byte{1: 0x42, 2: 0x24},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 0x42, 2: 0x24},
			},
		},
		{
			Name: "SNE reg taken",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x9120},
				Registers:    [16]byte{1: 0x42, 2: 0x24},
			},
			Output: testMachineState{
				Program:   0x204,
				Registers: [16]byte{1: 0x42, 2: 0x24},
			},
		},
		{
			Name: "SNE reg not taken",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x9120},
				Registers:    [16]byte{1: 0x42, 2: 0x42},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 0x42, 2: 0x42},
			},
		},
	})
}

// 6XKK | Set VX to KK
// 7XKK | Add KK to VX
func TestImmediates(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "LD imm",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x6A42},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{0xA: 0x42},
			},
		},
		{
			Name: "ADD imm",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x7A05},
				Registers:    [16]byte{0xA: 0x10},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{0xA: 0x15},
			},
		},
		{
			Name: "ADD imm wraps without flag",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x7A10},
				Registers:    [16]byte{0xA: 0xFA},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{0xA: 0x0A},
			},
		},
	})
}

// 8XY0 - 8XYE | Register to register ALU operations
func TestALU(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "LD reg",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x8120},
				Registers:    [16]byte{2: 0x42},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 0x42, 2: 0x42},
			},
		},
		{
			Name: "OR",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x8121},
				Registers:    [16]byte{1: 0xF0, 2: 0x0F},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 0xFF, 2: 0x0F},
			},
		},
		{
			Name: "AND",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x8122},
				Registers:    [16]byte{1: 0xF6, 2: 0x0F},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 0x06, 2: 0x0F},
			},
		},
		{
			Name: "XOR",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x8123},
				Registers:    [16]byte{1: 0xFF, 2: 0x0F},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 0xF0, 2: 0x0F},
			},
		},
		{
			Name: "ADD with carry",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x8124},
				Registers:    [16]byte{1: 250, 2: 10},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 4, 2: 10, 0xF: 1},
			},
		},
		{
			Name: "ADD without carry",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x8124},
				Registers:    [16]byte{1: 5, 2: 10, 0xF: 1},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 15, 2: 10, 0xF: 0},
			},
		},
		{
			Name: "SUB with borrow",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x8125},
				Registers:    [16]byte{1: 5, 2: 10, 0xF: 1},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 251, 2: 10, 0xF: 0},
			},
		},
		{
			Name: "SUB without borrow",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x8125},
				Registers:    [16]byte{1: 10, 2: 5},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 5, 2: 5, 0xF: 1},
			},
		},
		{
			Name: "SHR captures low bit",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x8106},
				Registers:    [16]byte{1: 0x05},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 0x02, 0xF: 1},
			},
		},
		{
			Name: "SHR clears flag on even value",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x8106},
				Registers:    [16]byte{1: 0x04, 0xF: 1},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 0x02, 0xF: 0},
			},
		},
		{
			Name: "SUBN with borrow",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x8127},
				Registers:    [16]byte{1: 10, 2: 5, 0xF: 1},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 251, 2: 5, 0xF: 0},
			},
		},
		{
			Name: "SUBN without borrow",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x8127},
				Registers:    [16]byte{1: 5, 2: 10},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 5, 2: 10, 0xF: 1},
			},
		},
		{
			Name: "SHL captures high bit",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x810E},
				Registers:    [16]byte{1: 0x81},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 0x02, 0xF: 1},
			},
		},
		{
			Name: "SHL clears flag without high bit",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x810E},
				Registers:    [16]byte{1: 0x41, 0xF: 1},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 0x82, 0xF: 0},
			},
		},
	})

	t.Run("Fail", func(t *testing.T) {
		testMachineSuccess(t, &testCase{
			Name:    "Unknown",
			WantErr: true,
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0x8128},
			},
		})
	})
}

// ANNN | Set the index register to NNN
// BNNN | Jump to NNN + V0
// CXKK | VX = random byte AND KK
func TestAddressing(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "LD I",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0xA2F0},
			},
			Output: testMachineState{
				Program: 0x202,
				Index:   0x2F0,
			},
		},
		{
			Name: "JP V0 masks NNN before adding",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0xB2F0},
				Registers:    [16]byte{0: 0x15},
			},
			Output: testMachineState{
				Program:   0x305,
				Registers: [16]byte{0: 0x15},
			},
		},
	})

	t.Run("RND", func(t *testing.T) {
		var mc machine.Machine

		mc.Rand = rand.New(rand.NewSource(1))
		mc.Reset()

		// CXKK masks the random byte, so a zero mask must yield zero and a
		// low mask must bound the result, whatever the source produced
		mc.State.Memory[0x200] = 0xC1
		mc.State.Memory[0x201] = 0x00
		mc.State.Memory[0x202] = 0xC1
		mc.State.Memory[0x203] = 0x0F

		if err := mc.Step(); err != nil {
			t.Fatal(err)
		}

		if mc.State.Registers[1] != 0 {
			t.Errorf(
				"RND with zero mask\nwant:0x00\nhave:%#02x",
				mc.State.Registers[1],
			)
		}

		if err := mc.Step(); err != nil {
			t.Fatal(err)
		}

		if mc.State.Registers[1] > 0x0F {
			t.Errorf(
				"RND with 0x0F mask out of bounds\nhave:%#02x",
				mc.State.Registers[1],
			)
		}

		if mc.State.Program != 0x204 {
			t.Errorf(
				"Program counter mismatch\nwant:0x204\nhave:%#04x",
				mc.State.Program,
			)
		}
	})
}

// DXYN | Draw an 8xN sprite from the index register at (VX, VY)
func TestDraw(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "Single row at origin",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0xD011},
				Memory:       map[uint16]byte{0x300: 0xFF},
				Index:        0x300,
			},
			Output: testMachineState{
				Program:  0x202,
				Index:    0x300,
				DrawFlag: true,
				Pixels: map[int]byte{
					0: 1, 1: 1, 2: 1, 3: 1, 4: 1, 5: 1, 6: 1, 7: 1,
				},
			},
		},
		{
			Name:  "Redraw erases and collides",
			Steps: 2,
			Input: testMachineState{
				Instructions: map[uint16]uint16{
					0x200: 0xD011,
					0x202: 0xD011,
				},
				Memory: map[uint16]byte{0x300: 0xFF},
				Index:  0x300,
			},
			Output: testMachineState{
				Program:   0x204,
				Index:     0x300,
				DrawFlag:  true,
				Registers: [16]byte{0xF: 1},
				Pixels:    map[int]byte{},
			},
		},
		{
			Name: "Offset and tall sprite",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0xD012},
				Memory:       map[uint16]byte{0x300: 0x80, 0x301: 0x80},
				Registers:    [16]byte{0: 10, 1: 5},
				Index:        0x300,
			},
			Output: testMachineState{
				Program:   0x202,
				Index:     0x300,
				DrawFlag:  true,
				Registers: [16]byte{0: 10, 1: 5},
				Pixels: map[int]byte{
					5*64 + 10: 1,
					6*64 + 10: 1,
				},
			},
		},
		{
			Name: "Pixels past the right edge are skipped",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0xD011},
				Memory:       map[uint16]byte{0x300: 0xFF},
				Registers:    [16]byte{0: 62},
				Index:        0x300,
			},
			Output: testMachineState{
				Program:   0x202,
				Index:     0x300,
				DrawFlag:  true,
				Registers: [16]byte{0: 62},
				Pixels:    map[int]byte{62: 1, 63: 1},
			},
		},
		{
			Name: "Rows past the bottom edge are skipped",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0xD013},
				Memory: map[uint16]byte{
					0x300: 0x80, 0x301: 0x80, 0x302: 0x80,
				},
				Registers: [16]byte{0: 0, 1: 31},
				Index:     0x300,
			},
			Output: testMachineState{
				Program:   0x202,
				Index:     0x300,
				DrawFlag:  true,
				Registers: [16]byte{0: 0, 1: 31},
				Pixels:    map[int]byte{31 * 64: 1},
			},
		},
	})
}

// EX9E | Skip next instruction if the key in VX is pressed
// EXA1 | Skip next instruction if the key in VX is not pressed
func TestKeySkips(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "SKP taken",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0xE19E},
				Registers:    [16]byte{1: 0xA},
				Keys:         [16]bool{0xA: true},
			},
			Output: testMachineState{
				Program:   0x204,
				Registers: [16]byte{1: 0xA},
				Keys:      [16]bool{0xA: true},
			},
		},
		{
			Name: "SKP not taken",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0xE19E},
				Registers:    [16]byte{1: 0xA},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 0xA},
			},
		},
		{
			Name: "SKNP taken",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0xE1A1},
				Registers:    [16]byte{1: 0xA},
			},
			Output: testMachineState{
				Program:   0x204,
				Registers: [16]byte{1: 0xA},
			},
		},
		{
			Name: "SKNP not taken",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0xE1A1},
				Registers:    [16]byte{1: 0xA},
				Keys:         [16]bool{0xA: true},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 0xA},
				Keys:      [16]bool{0xA: true},
			},
		},
	})

	t.Run("Fail", func(t *testing.T) {
		testMachineSuccess(t, &testCase{
			Name:    "Unknown",
			WantErr: true,
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0xE1FF},
			},
		})
	})
}

// FX07 - FX65 | Timer, keypad, index and bulk transfer operations
func TestMisc(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "LD from delay timer",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0xF107},
				DelayTimer:   42,
			},
			Output: testMachineState{
				Program:    0x202,
				Registers:  [16]byte{1: 42},
				DelayTimer: 42,
			},
		},
		{
			Name: "LD to delay timer",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0xF115},
				Registers:    [16]byte{1: 42},
			},
			Output: testMachineState{
				Program:    0x202,
				Registers:  [16]byte{1: 42},
				DelayTimer: 42,
			},
		},
		{
			Name: "LD to sound timer",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0xF118},
				Registers:    [16]byte{1: 42},
			},
			Output: testMachineState{
				Program:    0x202,
				Registers:  [16]byte{1: 42},
				SoundTimer: 42,
			},
		},
		{
			Name: "ADD to index",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0xF11E},
				Registers:    [16]byte{1: 0x10},
				Index:        0x300,
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 0x10},
				Index:     0x310,
			},
		},
		{
			Name: "LD glyph address",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0xF129},
				Registers:    [16]byte{1: 0xA},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 0xA},
				Index:     0xA * 5,
			},
		},
		{
			Name: "BCD",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0xF133},
				Registers:    [16]byte{1: 254},
				Index:        0x300,
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{1: 254},
				Index:     0x300,
				Memory:    map[uint16]byte{0x300: 2, 0x301: 5, 0x302: 4},
			},
		},
		{
			Name: "Store registers",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0xF255},
				Registers:    [16]byte{0: 0xAA, 1: 0xBB, 2: 0xCC, 3: 0xDD},
				Index:        0x300,
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{0: 0xAA, 1: 0xBB, 2: 0xCC, 3: 0xDD},
				Index:     0x300,
				Memory: map[uint16]byte{
					0x300: 0xAA, 0x301: 0xBB, 0x302: 0xCC,
				},
			},
		},
		{
			Name: "Load registers",
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0xF265},
				Memory: map[uint16]byte{
					0x300: 0xAA, 0x301: 0xBB, 0x302: 0xCC, 0x303: 0xDD,
				},
				Index: 0x300,
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]byte{0: 0xAA, 1: 0xBB, 2: 0xCC},
				Index:     0x300,
			},
		},
	})

	t.Run("Fail", func(t *testing.T) {
		testMachineSuccess(t, &testCase{
			Name:    "Unknown",
			WantErr: true,
			Input: testMachineState{
				Instructions: map[uint16]uint16{0x200: 0xF1FF},
			},
		})
	})
}

// FX0A | Wait for a keypress, store it in VX
func TestKeyWait(t *testing.T) {
	var mc machine.Machine

	mc.Rand = rand.New(rand.NewSource(1))
	mc.Reset()

	mc.State.Memory[0x200] = 0xF1
	mc.State.Memory[0x201] = 0x0A

	// With no key down the program counter must not move, however many
	// times the host spins the same instruction
	for i := 0; i < 3; i++ {
		if err := mc.Step(); err != nil {
			t.Fatal(err)
		}

		if mc.State.Program != 0x200 {
			t.Fatalf(
				"Program counter moved while waiting"+
					"\nwant:0x200\nhave:%#04x",
				mc.State.Program,
			)
		}
	}

	// The host refreshes the keypad between steps; the next step resolves
	mc.State.Keys[0xB] = true

	if err := mc.Step(); err != nil {
		t.Fatal(err)
	}

	if mc.State.Registers[1] != 0xB {
		t.Errorf(
			"Key index mismatch\nwant:0x0b\nhave:%#02x",
			mc.State.Registers[1],
		)
	}

	if mc.State.Program != 0x202 {
		t.Errorf(
			"Program counter mismatch\nwant:0x202\nhave:%#04x",
			mc.State.Program,
		)
	}
}

func TestTickTimers(t *testing.T) {
	var mc machine.Machine
	mc.Reset()

	mc.State.DelayTimer = 2
	mc.State.SoundTimer = 3

	mc.TickTimers()

	if mc.State.DelayTimer != 1 || mc.State.SoundTimer != 2 {
		t.Error("Timers did not decrement")
	}

	if mc.State.SoundFlag {
		t.Error("Sound flag raised before the sound timer's final tick")
	}

	mc.TickTimers()

	// The edge from 1 to 0 is what triggers the tone
	if mc.State.SoundFlag {
		t.Error("Sound flag raised one tick early")
	}

	mc.TickTimers()

	if !mc.State.SoundFlag {
		t.Error("Sound flag not raised on the 1 to 0 transition")
	}

	if mc.State.DelayTimer != 0 || mc.State.SoundTimer != 0 {
		t.Error("Timers did not stop at zero")
	}

	// The host consumes the flag; ticking at zero must not raise it again
	mc.State.SoundFlag = false
	mc.TickTimers()

	if mc.State.SoundFlag {
		t.Error("Sound flag raised with the sound timer at zero")
	}

	if mc.State.DelayTimer != 0 || mc.State.SoundTimer != 0 {
		t.Error("Timers decremented past zero")
	}
}
