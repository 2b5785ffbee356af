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
	"bufio"
	"os"

	"golang.org/x/sys/unix"

	"github.com/lassandro/goc8/pkg/debugger"
	"github.com/lassandro/goc8/pkg/machine"
)

var termRestore unix.Termios
var termRaw bool

func enterRawTerm() {
	if termRaw {
		return
	}

	termios, err := unix.IoctlGetTermios(int(os.Stdin.Fd()), ioctlGetTermios)

	if err != nil {
		panic(err)
	}

	termRestore = *termios
	termstate := *termios

	termstate.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR
	termstate.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN
	termstate.Cflag &^= unix.CSIZE | unix.PARENB
	termstate.Cflag |= unix.CS8

	termstate.Cc[unix.VMIN] = 0
	termstate.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(
		int(os.Stdin.Fd()), ioctlSetTermios, &termstate,
	); err != nil {
		panic(err)
	}

	termRaw = true
}

func exitRawTerm() {
	if !termRaw {
		return
	}

	if err := unix.IoctlSetTermios(
		int(os.Stdin.Fd()), ioctlSetTermios, &termRestore,
	); err != nil {
		panic(err)
	}

	termRaw = false
}

// Terminals only report key presses, so a pressed key is held for a few
// frames and released when no repeat arrives.
const termKeyFrames = 6

// Same layout as the SDL keymap, as raw input characters.
var termKeymap = [machine.NumKeys]byte{
	'x', '1', '2', '3',
	'q', 'w', 'e', 'a',
	's', 'd', 'z', 'c',
	'4', 'r', 'f', 'v',
}

type termHost struct {
	out  *bufio.Writer
	held [machine.NumKeys]int
}

func newTermHost() (*termHost, error) {
	enterRawTerm()

	h := &termHost{
		out: bufio.NewWriter(os.Stdout),
	}

	h.out.WriteString("\x1b[?25l\x1b[2J")
	h.out.Flush()

	return h, nil
}

func (h *termHost) Poll(st *machine.MachineState) bool {
	var buf [64]byte

	n, _ := os.Stdin.Read(buf[:])

	for _, ch := range buf[:n] {
		// ESC or ^C
		if ch == 0x1b || ch == 0x03 {
			return false
		}

		for i, key := range termKeymap {
			if ch == key {
				st.Keys[i] = true
				h.held[i] = termKeyFrames
				break
			}
		}
	}

	for i := range h.held {
		if h.held[i] > 0 {
			h.held[i]--

			if h.held[i] == 0 {
				st.Keys[i] = false
			}
		}
	}

	return true
}

func (h *termHost) Render(st *machine.MachineState) error {
	h.out.WriteString("\x1b[H")
	debugger.PrintScreen(st, h.out)
	return h.out.Flush()
}

func (h *termHost) Beep() {
	h.out.WriteString("\a")
	h.out.Flush()
}

func (h *termHost) Close() {
	h.out.WriteString("\x1b[?25h")
	h.out.Flush()

	exitRawTerm()
}
