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
	"runtime"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/lassandro/goc8/pkg/machine"
)

func init() {
	// SDL event handling must stay on the main thread
	runtime.LockOSThread()
}

// The left-hand block of the keyboard maps onto the 4x4 hex keypad:
//
//	1 2 3 4        1 2 3 C
//	q w e r   ->   4 5 6 D
//	a s d f        7 8 9 E
//	z x c v        A 0 B F
var keymap = [machine.NumKeys]sdl.Keycode{
	sdl.K_x,
	sdl.K_1,
	sdl.K_2,
	sdl.K_3,
	sdl.K_q,
	sdl.K_w,
	sdl.K_e,
	sdl.K_a,
	sdl.K_s,
	sdl.K_d,
	sdl.K_z,
	sdl.K_c,
	sdl.K_4,
	sdl.K_r,
	sdl.K_f,
	sdl.K_v,
}

func (h *sdlHost) Poll(st *machine.MachineState) bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch event := event.(type) {
		case *sdl.QuitEvent:
			return false

		case *sdl.KeyboardEvent:
			down := event.Type == sdl.KEYDOWN

			if down && event.Keysym.Sym == sdl.K_ESCAPE {
				return false
			}

			for i, keycode := range keymap {
				if event.Keysym.Sym == keycode {
					st.Keys[i] = down
					break
				}
			}
		}
	}

	return true
}
