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
	"github.com/veandco/go-sdl2/sdl"

	"github.com/lassandro/goc8/pkg/machine"
)

type sdlHost struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	audio    sdl.AudioDeviceID
	tone     []uint8
	scale    int
}

func newSDLHost(scale int) (*sdlHost, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		return nil, err
	}

	h := &sdlHost{scale: scale}

	var err error

	h.window, err = sdl.CreateWindow(
		"goc8",
		int32(sdl.WINDOWPOS_UNDEFINED), int32(sdl.WINDOWPOS_UNDEFINED),
		int32(machine.ScreenWidth*scale), int32(machine.ScreenHeight*scale),
		uint32(sdl.WINDOW_SHOWN),
	)

	if err != nil {
		sdl.Quit()
		return nil, err
	}

	h.renderer, err = sdl.CreateRenderer(
		h.window, -1, uint32(sdl.RENDERER_ACCELERATED),
	)

	if err != nil {
		h.window.Destroy()
		sdl.Quit()
		return nil, err
	}

	if err := h.openAudio(); err != nil {
		h.renderer.Destroy()
		h.window.Destroy()
		sdl.Quit()
		return nil, err
	}

	// Blank the window before the first draw
	h.renderer.SetDrawColor(0, 0, 0, 255)
	h.renderer.Clear()
	h.renderer.Present()

	return h, nil
}

func (h *sdlHost) Render(st *machine.MachineState) error {
	h.renderer.SetDrawColor(0, 0, 0, 255)

	if err := h.renderer.Clear(); err != nil {
		return err
	}

	h.renderer.SetDrawColor(255, 255, 255, 255)

	for y := 0; y < machine.ScreenHeight; y++ {
		for x := 0; x < machine.ScreenWidth; x++ {
			if st.Pixels[y*machine.ScreenWidth+x] == 0 {
				continue
			}

			rect := sdl.Rect{
				X: int32(x * h.scale),
				Y: int32(y * h.scale),
				W: int32(h.scale),
				H: int32(h.scale),
			}

			if err := h.renderer.FillRect(&rect); err != nil {
				return err
			}
		}
	}

	h.renderer.Present()

	return nil
}

func (h *sdlHost) Close() {
	if h.audio != 0 {
		sdl.CloseAudioDevice(h.audio)
	}

	if h.renderer != nil {
		h.renderer.Destroy()
	}

	if h.window != nil {
		h.window.Destroy()
	}

	sdl.Quit()
}
