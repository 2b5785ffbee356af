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
)

const sampleRate = 44100
const toneHz = 440

// openAudio opens the default output device and precomputes one beep's
// worth of square wave samples.
func (h *sdlHost) openAudio() error {
	spec := &sdl.AudioSpec{
		Freq:     sampleRate,
		Format:   sdl.AUDIO_U8,
		Channels: 1,
		Samples:  512,
	}

	var actual sdl.AudioSpec

	id, err := sdl.OpenAudioDevice("", false, spec, &actual, 0)

	if err != nil {
		return err
	}

	h.audio = id

	// A tenth of a second of square wave at the beep frequency
	period := sampleRate / toneHz
	h.tone = make([]uint8, sampleRate/10)

	for i, _ := range h.tone {
		if (i/(period/2))%2 == 0 {
			h.tone[i] = actual.Silence + 32
		} else {
			h.tone[i] = actual.Silence
		}
	}

	sdl.PauseAudioDevice(h.audio, false)

	return nil
}

func (h *sdlHost) Beep() {
	sdl.QueueAudio(h.audio, h.tone)
}
