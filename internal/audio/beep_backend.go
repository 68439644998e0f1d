/*
 * This file is part of Loqa (https://github.com/loqalabs/loqa).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package audio

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// BeepOutputBackend implements OutputBackend on the beep speaker.
// The speaker is process-global, so only one output stream may be open at a time.
type BeepOutputBackend struct{}

// NewBeepOutputBackend creates a new beep speaker backend
func NewBeepOutputBackend() *BeepOutputBackend {
	return &BeepOutputBackend{}
}

// Initialize is a no-op; the speaker is initialized per stream at the source's rate
func (b *BeepOutputBackend) Initialize() error {
	return nil
}

// Terminate is a no-op; streams close the speaker themselves
func (b *BeepOutputBackend) Terminate() error {
	return nil
}

// OpenOutputStream initializes the speaker at the source's sample rate
func (b *BeepOutputBackend) OpenOutputStream(src *PlaybackSource, framesPerBuffer int) (StreamInterface, error) {
	rate := beep.SampleRate(src.SampleRate())
	bufferSize := framesPerBuffer
	if bufferSize <= 0 {
		bufferSize = rate.N(100 * time.Millisecond)
	}

	if err := speaker.Init(rate, bufferSize); err != nil {
		return nil, fmt.Errorf("%w: failed to initialize speaker: %v", ErrStreamSetupFailed, err)
	}

	return &BeepStream{streamer: newSourceStreamer(src)}, nil
}

// BeepStream implements StreamInterface on top of the beep speaker
type BeepStream struct {
	streamer *sourceStreamer
	active   atomic.Bool
}

// Start hands the source to the speaker's mixer
func (s *BeepStream) Start() error {
	speaker.Play(s.streamer)
	s.active.Store(true)
	return nil
}

// Stop removes the source from the mixer
func (s *BeepStream) Stop() error {
	speaker.Clear()
	s.active.Store(false)
	return nil
}

// Close releases the speaker
func (s *BeepStream) Close() error {
	s.active.Store(false)
	speaker.Close()
	return nil
}

// IsActive returns true until the stream is stopped or the source runs dry
func (s *BeepStream) IsActive() bool {
	return s.active.Load() && !s.streamer.src.Exhausted()
}

// sourceStreamer adapts a PlaybackSource to beep.Streamer. Beep mixes in stereo:
// mono frames are duplicated onto both sides and channels past the second are dropped.
type sourceStreamer struct {
	src   *PlaybackSource
	frame []float32
}

func newSourceStreamer(src *PlaybackSource) *sourceStreamer {
	return &sourceStreamer{
		src:   src,
		frame: make([]float32, src.Channels()),
	}
}

// Stream fills samples with whole frames pulled from the source
func (s *sourceStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	for n < len(samples) {
		got := s.src.Fill(s.frame)
		if got == 0 {
			break
		}

		left := float64(s.frame[0])
		right := left
		if len(s.frame) > 1 {
			right = float64(s.frame[1])
		}
		samples[n] = [2]float64{left, right}
		n++

		if got < len(s.frame) {
			break
		}
	}
	return n, n > 0
}

// Err always returns nil; a PlaybackSource cannot fail
func (s *sourceStreamer) Err() error {
	return nil
}
