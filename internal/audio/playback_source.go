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
)

// PlaybackSource exposes a finished recording as a finite, pull-based sample sequence.
//
// A source is consumed by exactly one sink. Once every sample has been pulled
// it stays exhausted; it never loops or rewinds. The sample slice is shared
// with the recording and is never written to.
type PlaybackSource struct {
	sampleRate int
	channels   int
	samples    []float32
	cursor     atomic.Int64
	duration   time.Duration
}

// NewPlaybackSource wraps samples captured at sampleRate with the given channel count
func NewPlaybackSource(sampleRate, channels int, samples []float32) (*PlaybackSource, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidDescriptor, sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("%w: channel count %d", ErrInvalidDescriptor, channels)
	}

	seconds := float64(len(samples)) / float64(sampleRate) / float64(channels)
	return &PlaybackSource{
		sampleRate: sampleRate,
		channels:   channels,
		samples:    samples,
		duration:   time.Duration(seconds * float64(time.Second)),
	}, nil
}

// Next returns the next sample, or false once the source is exhausted
func (s *PlaybackSource) Next() (float32, bool) {
	pos := s.cursor.Load()
	if pos >= int64(len(s.samples)) {
		return 0, false
	}
	s.cursor.Store(pos + 1)
	return s.samples[pos], true
}

// Fill pulls up to len(out) samples into out and zero-fills the remainder.
// It returns the number of samples taken from the source.
func (s *PlaybackSource) Fill(out []float32) int {
	n := 0
	for n < len(out) {
		sample, ok := s.Next()
		if !ok {
			break
		}
		out[n] = sample
		n++
	}
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	return n
}

// Channels returns the interleaved channel count
func (s *PlaybackSource) Channels() int {
	return s.channels
}

// SampleRate returns frames per second
func (s *PlaybackSource) SampleRate() int {
	return s.sampleRate
}

// Remaining returns the number of samples not yet pulled
func (s *PlaybackSource) Remaining() int {
	return len(s.samples) - int(s.cursor.Load())
}

// Exhausted reports whether every sample has been pulled
func (s *PlaybackSource) Exhausted() bool {
	return s.Remaining() == 0
}

// TotalDuration returns len(samples) / rate / channels, fixed at construction
func (s *PlaybackSource) TotalDuration() time.Duration {
	return s.duration
}
