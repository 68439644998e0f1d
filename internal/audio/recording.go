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
	"math"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/google/uuid"
)

// Recording is the result of one capture session: normalized interleaved
// samples plus the layout they were captured with.
type Recording struct {
	*goaudio.Float32Buffer

	SessionID  uuid.UUID
	Device     string
	Encoding   SampleFormat
	CapturedAt time.Time
}

// NewRecording wraps samples drained from a capture buffer
func NewRecording(samples []float32, cfg StreamConfig) *Recording {
	return &Recording{
		Float32Buffer: &goaudio.Float32Buffer{
			Format: &goaudio.Format{
				NumChannels: cfg.Channels,
				SampleRate:  cfg.SampleRate,
			},
			Data:           samples,
			SourceBitDepth: cfg.Format.BitDepth(),
		},
		SessionID:  uuid.New(),
		Device:     cfg.DeviceName,
		Encoding:   cfg.Format,
		CapturedAt: time.Now(),
	}
}

// Samples returns the interleaved normalized samples
func (r *Recording) Samples() []float32 {
	return r.Data
}

// SampleRate returns frames per second
func (r *Recording) SampleRate() int {
	return r.Format.SampleRate
}

// Channels returns the interleaved channel count
func (r *Recording) Channels() int {
	return r.Format.NumChannels
}

// Duration returns the captured length, or 0 for an invalid layout
func (r *Recording) Duration() time.Duration {
	if r.Format.SampleRate <= 0 || r.Format.NumChannels <= 0 {
		return 0
	}
	frames := len(r.Data) / r.Format.NumChannels
	return time.Duration(float64(frames) / float64(r.Format.SampleRate) * float64(time.Second))
}

// Peak returns the largest absolute sample value
func (r *Recording) Peak() float32 {
	var peak float32
	for _, s := range r.Data {
		peak = float32(math.Max(float64(peak), math.Abs(float64(s))))
	}
	return peak
}
