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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlaybackSource_InvalidDescriptor(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate int
		channels   int
	}{
		{name: "zero_rate", sampleRate: 0, channels: 1},
		{name: "zero_channels", sampleRate: 8000, channels: 0},
		{name: "both_zero", sampleRate: 0, channels: 0},
		{name: "negative_rate", sampleRate: -44100, channels: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewPlaybackSource(tt.sampleRate, tt.channels, []float32{0.1})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDescriptor)
			assert.Nil(t, src, "no partial source on error")
		})
	}
}

func TestPlaybackSource_Scenario(t *testing.T) {
	buf := NewCaptureBuffer()
	buf.AppendInt16([]int16{0, 16384, -16384, 32767})
	samples := buf.TakeAll()

	src, err := NewPlaybackSource(8000, 1, samples)
	require.NoError(t, err)

	assert.InDelta(t, 0.0005, src.TotalDuration().Seconds(), 1e-8)
	assert.Equal(t, 8000, src.SampleRate())
	assert.Equal(t, 1, src.Channels())

	expected := []float64{0.0, 0.5, -0.5, 0.99997}
	for i, want := range expected {
		got, ok := src.Next()
		require.True(t, ok, "pull %d should succeed", i)
		assert.InDelta(t, want, got, 1e-5)
	}

	_, ok := src.Next()
	assert.False(t, ok, "fifth pull should be exhausted")
}

func TestPlaybackSource_PullAccounting(t *testing.T) {
	samples := make([]float32, 10)
	for i := range samples {
		samples[i] = float32(i) / 10
	}

	src, err := NewPlaybackSource(4, 2, samples)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second/8, src.TotalDuration())

	for i := 0; i < len(samples); i++ {
		assert.Equal(t, len(samples)-i, src.Remaining())
		assert.False(t, src.Exhausted())

		got, ok := src.Next()
		require.True(t, ok)
		assert.Equal(t, samples[i], got)
	}

	assert.Equal(t, 0, src.Remaining())
	assert.True(t, src.Exhausted())

	// Exhaustion is permanent
	for i := 0; i < 3; i++ {
		got, ok := src.Next()
		assert.False(t, ok)
		assert.Equal(t, float32(0), got)
		assert.Equal(t, 0, src.Remaining())
	}

	assert.Equal(t, 10*time.Second/8, src.TotalDuration(), "duration is not recomputed")
}

func TestPlaybackSource_Empty(t *testing.T) {
	src, err := NewPlaybackSource(48000, 2, nil)
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), src.TotalDuration())
	assert.True(t, src.Exhausted())
	_, ok := src.Next()
	assert.False(t, ok)
}

func TestPlaybackSource_Fill(t *testing.T) {
	src, err := NewPlaybackSource(8000, 1, []float32{0.1, 0.2, 0.3, 0.4, 0.5})
	require.NoError(t, err)

	out := make([]float32, 3)
	assert.Equal(t, 3, src.Fill(out))
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, out)

	out = []float32{9, 9, 9}
	assert.Equal(t, 2, src.Fill(out))
	assert.Equal(t, []float32{0.4, 0.5, 0}, out, "tail should be silence")

	assert.Equal(t, 0, src.Fill(out))
	assert.Equal(t, []float32{0, 0, 0}, out)
}

func TestPlaybackSource_SharesSamples(t *testing.T) {
	samples := []float32{0.1, 0.2}
	src, err := NewPlaybackSource(8000, 1, samples)
	require.NoError(t, err)

	got, ok := src.Next()
	require.True(t, ok)
	assert.Equal(t, float32(0.1), got)
	assert.Equal(t, []float32{0.1, 0.2}, samples, "source never writes to its samples")
}
