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

package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loqalabs/loqa-echo/internal/audio"
	"github.com/loqalabs/loqa-echo/internal/config"
)

type recordingPublisher struct {
	recordings []*audio.Recording
	err        error
}

func (p *recordingPublisher) PublishRecording(rec *audio.Recording) error {
	p.recordings = append(p.recordings, rec)
	return p.err
}

func testConfig() *config.Config {
	return &config.Config{
		LogLevel: "none",
		Capture: config.CaptureConfig{
			Duration:        20 * time.Millisecond,
			Encoding:        audio.FormatInt16,
			FramesPerBuffer: 4,
		},
		Playback: config.PlaybackConfig{
			Backend:         config.BackendPortAudio,
			FramesPerBuffer: 4,
		},
	}
}

func newScriptedBackend() *audio.MockAudioBackend {
	backend := audio.NewMockAudioBackend()
	backend.SetSimulateRealTiming(false)
	backend.SetDefaultInputConfig(audio.StreamConfig{
		DeviceName: "Mock Microphone",
		SampleRate: 8000,
		Channels:   1,
		Format:     audio.FormatFloat32,
	})
	backend.SetInputBatches([]int16{0, 16384}, []int16{-16384, 32767})
	return backend
}

func TestRun_CaptureThenPlayback(t *testing.T) {
	backend := newScriptedBackend()
	publisher := &recordingPublisher{}

	err := run(context.Background(), testConfig(), backend, backend, publisher, zerolog.Nop())
	require.NoError(t, err)

	played := backend.PlayedSamples()
	require.Len(t, played, 4)
	assert.InDelta(t, 0.0, played[0], 1e-6)
	assert.InDelta(t, 0.5, played[1], 1e-6)
	assert.InDelta(t, -0.5, played[2], 1e-6)
	assert.InDelta(t, 0.99997, played[3], 1e-5)

	require.Len(t, publisher.recordings, 1)
	rec := publisher.recordings[0]
	assert.Equal(t, audio.FormatInt16, rec.Encoding, "configured encoding should override the device default")
	assert.Equal(t, 8000, rec.SampleRate())
}

func TestRun_SeparateOutputBackend(t *testing.T) {
	input := newScriptedBackend()
	output := audio.NewMockAudioBackend()
	output.SetSimulateRealTiming(false)

	err := run(context.Background(), testConfig(), input, output, nil, zerolog.Nop())
	require.NoError(t, err)

	assert.Empty(t, input.PlayedSamples())
	assert.Len(t, output.PlayedSamples(), 4)
}

func TestRun_PublishFailureDoesNotAbort(t *testing.T) {
	backend := newScriptedBackend()
	publisher := &recordingPublisher{err: errors.New("nats down")}

	err := run(context.Background(), testConfig(), backend, backend, publisher, zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, backend.PlayedSamples(), 4)
}

func TestRun_Failures(t *testing.T) {
	t.Run("init_error", func(t *testing.T) {
		backend := newScriptedBackend()
		backend.SetInitError(errors.New("no audio subsystem"))

		err := run(context.Background(), testConfig(), backend, backend, nil, zerolog.Nop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no audio subsystem")
	})

	t.Run("device_unavailable", func(t *testing.T) {
		backend := newScriptedBackend()
		backend.SetConfigError(audio.ErrDeviceUnavailable)

		err := run(context.Background(), testConfig(), backend, backend, nil, zerolog.Nop())
		require.Error(t, err)
		assert.ErrorIs(t, err, audio.ErrDeviceUnavailable)
		assert.Contains(t, err.Error(), "capture failed")
		assert.Empty(t, backend.PlayedSamples(), "nothing should be played after a failed capture")
	})

	t.Run("unsupported_format", func(t *testing.T) {
		backend := newScriptedBackend()
		cfg := testConfig()
		cfg.Capture.Encoding = audio.FormatInt24

		err := run(context.Background(), cfg, backend, backend, nil, zerolog.Nop())
		assert.ErrorIs(t, err, audio.ErrUnsupportedFormat)
		assert.Nil(t, backend.LastInputStream(), "no stream should be opened for an unsupported format")
	})

	t.Run("cancelled", func(t *testing.T) {
		backend := newScriptedBackend()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := run(ctx, testConfig(), backend, backend, nil, zerolog.Nop())
		assert.ErrorIs(t, err, context.Canceled)
	})
}
