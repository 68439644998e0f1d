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
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RecorderOptions overrides parts of the device's default input layout
type RecorderOptions struct {
	// Duration of the capture session
	Duration time.Duration

	// Format to open the device with; FormatUnknown keeps the device default
	Format SampleFormat

	// FramesPerBuffer per callback; 0 lets the driver choose
	FramesPerBuffer int
}

// Recorder captures a fixed-length recording from the default input device
type Recorder struct {
	backend InputBackend
	opts    RecorderOptions
	log     zerolog.Logger
}

// NewRecorder creates a recorder on an initialized backend
func NewRecorder(backend InputBackend, opts RecorderOptions, log zerolog.Logger) *Recorder {
	return &Recorder{
		backend: backend,
		opts:    opts,
		log:     log.With().Str("component", "recorder").Logger(),
	}
}

// Record opens the default input device, captures for the configured duration,
// stops the stream and returns everything that was captured. A cancelled
// context ends the session early and returns ctx.Err().
func (r *Recorder) Record(ctx context.Context) (*Recording, error) {
	cfg, err := r.backend.DefaultInputConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to query default input config: %w", err)
	}
	if r.opts.Format != FormatUnknown {
		cfg.Format = r.opts.Format
	}
	if r.opts.FramesPerBuffer > 0 {
		cfg.FramesPerBuffer = r.opts.FramesPerBuffer
	}

	r.log.Info().
		Str("device", cfg.DeviceName).
		Int("sample_rate", cfg.SampleRate).
		Int("channels", cfg.Channels).
		Stringer("encoding", cfg.Format).
		Msg("Using input device")

	buffer := NewCaptureBuffer()
	callback, err := buffer.Callback(cfg.Format)
	if err != nil {
		return nil, err
	}

	stream, err := r.backend.OpenInputStream(cfg, callback)
	if err != nil {
		return nil, err
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close() // Ignore errors during cleanup
		return nil, fmt.Errorf("%w: failed to start input stream: %v", ErrStreamSetupFailed, err)
	}

	r.log.Debug().Dur("duration", r.opts.Duration).Msg("Recording")

	timer := time.NewTimer(r.opts.Duration)
	defer timer.Stop()

	var waitErr error
	select {
	case <-timer.C:
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	// The callback must be quiet before the buffer is drained
	if err := stream.Stop(); err != nil {
		r.log.Warn().Err(err).Msg("Failed to stop input stream")
	}
	if err := stream.Close(); err != nil {
		r.log.Warn().Err(err).Msg("Failed to close input stream")
	}

	samples := buffer.TakeAll()
	if waitErr != nil {
		return nil, waitErr
	}

	rec := NewRecording(samples, cfg)
	r.log.Info().
		Str("session", rec.SessionID.String()).
		Int("samples", len(samples)).
		Dur("captured", rec.Duration()).
		Float32("peak", rec.Peak()).
		Msg("Recorded samples")

	return rec, nil
}
