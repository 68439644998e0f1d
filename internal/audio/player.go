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

// Player replays a recording through the default output device
type Player struct {
	backend         OutputBackend
	framesPerBuffer int
	log             zerolog.Logger
}

// NewPlayer creates a player on an initialized backend
func NewPlayer(backend OutputBackend, framesPerBuffer int, log zerolog.Logger) *Player {
	return &Player{
		backend:         backend,
		framesPerBuffer: framesPerBuffer,
		log:             log.With().Str("component", "player").Logger(),
	}
}

// Play hands the recording to the output sink and blocks for its advertised duration.
// The sink drains the source on its own thread; an underrun is audible, not reported.
func (p *Player) Play(ctx context.Context, rec *Recording) error {
	src, err := NewPlaybackSource(rec.SampleRate(), rec.Channels(), rec.Samples())
	if err != nil {
		return err
	}

	stream, err := p.backend.OpenOutputStream(src, p.framesPerBuffer)
	if err != nil {
		return err
	}
	defer func() {
		if err := stream.Close(); err != nil {
			p.log.Warn().Err(err).Msg("Failed to close output stream")
		}
	}()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("%w: failed to start output stream: %v", ErrStreamSetupFailed, err)
	}

	p.log.Info().
		Int("samples", len(rec.Samples())).
		Int("sample_rate", src.SampleRate()).
		Int("channels", src.Channels()).
		Dur("duration", src.TotalDuration()).
		Msg("Playing recording")

	timer := time.NewTimer(src.TotalDuration())
	defer timer.Stop()

	var waitErr error
	select {
	case <-timer.C:
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	if err := stream.Stop(); err != nil {
		p.log.Warn().Err(err).Msg("Failed to stop output stream")
	}

	p.log.Debug().Int("remaining", src.Remaining()).Msg("Playback finished")
	return waitErr
}
