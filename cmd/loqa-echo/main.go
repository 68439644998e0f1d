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
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/loqalabs/loqa-echo/internal/audio"
	"github.com/loqalabs/loqa-echo/internal/config"
	"github.com/loqalabs/loqa-echo/internal/logging"
	"github.com/loqalabs/loqa-echo/internal/nats"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
)

// reportPublisher receives the summary of a finished capture session
type reportPublisher interface {
	PublishRecording(rec *audio.Recording) error
}

func main() {
	configFilePath := flag.String("config", "loqa-echo.yaml", "Path to the config file; defaults apply when it does not exist.")
	flag.Parse()

	cfg, err := config.Load(*configFilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, logFile, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to configure logger: %v\n", err)
		os.Exit(1)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	log.Info().Str("version", Version).Dur("capture", cfg.Capture.Duration).Msg("loqa-echo starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input := audio.NewPortAudioBackend(cfg.Capture.Encoding)
	var output audio.OutputBackend = input
	if cfg.Playback.Backend == config.BackendBeep {
		output = audio.NewBeepOutputBackend()
	}

	var publisher reportPublisher
	if cfg.NATS.URL != "" {
		sp, err := nats.NewSessionPublisher(cfg.NATS.URL, cfg.NATS.Subject, log)
		if err != nil {
			log.Warn().Err(err).Msg("Session reports disabled")
		} else {
			defer sp.Close()
			publisher = sp
		}
	}

	if err := run(ctx, cfg, input, output, publisher, log); err != nil {
		log.Error().Err(err).Msg("Echo failed")
		os.Exit(1)
	}

	log.Info().Msg("Echo complete")
}

// run performs one capture-then-playback cycle
func run(ctx context.Context, cfg *config.Config, input audio.InputBackend, output audio.OutputBackend, publisher reportPublisher, log zerolog.Logger) error {
	if err := input.Initialize(); err != nil {
		return err
	}
	defer func() { _ = input.Terminate() }()

	if any(output) != any(input) {
		if err := output.Initialize(); err != nil {
			return err
		}
		defer func() { _ = output.Terminate() }()
	}

	recorder := audio.NewRecorder(input, audio.RecorderOptions{
		Duration:        cfg.Capture.Duration,
		Format:          cfg.Capture.Encoding,
		FramesPerBuffer: cfg.Capture.FramesPerBuffer,
	}, log)

	rec, err := recorder.Record(ctx)
	if err != nil {
		return fmt.Errorf("capture failed: %w", err)
	}

	if publisher != nil {
		if err := publisher.PublishRecording(rec); err != nil {
			log.Warn().Err(err).Msg("Failed to publish session report")
		}
	}

	player := audio.NewPlayer(output, cfg.Playback.FramesPerBuffer, log)
	if err := player.Play(ctx, rec); err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}
	return nil
}
