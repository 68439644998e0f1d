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

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/loqalabs/loqa-echo/internal/audio"
	"github.com/spf13/viper"
)

// Output backends selectable with playback.backend
const (
	BackendPortAudio = "portaudio"
	BackendBeep      = "beep"
)

// Config holds the settings for one capture-then-playback run
type Config struct {
	LogLevel string
	LogFile  string
	Capture  CaptureConfig
	Playback PlaybackConfig
	NATS     NATSConfig
}

type CaptureConfig struct {
	Duration        time.Duration
	Encoding        audio.SampleFormat
	FramesPerBuffer int
}

type PlaybackConfig struct {
	Backend         string // "portaudio" or "beep"
	FramesPerBuffer int
}

// NATSConfig enables session reports when URL is set
type NATSConfig struct {
	URL     string
	Subject string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("capture.duration", 3*time.Second)
	v.SetDefault("capture.encoding", "f32")
	v.SetDefault("capture.frames_per_buffer", 512)
	v.SetDefault("playback.backend", BackendPortAudio)
	v.SetDefault("playback.frames_per_buffer", 512)
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject", "loqa.echo.sessions")
}

// Load reads configFilePath if it exists, applies LOQA_ECHO_* environment
// overrides (e.g. LOQA_ECHO_CAPTURE_DURATION=5s) and validates the result.
// A missing file is not an error; defaults apply.
func Load(configFilePath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LOQA_ECHO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFilePath != "" {
		v.SetConfigFile(configFilePath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("error during config read: %w", err)
			}
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	encoding, err := audio.ParseSampleFormat(v.GetString("capture.encoding"))
	if err != nil {
		return nil, fmt.Errorf("capture.encoding: %w", err)
	}
	if !encoding.Supported() {
		return nil, fmt.Errorf("capture.encoding: %w: %s", audio.ErrUnsupportedFormat, encoding)
	}

	cfg := &Config{
		LogLevel: v.GetString("log.level"),
		LogFile:  v.GetString("log.file"),
		Capture: CaptureConfig{
			Duration:        v.GetDuration("capture.duration"),
			Encoding:        encoding,
			FramesPerBuffer: v.GetInt("capture.frames_per_buffer"),
		},
		Playback: PlaybackConfig{
			Backend:         strings.ToLower(v.GetString("playback.backend")),
			FramesPerBuffer: v.GetInt("playback.frames_per_buffer"),
		},
		NATS: NATSConfig{
			URL:     v.GetString("nats.url"),
			Subject: v.GetString("nats.subject"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values viper cannot type-check
func (c *Config) Validate() error {
	if c.Capture.Duration <= 0 {
		return fmt.Errorf("capture.duration must be positive, got %s", c.Capture.Duration)
	}
	if c.Capture.FramesPerBuffer < 0 {
		return fmt.Errorf("capture.frames_per_buffer must not be negative, got %d", c.Capture.FramesPerBuffer)
	}
	if c.Playback.FramesPerBuffer < 0 {
		return fmt.Errorf("playback.frames_per_buffer must not be negative, got %d", c.Playback.FramesPerBuffer)
	}
	switch c.Playback.Backend {
	case BackendPortAudio, BackendBeep:
	default:
		return fmt.Errorf("playback.backend must be %q or %q, got %q", BackendPortAudio, BackendBeep, c.Playback.Backend)
	}
	if c.NATS.URL != "" && c.NATS.Subject == "" {
		return fmt.Errorf("nats.subject is required when nats.url is set")
	}
	return nil
}
