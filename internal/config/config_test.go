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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/loqalabs/loqa-echo/internal/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loqa-echo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err, "missing config file should fall back to defaults")

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.LogFile)
	assert.Equal(t, 3*time.Second, cfg.Capture.Duration)
	assert.Equal(t, audio.FormatFloat32, cfg.Capture.Encoding)
	assert.Equal(t, 512, cfg.Capture.FramesPerBuffer)
	assert.Equal(t, BackendPortAudio, cfg.Playback.Backend)
	assert.Empty(t, cfg.NATS.URL)
	assert.Equal(t, "loqa.echo.sessions", cfg.NATS.Subject)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Capture.Duration)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
capture:
  duration: 5s
  encoding: i16
  frames_per_buffer: 1024
playback:
  backend: beep
nats:
  url: nats://localhost:4222
  subject: puck.echo
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.Capture.Duration)
	assert.Equal(t, audio.FormatInt16, cfg.Capture.Encoding)
	assert.Equal(t, 1024, cfg.Capture.FramesPerBuffer)
	assert.Equal(t, BackendBeep, cfg.Playback.Backend)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "puck.echo", cfg.NATS.Subject)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LOQA_ECHO_CAPTURE_DURATION", "750ms")
	t.Setenv("LOQA_ECHO_CAPTURE_ENCODING", "u16")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.Capture.Duration)
	assert.Equal(t, audio.FormatUint16, cfg.Capture.Encoding)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		errContains string
	}{
		{
			name:        "unknown_encoding",
			body:        "capture:\n  encoding: pcm8\n",
			errContains: "unsupported sample format",
		},
		{
			name:        "recognized_but_unsupported_encoding",
			body:        "capture:\n  encoding: i24\n",
			errContains: "unsupported sample format",
		},
		{
			name:        "zero_duration",
			body:        "capture:\n  duration: 0s\n",
			errContains: "capture.duration must be positive",
		},
		{
			name:        "negative_frames",
			body:        "capture:\n  frames_per_buffer: -1\n",
			errContains: "capture.frames_per_buffer",
		},
		{
			name:        "unknown_backend",
			body:        "playback:\n  backend: alsa\n",
			errContains: "playback.backend",
		},
		{
			name:        "nats_without_subject",
			body:        "nats:\n  url: nats://localhost:4222\n  subject: \"\"\n",
			errContains: "nats.subject",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "capture: [unterminated\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error during config read")
}

func TestUnsupportedEncodingIsSentinel(t *testing.T) {
	_, err := Load(writeConfig(t, "capture:\n  encoding: i32\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, audio.ErrUnsupportedFormat)
}
