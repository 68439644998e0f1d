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

// StreamConfig describes the layout negotiated for an input stream
type StreamConfig struct {
	DeviceName      string
	SampleRate      int
	Channels        int
	Format          SampleFormat
	FramesPerBuffer int
}

// InputBackend provides the capture half of the audio collaborator.
// This enables dependency injection and makes testing hardware-independent.
type InputBackend interface {
	// Initialize the audio subsystem
	Initialize() error

	// Terminate the audio subsystem
	Terminate() error

	// DefaultInputConfig reports the default input device and its preferred layout
	DefaultInputConfig() (StreamConfig, error)

	// OpenInputStream opens the default input device. The callback receives
	// batches of raw samples on the driver's thread until the stream is stopped;
	// its type is func([]float32), func([]int16) or func([]uint16) matching cfg.Format.
	OpenInputStream(cfg StreamConfig, callback any) (StreamInterface, error)
}

// OutputBackend provides the playback half of the audio collaborator
type OutputBackend interface {
	// Initialize the audio subsystem
	Initialize() error

	// Terminate the audio subsystem
	Terminate() error

	// OpenOutputStream opens the default output device as a sink that pulls
	// samples from src at its advertised rate and channel count
	OpenOutputStream(src *PlaybackSource, framesPerBuffer int) (StreamInterface, error)
}

// AudioBackend is a collaborator that can both capture and play
type AudioBackend interface {
	InputBackend
	OutputBackend
}

// StreamInterface abstracts audio stream operations
type StreamInterface interface {
	// Start the audio stream
	Start() error

	// Stop the audio stream
	Stop() error

	// Close the audio stream and release resources
	Close() error

	// IsActive returns true if the stream is currently active
	IsActive() bool
}
