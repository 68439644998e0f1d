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

	"github.com/gordonklaus/portaudio"
)

// maxCaptureChannels caps the channel count taken from the device;
// interleaved samples are passed through without remapping.
const maxCaptureChannels = 2

// PortAudioBackend implements AudioBackend using the real PortAudio library
type PortAudioBackend struct {
	initialized bool
	format      SampleFormat
}

// NewPortAudioBackend creates a new PortAudio backend. PortAudio does not report
// a native sample encoding, so the caller chooses the format the device is opened with.
func NewPortAudioBackend(format SampleFormat) *PortAudioBackend {
	return &PortAudioBackend{format: format}
}

// Initialize initializes the PortAudio subsystem
func (p *PortAudioBackend) Initialize() error {
	if p.initialized {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	p.initialized = true
	return nil
}

// Terminate terminates the PortAudio subsystem
func (p *PortAudioBackend) Terminate() error {
	if !p.initialized {
		return nil
	}

	err := portaudio.Terminate()
	p.initialized = false
	return err
}

// DefaultInputConfig queries the default input device
func (p *PortAudioBackend) DefaultInputConfig() (StreamConfig, error) {
	if !p.initialized {
		return StreamConfig{}, fmt.Errorf("PortAudio not initialized")
	}

	device, err := portaudio.DefaultInputDevice()
	if err != nil {
		return StreamConfig{}, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if device == nil || device.MaxInputChannels <= 0 {
		return StreamConfig{}, fmt.Errorf("%w: no input channels on default device", ErrDeviceUnavailable)
	}
	if device.DefaultSampleRate <= 0 {
		return StreamConfig{}, fmt.Errorf("%w: device %q reports sample rate %.0f",
			ErrConfigurationQueryFailed, device.Name, device.DefaultSampleRate)
	}

	return StreamConfig{
		DeviceName: device.Name,
		SampleRate: int(device.DefaultSampleRate),
		Channels:   min(device.MaxInputChannels, maxCaptureChannels),
		Format:     p.format,
	}, nil
}

// OpenInputStream opens the default input device with a callback stream
func (p *PortAudioBackend) OpenInputStream(cfg StreamConfig, callback any) (StreamInterface, error) {
	if !p.initialized {
		return nil, fmt.Errorf("PortAudio not initialized")
	}

	// PortAudio has no unsigned 16-bit sample type
	switch cfg.Format {
	case FormatFloat32, FormatInt16:
	default:
		return nil, fmt.Errorf("%w: PortAudio cannot capture %s", ErrUnsupportedFormat, cfg.Format)
	}

	device, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: cfg.Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: cfg.FramesPerBuffer,
	}, callback)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open input stream: %v", ErrStreamSetupFailed, err)
	}

	return &PortAudioStream{stream: stream}, nil
}

// OpenOutputStream opens the default output device; its callback pulls from src
func (p *PortAudioBackend) OpenOutputStream(src *PlaybackSource, framesPerBuffer int) (StreamInterface, error) {
	if !p.initialized {
		return nil, fmt.Errorf("PortAudio not initialized")
	}

	device, err := portaudio.DefaultOutputDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if device == nil || device.MaxOutputChannels <= 0 {
		return nil, fmt.Errorf("%w: no output channels on default device", ErrDeviceUnavailable)
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: src.Channels(),
			Latency:  device.DefaultHighOutputLatency,
		},
		SampleRate:      float64(src.SampleRate()),
		FramesPerBuffer: framesPerBuffer,
	}, func(out []float32) {
		src.Fill(out)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open output stream: %v", ErrStreamSetupFailed, err)
	}

	return &PortAudioStream{stream: stream}, nil
}

// PortAudioStream implements StreamInterface using PortAudio callback streams
type PortAudioStream struct {
	stream *portaudio.Stream
	active atomic.Bool
}

// Start starts the audio stream
func (p *PortAudioStream) Start() error {
	if p.stream == nil {
		return fmt.Errorf("stream is nil")
	}
	if err := p.stream.Start(); err != nil {
		return err
	}
	p.active.Store(true)
	return nil
}

// Stop stops the audio stream
func (p *PortAudioStream) Stop() error {
	if p.stream == nil {
		return fmt.Errorf("stream is nil")
	}
	p.active.Store(false)
	return p.stream.Stop()
}

// Close closes the audio stream
func (p *PortAudioStream) Close() error {
	if p.stream == nil {
		return fmt.Errorf("stream is nil")
	}
	p.active.Store(false)
	return p.stream.Close()
}

// IsActive returns true between a successful Start and the next Stop or Close
func (p *PortAudioStream) IsActive() bool {
	return p.active.Load()
}
