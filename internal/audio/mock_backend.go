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
	"math"
	"sync"
	"time"
)

// MockAudioBackend implements AudioBackend for testing without hardware dependencies
type MockAudioBackend struct {
	mu                 sync.Mutex
	initialized        bool
	streams            map[string]*MockStream
	streamCounter      int
	lastInput          *MockStream
	lastOutput         *MockStream
	initError          error
	terminateError     error
	configError        error
	createStreamError  error
	startError         error
	simulateRealTiming bool
	defaultConfig      StreamConfig
	inputBatches       []any
	deliveredBatches   int
	playbackAudioData  [][]float32
}

// NewMockAudioBackend creates a new mock audio backend with a mono 16kHz float32 microphone
func NewMockAudioBackend() *MockAudioBackend {
	return &MockAudioBackend{
		streams:            make(map[string]*MockStream),
		simulateRealTiming: true,
		defaultConfig: StreamConfig{
			DeviceName:      "Mock Microphone",
			SampleRate:      16000,
			Channels:        1,
			Format:          FormatFloat32,
			FramesPerBuffer: 512,
		},
		playbackAudioData: make([][]float32, 0),
	}
}

// SetInitError configures the backend to return an error on Initialize()
func (m *MockAudioBackend) SetInitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initError = err
}

// SetConfigError configures the backend to return an error on DefaultInputConfig()
func (m *MockAudioBackend) SetConfigError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configError = err
}

// SetCreateStreamError configures the backend to return an error on stream creation
func (m *MockAudioBackend) SetCreateStreamError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createStreamError = err
}

// SetStartError configures streams created afterwards to fail on Start()
func (m *MockAudioBackend) SetStartError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startError = err
}

// SetSimulateRealTiming controls whether the mock simulates real audio timing
func (m *MockAudioBackend) SetSimulateRealTiming(simulate bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.simulateRealTiming = simulate
}

// SetDefaultInputConfig sets the layout reported by DefaultInputConfig()
func (m *MockAudioBackend) SetDefaultInputConfig(cfg StreamConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = cfg
}

// SetInputBatches scripts the raw batches an input stream delivers, in order.
// Without scripted batches the stream generates a 440 Hz tone until stopped.
func (m *MockAudioBackend) SetInputBatches(batches ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputBatches = batches
}

// DeliveredBatches returns how many batches reached an input callback
func (m *MockAudioBackend) DeliveredBatches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deliveredBatches
}

// GetPlaybackAudioData returns all audio data that was "played back"
func (m *MockAudioBackend) GetPlaybackAudioData() [][]float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([][]float32, len(m.playbackAudioData))
	copy(result, m.playbackAudioData)
	return result
}

// PlayedSamples returns every played sample flattened in order
func (m *MockAudioBackend) PlayedSamples() []float32 {
	var out []float32
	for _, chunk := range m.GetPlaybackAudioData() {
		out = append(out, chunk...)
	}
	return out
}

// LastInputStream returns the most recently opened input stream
func (m *MockAudioBackend) LastInputStream() *MockStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastInput
}

// LastOutputStream returns the most recently opened output stream
func (m *MockAudioBackend) LastOutputStream() *MockStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastOutput
}

// Initialize initializes the mock audio subsystem
func (m *MockAudioBackend) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initError != nil {
		return m.initError
	}

	m.initialized = true
	return nil
}

// Terminate terminates the mock audio subsystem
func (m *MockAudioBackend) Terminate() error {
	m.mu.Lock()

	if m.terminateError != nil {
		m.mu.Unlock()
		return m.terminateError
	}

	var streams []*MockStream
	for _, stream := range m.streams {
		streams = append(streams, stream)
	}

	// Release the lock before calling Stop/Close to avoid deadlocks
	m.mu.Unlock()

	for _, stream := range streams {
		_ = stream.Stop()  // Ignore errors during cleanup
		_ = stream.Close() // Ignore errors during cleanup
	}

	m.mu.Lock()
	m.initialized = false
	m.mu.Unlock()
	return nil
}

// DefaultInputConfig reports the configured mock microphone
func (m *MockAudioBackend) DefaultInputConfig() (StreamConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return StreamConfig{}, fmt.Errorf("mock audio backend not initialized")
	}
	if m.configError != nil {
		return StreamConfig{}, m.configError
	}
	return m.defaultConfig, nil
}

// OpenInputStream creates a mock input stream that feeds callback
func (m *MockAudioBackend) OpenInputStream(cfg StreamConfig, callback any) (StreamInterface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil, fmt.Errorf("mock audio backend not initialized")
	}
	if m.createStreamError != nil {
		return nil, m.createStreamError
	}
	switch callback.(type) {
	case func([]float32), func([]int16), func([]uint16):
	default:
		return nil, fmt.Errorf("%w: callback of type %T", ErrUnsupportedFormat, callback)
	}

	stream := m.newStream("input", cfg.SampleRate, cfg.Channels, cfg.FramesPerBuffer)
	stream.isInput = true
	stream.format = cfg.Format
	stream.callback = callback
	stream.batches = append([]any(nil), m.inputBatches...)
	m.lastInput = stream
	return stream, nil
}

// OpenOutputStream creates a mock output stream that drains src
func (m *MockAudioBackend) OpenOutputStream(src *PlaybackSource, framesPerBuffer int) (StreamInterface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil, fmt.Errorf("mock audio backend not initialized")
	}
	if m.createStreamError != nil {
		return nil, m.createStreamError
	}

	stream := m.newStream("output", src.SampleRate(), src.Channels(), framesPerBuffer)
	stream.source = src
	m.lastOutput = stream
	return stream, nil
}

func (m *MockAudioBackend) newStream(kind string, sampleRate, channels, framesPerBuffer int) *MockStream {
	streamID := fmt.Sprintf("%s_%d", kind, m.streamCounter)
	m.streamCounter++

	if framesPerBuffer <= 0 {
		framesPerBuffer = 256
	}
	stream := &MockStream{
		id:                 streamID,
		backend:            m,
		sampleRate:         sampleRate,
		channels:           channels,
		bufferSize:         framesPerBuffer,
		simulateRealTiming: m.simulateRealTiming,
		startError:         m.startError,
	}
	m.streams[streamID] = stream
	return stream
}

// MockStream implements StreamInterface for testing
type MockStream struct {
	mu                 sync.Mutex
	id                 string
	backend            *MockAudioBackend
	sampleRate         int
	channels           int
	bufferSize         int
	isInput            bool
	isOpen             bool
	isActive           bool
	stopped            bool
	closed             bool
	simulateRealTiming bool
	format             SampleFormat
	callback           any
	batches            []any
	source             *PlaybackSource
	stopChannel        chan struct{}
	done               chan struct{}
	startError         error
	stopError          error
}

// SetStopError configures the stream to return an error on Stop()
func (m *MockStream) SetStopError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopError = err
}

// WasStopped reports whether Stop() has been called
func (m *MockStream) WasStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// WasClosed reports whether Close() has been called
func (m *MockStream) WasClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Start starts the mock stream
func (m *MockStream) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.startError != nil {
		return m.startError
	}

	if m.isActive {
		return fmt.Errorf("stream already active")
	}

	m.isActive = true
	m.isOpen = true
	m.stopChannel = make(chan struct{})
	m.done = make(chan struct{})

	if m.isInput {
		go m.simulateAudioInput(m.stopChannel, m.done)
	} else {
		go m.simulateAudioOutput(m.stopChannel, m.done)
	}

	return nil
}

// Stop stops the mock stream. Like a real driver, no callback runs after Stop returns.
func (m *MockStream) Stop() error {
	m.mu.Lock()

	if m.stopError != nil {
		m.mu.Unlock()
		return m.stopError
	}

	m.stopped = true
	if !m.isActive {
		m.mu.Unlock()
		return nil
	}

	m.isActive = false
	close(m.stopChannel)
	done := m.done
	m.mu.Unlock()

	<-done
	return nil
}

// Close closes the mock stream
func (m *MockStream) Close() error {
	if err := m.Stop(); err != nil {
		return err
	}

	m.mu.Lock()
	m.closed = true
	m.isOpen = false
	m.mu.Unlock()

	m.backend.mu.Lock()
	delete(m.backend.streams, m.id)
	m.backend.mu.Unlock()
	return nil
}

// IsActive returns true if the mock stream is active
func (m *MockStream) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isActive
}

func (m *MockStream) bufferDuration() time.Duration {
	if m.sampleRate <= 0 {
		return time.Millisecond
	}
	return time.Duration(float64(m.bufferSize) / float64(m.sampleRate) * float64(time.Second))
}

// simulateAudioInput delivers scripted batches, or a generated tone, to the callback
func (m *MockStream) simulateAudioInput(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	if len(m.batches) > 0 {
		for _, batch := range m.batches {
			if m.simulateRealTiming {
				select {
				case <-stop:
					return
				case <-time.After(m.bufferDuration()):
				}
			}
			m.deliver(batch)
		}
		return
	}

	ticker := time.NewTicker(m.bufferDuration())
	defer ticker.Stop()

	var phase int
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.deliver(m.generateTone(phase))
			phase += m.bufferSize
		}
	}
}

// generateTone produces one buffer of a 440 Hz tone in the stream's format
func (m *MockStream) generateTone(phase int) any {
	n := m.bufferSize * max(m.channels, 1)
	value := func(i int) float64 {
		frame := phase + i/max(m.channels, 1)
		return 0.1 * math.Sin(2*math.Pi*440*float64(frame)/float64(m.sampleRate))
	}

	switch m.format {
	case FormatInt16:
		batch := make([]int16, n)
		for i := range batch {
			batch[i] = int16(value(i) * math.MaxInt16)
		}
		return batch
	case FormatUint16:
		batch := make([]uint16, n)
		for i := range batch {
			batch[i] = uint16((value(i) + 1) / 2 * math.MaxUint16)
		}
		return batch
	default:
		batch := make([]float32, n)
		for i := range batch {
			batch[i] = float32(value(i))
		}
		return batch
	}
}

func (m *MockStream) deliver(batch any) {
	delivered := true
	switch cb := m.callback.(type) {
	case func([]float32):
		in, ok := batch.([]float32)
		if ok {
			cb(in)
		}
		delivered = ok
	case func([]int16):
		in, ok := batch.([]int16)
		if ok {
			cb(in)
		}
		delivered = ok
	case func([]uint16):
		in, ok := batch.([]uint16)
		if ok {
			cb(in)
		}
		delivered = ok
	}

	if delivered {
		m.backend.mu.Lock()
		m.backend.deliveredBatches++
		m.backend.mu.Unlock()
	}
}

// simulateAudioOutput pulls the source one buffer at a time until it is exhausted
func (m *MockStream) simulateAudioOutput(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	buffer := make([]float32, m.bufferSize*max(m.channels, 1))
	for {
		// Without real timing the whole source is drained regardless of Stop
		if m.simulateRealTiming {
			select {
			case <-stop:
				return
			default:
			}
		}

		n := m.source.Fill(buffer)
		if n == 0 {
			return
		}

		chunk := make([]float32, n)
		copy(chunk, buffer[:n])

		m.backend.mu.Lock()
		m.backend.playbackAudioData = append(m.backend.playbackAudioData, chunk)
		m.backend.mu.Unlock()

		if m.simulateRealTiming {
			select {
			case <-stop:
				return
			case <-time.After(m.bufferDuration()):
			}
		}
	}
}
