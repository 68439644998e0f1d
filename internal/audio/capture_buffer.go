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
	"sync"
)

// CaptureBuffer accumulates normalized samples delivered by an input stream callback.
//
// Appends run on the driver's callback thread, so each batch is converted into a
// fresh slice before the lock is taken and the lock only covers the append itself.
// The owner must stop the input stream before calling TakeAll.
type CaptureBuffer struct {
	mu      sync.Mutex
	samples []float32
	retired bool
}

// NewCaptureBuffer creates an empty capture buffer
func NewCaptureBuffer() *CaptureBuffer {
	return &CaptureBuffer{}
}

// AppendFloat32 appends a batch of 32-bit float samples unchanged
func (b *CaptureBuffer) AppendFloat32(batch []float32) {
	if len(batch) == 0 {
		return
	}
	// The driver reuses its buffer between callbacks
	converted := make([]float32, len(batch))
	copy(converted, batch)
	b.push(converted)
}

// AppendInt16 appends a batch of signed 16-bit samples scaled onto [-1.0, 1.0)
func (b *CaptureBuffer) AppendInt16(batch []int16) {
	if len(batch) == 0 {
		return
	}
	converted := make([]float32, len(batch))
	for i, s := range batch {
		converted[i] = normalizeInt16(s)
	}
	b.push(converted)
}

// AppendUint16 appends a batch of unsigned 16-bit samples scaled onto [-1.0, 1.0]
func (b *CaptureBuffer) AppendUint16(batch []uint16) {
	if len(batch) == 0 {
		return
	}
	converted := make([]float32, len(batch))
	for i, s := range batch {
		converted[i] = normalizeUint16(s)
	}
	b.push(converted)
}

// AppendBatch appends a raw batch whose element type must match format.
// Unrecognized formats, and batches of the wrong type, fail with
// ErrUnsupportedFormat and leave the buffer unchanged.
func (b *CaptureBuffer) AppendBatch(format SampleFormat, batch any) error {
	switch format {
	case FormatFloat32:
		if in, ok := batch.([]float32); ok {
			b.AppendFloat32(in)
			return nil
		}
	case FormatInt16:
		if in, ok := batch.([]int16); ok {
			b.AppendInt16(in)
			return nil
		}
	case FormatUint16:
		if in, ok := batch.([]uint16); ok {
			b.AppendUint16(in)
			return nil
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return fmt.Errorf("%w: %s batch of type %T", ErrUnsupportedFormat, format, batch)
}

// Callback returns an input callback for format in the shape PortAudio expects
// (func([]float32), func([]int16) or func([]uint16)). It is called once at stream
// setup so an unsupported device format fails before any capture starts.
func (b *CaptureBuffer) Callback(format SampleFormat) (any, error) {
	switch format {
	case FormatFloat32:
		return b.AppendFloat32, nil
	case FormatInt16:
		return b.AppendInt16, nil
	case FormatUint16:
		return b.AppendUint16, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// TakeAll returns every sample appended so far and retires the buffer.
// Later appends are discarded and later calls return nil.
func (b *CaptureBuffer) TakeAll() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	samples := b.samples
	b.samples = nil
	b.retired = true
	return samples
}

// Len returns the number of samples accumulated
func (b *CaptureBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

func (b *CaptureBuffer) push(converted []float32) {
	b.mu.Lock()
	if !b.retired {
		b.samples = append(b.samples, converted...)
	}
	b.mu.Unlock()
}
