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
	"strings"
)

// SampleFormat identifies the encoding of raw samples delivered by an input device
type SampleFormat uint8

const (
	FormatUnknown SampleFormat = iota
	FormatFloat32
	FormatInt16
	FormatUint16

	// Encodings a driver may report but the capture buffer cannot normalize
	FormatInt8
	FormatUint8
	FormatInt24
	FormatInt32
)

var sampleFormatNames = map[SampleFormat]string{
	FormatFloat32: "f32",
	FormatInt16:   "i16",
	FormatUint16:  "u16",
	FormatInt8:    "i8",
	FormatUint8:   "u8",
	FormatInt24:   "i24",
	FormatInt32:   "i32",
}

// String returns the short name used in configuration files
func (f SampleFormat) String() string {
	if name, ok := sampleFormatNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParseSampleFormat maps a configuration name (f32, i16, u16, ...) to a SampleFormat.
// Unrecognized names yield ErrUnsupportedFormat.
func ParseSampleFormat(name string) (SampleFormat, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for format, n := range sampleFormatNames {
		if n == name {
			return format, nil
		}
	}
	return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// Supported reports whether samples in this format can be normalized
func (f SampleFormat) Supported() bool {
	switch f {
	case FormatFloat32, FormatInt16, FormatUint16:
		return true
	default:
		return false
	}
}

// BitDepth returns the width of one raw sample, or 0 if unknown
func (f SampleFormat) BitDepth() int {
	switch f {
	case FormatInt8, FormatUint8:
		return 8
	case FormatInt16, FormatUint16:
		return 16
	case FormatInt24:
		return 24
	case FormatFloat32, FormatInt32:
		return 32
	default:
		return 0
	}
}

const (
	int16Magnitude = -float32(math.MinInt16) // 32768
	uint16Max      = float32(math.MaxUint16)
)

// normalizeInt16 maps [-32768, 32767] onto [-1.0, 1.0)
func normalizeInt16(s int16) float32 {
	return float32(s) / int16Magnitude
}

// normalizeUint16 maps [0, 65535] onto [-1.0, 1.0]
func normalizeUint16(s uint16) float32 {
	return (float32(s)/uint16Max)*2 - 1
}
