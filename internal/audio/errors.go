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

import "errors"

// Errors raised by the capture and playback path. Callers match them with
// errors.Is; backends wrap them with the driver's message.
var (
	// ErrDeviceUnavailable is returned when no default input or output device exists
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	// ErrConfigurationQueryFailed is returned when the driver cannot report a default format
	ErrConfigurationQueryFailed = errors.New("audio configuration query failed")

	// ErrUnsupportedFormat is returned for sample encodings other than f32, i16 and u16
	ErrUnsupportedFormat = errors.New("unsupported sample format")

	// ErrStreamSetupFailed is returned when the backend rejects stream creation or start
	ErrStreamSetupFailed = errors.New("audio stream setup failed")

	// ErrInvalidDescriptor is returned when a playback source has a zero rate or channel count
	ErrInvalidDescriptor = errors.New("invalid playback descriptor")
)
