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

package nats

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/loqalabs/loqa-echo/internal/audio"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// SessionReport summarizes one capture session
type SessionReport struct {
	SessionID  string    `json:"session_id"`
	Device     string    `json:"device"`
	SampleRate int       `json:"sample_rate"`
	Channels   int       `json:"channels"`
	Encoding   string    `json:"encoding"`
	Samples    int       `json:"samples"`
	DurationMS int64     `json:"duration_ms"`
	Peak       float32   `json:"peak"`
	CapturedAt time.Time `json:"captured_at"`
}

// NewSessionReport builds the report for a finished recording
func NewSessionReport(rec *audio.Recording) SessionReport {
	return SessionReport{
		SessionID:  rec.SessionID.String(),
		Device:     rec.Device,
		SampleRate: rec.SampleRate(),
		Channels:   rec.Channels(),
		Encoding:   rec.Encoding.String(),
		Samples:    len(rec.Samples()),
		DurationMS: rec.Duration().Milliseconds(),
		Peak:       rec.Peak(),
		CapturedAt: rec.CapturedAt,
	}
}

// NATSConnection interface for dependency injection
type NATSConnection interface {
	Publish(subject string, data []byte) error
	Flush() error
	Close()
}

// NATSConnectionAdapter adapts *nats.Conn to NATSConnection interface
type NATSConnectionAdapter struct {
	conn *nats.Conn
}

func NewNATSConnectionAdapter(conn *nats.Conn) *NATSConnectionAdapter {
	return &NATSConnectionAdapter{conn: conn}
}

func (r *NATSConnectionAdapter) Publish(subject string, data []byte) error {
	return r.conn.Publish(subject, data)
}

func (r *NATSConnectionAdapter) Flush() error {
	return r.conn.Flush()
}

func (r *NATSConnectionAdapter) Close() {
	r.conn.Close()
}

// SessionPublisher publishes session reports on <subject>.<session id>
type SessionPublisher struct {
	natsConn NATSConnection
	subject  string
	log      zerolog.Logger
}

// NewSessionPublisher connects to NATS, retrying a few times before giving up
func NewSessionPublisher(natsURL, subject string, log zerolog.Logger) (*SessionPublisher, error) {
	log = log.With().Str("component", "nats").Logger()

	var nc *nats.Conn
	var err error

	for i := 0; i < connectAttempts; i++ {
		nc, err = nats.Connect(natsURL, nats.Name("loqa-echo"))
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i+1).Int("max_attempts", connectAttempts).Msg("Failed to connect to NATS")
		if i < connectAttempts-1 {
			time.Sleep(connectBackoff)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS after %d attempts: %w", connectAttempts, err)
	}

	log.Info().Str("url", natsURL).Msg("Connected to NATS")
	return NewSessionPublisherWithConnection(NewNATSConnectionAdapter(nc), subject, log), nil
}

// NewSessionPublisherWithConnection creates a publisher with an existing connection (for testing)
func NewSessionPublisherWithConnection(natsConn NATSConnection, subject string, log zerolog.Logger) *SessionPublisher {
	return &SessionPublisher{
		natsConn: natsConn,
		subject:  subject,
		log:      log,
	}
}

// SubjectFor returns the subject a session's report is published on
func (sp *SessionPublisher) SubjectFor(sessionID string) string {
	return fmt.Sprintf("%s.%s", sp.subject, sessionID)
}

// PublishRecording publishes the report for rec and flushes the connection
func (sp *SessionPublisher) PublishRecording(rec *audio.Recording) error {
	report := NewSessionReport(rec)
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal session report: %w", err)
	}

	subject := sp.SubjectFor(report.SessionID)
	if err := sp.natsConn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	if err := sp.natsConn.Flush(); err != nil {
		return fmt.Errorf("failed to flush NATS connection: %w", err)
	}

	sp.log.Debug().Str("subject", subject).Int("bytes", len(data)).Msg("Published session report")
	return nil
}

// Close closes the NATS connection
func (sp *SessionPublisher) Close() {
	if sp.natsConn != nil {
		sp.natsConn.Close()
		sp.log.Debug().Msg("NATS connection closed")
	}
}
