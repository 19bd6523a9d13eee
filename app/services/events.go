package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"PosPrint/app/models"
)

// DefaultEventSubject is the subject print events are published on
const DefaultEventSubject = "posprint.jobs"

// PrintEvent describes the outcome of one print job
type PrintEvent struct {
	JobID      string             `json:"job_id"`
	Role       models.PrinterRole `json:"role,omitempty"`
	PrinterIP  string             `json:"printer_ip,omitempty"`
	Kind       string             `json:"kind"`
	TableLabel string             `json:"table_label,omitempty"`
	Status     string             `json:"status"`
	Error      string             `json:"error,omitempty"`
	At         time.Time          `json:"at"`
}

// EventPublisher delivers encoded events to subscribers
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// NoopPublisher drops every event
type NoopPublisher struct{}

// Publish implements EventPublisher
func (NoopPublisher) Publish(context.Context, string, []byte) error { return nil }

// MultiPublisher fans an event out to several publishers. Every publisher is
// tried, and the failures are joined.
type MultiPublisher []EventPublisher

// Publish implements EventPublisher
func (m MultiPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, subject, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NATSPublisher publishes events on a NATS connection
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the NATS server at url
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("posprint"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

// Publish implements EventPublisher
func (p *NATSPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.conn.Publish(subject, data)
}

// Close drains pending messages and closes the connection
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
