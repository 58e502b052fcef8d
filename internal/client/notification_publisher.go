package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pesio-ai/be-pg-salaries/internal/salary"
)

// Salary event types, published as <prefix>.<event_type>
const (
	EventSalaryCreated   = "created"
	EventSalaryUpdated   = "updated"
	EventPaymentRecorded = "payment_recorded"
	EventSalaryPaid      = "paid"
	EventSalaryCancelled = "cancelled"
	EventSalaryDeleted   = "deleted"
)

// Publisher is the subset of JetStream the event publisher needs
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// NotificationPublisher publishes salary lifecycle events to NATS
// JetStream.
//
// All publish operations are non-fatal: errors are logged and never
// returned, so a broker outage never fails a salary operation.
type NotificationPublisher struct {
	pub    Publisher
	prefix string
	log    zerolog.Logger
}

// SalaryEvent is the JSON schema published to NATS.
type SalaryEvent struct {
	EventType     string          `json:"event_type"`
	SalaryID      string          `json:"salary_id"`
	PGID          string          `json:"pg_id"`
	BranchID      string          `json:"branch_id"`
	MaintainerID  string          `json:"maintainer_id"`
	Month         string          `json:"month"`
	Year          int             `json:"year"`
	Status        string          `json:"status"`
	NetSalary     decimal.Decimal `json:"net_salary"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	ActorID       string          `json:"actor_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       map[string]any  `json:"payload,omitempty"`
}

// NewNotificationPublisher creates a publisher. A nil pub disables
// publishing.
func NewNotificationPublisher(pub Publisher, prefix string, log zerolog.Logger) *NotificationPublisher {
	return &NotificationPublisher{pub: pub, prefix: prefix, log: log}
}

// PublishSalaryEvent publishes one salary event.
// Subject: <prefix>.<eventType>
func (p *NotificationPublisher) PublishSalaryEvent(ctx context.Context, eventType string, rec *salary.Record, actorID string, payload map[string]any) {
	if p == nil || p.pub == nil {
		return
	}

	event := &SalaryEvent{
		EventType:     eventType,
		SalaryID:      rec.ID,
		PGID:          rec.PGID,
		BranchID:      rec.BranchID,
		MaintainerID:  rec.MaintainerID,
		Month:         rec.Month.String(),
		Year:          rec.Year,
		Status:        string(rec.Status),
		NetSalary:     rec.NetSalary,
		PaidAmount:    rec.PaidAmount,
		PendingAmount: rec.PendingAmount,
		ActorID:       actorID,
		OccurredAt:    time.Now().UTC(),
		Payload:       payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn().Err(err).Str("event_type", eventType).Msg("events: failed to marshal salary event")
		return
	}

	subject := fmt.Sprintf("%s.%s", p.prefix, eventType)
	if err := p.pub.Publish(ctx, subject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Str("salary_id", rec.ID).
			Msg("events: failed to publish NATS event (non-fatal)")
		return
	}

	p.log.Debug().
		Str("subject", subject).
		Str("salary_id", rec.ID).
		Msg("events: salary event published")
}

// JetStreamPublisher publishes to a JetStream stream covering <prefix>.>
type JetStreamPublisher struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// NewJetStreamPublisher connects to NATS and declares the salary stream
func NewJetStreamPublisher(ctx context.Context, url, prefix string) (*JetStreamPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("be-pg-salaries"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     "SALARIES",
		Subjects: []string{prefix + ".>"},
		MaxAge:   30 * 24 * time.Hour,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to declare salary stream: %w", err)
	}

	return &JetStreamPublisher{nc: nc, js: js}, nil
}

// Publish sends data and waits for the stream ack
func (p *JetStreamPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	_, err := p.js.Publish(ctx, subject, data)
	return err
}

// Close drains the connection
func (p *JetStreamPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}
