// Package events publishes flagged complaint spikes to NATS.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/miradorstack/review-intel/internal/models"
)

// DefaultSubject prefixes every spike subject when none is configured.
const DefaultSubject = "review-intel.spikes"

// Conn is the subset of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// SpikeMessage is the JSON payload of one spike event.
type SpikeMessage struct {
	BusinessID string    `json:"business_id,omitempty"`
	TopicID    string    `json:"topic_id"`
	Window     string    `json:"window"`
	Previous   *int      `json:"previous"`
	Current    int       `json:"current"`
	Delta      int       `json:"delta"`
	DetectedAt time.Time `json:"detected_at"`
}

// NATSPublisher sends each spike to "<subject>.<topic>".
type NATSPublisher struct {
	conn    Conn
	subject string
	now     func() time.Time
}

// NewNATSPublisher wraps an open connection.
func NewNATSPublisher(conn Conn, subject string) *NATSPublisher {
	if strings.TrimSpace(subject) == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{conn: conn, subject: subject, now: time.Now}
}

// PublishSpikes publishes every spike and flushes. Individual publish
// failures are joined so one bad message does not hide the rest.
func (p *NATSPublisher) PublishSpikes(ctx context.Context, businessID string, spikes []models.SpikeEvent) error {
	if len(spikes) == 0 {
		return nil
	}
	detectedAt := p.now().UTC()
	var errs []error
	for _, spike := range spikes {
		data, err := json.Marshal(SpikeMessage{
			BusinessID: businessID,
			TopicID:    spike.TopicID,
			Window:     spike.Window,
			Previous:   spike.Previous,
			Current:    spike.Current,
			Delta:      spike.Delta,
			DetectedAt: detectedAt,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("encode spike %s/%s: %w", spike.TopicID, spike.Window, err))
			continue
		}
		if err := p.conn.Publish(p.Subject(spike.TopicID), data); err != nil {
			errs = append(errs, fmt.Errorf("publish spike %s/%s: %w", spike.TopicID, spike.Window, err))
		}
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush: %w", err))
	}
	return errors.Join(errs...)
}

// Subject returns the subject a topic's spikes go to. Characters NATS treats
// as separators or wildcards are replaced.
func (p *NATSPublisher) Subject(topicID string) string {
	token := strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, topicID)
	if token == "" {
		token = "_"
	}
	return p.subject + "." + token
}

// Connect dials NATS with reconnect handling that logs through logger.
func Connect(url string, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	options := []nats.Option{
		nats.Name("review-intel"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.Timeout(5 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("nats connection closed")
		}),
	}
	nc, err := nats.Connect(url, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}
	return nc, nil
}
