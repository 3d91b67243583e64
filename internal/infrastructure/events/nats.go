package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielPopoola/eventpay/internal/config"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher delivers one event to wherever events go.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

// NATSPublisher publishes to a JetStream stream capturing events.>.
type NATSPublisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

func NewNATSPublisher(ctx context.Context, cfg config.EventsConfig, logger *slog.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.ClientName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(c *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(cfg.NATSURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	p := &NATSPublisher{conn: conn, js: js, logger: logger}
	if err := p.ensureStream(ctx, cfg.Stream); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info("NATS connection established", "url", conn.ConnectedUrl(), "stream", cfg.Stream)
	return p, nil
}

func (p *NATSPublisher) ensureStream(ctx context.Context, name string) error {
	_, err := p.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      name,
		Subjects:  []string{"events.payment.>"},
		MaxAge:    7 * 24 * time.Hour,
		MaxBytes:  1 << 30,
		Replicas:  1,
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("creating/updating stream %s: %w", name, err)
	}
	return nil
}

func (p *NATSPublisher) Publish(ctx context.Context, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	// The event ID doubles as the JetStream dedupe key.
	if _, err := p.js.Publish(ctx, event.Subject(), data, jetstream.WithMsgID(event.ID)); err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}

	p.logger.Debug("event published",
		"event_id", event.ID,
		"type", event.Type,
		"subject", event.Subject(),
	)
	return nil
}

func (p *NATSPublisher) HealthCheck(context.Context) error {
	if !p.conn.IsConnected() {
		return errors.New("NATS not connected")
	}
	return nil
}

func (p *NATSPublisher) Close() {
	p.conn.Close()
}

// LogPublisher writes events to the log. It is used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event *Event) error {
	p.logger.Info("domain event",
		"event_id", event.ID,
		"type", event.Type,
		"aggregate_id", event.AggregateID,
		"correlation_id", event.CorrelationID,
		"data", string(event.Data),
	)
	return nil
}
