package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/tutorium/sessions/internal/model"
)

// Publisher delivers activity events to a topic exchange. Delivery is
// observational: callers treat a publish failure as a logged event, never as
// an operation failure.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Record publishes the event as JSON with a routing key derived from the
// event type, e.g. "session.scheduled".
func (p *Publisher) Record(ctx context.Context, event model.ActivityEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, routingKey(event.Type), false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func routingKey(t model.ActivityType) string {
	switch t {
	case model.ActivitySessionScheduled:
		return "session.scheduled"
	case model.ActivitySessionCancelled:
		return "session.cancelled"
	case model.ActivitySessionCompleted:
		return "session.completed"
	}
	return "session.unknown"
}
