package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// envelope is the wire form of a published event
type envelope struct {
	Type      string      `json:"type"`
	StreamID  string      `json:"stream_id"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// AMQPPublisher publishes planning events to a RabbitMQ topic exchange,
// routing by event type
type AMQPPublisher struct {
	conn     *amqp.Connection
	exchange string
	log      *logrus.Entry
}

// NewAMQPPublisher connects to the broker and declares the exchange
func NewAMQPPublisher(url, exchange string, log *logrus.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "connect to rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "declare exchange %s", exchange)
	}

	return &AMQPPublisher{
		conn:     conn,
		exchange: exchange,
		log:      log.WithField("component", "amqp_publisher"),
	}, nil
}

// Publish sends the event as a persistent JSON message. Channels are
// opened per publish so a broker-closed channel never poisons later calls.
func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return errors.Wrap(err, "open channel")
	}
	defer ch.Close()

	body, err := json.Marshal(envelope{
		Type:      event.Type(),
		StreamID:  event.StreamID(),
		Timestamp: event.Timestamp().Format(time.RFC3339),
		Data:      event.Data(),
	})
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	err = ch.PublishWithContext(ctx, p.exchange, event.Type(), false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
	})
	if err != nil {
		return errors.Wrapf(err, "publish %s", event.Type())
	}

	p.log.WithFields(logrus.Fields{
		"type":   event.Type(),
		"stream": event.StreamID(),
	}).Debug("event published")
	return nil
}

// Close shuts down the broker connection
func (p *AMQPPublisher) Close() error {
	return p.conn.Close()
}
