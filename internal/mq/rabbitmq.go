package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/fitlog/apiserver/config"
)

// RabbitMQClient publishes to and consumes from queues named after the channel.
type RabbitMQClient struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	durable    bool
	autoDelete bool
}

func NewRabbitMQClient(cfg config.RabbitMQConfig) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, err
		}
	}

	return &RabbitMQClient{
		conn:       conn,
		ch:         ch,
		durable:    cfg.QueueDurable,
		autoDelete: cfg.QueueAutoDelete,
	}, nil
}

func (r *RabbitMQClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if _, err := r.declare(channel); err != nil {
		return "", err
	}

	id := uuid.NewString()
	err := r.ch.PublishWithContext(ctx, "", channel, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: r.deliveryMode(),
		MessageId:    id,
		Headers:      attributesToHeaders(attrs),
		Body:         data,
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *RabbitMQClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if _, err := r.declare(channel); err != nil {
		return err
	}

	tag := "fitlog-" + uuid.NewString()
	deliveries, err := r.ch.Consume(channel, tag, false, false, false, false, nil)
	if err != nil {
		return err
	}
	defer func() { _ = r.ch.Cancel(tag, false) }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			msg := Message{ID: d.MessageId, Data: d.Body, Attributes: headersToAttributes(d.Headers)}
			if err := handler(ctx, msg); err != nil {
				_ = d.Nack(false, !d.Redelivered)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (r *RabbitMQClient) Close() error {
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func (r *RabbitMQClient) declare(queue string) (amqp.Queue, error) {
	return r.ch.QueueDeclare(queue, r.durable, r.autoDelete, false, false, nil)
}

func (r *RabbitMQClient) deliveryMode() uint8 {
	if r.durable {
		return amqp.Persistent
	}
	return amqp.Transient
}

func attributesToHeaders(attrs map[string]string) amqp.Table {
	headers := make(amqp.Table, len(attrs))
	for k, v := range attrs {
		headers[k] = v
	}
	return headers
}

func headersToAttributes(headers amqp.Table) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(headers))
	for k, v := range headers {
		switch typed := v.(type) {
		case string:
			attrs[k] = typed
		case []byte:
			attrs[k] = string(typed)
		default:
			attrs[k] = fmt.Sprint(v)
		}
	}
	return attrs
}
