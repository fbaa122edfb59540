// Package mq publishes and consumes exercise events over a pluggable broker.
package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fitlog/apiserver/config"
	"github.com/fitlog/apiserver/internal/logger"
)

// ErrChannelRequired is returned when a publish or subscribe names no channel.
var ErrChannelRequired = errors.New("mq channel is required")

// Message is a broker-agnostic event as seen by subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. A non-nil error leaves the message
// unacknowledged so the broker delivers it again.
type Handler func(ctx context.Context, msg Message) error

// Backend is implemented by each broker client.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ wraps a backend with channel validation and logging.
type MQ struct {
	name    string
	backend Backend
}

func New(name string, backend Backend) *MQ {
	return &MQ{name: name, backend: backend}
}

// NewFromConfig dials the configured backend. It returns nil, nil when
// publishing is disabled.
func NewFromConfig(ctx context.Context, cfg config.MQConfig) (*MQ, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Backend {
	case config.MQBackendNone:
		return nil, nil
	case config.MQBackendRabbitMQ:
		backend, err = NewRabbitMQClient(cfg.RabbitMQ)
	case config.MQBackendPubSub:
		backend, err = NewPubSubClient(ctx, cfg.PubSub)
	case config.MQBackendKafka:
		backend, err = NewKafkaClient(cfg.Kafka)
	default:
		return nil, fmt.Errorf("unsupported mq backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Backend, err)
	}
	return New(cfg.Backend, backend), nil
}

// Name reports the backend in use.
func (m *MQ) Name() string {
	return m.name
}

func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", ErrChannelRequired
	}
	id, err := m.backend.Publish(ctx, channel, data, attrs)
	if err != nil {
		return "", err
	}
	logger.Log(ctx).Debug(ctx, "message published",
		zap.String("backend", m.name), zap.String("channel", channel), zap.String("message_id", id))
	return id, nil
}

// Subscribe blocks, delivering messages to handler until ctx is done.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return ErrChannelRequired
	}
	return m.backend.Subscribe(ctx, channel, func(ctx context.Context, msg Message) error {
		if err := handler(ctx, msg); err != nil {
			logger.Log(ctx).Warn(ctx, "message handler failed",
				zap.String("backend", m.name), zap.String("message_id", msg.ID), zap.Error(err))
			return err
		}
		return nil
	})
}

func (m *MQ) Close() error {
	return m.backend.Close()
}
