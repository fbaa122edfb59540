package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/fitlog/apiserver/config"
)

const (
	headerMessageID = "message_id"
	attrPartition   = "user_id"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaClient keeps one writer per topic and opens a consumer-group reader
// per subscription.
type KafkaClient struct {
	newWriter func(topic string) messageWriter
	newReader func(topic string) messageReader

	mu      sync.Mutex
	writers map[string]messageWriter
}

func NewKafkaClient(cfg config.KafkaConfig) (*KafkaClient, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}

	return &KafkaClient{
		newWriter: func(topic string) messageWriter {
			return &kafka.Writer{
				Addr:                   kafka.TCP(cfg.Brokers...),
				Topic:                  topic,
				RequiredAcks:           kafka.RequireAll,
				Balancer:               &kafka.Hash{},
				BatchTimeout:           10 * time.Millisecond,
				AllowAutoTopicCreation: true,
			}
		},
		newReader: func(topic string) messageReader {
			return kafka.NewReader(kafka.ReaderConfig{
				Brokers:        cfg.Brokers,
				GroupID:        cfg.GroupID,
				Topic:          topic,
				MinBytes:       1,
				MaxBytes:       10e6,
				CommitInterval: time.Second,
			})
		},
		writers: make(map[string]messageWriter),
	}, nil
}

// Publish keys each message by its user_id attribute so one user's events
// stay ordered within a partition.
func (k *KafkaClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	id := uuid.NewString()
	headers := make([]kafka.Header, 0, len(attrs)+1)
	headers = append(headers, kafka.Header{Key: headerMessageID, Value: []byte(id)})
	for key, value := range attrs {
		headers = append(headers, kafka.Header{Key: key, Value: []byte(value)})
	}

	msg := kafka.Message{Value: data, Headers: headers}
	if key, ok := attrs[attrPartition]; ok {
		msg.Key = []byte(key)
	}

	if err := k.writer(channel).WriteMessages(ctx, msg); err != nil {
		return "", err
	}
	return id, nil
}

// Subscribe commits an offset only after the handler accepts the message.
// A handler error stops consumption without committing, so the group
// resumes from the rejected offset on the next Subscribe.
func (k *KafkaClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	reader := k.newReader(channel)
	defer reader.Close()

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		msg := Message{Data: m.Value, Attributes: make(map[string]string, len(m.Headers))}
		for _, h := range m.Headers {
			if h.Key == headerMessageID {
				msg.ID = string(h.Value)
				continue
			}
			msg.Attributes[h.Key] = string(h.Value)
		}

		if err := handler(ctx, msg); err != nil {
			return fmt.Errorf("handle %s[%d]@%d: %w", m.Topic, m.Partition, m.Offset, err)
		}
		if err := reader.CommitMessages(ctx, m); err != nil {
			return err
		}
	}
}

func (k *KafkaClient) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	var errs []error
	for topic, w := range k.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(k.writers, topic)
	}
	return errors.Join(errs...)
}

func (k *KafkaClient) writer(topic string) messageWriter {
	k.mu.Lock()
	defer k.mu.Unlock()

	if w, ok := k.writers[topic]; ok {
		return w
	}
	w := k.newWriter(topic)
	k.writers[topic] = w
	return w
}
