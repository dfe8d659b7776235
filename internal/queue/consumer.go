package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
)

// Handler processes one message body.  A non-nil error rejects the message.
type Handler func(body []byte) error

// RabbitConsumer reads booking events from a durable RabbitMQ queue.
type RabbitConsumer struct {
	url   string
	queue string
}

// NewRabbitConsumer returns a consumer for queue at url.
func NewRabbitConsumer(url, queue string) *RabbitConsumer {
	return &RabbitConsumer{url: url, queue: queue}
}

// Start connects, declares the queue and consumes until ctx is done.  It
// reconnects with exponential backoff whenever the broker goes away and
// only returns once ctx is cancelled.
func (c *RabbitConsumer) Start(ctx context.Context, h Handler) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.Printf("booking-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn, h)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		log.Printf("booking-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func (c *RabbitConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection, h Handler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("booking-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := h(d.Body); err != nil {
				log.Printf("booking-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// KafkaConsumer reads booking events from a topic as part of a consumer
// group and commits each message after it is handled.
type KafkaConsumer struct {
	r *kafka.Reader
}

// NewKafkaConsumer returns a consumer for topic in group.
func NewKafkaConsumer(brokers []string, group, topic string) *KafkaConsumer {
	return &KafkaConsumer{r: kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})}
}

// Start consumes until ctx is done.  Messages that fail to handle are
// logged and committed so a poison message cannot stall the partition.
func (c *KafkaConsumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := h(m.Value); err != nil {
			log.Printf("booking-consumer: handle message failed: %v", err)
		}
		if err := c.r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			log.Printf("booking-consumer: commit failed: %v", err)
		}
	}
}

// sleep waits for d or until ctx is done and reports whether it slept
// the full duration.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
