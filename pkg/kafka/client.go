// Package kafka wraps the kafka-go writer used to fan outbox events out to topics.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/angelmondragon/retailstock-backend/pkg/config"
	"github.com/angelmondragon/retailstock-backend/pkg/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type dialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Client owns one multi-topic writer. Messages carry their own topic.
type Client struct {
	writer  messageWriter
	brokers []string
	dial    dialFunc
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New builds the writer from config. It does not dial; call Ping to verify the brokers.
func New(ctx context.Context, cfg config.KafkaConfig, logg *logger.Logger) (*Client, error) {
	brokers := cleanBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		BatchSize:              cfg.BatchSize,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: false,
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "brokers", strings.Join(brokers, ",")), "kafka writer configured")
	}
	dialer := &net.Dialer{}
	return &Client{writer: writer, brokers: brokers, dial: dialer.DialContext}, nil
}

// Publish writes msgs to topic synchronously. Keys pick the partition so events of one
// aggregate stay ordered.
func (c *Client) Publish(ctx context.Context, topic string, msgs ...kafka.Message) error {
	if c == nil || c.writer == nil {
		return errors.New("kafka client not initialized")
	}
	if topic == "" {
		return errors.New("topic is required")
	}
	for i := range msgs {
		msgs[i].Topic = topic
	}
	if err := c.writer.WriteMessages(ctx, msgs...); err != nil {
		return firstWriteError(err)
	}
	return nil
}

// Ping dials the first reachable broker.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.dial == nil {
		return errors.New("kafka client not initialized")
	}
	var errs []error
	for _, broker := range c.brokers {
		conn, err := c.dial(ctx, "tcp", broker)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", broker, err))
			continue
		}
		return conn.Close()
	}
	return fmt.Errorf("no kafka broker reachable: %w", errors.Join(errs...))
}

func (c *Client) Close() error {
	if c == nil || c.writer == nil {
		return nil
	}
	return c.writer.Close()
}

// IsPermanent reports broker errors that will not succeed on retry, such as an oversized
// message or a denied topic.
func IsPermanent(err error) bool {
	var kerr kafka.Error
	if errors.As(err, &kerr) {
		return !kerr.Temporary()
	}
	return false
}

func firstWriteError(err error) error {
	var writeErrs kafka.WriteErrors
	if errors.As(err, &writeErrs) {
		for _, e := range writeErrs {
			if e != nil {
				return e
			}
		}
	}
	return err
}

func cleanBrokers(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, broker := range raw {
		broker = strings.TrimSpace(broker)
		if broker != "" {
			out = append(out, broker)
		}
	}
	return out
}
