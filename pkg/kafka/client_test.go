package kafka

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/retailstock-backend/pkg/config"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (r *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	r.msgs = append(r.msgs, msgs...)
	return r.err
}

func (r *recordingWriter) Close() error { return nil }

func TestPublishStampsTopic(t *testing.T) {
	writer := &recordingWriter{}
	client := &Client{writer: writer}

	err := client.Publish(context.Background(), "retailstock.orders",
		kafka.Message{Key: []byte("order-1"), Value: []byte(`{}`)},
		kafka.Message{Key: []byte("order-2"), Value: []byte(`{}`)},
	)
	require.NoError(t, err)
	require.Len(t, writer.msgs, 2)
	for _, msg := range writer.msgs {
		assert.Equal(t, "retailstock.orders", msg.Topic)
	}

	assert.Error(t, client.Publish(context.Background(), "", kafka.Message{}))
}

func TestPublishUnwrapsWriteErrors(t *testing.T) {
	writer := &recordingWriter{err: kafka.WriteErrors{nil, kafka.MessageSizeTooLarge}}
	client := &Client{writer: writer}

	err := client.Publish(context.Background(), "retailstock.sales", kafka.Message{Value: []byte(`{}`)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, kafka.MessageSizeTooLarge))
	assert.True(t, IsPermanent(err))
}

func TestIsPermanent(t *testing.T) {
	assert.False(t, IsPermanent(kafka.LeaderNotAvailable))
	assert.False(t, IsPermanent(errors.New("dial tcp: refused")))
	assert.True(t, IsPermanent(kafka.TopicAuthorizationFailed))
}

func TestPingTriesEveryBroker(t *testing.T) {
	var dialed []string
	client := &Client{
		brokers: []string{"kafka-1:9092", "kafka-2:9092"},
		dial: func(_ context.Context, _, address string) (net.Conn, error) {
			dialed = append(dialed, address)
			if address == "kafka-1:9092" {
				return nil, errors.New("refused")
			}
			server, conn := net.Pipe()
			_ = server.Close()
			return conn, nil
		},
	}
	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, dialed)
}

func TestNewRequiresBrokers(t *testing.T) {
	_, err := New(context.Background(), config.KafkaConfig{Brokers: []string{" "}}, nil)
	assert.Error(t, err)

	client, err := New(context.Background(), config.KafkaConfig{Brokers: []string{"localhost:9092"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:9092"}, client.brokers)
	require.NoError(t, client.Close())
}
