//go:build external
// +build external

package kafka

import (
	"context"
	"os"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() Settings {
	servers := os.Getenv("KAFKA_TEST_BOOTSTRAP_SERVERS")
	if servers == "" {
		servers = "kafka:9092"
	}
	return Settings{BootstrapServers: servers}
}

func TestFillAndReadInputTopic(t *testing.T) {
	ctx := context.Background()
	k, err := New(ctx, testSettings())
	require.NoError(t, err)
	defer k.Teardown()

	require.NoError(t, k.Fill(ctx, []Message{
		{Value: `{"k": 1}`},
		{Key: "custom", Value: `{"k": 2}`},
	}))

	messages, err := k.ReadInputTopic(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	values := []string{string(messages[0].Value), string(messages[1].Value)}
	assert.Contains(t, values, `{"k": 1}`)
	assert.Contains(t, values, `{"k": 2}`)
}

func TestReadOutputTopicChecksEnvelopeHeaders(t *testing.T) {
	ctx := context.Background()
	k, err := New(ctx, testSettings())
	require.NoError(t, err)
	defer k.Teardown()

	writer := &kafkago.Writer{
		Addr:  kafkago.TCP(testSettings().BootstrapServers),
		Topic: k.OutputTopic(),
	}
	defer writer.Close()

	require.NoError(t, writer.WriteMessages(ctx, kafkago.Message{
		Value: []byte("ok"),
		Headers: []kafkago.Header{
			{Key: TimeHeader, Value: []byte("1000")},
			{Key: DiffHeader, Value: []byte("1")},
		},
	}))
	messages, err := k.ReadOutputTopic(ctx)
	require.NoError(t, err)
	assert.Len(t, messages, 1)

	require.NoError(t, writer.WriteMessages(ctx, kafkago.Message{Value: []byte("bare")}))
	_, err = k.ReadOutputTopic(ctx)
	assert.Error(t, err)
}

func TestSetInputTopicPartitions(t *testing.T) {
	ctx := context.Background()
	k, err := New(ctx, testSettings())
	require.NoError(t, err)
	defer k.Teardown()

	require.NoError(t, k.SetInputTopicPartitions(4))
	require.NoError(t, k.Send(ctx, Message{Value: "after-recreate"}))
}
