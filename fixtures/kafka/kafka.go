// Package kafka provides per-test Kafka topics for streaming tests: an input
// topic the test fills and an output topic the system under test writes its
// changelog to.
package kafka

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// Headers the system under test attaches to every output message.
const (
	TimeHeader = "pathway_time"
	DiffHeader = "pathway_diff"
)

type Settings struct {
	BootstrapServers string // "host:port"

	// PollTimeout bounds each read while draining a topic; the drain stops at
	// the first poll that returns nothing. Defaults to 1s.
	PollTimeout time.Duration
}

type Message struct {
	Key   string
	Value string
}

type Context struct {
	settings    Settings
	controller  *kafkago.Conn
	writer      *kafkago.Writer
	inputTopic  string
	outputTopic string
}

// New creates a context with fresh input and output topics.
func New(ctx context.Context, settings Settings) (*Context, error) {
	if settings.PollTimeout == 0 {
		settings.PollTimeout = time.Second
	}

	conn, err := kafkago.DialContext(ctx, "tcp", settings.BootstrapServers)
	if err != nil {
		return nil, fmt.Errorf("dial kafka: %w", err)
	}
	broker, err := conn.Controller()
	_ = conn.Close()
	if err != nil {
		return nil, fmt.Errorf("resolve controller: %w", err)
	}
	controller, err := kafkago.DialContext(ctx, "tcp", net.JoinHostPort(broker.Host, strconv.Itoa(broker.Port)))
	if err != nil {
		return nil, fmt.Errorf("dial controller: %w", err)
	}

	c := &Context{
		settings:    settings,
		controller:  controller,
		inputTopic:  "integration-tests-" + uuid.NewString(),
		outputTopic: "integration-tests-" + uuid.NewString(),
	}
	if err := c.createTopic(c.inputTopic, 1); err != nil {
		_ = controller.Close()
		return nil, err
	}
	if err := c.createTopic(c.outputTopic, 1); err != nil {
		_ = controller.Close()
		return nil, err
	}
	c.writer = &kafkago.Writer{
		Addr:                   kafkago.TCP(settings.BootstrapServers),
		Topic:                  c.inputTopic,
		Balancer:               &kafkago.LeastBytes{},
		AllowAutoTopicCreation: false,
	}
	return c, nil
}

func (c *Context) InputTopic() string  { return c.inputTopic }
func (c *Context) OutputTopic() string { return c.outputTopic }

func (c *Context) createTopic(name string, partitions int) error {
	return c.controller.CreateTopics(kafkago.TopicConfig{
		Topic:             name,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	})
}

// SetInputTopicPartitions recreates the input topic with the given partition
// count.
func (c *Context) SetInputTopicPartitions(partitions int) error {
	if err := c.controller.DeleteTopics(c.inputTopic); err != nil {
		return err
	}
	return c.createTopic(c.inputTopic, partitions)
}

// Send produces one message to the input topic. A random key is generated
// when none is given.
func (c *Context) Send(ctx context.Context, msg Message) error {
	key := msg.Key
	if key == "" {
		key = uuid.NewString()
	}
	return c.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(key),
		Value: []byte(msg.Value),
	})
}

// Fill produces a batch of messages to the input topic.
func (c *Context) Fill(ctx context.Context, msgs []Message) error {
	for _, msg := range msgs {
		if err := c.Send(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// ReadTopic drains a topic from the earliest offset, stopping at the first
// poll that times out.
func (c *Context) ReadTopic(ctx context.Context, topic string) ([]kafkago.Message, error) {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{c.settings.BootstrapServers},
		Topic:       topic,
		StartOffset: kafkago.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	defer reader.Close()

	var messages []kafkago.Message
	for {
		pollCtx, cancel := context.WithTimeout(ctx, c.settings.PollTimeout)
		m, err := reader.ReadMessage(pollCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return messages, ctx.Err()
			}
			return messages, nil
		}
		messages = append(messages, m)
	}
}

// ReadOutputTopic drains the output topic and checks that every message
// carries the changelog envelope headers.
func (c *Context) ReadOutputTopic(ctx context.Context) ([]kafkago.Message, error) {
	messages, err := c.ReadTopic(ctx, c.outputTopic)
	if err != nil {
		return nil, err
	}
	for _, m := range messages {
		if err := checkEnvelopeHeaders(m); err != nil {
			return nil, err
		}
	}
	return messages, nil
}

func checkEnvelopeHeaders(m kafkago.Message) error {
	found := map[string]bool{}
	for _, h := range m.Headers {
		found[h.Key] = true
	}
	for _, want := range []string{TimeHeader, DiffHeader} {
		if !found[want] {
			return fmt.Errorf("output message at offset %d is missing the %q header", m.Offset, want)
		}
	}
	return nil
}

func (c *Context) ReadInputTopic(ctx context.Context) ([]kafkago.Message, error) {
	return c.ReadTopic(ctx, c.inputTopic)
}

// Teardown deletes the per-test topics and releases the connections.
func (c *Context) Teardown() error {
	deleteErr := c.controller.DeleteTopics(c.inputTopic, c.outputTopic)
	writerErr := c.writer.Close()
	connErr := c.controller.Close()
	if deleteErr != nil {
		return deleteErr
	}
	if writerErr != nil {
		return writerErr
	}
	return connErr
}
