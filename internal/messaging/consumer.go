package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/avast/retry-go"
	"go.uber.org/zap"
)

// Handler processes one decoded event.
type Handler[T any] func(ctx context.Context, event *T) error

// ConsumerOption tunes a Consumer.
type ConsumerOption func(*consumerConfig)

type consumerConfig struct {
	attempts uint
	delay    time.Duration
}

// WithRetry makes the consumer call the handler up to attempts times, backing
// off from delay, before nacking the message.
func WithRetry(attempts uint, delay time.Duration) ConsumerOption {
	return func(c *consumerConfig) {
		c.attempts = attempts
		c.delay = delay
	}
}

// Consumer subscribes to a topic and processes messages with a typed handler.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	handler    Handler[T]
	logger     *zap.Logger
	config     consumerConfig
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
	opts ...ConsumerOption,
) *Consumer[T] {
	cfg := consumerConfig{attempts: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handler:    handler,
		logger:     logger.With(zap.String("topic", topic)),
		config:     cfg,
		done:       make(chan struct{}),
	}
}

func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Start subscribes and hands messages to the handler in the background until
// Shutdown. A failed subscribe leaves the consumer stopped.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		close(c.done)

		return fmt.Errorf("subscribe to %s: %w", c.topic, err)
	}

	go c.loop(ctx, msgs)

	return nil
}

func (c *Consumer[T]) loop(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			logger := c.logger.With(zap.String("message_id", msg.UUID))

			if err := c.process(ctx, msg, logger); err != nil {
				logger.Error("event dropped", zap.Error(err))
				msg.Nack()

				continue
			}

			msg.Ack()
			logger.Debug("event processed")
		}
	}
}

// process decodes msg and runs the handler under the retry policy.
func (c *Consumer[T]) process(ctx context.Context, msg *message.Message, logger *zap.Logger) error {
	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	return retry.Do(
		func() error { return c.handler(ctx, &event) },
		retry.Context(ctx),
		retry.Attempts(c.config.attempts),
		retry.Delay(c.config.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("handler failed, retrying", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
}

// Shutdown cancels the loop and waits for the message in flight.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel == nil {
		return nil
	}

	c.cancel()
	<-c.done

	return nil
}
