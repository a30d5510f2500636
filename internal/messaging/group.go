package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable is anything the group can start and stop.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// ConsumerGroup runs consumers that share one subscriber. The subscriber is
// closed with the group.
type ConsumerGroup struct {
	subscriber message.Subscriber
	members    []Runnable
	logger     *zap.Logger
}

func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{subscriber: subscriber, logger: logger}
}

func (g *ConsumerGroup) Add(members ...Runnable) {
	g.members = append(g.members, members...)
}

// Start is all or nothing: when a member fails, the members started before it
// are stopped in reverse order.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	for i, m := range g.members {
		if err := m.Start(ctx); err != nil {
			_ = stopAll(g.members[:i], true)

			return fmt.Errorf("start consumer %d of %d: %w", i+1, len(g.members), err)
		}
	}

	g.logger.Info("consumer group started", zap.Int("consumers", len(g.members)))

	return nil
}

// Run starts the group, waits for ctx to end and shuts the group down.
func (g *ConsumerGroup) Run(ctx context.Context) error {
	if err := g.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	return g.Shutdown()
}

// Shutdown stops every member and then the subscriber, collecting all errors.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("consumer group stopping")

	err := stopAll(g.members, false)
	if cerr := g.subscriber.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("close subscriber: %w", cerr))
	}

	return err
}

func stopAll(members []Runnable, reverse bool) error {
	var errs []error

	for i := range members {
		m := members[i]
		if reverse {
			m = members[len(members)-1-i]
		}

		if err := m.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
