package container

import (
	"errors"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/golinks/internal/audit"
	"github.com/serroba/golinks/internal/messaging"
	"go.uber.org/zap"
)

// AuditConsumerGroup is the Redis consumer group audit consumers join.
const AuditConsumerGroup = "golinks-audit"

// MessagingPackage provides the watermill logger and the in-process channel
// shared by publishers and consumers.
func MessagingPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (watermill.LoggerAdapter, error) {
		return messaging.NewZapLoggerAdapter(do.MustInvoke[*zap.Logger](i)), nil
	})

	do.Provide(i, func(i *do.Injector) (*gochannel.GoChannel, error) {
		return messaging.NewInProcessPubSub(do.MustInvoke[watermill.LoggerAdapter](i)), nil
	})
}

// PublisherGroupPackage provides the publisher audit events go to: Redis
// streams, or an in-process channel for single-node deployments.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.AuditSink == AuditChannel {
			return messaging.NewPublisherGroup(do.MustInvoke[*gochannel.GoChannel](i)), nil
		}

		client, err := do.Invoke[*redis.Client](i)
		if err != nil {
			return nil, err
		}

		pub, err := messaging.NewRedisStreamPublisher(client, do.MustInvoke[watermill.LoggerAdapter](i))
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(pub), nil
	})
}

// ConsumerGroupPackage provides the consumers that persist audit events to
// the configured store. It reads the same transport PublisherGroupPackage
// writes to.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (message.Subscriber, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.AuditSink == AuditChannel {
			return do.MustInvoke[*gochannel.GoChannel](i), nil
		}

		client, err := do.Invoke[*redis.Client](i)
		if err != nil {
			return nil, err
		}

		return messaging.NewRedisStreamSubscriber(client, AuditConsumerGroup, do.MustInvoke[watermill.LoggerAdapter](i))
	})

	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		backend, err := do.Invoke[*Backend](i)
		if err != nil {
			return nil, err
		}

		if backend.Audit == nil {
			return nil, errors.New("the configured storage keeps no audit trail")
		}

		subscriber, err := do.Invoke[message.Subscriber](i)
		if err != nil {
			return nil, err
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(audit.NewConsumer(subscriber, backend.Audit, logger, messaging.WithRetry(5, 200*time.Millisecond)))

		return group, nil
	})
}
