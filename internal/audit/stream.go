package audit

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/golinks/internal/links"
	"github.com/serroba/golinks/internal/messaging"
	"go.uber.org/zap"
)

// Topic is the stream audit events are published to.
const Topic = "links.audit"

// StreamPublisher hands audit events to the message stream so a separate
// consumer can persist them off the request path.
type StreamPublisher struct {
	publish messaging.Publish[links.AuditEvent]
}

func NewStreamPublisher(publisher message.Publisher) *StreamPublisher {
	return &StreamPublisher{publish: messaging.NewPublishFunc[links.AuditEvent](publisher, Topic)}
}

func (p *StreamPublisher) Log(ctx context.Context, event *links.AuditEvent) error {
	return p.publish(ctx, event)
}

// PersistHandler stores every consumed event in sink.
func PersistHandler(sink links.AuditLog, logger *zap.Logger) messaging.Handler[links.AuditEvent] {
	return func(ctx context.Context, event *links.AuditEvent) error {
		if err := sink.Log(ctx, event); err != nil {
			return err
		}

		logger.Debug("audit event persisted",
			zap.String("id", event.ID),
			zap.String("kind", string(event.Kind)),
		)

		return nil
	}
}

// NewConsumer builds the stream consumer that persists audit events.
func NewConsumer(
	subscriber message.Subscriber,
	sink links.AuditLog,
	logger *zap.Logger,
	opts ...messaging.ConsumerOption,
) *messaging.Consumer[links.AuditEvent] {
	return messaging.NewConsumer(subscriber, Topic, PersistHandler(sink, logger), logger, opts...)
}

var _ links.AuditLog = (*StreamPublisher)(nil)
