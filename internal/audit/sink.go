package audit

import (
	"context"
	"errors"

	"github.com/serroba/golinks/internal/links"
	"go.uber.org/zap"
)

// LogSink writes audit events to the application log. It is the default
// sink when no durable audit storage is configured.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("audit")}
}

func (s *LogSink) Log(_ context.Context, event *links.AuditEvent) error {
	s.logger.Info("audit event",
		zap.String("id", event.ID),
		zap.String("kind", string(event.Kind)),
		zap.String("name", event.Name),
		zap.String("detail", event.Detail),
		zap.String("actor", event.Actor),
		zap.Time("at", event.At),
	)

	return nil
}

// Tee fans an event out to several sinks. Every sink is called; their errors
// are joined.
type Tee []links.AuditLog

func (t Tee) Log(ctx context.Context, event *links.AuditEvent) error {
	var errs []error

	for _, sink := range t {
		if err := sink.Log(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

var (
	_ links.AuditLog = (*LogSink)(nil)
	_ links.AuditLog = Tee(nil)
)
