package event

import (
	"context"
	"log/slog"
)

// NoOpEventPublisher satisfies EventPublisher for deployments without a
// message broker. Events are logged at debug level and dropped.
type NoOpEventPublisher struct {
	logger *slog.Logger
}

var _ EventPublisher = (*NoOpEventPublisher)(nil)

func NewNoOpEventPublisher(logger *slog.Logger) *NoOpEventPublisher {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &NoOpEventPublisher{logger: logger.With("component", "NoOpEventPublisher")}
}

func (p *NoOpEventPublisher) PublishCustomerCreated(ctx context.Context, event CustomerCreatedEvent) error {
	p.logger.DebugContext(ctx, "Dropping customer created event", "customerId", event.Payload.CustomerID)
	return nil
}

func (p *NoOpEventPublisher) PublishCustomerUpdated(ctx context.Context, event CustomerUpdatedEvent) error {
	p.logger.DebugContext(ctx, "Dropping customer updated event", "customerId", event.Payload.CustomerID)
	return nil
}

func (p *NoOpEventPublisher) PublishCustomerDeleted(ctx context.Context, event CustomerDeletedEvent) error {
	p.logger.DebugContext(ctx, "Dropping customer deleted event", "customerId", event.CustomerID)
	return nil
}
