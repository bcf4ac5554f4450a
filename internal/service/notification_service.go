package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/events"
	"github.com/spec-kit/ticket-bridge/internal/observability"
)

// EventSink forwards events to out-of-process consumers.
type EventSink interface {
	PublishEvent(ctx context.Context, event events.Event) error
}

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	sink       EventSink
}

// NewNotificationService creates the service. sink may be nil.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics, sink EventSink) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
		sink:       sink,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		if eventType == events.EventConsistencyWarning {
			continue
		}
		n.dispatcher.Subscribe(eventType, n.handleTicketEvent)
	}
	n.dispatcher.Subscribe(events.EventConsistencyWarning, n.handleConsistencyWarning)
}

func (n *NotificationService) handleTicketEvent(ctx context.Context, event events.Event) error {
	n.metrics.RecordEvent(string(event.Type))
	n.logger.Info(string(event.Type),
		zap.Int64("ticket_id", event.TicketID),
		zap.String("actor_id", event.Actor.ID),
		zap.String("source", string(event.Actor.Source)),
		zap.Any("payload", event.Payload))
	return n.forward(ctx, event)
}

func (n *NotificationService) handleConsistencyWarning(ctx context.Context, event events.Event) error {
	n.metrics.RecordEvent(string(event.Type))
	if payload, ok := event.Payload.(events.ConsistencyWarningPayload); ok {
		n.metrics.RecordWarning(string(payload.Warning.Kind), payload.Warning.Operation)
	}
	return n.forward(ctx, event)
}

func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	if n.sink == nil {
		return nil
	}
	if err := n.sink.PublishEvent(ctx, event); err != nil {
		n.logger.Debug("event forward failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		return err
	}
	return nil
}
