package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ops-desk/internal/config"
	"github.com/spec-kit/ops-desk/internal/events"
)

// NotificationService turns committed domain events into notifications.
type NotificationService struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{logger: logger, cfg: cfg}
}

// EventTypes lists the events the service reacts to.
func (n *NotificationService) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventTicketRaised,
		events.EventTicketAssigned,
		events.EventTicketCompleted,
		events.EventAttendanceCheckedIn,
		events.EventAttendanceCheckedOut,
	}
}

// Handle dispatches one event to the matching notifier.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.Int64("subject_id", event.SubjectID),
		zap.Int64("actor_id", event.Actor.UserID),
		zap.Any("payload", event.Payload),
	}
	switch event.Type {
	case events.EventTicketRaised:
		n.logger.Info("TicketRaised", fields...)
		n.sendEmailNotificationStub(ctx, event)
		n.sendWebhookNotificationStub(ctx, event)
	case events.EventTicketAssigned:
		n.logger.Info("TicketAssigned", fields...)
		n.sendEmailNotificationStub(ctx, event)
	case events.EventTicketCompleted:
		n.logger.Info("TicketCompleted", fields...)
		n.sendWebhookNotificationStub(ctx, event)
	case events.EventAttendanceCheckedIn, events.EventAttendanceCheckedOut:
		n.logger.Debug(string(event.Type), fields...)
	default:
		n.logger.Debug("ignoring event", zap.String("event_type", string(event.Type)))
	}
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.Int64("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.Int64("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}
