package service

import (
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/config"
	"github.com/spec-kit/ticket-triage/internal/events"
)

// NotificationService reacts to pipeline events. Delivery is a logging stub
// until the email and webhook senders land; the subscriptions and payloads
// are final.
type NotificationService struct {
	cfg    config.NotificationConfig
	logger *zap.Logger
}

// NewNotificationService constructs the service and registers its
// subscriptions on the dispatcher.
func NewNotificationService(cfg config.NotificationConfig, dispatcher *events.Dispatcher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{cfg: cfg, logger: logger}
	dispatcher.Subscribe(events.TicketRouted, svc.onRouted)
	dispatcher.Subscribe(events.TicketRoutingFailed, svc.onRoutingFailed)
	return svc
}

func (s *NotificationService) onRouted(event events.Event) {
	payload, ok := event.Payload.(events.TicketRoutedPayload)
	if !ok {
		return
	}
	s.logger.Info("notify: ticket routed",
		zap.String("ticket_id", event.TicketID),
		zap.String("system", payload.System),
		zap.String("external_ticket_id", payload.ExternalTicketID),
		zap.String("webhook_url", s.cfg.WebhookURL))
}

func (s *NotificationService) onRoutingFailed(event events.Event) {
	payload, ok := event.Payload.(events.TicketRoutingFailedPayload)
	if !ok {
		return
	}
	s.logger.Warn("notify: ticket routing failed",
		zap.String("ticket_id", event.TicketID),
		zap.String("system", payload.System),
		zap.String("reason", payload.Reason))
}
