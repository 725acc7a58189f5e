package service

import (
	"context"
	"net/mail"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/events"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// NotificationService emits notifications for domain events. Delivery is
// best-effort: handlers log failures and never return an error that would
// reach the publishing service.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketEscalated, n.handleTicketEscalated)
	n.dispatcher.Subscribe(events.EventSLAWarning, n.handleSLAWarning)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.deliverEmail(ctx, event)
	n.deliverWebhook(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.deliverWebhook(ctx, event)
	return nil
}

// handleTicketEscalated notifies the new rung recipient. The escalation
// itself is already committed; a delivery failure here is logged only.
func (n *NotificationService) handleTicketEscalated(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.TicketEscalatedPayload)
	n.logger.Info("TicketEscalated",
		zap.String("ticket_id", event.TicketID),
		zap.Int("level", payload.Level),
		zap.String("recipient", payload.Recipient),
		zap.String("initiator", payload.Initiator))
	n.deliverEmail(ctx, event)
	n.deliverWebhook(ctx, event)
	return nil
}

func (n *NotificationService) handleSLAWarning(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.SLAWarningPayload)
	n.logger.Info("SLAWarning",
		zap.String("ticket_id", event.TicketID),
		zap.String("kind", string(payload.Kind)),
		zap.Time("deadline", payload.Deadline))
	n.deliverEmail(ctx, event)
	return nil
}

func (n *NotificationService) deliverEmail(ctx context.Context, event events.Event) {
	if err := n.sendEmailStub(ctx, event); err != nil {
		n.logger.Warn("notification dispatch failed",
			zap.String("ticket_id", event.TicketID),
			zap.Error(apperrors.NewNotificationDispatchFailed("email", err)))
	}
}

func (n *NotificationService) deliverWebhook(ctx context.Context, event events.Event) {
	if err := n.sendWebhookStub(ctx, event); err != nil {
		n.logger.Warn("notification dispatch failed",
			zap.String("ticket_id", event.TicketID),
			zap.Error(apperrors.NewNotificationDispatchFailed("webhook", err)))
	}
}

func (n *NotificationService) sendEmailStub(ctx context.Context, event events.Event) error {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return nil
	}
	if _, err := mail.ParseAddress(n.cfg.EmailFrom); err != nil {
		return err
	}
	n.logger.Debug("sendEmailStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
	return nil
}

func (n *NotificationService) sendWebhookStub(ctx context.Context, event events.Event) error {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return nil
	}
	if _, err := url.ParseRequestURI(n.cfg.WebhookURL); err != nil {
		return err
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
	return nil
}
