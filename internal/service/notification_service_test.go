package service

import (
	"context"
	"testing"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/events"
)

func TestNotificationDeliveryFailureIsSwallowed(t *testing.T) {
	svc := NewNotificationService(nil, testLogger(), config.NotificationConfig{
		EmailFrom:  "not an address",
		WebhookURL: "://bad",
	})

	event := events.Event{
		Type:     events.EventTicketEscalated,
		TicketID: "t-1",
		Payload:  events.TicketEscalatedPayload{Level: 1, Recipient: "team-lead", Initiator: "system"},
	}
	if err := svc.handleTicketEscalated(context.Background(), event); err != nil {
		t.Fatalf("delivery failure must not propagate, got %v", err)
	}
}

func TestNotificationHandlersAcceptWellFormedConfig(t *testing.T) {
	svc := NewNotificationService(nil, testLogger(), config.NotificationConfig{
		EmailFrom:  "support@acme.test",
		WebhookURL: "https://hooks.acme.test/tickets",
	})

	event := events.Event{
		Type:     events.EventSLAWarning,
		TicketID: "t-2",
		Payload:  events.SLAWarningPayload{Kind: events.WarningResponse},
	}
	if err := svc.handleSLAWarning(context.Background(), event); err != nil {
		t.Fatalf("handleSLAWarning: %v", err)
	}
}
