package alerts

import (
	"context"
	"testing"

	"github.com/andriipushkar/replenishment/internal/automation/ports"
)

func TestNotificationAdapter_CreateAlertPublishesThroughAlertPublisher(t *testing.T) {
	publisher := NewLogPublisher()
	adapter := NewNotificationAdapter(publisher)

	err := adapter.CreateAlert(context.Background(), "acme", "reorder_executed", ports.SeverityCritical,
		"Purchase order created", "Rule r1 generated PO po-1", map[string]any{"poId": "po-1"}, "p1", "l1")
	if err != nil {
		t.Fatalf("CreateAlert returned error: %v", err)
	}

	alerts := publisher.GetAlerts()
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert published, got %d", len(alerts))
	}
	if alerts[0].Type != ReplenishmentAlertType {
		t.Errorf("expected alert type %q, got %q", ReplenishmentAlertType, alerts[0].Type)
	}
	if alerts[0].ProductID != "p1" {
		t.Errorf("expected productID p1, got %s", alerts[0].ProductID)
	}
}

func TestNotificationAdapter_CreateAlertWithNilPublisherIsNoop(t *testing.T) {
	adapter := NewNotificationAdapter(nil)
	err := adapter.CreateAlert(context.Background(), "acme", "reorder_executed", ports.SeverityInfo, "t", "m", nil, "p1", "l1")
	if err != nil {
		t.Fatalf("expected no error with nil publisher, got %v", err)
	}
}

func TestNotificationAdapter_SendEmailDoesNotError(t *testing.T) {
	adapter := NewNotificationAdapter(NewLogPublisher())
	if err := adapter.SendEmail(context.Background(), "ops@acme.test", "subject", "body"); err != nil {
		t.Errorf("SendEmail returned error: %v", err)
	}
}
