package eventbus

import (
	"context"
	"testing"
)

type recordingPublisher struct {
	events []Event
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, event Event) error {
	p.events = append(p.events, event)
	return nil
}

func TestAdapter_PublishReachesWrappedPublisher(t *testing.T) {
	pub := &recordingPublisher{}
	adapter := NewAdapter(pub)

	if err := adapter.Publish(context.Background(), "automation.reorder.executed", map[string]any{"ruleId": "r1"}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event on the wrapped publisher, got %d", len(pub.events))
	}
	if pub.events[0].Type != "automation.reorder.executed" {
		t.Errorf("unexpected event type %q", pub.events[0].Type)
	}
}

func TestAdapter_PublishFansOutToSubscribers(t *testing.T) {
	adapter := NewAdapter(&NoOpPublisher{})

	var received any
	unsubscribe := adapter.Subscribe("automation.purchase-order.created", func(ctx context.Context, payload any) {
		received = payload
	})

	if err := adapter.Publish(context.Background(), "automation.purchase-order.created", "poId-123"); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if received != "poId-123" {
		t.Errorf("subscriber did not receive the published payload, got %v", received)
	}

	unsubscribe()
	received = nil
	if err := adapter.Publish(context.Background(), "automation.purchase-order.created", "poId-456"); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if received != nil {
		t.Errorf("unsubscribed handler should not fire, got %v", received)
	}
}

func TestAdapter_PublishIgnoresSubscribersOfOtherEvents(t *testing.T) {
	adapter := NewAdapter(&NoOpPublisher{})

	fired := false
	adapter.Subscribe("automation.reorder.executed", func(ctx context.Context, payload any) {
		fired = true
	})

	if err := adapter.Publish(context.Background(), "automation.purchase-order.created", nil); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if fired {
		t.Error("subscriber for a different event name should not fire")
	}
}
