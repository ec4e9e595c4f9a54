package webhooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestService_CreateWebhookSetsDefaultRetryPolicy(t *testing.T) {
	repo := NewInMemoryRepository()
	service := NewService(repo, 1)
	defer service.Stop()
	ctx := context.Background()

	webhook := &Webhook{
		ID:       "wh_1",
		TenantID: "acme",
		URL:      "https://example.com/webhook",
		Secret:   "test_secret",
		Events:   []EventType{EventReorderExecuted},
		IsActive: true,
	}

	if err := service.CreateWebhook(ctx, webhook); err != nil {
		t.Fatalf("CreateWebhook returned error: %v", err)
	}

	stored, err := repo.GetWebhook(ctx, "acme", "wh_1")
	if err != nil {
		t.Fatalf("expected webhook to be stored, got %v", err)
	}
	if stored.URL != webhook.URL {
		t.Errorf("expected URL %s, got %s", webhook.URL, stored.URL)
	}
	if stored.RetryPolicy == nil {
		t.Error("expected default retry policy to be set")
	}
}

func TestService_TriggerDeliversToMatchingTenantWebhook(t *testing.T) {
	repo := NewInMemoryRepository()

	var receivedCount int32
	var receivedSignature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&receivedCount, 1)
		receivedSignature = r.Header.Get("X-Webhook-Signature-256")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	service := NewService(repo, 1)
	defer service.Stop()
	ctx := context.Background()

	webhook := &Webhook{
		ID:       "wh_2",
		TenantID: "acme",
		URL:      server.URL,
		Secret:   "shh",
		Events:   []EventType{EventPurchaseOrderCreated},
		IsActive: true,
	}
	if err := service.CreateWebhook(ctx, webhook); err != nil {
		t.Fatalf("CreateWebhook returned error: %v", err)
	}

	// A webhook for a different tenant must never receive this delivery.
	other := &Webhook{ID: "wh_3", TenantID: "globex", URL: server.URL, Events: []EventType{EventPurchaseOrderCreated}, IsActive: true}
	if err := service.CreateWebhook(ctx, other); err != nil {
		t.Fatalf("CreateWebhook returned error: %v", err)
	}

	if err := service.Trigger(ctx, "acme", EventPurchaseOrderCreated, map[string]any{"poId": "po-1"}); err != nil {
		t.Fatalf("Trigger returned error: %v", err)
	}

	time.Sleep(200 * time.Millisecond)

	if atomic.LoadInt32(&receivedCount) != 1 {
		t.Errorf("expected exactly 1 webhook delivery, got %d", receivedCount)
	}
	if receivedSignature == "" {
		t.Error("expected a signed delivery")
	}
}

func TestService_TriggerSkipsInactiveWebhooks(t *testing.T) {
	repo := NewInMemoryRepository()

	var receivedCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&receivedCount, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	service := NewService(repo, 1)
	defer service.Stop()
	ctx := context.Background()

	webhook := &Webhook{ID: "wh_4", TenantID: "acme", URL: server.URL, Events: []EventType{EventReorderFailed}, IsActive: false}
	if err := service.CreateWebhook(ctx, webhook); err != nil {
		t.Fatalf("CreateWebhook returned error: %v", err)
	}

	if err := service.Trigger(ctx, "acme", EventReorderFailed, map[string]any{"error": "supplier unreachable"}); err != nil {
		t.Fatalf("Trigger returned error: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if atomic.LoadInt32(&receivedCount) != 0 {
		t.Errorf("expected inactive webhook to receive nothing, got %d deliveries", receivedCount)
	}
}

func TestVerifySignature(t *testing.T) {
	secret := "test_secret_key"
	payload := []byte(`{"type":"automation.reorder.executed"}`)
	signature := signPayload(payload, secret)

	tests := []struct {
		name      string
		payload   []byte
		signature string
		secret    string
		valid     bool
	}{
		{"valid signature", payload, signature, secret, true},
		{"invalid signature", payload, "not-a-signature", secret, false},
		{"wrong secret", payload, signature, "wrong", false},
		{"modified payload", []byte(`{"type":"tampered"}`), signature, secret, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifySignature(tt.payload, tt.signature, tt.secret); got != tt.valid {
				t.Errorf("expected valid=%v, got %v", tt.valid, got)
			}
		})
	}
}

func TestBackoffDelayGrowsExponentiallyAndCapsAtMaxDelay(t *testing.T) {
	policy := &RetryPolicy{InitialDelay: time.Second, MaxDelay: 10 * time.Second, BackoffFactor: 2.0}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second}, // would be 16s uncapped
	}

	for _, tt := range tests {
		if got := backoffDelay(policy, tt.attempt); got != tt.want {
			t.Errorf("attempt %d: expected delay %v, got %v", tt.attempt, tt.want, got)
		}
	}
}

func TestRetryDeliveryRequeuesAFailedDelivery(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	webhook := &Webhook{ID: "wh_5", TenantID: "acme", URL: "https://example.invalid/hook", IsActive: true}
	if err := repo.CreateWebhook(ctx, webhook); err != nil {
		t.Fatalf("CreateWebhook returned error: %v", err)
	}
	delivery := &WebhookDelivery{ID: "del_1", WebhookID: "wh_5", Status: StatusFailed, Attempts: 5}
	if err := repo.CreateDelivery(ctx, delivery); err != nil {
		t.Fatalf("CreateDelivery returned error: %v", err)
	}

	service := NewService(repo, 1)
	defer service.Stop()

	if err := service.RetryDelivery(ctx, "del_1"); err != nil {
		t.Fatalf("RetryDelivery returned error: %v", err)
	}

	got, err := repo.GetDelivery(ctx, "del_1")
	if err != nil {
		t.Fatalf("GetDelivery returned error: %v", err)
	}
	if got.Attempts != 0 {
		t.Errorf("expected attempts reset to 0, got %d", got.Attempts)
	}
}

func TestInMemoryRepository_GetWebhookEnforcesTenantIsolation(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	if err := repo.CreateWebhook(ctx, &Webhook{ID: "wh_6", TenantID: "acme"}); err != nil {
		t.Fatalf("CreateWebhook returned error: %v", err)
	}

	if _, err := repo.GetWebhook(ctx, "globex", "wh_6"); err == nil {
		t.Error("expected a tenant mismatch to be treated as not found")
	}
	if _, err := repo.GetWebhook(ctx, "acme", "wh_6"); err != nil {
		t.Errorf("expected the owning tenant to find the webhook, got %v", err)
	}
}
