// Package webhooks delivers automation domain events to tenant-configured
// HTTP endpoints: outbound notification of reorder executions and purchase
// order creation, as distinct from the inbound WEBHOOK trigger variant in
// automation/triggers that listens for external signals.
package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/andriipushkar/replenishment/internal/circuitbreaker"
	"github.com/andriipushkar/replenishment/internal/logger"
)

var (
	ErrWebhookNotFound = errors.New("webhook not found")
	ErrQueueFull       = errors.New("delivery queue full")
)

// DeliveryTimeout bounds a single outbound delivery attempt, per
// SPEC_FULL.md's domain stack section (forecast: 20s, webhook: 10s).
const DeliveryTimeout = 10 * time.Second

// EventType is the automation event a webhook subscribes to.
type EventType string

const (
	EventPurchaseOrderCreated EventType = "automation.purchase-order.created"
	EventReorderExecuted      EventType = "automation.reorder.executed"
	EventReorderFailed        EventType = "automation.reorder.failed"
	EventRuleQuarantined      EventType = "automation.rule.quarantined"
)

// DeliveryStatus tracks one delivery attempt through its retry lifecycle.
type DeliveryStatus string

const (
	StatusPending   DeliveryStatus = "pending"
	StatusDelivered DeliveryStatus = "delivered"
	StatusFailed    DeliveryStatus = "failed"
	StatusRetrying  DeliveryStatus = "retrying"
)

// Webhook is a tenant's subscription to one or more automation events.
type Webhook struct {
	ID          string
	TenantID    string
	URL         string
	Secret      string
	Events      []EventType
	IsActive    bool
	Description string
	Headers     map[string]string
	RetryPolicy *RetryPolicy
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RetryPolicy controls the exponential backoff schedule for failed
// deliveries.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryPolicy mirrors the teacher's outbound delivery defaults.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  1 * time.Second,
		MaxDelay:      1 * time.Hour,
		BackoffFactor: 2.0,
	}
}

// WebhookEvent is the payload handed to a webhook's HTTP endpoint.
type WebhookEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	TenantID  string         `json:"tenantId"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"createdAt"`
}

// WebhookDelivery records one delivery attempt of a WebhookEvent to a
// Webhook's URL.
type WebhookDelivery struct {
	ID           string
	WebhookID    string
	EventID      string
	URL          string
	Status       DeliveryStatus
	StatusCode   int
	RequestBody  string
	ResponseBody string
	Error        string
	Attempts     int
	NextRetryAt  *time.Time
	DeliveredAt  *time.Time
	Duration     time.Duration
	CreatedAt    time.Time
}

// WebhookRepository persists webhook subscriptions and their delivery
// history. The outer platform's job per the automation ports' doc comment;
// InMemoryRepository is the reference implementation used until a durable
// store is wired in.
type WebhookRepository interface {
	CreateWebhook(ctx context.Context, webhook *Webhook) error
	UpdateWebhook(ctx context.Context, webhook *Webhook) error
	DeleteWebhook(ctx context.Context, tenantID, id string) error
	GetWebhook(ctx context.Context, tenantID, id string) (*Webhook, error)
	ListWebhooks(ctx context.Context, tenantID string) ([]*Webhook, error)
	GetWebhooksForEvent(ctx context.Context, tenantID string, eventType EventType) ([]*Webhook, error)

	CreateDelivery(ctx context.Context, delivery *WebhookDelivery) error
	UpdateDelivery(ctx context.Context, delivery *WebhookDelivery) error
	GetDelivery(ctx context.Context, id string) (*WebhookDelivery, error)
	ListDeliveries(ctx context.Context, webhookID string, limit int) ([]*WebhookDelivery, error)
}

// Service queues and delivers webhook events with bounded concurrency and
// exponential backoff retry, wrapping each outbound call in a circuit
// breaker scoped per webhook so one unreachable endpoint can't
// exhaust delivery workers for every tenant.
type Service struct {
	repo WebhookRepository

	clientsMu sync.Mutex
	clients   map[string]*circuitbreaker.HTTPClient

	queue   chan *WebhookDelivery
	workers int
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewService starts a webhook delivery service with the given number of
// worker goroutines draining the delivery queue.
func NewService(repo WebhookRepository, workers int) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	svc := &Service{
		repo:    repo,
		clients: make(map[string]*circuitbreaker.HTTPClient),
		queue:   make(chan *WebhookDelivery, 1000),
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < workers; i++ {
		svc.wg.Add(1)
		go svc.worker()
	}

	return svc
}

// Stop drains in-flight deliveries and shuts the worker pool down.
func (s *Service) Stop() {
	s.cancel()
	close(s.queue)
	s.wg.Wait()
}

func (s *Service) CreateWebhook(ctx context.Context, webhook *Webhook) error {
	webhook.CreatedAt = time.Now()
	webhook.UpdatedAt = time.Now()
	if webhook.RetryPolicy == nil {
		webhook.RetryPolicy = DefaultRetryPolicy()
	}
	return s.repo.CreateWebhook(ctx, webhook)
}

func (s *Service) UpdateWebhook(ctx context.Context, webhook *Webhook) error {
	webhook.UpdatedAt = time.Now()
	return s.repo.UpdateWebhook(ctx, webhook)
}

func (s *Service) DeleteWebhook(ctx context.Context, tenantID, id string) error {
	return s.repo.DeleteWebhook(ctx, tenantID, id)
}

func (s *Service) GetWebhook(ctx context.Context, tenantID, id string) (*Webhook, error) {
	return s.repo.GetWebhook(ctx, tenantID, id)
}

func (s *Service) ListWebhooks(ctx context.Context, tenantID string) ([]*Webhook, error) {
	return s.repo.ListWebhooks(ctx, tenantID)
}

// Trigger enqueues a delivery of data to every active webhook the tenant
// has registered for eventType. A full queue does not block the caller:
// the delivery is stored as retrying with NextRetryAt one minute out.
// Service does not re-queue such a delivery on its own; it is sent again
// only through RetryDelivery.
func (s *Service) Trigger(ctx context.Context, tenantID string, eventType EventType, data map[string]any) error {
	event := &WebhookEvent{
		ID:        fmt.Sprintf("evt_%d", time.Now().UnixNano()),
		Type:      eventType,
		TenantID:  tenantID,
		Data:      data,
		CreatedAt: time.Now(),
	}

	webhooks, err := s.repo.GetWebhooksForEvent(ctx, tenantID, eventType)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	for _, webhook := range webhooks {
		if !webhook.IsActive {
			continue
		}

		delivery := &WebhookDelivery{
			ID:          fmt.Sprintf("del_%d", time.Now().UnixNano()),
			WebhookID:   webhook.ID,
			EventID:     event.ID,
			URL:         webhook.URL,
			Status:      StatusPending,
			RequestBody: string(payload),
			CreatedAt:   time.Now(),
		}

		if err := s.repo.CreateDelivery(ctx, delivery); err != nil {
			logger.Error().Err(err).Str("webhookId", webhook.ID).Msg("failed to record webhook delivery")
			continue
		}

		select {
		case s.queue <- delivery:
		default:
			delivery.Status = StatusRetrying
			nextRetry := time.Now().Add(time.Minute)
			delivery.NextRetryAt = &nextRetry
			_ = s.repo.UpdateDelivery(ctx, delivery)
		}
	}

	return nil
}

// TriggerAsync fires Trigger on a background goroutine so event publishers
// (the purchase executor's dispatch path) never block on webhook fan-out.
func (s *Service) TriggerAsync(tenantID string, eventType EventType, data map[string]any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.Trigger(ctx, tenantID, eventType, data); err != nil {
			logger.Error().Err(err).Str("tenant", tenantID).Str("event", string(eventType)).Msg("webhook trigger failed")
		}
	}()
}

func (s *Service) GetDeliveries(ctx context.Context, webhookID string, limit int) ([]*WebhookDelivery, error) {
	return s.repo.ListDeliveries(ctx, webhookID, limit)
}

// RetryDelivery resets a delivery's attempt counter and re-queues it.
func (s *Service) RetryDelivery(ctx context.Context, deliveryID string) error {
	delivery, err := s.repo.GetDelivery(ctx, deliveryID)
	if err != nil {
		return err
	}

	delivery.Status = StatusPending
	delivery.Attempts = 0
	delivery.NextRetryAt = nil

	if err := s.repo.UpdateDelivery(ctx, delivery); err != nil {
		return err
	}

	select {
	case s.queue <- delivery:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *Service) worker() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case delivery, ok := <-s.queue:
			if !ok {
				return
			}
			s.deliver(delivery)
		}
	}
}

func (s *Service) deliver(delivery *WebhookDelivery) {
	ctx := context.Background()

	webhook, err := s.repo.GetWebhook(ctx, "", delivery.WebhookID)
	if err != nil {
		delivery.Status = StatusFailed
		delivery.Error = "webhook not found"
		_ = s.repo.UpdateDelivery(ctx, delivery)
		return
	}

	req, err := http.NewRequest(http.MethodPost, delivery.URL, bytes.NewBufferString(delivery.RequestBody))
	if err != nil {
		delivery.Status = StatusFailed
		delivery.Error = err.Error()
		_ = s.repo.UpdateDelivery(ctx, delivery)
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "replenishment-engine/1.0")
	req.Header.Set("X-Webhook-ID", webhook.ID)
	req.Header.Set("X-Delivery-ID", delivery.ID)
	if webhook.Secret != "" {
		signature := signPayload([]byte(delivery.RequestBody), webhook.Secret)
		req.Header.Set("X-Webhook-Signature-256", "sha256="+signature)
	}
	for k, v := range webhook.Headers {
		req.Header.Set(k, v)
	}

	client := s.clientFor(webhook.ID)

	start := time.Now()
	resp, err := client.Do(req)
	delivery.Duration = time.Since(start)
	delivery.Attempts++

	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			s.handleFailure(ctx, webhook, delivery, "circuit open: endpoint repeatedly unreachable")
			return
		}
		s.handleFailure(ctx, webhook, delivery, err.Error())
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	delivery.StatusCode = resp.StatusCode
	delivery.ResponseBody = string(body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		now := time.Now()
		delivery.Status = StatusDelivered
		delivery.DeliveredAt = &now
		_ = s.repo.UpdateDelivery(ctx, delivery)
		return
	}
	s.handleFailure(ctx, webhook, delivery, fmt.Sprintf("HTTP %d", resp.StatusCode))
}

// clientFor returns the circuit-breaker-protected HTTP client for a
// webhook, creating one on first use so a flapping endpoint trips its own
// breaker without affecting deliveries to other webhooks.
func (s *Service) clientFor(webhookID string) *circuitbreaker.HTTPClient {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if c, ok := s.clients[webhookID]; ok {
		return c
	}
	c := circuitbreaker.NewHTTPClient(circuitbreaker.DefaultConfig("webhook:"+webhookID), DeliveryTimeout)
	s.clients[webhookID] = c
	return c
}

func (s *Service) handleFailure(ctx context.Context, webhook *Webhook, delivery *WebhookDelivery, errorMsg string) {
	delivery.Error = errorMsg

	policy := webhook.RetryPolicy
	if policy == nil {
		policy = DefaultRetryPolicy()
	}

	if delivery.Attempts >= policy.MaxRetries {
		delivery.Status = StatusFailed
		_ = s.repo.UpdateDelivery(ctx, delivery)
		return
	}

	delivery.Status = StatusRetrying
	delay := backoffDelay(policy, delivery.Attempts)
	nextRetry := time.Now().Add(delay)
	delivery.NextRetryAt = &nextRetry
	_ = s.repo.UpdateDelivery(ctx, delivery)

	go func() {
		time.Sleep(delay)
		select {
		case s.queue <- delivery:
		default:
		}
	}()
}

// backoffDelay computes the exponential backoff for a given attempt count.
func backoffDelay(policy *RetryPolicy, attempts int) time.Duration {
	delay := policy.InitialDelay
	for i := 1; i < attempts; i++ {
		delay = time.Duration(float64(delay) * policy.BackoffFactor)
		if delay > policy.MaxDelay {
			return policy.MaxDelay
		}
	}
	return delay
}

func signPayload(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySignature checks the hex digest of a received X-Webhook-Signature-256
// header (the value without its "sha256=" prefix) against the shared
// secret, for tenants validating deliveries on their end. Uses
// the same HMAC-SHA256 construction as triggers.VerifyWebhookSignature for
// inbound webhooks.
func VerifySignature(payload []byte, signature, secret string) bool {
	expected := signPayload(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
