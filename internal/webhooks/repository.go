package webhooks

import (
	"context"
	"sync"
)

// InMemoryRepository is the reference WebhookRepository, mirroring the
// in-process store pattern of automation/memstore until a durable backend
// is wired in.
type InMemoryRepository struct {
	mu         sync.Mutex
	webhooks   map[string]*Webhook
	deliveries map[string]*WebhookDelivery
}

// NewInMemoryRepository constructs an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		webhooks:   make(map[string]*Webhook),
		deliveries: make(map[string]*WebhookDelivery),
	}
}

func (r *InMemoryRepository) CreateWebhook(ctx context.Context, w *Webhook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.webhooks[w.ID] = &cp
	return nil
}

func (r *InMemoryRepository) UpdateWebhook(ctx context.Context, w *Webhook) error {
	return r.CreateWebhook(ctx, w)
}

func (r *InMemoryRepository) DeleteWebhook(ctx context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.webhooks[id]; ok && (tenantID == "" || w.TenantID == tenantID) {
		delete(r.webhooks, id)
	}
	return nil
}

func (r *InMemoryRepository) GetWebhook(ctx context.Context, tenantID, id string) (*Webhook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.webhooks[id]
	if !ok || (tenantID != "" && w.TenantID != tenantID) {
		return nil, ErrWebhookNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *InMemoryRepository) ListWebhooks(ctx context.Context, tenantID string) ([]*Webhook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*Webhook
	for _, w := range r.webhooks {
		if w.TenantID == tenantID {
			cp := *w
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (r *InMemoryRepository) GetWebhooksForEvent(ctx context.Context, tenantID string, eventType EventType) ([]*Webhook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*Webhook
	for _, w := range r.webhooks {
		if w.TenantID != tenantID || !w.IsActive {
			continue
		}
		for _, e := range w.Events {
			if e == eventType {
				cp := *w
				result = append(result, &cp)
				break
			}
		}
	}
	return result, nil
}

func (r *InMemoryRepository) CreateDelivery(ctx context.Context, d *WebhookDelivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.deliveries[d.ID] = &cp
	return nil
}

func (r *InMemoryRepository) UpdateDelivery(ctx context.Context, d *WebhookDelivery) error {
	return r.CreateDelivery(ctx, d)
}

func (r *InMemoryRepository) GetDelivery(ctx context.Context, id string) (*WebhookDelivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deliveries[id]
	if !ok {
		return nil, ErrWebhookNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *InMemoryRepository) ListDeliveries(ctx context.Context, webhookID string, limit int) ([]*WebhookDelivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*WebhookDelivery
	for _, d := range r.deliveries {
		if d.WebhookID == webhookID {
			cp := *d
			result = append(result, &cp)
			if limit > 0 && len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}
