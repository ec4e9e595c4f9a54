package triggers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
)

// ReplayWindow is the idempotency window of spec.md §4.2: a replay of the
// same (webhookId, requestHash) inside this window is a no-op.
const ReplayWindow = 5 * time.Minute

// VerifyWebhookSignature validates an inbound webhook body against the
// configured HMAC-SHA256 secret, per spec.md §9 Open Question (d): the
// signature covers the raw request body, adapted from the teacher's
// outbound webhooks.VerifySignature/signPayload pair.
func VerifyWebhookSignature(body []byte, signature, secret string) bool {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// RequestHash is a stable hash of an inbound webhook body, used as the
// idempotency key alongside the webhook id.
func RequestHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// ReplayGuard deduplicates inbound webhook calls within ReplayWindow. It
// is safe for concurrent use; one mutex serializes every call, lookups
// included.
type ReplayGuard struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewReplayGuard constructs an empty guard.
func NewReplayGuard() *ReplayGuard {
	return &ReplayGuard{seen: make(map[string]time.Time)}
}

// Seen records (webhookID, requestHash) at now and reports whether it was
// already seen within ReplayWindow. Expired entries are swept
// opportunistically on each call.
func (g *ReplayGuard) Seen(webhookID, requestHash string, now time.Time) bool {
	key := webhookID + ":" + requestHash

	g.mu.Lock()
	defer g.mu.Unlock()

	for k, t := range g.seen {
		if now.Sub(t) > ReplayWindow {
			delete(g.seen, k)
		}
	}

	if last, ok := g.seen[key]; ok && now.Sub(last) <= ReplayWindow {
		return true
	}
	g.seen[key] = now
	return false
}

// Webhook evaluates the WEBHOOK trigger variant: validates the inbound
// signature (when configured) and applies the replay guard. body is the
// raw bytes the signature was computed over.
func Webhook(cfg *domain.WebhookTriggerConfig, guard *ReplayGuard, body []byte, signature string, now time.Time) domain.TriggerEvaluation {
	if cfg.Auth.Scheme == "hmac-sha256" && cfg.Secret != "" {
		if !VerifyWebhookSignature(body, signature, cfg.Secret) {
			return domain.TriggerEvaluation{ShouldTrigger: false, Reason: "invalid webhook signature", Blockers: []string{"signature verification failed"}}
		}
	}

	hash := RequestHash(body)
	if guard.Seen(cfg.WebhookID, hash, now) {
		return domain.TriggerEvaluation{ShouldTrigger: false, Reason: "duplicate webhook delivery within replay window"}
	}

	return domain.TriggerEvaluation{ShouldTrigger: true, Reason: "webhook received", Urgency: 5, Confidence: 1.0}
}
