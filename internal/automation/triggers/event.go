package triggers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
	"github.com/andriipushkar/replenishment/internal/automation/ports"
)

// EventPayload is the shape an EventBusPort delivers to subscribers; it
// must already be a dot-traversable map for Filters/Conditions matching.
type EventPayload = map[string]any

// EventHandler receives a fired batch of payloads for one event trigger.
type EventHandler func(ctx context.Context, cfg *domain.EventTriggerConfig, eval domain.TriggerEvaluation, batch []EventPayload)

// EventDispatcher subscribes a rule's EventTriggerConfig to the event bus
// and applies filtering, a condition tree, debouncing, and batching
// before invoking the handler (spec.md §4.2 event-based trigger).
type EventDispatcher struct {
	bus ports.EventBusPort

	mu       sync.Mutex
	lastSeen map[string]time.Time // debounce key -> last accepted time
	buffers  map[string]*eventBuffer
}

type eventBuffer struct {
	mu      sync.Mutex
	items   []EventPayload
	timer   *time.Timer
	flushFn func()
}

// NewEventDispatcher wires the shared event bus port.
func NewEventDispatcher(bus ports.EventBusPort) *EventDispatcher {
	return &EventDispatcher{
		bus:      bus,
		lastSeen: make(map[string]time.Time),
		buffers:  make(map[string]*eventBuffer),
	}
}

// Subscribe registers handler for workflowID's EventTriggerConfig and
// returns an unsubscribe func. Each owning trigger task writes only to
// its own buffer key (spec.md §5: "keyed by workflowId; only the owning
// trigger task writes").
func (d *EventDispatcher) Subscribe(ctx context.Context, workflowID string, cfg *domain.EventTriggerConfig, handler EventHandler) (unsubscribe func()) {
	return d.bus.Subscribe(cfg.EventType, func(ctx context.Context, payload any) {
		data, ok := payload.(EventPayload)
		if !ok {
			return
		}
		if !matchesFilters(data, cfg.Filters) {
			return
		}
		if cfg.Conditions != nil && !EvaluateNode(*cfg.Conditions, data) {
			return
		}
		if d.debounced(workflowID, cfg, data) {
			return
		}
		d.enqueue(ctx, workflowID, cfg, data, handler)
	})
}

func matchesFilters(data EventPayload, filters map[string]any) bool {
	for k, want := range filters {
		got, ok := FieldValue(data, k)
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func (d *EventDispatcher) debounced(workflowID string, cfg *domain.EventTriggerConfig, data EventPayload) bool {
	if cfg.DebounceMs <= 0 {
		return false
	}
	key := workflowID + ":" + fmt.Sprint(data)
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.lastSeen[key]; ok && now.Sub(last) < time.Duration(cfg.DebounceMs)*time.Millisecond {
		return true
	}
	d.lastSeen[key] = now
	return false
}

func (d *EventDispatcher) enqueue(ctx context.Context, workflowID string, cfg *domain.EventTriggerConfig, data EventPayload, handler EventHandler) {
	if cfg.BatchSize <= 1 && cfg.BatchTimeoutMs <= 0 {
		handler(ctx, cfg, domain.TriggerEvaluation{ShouldTrigger: true, Reason: "event received", Urgency: 5, Confidence: 1.0}, []EventPayload{data})
		return
	}

	d.mu.Lock()
	buf, ok := d.buffers[workflowID]
	if !ok {
		buf = &eventBuffer{}
		d.buffers[workflowID] = buf
	}
	d.mu.Unlock()

	buf.mu.Lock()
	buf.items = append(buf.items, data)
	flush := func() {
		buf.mu.Lock()
		items := buf.items
		buf.items = nil
		if buf.timer != nil {
			buf.timer.Stop()
			buf.timer = nil
		}
		buf.mu.Unlock()
		if len(items) == 0 {
			return
		}
		handler(ctx, cfg, domain.TriggerEvaluation{
			ShouldTrigger: true,
			Reason:        fmt.Sprintf("event batch of %d reached threshold", len(items)),
			Urgency:       5,
			Confidence:    1.0,
		}, items)
	}

	if cfg.BatchSize > 0 && len(buf.items) >= cfg.BatchSize {
		buf.mu.Unlock()
		flush()
		return
	}
	if buf.timer == nil && cfg.BatchTimeoutMs > 0 {
		buf.timer = time.AfterFunc(time.Duration(cfg.BatchTimeoutMs)*time.Millisecond, flush)
	}
	buf.mu.Unlock()
}
