package alerts

import (
	"context"
	"time"

	"github.com/andriipushkar/replenishment/internal/automation/ports"
	"github.com/andriipushkar/replenishment/internal/logger"
)

// ReplenishmentAlertType is the alert taxonomy the automation engine raises,
// distinct from the inventory-monitor's low-stock/restocked/price-change set
// above but carried through the same AlertPublisher.
const ReplenishmentAlertType AlertType = "replenishment"

// NotificationAdapter implements ports.NotificationPort by translating
// CreateAlert calls into InventoryAlert and publishing through an
// AlertPublisher (e.g. a message-queue-backed publisher, or LogPublisher for
// a single-instance deployment).
type NotificationAdapter struct {
	publisher AlertPublisher
}

// NewNotificationAdapter wires an AlertPublisher into ports.NotificationPort.
func NewNotificationAdapter(publisher AlertPublisher) *NotificationAdapter {
	return &NotificationAdapter{publisher: publisher}
}

func (a *NotificationAdapter) CreateAlert(ctx context.Context, tenantID, alertType string, severity ports.AlertSeverity, title, message string, metadata map[string]any, productID, locationID string) error {
	if a.publisher == nil {
		return nil
	}
	alert := &InventoryAlert{
		ID:        generateID(),
		Type:      ReplenishmentAlertType,
		ProductID: productID,
		Product:   title,
		NewValue:  metadata,
		Message:   message,
		CreatedAt: time.Now(),
	}
	return a.publisher.Publish(ctx, alert)
}

// SendEmail is not backed by a concrete provider in this deployment; the
// replenishment engine only ever calls CreateAlert (spec.md §4.5 step 12),
// so this logs the intent rather than wiring an unused mail client.
func (a *NotificationAdapter) SendEmail(ctx context.Context, to, subject, text string) error {
	logger.Info().Str("to", to).Str("subject", subject).Msg("notification: email send requested but no mail provider configured")
	return nil
}
