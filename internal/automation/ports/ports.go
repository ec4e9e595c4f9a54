// Package ports declares the narrow interfaces the automation core consumes
// from external collaborators (spec.md §6). None of these are implemented
// here — persistence, forecasting, notification delivery and the HTTP/REST
// surface are the outer platform's job; the core only depends on these
// shapes, the same way the teacher's warehouse.PurchasingService depends on
// PurchasingRepository/WarehouseRepository rather than a concrete database.
package ports

import (
	"context"
	"time"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
)

// InventoryPort reads live stock and outbound transaction history.
type InventoryPort interface {
	GetItem(ctx context.Context, tenantID, productID, locationID string) (*domain.InventoryItem, error)
	QueryTransactions(ctx context.Context, tenantID string, item *domain.InventoryItem, from, to time.Time) ([]domain.Transaction, error)
}

// ProductPort reads shared, read-only product references.
type ProductPort interface {
	GetProduct(ctx context.Context, tenantID, productID string) (*domain.Product, error)
}

// SupplierPort reads shared, read-only supplier references and history.
type SupplierPort interface {
	Query(ctx context.Context, tenantID string, filter SupplierFilter) ([]*domain.Supplier, error)
	GetAverageUnitCost(ctx context.Context, tenantID, supplierID, productID string, months int) (float64, error)
	PurchaseOrderHistory(ctx context.Context, tenantID, supplierID string, last int) ([]PurchaseOrderSummary, error)
}

// SupplierFilter narrows SupplierPort.Query.
type SupplierFilter struct {
	IDs        []string // allow-list; empty means no restriction
	ExcludeIDs []string
	ActiveOnly bool
}

// PurchaseOrderSummary is a minimal view of past POs for confidence scoring.
type PurchaseOrderSummary struct {
	ID          string
	OrderedAt   time.Time
	DeliveredAt *time.Time
	OnTime      bool
	TotalValue  float64
}

// PurchaseOrderDto is the wire-level shape the PO subsystem consumes,
// fixed by spec.md §6.
type PurchaseOrderDto struct {
	SupplierID             string
	Type                   string // "standard"
	Priority               string // "urgent" | "normal"
	Description            string
	Notes                  string
	InternalNotes          string
	Items                  []PurchaseOrderItemDto
	ExpectedDeliveryDate   time.Time
	RequestedDeliveryDate  time.Time
	PaymentTerms           string
}

// PurchaseOrderItemDto is one line item of a PurchaseOrderDto.
type PurchaseOrderItemDto struct {
	ProductID       string
	SKU             string
	ProductName     string
	OrderedQuantity int
	UnitPrice       float64
	Notes           string
}

// PurchaseOrderPort creates and approves purchase orders on behalf of the
// PO subsystem, which owns them (spec.md §3 Ownership: "the core holds weak
// references by id").
type PurchaseOrderPort interface {
	Create(ctx context.Context, tenantID string, dto PurchaseOrderDto, actor string) (poID string, err error)
	Approve(ctx context.Context, tenantID, poID, comments, actor string) error
	FindRecent(ctx context.Context, tenantID, supplierID, productID string, window time.Duration) ([]PurchaseOrderSummary, error)
}

// DemandForecast is the ForecastPort response shape.
type DemandForecast struct {
	Success           bool
	TimeSeries        []DemandForecastPoint
	OverallConfidence float64
}

// DemandForecastPoint is one horizon-day prediction.
type DemandForecastPoint struct {
	PredictedDemand float64
}

// ForecastRequest parameterizes ForecastPort.GenerateDemandForecast.
type ForecastRequest struct {
	ProductID   string
	HorizonDays int
	IncludeCI   bool
	Granularity string // "daily"
}

// ForecastPort queries the ML forecasting service (external collaborator;
// interface only).
type ForecastPort interface {
	GenerateDemandForecast(ctx context.Context, tenantID string, req ForecastRequest) (*DemandForecast, error)
}

// AlertSeverity mirrors the teacher's alerts package severities.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// NotificationPort delivers alerts and emails through the outer platform.
type NotificationPort interface {
	CreateAlert(ctx context.Context, tenantID, alertType string, severity AlertSeverity, title, message string, metadata map[string]any, productID, locationID string) error
	SendEmail(ctx context.Context, to, subject, text string) error
}

// EventBusPort publishes and subscribes to the shared event bus.
type EventBusPort interface {
	Publish(ctx context.Context, name string, payload any) error
	Subscribe(name string, handler func(ctx context.Context, payload any)) (unsubscribe func())
}

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// RuleRepository persists and loads ReorderRule aggregates. Row-level
// update serializes writers per (tenant, ruleId); readers are concurrent
// (spec.md §5 Shared resources).
type RuleRepository interface {
	ListEligible(ctx context.Context, tenantID string, now time.Time) ([]*domain.ReorderRule, error)
	GetByID(ctx context.Context, tenantID, ruleID string) (*domain.ReorderRule, error)
	GetByProductLocation(ctx context.Context, tenantID, productID, locationID string) (*domain.ReorderRule, error)
	Save(ctx context.Context, rule *domain.ReorderRule) error
}

// ExecutionRepository persists the append-only ReorderExecution audit
// trail (spec.md §3: "Invariant: immutable after write").
type ExecutionRepository interface {
	Create(ctx context.Context, exec *domain.ReorderExecution) error
	Update(ctx context.Context, exec *domain.ReorderExecution) error
	GetByExecutionID(ctx context.Context, tenantID, executionID string) (*domain.ReorderExecution, error)
	FindLatestUnfinished(ctx context.Context, tenantID, ruleID string) (*domain.ReorderExecution, error)
	DeleteOlderThan(ctx context.Context, tenantID string, cutoff time.Time) (int, error)
}
