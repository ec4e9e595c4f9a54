package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
)

// InventoryClient implements ports.InventoryPort against the warehouse
// service's stock/transactions endpoints.
type InventoryClient struct{ httpBase }

// NewInventoryClient wires an InventoryClient against baseURL (e.g.
// http://warehouse-service:8080).
func NewInventoryClient(baseURL string) *InventoryClient {
	return &InventoryClient{newHTTPBase(baseURL, defaultClient(5 * time.Second))}
}

type inventoryItemDto struct {
	QuantityOnHand   int       `json:"quantityOnHand"`
	QuantityReserved int       `json:"quantityReserved"`
	LastMovementAt   time.Time `json:"lastMovementAt"`
}

func (c *InventoryClient) GetItem(ctx context.Context, tenantID, productID, locationID string) (*domain.InventoryItem, error) {
	var dto inventoryItemDto
	path := fmt.Sprintf("/inventory/%s/%s/%s", tenantID, productID, locationID)
	if err := c.getJSON(ctx, path, &dto); err != nil {
		return nil, err
	}
	return &domain.InventoryItem{
		TenantID: tenantID, ProductID: productID, LocationID: locationID,
		QuantityOnHand: dto.QuantityOnHand, QuantityReserved: dto.QuantityReserved,
		LastMovementAt: dto.LastMovementAt,
	}, nil
}

type transactionDto struct {
	Date     time.Time `json:"date"`
	Quantity int       `json:"quantity"`
}

func (c *InventoryClient) QueryTransactions(ctx context.Context, tenantID string, item *domain.InventoryItem, from, to time.Time) ([]domain.Transaction, error) {
	var dtos []transactionDto
	path := fmt.Sprintf("/inventory/%s/%s/%s/transactions?from=%s&to=%s",
		tenantID, item.ProductID, item.LocationID, from.Format(time.RFC3339), to.Format(time.RFC3339))
	if err := c.getJSON(ctx, path, &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.Transaction, len(dtos))
	for i, d := range dtos {
		out[i] = domain.Transaction{Date: d.Date, Quantity: d.Quantity}
	}
	return out, nil
}
