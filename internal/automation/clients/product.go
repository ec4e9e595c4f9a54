package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
)

// ProductClient implements ports.ProductPort against the catalog service.
type ProductClient struct{ httpBase }

func NewProductClient(baseURL string) *ProductClient {
	return &ProductClient{newHTTPBase(baseURL, defaultClient(5 * time.Second))}
}

type productDto struct {
	ID       string  `json:"id"`
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	UnitCost float64 `json:"unitCost"`
}

func (c *ProductClient) GetProduct(ctx context.Context, tenantID, productID string) (*domain.Product, error) {
	var dto productDto
	if err := c.getJSON(ctx, fmt.Sprintf("/products/%s/%s", tenantID, productID), &dto); err != nil {
		return nil, err
	}
	return &domain.Product{ID: dto.ID, TenantID: tenantID, SKU: dto.SKU, Name: dto.Name, UnitCost: dto.UnitCost}, nil
}
