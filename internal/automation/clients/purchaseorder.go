package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/andriipushkar/replenishment/internal/automation/ports"
)

// PurchaseOrderClient implements ports.PurchaseOrderPort against the
// purchasing service, generalized from the teacher's
// warehouse.PurchasingService lifecycle (draft -> pending -> approved ->
// ordered -> ... -> completed).
type PurchaseOrderClient struct{ httpBase }

func NewPurchaseOrderClient(baseURL string) *PurchaseOrderClient {
	return &PurchaseOrderClient{newHTTPBase(baseURL, defaultClient(10 * time.Second))}
}

type createPurchaseOrderRequest struct {
	Actor string                     `json:"actor"`
	DTO   ports.PurchaseOrderDto     `json:"purchaseOrder"`
}

func (c *PurchaseOrderClient) Create(ctx context.Context, tenantID string, dto ports.PurchaseOrderDto, actor string) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	path := fmt.Sprintf("/purchase-orders/%s", tenantID)
	if err := c.postJSON(ctx, path, createPurchaseOrderRequest{Actor: actor, DTO: dto}, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *PurchaseOrderClient) Approve(ctx context.Context, tenantID, poID, comments, actor string) error {
	path := fmt.Sprintf("/purchase-orders/%s/%s/approve", tenantID, poID)
	req := struct {
		Comments string `json:"comments"`
		Actor    string `json:"actor"`
	}{Comments: comments, Actor: actor}
	return c.postJSON(ctx, path, req, nil)
}

func (c *PurchaseOrderClient) FindRecent(ctx context.Context, tenantID, supplierID, productID string, window time.Duration) ([]ports.PurchaseOrderSummary, error) {
	var dtos []ports.PurchaseOrderSummary
	path := fmt.Sprintf("/purchase-orders/%s/recent?supplierId=%s&productId=%s&windowSeconds=%d", tenantID, supplierID, productID, int(window.Seconds()))
	if err := c.getJSON(ctx, path, &dtos); err != nil {
		return nil, err
	}
	return dtos, nil
}
