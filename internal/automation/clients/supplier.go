package clients

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
	"github.com/andriipushkar/replenishment/internal/automation/ports"
)

// SupplierClient implements ports.SupplierPort against the supplier
// management service.
type SupplierClient struct{ httpBase }

func NewSupplierClient(baseURL string) *SupplierClient {
	return &SupplierClient{newHTTPBase(baseURL, defaultClient(5 * time.Second))}
}

type supplierDto struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Status             string     `json:"status"`
	IsDeleted          bool       `json:"isDeleted"`
	Rating             float64    `json:"rating"`
	QualityScore       float64    `json:"qualityScore"`
	OnTimeDeliveryRate float64    `json:"onTimeDeliveryRate"`
	LeadTimeDays       int        `json:"leadTimeDays"`
	TotalOrders        int        `json:"totalOrders"`
	TotalPurchaseAmount float64   `json:"totalPurchaseAmount"`
	CreditLimit        float64    `json:"creditLimit"`
	Discount           float64    `json:"discount"`
	PaymentTerms       string     `json:"paymentTerms"`
	Country            string     `json:"country"`
	City               string     `json:"city"`
	Province           string     `json:"province"`
	RetailUnitCost     float64    `json:"retailUnitCost"`
	UnitCost           float64    `json:"unitCost"`
	LastOrderDate      *time.Time `json:"lastOrderDate,omitempty"`
}

func (d supplierDto) toDomain(tenantID string) *domain.Supplier {
	return &domain.Supplier{
		ID: d.ID, TenantID: tenantID, Name: d.Name,
		Status: domain.SupplierStatus(d.Status), IsDeleted: d.IsDeleted,
		Rating: d.Rating, QualityScore: d.QualityScore, OnTimeDeliveryRate: d.OnTimeDeliveryRate,
		LeadTimeDays: d.LeadTimeDays, TotalOrders: d.TotalOrders, TotalPurchaseAmount: d.TotalPurchaseAmount,
		CreditLimit: d.CreditLimit, Discount: d.Discount, PaymentTerms: d.PaymentTerms,
		Country: d.Country, City: d.City, Province: d.Province,
		RetailUnitCost: d.RetailUnitCost, UnitCost: d.UnitCost, LastOrderDate: d.LastOrderDate,
	}
}

func (c *SupplierClient) Query(ctx context.Context, tenantID string, filter ports.SupplierFilter) ([]*domain.Supplier, error) {
	q := url.Values{}
	if filter.ActiveOnly {
		q.Set("activeOnly", "true")
	}
	if len(filter.IDs) > 0 {
		q.Set("ids", strings.Join(filter.IDs, ","))
	}
	if len(filter.ExcludeIDs) > 0 {
		q.Set("excludeIds", strings.Join(filter.ExcludeIDs, ","))
	}

	var dtos []supplierDto
	path := fmt.Sprintf("/suppliers/%s?%s", tenantID, q.Encode())
	if err := c.getJSON(ctx, path, &dtos); err != nil {
		return nil, err
	}
	out := make([]*domain.Supplier, len(dtos))
	for i, d := range dtos {
		out[i] = d.toDomain(tenantID)
	}
	return out, nil
}

func (c *SupplierClient) GetAverageUnitCost(ctx context.Context, tenantID, supplierID, productID string, months int) (float64, error) {
	var resp struct {
		AverageUnitCost float64 `json:"averageUnitCost"`
	}
	path := fmt.Sprintf("/suppliers/%s/%s/products/%s/average-cost?months=%s", tenantID, supplierID, productID, strconv.Itoa(months))
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return 0, err
	}
	return resp.AverageUnitCost, nil
}

type purchaseOrderSummaryDto struct {
	ID          string     `json:"id"`
	OrderedAt   time.Time  `json:"orderedAt"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	OnTime      bool       `json:"onTime"`
	TotalValue  float64    `json:"totalValue"`
}

func (c *SupplierClient) PurchaseOrderHistory(ctx context.Context, tenantID, supplierID string, last int) ([]ports.PurchaseOrderSummary, error) {
	var dtos []purchaseOrderSummaryDto
	path := fmt.Sprintf("/suppliers/%s/%s/purchase-orders?last=%s", tenantID, supplierID, strconv.Itoa(last))
	if err := c.getJSON(ctx, path, &dtos); err != nil {
		return nil, err
	}
	out := make([]ports.PurchaseOrderSummary, len(dtos))
	for i, d := range dtos {
		out[i] = ports.PurchaseOrderSummary{ID: d.ID, OrderedAt: d.OrderedAt, DeliveredAt: d.DeliveredAt, OnTime: d.OnTime, TotalValue: d.TotalValue}
	}
	return out, nil
}
