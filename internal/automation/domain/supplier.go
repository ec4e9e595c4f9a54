package domain

import "time"

// SupplierStatus mirrors the teacher's warehouse.Supplier.IsActive flag,
// generalized to an explicit status per spec.md §3.
type SupplierStatus string

const (
	SupplierStatusActive   SupplierStatus = "ACTIVE"
	SupplierStatusInactive SupplierStatus = "INACTIVE"
)

// Supplier is a shared, read-only reference the core never mutates
// (spec.md §3 Ownership). Fields cover the scoring inputs of spec.md §4.4.
type Supplier struct {
	ID       string
	TenantID string
	Name     string

	Status SupplierStatus
	IsDeleted bool

	Rating             float64 // 0..5
	QualityScore       float64 // 0..100
	OnTimeDeliveryRate float64 // 0..100
	LeadTimeDays       int

	TotalOrders         int
	TotalPurchaseAmount float64
	CreditLimit         float64 // 0 == unlimited
	Discount            float64 // fraction, e.g. 0.05 == 5%
	PaymentTerms        string

	ContractStart *time.Time
	ContractEnd   *time.Time

	Country  string
	City     string
	Province string

	LastOrderDate *time.Time

	// RetailUnitCost is used as the cost-scoring benchmark (benchmark =
	// 0.9 x retail) and UnitCost is the supplier's quoted price.
	RetailUnitCost float64
	UnitCost       float64
}

// CanAcceptOrder implements spec.md §3 invariant: totalPurchaseAmount ≤
// creditLimit gates new orders unless creditLimit == 0 (unlimited).
func (s *Supplier) CanAcceptOrder(orderValue float64) bool {
	if s.CreditLimit == 0 {
		return true
	}
	return s.TotalPurchaseAmount+orderValue <= s.CreditLimit
}

// IsIndonesian reports whether the supplier is local per the archipelago
// shipping/location-scoring model (blank country is treated as local).
func (s *Supplier) IsIndonesian() bool {
	return s.Country == "" || s.Country == "Indonesia" || s.Country == "ID"
}
