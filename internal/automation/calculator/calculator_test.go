package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
)

func txns(qtyPerDay int, days int, end time.Time) []domain.Transaction {
	var out []domain.Transaction
	for d := 0; d < days; d++ {
		out = append(out, domain.Transaction{
			Date:     end.AddDate(0, 0, -d),
			Quantity: qtyPerDay,
		})
	}
	return out
}

func baseRule() *domain.ReorderRule {
	return &domain.ReorderRule{
		RuleType:        domain.RuleTypeFixedQuantity,
		ReorderPoint:    20,
		ReorderQuantity: 100,
		LeadTimeDays:    7,
		ServiceLevel:    0.95,
		LookbackDays:    30,
	}
}

func TestZScoreNearestMatch(t *testing.T) {
	assert.InDelta(t, 1.645, ZScore(0.95), 1e-9)
	assert.InDelta(t, 2.326, ZScore(0.99), 1e-9)
	// Nearest-match for an in-between value.
	assert.InDelta(t, 1.645, ZScore(0.94), 1e-9)
}

func TestCalculate_InvalidInputsNeverReorder(t *testing.T) {
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	rule := baseRule()
	item := &domain.InventoryItem{QuantityOnHand: 15}
	product := &domain.Product{UnitCost: 50000}

	res := Calculate(Input{Rule: nil, Item: item, Product: product, CurrentDate: now})
	require.False(t, res.Valid)
	assert.False(t, res.ShouldReorderNow)

	badRule := baseRule()
	badRule.ServiceLevel = 1.5
	res = Calculate(Input{Rule: badRule, Item: item, Product: product, CurrentDate: now})
	require.False(t, res.Valid)

	badRule2 := baseRule()
	badRule2.LeadTimeDays = -1
	res = Calculate(Input{Rule: badRule2, Item: item, Product: product, CurrentDate: now})
	require.False(t, res.Valid)
}

// S1 from spec.md §8 — stock below reorder point.
func TestCalculate_ScenarioS1(t *testing.T) {
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	rule := baseRule()
	item := &domain.InventoryItem{QuantityOnHand: 15}
	product := &domain.Product{UnitCost: 50000}

	res := Calculate(Input{
		Rule:         rule,
		Item:         item,
		Product:      product,
		CurrentDate:  now,
		Transactions: txns(4, 30, now),
	})

	require.True(t, res.Valid)
	assert.True(t, res.ShouldReorderNow)
	assert.Equal(t, 100, res.RecommendedOrderQuantity)
	assert.InDelta(t, 5000000, res.EstimatedOrderValue, 1)
	// The calculator's own urgencyScore (§4.3 tiers) differs from the
	// trigger dispatcher's stock-level tiers (§4.2): daysOfSupply=3.75 <=
	// leadTimeDays=7 raises urgency to 8 here, while the trigger-level
	// evaluation separately reports urgency 5 for the same stock ratio.
	assert.Equal(t, 8, res.UrgencyScore)
}

// S5 from spec.md §8 — EOQ calculation.
func TestCalculate_ScenarioS5_EOQ(t *testing.T) {
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	rule := baseRule()
	rule.RuleType = domain.RuleTypeEOQ
	rule.AnnualDemand = 3650
	rule.OrderingCost = 50000
	rule.UnitCost = 10000
	rule.HoldingCostRate = 25
	rule.MaxOrderQuantity = 0

	item := &domain.InventoryItem{QuantityOnHand: 15}
	product := &domain.Product{UnitCost: 10000}

	res := Calculate(Input{Rule: rule, Item: item, Product: product, CurrentDate: now, Transactions: txns(4, 30, now)})

	require.True(t, res.Valid)
	require.NotNil(t, res.EOQ)
	// H = 10000 × 25% = 2500; EOQ = sqrt(2 × 3650 × 50000 / 2500) = sqrt(146000) ≈ 382.1
	assert.InDelta(t, 382, res.EOQ.EOQ, 1)
	assert.Equal(t, 382, res.RecommendedOrderQuantity)
}

func TestCalculate_EOQIdempotent(t *testing.T) {
	rule := baseRule()
	rule.RuleType = domain.RuleTypeEOQ
	rule.AnnualDemand = 3650
	rule.OrderingCost = 50000
	rule.UnitCost = 10000
	rule.HoldingCostRate = 25

	e1 := computeEOQ(rule)
	e2 := computeEOQ(rule)
	assert.Equal(t, int(e1.EOQ), int(e2.EOQ))
}

func TestUrgencyScore_StockZeroIsMax(t *testing.T) {
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	rule := baseRule()
	item := &domain.InventoryItem{QuantityOnHand: 0}
	product := &domain.Product{UnitCost: 50000}

	res := Calculate(Input{Rule: rule, Item: item, Product: product, CurrentDate: now, Transactions: txns(4, 30, now)})
	require.True(t, res.Valid)
	assert.Equal(t, 10, res.UrgencyScore)
}

func TestDemandTrendClassification(t *testing.T) {
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	var txs []domain.Transaction
	for d := 0; d < 14; d++ {
		qty := 2
		if d < 7 {
			qty = 10 // "recent" half (closer to now) sees higher demand
		}
		txs = append(txs, domain.Transaction{Date: now.AddDate(0, 0, -d), Quantity: qty})
	}
	rule := baseRule()
	rule.LookbackDays = 14
	item := &domain.InventoryItem{QuantityOnHand: 50}
	product := &domain.Product{UnitCost: 1000}

	res := Calculate(Input{Rule: rule, Item: item, Product: product, CurrentDate: now, Transactions: txs})
	require.True(t, res.Valid)
	assert.Equal(t, TrendIncreasing, res.Demand.Trend)
}
