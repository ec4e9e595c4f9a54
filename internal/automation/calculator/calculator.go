// Package calculator implements the Reorder Calculator (spec.md §4.3):
// demand analysis, EOQ, safety stock, urgency, and risk scoring. The
// variance/coefficient-of-variation statistics are grounded in the
// teacher pack's ABC/XYZ demand-variability classifier
// (internal/analytics/abc_xyz.go's calculateVariability), generalized here
// from a reporting dimension into the calculator's data-quality signal.
package calculator

import (
	"math"
	"time"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
	"github.com/andriipushkar/replenishment/internal/automation/ports"
)

// DemandTrend classifies the recent-vs-earlier half comparison.
type DemandTrend string

const (
	TrendIncreasing DemandTrend = "increasing"
	TrendDecreasing DemandTrend = "decreasing"
	TrendStable     DemandTrend = "stable"
)

// DemandAnalysis is the output of aggregating outbound transactions into a
// daily demand vector, per spec.md §4.3.
type DemandAnalysis struct {
	DailyDemand     []float64
	Average         float64
	Variance        float64
	StdDev          float64
	Trend           DemandTrend
	ChangePercent   float64
	SeasonalFactor  float64
	Confidence      float64
	DataQuality     float64
	DataPoints      int
}

// SafetyStockResult is the output of the safety-stock / Z-score model.
type SafetyStockResult struct {
	ZScore           float64
	LeadTimeDemand   float64
	LeadTimeVariance float64
	SafetyStock      int
	StockoutRisk     float64
}

// EOQResult is populated only when rule.RuleType == EOQ.
type EOQResult struct {
	EOQ               float64
	TotalCost         float64
	OrderingCost      float64
	HoldingCost       float64
	OptimalFrequency  float64 // orders per year
	CostSavings       float64 // vs rule.ReorderQuantity
}

// Input bundles the Reorder Calculator's inputs (spec.md §4.3).
type Input struct {
	Rule        *domain.ReorderRule
	Item        *domain.InventoryItem
	Product     *domain.Product
	CurrentDate time.Time
	Transactions []domain.Transaction // outbound (ISSUE) transactions over the lookback window
	Forecast    *ports.DemandForecast // optional; nil if unavailable

	// ForceExecution overrides ShouldReorderNow's gating in the executor;
	// the calculator itself does not special-case it.
}

// Result is the validated output of Calculate.
type Result struct {
	Valid  bool
	Reason string // populated when Valid == false

	Demand      DemandAnalysis
	SafetyStock SafetyStockResult
	EOQ         *EOQResult

	RecommendedReorderPoint  int
	RecommendedOrderQuantity int
	UrgencyScore             int
	ShouldReorderNow         bool
	DaysOfSupply             float64
	DaysUntilStockout        float64

	EstimatedOrderValue float64
	BudgetImpactPercent float64
	CostPerDayOfStock   float64

	StockoutRisk  float64
	OverstockRisk float64
	Suggestions   []string

	Confidence  float64
	DataQuality float64
	Insights    []string
}

var zScoreTable = []struct {
	level float64
	z     float64
}{
	{0.5, 0.000}, {0.6, 0.253}, {0.7, 0.524}, {0.8, 0.842}, {0.85, 1.036},
	{0.9, 1.282}, {0.95, 1.645}, {0.97, 1.881}, {0.98, 2.054}, {0.99, 2.326},
	{0.995, 2.576}, {0.999, 3.090},
}

// ZScore selects the nearest service-level entry in the lookup table
// (spec.md §4.3).
func ZScore(serviceLevel float64) float64 {
	best := zScoreTable[0]
	bestDiff := math.Abs(serviceLevel - best.level)
	for _, e := range zScoreTable[1:] {
		d := math.Abs(serviceLevel - e.level)
		if d < bestDiff {
			best, bestDiff = e, d
		}
	}
	return best.z
}

// Calculate runs the full pipeline of spec.md §4.3 and returns a validated
// result. Invalid inputs never recommend a reorder.
func Calculate(in Input) Result {
	if reason, ok := validate(in); !ok {
		return Result{Valid: false, Reason: reason}
	}

	lookback := in.Rule.LookbackDays
	if lookback <= 0 {
		lookback = 30
	}

	demand := analyzeDemand(in, lookback)

	safety := computeSafetyStock(in, demand)

	var eoq *EOQResult
	if in.Rule.RuleType == domain.RuleTypeEOQ {
		e := computeEOQ(in.Rule)
		eoq = &e
	}

	reorderPoint := int(math.Round((safety.LeadTimeDemand + float64(safety.SafetyStock)) * demand.SeasonalFactor))

	currentStock := in.Item.QuantityAvailable()

	orderQty := computeOrderQuantity(in, demand, eoq, currentStock)

	urgency, daysOfSupply, daysUntilStockout := urgencyScore(in, demand, currentStock)

	shouldReorder := currentStock <= reorderPoint

	estValue := float64(orderQty) * in.Product.UnitCost
	remainingBudget := in.Rule.RemainingBudget()
	budgetImpact := 0.0
	if remainingBudget > 0 {
		budgetImpact = estValue / remainingBudget * 100
	} else if estValue > 0 {
		budgetImpact = 100
	}
	costPerDay := in.Product.UnitCost * (in.Rule.HoldingCostRate / 100) / 365

	stockoutRisk := 0.0
	if safety.LeadTimeDemand > 0 {
		stockoutRisk = math.Max(0, (safety.LeadTimeDemand-float64(currentStock))/safety.LeadTimeDemand)
	}
	futureDays := daysOfSupply
	horizon := float64(in.Rule.LeadTimeDays + 30)
	overstockRisk := 0.0
	if horizon > 0 {
		overstockRisk = math.Min(1, math.Max(0, (futureDays-horizon)/horizon))
	}

	var suggestions []string
	if stockoutRisk > 0.3 {
		suggestions = append(suggestions, "stockout risk elevated; consider expediting or raising safety stock")
	}
	if overstockRisk > 0.3 {
		suggestions = append(suggestions, "overstock risk elevated; consider reducing order quantity")
	}
	if demand.Confidence < 0.7 {
		suggestions = append(suggestions, "low forecast confidence; validate demand history before ordering")
	}

	return Result{
		Valid:                    true,
		Demand:                   demand,
		SafetyStock:              safety,
		EOQ:                      eoq,
		RecommendedReorderPoint:  reorderPoint,
		RecommendedOrderQuantity: orderQty,
		UrgencyScore:             urgency,
		ShouldReorderNow:         shouldReorder,
		DaysOfSupply:             daysOfSupply,
		DaysUntilStockout:        daysUntilStockout,
		EstimatedOrderValue:      estValue,
		BudgetImpactPercent:      budgetImpact,
		CostPerDayOfStock:        costPerDay,
		StockoutRisk:             stockoutRisk,
		OverstockRisk:            overstockRisk,
		Suggestions:              suggestions,
		Confidence:               demand.Confidence,
		DataQuality:              demand.DataQuality,
	}
}

func validate(in Input) (string, bool) {
	if in.Rule == nil {
		return "missing rule", false
	}
	if in.Item == nil {
		return "missing inventory item", false
	}
	if in.Product == nil {
		return "missing product", false
	}
	if in.Rule.LeadTimeDays < 0 {
		return "negative lead time", false
	}
	if in.Rule.ServiceLevel < 0 || in.Rule.ServiceLevel > 1 {
		return "service level out of [0,1]", false
	}
	return "", true
}

// analyzeDemand aggregates Transactions into a daily vector of length
// lookback, then computes mean/variance/stddev/trend/confidence/quality
// per spec.md §4.3.
func analyzeDemand(in Input, lookback int) DemandAnalysis {
	daily := make([]float64, lookback)
	end := in.CurrentDate
	start := end.AddDate(0, 0, -(lookback - 1))

	for _, tx := range in.Transactions {
		if tx.Date.Before(start) || tx.Date.After(end) {
			continue
		}
		dayIdx := int(tx.Date.Sub(start).Hours() / 24)
		if dayIdx >= 0 && dayIdx < lookback {
			daily[dayIdx] += float64(tx.Quantity)
		}
	}

	dataPoints := 0
	sum := 0.0
	for _, d := range daily {
		if d > 0 {
			dataPoints++
		}
		sum += d
	}
	avg := sum / float64(lookback)

	variance := 0.0
	for _, d := range daily {
		diff := d - avg
		variance += diff * diff
	}
	variance /= float64(lookback)
	stdDev := math.Sqrt(variance)

	trend, changePct := classifyTrend(daily)

	seasonalFactor := in.Rule.SeasonalFactor(in.CurrentDate.Month())
	if in.Rule.RuleType != domain.RuleTypeSeasonal {
		// seasonal adjustment still applies generally per spec.md §4.3
		// reorderPoint formula, independent of rule type.
	}

	confidence := math.Min(float64(dataPoints)/30, 1) * (1 - math.Min(variance/0.5, 1)*0.3)
	if confidence < 0.1 {
		confidence = 0.1
	}

	quality := 1.0
	if dataPoints < 14 {
		quality *= 0.7
	}
	if dataPoints < 7 {
		quality *= 0.4
	}
	cv := stdDev / math.Max(avg, 0.1)
	if cv > 1 {
		quality *= 0.8
	}
	if cv > 2 {
		quality *= 0.6
	}

	return DemandAnalysis{
		DailyDemand:    daily,
		Average:        avg,
		Variance:       variance,
		StdDev:         stdDev,
		Trend:          trend,
		ChangePercent:  changePct,
		SeasonalFactor: seasonalFactor,
		Confidence:     confidence,
		DataQuality:    quality,
		DataPoints:     dataPoints,
	}
}

func classifyTrend(daily []float64) (DemandTrend, float64) {
	if len(daily) < 7 {
		return TrendStable, 0
	}
	half := len(daily) / 2
	earlier := daily[:half]
	recent := daily[len(daily)-half:]

	earlierAvg := avgOf(earlier)
	recentAvg := avgOf(recent)

	if earlierAvg == 0 {
		return TrendStable, 0
	}
	changePct := (recentAvg - earlierAvg) / earlierAvg * 100
	switch {
	case changePct > 10:
		return TrendIncreasing, changePct
	case changePct < -10:
		return TrendDecreasing, changePct
	default:
		return TrendStable, changePct
	}
}

func avgOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func computeSafetyStock(in Input, demand DemandAnalysis) SafetyStockResult {
	z := ZScore(in.Rule.ServiceLevel)
	leadTimeDemand := demand.Average * float64(in.Rule.LeadTimeDays)
	leadTimeVariance := float64(in.Rule.LeadTimeDays) * demand.Variance
	safetyStock := int(math.Round(z * math.Sqrt(math.Max(0, leadTimeVariance))))
	if safetyStock < 0 {
		safetyStock = 0
	}
	return SafetyStockResult{
		ZScore:           z,
		LeadTimeDemand:   leadTimeDemand,
		LeadTimeVariance: leadTimeVariance,
		SafetyStock:      safetyStock,
		StockoutRisk:     1 - in.Rule.ServiceLevel,
	}
}

func computeEOQ(rule *domain.ReorderRule) EOQResult {
	h := rule.UnitCost * rule.HoldingCostRate / 100
	if h <= 0 {
		return EOQResult{}
	}
	eoq := math.Sqrt(2 * rule.AnnualDemand * rule.OrderingCost / h)
	orderingCost := 0.0
	holdingCost := 0.0
	optimalFrequency := 0.0
	if eoq > 0 {
		orderingCost = rule.AnnualDemand / eoq * rule.OrderingCost
		holdingCost = eoq / 2 * h
		optimalFrequency = rule.AnnualDemand / eoq
	}
	totalCost := orderingCost + holdingCost

	// cost-savings vs rule.ReorderQuantity
	savings := 0.0
	if rule.ReorderQuantity > 0 {
		altOrdering := rule.AnnualDemand / float64(rule.ReorderQuantity) * rule.OrderingCost
		altHolding := float64(rule.ReorderQuantity) / 2 * h
		savings = (altOrdering + altHolding) - totalCost
	}

	return EOQResult{
		EOQ:              eoq,
		TotalCost:        totalCost,
		OrderingCost:     orderingCost,
		HoldingCost:      holdingCost,
		OptimalFrequency: optimalFrequency,
		CostSavings:      savings,
	}
}

func computeOrderQuantity(in Input, demand DemandAnalysis, eoq *EOQResult, currentStock int) int {
	rule := in.Rule
	var qty float64

	switch rule.RuleType {
	case domain.RuleTypeEOQ:
		if eoq != nil {
			qty = eoq.EOQ
		}
	case domain.RuleTypeDemandBased:
		base := demand.Average
		if in.Forecast != nil && in.Forecast.Success && len(in.Forecast.TimeSeries) > 0 {
			sum := 0.0
			for _, p := range in.Forecast.TimeSeries {
				sum += p.PredictedDemand
			}
			base = sum / float64(len(in.Forecast.TimeSeries))
		}
		horizon := rule.ForecastHorizonDays
		if horizon <= 0 {
			horizon = rule.LeadTimeDays
		}
		mult := rule.DemandMultiplier
		if mult <= 0 {
			mult = 1
		}
		qty = base * float64(horizon) * mult
	case domain.RuleTypeMinMax:
		diff := rule.MaxStockLevel - currentStock
		if diff < 0 {
			diff = 0
		}
		qty = float64(diff)
	case domain.RuleTypeSeasonal:
		qty = float64(rule.ReorderQuantity) * demand.SeasonalFactor
	default: // FIXED_QUANTITY
		qty = float64(rule.ReorderQuantity)
	}

	quantity := int(math.Round(qty))

	if rule.MinOrderQuantity > 0 && quantity < rule.MinOrderQuantity {
		quantity = rule.MinOrderQuantity
	}
	if rule.MaxOrderQuantity > 0 && quantity > rule.MaxOrderQuantity {
		quantity = rule.MaxOrderQuantity
	}
	if rule.MaxOrderValue > 0 && in.Product.UnitCost > 0 {
		capQty := int(math.Floor(rule.MaxOrderValue / in.Product.UnitCost))
		if quantity > capQty {
			quantity = capQty
		}
	}
	if quantity < 0 {
		quantity = 0
	}
	return quantity
}

// urgencyScore implements spec.md §4.3's priority-by-condition table,
// first match wins. Open Question (a) — whether annualDemand/365 or the
// transaction-derived averageDailyDemand is authoritative for the stock
// ratios below — is resolved here: averageDailyDemand from the
// §4.3 pipeline (demand.Average) is authoritative, since it is the richer,
// directly-observed signal and the same figure feeds safety stock and
// reorder-point; AnnualDemand/365 remains an EOQ-only input.
func urgencyScore(in Input, demand DemandAnalysis, currentStock int) (urgency int, daysOfSupply, daysUntilStockout float64) {
	rule := in.Rule
	avgDaily := demand.Average
	if avgDaily > 0 {
		daysOfSupply = float64(currentStock) / avgDaily
	} else if currentStock > 0 {
		daysOfSupply = math.Inf(1)
	}
	daysUntilStockout = daysOfSupply

	reorderPoint := rule.ReorderPoint
	switch {
	case currentStock <= 0:
		return 10, daysOfSupply, daysUntilStockout
	case reorderPoint > 0 && currentStock <= int(float64(reorderPoint)*0.25):
		urgency = 9
	case reorderPoint > 0 && currentStock <= int(float64(reorderPoint)*0.50):
		urgency = 7
	case reorderPoint > 0 && currentStock <= int(float64(reorderPoint)*0.70):
		urgency = 5
	default:
		urgency = 1
	}

	if rule.LeadTimeDays > 0 && daysOfSupply <= float64(rule.LeadTimeDays) {
		if urgency < 8 {
			urgency = 8
		}
	} else if rule.LeadTimeDays > 0 && daysOfSupply <= float64(2*rule.LeadTimeDays) {
		if urgency < 3 {
			urgency = 3
		}
	}

	if urgency > 10 {
		urgency = 10
	}
	return urgency, daysOfSupply, daysUntilStockout
}
