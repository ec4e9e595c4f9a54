// Package supplier implements the multi-criteria Supplier Selector of
// spec.md §4.4: eligibility filtering, weighted scoring, Indonesian
// archipelago shipping cost, and disruption-risk assessment.
package supplier

import (
	"math"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
)

// ScoreBreakdown is the per-criterion 0-100 score behind a supplier's
// composite rank. Capacity and Location are carried for display and
// risk narrative but, per spec.md §4.4, do not enter the weighted
// composite — only cost/quality/delivery/reliability do.
type ScoreBreakdown struct {
	Cost        float64
	Quality     float64
	Delivery    float64
	Reliability float64
	Capacity    float64
	Location    float64
	Composite   float64
}

// ScoreInputs carries the order- and request-specific context that the
// per-dimension formulas need beyond the supplier record itself.
type ScoreInputs struct {
	OrderQuantity int
	OrderValue    float64

	// HistoricalUnitCost is the resolved trailing average from the
	// purchase-order ledger (spec.md §4.4's 6-month weighted average);
	// zero means no history and the quoted/discounted price stands alone.
	HistoricalUnitCost float64

	// Month is the calendar month (1-12) the order would ship in, used
	// by the shipping estimate's seasonal surcharge.
	Month int

	// Urgency is the 0-10 priority score carried from the triggering
	// reorder evaluation; Urgency>=7 adds a delivery-speed bonus.
	Urgency int

	// DeadlineDays is an expedited delivery deadline in days, or 0 for
	// none; it feeds the capacity dimension's temporal component.
	DeadlineDays int

	// RiskFactor scales the capacity composite into [0.5, 1.0] and is
	// derived from the supplier's disruption-risk assessment.
	RiskFactor float64
}

// assumed per-unit package dimensions and weight, used to estimate
// freight when a product record carries no package-dimension data (the
// domain model has none). A small retail-goods carton stands in.
const (
	assumedUnitLengthCm = 10.0
	assumedUnitWidthCm  = 10.0
	assumedUnitHeightCm = 10.0
	assumedUnitWeightKg = 0.1
)

// defaultDestinationProvince stands in for a warehouse/fulfillment
// location the domain model does not track; DKI Jakarta is the de
// facto distribution hub for Indonesian e-commerce sellers.
const defaultDestinationProvince = "DKI Jakarta"

// primaryMinScore is the PRIMARY selection method's totalScore gate
// (spec.md §4.4): below this, the rule's designated primary supplier is
// passed over in favor of the best balanced alternative.
const primaryMinScore = 60.0

// ScoreCost rates a supplier against a 0.9×retail benchmark using the
// final unit cost: the 6-month historical average blended with the
// quoted, discounted price, plus estimated per-unit freight.
func ScoreCost(s *domain.Supplier, in ScoreInputs) float64 {
	benchmark := s.RetailUnitCost * 0.9
	discounted := s.UnitCost * (1 - s.Discount)

	hist := in.HistoricalUnitCost
	if hist <= 0 {
		hist = discounted
	}
	blended := (hist + discounted) / 2

	finalUnitCost := blended
	if in.OrderQuantity > 0 {
		total := EstimateShippingCost(s.Province, defaultDestinationProvince,
			assumedUnitLengthCm, assumedUnitWidthCm, assumedUnitHeightCm, assumedUnitWeightKg,
			in.OrderQuantity, in.Month)
		finalUnitCost += total / float64(in.OrderQuantity)
	}

	if benchmark <= 0 || finalUnitCost <= 0 {
		return 50 // no pricing signal: neutral
	}
	costRatio := benchmark / finalUnitCost
	return clamp(costRatio*80, 0, 100)
}

// ScoreQuality blends the star rating with the recorded quality score.
func ScoreQuality(s *domain.Supplier) float64 {
	return clamp(s.Rating/5*50+s.QualityScore/2, 0, 100)
}

// leadTimeScore rewards short lead times; day 1 scores 100, each
// additional day costs 5 points.
func leadTimeScore(leadTimeDays int) float64 {
	return math.Max(0, 100-float64(leadTimeDays-1)*5)
}

// ScoreDelivery rewards a high on-time rate and a short lead time, with
// an extra speed bonus once the order is urgent enough (urgency>=7) that
// a long lead time risks a stockout before the shipment lands.
func ScoreDelivery(s *domain.Supplier, urgency int) float64 {
	onTime := clamp(s.OnTimeDeliveryRate, 0, 100)
	score := onTime*0.7 + leadTimeScore(s.LeadTimeDays)*0.3
	if urgency >= 7 {
		score += math.Max(0, float64(14-s.LeadTimeDays)*3)
	}
	return clamp(score, 0, 100)
}

// ScoreReliability blends order-history volume, on-time delivery, and
// star rating — a supplier with a long, punctual track record is
// trusted more than an untested one with the same average rating.
func ScoreReliability(s *domain.Supplier) float64 {
	volumeScore := math.Min(50, float64(s.TotalOrders)*2)
	onTimeScore := clamp(s.OnTimeDeliveryRate, 0, 100) * 0.3
	ratingScore := s.Rating / 5 * 20
	return clamp(volumeScore+onTimeScore+ratingScore, 0, 100)
}

// ScoreCapacity is the five-component capacity composite of spec.md
// §4.4: financial headroom, order-volume track record, operational
// reliability, quality, and temporal fit against any expedited
// deadline — scaled by the supplier's disruption-risk factor and the
// Indonesian local/Ramadan/timezone multipliers.
func ScoreCapacity(s *domain.Supplier, in ScoreInputs) float64 {
	financial := 100.0
	if s.CreditLimit > 0 {
		headroom := s.CreditLimit - s.TotalPurchaseAmount
		financial = clamp(headroom/s.CreditLimit*100, 0, 100)
	}

	volume := clamp(float64(s.TotalOrders)/(float64(s.TotalOrders)+10)*100, 0, 100)
	operational := clamp(s.OnTimeDeliveryRate, 0, 100)
	quality := clamp(s.QualityScore, 0, 100)

	var temporal float64
	if in.DeadlineDays > 0 {
		temporal = clamp(float64(in.DeadlineDays-s.LeadTimeDays)*10+50, 0, 100)
	} else {
		temporal = leadTimeScore(s.LeadTimeDays)
	}

	composite := financial*0.25 + volume*0.30 + operational*0.20 + quality*0.15 + temporal*0.10

	riskFactor := in.RiskFactor
	if riskFactor <= 0 {
		riskFactor = 1.0
	}
	composite *= clamp(riskFactor, 0.5, 1.0)

	if s.IsIndonesian() {
		composite *= 1.10 // local supplier bonus
	}
	if isRamadanMonth(in.Month) {
		composite *= 0.90 // reduced capacity during the Ramadan slowdown
	}
	if s.IsIndonesian() {
		// no separate timezone field on the supplier record; locality
		// doubles as the WIB/WITA/WIT alignment proxy.
		composite *= 1.05
	}

	return clamp(composite, 0, 100)
}

// ScoreLocation favors suppliers within the archipelago over imports,
// since customs delay and freight variance both scale with distance.
func ScoreLocation(s *domain.Supplier) float64 {
	if s.IsIndonesian() {
		return 100
	}
	return 40
}

// isRamadanMonth treats April/May as the fixed-calendar Ramadan/Lebaran
// proxy, since the lunar calendar drift makes an exact date impractical
// to hardcode.
func isRamadanMonth(month int) bool {
	return month == 4 || month == 5
}

// Score computes the full breakdown and the weighted composite for a
// candidate supplier. Only cost/quality/delivery/reliability enter the
// composite (spec.md §4.4); capacity and location are informational.
func Score(s *domain.Supplier, weights domain.SupplierWeights, in ScoreInputs) ScoreBreakdown {
	b := ScoreBreakdown{
		Cost:        ScoreCost(s, in),
		Quality:     ScoreQuality(s),
		Delivery:    ScoreDelivery(s, in.Urgency),
		Reliability: ScoreReliability(s),
		Capacity:    ScoreCapacity(s, in),
		Location:    ScoreLocation(s),
	}
	b.Composite = b.Cost*weights.Cost + b.Quality*weights.Quality +
		b.Delivery*weights.Delivery + b.Reliability*weights.Reliability
	return b
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
