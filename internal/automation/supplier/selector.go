package supplier

import (
	"context"
	"sort"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
	"github.com/andriipushkar/replenishment/internal/automation/ports"
)

// CostHistoryMonths is how many months of purchase history feed the
// cost-scoring benchmark, per spec.md §4.4.
const CostHistoryMonths = 6

// maxAlternatives bounds how many runner-up candidates the selector
// carries into the audit record.
const maxAlternatives = 4

// Candidate is one scored supplier under consideration for an order.
type Candidate struct {
	Supplier       *domain.Supplier
	Score          ScoreBreakdown
	Risk           RiskAssessment
	UnitCost       float64
	EstimatedTotal float64
}

// RejectedCandidate records why a queried supplier was filtered out
// before scoring, so the audit trail can explain the selection.
type RejectedCandidate struct {
	SupplierID string
	Reason     string
}

// SelectionResult is the Supplier Selector's output for one reorder
// decision: the chosen supplier, scored runners-up, and the rejects.
type SelectionResult struct {
	Selected        *Candidate
	SelectionReason string
	Alternatives    []Candidate
	Rejected        []RejectedCandidate
}

// SelectionOptions carries request-time overrides to the Supplier
// Selector contract (spec.md §4.4): an expedited deadline and the
// triggering urgency, both derived from the Reorder Calculator's
// output rather than the rule's static configuration.
type SelectionOptions struct {
	// DeadlineDays is an expedited delivery deadline in days; 0 means
	// no deadline pressure. Suppliers whose lead time cannot meet it
	// are excluded before scoring.
	DeadlineDays int
	// Urgency is the 0-10 priority score carried from the triggering
	// evaluation; Urgency>=7 unlocks the delivery score's speed bonus.
	Urgency int
}

// Selector implements spec.md §4.4: eligibility filtering, weighted
// multi-criteria scoring, and disruption-risk assessment.
type Selector struct {
	suppliers ports.SupplierPort
	costCache *CostCache
	clock     ports.Clock
}

// NewSelector wires the SupplierPort and an optional cost cache
// (pass nil to disable caching — e.g. in tests).
func NewSelector(suppliers ports.SupplierPort, costCache *CostCache, clock ports.Clock) *Selector {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Selector{suppliers: suppliers, costCache: costCache, clock: clock}
}

// Select ranks eligible suppliers for rule and returns the top pick
// plus runner-ups. orderQuantity and orderValue parameterize
// capacity/cost scoring against the specific order being placed; opts
// carries the request-time deadline/urgency overrides.
func (s *Selector) Select(ctx context.Context, tenantID string, rule *domain.ReorderRule, orderQuantity int, orderValue float64, opts SelectionOptions) (*SelectionResult, error) {
	filter := ports.SupplierFilter{ActiveOnly: true}
	if rule.PrimarySupplierID != "" {
		filter.IDs = append([]string{rule.PrimarySupplierID}, rule.AllowedSupplierIDs...)
	} else {
		filter.IDs = rule.AllowedSupplierIDs
	}

	all, err := s.suppliers.Query(ctx, tenantID, filter)
	if err != nil {
		return nil, &domain.PortError{Port: "SupplierPort", Transient: true, Err: err}
	}

	result := &SelectionResult{}
	var candidates []Candidate
	now := s.clock.Now()
	weights := rule.EffectiveWeights()

	for _, sup := range all {
		if reason, ok := s.ineligible(sup, orderValue, opts.DeadlineDays); ok {
			result.Rejected = append(result.Rejected, RejectedCandidate{SupplierID: sup.ID, Reason: reason})
			continue
		}

		unitCost := s.resolveUnitCost(ctx, tenantID, sup, rule.ProductID)
		risk := AssessRisk(sup, now, 0)
		score := Score(sup, weights, ScoreInputs{
			OrderQuantity:      orderQuantity,
			OrderValue:         orderValue,
			HistoricalUnitCost: unitCost,
			Month:              int(now.Month()),
			Urgency:            opts.Urgency,
			DeadlineDays:       opts.DeadlineDays,
			RiskFactor:         1 - 0.5*risk.OverallProbability,
		})

		candidates = append(candidates, Candidate{
			Supplier:       sup,
			Score:          score,
			Risk:           risk,
			UnitCost:       unitCost,
			EstimatedTotal: unitCost * float64(orderQuantity),
		})
	}

	if len(candidates) == 0 {
		return result, domain.ErrNoEligibleSupplier
	}

	method := rule.SupplierMethod
	if method == "" {
		method = domain.MethodBalanced
	}

	if method == domain.MethodPrimary && rule.PrimarySupplierID != "" {
		sortCandidates(candidates, domain.MethodBalanced)
		var primary *Candidate
		for i := range candidates {
			if candidates[i].Supplier.ID == rule.PrimarySupplierID {
				primary = &candidates[i]
				break
			}
		}
		switch {
		case primary != nil && primary.Score.Composite >= primaryMinScore:
			result.Selected = primary
			result.SelectionReason = "Primary supplier meets the minimum score threshold"
		case primary != nil:
			result.Selected = &candidates[0]
			result.SelectionReason = "Primary supplier below minimum score threshold; selected best balanced alternative"
		default:
			result.Selected = &candidates[0]
			result.SelectionReason = "Primary supplier not eligible; selected best balanced alternative"
		}
	} else {
		rankMethod := method
		if rankMethod == domain.MethodPrimary {
			// no primary configured: fall back to balanced ranking.
			rankMethod = domain.MethodBalanced
		}
		sortCandidates(candidates, rankMethod)
		result.Selected = &candidates[0]
		result.SelectionReason = selectionReasonFor(rankMethod)
	}

	result.Alternatives = buildAlternatives(candidates, result.Selected.Supplier.ID)
	return result, nil
}

// rankValue returns the dimension a selection method ranks candidates
// by: a single score for the *_OPTIMAL methods, the full weighted
// composite for BALANCED (and PRIMARY's fallback).
func rankValue(method domain.SupplierSelectionMethod, c Candidate) float64 {
	switch method {
	case domain.MethodCostOptimal:
		return c.Score.Cost
	case domain.MethodQualityOptimal:
		return c.Score.Quality
	case domain.MethodDeliveryOptimal:
		return c.Score.Delivery
	default:
		return c.Score.Composite
	}
}

// sortCandidates orders candidates best-first for method, breaking
// ties by reliability then by order-history volume — both signal a
// proven track record when the primary ranking dimension is tied.
func sortCandidates(candidates []Candidate, method domain.SupplierSelectionMethod) {
	sort.SliceStable(candidates, func(i, j int) bool {
		vi, vj := rankValue(method, candidates[i]), rankValue(method, candidates[j])
		if vi != vj {
			return vi > vj
		}
		if candidates[i].Score.Reliability != candidates[j].Score.Reliability {
			return candidates[i].Score.Reliability > candidates[j].Score.Reliability
		}
		return candidates[i].Supplier.TotalOrders > candidates[j].Supplier.TotalOrders
	})
}

// selectionReasonFor narrates why the top-ranked candidate won, in
// terms of the dimension that actually decided the ranking.
func selectionReasonFor(method domain.SupplierSelectionMethod) string {
	switch method {
	case domain.MethodCostOptimal:
		return "Selected for lowest cost"
	case domain.MethodQualityOptimal:
		return "Selected for highest quality"
	case domain.MethodDeliveryOptimal:
		return "Selected for fastest delivery"
	default:
		return "Selected for best balanced score"
	}
}

// buildAlternatives returns up to maxAlternatives runner-ups from an
// already-ranked candidate list, excluding the selected supplier.
func buildAlternatives(candidates []Candidate, selectedID string) []Candidate {
	var alts []Candidate
	for _, c := range candidates {
		if c.Supplier.ID == selectedID {
			continue
		}
		alts = append(alts, c)
		if len(alts) == maxAlternatives {
			break
		}
	}
	return alts
}

// ineligible applies the hard eligibility gate ahead of scoring: an
// inactive, deleted, over-credit, or deadline-incapable supplier never
// reaches the weighted comparison.
func (s *Selector) ineligible(sup *domain.Supplier, orderValue float64, deadlineDays int) (string, bool) {
	switch {
	case sup.IsDeleted:
		return "supplier deleted", true
	case sup.Status != domain.SupplierStatusActive:
		return "supplier inactive", true
	case !sup.CanAcceptOrder(orderValue):
		return "credit limit exceeded", true
	case deadlineDays > 0 && sup.LeadTimeDays > deadlineDays:
		return "cannot meet expedited delivery deadline", true
	default:
		return "", false
	}
}

func (s *Selector) resolveUnitCost(ctx context.Context, tenantID string, sup *domain.Supplier, productID string) float64 {
	if s.costCache != nil {
		if v, ok := s.costCache.Get(ctx, tenantID, sup.ID, productID, CostHistoryMonths); ok {
			return v
		}
	}

	cost, err := s.suppliers.GetAverageUnitCost(ctx, tenantID, sup.ID, productID, CostHistoryMonths)
	if err != nil || cost <= 0 {
		// No purchase history yet: fall back to the supplier's quoted
		// list price rather than failing selection.
		cost = sup.UnitCost
	}

	if s.costCache != nil {
		s.costCache.Set(ctx, tenantID, sup.ID, productID, CostHistoryMonths, cost)
	}
	return cost
}
