package supplier

import (
	"time"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
)

// RiskLevel classifies the overall disruption probability of a supplier
// relationship, per spec.md §4.4's disruption-risk model.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// RiskFactor is one weighted contributor to a supplier's disruption
// probability.
type RiskFactor struct {
	Name        string
	Probability float64 // 0..1
	Weight      float64
}

// RiskAssessment is the full disruption-risk report for a single
// supplier, combining independent risk factors into an overall
// probability and a set of mitigation strategies.
type RiskAssessment struct {
	SupplierID         string
	OverallProbability float64
	Level              RiskLevel
	Factors            []RiskFactor
	Mitigations        []string
}

// thresholds for mapping OverallProbability to a RiskLevel.
const (
	thresholdMedium   = 0.25
	thresholdHigh     = 0.50
	thresholdCritical = 0.75
)

// AssessRisk evaluates contract expiry, delivery reliability, order
// concentration, and staleness (no recent orders) as independent risk
// factors and combines them into an overall probability.
func AssessRisk(s *domain.Supplier, now time.Time, concentrationShare float64) RiskAssessment {
	factors := []RiskFactor{
		contractExpiryRisk(s, now),
		deliveryReliabilityRisk(s),
		concentrationRisk(concentrationShare),
		staleRelationshipRisk(s, now),
	}

	var weighted, totalWeight float64
	for _, f := range factors {
		weighted += f.Probability * f.Weight
		totalWeight += f.Weight
	}
	overall := 0.0
	if totalWeight > 0 {
		overall = weighted / totalWeight
	}

	level := RiskLow
	switch {
	case overall >= thresholdCritical:
		level = RiskCritical
	case overall >= thresholdHigh:
		level = RiskHigh
	case overall >= thresholdMedium:
		level = RiskMedium
	}

	return RiskAssessment{
		SupplierID:         s.ID,
		OverallProbability: overall,
		Level:              level,
		Factors:            factors,
		Mitigations:        mitigationsFor(level, factors),
	}
}

func contractExpiryRisk(s *domain.Supplier, now time.Time) RiskFactor {
	if s.ContractEnd == nil {
		return RiskFactor{Name: "contract_expiry", Probability: 0.1, Weight: 1.0}
	}
	daysLeft := s.ContractEnd.Sub(now).Hours() / 24
	switch {
	case daysLeft <= 0:
		return RiskFactor{Name: "contract_expiry", Probability: 0.95, Weight: 1.0}
	case daysLeft <= 30:
		return RiskFactor{Name: "contract_expiry", Probability: 0.6, Weight: 1.0}
	case daysLeft <= 90:
		return RiskFactor{Name: "contract_expiry", Probability: 0.3, Weight: 1.0}
	default:
		return RiskFactor{Name: "contract_expiry", Probability: 0.05, Weight: 1.0}
	}
}

func deliveryReliabilityRisk(s *domain.Supplier) RiskFactor {
	p := clamp(1-s.OnTimeDeliveryRate/100, 0, 1)
	return RiskFactor{Name: "delivery_reliability", Probability: p, Weight: 1.2}
}

// concentrationRisk treats heavy reliance on a single supplier for a
// product's spend as a risk multiplier: a single point of failure.
func concentrationRisk(share float64) RiskFactor {
	return RiskFactor{Name: "order_concentration", Probability: clamp(share, 0, 1), Weight: 0.8}
}

func staleRelationshipRisk(s *domain.Supplier, now time.Time) RiskFactor {
	if s.LastOrderDate == nil {
		return RiskFactor{Name: "relationship_staleness", Probability: 0.4, Weight: 0.6}
	}
	daysSince := now.Sub(*s.LastOrderDate).Hours() / 24
	switch {
	case daysSince > 180:
		return RiskFactor{Name: "relationship_staleness", Probability: 0.5, Weight: 0.6}
	case daysSince > 90:
		return RiskFactor{Name: "relationship_staleness", Probability: 0.25, Weight: 0.6}
	default:
		return RiskFactor{Name: "relationship_staleness", Probability: 0.05, Weight: 0.6}
	}
}

func mitigationsFor(level RiskLevel, factors []RiskFactor) []string {
	var out []string
	for _, f := range factors {
		switch {
		case f.Name == "contract_expiry" && f.Probability >= 0.3:
			out = append(out, "renew or renegotiate supplier contract before expiry")
		case f.Name == "delivery_reliability" && f.Probability >= 0.3:
			out = append(out, "qualify a backup supplier for this product")
		case f.Name == "order_concentration" && f.Probability >= 0.4:
			out = append(out, "diversify order volume across additional suppliers")
		case f.Name == "relationship_staleness" && f.Probability >= 0.3:
			out = append(out, "re-verify pricing and lead times with a fresh quote")
		}
	}
	if level == RiskCritical && len(out) == 0 {
		out = append(out, "escalate to procurement for manual review")
	}
	return out
}
