package triggers

import (
	"context"

	"github.com/andriipushkar/replenishment/internal/automation/domain"
	"github.com/andriipushkar/replenishment/internal/automation/ports"
)

// ForecastConfidenceThreshold gates how much of the forecast demand the
// stock needs to cover before the DEMAND_FORECAST trigger fires.
const ForecastConfidenceThreshold = 0.7

// DemandForecast evaluates the DEMAND_FORECAST trigger variant (spec.md
// §4.2): queries the forecast port for the lead-time horizon and fires
// when currentStock <= forecastDemand * ForecastConfidenceThreshold. A
// forecast-port failure never fails the rule: it falls back to the
// stock-level trigger and records a warning instead.
func DemandForecast(ctx context.Context, forecaster ports.ForecastPort, rule *domain.ReorderRule, currentStock int) domain.TriggerEvaluation {
	horizon := rule.LeadTimeDays
	if horizon <= 0 {
		horizon = 7
	}

	forecast, err := forecaster.GenerateDemandForecast(ctx, rule.TenantID, ports.ForecastRequest{
		ProductID:   rule.ProductID,
		HorizonDays: horizon,
		Granularity: "daily",
	})
	if err != nil || forecast == nil || !forecast.Success {
		fallback := StockLevel(rule, currentStock)
		fallback.Warnings = append(fallback.Warnings, "forecast unavailable, fell back to stock-level trigger")
		return fallback
	}

	var total float64
	for _, p := range forecast.TimeSeries {
		total += p.PredictedDemand
	}

	if float64(currentStock) > total*ForecastConfidenceThreshold {
		return domain.TriggerEvaluation{ShouldTrigger: false, Reason: "stock covers forecasted demand"}
	}

	urgency := 6
	if float64(currentStock) <= total*0.5 {
		urgency = 8
	}
	return domain.TriggerEvaluation{
		ShouldTrigger:  true,
		Reason:         "stock insufficient against demand forecast",
		Urgency:        urgency,
		Confidence:     forecast.OverallConfidence,
		EstimatedValue: total,
	}
}
