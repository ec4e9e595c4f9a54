package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/andriipushkar/replenishment/internal/automation/ports"
	"github.com/andriipushkar/replenishment/internal/circuitbreaker"
)

// ForecastTimeout is spec.md §5's named blocking/suspension bound for
// forecast-port RPCs.
const ForecastTimeout = 20 * time.Second

// ForecastClient implements ports.ForecastPort against the ML forecasting
// service, wrapped in a circuit breaker per SPEC_FULL.md's domain stack
// section (a slow or failing forecaster must not stall every rule tick).
type ForecastClient struct{ httpBase }

// NewForecastClient wires a circuit-breaker-protected forecast client.
func NewForecastClient(baseURL string) *ForecastClient {
	breakerClient := circuitbreaker.NewHTTPClient(circuitbreaker.DefaultConfig("forecast-service"), ForecastTimeout)
	return &ForecastClient{newHTTPBase(baseURL, breakerDoer{breakerClient})}
}

// breakerDoer adapts circuitbreaker.HTTPClient.Do's (*http.Response, error)
// return to the plain httpDoer shape httpBase expects.
type breakerDoer struct{ c *circuitbreaker.HTTPClient }

func (b breakerDoer) Do(req *http.Request) (*http.Response, error) { return b.c.Do(req) }

type demandForecastDto struct {
	Success           bool    `json:"success"`
	OverallConfidence float64 `json:"overallConfidence"`
	TimeSeries        []struct {
		PredictedDemand float64 `json:"predictedDemand"`
	} `json:"timeSeries"`
}

func (c *ForecastClient) GenerateDemandForecast(ctx context.Context, tenantID string, req ports.ForecastRequest) (*ports.DemandForecast, error) {
	var dto demandForecastDto
	path := fmt.Sprintf("/forecast/%s/%s?horizonDays=%d&granularity=%s", tenantID, req.ProductID, req.HorizonDays, req.Granularity)
	if err := c.getJSON(ctx, path, &dto); err != nil {
		return nil, err
	}
	points := make([]ports.DemandForecastPoint, len(dto.TimeSeries))
	for i, p := range dto.TimeSeries {
		points[i] = ports.DemandForecastPoint{PredictedDemand: p.PredictedDemand}
	}
	return &ports.DemandForecast{Success: dto.Success, OverallConfidence: dto.OverallConfidence, TimeSeries: points}, nil
}
