// Package executor implements the Purchase Executor (spec.md §4.5):
// orchestrates calculate -> select supplier -> persist PO -> approve ->
// notify, with an idempotent audit trail.
package executor

import (
	"context"
	"fmt"

	"github.com/andriipushkar/replenishment/internal/automation/calculator"
	"github.com/andriipushkar/replenishment/internal/automation/domain"
	"github.com/andriipushkar/replenishment/internal/automation/ports"
	"github.com/andriipushkar/replenishment/internal/automation/ruleengine"
	"github.com/andriipushkar/replenishment/internal/automation/supplier"
	"github.com/andriipushkar/replenishment/internal/logger"
	"github.com/andriipushkar/replenishment/internal/metrics"
)

// UrgentDeadlineDays is the daysUntilStockout threshold below which the
// supplier selector is given an expedited deadline (spec.md §4.5 step 6).
const UrgentDeadlineDays = 14

// MinSupplierTotalScore gates PO creation (spec.md §4.5
// step 7: shouldCreatePO requires supplier.totalScore >= 50).
const MinSupplierTotalScore = 50.0

// UrgentPriorityThreshold selects the URGENT PO priority (spec.md §4.5
// step 8: priority=URGENT when urgency>=8 else NORMAL).
const UrgentPriorityThreshold = 8

// Request parameterizes one Execute call.
type Request struct {
	TenantID        string
	Rule            *domain.ReorderRule
	Evaluation      domain.TriggerEvaluation
	ForceExecution  bool
	DryRun          bool
}

// Executor wires every port the purchase flow touches.
type Executor struct {
	inventory ports.InventoryPort
	products  ports.ProductPort
	suppliers *supplier.Selector
	pos       ports.PurchaseOrderPort
	forecast  ports.ForecastPort
	notify    ports.NotificationPort
	events    ports.EventBusPort
	execs     ports.ExecutionRepository
	rules     ports.RuleRepository
	ids       domain.IDGenerator
	clock     ports.Clock
}

// New wires the Purchase Executor's dependencies.
func New(
	inventory ports.InventoryPort,
	products ports.ProductPort,
	suppliers *supplier.Selector,
	pos ports.PurchaseOrderPort,
	forecast ports.ForecastPort,
	notify ports.NotificationPort,
	events ports.EventBusPort,
	execs ports.ExecutionRepository,
	rules ports.RuleRepository,
	ids domain.IDGenerator,
	clock ports.Clock,
) *Executor {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Executor{
		inventory: inventory, products: products, suppliers: suppliers,
		pos: pos, forecast: forecast, notify: notify, events: events,
		execs: execs, rules: rules, ids: ids, clock: clock,
	}
}

// Execute implements the 12-step flow of spec.md §4.5 and satisfies
// ruleengine.Executor.
func (x *Executor) Execute(ctx context.Context, rule *domain.ReorderRule, eval domain.TriggerEvaluation) (ruleengine.ExecutionOutcome, error) {
	started := x.clock.Now()
	outcome, err := x.run(ctx, Request{TenantID: rule.TenantID, Rule: rule, Evaluation: eval})
	outcome.ProcessTime = x.clock.Now().Sub(started)
	return outcome, err
}

// ExecuteRequest is the entry point bulk execution and the scheduler use
// when more control over dry-run/force semantics is needed than the
// ruleengine.Executor contract exposes.
func (x *Executor) ExecuteRequest(ctx context.Context, req Request) (ruleengine.ExecutionOutcome, error) {
	started := x.clock.Now()
	outcome, err := x.run(ctx, req)
	outcome.ProcessTime = x.clock.Now().Sub(started)
	return outcome, err
}

func (x *Executor) run(ctx context.Context, req Request) (ruleengine.ExecutionOutcome, error) {
	rule := req.Rule
	now := x.clock.Now()

	// Step 2: load inventory + product.
	item, err := x.inventory.GetItem(ctx, rule.TenantID, rule.ProductID, rule.LocationID)
	if err != nil {
		return ruleengine.ExecutionOutcome{}, &domain.PortError{Port: "InventoryPort", Transient: true, Err: err}
	}
	product, err := x.products.GetProduct(ctx, rule.TenantID, rule.ProductID)
	if err != nil {
		return ruleengine.ExecutionOutcome{}, &domain.PortError{Port: "ProductPort", Transient: true, Err: err}
	}

	// Step 3: create the ReorderExecution row (success=false) up front so
	// an in-flight attempt is always observable.
	execID := x.ids.NewExecutionID(now.UnixMilli())
	exec := &domain.ReorderExecution{
		ExecutionID:   execID,
		ReorderRuleID: rule.ID,
		TenantID:      rule.TenantID,
		ExecutedAt:    now,
		TriggerReason: req.Evaluation.Reason,
	}
	if err := x.execs.Create(ctx, exec); err != nil {
		return ruleengine.ExecutionOutcome{}, &domain.PortError{Port: "ExecutionRepository", Transient: true, Err: err}
	}

	lookback := rule.LookbackDays
	if lookback <= 0 {
		lookback = 30
	}
	txns, _ := x.inventory.QueryTransactions(ctx, rule.TenantID, item, now.AddDate(0, 0, -lookback), now)

	var forecast *ports.DemandForecast
	if x.forecast != nil {
		if f, ferr := x.forecast.GenerateDemandForecast(ctx, rule.TenantID, ports.ForecastRequest{
			ProductID: rule.ProductID, HorizonDays: rule.LeadTimeDays, Granularity: "daily",
		}); ferr == nil {
			forecast = f
		}
	}

	currentStock := item.QuantityAvailable()

	// Step 4: run the Reorder Calculator.
	calc := calculator.Calculate(calculator.Input{
		Rule: rule, Item: item, Product: product, CurrentDate: now,
		Transactions: txns, Forecast: forecast,
	})
	if !calc.Valid {
		return x.finalize(ctx, rule, exec, false, fmt.Sprintf("calculation invalid: %s", calc.Reason), nil, 0, float64(currentStock), nil)
	}

	// Step 5: skip if the calculator says no, unless forced.
	if !calc.ShouldReorderNow && !req.ForceExecution {
		return x.finalize(ctx, rule, exec, true, "", nil, 0, float64(currentStock), nil)
	}

	// Step 6: select a supplier, with an expedited deadline when a
	// stockout is imminent.
	deadlineDays := 0
	if calc.DaysUntilStockout < UrgentDeadlineDays {
		deadlineDays = int(calc.DaysUntilStockout)
	}
	selection, selErr := x.suppliers.Select(ctx, rule.TenantID, rule, calc.RecommendedOrderQuantity, calc.EstimatedOrderValue, supplier.SelectionOptions{
		DeadlineDays: deadlineDays,
		Urgency:      req.Evaluation.Urgency,
	})

	// Step 7: shouldCreatePO gate.
	shouldCreatePO := calc.ShouldReorderNow &&
		selErr == nil && selection.Selected != nil &&
		calc.RecommendedOrderQuantity > 0 &&
		selection.Selected.Score.Composite >= MinSupplierTotalScore &&
		calc.EstimatedOrderValue <= rule.RemainingBudget()

	if !shouldCreatePO {
		reason := "supplier selection or budget gate failed"
		if selErr != nil {
			reason = selErr.Error()
		} else if calc.EstimatedOrderValue > rule.RemainingBudget() {
			reason = "insufficient remaining budget"
		}
		return x.finalize(ctx, rule, exec, false, reason, &calc, 0, float64(currentStock), selection)
	}

	if req.DryRun {
		// Dry-run never creates a PO and never mutates rule counters
		// (spec.md §8 universal invariant 8).
		return x.finalizeDryRun(ctx, rule, exec, &calc, selection)
	}

	// Step 8: build and persist the PO draft, auto-approving when eligible.
	priority := "normal"
	if req.Evaluation.Urgency >= UrgentPriorityThreshold {
		priority = "urgent"
	}
	dto := ports.PurchaseOrderDto{
		SupplierID:            selection.Selected.Supplier.ID,
		Type:                  "standard",
		Priority:              priority,
		Description:           fmt.Sprintf("Automated reorder for rule %s", rule.ID),
		Items: []ports.PurchaseOrderItemDto{{
			ProductID: product.ID, SKU: product.SKU, ProductName: product.Name,
			OrderedQuantity: calc.RecommendedOrderQuantity, UnitPrice: selection.Selected.UnitCost,
		}},
		ExpectedDeliveryDate:  now.AddDate(0, 0, selection.Selected.Supplier.LeadTimeDays),
		RequestedDeliveryDate: now,
		PaymentTerms:          selection.Selected.Supplier.PaymentTerms,
	}

	poID, err := x.pos.Create(ctx, rule.TenantID, dto, "automation")
	if err != nil {
		return x.finalize(ctx, rule, exec, false, "purchase order creation failed: "+err.Error(), &calc, 0, float64(currentStock), selection)
	}

	if rule.IsFullyAutomated && calc.EstimatedOrderValue <= rule.AutoApprovalThreshold {
		if err := x.pos.Approve(ctx, rule.TenantID, poID, "auto-approved by replenishment engine", "automation"); err != nil {
			logger.Warn().Err(err).Str("poId", poID).Msg("auto-approval failed, purchase order remains pending")
		}
	}

	exec.SelectedSupplierID = selection.Selected.Supplier.ID
	exec.PurchaseOrderID = poID
	exec.ActualQuantity = calc.RecommendedOrderQuantity

	outcome, finErr := x.finalize(ctx, rule, exec, true, "", &calc, calc.EstimatedOrderValue, float64(currentStock), selection)
	outcome.SupplierID = selection.Selected.Supplier.ID

	// Step 11: emit domain events.
	if x.events != nil {
		_ = x.events.Publish(ctx, "automation.purchase-order.created", map[string]any{"tenantId": rule.TenantID, "poId": poID, "ruleId": rule.ID})
		_ = x.events.Publish(ctx, "automation.reorder.executed", map[string]any{"tenantId": rule.TenantID, "executionId": exec.ExecutionID, "ruleId": rule.ID})
	}

	// Step 12: notify, critical severity when urgency is high.
	if x.notify != nil {
		severity := ports.SeverityInfo
		if req.Evaluation.Urgency >= UrgentPriorityThreshold {
			severity = ports.SeverityCritical
		}
		_ = x.notify.CreateAlert(ctx, rule.TenantID, "reorder_executed", severity,
			"Purchase order created", fmt.Sprintf("Rule %s generated PO %s", rule.ID, poID),
			map[string]any{"poId": poID}, rule.ProductID, rule.LocationID)
	}

	return outcome, finErr
}

// applyCalculationSnapshot copies the calculator's output onto the audit
// record. currentStock is threaded through separately since the calculator
// result does not carry it. selection carries the scored supplier
// candidates considered for this execution, if any were scored.
func applyCalculationSnapshot(exec *domain.ReorderExecution, calc *calculator.Result, currentStock int, selection *supplier.SelectionResult) {
	if calc == nil {
		return
	}
	exec.RecommendedQuantity = calc.RecommendedOrderQuantity
	exec.OrderValue = calc.EstimatedOrderValue
	var eoq *int
	if calc.EOQ != nil {
		e := int(calc.EOQ.EOQ)
		eoq = &e
	}
	seasonal := calc.Demand.SeasonalFactor
	exec.CalculationDetails = domain.CalculationDetails{
		CurrentStock:   currentStock,
		ReorderPoint:   calc.RecommendedReorderPoint,
		LeadTimeDemand: calc.SafetyStock.LeadTimeDemand,
		SafetyStock:    calc.SafetyStock.SafetyStock,
		EOQCalculation: eoq,
		SeasonalFactor: &seasonal,
		SupplierScores: supplierScoresOf(selection),
	}
}

// supplierScoresOf flattens a selection's scored candidates into the
// calculationDetails.supplierScores wire surface of spec.md §6.
func supplierScoresOf(selection *supplier.SelectionResult) map[string]float64 {
	scores := map[string]float64{}
	if selection == nil {
		return scores
	}
	if selection.Selected != nil {
		scores[selection.Selected.Supplier.ID] = selection.Selected.Score.Composite
	}
	for _, c := range selection.Alternatives {
		scores[c.Supplier.ID] = c.Score.Composite
	}
	return scores
}

// finalize persists the execution result, records the rule's outcome
// counters, and returns the aggregated outcome for the Rule Engine.
func (x *Executor) finalize(ctx context.Context, rule *domain.ReorderRule, exec *domain.ReorderExecution, success bool, errMsg string, calc *calculator.Result, orderValue, currentStock float64, selection *supplier.SelectionResult) (ruleengine.ExecutionOutcome, error) {
	exec.Success = success
	applyCalculationSnapshot(exec, calc, int(currentStock), selection)
	if errMsg != "" {
		exec.ErrorMessage = &errMsg
	}

	if err := x.execs.Update(ctx, exec); err != nil {
		logger.Error().Err(err).Str("executionId", exec.ExecutionID).Msg("failed to persist execution result")
	}

	rule.RecordExecution(exec.ExecutedAt, success, orderValue, errMsg)
	if err := x.rules.Save(ctx, rule); err != nil {
		logger.Error().Err(err).Str("ruleId", rule.ID).Msg("failed to persist rule counters")
	}

	metrics.RecordExecution(success)
	if success && orderValue > 0 {
		metrics.RecordOrderValue(rule.TenantID, orderValue)
	}
	if !success && x.events != nil {
		_ = x.events.Publish(ctx, "automation.reorder.failed", map[string]any{"tenantId": rule.TenantID, "executionId": exec.ExecutionID, "ruleId": rule.ID, "error": errMsg})
	}

	return ruleengine.ExecutionOutcome{Success: success, OrderValue: orderValue}, nil
}

// finalizeDryRun persists the execution audit record for visibility but
// never touches the rule's counters or budget, per spec.md §8's dry-run
// invariant.
func (x *Executor) finalizeDryRun(ctx context.Context, rule *domain.ReorderRule, exec *domain.ReorderExecution, calc *calculator.Result, selection *supplier.SelectionResult) (ruleengine.ExecutionOutcome, error) {
	exec.Success = true
	applyCalculationSnapshot(exec, calc, 0, selection)
	if err := x.execs.Update(ctx, exec); err != nil {
		logger.Error().Err(err).Str("executionId", exec.ExecutionID).Msg("failed to persist dry-run execution result")
	}
	return ruleengine.ExecutionOutcome{Success: true}, nil
}
