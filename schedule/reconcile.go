package schedule

import "github.com/shopspring/decimal"

// =============================================================================
// RECONCILIATION VALIDATOR
// =============================================================================

// ReconcileTolerance is the fixed acceptance window between a schedule's
// grand total and the campaign budget, in currency units. It absorbs
// proration rounding drift and applies identically to automatic and
// manually edited schedules. The value is intentional; do not tighten it.
var ReconcileTolerance = decimal.NewFromInt(2)

// ReconcileResult reports whether a candidate total matches the budget
// within tolerance. Difference is signed: positive means the schedule is
// over budget, negative under.
type ReconcileResult struct {
	Accepted   bool
	Difference decimal.Decimal
}

// Over reports whether the schedule exceeds the budget.
func (r ReconcileResult) Over() bool { return r.Difference.IsPositive() }

// Under reports whether the schedule falls short of the budget.
func (r ReconcileResult) Under() bool { return r.Difference.IsNegative() }

// Reconcile compares a candidate schedule total against the campaign
// budget. A rejection is a recoverable validation outcome, not an error:
// the caller surfaces the signed difference and keeps the draft open.
func Reconcile(scheduleTotal, budget decimal.Decimal) ReconcileResult {
	diff := scheduleTotal.Sub(budget)
	return ReconcileResult{
		Accepted:   diff.Abs().LessThanOrEqual(ReconcileTolerance),
		Difference: diff,
	}
}
