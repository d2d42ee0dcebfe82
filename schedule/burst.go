/*
burst.go - Burst input type and day-weighted proration

PURPOSE:
  A Burst is the engine's atomic input: one committed spend interval for
  one media type. ProrateBurst slices a burst's money and deliverable
  volume across the calendar months it overlaps, weighted by day count.

PRORATION RULE:
  daysTotal  = inclusive day count of the burst's full interval
  for each overlapped month:
    slice      = [max(burstStart, monthStart), min(burstEnd, monthEnd)]
    monthShare = amount * daysInSlice / daysTotal

  The same weighting applies independently to media amount, fee amount,
  and deliverables. For a burst fully inside the calendar the slices sum
  back to the original amount up to decimal division precision; no
  explicit rounding correction is performed (the reconciliation
  tolerance absorbs the drift).

SKIP SEMANTICS:
  Bursts with unparseable dates or an end before the start contribute
  nothing to any month. The outcome is typed (Prorated vs Skipped with
  a reason) so callers can surface data-quality warnings while keeping
  the zero-contribution behavior. A zero-duration burst (start == end)
  is NOT skipped - it is a valid one-day interval.

SEE ALSO:
  - dates.go: inclusive interval arithmetic
  - aggregate.go: folds prorations into MonthBuckets
*/
package schedule

import "github.com/shopspring/decimal"

// =============================================================================
// BURST - One committed spend interval for one media type
// =============================================================================

// Burst describes one spend commitment. It is created by the media-type
// planning UI and never mutated by the engine; dates arrive as raw
// strings and are validated here, at the proration boundary.
type Burst struct {
	MediaType MediaType

	// Inclusive interval, YYYY-MM-DD. Raw strings because the planning
	// UI is the source and the skip-on-malformed policy lives here.
	StartDate string
	EndDate   string

	// Money actually owed, before ad-serving costs.
	MediaAmount decimal.Decimal
	FeeAmount   decimal.Decimal

	// Volume (impressions, clicks, plays) used only by the ad-serving
	// cost model.
	Deliverables decimal.Decimal
	BuyType      BuyType

	// When true the burst contributes zero ad-serving cost regardless
	// of buy type.
	NoAdServing bool
}

// =============================================================================
// PRORATION OUTCOME
// =============================================================================

// SkipReason says why a burst was excluded from proration.
type SkipReason string

const (
	SkipBadStartDate   SkipReason = "bad_start_date"
	SkipBadEndDate     SkipReason = "bad_end_date"
	SkipEndBeforeStart SkipReason = "end_before_start"
)

// MonthSlice is one month's share of a prorated burst.
type MonthSlice struct {
	Month        MonthKey
	Days         int
	Media        decimal.Decimal
	Fee          decimal.Decimal
	Deliverables decimal.Decimal
}

// Proration is the typed outcome of prorating one burst: either a set of
// month slices, or a skip with a reason. A burst that parses cleanly but
// overlaps none of the calendar months yields Prorated with no slices.
type Proration struct {
	Skipped bool
	Reason  SkipReason
	Slices  []MonthSlice
}

// =============================================================================
// PRORATION FUNCTION
// =============================================================================

// ProrateBurst distributes one burst's money and deliverables across the
// given month calendar, weighted by day overlap. Pure function: invoked
// once per burst during every schedule (re)calculation.
func ProrateBurst(b Burst, calendar []MonthKey) Proration {
	start, err := ParseDate(b.StartDate)
	if err != nil {
		return Proration{Skipped: true, Reason: SkipBadStartDate}
	}
	end, err := ParseDate(b.EndDate)
	if err != nil {
		return Proration{Skipped: true, Reason: SkipBadEndDate}
	}
	if end.Before(start) {
		return Proration{Skipped: true, Reason: SkipEndBeforeStart}
	}

	daysTotal := decimal.NewFromInt(int64(DaysInclusive(start, end)))

	var slices []MonthSlice
	for _, month := range calendar {
		sliceStart := maxDate(start, month.Start())
		sliceEnd := minDate(end, month.End())
		days := DaysInclusive(sliceStart, sliceEnd)
		if days == 0 {
			continue
		}

		weight := decimal.NewFromInt(int64(days)).Div(daysTotal)
		slices = append(slices, MonthSlice{
			Month:        month,
			Days:         days,
			Media:        b.MediaAmount.Mul(weight),
			Fee:          b.FeeAmount.Mul(weight),
			Deliverables: b.Deliverables.Mul(weight),
		})
	}

	return Proration{Slices: slices}
}
