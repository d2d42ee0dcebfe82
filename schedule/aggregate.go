/*
aggregate.go - Monthly aggregator: bursts -> MonthBuckets -> Schedule

PURPOSE:
  Folds every burst's proration into one ordered sequence of month
  buckets, applies the ad-serving cost model, and derives all totals.
  This is the heart of the engine: plan creation, plan editing, MBA
  generation, and both billing views all consume the Schedule built
  here.

INVARIANTS:
  - Every bucket carries every media-type key (value 0 when absent), so
    consumers can sum columns without membership checks. The constructor
    enforces this; it is not a convention.
  - mediaTotal = sum of mediaCosts excluding production
  - grandTotal = mediaTotal + feeTotal + adServingTotal + productionTotal
    Both are derived by recompute(), never set independently.
  - Aggregation is order-independent: accumulation is pure addition, so
    any permutation of the burst list yields identical buckets.

PRODUCTION ROUTING:
  Bursts tagged production route their media amount into the bucket's
  production total instead of the media columns; their fee amount still
  accrues to the fee total like any other burst.
*/
package schedule

import "github.com/shopspring/decimal"

// =============================================================================
// MONTH BUCKET - One calendar month of the schedule
// =============================================================================

// MonthBucket aggregates one calendar month. It is a pure derived value,
// rebuilt wholesale on every recalculation; only the manual override
// layer edits a (copied) bucket in place.
type MonthBucket struct {
	Month MonthKey

	// MediaCosts maps every known media type to its prorated spend for
	// this month. All keys are always present.
	MediaCosts map[MediaType]decimal.Decimal

	FeeTotal        decimal.Decimal
	AdServingTotal  decimal.Decimal
	ProductionTotal decimal.Decimal

	// Derived by recompute(); never set directly.
	MediaTotal decimal.Decimal
	GrandTotal decimal.Decimal
}

// NewMonthBucket returns a zeroed bucket with every media-type key
// pre-seeded. This is the total-safety invariant consumers rely on.
func NewMonthBucket(month MonthKey) *MonthBucket {
	costs := make(map[MediaType]decimal.Decimal, len(allMediaTypes))
	for _, m := range allMediaTypes {
		costs[m] = decimal.Zero
	}
	return &MonthBucket{Month: month, MediaCosts: costs}
}

// recompute re-derives MediaTotal and GrandTotal from the bucket's
// components. Called after every accumulation pass and every manual edit.
func (b *MonthBucket) recompute() {
	total := decimal.Zero
	for _, m := range allMediaTypes {
		if m.IsProduction() {
			continue
		}
		total = total.Add(b.MediaCosts[m])
	}
	b.MediaTotal = total
	b.GrandTotal = b.MediaTotal.Add(b.FeeTotal).Add(b.AdServingTotal).Add(b.ProductionTotal)
}

// clone returns a deep copy of the bucket.
func (b *MonthBucket) clone() *MonthBucket {
	costs := make(map[MediaType]decimal.Decimal, len(b.MediaCosts))
	for k, v := range b.MediaCosts {
		costs[k] = v
	}
	dup := *b
	dup.MediaCosts = costs
	return &dup
}

// =============================================================================
// SCHEDULE - Ordered month buckets plus grand total
// =============================================================================

// ScheduleMode says whether the schedule is the automatic derivation or a
// committed manual override.
type ScheduleMode string

const (
	ModeAutomatic ScheduleMode = "automatic"
	ModeManual    ScheduleMode = "manual"
)

// ScheduleOrigin distinguishes the first automatic snapshot from the
// current live schedule, replacing the implicit coupling of two parallel
// schedule variables with one explicit tag.
type ScheduleOrigin string

const (
	OriginSnapshot ScheduleOrigin = "snapshot"
	OriginLive     ScheduleOrigin = "live"
)

// SkippedBurst records a burst that contributed nothing because its
// dates were malformed. Callers may surface these as data-quality
// warnings or ignore them; the schedule totals are unaffected either way.
type SkippedBurst struct {
	MediaType MediaType
	Reason    SkipReason
}

// Schedule is the engine's output: the campaign's months in order, the
// overall grand total, and the mode/origin tags.
type Schedule struct {
	Months     []*MonthBucket
	GrandTotal decimal.Decimal
	Mode       ScheduleMode
	Origin     ScheduleOrigin
	Warnings   []SkippedBurst
}

// Bucket returns the bucket for the given month, or nil when the month is
// outside the campaign span.
func (s *Schedule) Bucket(month MonthKey) *MonthBucket {
	for _, b := range s.Months {
		if b.Month == month {
			return b
		}
	}
	return nil
}

// Calendar returns the schedule's month keys in order.
func (s *Schedule) Calendar() []MonthKey {
	keys := make([]MonthKey, len(s.Months))
	for i, b := range s.Months {
		keys[i] = b.Month
	}
	return keys
}

// recomputeGrandTotal re-derives the schedule total from its buckets.
func (s *Schedule) recomputeGrandTotal() {
	total := decimal.Zero
	for _, b := range s.Months {
		total = total.Add(b.GrandTotal)
	}
	s.GrandTotal = total
}

// Clone returns a deep copy. The manual override layer edits clones, so
// the live schedule is never touched by an in-flight draft.
func (s *Schedule) Clone() *Schedule {
	months := make([]*MonthBucket, len(s.Months))
	for i, b := range s.Months {
		months[i] = b.clone()
	}
	warnings := make([]SkippedBurst, len(s.Warnings))
	copy(warnings, s.Warnings)
	return &Schedule{
		Months:     months,
		GrandTotal: s.GrandTotal,
		Mode:       s.Mode,
		Origin:     s.Origin,
		Warnings:   warnings,
	}
}

// =============================================================================
// MONTHLY AGGREGATOR
// =============================================================================

// ScheduleInput is everything the aggregator needs: the campaign span,
// the bursts across all media types, and the client's ad-serving rates.
type ScheduleInput struct {
	Start  Date
	End    Date
	Bursts []Burst
	Rates  RateTable
}

// BuildSchedule runs the full automatic derivation: calendar, proration,
// ad-serving cost, aggregation, total derivation. Missing campaign dates
// short-circuit to an empty schedule rather than failing.
func BuildSchedule(in ScheduleInput) *Schedule {
	calendar := BuildCalendar(in.Start, in.End)

	s := &Schedule{Mode: ModeAutomatic, Origin: OriginLive}
	index := make(map[MonthKey]*MonthBucket, len(calendar))
	for _, month := range calendar {
		bucket := NewMonthBucket(month)
		index[month] = bucket
		s.Months = append(s.Months, bucket)
	}

	for _, b := range in.Bursts {
		p := ProrateBurst(b, calendar)
		if p.Skipped {
			s.Warnings = append(s.Warnings, SkippedBurst{MediaType: b.MediaType, Reason: p.Reason})
			continue
		}

		for _, slice := range p.Slices {
			bucket := index[slice.Month]
			if b.MediaType.IsProduction() {
				bucket.ProductionTotal = bucket.ProductionTotal.Add(slice.Media)
			} else {
				bucket.MediaCosts[b.MediaType] = bucket.MediaCosts[b.MediaType].Add(slice.Media)
			}
			bucket.FeeTotal = bucket.FeeTotal.Add(slice.Fee)
			bucket.AdServingTotal = bucket.AdServingTotal.Add(AdServingCost(b, slice.Deliverables, in.Rates))
		}
	}

	for _, bucket := range s.Months {
		bucket.recompute()
	}
	s.recomputeGrandTotal()
	return s
}
